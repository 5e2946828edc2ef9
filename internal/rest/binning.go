package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"strategyWorkbench/business/binning"
	"strategyWorkbench/domain"
	"strategyWorkbench/internal/render"
	"strategyWorkbench/pkg/logger"
	"strategyWorkbench/pkg/task"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	BinningHandler struct {
		binningService BinningService
		validate       *validator.Validate
		timeout        time.Duration
		now            func() time.Time
	}

	BinningService interface {
		Features() []domain.FeatureProfile
		Recompute(ctx context.Context, feature string, cuts domain.CutPointSet) (binning.View, error)
		CreateSession(ctx context.Context, feature string, cuts domain.CutPointSet) (binning.View, error)
		GetSession(ctx context.Context, id string) (binning.View, error)
		DeleteSession(ctx context.Context, id string) error
		SelectFeature(ctx context.Context, id, feature string) (binning.View, error)
		SetCutPoints(ctx context.Context, id string, cuts domain.CutPointSet) (binning.View, error)
		BeginDrag(ctx context.Context, id string, handle int, pointerX float64) (binning.View, error)
		MoveDrag(ctx context.Context, id string, pointerX float64) (binning.View, error)
		EndDrag(ctx context.Context, id string) (binning.View, error)
		Render(ctx context.Context, id string, target binning.RenderTarget) error
		ApplyToProject(ctx context.Context, id, projectID string) (*task.Future, error)
	}

	CreateSessionRequest struct {
		Feature   string    `json:"feature" validate:"required"`
		CutPoints []float64 `json:"cut_points" validate:"omitempty,min=2"`
	}

	RecomputeRequest struct {
		Feature   string    `json:"feature" validate:"required"`
		CutPoints []float64 `json:"cut_points" validate:"omitempty,min=2"`
	}

	SelectFeatureRequest struct {
		Feature string `json:"feature" validate:"required"`
	}

	CutPointsRequest struct {
		CutPoints []float64 `json:"cut_points" validate:"required,min=2"`
	}

	DragStartRequest struct {
		Handle   *int     `json:"handle" validate:"required"`
		PointerX *float64 `json:"pointer_x" validate:"required"`
	}

	DragMoveRequest struct {
		PointerX *float64 `json:"pointer_x" validate:"required"`
	}

	ApplyBinningRequest struct {
		ProjectID string `json:"project_id" validate:"required"`
	}
)

func NewBinningHandler(svc BinningService, timeout time.Duration) *BinningHandler {
	return &BinningHandler{
		binningService: svc,
		validate:       validator.New(),
		timeout:        timeout,
		now:            time.Now,
	}
}

func (h *BinningHandler) ListFeatures(c echo.Context) error {
	return c.JSON(http.StatusOK, fres.Response.StatusOK(h.binningService.Features()))
}

// Recompute runs a one-off recompute without creating a session.
func (h *BinningHandler) Recompute(c echo.Context) error {
	var req RecomputeRequest
	if err := h.bind(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	view, err := h.binningService.Recompute(ctx, req.Feature, req.CutPoints)
	if err != nil {
		logger.Error("Failed to recompute bins", err)
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(view))
}

func (h *BinningHandler) CreateSession(c echo.Context) error {
	var req CreateSessionRequest
	if err := h.bind(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	view, err := h.binningService.CreateSession(ctx, req.Feature, req.CutPoints)
	if err != nil {
		logger.Error("Failed to create binning session", err)
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(view))
}

func (h *BinningHandler) GetSession(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	view, err := h.binningService.GetSession(ctx, c.Param("id"))
	if err != nil {
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(view))
}

func (h *BinningHandler) DeleteSession(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	id := c.Param("id")
	if err := h.binningService.DeleteSession(ctx, id); err != nil {
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":    "binning session deleted",
		"session_id": id,
	})
}

func (h *BinningHandler) SelectFeature(c echo.Context) error {
	var req SelectFeatureRequest
	if err := h.bind(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	view, err := h.binningService.SelectFeature(ctx, c.Param("id"), req.Feature)
	if err != nil {
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(view))
}

func (h *BinningHandler) SetCutPoints(c echo.Context) error {
	var req CutPointsRequest
	if err := h.bind(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	view, err := h.binningService.SetCutPoints(ctx, c.Param("id"), req.CutPoints)
	if err != nil {
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(view))
}

func (h *BinningHandler) BeginDrag(c echo.Context) error {
	var req DragStartRequest
	if err := h.bind(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	view, err := h.binningService.BeginDrag(ctx, c.Param("id"), *req.Handle, *req.PointerX)
	if err != nil {
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(view))
}

func (h *BinningHandler) MoveDrag(c echo.Context) error {
	var req DragMoveRequest
	if err := h.bind(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	view, err := h.binningService.MoveDrag(ctx, c.Param("id"), *req.PointerX)
	if err != nil {
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(view))
}

func (h *BinningHandler) EndDrag(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	view, err := h.binningService.EndDrag(ctx, c.Param("id"))
	if err != nil {
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(view))
}

func (h *BinningHandler) Chart(c echo.Context) error {
	format, err := render.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	renderer := render.NewChartRenderer(format)
	if err := h.binningService.Render(ctx, c.Param("id"), renderer); err != nil {
		logger.Error("Failed to render chart", "session_id", c.Param("id"), err)
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.Blob(http.StatusOK, format.ContentType(), renderer.Bytes())
}

func (h *BinningHandler) Report(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	id := c.Param("id")
	report := render.NewReport(h.now())
	if err := h.binningService.Render(ctx, id, report); err != nil {
		logger.Error("Failed to render report", "session_id", id, err)
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	pdf, err := report.Bytes()
	if err != nil {
		logger.Error("Failed to write report", "session_id", id, err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`inline; filename="binning-%s.pdf"`, id))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

func (h *BinningHandler) ApplyToProject(c echo.Context) error {
	var req ApplyBinningRequest
	if err := h.bind(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	f, err := h.binningService.ApplyToProject(ctx, c.Param("id"), req.ProjectID)
	if err != nil {
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"message": "binning apply scheduled",
		"task":    f.View(),
	})
}

func (h *BinningHandler) bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		logger.Error("Failed to bind request", err)
		return err
	}
	if err := h.validate.Struct(req); err != nil {
		logger.Error("Failed to validate request", err)
		return err
	}
	return nil
}
