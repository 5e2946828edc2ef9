package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"strategyWorkbench/domain"
	"strategyWorkbench/pkg/logger"
	"strategyWorkbench/pkg/task"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type ProjectService interface {
	ListProjects(ctx context.Context, filter domain.ProjectFilter) ([]domain.Project, error)
	GetProject(ctx context.Context, id string) (domain.Project, error)
	SaveProject(ctx context.Context, project *domain.Project) (*domain.Project, error)
	UpdateProject(ctx context.Context, project *domain.Project) (*domain.Project, error)
	DeleteProject(ctx context.Context, id string) error
	DuplicateProject(ctx context.Context, id string) (*domain.Project, error)
	ExportProject(ctx context.Context, id string) (domain.ProjectExport, error)
	ImportProject(ctx context.Context, shareCode string) (*domain.Project, error)
	ExportAllProjects(ctx context.Context) (*task.Future, error)
}

type ProjectHandler struct {
	projectService ProjectService
	validator      *validator.Validate
	timeout        time.Duration
}

func NewProjectHandler(projectService ProjectService, timeout time.Duration) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		validator:      validator.New(),
		timeout:        timeout,
	}
}

type ProjectRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Tags        []string        `json:"tags" validate:"max=20,dive,max=50"`
	Status      string          `json:"status" validate:"omitempty,oneof=draft in_progress completed"`
	Author      string          `json:"author" validate:"max=100"`
	SQLCode     string          `json:"sql_code"`
	Transcript  json.RawMessage `json:"transcript"`
}

type ImportProjectRequest struct {
	ShareCode string `json:"share_code" validate:"required"`
}

type ListProjectsQuery struct {
	Status  string `query:"status" validate:"omitempty,oneof=draft in_progress completed"`
	Keyword string `query:"q"`
	Days    int    `query:"days" validate:"gte=0"`
}

func (r ProjectRequest) toDomain() *domain.Project {
	return &domain.Project{
		Name:        r.Name,
		Description: r.Description,
		Tags:        r.Tags,
		Status:      r.Status,
		Author:      r.Author,
		SQLCode:     r.SQLCode,
		Transcript:  []byte(r.Transcript),
	}
}

func (h *ProjectHandler) ListProjects(c echo.Context) error {
	var q ListProjectsQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validator.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	filter := domain.ProjectFilter{Status: q.Status, Keyword: q.Keyword}
	if q.Days > 0 {
		filter.Since = time.Now().AddDate(0, 0, -q.Days)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	projects, err := h.projectService.ListProjects(ctx, filter)
	if err != nil {
		logger.Error("Failed to list projects", err)
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(projects))
}

func (h *ProjectHandler) GetProject(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	project, err := h.projectService.GetProject(ctx, c.Param("id"))
	if err != nil {
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(project))
}

func (h *ProjectHandler) CreateProject(c echo.Context) error {
	var req ProjectRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validator.Struct(&req); err != nil {
		logger.Error("Failed to validate project request", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	project := req.toDomain()
	if author, ok := c.Get("author").(string); ok && author != "" {
		project.Author = author
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	saved, err := h.projectService.SaveProject(ctx, project)
	if err != nil {
		logger.Error("Failed to save project", err)
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(saved))
}

func (h *ProjectHandler) UpdateProject(c echo.Context) error {
	var req ProjectRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	project := req.toDomain()
	project.ID = c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	updated, err := h.projectService.UpdateProject(ctx, project)
	if err != nil {
		logger.Error("Failed to update project", err)
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(updated))
}

func (h *ProjectHandler) DeleteProject(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	id := c.Param("id")
	if err := h.projectService.DeleteProject(ctx, id); err != nil {
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":    "project successfully deleted",
		"project_id": id,
	})
}

func (h *ProjectHandler) DuplicateProject(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	project, err := h.projectService.DuplicateProject(ctx, c.Param("id"))
	if err != nil {
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(project))
}

func (h *ProjectHandler) ExportProject(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	exp, err := h.projectService.ExportProject(ctx, c.Param("id"))
	if err != nil {
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(exp))
}

func (h *ProjectHandler) ImportProject(c echo.Context) error {
	var req ImportProjectRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	project, err := h.projectService.ImportProject(ctx, req.ShareCode)
	if err != nil {
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(project))
}

func (h *ProjectHandler) ExportAllProjects(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	f, err := h.projectService.ExportAllProjects(ctx)
	if err != nil {
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"message": "project export scheduled",
		"task":    f.View(),
	})
}
