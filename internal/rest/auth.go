package rest

import (
	"net/http"
	"time"

	"strategyWorkbench/pkg/logger"
	"strategyWorkbench/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	secret    string
	ttl       time.Duration
	validator *validator.Validate
}

func NewAuthHandler(secret string, ttl time.Duration) *AuthHandler {
	return &AuthHandler{
		secret:    secret,
		ttl:       ttl,
		validator: validator.New(),
	}
}

type TokenRequest struct {
	Author string `json:"author" validate:"required,max=100"`
}

// IssueToken hands out a bearer token for project writes.
func (h *AuthHandler) IssueToken(c echo.Context) error {
	var req TokenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	token, err := utils.GenerateJWT(h.secret, req.Author, h.ttl)
	if err != nil {
		logger.Error("Failed to generate token", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: "failed to generate token"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":    "token issued",
		"token":      token,
		"expires_in": int(h.ttl.Seconds()),
	})
}
