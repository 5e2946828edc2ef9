package rest

import (
	"context"
	"errors"
	"net/http"

	"strategyWorkbench/domain"
	"strategyWorkbench/internal/render"
)

type ResponseError struct {
	Message string `json:"message"`
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrProjectNotFound),
		errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidCutPoints),
		errors.Is(err, domain.ErrUnknownFeature),
		errors.Is(err, domain.ErrUnknownHandle),
		errors.Is(err, domain.ErrInvalidProject),
		errors.Is(err, render.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotDragging),
		errors.Is(err, domain.ErrAlreadyDragging):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
