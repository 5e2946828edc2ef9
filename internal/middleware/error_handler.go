package middleware

import (
	"errors"
	"net/http"

	"strategyWorkbench/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ErrorHandler renders errors that escape handlers, including echo's own
// routing errors, as JSON.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	}

	if code >= http.StatusInternalServerError {
		logger.Error("unhandled request error", "path", c.Path(), "trace_id", TraceID(c), err)
	}

	var respErr error
	if c.Request().Method == http.MethodHead {
		respErr = c.NoContent(code)
	} else {
		respErr = c.JSON(code, errorBody(http.StatusText(code), message))
	}
	if respErr != nil {
		logger.Error("failed to write error response", respErr)
	}
}
