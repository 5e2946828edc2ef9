package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const HeaderTraceID = "X-Trace-Id"

// Trace tags every request with a trace id, reusing the caller's when given.
func Trace() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(HeaderTraceID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Set("trace_id", id)
			c.Response().Header().Set(HeaderTraceID, id)
			return next(c)
		}
	}
}

func TraceID(c echo.Context) string {
	id, _ := c.Get("trace_id").(string)
	return id
}
