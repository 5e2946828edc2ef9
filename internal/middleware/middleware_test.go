package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"strategyWorkbench/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(c echo.Context) error {
	author, _ := c.Get("author").(string)
	return c.String(http.StatusOK, author)
}

func TestAuthMiddleware(t *testing.T) {
	e := echo.New()
	h := AuthMiddleware("s3cret")(okHandler)

	valid, err := utils.GenerateJWT("s3cret", "analyst", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   int
		body   string
	}{
		{name: "missing header", header: "", code: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", code: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", code: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + valid, code: http.StatusOK, body: "analyst"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()

			require.NoError(t, h(e.NewContext(req, rec)))
			assert.Equal(t, tt.code, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestOptional(t *testing.T) {
	e := echo.New()
	h := Optional(false, AuthMiddleware("s3cret"))(okHandler)

	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTrace(t *testing.T) {
	e := echo.New()
	h := Trace()(func(c echo.Context) error {
		return c.String(http.StatusOK, TraceID(c))
	})

	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)))
	assert.NotEmpty(t, rec.Body.String())
	assert.Equal(t, rec.Body.String(), rec.Header().Get(HeaderTraceID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderTraceID, "abc")
	rec = httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	assert.Equal(t, "abc", rec.Body.String())
}

func TestErrorHandler(t *testing.T) {
	e := echo.New()

	rec := httptest.NewRecorder()
	ErrorHandler(echo.NewHTTPError(http.StatusNotFound, "route not found"), e.NewContext(httptest.NewRequest(http.MethodGet, "/x", nil), rec))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"code":"Not Found","message":"route not found"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	ErrorHandler(errors.New("boom"), e.NewContext(httptest.NewRequest(http.MethodGet, "/x", nil), rec))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"code":"Internal Server Error","message":"Internal Server Error"}`, rec.Body.String())
}
