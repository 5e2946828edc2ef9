package middleware

import (
	"net/http"
	"strings"

	"strategyWorkbench/pkg/logger"
	"strategyWorkbench/pkg/utils"

	"github.com/labstack/echo/v4"
)

// AuthMiddleware requires a bearer token signed with secret and stores the
// token's author under "author".
func AuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return c.JSON(http.StatusUnauthorized, errorBody("UNAUTHORIZED", "Missing authorization header"))
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return c.JSON(http.StatusUnauthorized, errorBody("UNAUTHORIZED", "Invalid authorization format"))
			}

			claims, err := utils.ParseJWT(secret, tokenParts[1])
			if err != nil {
				logger.Debug("rejected bearer token", err)
				return c.JSON(http.StatusUnauthorized, errorBody("UNAUTHORIZED", "Invalid token"))
			}

			c.Set("author", claims.Author)

			return next(c)
		}
	}
}

// Optional returns mw when enabled and a pass-through otherwise.
func Optional(enabled bool, mw echo.MiddlewareFunc) echo.MiddlewareFunc {
	if enabled {
		return mw
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return next
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorBody(code, message string) errorResponse {
	return errorResponse{Code: code, Message: message}
}
