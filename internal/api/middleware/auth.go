package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// BearerToken copies the token of an "Authorization: Bearer" header into the
// context under key. Verification is left to the account service so that HTTP
// and RPC callers see the same error codes. A missing header is not an error.
func BearerToken(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return next(c)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			c.Set(key, strings.TrimSpace(parts[1]))
			return next(c)
		}
	}
}
