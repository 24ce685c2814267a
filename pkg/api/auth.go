package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v5"
)

const bearerPrefix = "Bearer "

// bearerAuth returns middleware enforcing §6's bearer-token auth: requests
// without a matching `Authorization: Bearer <token>` header get a 401
// (§7 "bad auth" is one of /extract's 4xx input errors). token is compared
// in constant time to avoid leaking it through response-time side channels.
func bearerAuth(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, bearerPrefix) {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			supplied := strings.TrimPrefix(header, bearerPrefix)
			if subtle.ConstantTimeCompare([]byte(supplied), []byte(token)) != 1 {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid bearer token")
			}
			return next(c)
		}
	}
}
