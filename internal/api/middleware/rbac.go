package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/meditrack/meditrack-api/internal/api/metrics"
	"github.com/meditrack/meditrack-api/internal/core/domain"
)

// RBAC admits only identities whose role is in allowedRoles. It must run
// after Auth.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := domain.IdentityFromContext(c.Request().Context())
			if !ok {
				metrics.AccessDeniedTotal.WithLabelValues("anonymous").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, domain.ErrAuthenticationRequired.Error())
			}
			if _, ok := allowed[id.Role]; !ok {
				metrics.AccessDeniedTotal.WithLabelValues(string(id.Role)).Inc()
				return echo.NewHTTPError(http.StatusForbidden, domain.ErrForbidden.Error())
			}
			return next(c)
		}
	}
}
