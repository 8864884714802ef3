// Package middleware holds the echo middleware that guards the API: the
// bearer-token auth gate, the role guard and request logging.
package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/meditrack/meditrack-api/internal/api/metrics"
	"github.com/meditrack/meditrack-api/internal/core/domain"
	"github.com/meditrack/meditrack-api/internal/core/ports"
)

const (
	msgTokenRequired = "access token required"
	msgTokenInvalid  = "invalid or expired token"
)

// Auth verifies the bearer token and attaches the decoded identity to the
// request context. A nil denylist disables revocation checks.
func Auth(verifier ports.TokenVerifier, denylist ports.TokenDenylist) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				metrics.TokenVerificationsTotal.WithLabelValues("missing").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, msgTokenRequired)
			}

			id, err := verifier.Verify(raw)
			if err != nil {
				metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
				return echo.NewHTTPError(http.StatusForbidden, msgTokenInvalid).SetInternal(err)
			}

			if denylist != nil {
				revoked, err := denylist.IsRevoked(c.Request().Context(), id.TokenID)
				if err != nil {
					metrics.TokenVerificationsTotal.WithLabelValues("error").Inc()
					return fmt.Errorf("token denylist lookup: %w", err)
				}
				if revoked {
					metrics.TokenVerificationsTotal.WithLabelValues("revoked").Inc()
					return echo.NewHTTPError(http.StatusForbidden, msgTokenInvalid)
				}
			}

			metrics.TokenVerificationsTotal.WithLabelValues("valid").Inc()
			req := c.Request()
			c.SetRequest(req.WithContext(domain.WithIdentity(req.Context(), id)))
			return next(c)
		}
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
