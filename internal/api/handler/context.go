package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/meditrack/meditrack-api/internal/core/domain"
	"github.com/meditrack/meditrack-api/internal/core/ports"
)

// ctxIdentity returns the identity attached by the Auth middleware. Its
// absence means the route was registered without the middleware.
func ctxIdentity(c echo.Context) (*domain.Identity, error) {
	id, ok := domain.IdentityFromContext(c.Request().Context())
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, domain.ErrAuthenticationRequired.Error())
	}
	return id, nil
}

func requestMeta(c echo.Context) ports.RequestMeta {
	return ports.RequestMeta{
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}

// bindAndValidate decodes the request into dst and runs the registered
// validator over it.
func bindAndValidate(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	if err := c.Validate(dst); err != nil {
		return err
	}
	return nil
}
