package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/meditrack/meditrack-api/internal/core/domain"
)

// ToHTTPError translates domain errors into *echo.HTTPError. Anything it
// does not recognise is returned unchanged so the central error handler
// logs it and answers 500.
func ToHTTPError(err error) error {
	if err == nil {
		return nil
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return echo.NewHTTPError(http.StatusBadRequest, ve.Message).SetInternal(err)
	}
	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		return echo.NewHTTPError(http.StatusNotFound, nf.Error()).SetInternal(err)
	}

	switch {
	case errors.Is(err, domain.ErrUserExists):
		return echo.NewHTTPError(http.StatusBadRequest, domain.ErrUserExists.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusBadRequest, domain.ErrInvalidCredentials.Error())
	case errors.Is(err, domain.ErrAuthenticationRequired):
		return echo.NewHTTPError(http.StatusUnauthorized, domain.ErrAuthenticationRequired.Error())
	case errors.Is(err, domain.ErrInvalidToken):
		return echo.NewHTTPError(http.StatusForbidden, domain.ErrInvalidToken.Error()).SetInternal(err)
	case errors.Is(err, domain.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, domain.ErrForbidden.Error())
	case errors.Is(err, domain.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, domain.ErrNotFound.Error())
	case errors.Is(err, domain.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return err
}
