package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/workboard/workboard-api/internal/api/middleware"
	"github.com/workboard/workboard-api/internal/core/domain"
)

// actor returns the principal bound by the authenticator. Routes behind the
// route gate always have one; its absence means the gate was not mounted.
func actor(c echo.Context) (domain.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return domain.Principal{}, domain.ErrUnauthenticated
	}
	return *p, nil
}

// bindAndValidate decodes the body into req and runs struct validation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}
