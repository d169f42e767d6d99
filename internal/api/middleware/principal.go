package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/workboard/workboard-api/internal/core/domain"
)

const principalKey = "principal"

// SetPrincipal binds p to the request for the rest of its handling.
func SetPrincipal(c echo.Context, p *domain.Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the principal bound by Authenticate, if any.
func PrincipalFrom(c echo.Context) (*domain.Principal, bool) {
	p, ok := c.Get(principalKey).(*domain.Principal)
	return p, ok && p != nil
}
