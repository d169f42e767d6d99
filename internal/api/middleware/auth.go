package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/workboard/workboard-api/internal/api/metrics"
	"github.com/workboard/workboard-api/internal/core/domain"
	"github.com/workboard/workboard-api/internal/core/ports"
)

// Authenticate resolves the bearer token into a principal and binds it to the
// request. It never rejects a request on its own: a missing header, a bad
// token or an unknown subject leave the request anonymous and the route gate
// decides. Only unexpected resolver failures are returned, as 500s.
func Authenticate(tokens ports.TokenCodec, resolver ports.PrincipalResolver, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				metrics.RequestAuthTotal.WithLabelValues("anonymous").Inc()
				return next(c)
			}

			p, err := resolve(c.Request().Context(), tokens, resolver, authHeader)
			switch {
			case err == nil:
				SetPrincipal(c, p)
				metrics.RequestAuthTotal.WithLabelValues("authenticated").Inc()
			case demotable(err):
				log.Debug().
					Err(err).
					Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
					Msg("credential rejected, continuing anonymously")
				metrics.RequestAuthTotal.WithLabelValues("rejected").Inc()
			default:
				metrics.RequestAuthTotal.WithLabelValues("error").Inc()
				return fmt.Errorf("authenticate request: %w", err)
			}

			return next(c)
		}
	}
}

func resolve(ctx context.Context, tokens ports.TokenCodec, resolver ports.PrincipalResolver, authHeader string) (*domain.Principal, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return nil, domain.ErrInvalidToken
	}

	subject, err := tokens.Verify(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, err
	}
	return resolver.Resolve(ctx, subject)
}

// demotable reports whether err is an expected authentication failure. A
// deadline hit while resolving also counts, so a slow store fails closed.
func demotable(err error) bool {
	return errors.Is(err, domain.ErrUnauthenticated) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}
