package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/workboard/workboard-api/internal/api/metrics"
	"github.com/workboard/workboard-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var denied *domain.AccessDeniedError
	var invalid *domain.ValidationError

	switch {
	// Every authentication failure gets the same message.
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, domain.ErrUnauthenticated.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests, "too many login attempts, try again later"

	case errors.As(err, &denied):
		metrics.AccessDeniedTotal.WithLabelValues("resource").Inc()
		return http.StatusForbidden, denied.Error()
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"

	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrWorkspaceNotFound),
		errors.Is(err, domain.ErrProjectNotFound),
		errors.Is(err, domain.ErrTaskNotFound),
		errors.Is(err, domain.ErrNotMember):
		return http.StatusNotFound, rootMessage(err)

	case errors.Is(err, domain.ErrOutOfBudget):
		metrics.BudgetRejectionsTotal.Inc()
		return http.StatusConflict, domain.ErrOutOfBudget.Error()
	case errors.Is(err, domain.ErrUserExists),
		errors.Is(err, domain.ErrAlreadyMember),
		errors.Is(err, domain.ErrOwnerAsMember),
		errors.Is(err, domain.ErrBudgetBelowCost),
		errors.Is(err, domain.ErrWorkspaceNotEmpty),
		errors.Is(err, domain.ErrProjectNotEmpty):
		return http.StatusConflict, rootMessage(err)

	case errors.As(err, &invalid):
		return http.StatusBadRequest, invalid.Message
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, domain.ErrInvalidInput.Error()

	case errors.Is(err, domain.ErrTokenCreation):
		log.Error().
			Err(err).
			Str("path", c.Path()).
			Msg("token signer misconfigured")
		return http.StatusInternalServerError, "internal server error"

	case errors.Is(err, context.DeadlineExceeded):
		log.Warn().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("request deadline exceeded")
		return http.StatusServiceUnavailable, "request timed out"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}

// rootMessage returns the message of the first sentinel in err's chain, so
// wrapping context added by services never reaches the client.
func rootMessage(err error) string {
	for _, sentinel := range []error{
		domain.ErrUserNotFound, domain.ErrWorkspaceNotFound, domain.ErrProjectNotFound,
		domain.ErrTaskNotFound, domain.ErrNotMember, domain.ErrUserExists,
		domain.ErrAlreadyMember, domain.ErrOwnerAsMember, domain.ErrBudgetBelowCost,
		domain.ErrWorkspaceNotEmpty, domain.ErrProjectNotEmpty,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
