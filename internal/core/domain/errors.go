package domain

import (
	"errors"
	"fmt"
)

// Authentication failures. All of them surface as the same 401 message so a
// caller cannot tell a bad signature from an unknown account.
var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidToken       = fmt.Errorf("%w: token is invalid or expired", ErrUnauthenticated)
	ErrPrincipalNotFound  = fmt.Errorf("%w: principal not found", ErrUnauthenticated)
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyAttempts    = errors.New("too many login attempts")
)

// ErrTokenCreation means the token signer is misconfigured. It is a
// deployment problem and is never retried.
var ErrTokenCreation = errors.New("token creation failed")

var ErrForbidden = errors.New("access forbidden")

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrProjectNotFound   = errors.New("project not found")
	ErrTaskNotFound      = errors.New("task not found")
)

var (
	ErrUserExists        = errors.New("user already exists")
	ErrAlreadyMember     = errors.New("user is already a member of this workspace")
	ErrNotMember         = errors.New("user is not a member of this workspace")
	ErrOwnerAsMember     = errors.New("workspace owner cannot be added as a member")
	ErrOutOfBudget       = errors.New("task cost exceeds the remaining project budget")
	ErrBudgetBelowCost   = errors.New("budget cannot be lower than the current project cost")
	ErrWorkspaceNotEmpty = errors.New("workspace still contains projects")
	ErrProjectNotEmpty   = errors.New("project still contains tasks")
)

var ErrInvalidInput = errors.New("invalid input")

// AccessDeniedError is returned by the ownership gate. Its message names the
// resource kind and action only, never whether the resource exists elsewhere.
type AccessDeniedError struct {
	Resource string
	Action   string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("you are not allowed to %s this %s", e.Action, e.Resource)
}

func (e *AccessDeniedError) Is(target error) bool {
	return target == ErrForbidden
}

// ValidationError reports a single rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}
