package ports

import (
	"context"
	"time"

	"github.com/workboard/workboard-api/internal/core/domain"
)

// PasswordHasher is a one-way adaptive hash with a per-call salt.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	// Compare returns domain.ErrInvalidCredentials when plain does not match hash.
	Compare(hash, plain string) error
}

// TokenCodec issues and verifies signed bearer tokens whose subject is the user email.
type TokenCodec interface {
	// Issue fails with domain.ErrTokenCreation when the signer is misconfigured.
	Issue(subject string) (token string, expiresAt time.Time, err error)
	// Verify returns the subject, or domain.ErrInvalidToken for every kind of failure.
	Verify(token string) (string, error)
}

// PrincipalResolver turns a verified subject into a request principal.
type PrincipalResolver interface {
	// Resolve returns domain.ErrPrincipalNotFound when no user matches subject.
	Resolve(ctx context.Context, subject string) (*domain.Principal, error)
}

// LoginLimiter throttles login attempts per account.
type LoginLimiter interface {
	// Allow counts one attempt for key and reports whether it is within the limit.
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// AuditSink accepts audit events without blocking the caller.
type AuditSink interface {
	Publish(event domain.AuditEvent)
}
