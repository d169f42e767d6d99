package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/workboard/workboard-api/internal/core/domain"
	"github.com/workboard/workboard-api/internal/core/ports"
)

const minPasswordLength = 8

// AuthService implements registration, login and the bootstrap admin seed.
type AuthService struct {
	users   ports.UserRepository
	hasher  ports.PasswordHasher
	tokens  ports.TokenCodec
	limiter ports.LoginLimiter
	audit   ports.AuditSink
	log     zerolog.Logger
	now     func() time.Time

	decoyOnce sync.Once
	decoyHash string
}

// NewAuthService wires the service. limiter and audit may be nil.
func NewAuthService(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenCodec,
	limiter ports.LoginLimiter,
	audit ports.AuditSink,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		limiter: limiter,
		audit:   audit,
		log:     log,
		now:     time.Now,
	}
}

// Register creates an account. The route is restricted to administrators.
func (s *AuthService) Register(ctx context.Context, actor domain.Principal, in ports.RegisterInput) (*domain.User, error) {
	name, err := validName("name", in.Name)
	if err != nil {
		return nil, err
	}
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.NewValidationError("email", "email must be a valid email")
	}
	if len(in.Password) < minPasswordLength {
		return nil, domain.NewValidationError("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}

	user, err := s.createUser(ctx, name, email, in.Password, role)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Str("role", string(role)).Str("actor_id", actor.UserID).Msg("user registered")
	publish(s.audit, domain.AuditEvent{
		ActorID:    actor.UserID,
		Action:     domain.AuditUserRegistered,
		Resource:   "user",
		ResourceID: user.ID,
		Details:    map[string]string{"role": string(role)},
	})
	return user, nil
}

// Login verifies credentials and issues a bearer token for the account email.
// Unknown emails and wrong passwords both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	ctx, span := startSpan(ctx, "AuthService.Login", domain.Principal{})
	result, err := s.login(ctx, normalizeEmail(email), password)
	endSpan(span, err)
	return result, err
}

func (s *AuthService) login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, email)
		if err != nil {
			s.log.Warn().Err(err).Msg("login throttle unavailable, continuing")
		} else if !allowed {
			s.loginFailed("", email, "throttled")
			return nil, domain.ErrTooManyAttempts
		}
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.compareDecoy(password)
			s.loginFailed("", email, "unknown_email")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			s.loginFailed(user.ID, email, "bad_password")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	token, expiresAt, err := s.tokens.Issue(user.Email)
	if err != nil {
		s.log.Error().Err(err).Msg("token issuance failed")
		return nil, err
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			s.log.Warn().Err(err).Msg("failed to reset login throttle")
		}
	}

	publish(s.audit, domain.AuditEvent{
		ActorID:    user.ID,
		Action:     domain.AuditLoginSucceeded,
		Resource:   "user",
		ResourceID: user.ID,
		OccurredAt: s.now().UTC(),
	})

	return &ports.LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// compareDecoy spends one hash comparison so an unknown email costs as much
// as a wrong password.
func (s *AuthService) compareDecoy(password string) {
	s.decoyOnce.Do(func() {
		h, err := s.hasher.Hash("decoy password for unknown accounts")
		if err != nil {
			s.log.Error().Err(err).Msg("decoy hash failed")
			return
		}
		s.decoyHash = h
	})
	_ = s.hasher.Compare(s.decoyHash, password)
}

func (s *AuthService) loginFailed(userID, email, reason string) {
	s.log.Info().Str("email", email).Str("reason", reason).Msg("login failed")
	publish(s.audit, domain.AuditEvent{
		ActorID:    userID,
		Action:     domain.AuditLoginFailed,
		Resource:   "user",
		ResourceID: userID,
		Details:    map[string]string{"email": email, "reason": reason},
		OccurredAt: s.now().UTC(),
	})
}

// EnsureAdmin creates the bootstrap administrator once. An existing account
// with the same email is left untouched.
func (s *AuthService) EnsureAdmin(ctx context.Context, seed ports.AdminSeed) (bool, error) {
	ctx, span := startSpan(ctx, "AuthService.EnsureAdmin", domain.Principal{}, attribute.String("workboard.email", seed.Email))
	created, err := s.ensureAdmin(ctx, seed)
	endSpan(span, err)
	return created, err
}

func (s *AuthService) ensureAdmin(ctx context.Context, seed ports.AdminSeed) (bool, error) {
	email := normalizeEmail(seed.Email)
	if email == "" || seed.Password == "" {
		return false, domain.NewValidationError("email", "bootstrap admin email and password are required")
	}
	name := strings.TrimSpace(seed.Name)
	if name == "" {
		name = "Administrator"
	}

	existing, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != domain.RoleAdmin {
			s.log.Warn().Str("user_id", existing.ID).Msg("bootstrap admin email belongs to a non-admin account")
		}
		return false, nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return false, fmt.Errorf("seed admin: %w", err)
	}

	user, err := s.createUser(ctx, name, email, seed.Password, domain.RoleAdmin)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return false, nil
		}
		return false, fmt.Errorf("seed admin: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("bootstrap admin created")
	return true, nil
}

func (s *AuthService) createUser(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           newID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
