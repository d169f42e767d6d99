package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/workboard/workboard-api/internal/core/domain"
	"github.com/workboard/workboard-api/internal/core/ports"
)

// UserService covers account administration behind the ADMIN route gate.
type UserService struct {
	users ports.UserRepository
	audit ports.AuditSink
	log   zerolog.Logger
}

func NewUserService(users ports.UserRepository, audit ports.AuditSink, log zerolog.Logger) *UserService {
	return &UserService{users: users, audit: audit, log: log}
}

func (s *UserService) List(ctx context.Context, _ domain.Principal) ([]*domain.User, error) {
	return s.users.List(ctx)
}

// ChangeRole assigns a new role. Administrators cannot demote themselves,
// which would leave the account unable to undo the change.
func (s *UserService) ChangeRole(ctx context.Context, actor domain.Principal, userID, role string) (*domain.User, error) {
	newRole, err := domain.ParseRole(role)
	if err != nil {
		return nil, err
	}
	if actor.UserID == userID && newRole != domain.RoleAdmin {
		return nil, domain.NewValidationError("role", "administrators cannot change their own role")
	}

	before, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.UpdateRole(ctx, userID, newRole)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", userID).Str("from", string(before.Role)).Str("to", string(newRole)).Msg("role changed")
	publish(s.audit, domain.AuditEvent{
		ActorID:    actor.UserID,
		Action:     domain.AuditRoleChanged,
		Resource:   "user",
		ResourceID: userID,
		Details:    map[string]string{"from": string(before.Role), "to": string(newRole)},
		OccurredAt: time.Now().UTC(),
	})
	return user, nil
}
