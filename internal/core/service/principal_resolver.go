package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/workboard/workboard-api/internal/core/domain"
	"github.com/workboard/workboard-api/internal/core/ports"
)

// PrincipalResolver loads the user behind a token subject on every request.
// There is no cache, so a role change applies to the next request.
type PrincipalResolver struct {
	users ports.UserRepository
}

func NewPrincipalResolver(users ports.UserRepository) *PrincipalResolver {
	return &PrincipalResolver{users: users}
}

func (r *PrincipalResolver) Resolve(ctx context.Context, subject string) (*domain.Principal, error) {
	if subject == "" {
		return nil, domain.ErrPrincipalNotFound
	}

	user, err := r.users.FindByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("resolve principal: %w", err)
	}

	p := domain.NewPrincipal(user)
	return &p, nil
}
