package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/workboard/workboard-api/internal/core/domain"
	"github.com/workboard/workboard-api/internal/core/policy"
	"github.com/workboard/workboard-api/internal/core/ports"
)

const maxDescriptionLength = 2000

type ProjectService struct {
	projects   ports.ProjectRepository
	workspaces ports.WorkspaceRepository
	policy     AccessPolicy
	log        zerolog.Logger
}

func NewProjectService(projects ports.ProjectRepository, workspaces ports.WorkspaceRepository, access AccessPolicy, log zerolog.Logger) *ProjectService {
	return &ProjectService{projects: projects, workspaces: workspaces, policy: access, log: log}
}

// Create adds a project to a workspace the actor owns or is a member of. The
// actor becomes the project owner. Cost starts at zero.
func (s *ProjectService) Create(ctx context.Context, actor domain.Principal, in ports.CreateProjectInput) (*domain.Project, error) {
	ws, err := s.workspaces.FindByID(ctx, in.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Workspace(actor, ws, policy.ActionContribute); err != nil {
		return nil, err
	}

	name, err := validName("name", in.Name)
	if err != nil {
		return nil, err
	}
	desc, err := validDescription(in.Description)
	if err != nil {
		return nil, err
	}
	if in.Budget.IsNegative() {
		return nil, domain.NewValidationError("budget", "budget must not be negative")
	}

	now := time.Now().UTC()
	p := &domain.Project{
		ID:          newID(),
		Name:        name,
		Description: desc,
		Budget:      in.Budget,
		Cost:        decimal.Zero,
		OwnerID:     actor.UserID,
		WorkspaceID: ws.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info().Str("project_id", p.ID).Str("workspace_id", ws.ID).Str("budget", p.Budget.String()).Msg("project created")
	return p, nil
}

func (s *ProjectService) ListByWorkspace(ctx context.Context, actor domain.Principal, workspaceID string) ([]*domain.Project, error) {
	ws, err := s.workspaces.FindByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Workspace(actor, ws, policy.ActionRead); err != nil {
		return nil, err
	}
	return s.projects.ListByWorkspace(ctx, ws.ID)
}

func (s *ProjectService) Get(ctx context.Context, actor domain.Principal, id string) (*domain.Project, error) {
	proj, ws, err := loadProjectScope(ctx, s.projects, s.workspaces, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Project(actor, proj, ws, policy.ActionRead); err != nil {
		return nil, err
	}
	return proj, nil
}

// Update applies the provided fields. A budget below the current cost is
// rejected here and again by the repository against the stored cost.
func (s *ProjectService) Update(ctx context.Context, actor domain.Principal, id string, upd domain.ProjectUpdate) (_ *domain.Project, err error) {
	ctx, span := startSpan(ctx, "ProjectService.Update", actor, attribute.String("workboard.project_id", id))
	defer func() { endSpan(span, err) }()

	proj, ws, err := loadProjectScope(ctx, s.projects, s.workspaces, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Project(actor, proj, ws, policy.ActionUpdate); err != nil {
		return nil, err
	}

	if upd.Name != nil {
		name, err := validName("name", *upd.Name)
		if err != nil {
			return nil, err
		}
		upd.Name = &name
	}
	if upd.Description != nil {
		desc, err := validDescription(*upd.Description)
		if err != nil {
			return nil, err
		}
		upd.Description = &desc
	}
	if upd.Budget != nil {
		if upd.Budget.IsNegative() {
			return nil, domain.NewValidationError("budget", "budget must not be negative")
		}
		if upd.Budget.LessThan(proj.Cost) {
			return nil, domain.ErrBudgetBelowCost
		}
	}

	updated, err := s.projects.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("project_id", id).Str("budget", updated.Budget.String()).Msg("project updated")
	return updated, nil
}

// Delete removes a project that has no tasks left.
func (s *ProjectService) Delete(ctx context.Context, actor domain.Principal, id string) error {
	proj, ws, err := loadProjectScope(ctx, s.projects, s.workspaces, id)
	if err != nil {
		return err
	}
	if err := s.policy.Project(actor, proj, ws, policy.ActionDelete); err != nil {
		return err
	}
	if err := s.projects.DeleteIfEmpty(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("project_id", id).Msg("project deleted")
	return nil
}

func validDescription(desc string) (string, error) {
	desc = strings.TrimSpace(desc)
	if len(desc) > maxDescriptionLength {
		return "", domain.NewValidationError("description", "description is too long")
	}
	return desc, nil
}
