package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/workboard/workboard-api/internal/core/domain"
	"github.com/workboard/workboard-api/internal/core/policy"
	"github.com/workboard/workboard-api/internal/core/ports"
)

type WorkspaceService struct {
	workspaces ports.WorkspaceRepository
	policy     AccessPolicy
	audit      ports.AuditSink
	log        zerolog.Logger
}

func NewWorkspaceService(workspaces ports.WorkspaceRepository, access AccessPolicy, audit ports.AuditSink, log zerolog.Logger) *WorkspaceService {
	return &WorkspaceService{workspaces: workspaces, policy: access, audit: audit, log: log}
}

// Create makes the actor the owner of a new, memberless workspace.
func (s *WorkspaceService) Create(ctx context.Context, actor domain.Principal, name string) (*domain.Workspace, error) {
	name, err := validName("name", name)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ws := &domain.Workspace{
		ID:        newID(),
		Name:      name,
		OwnerID:   actor.UserID,
		MemberIDs: []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.workspaces.Create(ctx, ws); err != nil {
		return nil, err
	}

	s.log.Info().Str("workspace_id", ws.ID).Str("owner_id", actor.UserID).Msg("workspace created")
	return ws, nil
}

// List returns the workspaces the actor owns or belongs to.
func (s *WorkspaceService) List(ctx context.Context, actor domain.Principal) ([]*domain.Workspace, error) {
	return s.workspaces.ListForUser(ctx, actor.UserID)
}

func (s *WorkspaceService) Get(ctx context.Context, actor domain.Principal, id string) (*domain.Workspace, error) {
	ws, err := s.workspaces.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Workspace(actor, ws, policy.ActionRead); err != nil {
		return nil, err
	}
	return ws, nil
}

func (s *WorkspaceService) Rename(ctx context.Context, actor domain.Principal, id, name string) (*domain.Workspace, error) {
	ws, err := s.workspaces.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Workspace(actor, ws, policy.ActionUpdate); err != nil {
		return nil, err
	}
	name, err = validName("name", name)
	if err != nil {
		return nil, err
	}
	return s.workspaces.Rename(ctx, id, name)
}

// Delete removes an empty workspace. Workspaces that still hold projects are
// rejected with domain.ErrWorkspaceNotEmpty.
func (s *WorkspaceService) Delete(ctx context.Context, actor domain.Principal, id string) (err error) {
	ctx, span := startSpan(ctx, "WorkspaceService.Delete", actor, attribute.String("workboard.workspace_id", id))
	defer func() { endSpan(span, err) }()

	ws, err := s.workspaces.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.Workspace(actor, ws, policy.ActionDelete); err != nil {
		return err
	}
	if err := s.workspaces.DeleteIfEmpty(ctx, id); err != nil {
		return err
	}

	s.log.Info().Str("workspace_id", id).Str("actor_id", actor.UserID).Msg("workspace deleted")
	publish(s.audit, domain.AuditEvent{
		ActorID:    actor.UserID,
		Action:     domain.AuditWorkspaceDelete,
		Resource:   string(policy.ResourceWorkspace),
		ResourceID: id,
	})
	return nil
}
