package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/workboard/workboard-api/internal/core/domain"
	"github.com/workboard/workboard-api/internal/core/policy"
	"github.com/workboard/workboard-api/internal/core/ports"
)

// MemberService manages the member set of a workspace.
type MemberService struct {
	workspaces ports.WorkspaceRepository
	users      ports.UserRepository
	policy     AccessPolicy
	audit      ports.AuditSink
	log        zerolog.Logger
}

func NewMemberService(workspaces ports.WorkspaceRepository, users ports.UserRepository, access AccessPolicy, audit ports.AuditSink, log zerolog.Logger) *MemberService {
	return &MemberService{workspaces: workspaces, users: users, policy: access, audit: audit, log: log}
}

// Add grants membership to the account registered under email.
func (s *MemberService) Add(ctx context.Context, actor domain.Principal, workspaceID, email string) (*domain.Workspace, error) {
	ws, err := s.workspaces.FindByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Workspace(actor, ws, policy.ActionManageMembers); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if ws.IsOwner(user.ID) {
		return nil, domain.ErrOwnerAsMember
	}
	if err := s.workspaces.AddMember(ctx, ws.ID, user.ID); err != nil {
		return nil, err
	}

	s.log.Info().Str("workspace_id", ws.ID).Str("member_id", user.ID).Msg("member added")
	publish(s.audit, domain.AuditEvent{
		ActorID:    actor.UserID,
		Action:     domain.AuditMemberAdded,
		Resource:   string(policy.ResourceWorkspace),
		ResourceID: ws.ID,
		Details:    map[string]string{"member_id": user.ID},
	})
	return s.workspaces.FindByID(ctx, ws.ID)
}

// List returns the members of a workspace, without the owner.
func (s *MemberService) List(ctx context.Context, actor domain.Principal, workspaceID string) ([]domain.UserSummary, error) {
	ws, err := s.workspaces.FindByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Workspace(actor, ws, policy.ActionRead); err != nil {
		return nil, err
	}

	members := make([]domain.UserSummary, 0, len(ws.MemberIDs))
	for _, id := range ws.MemberIDs {
		user, err := s.users.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				s.log.Warn().Str("workspace_id", ws.ID).Str("member_id", id).Msg("member references unknown user")
				continue
			}
			return nil, err
		}
		members = append(members, user.Summary())
	}
	return members, nil
}

// Remove revokes membership. Owners may remove anyone; a member may remove
// only themselves.
func (s *MemberService) Remove(ctx context.Context, actor domain.Principal, workspaceID, userID string) (*domain.Workspace, error) {
	ws, err := s.workspaces.FindByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	leaving := actor.UserID == userID && ws.HasMember(userID)
	if !leaving {
		if err := s.policy.Workspace(actor, ws, policy.ActionManageMembers); err != nil {
			return nil, err
		}
	}
	if err := s.workspaces.RemoveMember(ctx, ws.ID, userID); err != nil {
		return nil, err
	}

	s.log.Info().Str("workspace_id", ws.ID).Str("member_id", userID).Bool("self", leaving).Msg("member removed")
	publish(s.audit, domain.AuditEvent{
		ActorID:    actor.UserID,
		Action:     domain.AuditMemberRemoved,
		Resource:   string(policy.ResourceWorkspace),
		ResourceID: ws.ID,
		Details:    map[string]string{"member_id": userID},
	})
	return s.workspaces.FindByID(ctx, ws.ID)
}
