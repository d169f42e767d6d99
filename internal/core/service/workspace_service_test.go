package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/workboard/workboard-api/internal/core/domain"
)

func newWorkspaceFixture() (*stubStore, *recordingSink, *WorkspaceService) {
	store := newStubStore()
	sink := &recordingSink{}
	svc := NewWorkspaceService(store.workspaceRepo(), newEngine(sink), sink, zerolog.Nop())
	return store, sink, svc
}

func TestWorkspaceService_Create(t *testing.T) {
	_, _, svc := newWorkspaceFixture()
	owner := principal("owner", domain.RoleWriteRead)

	ws, err := svc.Create(context.Background(), owner, "  Platform  ")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if ws.Name != "Platform" || ws.OwnerID != "owner" {
		t.Fatalf("unexpected workspace %+v", ws)
	}
	if ws.MemberIDs == nil || len(ws.MemberIDs) != 0 {
		t.Fatalf("expected an empty member set, got %v", ws.MemberIDs)
	}

	if _, err := svc.Create(context.Background(), owner, "   "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank name, got %v", err)
	}
}

func TestWorkspaceService_MembershipScenario(t *testing.T) {
	store, sink, svc := newWorkspaceFixture()
	store.putWorkspace(&domain.Workspace{ID: "ws1", Name: "W", OwnerID: "u1", MemberIDs: []string{"u2"}})
	ctx := context.Background()

	if _, err := svc.Get(ctx, principal("u2", domain.RoleReadOnly), "ws1"); err != nil {
		t.Fatalf("member should read the workspace: %v", err)
	}

	_, err := svc.Get(ctx, principal("u3", domain.RoleWriteRead), "ws1")
	var denied *domain.AccessDeniedError
	if !errors.As(err, &denied) || !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("non-member should be denied, got %v", err)
	}

	if _, err := svc.Rename(ctx, principal("u2", domain.RoleWriteRead), "ws1", "Renamed"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("member must not rename, got %v", err)
	}
	if !sink.has(domain.AuditAccessDenied) {
		t.Fatalf("expected access_denied audit events, got %v", sink.actions())
	}

	ws, err := svc.Rename(ctx, principal("u1", domain.RoleWriteRead), "ws1", "Renamed")
	if err != nil || ws.Name != "Renamed" {
		t.Fatalf("owner rename failed: ws=%+v err=%v", ws, err)
	}
}

func TestWorkspaceService_List(t *testing.T) {
	store, _, svc := newWorkspaceFixture()
	store.putWorkspace(&domain.Workspace{ID: "ws1", OwnerID: "u1", MemberIDs: []string{}})
	store.putWorkspace(&domain.Workspace{ID: "ws2", OwnerID: "u2", MemberIDs: []string{"u1"}})
	store.putWorkspace(&domain.Workspace{ID: "ws3", OwnerID: "u3", MemberIDs: []string{}})

	list, err := svc.List(context.Background(), principal("u1", domain.RoleReadOnly))
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected owned and joined workspaces, got %d", len(list))
	}
}

func TestWorkspaceService_Delete(t *testing.T) {
	store, sink, svc := newWorkspaceFixture()
	store.putWorkspace(&domain.Workspace{ID: "ws1", OwnerID: "u1", MemberIDs: []string{"u2"}})
	store.putProject(&domain.Project{ID: "p1", WorkspaceID: "ws1", OwnerID: "u1"})
	ctx := context.Background()
	owner := principal("u1", domain.RoleWriteRead)

	if err := svc.Delete(ctx, principal("u2", domain.RoleWriteRead), "ws1"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("member must not delete, got %v", err)
	}
	if err := svc.Delete(ctx, owner, "ws1"); !errors.Is(err, domain.ErrWorkspaceNotEmpty) {
		t.Fatalf("expected ErrWorkspaceNotEmpty, got %v", err)
	}

	if err := store.projectRepo().DeleteIfEmpty(ctx, "p1"); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if err := svc.Delete(ctx, owner, "ws1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := svc.Get(ctx, owner, "ws1"); !errors.Is(err, domain.ErrWorkspaceNotFound) {
		t.Fatalf("expected ErrWorkspaceNotFound after delete, got %v", err)
	}
	if !sink.has(domain.AuditWorkspaceDelete) {
		t.Fatalf("expected workspace_deleted audit event")
	}
}

func TestWorkspaceService_NotFound(t *testing.T) {
	_, _, svc := newWorkspaceFixture()
	if _, err := svc.Get(context.Background(), principal("u1", domain.RoleReadOnly), "missing"); !errors.Is(err, domain.ErrWorkspaceNotFound) {
		t.Fatalf("expected ErrWorkspaceNotFound, got %v", err)
	}
}
