package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/workboard/workboard-api/internal/core/domain"
)

func newMemberFixture() (*stubStore, *recordingSink, *MemberService) {
	store := newStubStore()
	store.putWorkspace(&domain.Workspace{ID: "ws1", Name: "W", OwnerID: "u1", MemberIDs: []string{}})
	users := newStubUserRepo(
		&domain.User{ID: "u1", Name: "Owner", Email: "owner@example.com", Role: domain.RoleWriteRead},
		&domain.User{ID: "u2", Name: "Member", Email: "member@example.com", Role: domain.RoleReadOnly},
		&domain.User{ID: "u3", Name: "Other", Email: "other@example.com", Role: domain.RoleWriteRead},
	)
	sink := &recordingSink{}
	svc := NewMemberService(store.workspaceRepo(), users, newEngine(sink), sink, zerolog.Nop())
	return store, sink, svc
}

func TestMemberService_AddListRemove(t *testing.T) {
	_, sink, svc := newMemberFixture()
	ctx := context.Background()
	owner := principal("u1", domain.RoleWriteRead)

	ws, err := svc.Add(ctx, owner, "ws1", "Member@Example.com")
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if !ws.HasMember("u2") {
		t.Fatalf("expected u2 to be a member, got %v", ws.MemberIDs)
	}

	members, err := svc.List(ctx, principal("u2", domain.RoleReadOnly), "ws1")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(members) != 1 || members[0].Email != "member@example.com" {
		t.Fatalf("unexpected members %+v", members)
	}

	if _, err := svc.Add(ctx, owner, "ws1", "member@example.com"); !errors.Is(err, domain.ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember, got %v", err)
	}

	ws, err = svc.Remove(ctx, owner, "ws1", "u2")
	if err != nil || ws.HasMember("u2") {
		t.Fatalf("Remove failed: ws=%+v err=%v", ws, err)
	}
	if !sink.has(domain.AuditMemberAdded) || !sink.has(domain.AuditMemberRemoved) {
		t.Fatalf("expected membership audit events, got %v", sink.actions())
	}
}

func TestMemberService_OwnerCannotBeMember(t *testing.T) {
	_, _, svc := newMemberFixture()
	if _, err := svc.Add(context.Background(), principal("u1", domain.RoleWriteRead), "ws1", "owner@example.com"); !errors.Is(err, domain.ErrOwnerAsMember) {
		t.Fatalf("expected ErrOwnerAsMember, got %v", err)
	}
}

func TestMemberService_OnlyOwnerManages(t *testing.T) {
	store, _, svc := newMemberFixture()
	store.putWorkspace(&domain.Workspace{ID: "ws1", OwnerID: "u1", MemberIDs: []string{"u2"}})
	ctx := context.Background()

	if _, err := svc.Add(ctx, principal("u2", domain.RoleWriteRead), "ws1", "other@example.com"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("member must not add members, got %v", err)
	}
	if _, err := svc.Add(ctx, principal("u3", domain.RoleWriteRead), "ws1", "other@example.com"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("outsider must not add members, got %v", err)
	}
	if _, err := svc.List(ctx, principal("u3", domain.RoleReadOnly), "ws1"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("outsider must not list members, got %v", err)
	}
}

func TestMemberService_MemberMayLeave(t *testing.T) {
	store, _, svc := newMemberFixture()
	store.putWorkspace(&domain.Workspace{ID: "ws1", OwnerID: "u1", MemberIDs: []string{"u2", "u3"}})
	ctx := context.Background()

	if _, err := svc.Remove(ctx, principal("u2", domain.RoleReadOnly), "ws1", "u3"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("member must not remove others, got %v", err)
	}
	ws, err := svc.Remove(ctx, principal("u2", domain.RoleReadOnly), "ws1", "u2")
	if err != nil {
		t.Fatalf("member should be able to leave: %v", err)
	}
	if ws.HasMember("u2") || !ws.HasMember("u3") {
		t.Fatalf("unexpected members %v", ws.MemberIDs)
	}
}

func TestMemberService_UnknownEmail(t *testing.T) {
	_, _, svc := newMemberFixture()
	if _, err := svc.Add(context.Background(), principal("u1", domain.RoleWriteRead), "ws1", "ghost@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
