package policy

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/workboard/workboard-api/internal/core/domain"
)

type recordingSink struct {
	events []domain.AuditEvent
}

func (s *recordingSink) Publish(e domain.AuditEvent) {
	s.events = append(s.events, e)
}

func principal(id string) domain.Principal {
	return domain.Principal{UserID: id, Role: domain.RoleWriteRead}
}

func workspace() *domain.Workspace {
	return &domain.Workspace{ID: "ws-1", Name: "Ops", OwnerID: "owner", MemberIDs: []string{"member"}}
}

func TestEngine_Workspace_Matrix(t *testing.T) {
	engine := NewEngine(nil, nil, zerolog.Nop())
	ws := workspace()

	cases := []struct {
		user    string
		action  Action
		allowed bool
	}{
		{"owner", ActionRead, true},
		{"owner", ActionUpdate, true},
		{"owner", ActionDelete, true},
		{"owner", ActionManageMembers, true},
		{"member", ActionRead, true},
		{"member", ActionContribute, true},
		{"member", ActionUpdate, false},
		{"member", ActionDelete, false},
		{"member", ActionManageMembers, false},
		{"stranger", ActionRead, false},
		{"stranger", ActionContribute, false},
		{"stranger", ActionUpdate, false},
	}

	for _, tc := range cases {
		err := engine.Workspace(principal(tc.user), ws, tc.action)
		if tc.allowed && err != nil {
			t.Fatalf("%s %s: expected allow, got %v", tc.user, tc.action, err)
		}
		if !tc.allowed && !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("%s %s: expected ErrForbidden, got %v", tc.user, tc.action, err)
		}
	}
}

func TestEngine_Project_OwnerAndWorkspaceOwner(t *testing.T) {
	engine := NewEngine(nil, nil, zerolog.Nop())
	ws := workspace()
	proj := &domain.Project{ID: "p-1", OwnerID: "member", WorkspaceID: ws.ID}

	for _, user := range []string{"member", "owner"} {
		for _, a := range []Action{ActionRead, ActionContribute, ActionUpdate, ActionDelete} {
			if err := engine.Project(principal(user), proj, ws, a); err != nil {
				t.Fatalf("%s %s: expected allow, got %v", user, a, err)
			}
		}
	}
}

func TestEngine_Project_MemberReadsButCannotWriteOthersProject(t *testing.T) {
	engine := NewEngine(nil, nil, zerolog.Nop())
	ws := workspace()
	ws.MemberIDs = append(ws.MemberIDs, "other-member")
	proj := &domain.Project{ID: "p-1", OwnerID: "member", WorkspaceID: ws.ID}

	if err := engine.Project(principal("other-member"), proj, ws, ActionRead); err != nil {
		t.Fatalf("expected read allowed, got %v", err)
	}
	for _, a := range []Action{ActionContribute, ActionUpdate, ActionDelete} {
		if err := engine.Project(principal("other-member"), proj, ws, a); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("%s: expected ErrForbidden, got %v", a, err)
		}
	}
	if err := engine.Project(principal("stranger"), proj, ws, ActionRead); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected stranger denied, got %v", err)
	}
}

func TestEngine_Task_Relations(t *testing.T) {
	engine := NewEngine(nil, nil, zerolog.Nop())
	ws := workspace()
	ws.MemberIDs = []string{"task-owner", "project-owner", "reader"}
	proj := &domain.Project{ID: "p-1", OwnerID: "project-owner", WorkspaceID: ws.ID}
	task := &domain.Task{ID: "t-1", OwnerID: "task-owner", ProjectID: proj.ID}

	for _, user := range []string{"task-owner", "project-owner", "owner"} {
		if err := engine.Task(principal(user), task, proj, ws, ActionDelete); err != nil {
			t.Fatalf("%s: expected delete allowed, got %v", user, err)
		}
	}
	if err := engine.Task(principal("reader"), task, proj, ws, ActionRead); err != nil {
		t.Fatalf("expected member read allowed, got %v", err)
	}
	if err := engine.Task(principal("reader"), task, proj, ws, ActionUpdate); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected member update denied, got %v", err)
	}
}

func TestEngine_DenialMessageAndAudit(t *testing.T) {
	sink := &recordingSink{}
	engine := NewEngine(nil, sink, zerolog.Nop())

	err := engine.Workspace(principal("stranger"), workspace(), ActionUpdate)
	var denied *domain.AccessDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected AccessDeniedError, got %v", err)
	}
	if err.Error() != "you are not allowed to modify this workspace" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	if len(sink.events) != 1 || sink.events[0].Action != domain.AuditAccessDenied || sink.events[0].ResourceID != "ws-1" {
		t.Fatalf("unexpected audit events: %+v", sink.events)
	}
}

func TestEngine_AnonymousPrincipalDenied(t *testing.T) {
	engine := NewEngine(nil, nil, zerolog.Nop())
	ws := &domain.Workspace{ID: "ws-1", OwnerID: ""}

	if err := engine.Workspace(domain.Principal{}, ws, ActionRead); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for empty principal, got %v", err)
	}
}

func TestEngine_MissingTableEntryDenies(t *testing.T) {
	engine := NewEngine(Table{}, nil, zerolog.Nop())

	if err := engine.Workspace(principal("owner"), workspace(), ActionRead); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
