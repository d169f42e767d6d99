package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/workboard/workboard-api/internal/core/domain"
	"github.com/workboard/workboard-api/internal/core/ports"
)

func newTaskFixture(budget string) (*stubStore, *recordingSink, *TaskService) {
	store := newStubStore()
	store.putWorkspace(&domain.Workspace{ID: "ws1", OwnerID: "u1", MemberIDs: []string{"u2"}})
	store.putProject(&domain.Project{ID: "p1", WorkspaceID: "ws1", OwnerID: "u1", Budget: dec(budget), Cost: dec("0")})
	sink := &recordingSink{}
	svc := NewTaskService(store.taskRepo(), store.projectRepo(), store.workspaceRepo(), newEngine(sink), sink, zerolog.Nop())
	return store, sink, svc
}

func TestTaskService_BudgetScenario(t *testing.T) {
	store, sink, svc := newTaskFixture("100.00")
	owner := principal("u1", domain.RoleWriteRead)
	ctx := context.Background()

	res, err := svc.Create(ctx, owner, ports.CreateTaskInput{ProjectID: "p1", Name: "first", Cost: dec("60.00")})
	if err != nil {
		t.Fatalf("first task should fit the budget: %v", err)
	}
	if !res.Project.Cost.Equal(dec("60")) {
		t.Fatalf("expected cost 60, got %s", res.Project.Cost)
	}

	_, err = svc.Create(ctx, owner, ports.CreateTaskInput{ProjectID: "p1", Name: "second", Cost: dec("50.00")})
	if !errors.Is(err, domain.ErrOutOfBudget) {
		t.Fatalf("expected ErrOutOfBudget, got %v", err)
	}
	if p := store.project("p1"); !p.Cost.Equal(dec("60")) {
		t.Fatalf("cost must stay at 60 after rejection, got %s", p.Cost)
	}
	if n := store.taskCount("p1"); n != 1 {
		t.Fatalf("rejected task must not be stored, got %d tasks", n)
	}
	if !sink.has(domain.AuditBudgetRejected) {
		t.Fatalf("expected budget_rejected audit event, got %v", sink.actions())
	}

	res, err = svc.Create(ctx, owner, ports.CreateTaskInput{ProjectID: "p1", Name: "exact", Cost: dec("40.00")})
	if err != nil || !res.Project.Cost.Equal(dec("100")) {
		t.Fatalf("task filling the budget exactly should pass: res=%+v err=%v", res, err)
	}
}

func TestTaskService_ConcurrentCreate(t *testing.T) {
	store, _, svc := newTaskFixture("100.00")
	owner := principal("u1", domain.RoleWriteRead)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		rejected  int
	)
	start := make(chan struct{})
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Create(context.Background(), owner, ports.CreateTaskInput{ProjectID: "p1", Name: "t", Cost: dec("60.00")})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrOutOfBudget):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if successes != 1 || rejected != 1 {
		t.Fatalf("expected one success and one rejection, got %d/%d", successes, rejected)
	}
	if p := store.project("p1"); !p.Cost.Equal(dec("60")) {
		t.Fatalf("expected cost 60, got %s", p.Cost)
	}
}

func TestTaskService_CreateRights(t *testing.T) {
	_, _, svc := newTaskFixture("100")
	ctx := context.Background()

	_, err := svc.Create(ctx, principal("u2", domain.RoleWriteRead), ports.CreateTaskInput{ProjectID: "p1", Name: "t", Cost: dec("1")})
	var denied *domain.AccessDeniedError
	if !errors.As(err, &denied) || denied.Resource != "project" {
		t.Fatalf("member must not add tasks to another's project, got %v", err)
	}
	_, err = svc.Create(ctx, principal("u3", domain.RoleWriteRead), ports.CreateTaskInput{ProjectID: "p1", Name: "t", Cost: dec("1")})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("outsider must be denied, got %v", err)
	}
	_, err = svc.Create(ctx, principal("u1", domain.RoleWriteRead), ports.CreateTaskInput{ProjectID: "p1", Name: "t", Cost: dec("-5")})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative cost, got %v", err)
	}
	_, err = svc.Create(ctx, principal("u1", domain.RoleWriteRead), ports.CreateTaskInput{ProjectID: "missing", Name: "t", Cost: dec("1")})
	if !errors.Is(err, domain.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestTaskService_DeleteReleasesCost(t *testing.T) {
	store, _, svc := newTaskFixture("100")
	owner := principal("u1", domain.RoleWriteRead)
	ctx := context.Background()

	res, err := svc.Create(ctx, owner, ports.CreateTaskInput{ProjectID: "p1", Name: "t", Cost: dec("30")})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := svc.Delete(ctx, principal("u2", domain.RoleWriteRead), res.Task.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("member must not delete another's task, got %v", err)
	}

	proj, err := svc.Delete(ctx, owner, res.Task.ID)
	if err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if !proj.Cost.IsZero() || !store.project("p1").Cost.IsZero() {
		t.Fatalf("expected cost released, got %s", proj.Cost)
	}
	if _, err := svc.Get(ctx, owner, res.Task.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestTaskService_ReadAndUpdate(t *testing.T) {
	store, _, svc := newTaskFixture("100")
	store.putTask(&domain.Task{ID: "t1", ProjectID: "p1", OwnerID: "u1", Name: "t", Cost: dec("5")})
	ctx := context.Background()

	if _, err := svc.Get(ctx, principal("u2", domain.RoleReadOnly), "t1"); err != nil {
		t.Fatalf("member should read tasks: %v", err)
	}
	list, err := svc.ListByProject(ctx, principal("u2", domain.RoleReadOnly), "p1")
	if err != nil || len(list) != 1 {
		t.Fatalf("ListByProject: got %d, err=%v", len(list), err)
	}

	name := "renamed"
	if _, err := svc.Update(ctx, principal("u2", domain.RoleWriteRead), "t1", domain.TaskUpdate{Name: &name}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("member must not update another's task, got %v", err)
	}
	task, err := svc.Update(ctx, principal("u1", domain.RoleWriteRead), "t1", domain.TaskUpdate{Name: &name})
	if err != nil || task.Name != "renamed" {
		t.Fatalf("owner update failed: task=%+v err=%v", task, err)
	}
}
