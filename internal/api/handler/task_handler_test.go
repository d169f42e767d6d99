package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/workboard/workboard-api/internal/core/domain"
	"github.com/workboard/workboard-api/internal/core/ports"
)

type stubTaskService struct {
	createFn func(ctx context.Context, actor domain.Principal, in ports.CreateTaskInput) (*ports.TaskResult, error)
	deleteFn func(ctx context.Context, actor domain.Principal, id string) (*domain.Project, error)
}

func (s *stubTaskService) Create(ctx context.Context, actor domain.Principal, in ports.CreateTaskInput) (*ports.TaskResult, error) {
	return s.createFn(ctx, actor, in)
}

func (s *stubTaskService) ListByProject(context.Context, domain.Principal, string) ([]*domain.Task, error) {
	return nil, nil
}

func (s *stubTaskService) Get(context.Context, domain.Principal, string) (*domain.Task, error) {
	return nil, domain.ErrTaskNotFound
}

func (s *stubTaskService) Update(context.Context, domain.Principal, string, domain.TaskUpdate) (*domain.Task, error) {
	return nil, domain.ErrTaskNotFound
}

func (s *stubTaskService) Delete(ctx context.Context, actor domain.Principal, id string) (*domain.Project, error) {
	return s.deleteFn(ctx, actor, id)
}

var writer = &domain.Principal{UserID: "u1", Role: domain.RoleWriteRead}

func TestTaskHandler_Create_Success(t *testing.T) {
	stub := &stubTaskService{
		createFn: func(ctx context.Context, actor domain.Principal, in ports.CreateTaskInput) (*ports.TaskResult, error) {
			if in.ProjectID != "p1" || !in.Cost.Equal(decimal.RequireFromString("60.5")) {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &ports.TaskResult{
				Task:    &domain.Task{ID: "t1", Name: in.Name, Cost: in.Cost, ProjectID: "p1", OwnerID: actor.UserID},
				Project: &domain.Project{ID: "p1", Budget: decimal.NewFromInt(100), Cost: in.Cost},
			}, nil
		},
	}
	handler := NewTaskHandler(stub)

	_, c, rec := newJSONContext(http.MethodPost, "/projects/p1/tasks", `{"name":"Design","cost":"60.5"}`, writer)
	c.SetParamNames("id")
	c.SetParamValues("p1")

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp taskChangeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Task == nil || resp.Task.Cost != "60.50" || resp.Task.OwnerID != "u1" {
		t.Fatalf("unexpected task payload: %+v", resp.Task)
	}
	if resp.Project.Cost != "60.50" || resp.Project.Remaining != "39.50" {
		t.Fatalf("unexpected project payload: %+v", resp.Project)
	}
}

func TestTaskHandler_Create_RejectsBadCost(t *testing.T) {
	stub := &stubTaskService{
		createFn: func(ctx context.Context, actor domain.Principal, in ports.CreateTaskInput) (*ports.TaskResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewTaskHandler(stub)

	for _, body := range []string{`{"name":"x","cost":"-1"}`, `{"name":"x","cost":"ten"}`, `{"name":"x"}`} {
		_, c, _ := newJSONContext(http.MethodPost, "/projects/p1/tasks", body, writer)
		if err := handler.Create(c); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("%s: expected validation error, got %v", body, err)
		}
	}
}

func TestTaskHandler_Create_OutOfBudgetPropagates(t *testing.T) {
	stub := &stubTaskService{
		createFn: func(ctx context.Context, actor domain.Principal, in ports.CreateTaskInput) (*ports.TaskResult, error) {
			return nil, domain.ErrOutOfBudget
		},
	}
	handler := NewTaskHandler(stub)

	_, c, _ := newJSONContext(http.MethodPost, "/projects/p1/tasks", `{"name":"x","cost":"50"}`, writer)
	if err := handler.Create(c); !errors.Is(err, domain.ErrOutOfBudget) {
		t.Fatalf("expected ErrOutOfBudget, got %v", err)
	}
}

func TestTaskHandler_Delete_ReturnsReleasedProject(t *testing.T) {
	stub := &stubTaskService{
		deleteFn: func(ctx context.Context, actor domain.Principal, id string) (*domain.Project, error) {
			if id != "t1" {
				t.Fatalf("unexpected id %q", id)
			}
			return &domain.Project{ID: "p1", Budget: decimal.NewFromInt(100), Cost: decimal.NewFromInt(40)}, nil
		},
	}
	handler := NewTaskHandler(stub)

	_, c, rec := newJSONContext(http.MethodDelete, "/tasks/t1", "", writer)
	c.SetParamNames("id")
	c.SetParamValues("t1")

	if err := handler.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp taskChangeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Task != nil || resp.Project.Cost != "40.00" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}
