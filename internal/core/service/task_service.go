package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/workboard/workboard-api/internal/core/domain"
	"github.com/workboard/workboard-api/internal/core/policy"
	"github.com/workboard/workboard-api/internal/core/ports"
)

// TaskService creates and removes tasks while keeping every project's cost
// within its budget.
type TaskService struct {
	tasks      ports.TaskRepository
	projects   ports.ProjectRepository
	workspaces ports.WorkspaceRepository
	policy     AccessPolicy
	audit      ports.AuditSink
	log        zerolog.Logger
}

func NewTaskService(
	tasks ports.TaskRepository,
	projects ports.ProjectRepository,
	workspaces ports.WorkspaceRepository,
	access AccessPolicy,
	audit ports.AuditSink,
	log zerolog.Logger,
) *TaskService {
	return &TaskService{
		tasks:      tasks,
		projects:   projects,
		workspaces: workspaces,
		policy:     access,
		audit:      audit,
		log:        log,
	}
}

// Create charges in.Cost to the project and stores the task. The budget check
// against the loaded project only fails fast; the repository re-evaluates it
// atomically so concurrent creations can never overshoot the budget.
func (s *TaskService) Create(ctx context.Context, actor domain.Principal, in ports.CreateTaskInput) (_ *ports.TaskResult, err error) {
	ctx, span := startSpan(ctx, "TaskService.Create", actor,
		attribute.String("workboard.project_id", in.ProjectID),
		attribute.String("workboard.cost", in.Cost.String()),
	)
	defer func() { endSpan(span, err) }()

	proj, ws, err := loadProjectScope(ctx, s.projects, s.workspaces, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Project(actor, proj, ws, policy.ActionContribute); err != nil {
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
	if in.Cost.IsNegative() {
		return nil, domain.NewValidationError("cost", "cost must not be negative")
	}
	if !proj.CanAfford(in.Cost) {
		s.budgetRejected(actor, proj, in)
		return nil, domain.ErrOutOfBudget
	}

	now := time.Now().UTC()
	task := &domain.Task{
		ID:          newID(),
		Name:        name,
		Description: desc,
		Cost:        in.Cost,
		ProjectID:   proj.ID,
		OwnerID:     actor.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	updated, err := s.tasks.CreateWithinBudget(ctx, task)
	if err != nil {
		if errors.Is(err, domain.ErrOutOfBudget) {
			s.budgetRejected(actor, proj, in)
		}
		return nil, err
	}

	s.log.Info().
		Str("task_id", task.ID).
		Str("project_id", proj.ID).
		Str("cost", task.Cost.String()).
		Str("project_cost", updated.Cost.String()).
		Msg("task created")
	return &ports.TaskResult{Task: task, Project: updated}, nil
}

func (s *TaskService) budgetRejected(actor domain.Principal, proj *domain.Project, in ports.CreateTaskInput) {
	s.log.Info().
		Str("project_id", proj.ID).
		Str("cost", in.Cost.String()).
		Str("remaining", proj.Remaining().String()).
		Msg("task rejected, out of budget")
	publish(s.audit, domain.AuditEvent{
		ActorID:    actor.UserID,
		Action:     domain.AuditBudgetRejected,
		Resource:   string(policy.ResourceProject),
		ResourceID: proj.ID,
		Details:    map[string]string{"cost": in.Cost.String(), "remaining": proj.Remaining().String()},
	})
}

func (s *TaskService) ListByProject(ctx context.Context, actor domain.Principal, projectID string) ([]*domain.Task, error) {
	proj, ws, err := loadProjectScope(ctx, s.projects, s.workspaces, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Project(actor, proj, ws, policy.ActionRead); err != nil {
		return nil, err
	}
	return s.tasks.ListByProject(ctx, proj.ID)
}

func (s *TaskService) Get(ctx context.Context, actor domain.Principal, id string) (*domain.Task, error) {
	task, err := s.authorize(ctx, actor, id, policy.ActionRead)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) Update(ctx context.Context, actor domain.Principal, id string, upd domain.TaskUpdate) (*domain.Task, error) {
	if _, err := s.authorize(ctx, actor, id, policy.ActionUpdate); err != nil {
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
	return s.tasks.Update(ctx, id, upd)
}

// Delete removes the task and releases its cost from the project.
func (s *TaskService) Delete(ctx context.Context, actor domain.Principal, id string) (_ *domain.Project, err error) {
	ctx, span := startSpan(ctx, "TaskService.Delete", actor, attribute.String("workboard.task_id", id))
	defer func() { endSpan(span, err) }()

	task, err := s.authorize(ctx, actor, id, policy.ActionDelete)
	if err != nil {
		return nil, err
	}
	proj, err := s.tasks.DeleteAndRelease(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("task_id", id).Str("project_id", task.ProjectID).Str("released", task.Cost.String()).Msg("task deleted")
	return proj, nil
}

func (s *TaskService) authorize(ctx context.Context, actor domain.Principal, id string, action policy.Action) (*domain.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	proj, ws, err := loadProjectScope(ctx, s.projects, s.workspaces, task.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Task(actor, task, proj, ws, action); err != nil {
		return nil, err
	}
	return task, nil
}
