package ports

import (
	"context"

	"github.com/workboard/workboard-api/internal/core/domain"
)

// UserRepository is the credential store.
type UserRepository interface {
	// Create persists a new user. Returns domain.ErrUserExists when the email is taken.
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error)
}

// WorkspaceRepository persists workspaces and their member set.
type WorkspaceRepository interface {
	Create(ctx context.Context, ws *domain.Workspace) error
	FindByID(ctx context.Context, id string) (*domain.Workspace, error)
	// ListForUser returns workspaces the user owns or is a member of.
	ListForUser(ctx context.Context, userID string) ([]*domain.Workspace, error)
	Rename(ctx context.Context, id, name string) (*domain.Workspace, error)
	// DeleteIfEmpty removes the workspace only when no project references it,
	// otherwise it returns domain.ErrWorkspaceNotEmpty.
	DeleteIfEmpty(ctx context.Context, id string) error
	// AddMember returns domain.ErrAlreadyMember when userID is already listed.
	AddMember(ctx context.Context, workspaceID, userID string) error
	// RemoveMember returns domain.ErrNotMember when userID is not listed.
	RemoveMember(ctx context.Context, workspaceID, userID string) error
}

// ProjectRepository persists projects.
type ProjectRepository interface {
	Create(ctx context.Context, p *domain.Project) error
	FindByID(ctx context.Context, id string) (*domain.Project, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Project, error)
	// Update applies the non-nil fields of upd. A new budget is only written if
	// it is not below the stored cost at write time (domain.ErrBudgetBelowCost).
	Update(ctx context.Context, id string, upd domain.ProjectUpdate) (*domain.Project, error)
	// DeleteIfEmpty returns domain.ErrProjectNotEmpty while tasks reference the project.
	DeleteIfEmpty(ctx context.Context, id string) error
}

// TaskRepository persists tasks together with the cost they charge to their project.
type TaskRepository interface {
	// CreateWithinBudget adds task.Cost to the project's cost and inserts the
	// task as one atomic unit, evaluated against the freshest stored cost.
	// Returns domain.ErrOutOfBudget, leaving nothing written, when the new cost
	// would exceed the budget.
	CreateWithinBudget(ctx context.Context, task *domain.Task) (*domain.Project, error)
	FindByID(ctx context.Context, id string) (*domain.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Task, error)
	Update(ctx context.Context, id string, upd domain.TaskUpdate) (*domain.Task, error)
	// DeleteAndRelease removes the task and subtracts its cost from the project atomically.
	DeleteAndRelease(ctx context.Context, id string) (*domain.Project, error)
}

// AuditRepository stores security audit events.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuditEvent) error
}
