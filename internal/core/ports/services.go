package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/workboard/workboard-api/internal/core/domain"
)

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// AdminSeed holds the bootstrap administrator credentials.
type AdminSeed struct {
	Name     string
	Email    string
	Password string
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// AuthService handles registration, login and the bootstrap admin.
type AuthService interface {
	Register(ctx context.Context, actor domain.Principal, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	// EnsureAdmin creates the seed admin unless the email is already registered.
	EnsureAdmin(ctx context.Context, seed AdminSeed) (created bool, err error)
}

// UserService covers account administration.
type UserService interface {
	List(ctx context.Context, actor domain.Principal) ([]*domain.User, error)
	ChangeRole(ctx context.Context, actor domain.Principal, userID, role string) (*domain.User, error)
}

// WorkspaceService manages workspaces.
type WorkspaceService interface {
	Create(ctx context.Context, actor domain.Principal, name string) (*domain.Workspace, error)
	List(ctx context.Context, actor domain.Principal) ([]*domain.Workspace, error)
	Get(ctx context.Context, actor domain.Principal, id string) (*domain.Workspace, error)
	Rename(ctx context.Context, actor domain.Principal, id, name string) (*domain.Workspace, error)
	Delete(ctx context.Context, actor domain.Principal, id string) error
}

// MemberService manages workspace membership.
type MemberService interface {
	Add(ctx context.Context, actor domain.Principal, workspaceID, email string) (*domain.Workspace, error)
	List(ctx context.Context, actor domain.Principal, workspaceID string) ([]domain.UserSummary, error)
	Remove(ctx context.Context, actor domain.Principal, workspaceID, userID string) (*domain.Workspace, error)
}

// CreateProjectInput carries the fields of a new project.
type CreateProjectInput struct {
	WorkspaceID string
	Name        string
	Description string
	Budget      decimal.Decimal
}

// ProjectService manages projects.
type ProjectService interface {
	Create(ctx context.Context, actor domain.Principal, in CreateProjectInput) (*domain.Project, error)
	ListByWorkspace(ctx context.Context, actor domain.Principal, workspaceID string) ([]*domain.Project, error)
	Get(ctx context.Context, actor domain.Principal, id string) (*domain.Project, error)
	Update(ctx context.Context, actor domain.Principal, id string, upd domain.ProjectUpdate) (*domain.Project, error)
	Delete(ctx context.Context, actor domain.Principal, id string) error
}

// CreateTaskInput carries the fields of a new task.
type CreateTaskInput struct {
	ProjectID   string
	Name        string
	Description string
	Cost        decimal.Decimal
}

// TaskResult pairs a task with the project state after the change.
type TaskResult struct {
	Task    *domain.Task
	Project *domain.Project
}

// TaskService manages tasks and their budget accounting.
type TaskService interface {
	Create(ctx context.Context, actor domain.Principal, in CreateTaskInput) (*TaskResult, error)
	ListByProject(ctx context.Context, actor domain.Principal, projectID string) ([]*domain.Task, error)
	Get(ctx context.Context, actor domain.Principal, id string) (*domain.Task, error)
	Update(ctx context.Context, actor domain.Principal, id string, upd domain.TaskUpdate) (*domain.Task, error)
	Delete(ctx context.Context, actor domain.Principal, id string) (*domain.Project, error)
}
