package handler

import (
	"time"

	"github.com/workboard/workboard-api/internal/core/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth / users ---

type registerRequest struct {
	Name     string `json:"name"     validate:"required,max=120"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role"     validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string             `json:"token"`
	TokenType string             `json:"token_type"`
	ExpiresAt time.Time          `json:"expires_at"`
	User      domain.UserSummary `json:"user"`
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// --- Workspaces ---

type workspaceRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

type workspaceResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	MemberIDs []string  `json:"member_ids"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type addMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// --- Projects ---

type createProjectRequest struct {
	Name        string `json:"name"        validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
	Budget      string `json:"budget"      validate:"required,money" example:"1500.00"`
}

// updateProjectRequest leaves absent fields untouched.
type updateProjectRequest struct {
	Name        *string `json:"name"        validate:"omitnil,min=1,max=120"`
	Description *string `json:"description" validate:"omitnil,max=2000"`
	Budget      *string `json:"budget"      validate:"omitnil,money" example:"2000.00"`
}

type projectResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Budget      string    `json:"budget"    example:"1500.00"`
	Cost        string    `json:"cost"      example:"250.00"`
	Remaining   string    `json:"remaining" example:"1250.00"`
	OwnerID     string    `json:"owner_id"`
	WorkspaceID string    `json:"workspace_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// --- Tasks ---

type createTaskRequest struct {
	Name        string `json:"name"        validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
	Cost        string `json:"cost"        validate:"required,money" example:"60.00"`
}

type updateTaskRequest struct {
	Name        *string `json:"name"        validate:"omitnil,min=1,max=120"`
	Description *string `json:"description" validate:"omitnil,max=2000"`
}

type taskResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Cost        string    `json:"cost" example:"60.00"`
	ProjectID   string    `json:"project_id"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// taskChangeResponse reports a task together with the project totals after
// the change.
type taskChangeResponse struct {
	Task    *taskResponse   `json:"task,omitempty"`
	Project projectResponse `json:"project"`
}
