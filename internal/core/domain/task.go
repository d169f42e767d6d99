package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Task is a unit of work whose cost is charged to its project.
type Task struct {
	ID          string
	Name        string
	Description string
	Cost        decimal.Decimal
	ProjectID   string
	OwnerID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskUpdate carries the optional fields of a task update. Cost is fixed at
// creation so the project total only moves through create and delete.
type TaskUpdate struct {
	Name        *string
	Description *string
}
