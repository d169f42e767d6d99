package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Project belongs to a workspace and tracks how much of its budget the
// tasks inside it have consumed. Cost never exceeds Budget.
type Project struct {
	ID          string
	Name        string
	Description string
	Budget      decimal.Decimal
	Cost        decimal.Decimal
	OwnerID     string
	WorkspaceID string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Remaining is the budget still available to new tasks.
func (p *Project) Remaining() decimal.Decimal {
	return p.Budget.Sub(p.Cost)
}

// CanAfford reports whether adding cost keeps the project within budget.
func (p *Project) CanAfford(cost decimal.Decimal) bool {
	return p.Cost.Add(cost).LessThanOrEqual(p.Budget)
}

// ProjectUpdate carries the optional fields of a project update.
type ProjectUpdate struct {
	Name        *string
	Description *string
	Budget      *decimal.Decimal
}
