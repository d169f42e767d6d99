package handler

import (
	"github.com/shopspring/decimal"

	"github.com/workboard/workboard-api/internal/core/domain"
)

// --- Request → domain ---

// maxMoney is the exclusive upper bound on budgets and costs. Fifteen integer
// digits and two fraction digits fit every store driver without rounding.
var maxMoney = decimal.New(1, 15)

const moneyMessage = " must be a non-negative amount below 1000000000000000 with at most 2 decimal places"

func moneyInRange(d decimal.Decimal) bool {
	if d.IsNegative() || d.GreaterThanOrEqual(maxMoney) {
		return false
	}
	return d.Equal(d.Truncate(2))
}

// parseMoney applies the same bounds as the "money" tag.
func parseMoney(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil || !moneyInRange(d) {
		return decimal.Zero, domain.NewValidationError(field, field+moneyMessage)
	}
	return d, nil
}

func toProjectUpdate(req updateProjectRequest) (domain.ProjectUpdate, error) {
	upd := domain.ProjectUpdate{Name: req.Name, Description: req.Description}
	if req.Budget != nil {
		b, err := parseMoney("budget", *req.Budget)
		if err != nil {
			return upd, err
		}
		upd.Budget = &b
	}
	return upd, nil
}

// --- Domain → HTTP response ---

func toWorkspaceResponse(ws *domain.Workspace) workspaceResponse {
	members := ws.MemberIDs
	if members == nil {
		members = []string{}
	}
	return workspaceResponse{
		ID:        ws.ID,
		Name:      ws.Name,
		OwnerID:   ws.OwnerID,
		MemberIDs: members,
		CreatedAt: ws.CreatedAt.UTC(),
		UpdatedAt: ws.UpdatedAt.UTC(),
	}
}

func toWorkspaceResponses(items []*domain.Workspace) []workspaceResponse {
	out := make([]workspaceResponse, len(items))
	for i, ws := range items {
		out[i] = toWorkspaceResponse(ws)
	}
	return out
}

func toProjectResponse(p *domain.Project) projectResponse {
	return projectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Budget:      p.Budget.StringFixed(2),
		Cost:        p.Cost.StringFixed(2),
		Remaining:   p.Remaining().StringFixed(2),
		OwnerID:     p.OwnerID,
		WorkspaceID: p.WorkspaceID,
		CreatedAt:   p.CreatedAt.UTC(),
		UpdatedAt:   p.UpdatedAt.UTC(),
	}
}

func toProjectResponses(items []*domain.Project) []projectResponse {
	out := make([]projectResponse, len(items))
	for i, p := range items {
		out[i] = toProjectResponse(p)
	}
	return out
}

func toTaskResponse(t *domain.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Cost:        t.Cost.StringFixed(2),
		ProjectID:   t.ProjectID,
		OwnerID:     t.OwnerID,
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
}

func toTaskResponses(items []*domain.Task) []taskResponse {
	out := make([]taskResponse, len(items))
	for i, t := range items {
		out[i] = toTaskResponse(t)
	}
	return out
}

func toUserSummaries(users []*domain.User) []domain.UserSummary {
	out := make([]domain.UserSummary, len(users))
	for i, u := range users {
		out[i] = u.Summary()
	}
	return out
}
