package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workboard/workboard-api/internal/core/domain"
)

type ProjectRepository struct {
	pool *pgxpool.Pool
}

const projectColumns = `id, name, description, budget::text, cost::text, owner_id, workspace_id, created_at, updated_at`

func scanProject(row pgx.Row) (*domain.Project, error) {
	var (
		p            domain.Project
		budget, cost string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &budget, &cost, &p.OwnerID, &p.WorkspaceID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if p.Budget, err = parseDecimal("budget", budget); err != nil {
		return nil, err
	}
	if p.Cost, err = parseDecimal("cost", cost); err != nil {
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) error {
	const query = `INSERT INTO projects (id, name, description, budget, cost, owner_id, workspace_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6, $7, $8, $9)`
	_, err := r.pool.Exec(ctx, query,
		p.ID, p.Name, p.Description, p.Budget.String(), p.Cost.String(), p.OwnerID, p.WorkspaceID, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return domain.ErrWorkspaceNotFound
		}
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*domain.Project, error) {
	p, err := scanProject(r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("find project: %w", err)
	}
	return p, nil
}

func (r *ProjectRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Project, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+projectColumns+` FROM projects WHERE workspace_id = $1 ORDER BY created_at`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := []*domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update locks the row so the budget comparison uses the committed cost.
func (r *ProjectRepository) Update(ctx context.Context, id string, upd domain.ProjectUpdate) (*domain.Project, error) {
	var updated *domain.Project
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := scanProject(tx.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrProjectNotFound
			}
			return fmt.Errorf("lock project: %w", err)
		}

		name, desc, budget := current.Name, current.Description, current.Budget
		if upd.Name != nil {
			name = *upd.Name
		}
		if upd.Description != nil {
			desc = *upd.Description
		}
		if upd.Budget != nil {
			if upd.Budget.LessThan(current.Cost) {
				return domain.ErrBudgetBelowCost
			}
			budget = *upd.Budget
		}

		const query = `UPDATE projects SET name = $2, description = $3, budget = $4::numeric, updated_at = NOW()
			WHERE id = $1 RETURNING ` + projectColumns
		updated, err = scanProject(tx.QueryRow(ctx, query, id, name, desc, budget.String()))
		if err != nil {
			return fmt.Errorf("update project: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *ProjectRepository) DeleteIfEmpty(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return domain.ErrProjectNotEmpty
		}
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}
