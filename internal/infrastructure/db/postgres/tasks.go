package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workboard/workboard-api/internal/core/domain"
)

type TaskRepository struct {
	pool *pgxpool.Pool
}

const taskColumns = `id, name, description, cost::text, project_id, owner_id, created_at, updated_at`

func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		t    domain.Task
		cost string
	)
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &cost, &t.ProjectID, &t.OwnerID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if t.Cost, err = parseDecimal("cost", cost); err != nil {
		return nil, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}

// CreateWithinBudget locks the project row with SELECT ... FOR UPDATE, so
// concurrent creations on the same project are serialized and each one sees
// the cost committed by the previous.
func (r *TaskRepository) CreateWithinBudget(ctx context.Context, task *domain.Task) (*domain.Project, error) {
	var updated *domain.Project
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		proj, err := scanProject(tx.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1 FOR UPDATE`, task.ProjectID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrProjectNotFound
			}
			return fmt.Errorf("lock project: %w", err)
		}
		if !proj.CanAfford(task.Cost) {
			return domain.ErrOutOfBudget
		}

		const update = `UPDATE projects SET cost = cost + $2::numeric, updated_at = NOW() WHERE id = $1 RETURNING ` + projectColumns
		updated, err = scanProject(tx.QueryRow(ctx, update, proj.ID, task.Cost.String()))
		if err != nil {
			if pgCode(err) == codeCheckViolation {
				return domain.ErrOutOfBudget
			}
			return fmt.Errorf("charge project: %w", err)
		}

		const insert = `INSERT INTO tasks (id, name, description, cost, project_id, owner_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8)`
		if _, err := tx.Exec(ctx, insert,
			task.ID, task.Name, task.Description, task.Cost.String(), task.ProjectID, task.OwnerID, task.CreatedAt, task.UpdatedAt); err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return t, nil
}

func (r *TaskRepository) ListByProject(ctx context.Context, projectID string) ([]*domain.Task, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE project_id = $1 ORDER BY created_at`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	out := []*domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TaskRepository) Update(ctx context.Context, id string, upd domain.TaskUpdate) (*domain.Task, error) {
	const query = `UPDATE tasks SET name = COALESCE($2, name), description = COALESCE($3, description), updated_at = NOW()
		WHERE id = $1 RETURNING ` + taskColumns
	t, err := scanTask(r.pool.QueryRow(ctx, query, id, upd.Name, upd.Description))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("update task: %w", err)
	}
	return t, nil
}

func (r *TaskRepository) DeleteAndRelease(ctx context.Context, id string) (*domain.Project, error) {
	var updated *domain.Project
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		var projectID, cost string
		err := tx.QueryRow(ctx, `DELETE FROM tasks WHERE id = $1 RETURNING project_id, cost::text`, id).Scan(&projectID, &cost)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrTaskNotFound
			}
			return fmt.Errorf("delete task: %w", err)
		}

		const update = `UPDATE projects SET cost = cost - $2::numeric, updated_at = NOW() WHERE id = $1 RETURNING ` + projectColumns
		updated, err = scanProject(tx.QueryRow(ctx, update, projectID, cost))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrProjectNotFound
			}
			return fmt.Errorf("release project cost: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
