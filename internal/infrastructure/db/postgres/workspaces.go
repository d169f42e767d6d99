package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workboard/workboard-api/internal/core/domain"
)

type WorkspaceRepository struct {
	pool *pgxpool.Pool
}

// workspaceSelect aggregates members so a workspace loads in one round trip.
const workspaceSelect = `SELECT w.id, w.name, w.owner_id, w.created_at, w.updated_at,
	COALESCE(array_agg(m.user_id ORDER BY m.added_at) FILTER (WHERE m.user_id IS NOT NULL), '{}') AS member_ids
	FROM workspaces w
	LEFT JOIN workspace_members m ON m.workspace_id = w.id`

func scanWorkspace(row pgx.Row) (*domain.Workspace, error) {
	var ws domain.Workspace
	if err := row.Scan(&ws.ID, &ws.Name, &ws.OwnerID, &ws.CreatedAt, &ws.UpdatedAt, &ws.MemberIDs); err != nil {
		return nil, err
	}
	if ws.MemberIDs == nil {
		ws.MemberIDs = []string{}
	}
	ws.CreatedAt = ws.CreatedAt.UTC()
	ws.UpdatedAt = ws.UpdatedAt.UTC()
	return &ws, nil
}

func (r *WorkspaceRepository) Create(ctx context.Context, ws *domain.Workspace) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `INSERT INTO workspaces (id, name, owner_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`
		if _, err := tx.Exec(ctx, query, ws.ID, ws.Name, ws.OwnerID, ws.CreatedAt, ws.UpdatedAt); err != nil {
			return fmt.Errorf("insert workspace: %w", err)
		}
		for _, id := range ws.MemberIDs {
			if _, err := tx.Exec(ctx, `INSERT INTO workspace_members (workspace_id, user_id) VALUES ($1, $2)`, ws.ID, id); err != nil {
				return fmt.Errorf("insert member: %w", err)
			}
		}
		return nil
	})
}

func (r *WorkspaceRepository) FindByID(ctx context.Context, id string) (*domain.Workspace, error) {
	ws, err := scanWorkspace(r.pool.QueryRow(ctx, workspaceSelect+` WHERE w.id = $1 GROUP BY w.id`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("find workspace: %w", err)
	}
	return ws, nil
}

func (r *WorkspaceRepository) ListForUser(ctx context.Context, userID string) ([]*domain.Workspace, error) {
	const where = ` WHERE w.owner_id = $1
		OR EXISTS (SELECT 1 FROM workspace_members x WHERE x.workspace_id = w.id AND x.user_id = $1)
		GROUP BY w.id ORDER BY w.created_at`
	rows, err := r.pool.Query(ctx, workspaceSelect+where, userID)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	defer rows.Close()

	out := []*domain.Workspace{}
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}

func (r *WorkspaceRepository) Rename(ctx context.Context, id, name string) (*domain.Workspace, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE workspaces SET name = $2, updated_at = NOW() WHERE id = $1`, id, name)
	if err != nil {
		return nil, fmt.Errorf("rename workspace: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrWorkspaceNotFound
	}
	return r.FindByID(ctx, id)
}

// DeleteIfEmpty relies on the projects foreign key: a workspace still
// referenced by a project cannot be deleted.
func (r *WorkspaceRepository) DeleteIfEmpty(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM workspaces WHERE id = $1`, id)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return domain.ErrWorkspaceNotEmpty
		}
		return fmt.Errorf("delete workspace: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWorkspaceNotFound
	}
	return nil
}

func (r *WorkspaceRepository) AddMember(ctx context.Context, workspaceID, userID string) error {
	const query = `INSERT INTO workspace_members (workspace_id, user_id) VALUES ($1, $2)`
	if _, err := r.pool.Exec(ctx, query, workspaceID, userID); err != nil {
		switch pgCode(err) {
		case codeUniqueViolation:
			return domain.ErrAlreadyMember
		case codeForeignKeyViolation:
			return domain.ErrWorkspaceNotFound
		}
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func (r *WorkspaceRepository) RemoveMember(ctx context.Context, workspaceID, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM workspace_members WHERE workspace_id = $1 AND user_id = $2`, workspaceID, userID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.FindByID(ctx, workspaceID); err != nil {
			return err
		}
		return domain.ErrNotMember
	}
	return nil
}
