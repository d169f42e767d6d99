package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workboard/workboard-api/internal/core/domain"
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func (r *AuditRepository) Insert(ctx context.Context, ev *domain.AuditEvent) error {
	const query = `INSERT INTO audit_events (id, actor_id, action, resource, resource_id, details, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	var details map[string]string
	if len(ev.Details) > 0 {
		details = ev.Details
	}
	if _, err := r.pool.Exec(ctx, query,
		ev.ID, ev.ActorID, string(ev.Action), ev.Resource, ev.ResourceID, details, ev.OccurredAt); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
