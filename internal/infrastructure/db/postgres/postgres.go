// Package postgres implements the repository ports on PostgreSQL through a
// pgx connection pool. Schema changes are embedded goose migrations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/workboard/workboard-api/internal/core/ports"
)

const defaultTimeout = 10 * time.Second

// Postgres error codes mapped to domain errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, errors.New("empty database dsn")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return pool, nil
}

// Store groups the repositories over one pool.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var (
	_ ports.UserRepository      = (*UserRepository)(nil)
	_ ports.WorkspaceRepository = (*WorkspaceRepository)(nil)
	_ ports.ProjectRepository   = (*ProjectRepository)(nil)
	_ ports.TaskRepository      = (*TaskRepository)(nil)
	_ ports.AuditRepository     = (*AuditRepository)(nil)
)

func (s *Store) Users() *UserRepository           { return &UserRepository{pool: s.pool} }
func (s *Store) Workspaces() *WorkspaceRepository { return &WorkspaceRepository{pool: s.pool} }
func (s *Store) Projects() *ProjectRepository     { return &ProjectRepository{pool: s.pool} }
func (s *Store) Tasks() *TaskRepository           { return &TaskRepository{pool: s.pool} }
func (s *Store) Audit() *AuditRepository          { return &AuditRepository{pool: s.pool} }

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	s.pool.Close()
}

// inTx runs fn in a read-committed transaction and commits when it returns nil.
func inTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// Decimals cross the wire as text so no precision is lost to float64.
func parseDecimal(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return d, nil
}
