package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pool operations the PlogGo services issue against
// Postgres. Production wiring passes *pgxpool.Pool; tests substitute a
// pgxmock pool, which implements the same three methods. The session gateway,
// auth, and every REST service depend on this instead of the concrete pool.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
