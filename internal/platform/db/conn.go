package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type contextKey string

const connKey contextKey = "db_conn"

// Querier is the subset of pgx operations the repositories need. Both
// *pgxpool.Pool and pgx.Tx satisfy it, so a repository can run against the
// shared pool or inside a caller-managed transaction carried in the context.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// WithConn returns a context carrying q. Repositories prefer the carried
// connection over their own pool, which lets several repository calls share
// one transaction.
func WithConn(ctx context.Context, q Querier) context.Context {
	return context.WithValue(ctx, connKey, q)
}

// ConnFromContext retrieves the connection stored by WithConn, or nil.
func ConnFromContext(ctx context.Context) Querier {
	q, _ := ctx.Value(connKey).(Querier)
	return q
}
