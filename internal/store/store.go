// Package store persists crawl results in Postgres and reads back the
// previously known state the orchestrator reconciles against.
package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// DB is the subset of pgxpool.Pool the store needs; tests substitute a
// capturing fake.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Store struct {
	db     DB
	logger *zap.SugaredLogger
}

func New(db DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger.Sugar()}
}

// Connect opens a pgx pool and pings it.
func Connect(ctx context.Context, dsn string, logger *zap.Logger) (*Store, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	return New(pool, logger), pool, nil
}
