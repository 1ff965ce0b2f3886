package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx, so repositories can run
// either standalone or inside the owning transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	connectAttempts = 10
	txRetries       = 3
)

func Connect(ctx context.Context, dsn string, maxConns int32, log *slog.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	attempt := 0
	b := retry.WithMaxRetries(connectAttempts-1, retry.NewConstant(2*time.Second))
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := pool.Ping(ctx); err != nil {
			log.Warn("db ping failed", "attempt", attempt, "err", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("db unreachable after %d attempts: %w", attempt, err)
	}
	return pool, nil
}

type beginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// Transactor runs a unit of work in one READ COMMITTED transaction.
// Ledger code takes row locks explicitly, so the default level is enough.
type Transactor struct {
	pool    beginner
	log     *slog.Logger
	backoff time.Duration
	// OnRetry is called before a unit of work is re-run on a fresh connection.
	OnRetry func()
}

func NewTransactor(pool *pgxpool.Pool, log *slog.Logger) *Transactor {
	return &Transactor{pool: pool, log: log, backoff: 50 * time.Millisecond}
}

// WithTx commits when fn returns nil and rolls back otherwise. A unit of
// work that failed because the server dropped an idle connection is re-run
// on a fresh one, up to txRetries times; fn must not keep state across runs.
func (t *Transactor) WithTx(ctx context.Context, fn func(q DBTX) error) error {
	attempt := 0
	b := retry.WithMaxRetries(txRetries, retry.NewConstant(t.backoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if attempt > 1 && t.OnRetry != nil {
			t.OnRetry()
		}
		err := t.run(ctx, fn)
		if err != nil && IsConnTerminated(err) {
			t.log.Warn("connection terminated, retrying transaction", "attempt", attempt, "err", err)
			return retry.RetryableError(err)
		}
		return err
	})
	return Classify(err)
}

func (t *Transactor) run(ctx context.Context, fn func(q DBTX) error) error {
	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
