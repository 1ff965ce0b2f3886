package db

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/pressops/internal/domain/errs"
)

type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *fakeTx) Commit(context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakePool struct {
	txs  []*fakeTx
	opts []pgx.TxOptions
}

func (p *fakePool) BeginTx(_ context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	tx := &fakeTx{}
	p.txs = append(p.txs, tx)
	p.opts = append(p.opts, opts)
	return tx, nil
}

func newTestTransactor(p *fakePool) *Transactor {
	return &Transactor{pool: p, log: slog.New(slog.NewTextHandler(io.Discard, nil)), backoff: time.Millisecond}
}

func TestWithTxCommits(t *testing.T) {
	p := &fakePool{}
	tr := newTestTransactor(p)

	err := tr.WithTx(context.Background(), func(q DBTX) error { return nil })
	require.NoError(t, err)
	require.Len(t, p.txs, 1)
	assert.True(t, p.txs[0].committed)
	assert.Equal(t, pgx.ReadCommitted, p.opts[0].IsoLevel)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	p := &fakePool{}
	tr := newTestTransactor(p)
	boom := errors.New("boom")

	err := tr.WithTx(context.Background(), func(q DBTX) error { return boom })
	require.ErrorIs(t, err, boom)
	require.Len(t, p.txs, 1)
	assert.False(t, p.txs[0].committed)
	assert.True(t, p.txs[0].rolledBack)
}

func TestWithTxRetriesTerminatedConnection(t *testing.T) {
	p := &fakePool{}
	tr := newTestTransactor(p)
	retries := 0
	tr.OnRetry = func() { retries++ }

	calls := 0
	err := tr.WithTx(context.Background(), func(q DBTX) error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: PgErrIdleSessionTimeout}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, retries)
	assert.True(t, p.txs[2].committed)
}

func TestWithTxGivesUpAfterRetries(t *testing.T) {
	p := &fakePool{}
	tr := newTestTransactor(p)

	calls := 0
	err := tr.WithTx(context.Background(), func(q DBTX) error {
		calls++
		return &pgconn.PgError{Code: PgErrAdminShutdown}
	})
	require.Error(t, err)
	assert.Equal(t, txRetries+1, calls)
	assert.True(t, IsConnTerminated(err))
}

func TestWithTxDoesNotRetryOtherErrors(t *testing.T) {
	p := &fakePool{}
	tr := newTestTransactor(p)

	calls := 0
	err := tr.WithTx(context.Background(), func(q DBTX) error {
		calls++
		return &pgconn.PgError{Code: PgErrUniqueViolation, ConstraintName: "payments_receipt_key", Detail: "Key (receipt)=(RCP-1) already exists."}
	})
	assert.Equal(t, 1, calls)

	var ce *ConstraintError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, PgErrUniqueViolation, ce.Code)
	assert.Equal(t, "payments_receipt_key", ce.Constraint)
	assert.ErrorIs(t, err, errs.ErrConflict)
	assert.Contains(t, err.Error(), "already exists")
}

func TestClassify(t *testing.T) {
	plain := errors.New("plain")
	assert.Same(t, plain, Classify(plain))
	assert.Nil(t, Classify(nil))

	fk := Classify(&pgconn.PgError{Code: PgErrForeignKeyViolation, ConstraintName: "jobs_customer_id_fkey"})
	assert.ErrorIs(t, fk, errs.ErrValidation)
	assert.NotErrorIs(t, fk, errs.ErrConflict)

	deadlock := &pgconn.PgError{Code: "40P01"}
	assert.Same(t, error(deadlock), Classify(deadlock))
}
