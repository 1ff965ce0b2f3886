package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/pressops/internal/domain/alerts"
	"github.com/Spok95/pressops/internal/domain/errs"
	"github.com/Spok95/pressops/internal/infra/db/dbtest"
)

func jobRow(id int64, ticket string) []any {
	now := time.Now()
	return []any{id, ticket, int64(2), int64(7), "flyers", decimal.RequireFromString("100"),
		decimal.RequireFromString("40"), "partially_paid", "in_progress", nil, nil, now, now}
}

func TestLockJob(t *testing.T) {
	ctx := context.Background()
	rec := &dbtest.Recorder{Row: jobRow(5, "PRESS-1-AAAA")}

	j, err := NewRepo(rec).LockJob(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, alerts.PaymentPartiallyPaid, j.PaymentStatus)
	assert.Equal(t, StatusInProgress, j.Status)
	assert.Nil(t, j.CompletedAt)
	assert.Contains(t, rec.Flat(), "FROM jobs WHERE id = $1 FOR UPDATE")
	assert.Equal(t, []any{int64(5)}, rec.Last().Args)

	rec = &dbtest.Recorder{RowErr: pgx.ErrNoRows}
	_, err = NewRepo(rec).LockJob(ctx, 5)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestGetByTicket(t *testing.T) {
	ctx := context.Background()
	rec := &dbtest.Recorder{Row: jobRow(5, "PRESS-1-AAAA")}

	j, err := NewRepo(rec).GetByTicket(ctx, "PRESS-1-AAAA")
	require.NoError(t, err)
	assert.Equal(t, int64(5), j.ID)
	assert.Contains(t, rec.Flat(), "FROM jobs WHERE ticket = $1")
	assert.NotContains(t, rec.Flat(), "FOR UPDATE")
	assert.Equal(t, []any{"PRESS-1-AAAA"}, rec.Last().Args)

	rec = &dbtest.Recorder{RowErr: pgx.ErrNoRows}
	_, err = NewRepo(rec).GetByTicket(ctx, "PRESS-1-BBBB")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestListByWorkerBindsScope(t *testing.T) {
	ctx := context.Background()
	rec := &dbtest.Recorder{Rows: [][]any{jobRow(2, "PRESS-2-AAAA"), jobRow(1, "PRESS-1-AAAA")}}

	list, err := NewRepo(rec).ListByWorker(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "PRESS-2-AAAA", list[0].Ticket)
	assert.Contains(t, rec.Flat(), "WHERE $1::bigint = 0 OR worker_id = $1")
	assert.Equal(t, []any{int64(0), 100}, rec.Last().Args)
}
