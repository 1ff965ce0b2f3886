package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/pressops/internal/domain/errs"
	"github.com/Spok95/pressops/internal/domain/inventory"
	"github.com/Spok95/pressops/internal/infra/db/dbtest"
)

func TestInsertAdjustment(t *testing.T) {
	ctx := context.Background()
	rec := &dbtest.Recorder{Tag: "INSERT 0 1"}
	repo := inventory.NewRepo(rec)

	require.NoError(t, repo.InsertAdjustment(ctx, inventory.Adjustment{
		MaterialID: 3, Kind: inventory.KindConsume, Delta: -40, StockAfter: 960, JobID: 5, Reason: "job PRESS-1-AAAA", ActorID: 7,
	}))
	assert.Contains(t, rec.Flat(),
		"INSERT INTO stock_adjustments (material_id, kind, delta, stock_after, job_id, reason, actor_id) VALUES ($1,$2,$3,$4,$5,$6,$7)")
	args := rec.Last().Args
	require.Len(t, args, 7)
	assert.Equal(t, int64(3), args[0])
	assert.Equal(t, "consume", args[1])
	assert.Equal(t, int64(-40), args[2])
	assert.Equal(t, int64(960), args[3])
	job := args[4].(*int64)
	require.NotNil(t, job)
	assert.Equal(t, int64(5), *job)
	assert.Equal(t, "job PRESS-1-AAAA", args[5])
	assert.Equal(t, int64(7), args[6])

	require.NoError(t, repo.InsertAdjustment(ctx, inventory.Adjustment{
		MaterialID: 3, Kind: inventory.KindReplenish, Delta: 500, StockAfter: 1460, ActorID: 1,
	}))
	assert.Nil(t, rec.Last().Args[4].(*int64))
	assert.Equal(t, "replenish", rec.Last().Args[1])

	rec.Err = errors.New("conn reset")
	assert.Error(t, repo.InsertAdjustment(ctx, inventory.Adjustment{MaterialID: 3, Kind: inventory.KindCorrection}))
}

func TestUpdateStockAndLock(t *testing.T) {
	ctx := context.Background()
	rec := &dbtest.Recorder{}
	repo := inventory.NewRepo(rec)

	require.NoError(t, repo.UpdateStock(ctx, 3, 960))
	assert.Contains(t, rec.Flat(), "SET current_stock_sheets = $2")
	assert.Equal(t, []any{int64(3), int64(960)}, rec.Last().Args)

	_, err := repo.LockItem(ctx, 3)
	require.NoError(t, err)
	assert.Contains(t, rec.Flat(), "FOR UPDATE OF i")

	rec.Tag = "UPDATE 0"
	assert.ErrorIs(t, repo.UpdateStock(ctx, 3, 960), errs.ErrNotFound)
}
