package usage_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/pressops/internal/domain/errs"
	"github.com/Spok95/pressops/internal/domain/usage"
	"github.com/Spok95/pressops/internal/infra/db/dbtest"
)

func recordRow(id, materialID int64, name string) []any {
	now := time.Now()
	return []any{id, int64(5), materialID, name, "A4", "bond", 80, int64(40),
		decimal.RequireFromString("2"), decimal.RequireFromString("80"), "production", "", int64(7), now, now}
}

func TestLockByJob(t *testing.T) {
	ctx := context.Background()
	rec := &dbtest.Recorder{Rows: [][]any{recordRow(1, 3, "Bond A4"), recordRow(2, 0, "gloss")}}

	list, err := usage.NewRepo(rec).LockByJob(ctx, 5)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].Linked())
	assert.False(t, list[1].Linked())
	assert.Equal(t, usage.TypeProduction, list[1].UsageType)
	sql := rec.Flat()
	assert.Contains(t, sql, "COALESCE(material_id, 0)")
	assert.Contains(t, sql, "WHERE job_id = $1 ORDER BY id FOR UPDATE")
	assert.Equal(t, []any{int64(5)}, rec.Last().Args)

	_, err = usage.NewRepo(rec).ListByJob(ctx, 5)
	require.NoError(t, err)
	assert.NotContains(t, rec.Flat(), "FOR UPDATE")
}

func TestInsertFreeTextLeavesMaterialNull(t *testing.T) {
	ctx := context.Background()
	rec := &dbtest.Recorder{}
	repo := usage.NewRepo(rec)

	free := &usage.Record{JobID: 5, MaterialName: "gloss", QuantitySheets: 40, UsageType: usage.TypeWaste}
	require.NoError(t, repo.Insert(ctx, free))
	args := rec.Last().Args
	require.Len(t, args, 12)
	assert.Equal(t, int64(5), args[0])
	assert.Nil(t, args[1].(*int64))
	assert.Equal(t, "gloss", args[2])
	assert.Equal(t, "waste", args[9])

	linked := &usage.Record{JobID: 5, MaterialID: 3, MaterialName: "Bond A4", QuantitySheets: 40, UsageType: usage.TypeProduction}
	require.NoError(t, repo.Insert(ctx, linked))
	ref := rec.Last().Args[1].(*int64)
	require.NotNil(t, ref)
	assert.Equal(t, int64(3), *ref)

	linked.ID, linked.MaterialID = 9, 0
	require.NoError(t, repo.Update(ctx, *linked))
	assert.Nil(t, rec.Last().Args[1].(*int64))
	assert.Equal(t, int64(9), rec.Last().Args[0])

	rec.Tag = "DELETE 0"
	assert.ErrorIs(t, repo.Delete(ctx, 9), errs.ErrNotFound)
}
