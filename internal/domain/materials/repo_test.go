package materials

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/pressops/internal/domain/errs"
	"github.com/Spok95/pressops/internal/infra/db/dbtest"
)

func itemRow(id int64, name string) []any {
	now := time.Now()
	return []any{id, name, int64(0), "", "A4", "bond", 80, "ream", int64(500),
		int64(1000), int64(100), decimal.RequireFromString("5000"), true, now, now}
}

func TestLockByID(t *testing.T) {
	ctx := context.Background()
	rec := &dbtest.Recorder{Row: itemRow(3, "Bond A4")}

	it, err := NewRepo(rec).LockByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Bond A4", it.Name)
	assert.Equal(t, int64(1000), it.CurrentStock)
	assert.Contains(t, rec.Flat(), "WHERE i.id = $1 FOR UPDATE OF i")
	assert.Equal(t, []any{int64(3)}, rec.Last().Args)

	rec = &dbtest.Recorder{RowErr: pgx.ErrNoRows}
	_, err = NewRepo(rec).LockByID(ctx, 9)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	rec = &dbtest.Recorder{Row: itemRow(3, "Bond A4")}
	_, err = NewRepo(rec).GetByID(ctx, 3)
	require.NoError(t, err)
	assert.NotContains(t, rec.Flat(), "FOR UPDATE")
}

func TestFindActiveByName(t *testing.T) {
	ctx := context.Background()
	rec := &dbtest.Recorder{Row: itemRow(4, "Gloss A3")}

	it, err := NewRepo(rec).FindActiveByName(ctx, "  gloss ")
	require.NoError(t, err)
	assert.Equal(t, int64(4), it.ID)
	sql := rec.Flat()
	assert.Contains(t, sql, "i.is_active AND i.name ILIKE '%' || $1 || '%'")
	assert.Contains(t, sql, "ORDER BY i.id LIMIT 1")
	assert.Equal(t, []any{"gloss"}, rec.Last().Args)

	rec = &dbtest.Recorder{RowErr: pgx.ErrNoRows}
	it, err = NewRepo(rec).FindActiveByName(ctx, "vinyl")
	require.NoError(t, err)
	assert.Nil(t, it)

	rec = &dbtest.Recorder{}
	it, err = NewRepo(rec).FindActiveByName(ctx, "   ")
	require.NoError(t, err)
	assert.Nil(t, it)
	assert.Empty(t, rec.Calls)
}

func TestCreateMapsCategory(t *testing.T) {
	ctx := context.Background()
	rec := &dbtest.Recorder{}
	repo := NewRepo(rec)

	_, err := repo.Create(ctx, NewItem{Name: "Bond A4", UnitCost: decimal.RequireFromString("5000")})
	require.NoError(t, err)
	insert := rec.Calls[0]
	assert.Contains(t, insert.SQL, "INSERT INTO inventory_items")
	assert.Nil(t, insert.Args[1].(*int64))
	assert.Equal(t, "ream", insert.Args[5])
	assert.Equal(t, int64(500), insert.Args[6])

	rec.Calls = nil
	_, err = repo.Create(ctx, NewItem{Name: "Card", CategoryID: 2, SheetsPerUnit: 250})
	require.NoError(t, err)
	ref := rec.Calls[0].Args[1].(*int64)
	require.NotNil(t, ref)
	assert.Equal(t, int64(2), *ref)
	assert.Equal(t, int64(250), rec.Calls[0].Args[6])

	rec.Calls = nil
	_, err = repo.Create(ctx, NewItem{Name: " "})
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Empty(t, rec.Calls)
}

func TestUpdatePricingRepo(t *testing.T) {
	ctx := context.Background()
	rec := &dbtest.Recorder{}
	cost := decimal.RequireFromString("5200")

	require.NoError(t, NewRepo(rec).UpdatePricing(ctx, 3, cost, 150))
	assert.Contains(t, rec.Flat(), "SET unit_cost=$2, threshold_sheets=$3")
	assert.Equal(t, []any{int64(3), cost, int64(150)}, rec.Last().Args)

	rec = &dbtest.Recorder{Tag: "UPDATE 0"}
	assert.ErrorIs(t, NewRepo(rec).UpdatePricing(ctx, 3, cost, 150), errs.ErrNotFound)

	rec = &dbtest.Recorder{}
	assert.ErrorIs(t, NewRepo(rec).UpdatePricing(ctx, 3, cost, -1), errs.ErrValidation)
	assert.Empty(t, rec.Calls)
}
