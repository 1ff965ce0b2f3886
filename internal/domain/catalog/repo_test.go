package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/pressops/internal/domain/catalog"
	"github.com/Spok95/pressops/internal/domain/errs"
	"github.com/Spok95/pressops/internal/infra/db/dbtest"
)

func TestEnsureCategoryFallsBackToLookup(t *testing.T) {
	ctx := context.Background()
	rec := &dbtest.Recorder{RowErr: pgx.ErrNoRows}

	_, err := catalog.NewRepo(rec).EnsureCategory(ctx, " Paper ")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	require.Len(t, rec.Calls, 2)
	assert.Contains(t, rec.Calls[0].SQL, "ON CONFLICT (name) DO NOTHING")
	assert.Equal(t, []any{"Paper"}, rec.Calls[0].Args)
	assert.Contains(t, rec.Calls[1].SQL, "WHERE name = $1")
}

func TestCategoryQueries(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	rec := &dbtest.Recorder{
		Row:  []any{int64(2), "Vinyl", false, now},
		Rows: [][]any{{int64(1), "Paper", true, now}, {int64(2), "Vinyl", true, now}},
	}
	repo := catalog.NewRepo(rec)

	list, err := repo.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Contains(t, rec.Flat(), "ORDER BY name")

	c, err := repo.SetCategoryActive(ctx, 2, false)
	require.NoError(t, err)
	assert.False(t, c.Active)
	assert.Contains(t, rec.Flat(), "SET is_active=$2 WHERE id=$1")
	assert.Equal(t, []any{int64(2), false}, rec.Last().Args)

	rec.RowErr = pgx.ErrNoRows
	_, err = repo.GetCategoryByID(ctx, 9)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.Contains(t, rec.Flat(), "WHERE id=$1")
}
