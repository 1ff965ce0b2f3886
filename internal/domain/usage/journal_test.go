package usage_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/pressops/internal/domain/errs"
	"github.com/Spok95/pressops/internal/domain/inventory"
	"github.com/Spok95/pressops/internal/domain/materials"
	"github.com/Spok95/pressops/internal/domain/usage"
	"github.com/Spok95/pressops/internal/store/memstore"
)

func journal(fuzzy bool) *usage.Journal {
	stock := inventory.NewLedger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return usage.NewJournal(stock, usage.Options{FuzzyMatch: fuzzy})
}

func glossy(st *memstore.Store, stock int64) int64 {
	return st.PutItem(materials.Item{
		Name:          "Glossy A3 150gsm",
		PaperSize:     "A3",
		PaperType:     "glossy",
		Grammage:      150,
		SheetsPerUnit: 250,
		CurrentStock:  stock,
		Threshold:     50,
		UnitCost:      decimal.NewFromInt(5000),
		Active:        true,
	})
}

func TestRecordLinkedLine(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	id := glossy(st, 1000)

	rec, mv, err := journal(false).Record(ctx, st, 7, 3, usage.Entry{MaterialID: id, QuantitySheets: 100})
	require.NoError(t, err)
	require.NotNil(t, mv)
	assert.Equal(t, int64(900), st.Item(id).CurrentStock)

	assert.Equal(t, id, rec.MaterialID)
	assert.Equal(t, "Glossy A3 150gsm", rec.MaterialName)
	assert.Equal(t, "A3", rec.PaperSize)
	assert.Equal(t, 150, rec.Grammage)
	assert.Equal(t, usage.TypeProduction, rec.UsageType)
	// 5000 per 250-sheet unit -> 20 per sheet
	assert.Equal(t, "20", rec.UnitCost.String())
	assert.Equal(t, "2000", rec.TotalCost.String())
	assert.NotZero(t, rec.ID)
}

func TestRecordConvertsReamsWithItemUnit(t *testing.T) {
	st := memstore.New()
	id := glossy(st, 1000)

	rec, _, err := journal(false).Record(context.Background(), st, 7, 3, usage.Entry{MaterialID: id, Reams: 2, QuantitySheets: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(510), rec.QuantitySheets)
	assert.Equal(t, int64(490), st.Item(id).CurrentStock)
}

func TestRecordShortageKeepsActual(t *testing.T) {
	st := memstore.New()
	id := glossy(st, 40)

	rec, mv, err := journal(false).Record(context.Background(), st, 7, 3, usage.Entry{MaterialID: id, QuantitySheets: 100})
	require.NoError(t, err)
	assert.True(t, mv.Short())
	assert.Equal(t, int64(60), mv.Shortage)
	assert.Equal(t, int64(40), rec.QuantitySheets)
	assert.Equal(t, int64(0), st.Item(id).CurrentStock)
}

func TestRecordUnmatchedUsesCallerCost(t *testing.T) {
	st := memstore.New()
	id := glossy(st, 1000)

	rec, mv, err := journal(false).Record(context.Background(), st, 7, 3, usage.Entry{
		MaterialName:   "glossy",
		QuantitySheets: 10,
		UnitCost:       decimal.RequireFromString("1.5"),
		UsageType:      usage.TypeWaste,
	})
	require.NoError(t, err)
	assert.Nil(t, mv)
	assert.False(t, rec.Linked())
	assert.Equal(t, "15", rec.TotalCost.String())
	assert.Equal(t, int64(1000), st.Item(id).CurrentStock)
}

func TestRecordFuzzyMatch(t *testing.T) {
	st := memstore.New()
	id := glossy(st, 1000)
	st.PutItem(materials.Item{Name: "Glossy A4 (retired)", Active: false, CurrentStock: 5})

	rec, mv, err := journal(true).Record(context.Background(), st, 7, 3, usage.Entry{MaterialName: "GLOSSY", QuantitySheets: 10})
	require.NoError(t, err)
	require.NotNil(t, mv)
	assert.Equal(t, id, rec.MaterialID)
	assert.Equal(t, int64(990), st.Item(id).CurrentStock)
}

func TestRecordValidation(t *testing.T) {
	st := memstore.New()
	_, _, err := journal(false).Record(context.Background(), st, 7, 3, usage.Entry{QuantitySheets: -1, UsageType: "scrap"})
	require.ErrorIs(t, err, errs.ErrValidation)

	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "quantity")
	assert.Contains(t, ve.Fields, "material")
	assert.Contains(t, ve.Fields, "usage_type")
}

func TestRecordUnknownMaterial(t *testing.T) {
	_, _, err := journal(false).Record(context.Background(), memstore.New(), 7, 3, usage.Entry{MaterialID: 99, QuantitySheets: 1})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestSnapshotEqual(t *testing.T) {
	a := usage.Snapshot{MaterialName: "A4", QuantitySheets: 50, UnitCost: decimal.RequireFromString("10.00"), TotalCost: decimal.NewFromInt(500)}
	b := a
	b.UnitCost = decimal.NewFromInt(10)
	assert.True(t, a.Equal(b))
	b.QuantitySheets = 51
	assert.False(t, a.Equal(b))
}
