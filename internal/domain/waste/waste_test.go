package waste

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/pressops/internal/domain/errs"
)

func TestNormalize(t *testing.T) {
	e := &Expense{Type: " misprint ", Quantity: decimal.NewFromInt(40), UnitCost: decimal.RequireFromString("2.5")}
	require.NoError(t, e.Normalize())
	assert.Equal(t, "misprint", e.Type)
	assert.True(t, decimal.NewFromInt(100).Equal(e.TotalCost))

	bad := &Expense{Quantity: decimal.Zero, UnitCost: decimal.NewFromInt(-1)}
	err := bad.Normalize()
	require.ErrorIs(t, err, errs.ErrValidation)

	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Fields, 3)
}
