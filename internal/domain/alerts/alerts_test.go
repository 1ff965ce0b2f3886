package alerts

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCheckStockStatusBands(t *testing.T) {
	cases := []struct {
		current, threshold int64
		status             StockStatus
		priority           Priority
		pct                int64
	}{
		{100, 100, StatusCritical, PriorityHigh, 100},
		{0, 100, StatusCritical, PriorityHigh, 0},
		{101, 100, StatusLow, PriorityMedium, 101},
		{150, 100, StatusLow, PriorityMedium, 150},
		{151, 100, StatusHealthy, PriorityLow, 151},
		{1000, 100, StatusHealthy, PriorityLow, 1000},
		{0, 0, StatusCritical, PriorityHigh, 0},
		{1, 0, StatusHealthy, PriorityLow, 0},
		{2, 3, StatusCritical, PriorityHigh, 67},
	}
	for _, c := range cases {
		got := CheckStockStatus(c.current, c.threshold)
		assert.Equal(t, c.status, got.Status, "current=%d threshold=%d", c.current, c.threshold)
		assert.Equal(t, c.priority, got.Priority)
		assert.Equal(t, c.pct, got.Percentage)
		assert.Equal(t, c.status != StatusHealthy, got.IsLow)
	}
}

func TestThresholdCrossing(t *testing.T) {
	// stock 200, threshold 100, consume 60 -> 140 LOW; consume 40 more -> 100 CRITICAL
	before := CheckStockStatus(200, 100)
	mid := CheckStockStatus(140, 100)
	after := CheckStockStatus(100, 100)

	assert.Equal(t, StatusHealthy, before.Status)
	assert.Equal(t, StatusLow, mid.Status)
	assert.Equal(t, StatusCritical, after.Status)
	assert.True(t, Worsened(before.Status, mid.Status))
	assert.True(t, Worsened(mid.Status, after.Status))
	assert.False(t, Worsened(after.Status, after.Status))
	assert.False(t, Worsened(StatusCritical, StatusHealthy))
}

func TestDerivePaymentStatus(t *testing.T) {
	d := decimal.RequireFromString
	assert.Equal(t, PaymentPending, DerivePaymentStatus(d("10000"), d("0")))
	assert.Equal(t, PaymentPartiallyPaid, DerivePaymentStatus(d("6000"), d("4000")))
	assert.Equal(t, PaymentFullyPaid, DerivePaymentStatus(d("0"), d("10000")))
	assert.Equal(t, PaymentFullyPaid, DerivePaymentStatus(d("-5"), d("105")))
	assert.Equal(t, PaymentFullyPaid, DerivePaymentStatus(d("0"), d("0")))
}
