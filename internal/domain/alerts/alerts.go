// Package alerts classifies stock levels and payment state. Everything
// here is pure.
package alerts

import (
	"math"

	"github.com/shopspring/decimal"
)

type StockStatus string

const (
	StatusCritical StockStatus = "CRITICAL"
	StatusLow      StockStatus = "LOW"
	StatusHealthy  StockStatus = "HEALTHY"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type StockCheck struct {
	Status     StockStatus
	Priority   Priority
	Percentage int64
	IsLow      bool
}

// CheckStockStatus: CRITICAL at or under the threshold, LOW up to 1.5x the
// threshold, HEALTHY above. A zero threshold makes an empty item CRITICAL.
func CheckStockStatus(current, threshold int64) StockCheck {
	var c StockCheck
	switch {
	case current <= threshold:
		c.Status, c.Priority = StatusCritical, PriorityHigh
	case current*2 <= threshold*3:
		c.Status, c.Priority = StatusLow, PriorityMedium
	default:
		c.Status, c.Priority = StatusHealthy, PriorityLow
	}
	if threshold > 0 {
		c.Percentage = int64(math.Round(float64(current) / float64(threshold) * 100))
	}
	c.IsLow = c.Status != StatusHealthy
	return c
}

func severity(s StockStatus) int {
	switch s {
	case StatusCritical:
		return 2
	case StatusLow:
		return 1
	}
	return 0
}

// Worsened reports a move to a strictly worse band.
func Worsened(before, after StockStatus) bool {
	return severity(after) > severity(before)
}

type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "pending"
	PaymentPartiallyPaid PaymentStatus = "partially_paid"
	PaymentFullyPaid     PaymentStatus = "fully_paid"
)

func DerivePaymentStatus(balance, paid decimal.Decimal) PaymentStatus {
	switch {
	case !balance.IsPositive():
		return PaymentFullyPaid
	case paid.IsPositive():
		return PaymentPartiallyPaid
	}
	return PaymentPending
}
