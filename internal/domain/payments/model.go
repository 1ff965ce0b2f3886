package payments

import (
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeDeposit     Type = "deposit"
	TypeInstallment Type = "installment"
	TypeFullPayment Type = "full_payment"
	TypeBalance     Type = "balance"
)

func (t Type) Valid() bool {
	switch t {
	case TypeDeposit, TypeInstallment, TypeFullPayment, TypeBalance:
		return true
	}
	return false
}

// Payment is immutable once recorded.
type Payment struct {
	ID         int64
	JobID      int64
	Amount     decimal.Decimal
	Type       Type
	Method     string
	Receipt    string
	RecordedBy int64
	PaidAt     time.Time
}
