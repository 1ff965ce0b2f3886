package customers

import (
	"time"

	"github.com/shopspring/decimal"
)

type Customer struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	TotalPaid decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}
