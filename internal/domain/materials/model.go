package materials

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/pressops/internal/domain/units"
)

// Item is a stock-keeping inventory entry. Stock is always kept in sheets;
// reams are a display concern.
type Item struct {
	ID            int64
	Name          string
	CategoryID    int64
	Category      string
	PaperSize     string
	PaperType     string
	Grammage      int
	UnitLabel     string
	SheetsPerUnit int64
	CurrentStock  int64
	Threshold     int64
	UnitCost      decimal.Decimal // per unit (ream)
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (it Item) PerUnit() int64 {
	if it.SheetsPerUnit <= 0 {
		return units.DefaultSheetsPerUnit
	}
	return it.SheetsPerUnit
}

func (it Item) CostPerSheet() decimal.Decimal {
	return it.UnitCost.Div(decimal.NewFromInt(it.PerUnit()))
}

type NewItem struct {
	Name          string
	CategoryID    int64
	PaperSize     string
	PaperType     string
	Grammage      int
	UnitLabel     string
	SheetsPerUnit int64
	Threshold     int64
	UnitCost      decimal.Decimal
}
