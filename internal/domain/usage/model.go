package usage

import (
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeProduction Type = "production"
	TypeWaste      Type = "waste"
	TypeAdjustment Type = "adjustment"
)

func (t Type) Valid() bool {
	switch t {
	case TypeProduction, TypeWaste, TypeAdjustment:
		return true
	}
	return false
}

// Record is one material line of a job. MaterialID is 0 for free-text
// materials that are not tracked in inventory.
type Record struct {
	ID             int64
	JobID          int64
	MaterialID     int64
	MaterialName   string
	PaperSize      string
	PaperType      string
	Grammage       int
	QuantitySheets int64
	UnitCost       decimal.Decimal // per sheet
	TotalCost      decimal.Decimal
	UsageType      Type
	Notes          string
	RecordedBy     int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (r Record) Linked() bool { return r.MaterialID > 0 }

// Snapshot is the audited view of a line.
type Snapshot struct {
	MaterialName   string
	PaperSize      string
	PaperType      string
	Grammage       int
	QuantitySheets int64
	UnitCost       decimal.Decimal
	TotalCost      decimal.Decimal
}

func (r Record) Snapshot() Snapshot {
	return Snapshot{
		MaterialName:   r.MaterialName,
		PaperSize:      r.PaperSize,
		PaperType:      r.PaperType,
		Grammage:       r.Grammage,
		QuantitySheets: r.QuantitySheets,
		UnitCost:       r.UnitCost,
		TotalCost:      r.TotalCost,
	}
}

// Equal compares money by value, so 10 and 10.00 are the same.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.MaterialName == o.MaterialName &&
		s.PaperSize == o.PaperSize &&
		s.PaperType == o.PaperType &&
		s.Grammage == o.Grammage &&
		s.QuantitySheets == o.QuantitySheets &&
		s.UnitCost.Equal(o.UnitCost) &&
		s.TotalCost.Equal(o.TotalCost)
}

func Cost(qty int64, perSheet decimal.Decimal) decimal.Decimal {
	return perSheet.Mul(decimal.NewFromInt(qty))
}
