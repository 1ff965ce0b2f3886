package audit

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/pressops/internal/domain/inventory"
	"github.com/Spok95/pressops/internal/domain/usage"
)

const (
	suffixAdded   = " (New material added)"
	suffixDeleted = " (Material deleted)"
)

// History is an append-only before/after record of a material line.
// Previous is nil for additions, New is nil for deletions.
type History struct {
	ID       int64
	UsageID  int64
	JobID    int64
	Previous *usage.Snapshot
	New      *usage.Snapshot
	Reason   string
	EditedBy int64
	EditedAt time.Time
}

// Line is one entry of the replacement set. ID 0 adds a line.
type Line struct {
	ID           int64
	MaterialID   int64
	MaterialName string
	PaperSize    string
	PaperType    string
	Grammage     int
	Reams        int64
	Sheets       int64
	// UnitCost per sheet, used only for lines that are not in inventory.
	UnitCost  decimal.Decimal
	UsageType usage.Type
	Notes     string
}

type Request struct {
	JobID  int64
	Lines  []Line
	Reason string
}

type Result struct {
	Added     int
	Modified  int
	Deleted   int
	Unchanged int
	Movements []inventory.Movement
	History   []History
}
