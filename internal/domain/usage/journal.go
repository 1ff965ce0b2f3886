package usage

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Spok95/pressops/internal/domain/errs"
	"github.com/Spok95/pressops/internal/domain/inventory"
	"github.com/Spok95/pressops/internal/domain/materials"
	"github.com/Spok95/pressops/internal/domain/units"
)

type Store interface {
	inventory.Store
	GetItem(ctx context.Context, id int64) (*materials.Item, error)
	FindActiveItemByName(ctx context.Context, name string) (*materials.Item, error)
	InsertRecord(ctx context.Context, r *Record) error
}

type Options struct {
	// FuzzyMatch resolves lines without a material id by name.
	FuzzyMatch bool
}

// Journal appends material lines and takes linked quantities out of stock.
type Journal struct {
	stock *inventory.Ledger
	opts  Options
}

func NewJournal(stock *inventory.Ledger, opts Options) *Journal {
	return &Journal{stock: stock, opts: opts}
}

func (j *Journal) Stock() *inventory.Ledger { return j.stock }

// Entry is a line as submitted by a worker. Reams are converted with the
// resolved item's sheets per unit. UnitCost is per sheet and is only used
// when the line does not resolve to an inventory item.
type Entry struct {
	MaterialID     int64
	MaterialName   string
	PaperSize      string
	PaperType      string
	Grammage       int
	Reams          int64
	QuantitySheets int64
	UnitCost       decimal.Decimal
	UsageType      Type
	Notes          string
}

// Resolve finds the inventory item a line refers to. An explicit id wins;
// a name is matched only when fuzzy matching is on. Nil means untracked.
func (j *Journal) Resolve(ctx context.Context, st Store, materialID int64, name string) (*materials.Item, error) {
	if materialID > 0 {
		return st.GetItem(ctx, materialID)
	}
	if !j.opts.FuzzyMatch || strings.TrimSpace(name) == "" {
		return nil, nil
	}
	return st.FindActiveItemByName(ctx, name)
}

// Build fills a record from an entry and the resolved item without
// touching stock.
func Build(jobID, actorID int64, e Entry, it *materials.Item) Record {
	r := Record{
		JobID:          jobID,
		MaterialName:   strings.TrimSpace(e.MaterialName),
		PaperSize:      e.PaperSize,
		PaperType:      e.PaperType,
		Grammage:       e.Grammage,
		QuantitySheets: e.QuantitySheets,
		UnitCost:       e.UnitCost,
		UsageType:      e.UsageType,
		Notes:          e.Notes,
		RecordedBy:     actorID,
	}
	if r.UsageType == "" {
		r.UsageType = TypeProduction
	}
	if it != nil {
		r.MaterialID = it.ID
		r.MaterialName = it.Name
		r.UnitCost = it.CostPerSheet()
		if r.PaperSize == "" {
			r.PaperSize = it.PaperSize
		}
		if r.PaperType == "" {
			r.PaperType = it.PaperType
		}
		if r.Grammage == 0 {
			r.Grammage = it.Grammage
		}
	}
	r.TotalCost = Cost(r.QuantitySheets, r.UnitCost)
	return r
}

// Validate checks the entry on its own, without touching the store.
func (e Entry) Validate() error {
	fields := map[string]string{}
	if e.Reams < 0 || e.QuantitySheets < 0 {
		fields["quantity"] = "must be >= 0"
	} else if e.Reams == 0 && e.QuantitySheets == 0 {
		fields["quantity"] = "must be > 0"
	}
	if e.MaterialID <= 0 && strings.TrimSpace(e.MaterialName) == "" {
		fields["material"] = "material id or name is required"
	}
	if e.UsageType != "" && !e.UsageType.Valid() {
		fields["usage_type"] = "must be production, waste or adjustment"
	}
	if e.UnitCost.IsNegative() {
		fields["unit_cost"] = "must be >= 0"
	}
	if len(fields) > 0 {
		return &errs.ValidationError{Fields: fields}
	}
	return nil
}

// Record appends a line. A linked line consumes its quantity; on shortage
// the line keeps what was actually taken and the movement says how much
// was missing.
func (j *Journal) Record(ctx context.Context, st Store, jobID, actorID int64, e Entry) (Record, *inventory.Movement, error) {
	if err := e.Validate(); err != nil {
		return Record{}, nil, err
	}
	it, err := j.Resolve(ctx, st, e.MaterialID, e.MaterialName)
	if err != nil {
		return Record{}, nil, err
	}

	perUnit := int64(units.DefaultSheetsPerUnit)
	if it != nil {
		perUnit = it.PerUnit()
	}
	e.QuantitySheets = units.ToSheets(e.Reams, e.QuantitySheets, perUnit)
	e.Reams = 0

	var mv *inventory.Movement
	if it != nil {
		m, err := j.stock.Consume(ctx, st, it.ID, e.QuantitySheets, inventory.Note{
			ActorID: actorID,
			JobID:   jobID,
			Reason:  "job material usage",
		})
		if err != nil {
			return Record{}, nil, err
		}
		mv = &m
		e.QuantitySheets = m.Actual
	}

	r := Build(jobID, actorID, e, it)
	if err := st.InsertRecord(ctx, &r); err != nil {
		return Record{}, nil, err
	}
	return r, mv, nil
}
