package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Spok95/pressops/internal/domain/alerts"
	"github.com/Spok95/pressops/internal/domain/errs"
	"github.com/Spok95/pressops/internal/domain/materials"
)

// Store is the slice of persistence the ledger needs. Implementations run
// inside the caller's transaction.
type Store interface {
	LockItem(ctx context.Context, id int64) (*materials.Item, error)
	UpdateStock(ctx context.Context, id, stock int64) error
	InsertAdjustment(ctx context.Context, a Adjustment) error
}

// Ledger is the only writer of inventory_items.current_stock_sheets.
type Ledger struct {
	log *slog.Logger
}

func NewLedger(log *slog.Logger) *Ledger { return &Ledger{log: log} }

// Consume takes up to requested sheets. Stock never goes negative; what
// could not be taken is reported as Shortage.
func (l *Ledger) Consume(ctx context.Context, st Store, materialID, requested int64, n Note) (Movement, error) {
	if requested < 0 {
		return Movement{}, errs.Invalid("quantity", "must be >= 0")
	}
	return l.apply(ctx, st, materialID, requested, n, func(current int64) step {
		return take(requested, current, KindConsume)
	})
}

func (l *Ledger) Replenish(ctx context.Context, st Store, materialID, sheets int64, n Note) (Movement, error) {
	if sheets <= 0 {
		return Movement{}, errs.Invalid("sheets", "must be > 0")
	}
	return l.apply(ctx, st, materialID, sheets, n, func(int64) step {
		return step{delta: sheets, kind: KindReplenish}
	})
}

// ApplyDelta returns sheets when delta > 0 and consumes with Consume's
// policy when delta < 0.
func (l *Ledger) ApplyDelta(ctx context.Context, st Store, materialID, delta int64, n Note) (Movement, error) {
	requested := delta
	if delta < 0 {
		requested = -delta
	}
	return l.apply(ctx, st, materialID, requested, n, func(current int64) step {
		if delta < 0 {
			return take(-delta, current, KindCorrection)
		}
		return step{delta: delta, kind: KindCorrection}
	})
}

// Reconcile sets stock to a physically counted figure.
func (l *Ledger) Reconcile(ctx context.Context, st Store, materialID, counted int64, n Note) (Movement, error) {
	if counted < 0 {
		return Movement{}, errs.Invalid("counted", "must be >= 0")
	}
	return l.apply(ctx, st, materialID, counted, n, func(current int64) step {
		return step{delta: counted - current, kind: KindStocktake}
	})
}

type step struct {
	delta    int64
	kind     Kind
	shortage int64
}

func take(requested, current int64, kind Kind) step {
	actual := min(requested, max(current, 0))
	return step{delta: -actual, kind: kind, shortage: requested - actual}
}

func (l *Ledger) apply(ctx context.Context, st Store, materialID, requested int64, n Note, plan func(current int64) step) (Movement, error) {
	it, err := st.LockItem(ctx, materialID)
	if err != nil {
		return Movement{}, err
	}

	s := plan(it.CurrentStock)
	delta, kind := s.delta, s.kind
	m := Movement{
		MaterialID:   it.ID,
		MaterialName: it.Name,
		PerUnit:      it.PerUnit(),
		Threshold:    it.Threshold,
		Requested:    requested,
		Shortage:     s.shortage,
		StockBefore:  it.CurrentStock,
		StockAfter:   it.CurrentStock + delta,
		Before:       alerts.CheckStockStatus(it.CurrentStock, it.Threshold),
	}
	if delta < 0 {
		m.Actual = -delta
	} else {
		m.Actual = delta
	}
	m.After = alerts.CheckStockStatus(m.StockAfter, it.Threshold)

	if delta != 0 {
		if err := st.UpdateStock(ctx, it.ID, m.StockAfter); err != nil {
			return Movement{}, fmt.Errorf("update stock of %d: %w", it.ID, err)
		}
		if err := st.InsertAdjustment(ctx, Adjustment{
			MaterialID: it.ID,
			Kind:       kind,
			Delta:      delta,
			StockAfter: m.StockAfter,
			JobID:      n.JobID,
			Reason:     n.Reason,
			ActorID:    n.ActorID,
		}); err != nil {
			return Movement{}, fmt.Errorf("log adjustment of %d: %w", it.ID, err)
		}
	}

	if m.Short() {
		l.log.Warn("insufficient stock",
			"material_id", it.ID, "material", it.Name,
			"requested", requested, "taken", m.Actual, "shortage", m.Shortage, "job_id", n.JobID)
	}
	return m, nil
}
