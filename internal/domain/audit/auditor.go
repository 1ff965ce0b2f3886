// Package audit applies after-the-fact corrections to a job's material
// lines. Every change is replayed against stock and leaves a history row.
package audit

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Spok95/pressops/internal/domain/errs"
	"github.com/Spok95/pressops/internal/domain/inventory"
	"github.com/Spok95/pressops/internal/domain/materials"
	"github.com/Spok95/pressops/internal/domain/units"
	"github.com/Spok95/pressops/internal/domain/usage"
)

type Store interface {
	usage.Store
	LockRecords(ctx context.Context, jobID int64) ([]usage.Record, error)
	UpdateRecord(ctx context.Context, r usage.Record) error
	DeleteRecord(ctx context.Context, id int64) error
	InsertHistory(ctx context.Context, h *History) error
}

type Options struct {
	// ReturnStockOnDelete puts a deleted line's sheets back into stock.
	ReturnStockOnDelete bool
	MinReason           int
}

type Auditor struct {
	journal *usage.Journal
	opts    Options
}

func NewAuditor(journal *usage.Journal, opts Options) *Auditor {
	if opts.MinReason <= 0 {
		opts.MinReason = 5
	}
	return &Auditor{journal: journal, opts: opts}
}

// Validate checks a request without touching storage.
func (a *Auditor) Validate(req Request) error {
	fields := map[string]string{}
	if req.JobID <= 0 {
		fields["job_id"] = "is required"
	}
	if utf8.RuneCountInString(strings.TrimSpace(req.Reason)) < a.opts.MinReason {
		fields["reason"] = fmt.Sprintf("must be at least %d characters", a.opts.MinReason)
	}
	seen := map[int64]bool{}
	for i, l := range req.Lines {
		key := fmt.Sprintf("lines[%d]", i)
		switch {
		case l.ID < 0:
			fields[key+".id"] = "must be >= 0"
		case l.ID > 0 && seen[l.ID]:
			fields[key+".id"] = "duplicate line"
		}
		seen[l.ID] = true
		if l.Reams < 0 || l.Sheets < 0 {
			fields[key+".quantity"] = "must be >= 0"
		} else if l.Reams == 0 && l.Sheets == 0 {
			fields[key+".quantity"] = "must be > 0"
		}
		if l.MaterialID <= 0 && strings.TrimSpace(l.MaterialName) == "" {
			fields[key+".material"] = "material id or name is required"
		}
		if l.UsageType != "" && !l.UsageType.Valid() {
			fields[key+".usage_type"] = "must be production, waste or adjustment"
		}
		if l.UnitCost.IsNegative() {
			fields[key+".unit_cost"] = "must be >= 0"
		}
	}
	if len(fields) > 0 {
		return &errs.ValidationError{Fields: fields}
	}
	return nil
}

// Apply replaces the job's material lines with req.Lines. It must run in
// one transaction; any error leaves the caller to roll back.
func (a *Auditor) Apply(ctx context.Context, st Store, actorID int64, req Request) (Result, error) {
	if err := a.Validate(req); err != nil {
		return Result{}, err
	}
	reason := strings.TrimSpace(req.Reason)

	existing, err := st.LockRecords(ctx, req.JobID)
	if err != nil {
		return Result{}, err
	}
	byID := make(map[int64]usage.Record, len(existing))
	for _, r := range existing {
		byID[r.ID] = r
	}

	var res Result
	kept := map[int64]bool{}
	for _, l := range req.Lines {
		if l.ID == 0 {
			if err := a.add(ctx, st, actorID, req.JobID, l, reason, &res); err != nil {
				return Result{}, err
			}
			continue
		}
		old, ok := byID[l.ID]
		if !ok {
			return Result{}, errs.NotFound(fmt.Sprintf("usage record of job %d", req.JobID), l.ID)
		}
		kept[l.ID] = true
		if err := a.modify(ctx, st, actorID, old, l, reason, &res); err != nil {
			return Result{}, err
		}
	}

	for _, old := range existing {
		if kept[old.ID] {
			continue
		}
		if err := a.remove(ctx, st, actorID, old, reason, &res); err != nil {
			return Result{}, err
		}
	}
	return res, nil
}

func perUnit(it *materials.Item) int64 {
	if it == nil {
		return units.DefaultSheetsPerUnit
	}
	return it.PerUnit()
}

func (a *Auditor) entry(l Line, qty int64) usage.Entry {
	return usage.Entry{
		MaterialID:     l.MaterialID,
		MaterialName:   l.MaterialName,
		PaperSize:      l.PaperSize,
		PaperType:      l.PaperType,
		Grammage:       l.Grammage,
		QuantitySheets: qty,
		UnitCost:       l.UnitCost,
		UsageType:      l.UsageType,
		Notes:          l.Notes,
	}
}

func (a *Auditor) add(ctx context.Context, st Store, actorID, jobID int64, l Line, reason string, res *Result) error {
	it, err := a.journal.Resolve(ctx, st, l.MaterialID, l.MaterialName)
	if err != nil {
		return err
	}
	qty := units.ToSheets(l.Reams, l.Sheets, perUnit(it))

	if it != nil {
		mv, err := a.journal.Stock().Consume(ctx, st, it.ID, qty, inventory.Note{
			ActorID: actorID, JobID: jobID, Reason: reason + suffixAdded,
		})
		if err != nil {
			return err
		}
		res.Movements = append(res.Movements, mv)
		qty = mv.Actual
	}

	rec := usage.Build(jobID, actorID, a.entry(l, qty), it)
	if err := st.InsertRecord(ctx, &rec); err != nil {
		return err
	}
	snap := rec.Snapshot()
	h := &History{UsageID: rec.ID, JobID: jobID, New: &snap, Reason: reason + suffixAdded, EditedBy: actorID}
	if err := st.InsertHistory(ctx, h); err != nil {
		return err
	}
	res.Added++
	res.History = append(res.History, *h)
	return nil
}

// resolve keeps an existing line's link when the client sends no material
// id and the same name; only a new name goes through name matching.
func (a *Auditor) resolve(ctx context.Context, st Store, old usage.Record, l Line) (*materials.Item, error) {
	if l.MaterialID == 0 && strings.EqualFold(strings.TrimSpace(l.MaterialName), old.MaterialName) {
		if !old.Linked() {
			return nil, nil
		}
		return st.GetItem(ctx, old.MaterialID)
	}
	return a.journal.Resolve(ctx, st, l.MaterialID, l.MaterialName)
}

func (a *Auditor) modify(ctx context.Context, st Store, actorID int64, old usage.Record, l Line, reason string, res *Result) error {
	it, err := a.resolve(ctx, st, old, l)
	if err != nil {
		return err
	}
	qty := units.ToSheets(l.Reams, l.Sheets, perUnit(it))

	next := usage.Build(old.JobID, old.RecordedBy, a.entry(l, qty), it)
	next.ID = old.ID
	next.CreatedAt = old.CreatedAt
	sameMaterial := next.MaterialID == old.MaterialID
	switch {
	case sameMaterial && old.Linked():
		// keep the price the line was booked at
		next.UnitCost = old.UnitCost
	case !next.Linked() && l.UnitCost.IsZero():
		next.UnitCost = old.UnitCost
	}
	next.TotalCost = usage.Cost(next.QuantitySheets, next.UnitCost)

	if sameMaterial && next.Snapshot().Equal(old.Snapshot()) &&
		next.Notes == old.Notes && next.UsageType == old.UsageType {
		res.Unchanged++
		return nil
	}

	note := inventory.Note{ActorID: actorID, JobID: old.JobID, Reason: reason}
	stock := a.journal.Stock()
	switch {
	case sameMaterial && old.Linked():
		delta := next.QuantitySheets - old.QuantitySheets
		if delta != 0 {
			mv, err := stock.ApplyDelta(ctx, st, old.MaterialID, -delta, note)
			if err != nil {
				return err
			}
			res.Movements = append(res.Movements, mv)
			if delta > 0 {
				next.QuantitySheets = old.QuantitySheets + mv.Actual
			}
		}
	default:
		if old.Linked() {
			mv, err := stock.ApplyDelta(ctx, st, old.MaterialID, old.QuantitySheets, note)
			if err != nil {
				return err
			}
			res.Movements = append(res.Movements, mv)
		}
		if next.Linked() {
			mv, err := stock.Consume(ctx, st, next.MaterialID, next.QuantitySheets, note)
			if err != nil {
				return err
			}
			res.Movements = append(res.Movements, mv)
			next.QuantitySheets = mv.Actual
		}
	}
	next.TotalCost = usage.Cost(next.QuantitySheets, next.UnitCost)

	if err := st.UpdateRecord(ctx, next); err != nil {
		return err
	}
	prev, snap := old.Snapshot(), next.Snapshot()
	h := &History{UsageID: old.ID, JobID: old.JobID, Previous: &prev, New: &snap, Reason: reason, EditedBy: actorID}
	if err := st.InsertHistory(ctx, h); err != nil {
		return err
	}
	res.Modified++
	res.History = append(res.History, *h)
	return nil
}

func (a *Auditor) remove(ctx context.Context, st Store, actorID int64, old usage.Record, reason string, res *Result) error {
	if err := st.DeleteRecord(ctx, old.ID); err != nil {
		return err
	}
	if a.opts.ReturnStockOnDelete && old.Linked() && old.QuantitySheets > 0 {
		mv, err := a.journal.Stock().ApplyDelta(ctx, st, old.MaterialID, old.QuantitySheets, inventory.Note{
			ActorID: actorID, JobID: old.JobID, Reason: reason + suffixDeleted,
		})
		if err != nil {
			return err
		}
		res.Movements = append(res.Movements, mv)
	}
	prev := old.Snapshot()
	h := &History{UsageID: old.ID, JobID: old.JobID, Previous: &prev, Reason: reason + suffixDeleted, EditedBy: actorID}
	if err := st.InsertHistory(ctx, h); err != nil {
		return err
	}
	res.Deleted++
	res.History = append(res.History, *h)
	return nil
}
