package audit

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Spok95/pressops/internal/domain/usage"
	"github.com/Spok95/pressops/internal/infra/db"
)

type Repo struct{ q db.DBTX }

func NewRepo(q db.DBTX) *Repo { return &Repo{q: q} }

// snapshotCols maps a nullable snapshot onto its column values.
type snapshotCols struct {
	Name      *string
	Size      *string
	Type      *string
	Grammage  *int
	Quantity  *int64
	UnitCost  decimal.NullDecimal
	TotalCost decimal.NullDecimal
}

func toCols(s *usage.Snapshot) snapshotCols {
	if s == nil {
		return snapshotCols{}
	}
	return snapshotCols{
		Name:      &s.MaterialName,
		Size:      &s.PaperSize,
		Type:      &s.PaperType,
		Grammage:  &s.Grammage,
		Quantity:  &s.QuantitySheets,
		UnitCost:  decimal.NewNullDecimal(s.UnitCost),
		TotalCost: decimal.NewNullDecimal(s.TotalCost),
	}
}

func (c snapshotCols) snapshot() *usage.Snapshot {
	if c.Name == nil {
		return nil
	}
	s := &usage.Snapshot{MaterialName: *c.Name}
	if c.Size != nil {
		s.PaperSize = *c.Size
	}
	if c.Type != nil {
		s.PaperType = *c.Type
	}
	if c.Grammage != nil {
		s.Grammage = *c.Grammage
	}
	if c.Quantity != nil {
		s.QuantitySheets = *c.Quantity
	}
	s.UnitCost = c.UnitCost.Decimal
	s.TotalCost = c.TotalCost.Decimal
	return s
}

func (r *Repo) Insert(ctx context.Context, h *History) error {
	p, n := toCols(h.Previous), toCols(h.New)
	return r.q.QueryRow(ctx, `
		INSERT INTO material_edit_history (
			usage_id, job_id,
			prev_material_name, prev_paper_size, prev_paper_type, prev_grammage,
			prev_quantity_sheets, prev_unit_cost, prev_total_cost,
			new_material_name, new_paper_size, new_paper_type, new_grammage,
			new_quantity_sheets, new_unit_cost, new_total_cost,
			reason, edited_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		RETURNING id, edited_at
	`, h.UsageID, h.JobID,
		p.Name, p.Size, p.Type, p.Grammage, p.Quantity, p.UnitCost, p.TotalCost,
		n.Name, n.Size, n.Type, n.Grammage, n.Quantity, n.UnitCost, n.TotalCost,
		h.Reason, h.EditedBy,
	).Scan(&h.ID, &h.EditedAt)
}

// ListByJob returns a job's edit trail, oldest first.
func (r *Repo) ListByJob(ctx context.Context, jobID int64) ([]History, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, usage_id, job_id,
			prev_material_name, prev_paper_size, prev_paper_type, prev_grammage,
			prev_quantity_sheets, prev_unit_cost, prev_total_cost,
			new_material_name, new_paper_size, new_paper_type, new_grammage,
			new_quantity_sheets, new_unit_cost, new_total_cost,
			reason, edited_by, edited_at
		FROM material_edit_history
		WHERE job_id = $1
		ORDER BY edited_at, id
	`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []History
	for rows.Next() {
		var h History
		var p, n snapshotCols
		if err := rows.Scan(&h.ID, &h.UsageID, &h.JobID,
			&p.Name, &p.Size, &p.Type, &p.Grammage, &p.Quantity, &p.UnitCost, &p.TotalCost,
			&n.Name, &n.Size, &n.Type, &n.Grammage, &n.Quantity, &n.UnitCost, &n.TotalCost,
			&h.Reason, &h.EditedBy, &h.EditedAt,
		); err != nil {
			return nil, err
		}
		h.Previous, h.New = p.snapshot(), n.snapshot()
		out = append(out, h)
	}
	return out, rows.Err()
}
