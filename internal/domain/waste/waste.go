// Package waste records spoilage and job expenses. Expenses are money
// only; waste that should come out of stock is booked as a material line.
package waste

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/pressops/internal/domain/errs"
	"github.com/Spok95/pressops/internal/infra/db"
)

type Expense struct {
	ID         int64
	JobID      int64
	MaterialID int64
	Type       string
	Quantity   decimal.Decimal
	UnitCost   decimal.Decimal
	TotalCost  decimal.Decimal
	Reason     string
	RecordedBy int64
	CreatedAt  time.Time
}

// Normalize validates e and fills TotalCost.
func (e *Expense) Normalize() error {
	fields := map[string]string{}
	e.Type = strings.TrimSpace(e.Type)
	if e.Type == "" {
		fields["type"] = "is required"
	}
	if !e.Quantity.IsPositive() {
		fields["quantity"] = "must be > 0"
	}
	if e.UnitCost.IsNegative() {
		fields["unit_cost"] = "must be >= 0"
	}
	if len(fields) > 0 {
		return &errs.ValidationError{Fields: fields}
	}
	e.TotalCost = e.Quantity.Mul(e.UnitCost)
	return nil
}

type Repo struct{ q db.DBTX }

func NewRepo(q db.DBTX) *Repo { return &Repo{q: q} }

func (r *Repo) Insert(ctx context.Context, e *Expense) error {
	var materialID *int64
	if e.MaterialID > 0 {
		materialID = &e.MaterialID
	}
	return r.q.QueryRow(ctx, `
		INSERT INTO waste_expenses (job_id, material_id, type, quantity, unit_cost, total_cost, reason, recorded_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at
	`, e.JobID, materialID, e.Type, e.Quantity, e.UnitCost, e.TotalCost, e.Reason, e.RecordedBy,
	).Scan(&e.ID, &e.CreatedAt)
}

func (r *Repo) ListByJob(ctx context.Context, jobID int64) ([]Expense, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, job_id, COALESCE(material_id, 0), type, quantity, unit_cost, total_cost, reason, recorded_by, created_at
		FROM waste_expenses WHERE job_id = $1 ORDER BY id
	`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.JobID, &e.MaterialID, &e.Type, &e.Quantity, &e.UnitCost, &e.TotalCost, &e.Reason, &e.RecordedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
