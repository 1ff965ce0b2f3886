package payments

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Spok95/pressops/internal/infra/db"
)

type Repo struct{ q db.DBTX }

func NewRepo(q db.DBTX) *Repo { return &Repo{q: q} }

func (r *Repo) Insert(ctx context.Context, p *Payment) error {
	return r.q.QueryRow(ctx, `
		INSERT INTO payments (job_id, amount, type, method, receipt, recorded_by)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, paid_at
	`, p.JobID, p.Amount, string(p.Type), p.Method, p.Receipt, p.RecordedBy).Scan(&p.ID, &p.PaidAt)
}

func (r *Repo) SumByJob(ctx context.Context, jobID int64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM payments WHERE job_id = $1
	`, jobID).Scan(&sum)
	return sum, err
}

func (r *Repo) ListByJob(ctx context.Context, jobID int64) ([]Payment, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, job_id, amount, type, method, receipt, recorded_by, paid_at
		FROM payments
		WHERE job_id = $1
		ORDER BY paid_at, id
	`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.JobID, &p.Amount, &p.Type, &p.Method, &p.Receipt, &p.RecordedBy, &p.PaidAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
