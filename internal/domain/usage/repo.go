package usage

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Spok95/pressops/internal/domain/errs"
	"github.com/Spok95/pressops/internal/infra/db"
)

type Repo struct{ q db.DBTX }

func NewRepo(q db.DBTX) *Repo { return &Repo{q: q} }

const recordColumns = `
	id, job_id, COALESCE(material_id, 0), material_name, paper_size, paper_type, grammage,
	quantity_sheets, unit_cost, total_cost, usage_type, notes, recorded_by, created_at, updated_at
`

func scanRecords(rows pgx.Rows) ([]Record, error) {
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(
			&r.ID, &r.JobID, &r.MaterialID, &r.MaterialName, &r.PaperSize, &r.PaperType, &r.Grammage,
			&r.QuantitySheets, &r.UnitCost, &r.TotalCost, &r.UsageType, &r.Notes, &r.RecordedBy,
			&r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func materialRef(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}

func (r *Repo) Insert(ctx context.Context, rec *Record) error {
	return r.q.QueryRow(ctx, `
		INSERT INTO material_usage
			(job_id, material_id, material_name, paper_size, paper_type, grammage,
			 quantity_sheets, unit_cost, total_cost, usage_type, notes, recorded_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id, created_at, updated_at
	`, rec.JobID, materialRef(rec.MaterialID), rec.MaterialName, rec.PaperSize, rec.PaperType, rec.Grammage,
		rec.QuantitySheets, rec.UnitCost, rec.TotalCost, string(rec.UsageType), rec.Notes, rec.RecordedBy,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
}

func (r *Repo) ListByJob(ctx context.Context, jobID int64) ([]Record, error) {
	rows, err := r.q.Query(ctx, `SELECT `+recordColumns+` FROM material_usage WHERE job_id = $1 ORDER BY id`, jobID)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

// LockByJob reads a job's lines under row locks.
func (r *Repo) LockByJob(ctx context.Context, jobID int64) ([]Record, error) {
	rows, err := r.q.Query(ctx, `SELECT `+recordColumns+` FROM material_usage WHERE job_id = $1 ORDER BY id FOR UPDATE`, jobID)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

func (r *Repo) Update(ctx context.Context, rec Record) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE material_usage SET
			material_id = $2, material_name = $3, paper_size = $4, paper_type = $5, grammage = $6,
			quantity_sheets = $7, unit_cost = $8, total_cost = $9, usage_type = $10, notes = $11,
			updated_at = now()
		WHERE id = $1
	`, rec.ID, materialRef(rec.MaterialID), rec.MaterialName, rec.PaperSize, rec.PaperType, rec.Grammage,
		rec.QuantitySheets, rec.UnitCost, rec.TotalCost, string(rec.UsageType), rec.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("usage record", rec.ID)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM material_usage WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("usage record", id)
	}
	return nil
}
