package inventory

import (
	"context"

	"github.com/Spok95/pressops/internal/domain/errs"
	"github.com/Spok95/pressops/internal/domain/materials"
	"github.com/Spok95/pressops/internal/infra/db"
)

// Repo is the Postgres Store. It must be built on the transaction that
// owns the row locks.
type Repo struct {
	q     db.DBTX
	items *materials.Repo
}

func NewRepo(q db.DBTX) *Repo { return &Repo{q: q, items: materials.NewRepo(q)} }

func (r *Repo) LockItem(ctx context.Context, id int64) (*materials.Item, error) {
	return r.items.LockByID(ctx, id)
}

func (r *Repo) UpdateStock(ctx context.Context, id, stock int64) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE inventory_items
		SET current_stock_sheets = $2, updated_at = now()
		WHERE id = $1
	`, id, stock)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("inventory item", id)
	}
	return nil
}

func (r *Repo) InsertAdjustment(ctx context.Context, a Adjustment) error {
	var jobID *int64
	if a.JobID > 0 {
		jobID = &a.JobID
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_adjustments (material_id, kind, delta, stock_after, job_id, reason, actor_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, a.MaterialID, string(a.Kind), a.Delta, a.StockAfter, jobID, a.Reason, a.ActorID)
	return err
}

// ListAdjustments returns the newest adjustments of one item first.
func (r *Repo) ListAdjustments(ctx context.Context, materialID int64, limit int) ([]Adjustment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, material_id, kind, delta, stock_after, COALESCE(job_id, 0), reason, actor_id, created_at
		FROM stock_adjustments
		WHERE material_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, materialID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Adjustment
	for rows.Next() {
		var a Adjustment
		if err := rows.Scan(&a.ID, &a.MaterialID, &a.Kind, &a.Delta, &a.StockAfter, &a.JobID, &a.Reason, &a.ActorID, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
