package materials

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Spok95/pressops/internal/domain/errs"
	"github.com/Spok95/pressops/internal/domain/units"
	"github.com/Spok95/pressops/internal/infra/db"
)

type Repo struct{ q db.DBTX }

func NewRepo(q db.DBTX) *Repo { return &Repo{q: q} }

const itemColumns = `
	i.id, i.name, COALESCE(i.category_id, 0), COALESCE(c.name, ''),
	i.paper_size, i.paper_type, i.grammage, i.unit_label, i.sheets_per_unit,
	i.current_stock_sheets, i.threshold_sheets, i.unit_cost, i.is_active,
	i.created_at, i.updated_at
`

const itemFrom = `
	FROM inventory_items i
	LEFT JOIN material_categories c ON c.id = i.category_id
`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	if err := row.Scan(
		&it.ID,
		&it.Name,
		&it.CategoryID,
		&it.Category,
		&it.PaperSize,
		&it.PaperType,
		&it.Grammage,
		&it.UnitLabel,
		&it.SheetsPerUnit,
		&it.CurrentStock,
		&it.Threshold,
		&it.UnitCost,
		&it.Active,
		&it.CreatedAt,
		&it.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &it, nil
}

func nullID(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}

// Create inserts an item with zero stock. Opening stock goes through the
// stock ledger so it leaves an adjustment behind.
func (r *Repo) Create(ctx context.Context, n NewItem) (*Item, error) {
	name := strings.TrimSpace(n.Name)
	if name == "" {
		return nil, errs.Invalid("name", "must not be empty")
	}
	if n.SheetsPerUnit <= 0 {
		n.SheetsPerUnit = units.DefaultSheetsPerUnit
	}
	if n.UnitLabel == "" {
		n.UnitLabel = "ream"
	}
	if n.Threshold < 0 {
		return nil, errs.Invalid("threshold_sheets", "must be >= 0")
	}
	if n.UnitCost.IsNegative() {
		return nil, errs.Invalid("unit_cost", "must be >= 0")
	}

	var id int64
	if err := r.q.QueryRow(ctx, `
		INSERT INTO inventory_items
			(name, category_id, paper_size, paper_type, grammage, unit_label,
			 sheets_per_unit, threshold_sheets, unit_cost)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id
	`, name, nullID(n.CategoryID), n.PaperSize, n.PaperType, n.Grammage, n.UnitLabel,
		n.SheetsPerUnit, n.Threshold, n.UnitCost).Scan(&id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Item, error) {
	it, err := scanItem(r.q.QueryRow(ctx, `SELECT `+itemColumns+itemFrom+` WHERE i.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("inventory item", id)
	}
	return it, err
}

// LockByID reads the item under a row lock held until the owning tx ends.
func (r *Repo) LockByID(ctx context.Context, id int64) (*Item, error) {
	it, err := scanItem(r.q.QueryRow(ctx, `SELECT `+itemColumns+itemFrom+` WHERE i.id = $1 FOR UPDATE OF i`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("inventory item", id)
	}
	return it, err
}

// FindActiveByName returns the first active item whose name contains q,
// case-insensitively, or nil when nothing matches.
func (r *Repo) FindActiveByName(ctx context.Context, q string) (*Item, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	it, err := scanItem(r.q.QueryRow(ctx, `SELECT `+itemColumns+itemFrom+`
		WHERE i.is_active AND i.name ILIKE '%' || $1 || '%'
		ORDER BY i.id
		LIMIT 1
	`, q))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return it, err
}

func (r *Repo) List(ctx context.Context, onlyActive bool) ([]Item, error) {
	q := `SELECT ` + itemColumns + itemFrom
	if onlyActive {
		q += " WHERE i.is_active"
	}
	q += " ORDER BY c.name NULLS LAST, i.name"

	rows, err := r.q.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

// SetActive is the only way items leave the catalogue; rows are never deleted.
func (r *Repo) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE inventory_items SET is_active=$2, updated_at=now() WHERE id=$1
	`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("inventory item", id)
	}
	return nil
}

func (r *Repo) UpdatePricing(ctx context.Context, id int64, unitCost decimal.Decimal, threshold int64) error {
	if unitCost.IsNegative() {
		return errs.Invalid("unit_cost", "must be >= 0")
	}
	if threshold < 0 {
		return errs.Invalid("threshold_sheets", "must be >= 0")
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE inventory_items SET unit_cost=$2, threshold_sheets=$3, updated_at=now() WHERE id=$1
	`, id, unitCost, threshold)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("inventory item", id)
	}
	return nil
}
