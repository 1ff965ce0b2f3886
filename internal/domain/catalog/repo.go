package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Spok95/pressops/internal/domain/errs"
	"github.com/Spok95/pressops/internal/infra/db"
)

type Repo struct{ q db.DBTX }

func NewRepo(q db.DBTX) *Repo { return &Repo{q: q} }

// EnsureCategory returns the category with this name, creating it when missing.
func (r *Repo) EnsureCategory(ctx context.Context, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.Invalid("category", "must not be empty")
	}
	row := r.q.QueryRow(ctx, `
		INSERT INTO material_categories (name) VALUES ($1)
		ON CONFLICT (name) DO NOTHING
		RETURNING id, name, is_active, created_at
	`, name)
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Active, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// already there
		return r.GetCategoryByName(ctx, name)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repo) GetCategoryByName(ctx context.Context, name string) (*Category, error) {
	row := r.q.QueryRow(ctx, `
		SELECT id, name, is_active, created_at
		FROM material_categories WHERE name = $1
	`, name)
	var c Category
	if err := row.Scan(&c.ID, &c.Name, &c.Active, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NotFound("category", name)
		}
		return nil, err
	}
	return &c, nil
}

func (r *Repo) GetCategoryByID(ctx context.Context, id int64) (*Category, error) {
	row := r.q.QueryRow(ctx, `
		SELECT id, name, is_active, created_at
		FROM material_categories WHERE id=$1
	`, id)
	var c Category
	if err := row.Scan(&c.ID, &c.Name, &c.Active, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NotFound("category", id)
		}
		return nil, err
	}
	return &c, nil
}

func (r *Repo) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, name, is_active, created_at
		FROM material_categories
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Active, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) SetCategoryActive(ctx context.Context, id int64, active bool) (*Category, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE material_categories SET is_active=$2 WHERE id=$1
		RETURNING id, name, is_active, created_at
	`, id, active)
	var c Category
	if err := row.Scan(&c.ID, &c.Name, &c.Active, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NotFound("category", id)
		}
		return nil, err
	}
	return &c, nil
}
