package customers

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Spok95/pressops/internal/domain/errs"
	"github.com/Spok95/pressops/internal/infra/db"
)

type Repo struct{ q db.DBTX }

func NewRepo(q db.DBTX) *Repo { return &Repo{q: q} }

func (r *Repo) Create(ctx context.Context, name, email, phone string) (*Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.Invalid("name", "must not be empty")
	}
	row := r.q.QueryRow(ctx, `
		INSERT INTO customers (name, email, phone)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''))
		RETURNING id, name, COALESCE(email, ''), COALESCE(phone, ''), total_paid, created_at, updated_at
	`, name, strings.TrimSpace(email), strings.TrimSpace(phone))
	var c Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.TotalPaid, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Customer, error) {
	row := r.q.QueryRow(ctx, `
		SELECT id, name, COALESCE(email, ''), COALESCE(phone, ''), total_paid, created_at, updated_at
		FROM customers WHERE id = $1
	`, id)
	var c Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.TotalPaid, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NotFound("customer", id)
		}
		return nil, err
	}
	return &c, nil
}

// AddPaid bumps the customer's lifetime total.
func (r *Repo) AddPaid(ctx context.Context, id int64, amount decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE customers SET total_paid = total_paid + $2, updated_at = now() WHERE id = $1
	`, id, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("customer", id)
	}
	return nil
}
