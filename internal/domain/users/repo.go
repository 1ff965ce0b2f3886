package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/Spok95/pressops/internal/domain/errs"
	"github.com/Spok95/pressops/internal/infra/db"
)

type Repo struct {
	q db.DBTX
}

func NewRepo(q db.DBTX) *Repo { return &Repo{q: q} }

func (r *Repo) GetByID(ctx context.Context, id int64) (*User, error) {
	row := r.q.QueryRow(ctx, `
		SELECT id, name, COALESCE(email, ''), role, is_active, created_at, updated_at
		FROM users WHERE id = $1
	`, id)

	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NotFound("user", id)
		}
		return nil, err
	}
	return &u, nil
}

// Upsert keys on email and never demotes an existing admin.
func (r *Repo) Upsert(ctx context.Context, name, email string, role Role) (*User, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO users (name, email, role)
		VALUES ($1, NULLIF($2, ''), $3)
		ON CONFLICT (email)
		DO UPDATE SET
			name       = EXCLUDED.name,
			role       = CASE WHEN users.role = 'admin' THEN users.role ELSE EXCLUDED.role END,
			updated_at = now()
		RETURNING id, name, COALESCE(email, ''), role, is_active, created_at, updated_at
	`, name, email, role)

	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
