package jobs

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Spok95/pressops/internal/domain/customers"
	"github.com/Spok95/pressops/internal/domain/errs"
	"github.com/Spok95/pressops/internal/domain/payments"
	"github.com/Spok95/pressops/internal/infra/db"
)

type Repo struct {
	q         db.DBTX
	payments  *payments.Repo
	customers *customers.Repo
}

func NewRepo(q db.DBTX) *Repo {
	return &Repo{q: q, payments: payments.NewRepo(q), customers: customers.NewRepo(q)}
}

const jobColumns = `
	id, ticket, customer_id, worker_id, description, total_cost, balance,
	payment_status, status, completed_at, delivered_at, created_at, updated_at
`

func scanJob(row pgx.Row) (*Job, error) {
	var j Job
	if err := row.Scan(
		&j.ID, &j.Ticket, &j.CustomerID, &j.WorkerID, &j.Description, &j.TotalCost, &j.Balance,
		&j.PaymentStatus, &j.Status, &j.CompletedAt, &j.DeliveredAt, &j.CreatedAt, &j.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *Repo) Create(ctx context.Context, j *Job) error {
	return r.q.QueryRow(ctx, `
		INSERT INTO jobs (ticket, customer_id, worker_id, description, total_cost, balance, payment_status, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at, updated_at
	`, j.Ticket, j.CustomerID, j.WorkerID, j.Description, j.TotalCost, j.Balance,
		string(j.PaymentStatus), string(j.Status),
	).Scan(&j.ID, &j.CreatedAt, &j.UpdatedAt)
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Job, error) {
	j, err := scanJob(r.q.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("job", id)
	}
	return j, err
}

func (r *Repo) GetByTicket(ctx context.Context, ticket string) (*Job, error) {
	j, err := scanJob(r.q.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE ticket = $1`, ticket))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("job", ticket)
	}
	return j, err
}

func (r *Repo) LockJob(ctx context.Context, id int64) (*Job, error) {
	j, err := scanJob(r.q.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("job", id)
	}
	return j, err
}

func (r *Repo) UpdateMoney(ctx context.Context, j *Job) error {
	return r.q.QueryRow(ctx, `
		UPDATE jobs SET total_cost = $2, balance = $3, payment_status = $4, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, j.ID, j.TotalCost, j.Balance, string(j.PaymentStatus)).Scan(&j.UpdatedAt)
}

func (r *Repo) UpdateStatus(ctx context.Context, j *Job) error {
	return r.q.QueryRow(ctx, `
		UPDATE jobs SET status = $2, completed_at = $3, delivered_at = $4, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, j.ID, string(j.Status), j.CompletedAt, j.DeliveredAt).Scan(&j.UpdatedAt)
}

func (r *Repo) SumPayments(ctx context.Context, jobID int64) (decimal.Decimal, error) {
	return r.payments.SumByJob(ctx, jobID)
}

func (r *Repo) InsertPayment(ctx context.Context, p *payments.Payment) error {
	return r.payments.Insert(ctx, p)
}

func (r *Repo) AddCustomerPaid(ctx context.Context, customerID int64, amount decimal.Decimal) error {
	return r.customers.AddPaid(ctx, customerID, amount)
}

// ListByWorker returns a worker's jobs, newest first. workerID 0 lists all.
func (r *Repo) ListByWorker(ctx context.Context, workerID int64, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.q.Query(ctx, `SELECT `+jobColumns+` FROM jobs
		WHERE $1::bigint = 0 OR worker_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, workerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}
