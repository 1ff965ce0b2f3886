package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/pressops/internal/domain/alerts"
	"github.com/Spok95/pressops/internal/domain/errs"
	"github.com/Spok95/pressops/internal/domain/payments"
	"github.com/Spok95/pressops/internal/domain/users"
)

// Store runs inside the caller's transaction.
type Store interface {
	LockJob(ctx context.Context, id int64) (*Job, error)
	SumPayments(ctx context.Context, jobID int64) (decimal.Decimal, error)
	UpdateMoney(ctx context.Context, j *Job) error
	UpdateStatus(ctx context.Context, j *Job) error
	InsertPayment(ctx context.Context, p *payments.Payment) error
	AddCustomerPaid(ctx context.Context, customerID int64, amount decimal.Decimal) error
}

// Ledger is the only writer of a job's balance and payment status.
type Ledger struct {
	now func() time.Time
}

func NewLedger() *Ledger { return &Ledger{now: time.Now} }

// RecomputeBalance derives balance and payment status from the recorded
// payments. Running it twice changes nothing.
func (l *Ledger) RecomputeBalance(ctx context.Context, st Store, jobID int64) (*Job, error) {
	j, err := st.LockJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return j, l.recompute(ctx, st, j)
}

func (l *Ledger) recompute(ctx context.Context, st Store, j *Job) error {
	paid, err := st.SumPayments(ctx, j.ID)
	if err != nil {
		return fmt.Errorf("sum payments of %s: %w", j.Ticket, err)
	}
	j.Balance = j.TotalCost.Sub(paid)
	j.PaymentStatus = alerts.DerivePaymentStatus(j.Balance, paid)
	return st.UpdateMoney(ctx, j)
}

type PaymentInput struct {
	JobID  int64
	Amount decimal.Decimal
	Type   payments.Type
	Method string
}

func (in PaymentInput) Validate() error {
	fields := map[string]string{}
	if in.JobID <= 0 {
		fields["job_id"] = "is required"
	}
	if !in.Amount.IsPositive() {
		fields["amount"] = "must be > 0"
	}
	if !in.Type.Valid() {
		fields["type"] = "must be deposit, installment, full_payment or balance"
	}
	if len(fields) > 0 {
		return &errs.ValidationError{Fields: fields}
	}
	return nil
}

// RecordPayment books a payment against the outstanding balance. The
// balance is recomputed under the job lock first, so two concurrent
// payments cannot both pass the overpayment check.
func (l *Ledger) RecordPayment(ctx context.Context, st Store, c users.Caller, in PaymentInput) (*payments.Payment, *Job, error) {
	if err := in.Validate(); err != nil {
		return nil, nil, err
	}
	j, err := st.LockJob(ctx, in.JobID)
	if err != nil {
		return nil, nil, err
	}
	if err := CheckAccess(c, j); err != nil {
		return nil, nil, err
	}
	if err := l.recompute(ctx, st, j); err != nil {
		return nil, nil, err
	}
	if !j.Balance.IsPositive() {
		return nil, nil, errs.Invalid("amount", fmt.Sprintf("job %s is already fully paid", j.Ticket))
	}
	if in.Amount.GreaterThan(j.Balance) {
		return nil, nil, errs.Invalid("amount", fmt.Sprintf("exceeds outstanding balance %s", j.Balance.StringFixed(2)))
	}

	method := strings.TrimSpace(in.Method)
	if method == "" {
		method = "cash"
	}
	p := &payments.Payment{
		JobID:      j.ID,
		Amount:     in.Amount,
		Type:       in.Type,
		Method:     method,
		Receipt:    NewReceipt(l.now()),
		RecordedBy: c.UserID,
	}
	if err := st.InsertPayment(ctx, p); err != nil {
		return nil, nil, err
	}
	if err := l.recompute(ctx, st, j); err != nil {
		return nil, nil, err
	}
	if err := st.AddCustomerPaid(ctx, j.CustomerID, in.Amount); err != nil {
		return nil, nil, err
	}
	return p, j, nil
}

// EditTotalCost reprices a job keeping what has already been paid.
func (l *Ledger) EditTotalCost(ctx context.Context, st Store, c users.Caller, jobID int64, total decimal.Decimal) (*Job, error) {
	if total.IsNegative() {
		return nil, errs.Invalid("total_cost", "must be >= 0")
	}
	j, err := st.LockJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := CheckAccess(c, j); err != nil {
		return nil, err
	}
	paid := j.AmountPaid()
	j.TotalCost = total
	j.Balance = total.Sub(paid)
	j.PaymentStatus = alerts.DerivePaymentStatus(j.Balance, paid)
	if err := st.UpdateMoney(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

// Transition moves the job forward. It returns the status it left.
func (l *Ledger) Transition(ctx context.Context, st Store, c users.Caller, jobID int64, to Status) (Status, *Job, error) {
	j, err := st.LockJob(ctx, jobID)
	if err != nil {
		return "", nil, err
	}
	if err := CheckAccess(c, j); err != nil {
		return "", nil, err
	}
	from := j.Status
	if err := CanTransition(from, to); err != nil {
		return "", nil, err
	}

	now := l.now()
	j.Status = to
	if to == StatusCompleted || to == StatusDelivered {
		if j.CompletedAt == nil {
			j.CompletedAt = &now
		}
	}
	if to == StatusDelivered {
		j.DeliveredAt = &now
	}
	if err := st.UpdateStatus(ctx, j); err != nil {
		return "", nil, err
	}
	return from, j, nil
}
