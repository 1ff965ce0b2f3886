package jobs

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/pressops/internal/domain/alerts"
	"github.com/Spok95/pressops/internal/domain/errs"
	"github.com/Spok95/pressops/internal/domain/users"
)

type Job struct {
	ID            int64
	Ticket        string
	CustomerID    int64
	WorkerID      int64
	Description   string
	TotalCost     decimal.Decimal
	Balance       decimal.Decimal
	PaymentStatus alerts.PaymentStatus
	Status        Status
	CompletedAt   *time.Time
	DeliveredAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AmountPaid is derived; balance is the stored figure.
func (j Job) AmountPaid() decimal.Decimal { return j.TotalCost.Sub(j.Balance) }

// CheckAccess lets admins touch any job and workers only their own.
func CheckAccess(c users.Caller, j *Job) error {
	if c.IsAdmin() {
		return nil
	}
	if c.Role == users.RoleWorker && j.WorkerID == c.UserID {
		return nil
	}
	return errs.Denied("user %d may not modify job %s", c.UserID, j.Ticket)
}
