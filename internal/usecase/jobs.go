package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/pressops/internal/domain/alerts"
	"github.com/Spok95/pressops/internal/domain/audit"
	"github.com/Spok95/pressops/internal/domain/customers"
	"github.com/Spok95/pressops/internal/domain/errs"
	"github.com/Spok95/pressops/internal/domain/inventory"
	"github.com/Spok95/pressops/internal/domain/jobs"
	"github.com/Spok95/pressops/internal/domain/payments"
	"github.com/Spok95/pressops/internal/domain/usage"
	"github.com/Spok95/pressops/internal/domain/users"
	"github.com/Spok95/pressops/internal/domain/waste"
)

func (s *Service) CreateCustomer(ctx context.Context, c users.Caller, cmd CreateCustomer) (*customers.Customer, error) {
	var out *customers.Customer
	err := s.run(ctx, "create_customer", c, func(ctx context.Context) error {
		if err := requireCaller(c); err != nil {
			return err
		}
		if err := check(cmd); err != nil {
			return err
		}
		return s.inTx(ctx, func(ctx context.Context, u *unit) error {
			cu, err := u.st.CreateCustomer(ctx, cmd.Name, cmd.Email, cmd.Phone)
			out = cu
			return err
		})
	})
	return out, err
}

func (s *Service) CreateJob(ctx context.Context, c users.Caller, cmd CreateJob) (*jobs.Job, error) {
	var out *jobs.Job
	err := s.run(ctx, "create_job", c, func(ctx context.Context) error {
		if err := requireCaller(c); err != nil {
			return err
		}
		if err := check(cmd); err != nil {
			return err
		}
		if cmd.TotalCost.IsNegative() {
			return errs.Invalid("total_cost", "must be >= 0")
		}
		worker := cmd.WorkerID
		if worker == 0 {
			worker = c.UserID
		}
		if !c.IsAdmin() && worker != c.UserID {
			return errs.Denied("user %d may only create own jobs", c.UserID)
		}

		return s.inTx(ctx, func(ctx context.Context, u *unit) error {
			if _, err := u.st.GetCustomer(ctx, cmd.CustomerID); err != nil {
				return err
			}
			j := &jobs.Job{
				Ticket:        jobs.NewTicket(time.Now()),
				CustomerID:    cmd.CustomerID,
				WorkerID:      worker,
				Description:   cmd.Description,
				TotalCost:     cmd.TotalCost,
				Balance:       cmd.TotalCost,
				PaymentStatus: alerts.DerivePaymentStatus(cmd.TotalCost, decimal.Zero),
				Status:        jobs.StatusNotStarted,
			}
			if err := u.st.CreateJob(ctx, j); err != nil {
				return err
			}
			out = j
			return nil
		})
	})
	if err == nil {
		s.log.Info("job created", "ticket", out.Ticket, "job_id", out.ID, "worker_id", out.WorkerID, "by", c.UserID)
	}
	return out, err
}

// Job returns one job. Workers only see their own.
func (s *Service) Job(ctx context.Context, c users.Caller, id int64) (*jobs.Job, error) {
	var out *jobs.Job
	err := s.run(ctx, "get_job", c, func(ctx context.Context) error {
		if err := requireCaller(c); err != nil {
			return err
		}
		return s.read(ctx, func(ctx context.Context, st Store) error {
			j, err := st.GetJob(ctx, id)
			if err != nil {
				return err
			}
			if err := jobs.CheckAccess(c, j); err != nil {
				return err
			}
			out = j
			return nil
		})
	})
	return out, err
}

// JobByTicket looks a job up by the id printed on the job sheet.
func (s *Service) JobByTicket(ctx context.Context, c users.Caller, ticket string) (*jobs.Job, error) {
	var out *jobs.Job
	err := s.run(ctx, "get_job_by_ticket", c, func(ctx context.Context) error {
		if err := requireCaller(c); err != nil {
			return err
		}
		ticket = strings.ToUpper(strings.TrimSpace(ticket))
		if !jobs.ValidTicket(ticket) {
			return errs.Invalid("ticket", "must look like PRESS-<millis>-<4 chars>")
		}
		return s.read(ctx, func(ctx context.Context, st Store) error {
			j, err := st.GetJobByTicket(ctx, ticket)
			if err != nil {
				return err
			}
			if err := jobs.CheckAccess(c, j); err != nil {
				return err
			}
			out = j
			return nil
		})
	})
	return out, err
}

// ListJobs lists the newest jobs first. Workers get only theirs.
func (s *Service) ListJobs(ctx context.Context, c users.Caller, limit int) ([]jobs.Job, error) {
	var out []jobs.Job
	err := s.run(ctx, "list_jobs", c, func(ctx context.Context) error {
		if err := requireCaller(c); err != nil {
			return err
		}
		worker := c.UserID
		if c.IsAdmin() {
			worker = 0
		}
		return s.read(ctx, func(ctx context.Context, st Store) (err error) {
			out, err = st.ListJobs(ctx, worker, limit)
			return err
		})
	})
	return out, err
}

type Transition struct {
	Job       *jobs.Job
	From      jobs.Status
	Records   []usage.Record
	Expenses  []waste.Expense
	Movements []inventory.Movement
}

// TransitionJob moves the job and books the attached materials and
// expenses in the same transaction.
func (s *Service) TransitionJob(ctx context.Context, c users.Caller, cmd TransitionJob) (*Transition, error) {
	var out *Transition
	err := s.run(ctx, "transition_job", c, func(ctx context.Context) error {
		if err := requireCaller(c); err != nil {
			return err
		}
		if err := check(cmd); err != nil {
			return err
		}
		if err := checkLines("materials", cmd.Materials); err != nil {
			return err
		}
		expenses := make([]waste.Expense, 0, len(cmd.Expenses))
		for _, l := range cmd.Expenses {
			e := l.expense(cmd.JobID, c.UserID)
			if err := e.Normalize(); err != nil {
				return err
			}
			expenses = append(expenses, e)
		}

		return s.inTx(ctx, func(ctx context.Context, u *unit) error {
			from, j, err := s.jobs.Transition(ctx, u.st, c, cmd.JobID, cmd.Status)
			if err != nil {
				return err
			}
			res := &Transition{Job: j, From: from}
			if err := s.record(ctx, u, c, j.ID, cmd.Materials, &res.Records, &res.Movements); err != nil {
				return err
			}
			for i := range expenses {
				if err := u.st.InsertWaste(ctx, &expenses[i]); err != nil {
					return err
				}
			}
			res.Expenses = expenses
			u.notify(statusNotification(j, from))
			out = res
			return nil
		})
	})
	if err == nil {
		s.log.Info("job status changed", "ticket", out.Job.Ticket, "from", out.From, "to", out.Job.Status,
			"materials", len(out.Records), "expenses", len(out.Expenses), "by", c.UserID)
	}
	return out, err
}

func (s *Service) record(ctx context.Context, u *unit, c users.Caller, jobID int64, lines []MaterialLine, recs *[]usage.Record, mvs *[]inventory.Movement) error {
	for _, l := range lines {
		rec, mv, err := s.journal.Record(ctx, u.st, jobID, c.UserID, l.entry())
		if err != nil {
			return err
		}
		*recs = append(*recs, rec)
		if mv != nil {
			*mvs = append(*mvs, *mv)
			u.moved(*mv)
		}
	}
	return nil
}

type Recorded struct {
	Records   []usage.Record
	Movements []inventory.Movement
}

// RecordMaterials appends material lines to a job.
func (s *Service) RecordMaterials(ctx context.Context, c users.Caller, cmd RecordMaterials) (*Recorded, error) {
	var out Recorded
	err := s.run(ctx, "record_materials", c, func(ctx context.Context) error {
		if err := requireCaller(c); err != nil {
			return err
		}
		if err := check(cmd); err != nil {
			return err
		}
		if err := checkLines("materials", cmd.Materials); err != nil {
			return err
		}
		return s.inTx(ctx, func(ctx context.Context, u *unit) error {
			out = Recorded{}
			j, err := u.st.LockJob(ctx, cmd.JobID)
			if err != nil {
				return err
			}
			if err := jobs.CheckAccess(c, j); err != nil {
				return err
			}
			return s.record(ctx, u, c, j.ID, cmd.Materials, &out.Records, &out.Movements)
		})
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateJobMaterials applies a corrected set of material lines. The
// reason and lines are checked before any row is locked.
func (s *Service) UpdateJobMaterials(ctx context.Context, c users.Caller, cmd UpdateMaterials) (audit.Result, error) {
	var out audit.Result
	err := s.run(ctx, "update_job_materials", c, func(ctx context.Context) error {
		if err := requireCaller(c); err != nil {
			return err
		}
		if err := check(cmd); err != nil {
			return err
		}
		req := cmd.request()
		if err := s.auditor.Validate(req); err != nil {
			return err
		}

		return s.inTx(ctx, func(ctx context.Context, u *unit) error {
			j, err := u.st.LockJob(ctx, cmd.JobID)
			if err != nil {
				return err
			}
			if err := jobs.CheckAccess(c, j); err != nil {
				return err
			}
			res, err := s.auditor.Apply(ctx, u.st, c.UserID, req)
			if err != nil {
				return err
			}
			u.moved(res.Movements...)
			out = res
			return nil
		})
	})
	if err == nil {
		s.log.Info("job materials edited", "job_id", cmd.JobID, "added", out.Added, "modified", out.Modified,
			"deleted", out.Deleted, "unchanged", out.Unchanged, "by", c.UserID)
	}
	return out, err
}

func (s *Service) RecordPayment(ctx context.Context, c users.Caller, cmd RecordPayment) (*payments.Payment, *jobs.Job, error) {
	var (
		p *payments.Payment
		j *jobs.Job
	)
	err := s.run(ctx, "record_payment", c, func(ctx context.Context) error {
		if err := requireCaller(c); err != nil {
			return err
		}
		if err := check(cmd); err != nil {
			return err
		}
		in := jobs.PaymentInput{
			JobID:  cmd.JobID,
			Amount: cmd.Amount,
			Type:   cmd.Type,
			Method: cmd.Method,
		}
		if err := in.Validate(); err != nil {
			return err
		}
		return s.inTx(ctx, func(ctx context.Context, u *unit) (err error) {
			p, j, err = s.jobs.RecordPayment(ctx, u.st, c, in)
			if err != nil {
				return err
			}
			u.notify(paymentNotification(j, p))
			return nil
		})
	})
	if err != nil {
		return nil, nil, err
	}
	if s.metrics != nil {
		s.metrics.Payments.Inc()
		s.metrics.PaymentAmount.Add(p.Amount.InexactFloat64())
	}
	s.log.Info("payment recorded", "ticket", j.Ticket, "receipt", p.Receipt, "amount", money(p.Amount),
		"balance", money(j.Balance), "status", j.PaymentStatus, "by", c.UserID)
	return p, j, nil
}

func (s *Service) EditTotalCost(ctx context.Context, c users.Caller, cmd EditTotalCost) (*jobs.Job, error) {
	var out *jobs.Job
	err := s.run(ctx, "edit_total_cost", c, func(ctx context.Context) error {
		if err := requireCaller(c); err != nil {
			return err
		}
		if err := check(cmd); err != nil {
			return err
		}
		return s.inTx(ctx, func(ctx context.Context, u *unit) (err error) {
			out, err = s.jobs.EditTotalCost(ctx, u.st, c, cmd.JobID, cmd.TotalCost)
			return err
		})
	})
	if err == nil {
		s.log.Info("job repriced", "ticket", out.Ticket, "total", money(out.TotalCost), "balance", money(out.Balance), "by", c.UserID)
	}
	return out, err
}

func (s *Service) RecomputeBalance(ctx context.Context, c users.Caller, jobID int64) (*jobs.Job, error) {
	var out *jobs.Job
	err := s.run(ctx, "recompute_balance", c, func(ctx context.Context) error {
		if err := requireCaller(c); err != nil {
			return err
		}
		return s.inTx(ctx, func(ctx context.Context, u *unit) error {
			j, err := s.jobs.RecomputeBalance(ctx, u.st, jobID)
			if err != nil {
				return err
			}
			if err := jobs.CheckAccess(c, j); err != nil {
				return err
			}
			out = j
			return nil
		})
	})
	return out, err
}

type JobHistory struct {
	Job      *jobs.Job
	Records  []usage.Record
	History  []audit.History
	Payments []payments.Payment
	Expenses []waste.Expense
}

func (s *Service) JobHistory(ctx context.Context, c users.Caller, jobID int64) (*JobHistory, error) {
	var out JobHistory
	err := s.run(ctx, "job_history", c, func(ctx context.Context) error {
		if err := requireCaller(c); err != nil {
			return err
		}
		return s.read(ctx, func(ctx context.Context, st Store) (err error) {
			if out.Job, err = st.GetJob(ctx, jobID); err != nil {
				return err
			}
			if err = jobs.CheckAccess(c, out.Job); err != nil {
				return err
			}
			if out.Records, err = st.ListRecords(ctx, jobID); err != nil {
				return err
			}
			if out.History, err = st.ListHistory(ctx, jobID); err != nil {
				return err
			}
			if out.Payments, err = st.ListPayments(ctx, jobID); err != nil {
				return err
			}
			out.Expenses, err = st.ListWaste(ctx, jobID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
