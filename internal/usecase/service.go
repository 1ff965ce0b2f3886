// Package usecase runs every ledger operation as one unit of work: a single
// transaction over the store, followed by notifications once it commits.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Spok95/pressops/internal/domain/audit"
	"github.com/Spok95/pressops/internal/domain/catalog"
	"github.com/Spok95/pressops/internal/domain/customers"
	"github.com/Spok95/pressops/internal/domain/errs"
	"github.com/Spok95/pressops/internal/domain/inventory"
	"github.com/Spok95/pressops/internal/domain/jobs"
	"github.com/Spok95/pressops/internal/domain/materials"
	"github.com/Spok95/pressops/internal/domain/payments"
	"github.com/Spok95/pressops/internal/domain/usage"
	"github.com/Spok95/pressops/internal/domain/users"
	"github.com/Spok95/pressops/internal/domain/waste"
	"github.com/Spok95/pressops/internal/infra/db"
	"github.com/Spok95/pressops/internal/infra/metrics"
	"github.com/Spok95/pressops/internal/infra/notify"
)

var tracer = otel.Tracer("pressops/usecase")

// Store is everything a use case may touch inside its transaction.
type Store interface {
	audit.Store
	jobs.Store

	EnsureCategory(ctx context.Context, name string) (*catalog.Category, error)
	GetCategory(ctx context.Context, id int64) (*catalog.Category, error)
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	SetCategoryActive(ctx context.Context, id int64, active bool) (*catalog.Category, error)
	UpdatePricing(ctx context.Context, id int64, unitCost decimal.Decimal, threshold int64) error
	CreateItem(ctx context.Context, n materials.NewItem) (*materials.Item, error)
	SetItemActive(ctx context.Context, id int64, active bool) error
	ListItems(ctx context.Context, onlyActive bool) ([]materials.Item, error)
	ListAdjustments(ctx context.Context, materialID int64, limit int) ([]inventory.Adjustment, error)

	ListRecords(ctx context.Context, jobID int64) ([]usage.Record, error)
	ListHistory(ctx context.Context, jobID int64) ([]audit.History, error)

	CreateJob(ctx context.Context, j *jobs.Job) error
	GetJob(ctx context.Context, id int64) (*jobs.Job, error)
	GetJobByTicket(ctx context.Context, ticket string) (*jobs.Job, error)
	ListJobs(ctx context.Context, workerID int64, limit int) ([]jobs.Job, error)
	ListPayments(ctx context.Context, jobID int64) ([]payments.Payment, error)

	CreateCustomer(ctx context.Context, name, email, phone string) (*customers.Customer, error)
	GetCustomer(ctx context.Context, id int64) (*customers.Customer, error)

	GetUser(ctx context.Context, id int64) (*users.User, error)
	UpsertUser(ctx context.Context, name, email string, role users.Role) (*users.User, error)

	InsertWaste(ctx context.Context, e *waste.Expense) error
	ListWaste(ctx context.Context, jobID int64) ([]waste.Expense, error)
}

type Transactor interface {
	WithTx(ctx context.Context, fn func(q db.DBTX) error) error
}

type Options struct {
	ReturnStockOnDelete bool
	FuzzyMatch          bool
	MinEditReason       int
}

type Service struct {
	tx       Transactor
	newStore func(q db.DBTX) Store
	notifier notify.Notifier
	metrics  *metrics.Metrics
	log      *slog.Logger

	stock   *inventory.Ledger
	journal *usage.Journal
	auditor *audit.Auditor
	jobs    *jobs.Ledger
}

func New(tx Transactor, newStore func(q db.DBTX) Store, n notify.Notifier, m *metrics.Metrics, log *slog.Logger, opts Options) *Service {
	stock := inventory.NewLedger(log)
	journal := usage.NewJournal(stock, usage.Options{FuzzyMatch: opts.FuzzyMatch})
	return &Service{
		tx:       tx,
		newStore: newStore,
		notifier: n,
		metrics:  m,
		log:      log,
		stock:    stock,
		journal:  journal,
		auditor: audit.NewAuditor(journal, audit.Options{
			ReturnStockOnDelete: opts.ReturnStockOnDelete,
			MinReason:           opts.MinEditReason,
		}),
		jobs: jobs.NewLedger(),
	}
}

// unit collects what a transaction produced so it can be published after
// commit. It is rebuilt on every attempt.
type unit struct {
	st     Store
	moves  []inventory.Movement
	outbox []notify.Notification
}

func (u *unit) moved(mvs ...inventory.Movement) { u.moves = append(u.moves, mvs...) }

func (u *unit) notify(ns ...notify.Notification) { u.outbox = append(u.outbox, ns...) }

// run wraps an operation in a span and records its outcome.
func (s *Service) run(ctx context.Context, op string, c users.Caller, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, "usecase."+op, trace.WithAttributes(
		attribute.Int64("caller.id", c.UserID),
		attribute.String("caller.role", string(c.Role)),
	))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	if s.metrics != nil {
		s.metrics.Operations.WithLabelValues(op, metrics.Outcome(err)).Inc()
		s.metrics.OpLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// inTx runs fn in one transaction and publishes its outcome after commit.
func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context, u *unit) error) error {
	var u *unit
	err := s.tx.WithTx(ctx, func(q db.DBTX) error {
		u = &unit{st: s.newStore(q)}
		return fn(ctx, u)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, u)
	return nil
}

// read runs fn in a transaction that produces nothing to publish.
func (s *Service) read(ctx context.Context, fn func(ctx context.Context, st Store) error) error {
	return s.tx.WithTx(ctx, func(q db.DBTX) error {
		return fn(ctx, s.newStore(q))
	})
}

func (s *Service) publish(ctx context.Context, u *unit) {
	out := u.outbox
	for _, mv := range u.moves {
		s.countMovement(mv)
		if n, ok := stockNotification(mv); ok {
			out = append(out, n)
		}
	}
	if len(out) > 0 && s.notifier != nil {
		s.notifier.Dispatch(ctx, out...)
	}
}

func (s *Service) countMovement(mv inventory.Movement) {
	if s.metrics == nil {
		return
	}
	switch {
	case mv.StockAfter > mv.StockBefore:
		s.metrics.StockMoved.WithLabelValues("in").Add(float64(mv.StockAfter - mv.StockBefore))
	case mv.StockAfter < mv.StockBefore:
		s.metrics.StockMoved.WithLabelValues("out").Add(float64(mv.StockBefore - mv.StockAfter))
	}
	if mv.Short() {
		s.metrics.Shortages.WithLabelValues(mv.MaterialName).Inc()
	}
}

func requireCaller(c users.Caller) error {
	if !c.Valid() {
		return errs.Denied("caller identity is required")
	}
	return nil
}

func requireAdmin(c users.Caller) error {
	if err := requireCaller(c); err != nil {
		return err
	}
	if !c.IsAdmin() {
		return errs.Denied("user %d is not an admin", c.UserID)
	}
	return nil
}
