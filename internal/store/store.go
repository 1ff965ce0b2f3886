// Package store binds every repository to one query handle so a use case
// sees a single transactional view of the database.
package store

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Spok95/pressops/internal/domain/audit"
	"github.com/Spok95/pressops/internal/domain/catalog"
	"github.com/Spok95/pressops/internal/domain/customers"
	"github.com/Spok95/pressops/internal/domain/inventory"
	"github.com/Spok95/pressops/internal/domain/jobs"
	"github.com/Spok95/pressops/internal/domain/materials"
	"github.com/Spok95/pressops/internal/domain/payments"
	"github.com/Spok95/pressops/internal/domain/usage"
	"github.com/Spok95/pressops/internal/domain/users"
	"github.com/Spok95/pressops/internal/domain/waste"
	"github.com/Spok95/pressops/internal/infra/db"
)

type Postgres struct {
	catalog   *catalog.Repo
	items     *materials.Repo
	stock     *inventory.Repo
	usage     *usage.Repo
	history   *audit.Repo
	jobs      *jobs.Repo
	payments  *payments.Repo
	customers *customers.Repo
	waste     *waste.Repo
	users     *users.Repo
}

func New(q db.DBTX) *Postgres {
	return &Postgres{
		catalog:   catalog.NewRepo(q),
		items:     materials.NewRepo(q),
		stock:     inventory.NewRepo(q),
		usage:     usage.NewRepo(q),
		history:   audit.NewRepo(q),
		jobs:      jobs.NewRepo(q),
		payments:  payments.NewRepo(q),
		customers: customers.NewRepo(q),
		waste:     waste.NewRepo(q),
		users:     users.NewRepo(q),
	}
}

/* inventory */

func (s *Postgres) LockItem(ctx context.Context, id int64) (*materials.Item, error) {
	return s.stock.LockItem(ctx, id)
}

func (s *Postgres) UpdateStock(ctx context.Context, id, stock int64) error {
	return s.stock.UpdateStock(ctx, id, stock)
}

func (s *Postgres) InsertAdjustment(ctx context.Context, a inventory.Adjustment) error {
	return s.stock.InsertAdjustment(ctx, a)
}

func (s *Postgres) ListAdjustments(ctx context.Context, materialID int64, limit int) ([]inventory.Adjustment, error) {
	return s.stock.ListAdjustments(ctx, materialID, limit)
}

func (s *Postgres) GetItem(ctx context.Context, id int64) (*materials.Item, error) {
	return s.items.GetByID(ctx, id)
}

func (s *Postgres) FindActiveItemByName(ctx context.Context, name string) (*materials.Item, error) {
	return s.items.FindActiveByName(ctx, name)
}

func (s *Postgres) EnsureCategory(ctx context.Context, name string) (*catalog.Category, error) {
	return s.catalog.EnsureCategory(ctx, name)
}

func (s *Postgres) GetCategory(ctx context.Context, id int64) (*catalog.Category, error) {
	return s.catalog.GetCategoryByID(ctx, id)
}

func (s *Postgres) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	return s.catalog.ListCategories(ctx)
}

func (s *Postgres) SetCategoryActive(ctx context.Context, id int64, active bool) (*catalog.Category, error) {
	return s.catalog.SetCategoryActive(ctx, id, active)
}

func (s *Postgres) UpdatePricing(ctx context.Context, id int64, unitCost decimal.Decimal, threshold int64) error {
	return s.items.UpdatePricing(ctx, id, unitCost, threshold)
}

func (s *Postgres) CreateItem(ctx context.Context, n materials.NewItem) (*materials.Item, error) {
	return s.items.Create(ctx, n)
}

func (s *Postgres) SetItemActive(ctx context.Context, id int64, active bool) error {
	return s.items.SetActive(ctx, id, active)
}

func (s *Postgres) ListItems(ctx context.Context, onlyActive bool) ([]materials.Item, error) {
	return s.items.List(ctx, onlyActive)
}

/* usage and audit */

func (s *Postgres) InsertRecord(ctx context.Context, r *usage.Record) error {
	return s.usage.Insert(ctx, r)
}

func (s *Postgres) LockRecords(ctx context.Context, jobID int64) ([]usage.Record, error) {
	return s.usage.LockByJob(ctx, jobID)
}

func (s *Postgres) UpdateRecord(ctx context.Context, r usage.Record) error {
	return s.usage.Update(ctx, r)
}

func (s *Postgres) DeleteRecord(ctx context.Context, id int64) error {
	return s.usage.Delete(ctx, id)
}

func (s *Postgres) ListRecords(ctx context.Context, jobID int64) ([]usage.Record, error) {
	return s.usage.ListByJob(ctx, jobID)
}

func (s *Postgres) InsertHistory(ctx context.Context, h *audit.History) error {
	return s.history.Insert(ctx, h)
}

func (s *Postgres) ListHistory(ctx context.Context, jobID int64) ([]audit.History, error) {
	return s.history.ListByJob(ctx, jobID)
}

/* jobs and money */

func (s *Postgres) CreateJob(ctx context.Context, j *jobs.Job) error { return s.jobs.Create(ctx, j) }

func (s *Postgres) GetJob(ctx context.Context, id int64) (*jobs.Job, error) {
	return s.jobs.GetByID(ctx, id)
}

func (s *Postgres) GetJobByTicket(ctx context.Context, ticket string) (*jobs.Job, error) {
	return s.jobs.GetByTicket(ctx, ticket)
}

func (s *Postgres) LockJob(ctx context.Context, id int64) (*jobs.Job, error) {
	return s.jobs.LockJob(ctx, id)
}

func (s *Postgres) ListJobs(ctx context.Context, workerID int64, limit int) ([]jobs.Job, error) {
	return s.jobs.ListByWorker(ctx, workerID, limit)
}

func (s *Postgres) UpdateMoney(ctx context.Context, j *jobs.Job) error {
	return s.jobs.UpdateMoney(ctx, j)
}

func (s *Postgres) UpdateStatus(ctx context.Context, j *jobs.Job) error {
	return s.jobs.UpdateStatus(ctx, j)
}

func (s *Postgres) SumPayments(ctx context.Context, jobID int64) (decimal.Decimal, error) {
	return s.jobs.SumPayments(ctx, jobID)
}

func (s *Postgres) InsertPayment(ctx context.Context, p *payments.Payment) error {
	return s.jobs.InsertPayment(ctx, p)
}

func (s *Postgres) ListPayments(ctx context.Context, jobID int64) ([]payments.Payment, error) {
	return s.payments.ListByJob(ctx, jobID)
}

func (s *Postgres) CreateCustomer(ctx context.Context, name, email, phone string) (*customers.Customer, error) {
	return s.customers.Create(ctx, name, email, phone)
}

func (s *Postgres) GetCustomer(ctx context.Context, id int64) (*customers.Customer, error) {
	return s.customers.GetByID(ctx, id)
}

func (s *Postgres) AddCustomerPaid(ctx context.Context, customerID int64, amount decimal.Decimal) error {
	return s.jobs.AddCustomerPaid(ctx, customerID, amount)
}

func (s *Postgres) InsertWaste(ctx context.Context, e *waste.Expense) error {
	return s.waste.Insert(ctx, e)
}

func (s *Postgres) ListWaste(ctx context.Context, jobID int64) ([]waste.Expense, error) {
	return s.waste.ListByJob(ctx, jobID)
}

/* users */

func (s *Postgres) GetUser(ctx context.Context, id int64) (*users.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Postgres) UpsertUser(ctx context.Context, name, email string, role users.Role) (*users.User, error) {
	return s.users.Upsert(ctx, name, email, role)
}
