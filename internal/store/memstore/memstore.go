// Package memstore is an in-memory store with the same surface as the
// Postgres one. Tests use it together with its Transactor, which restores
// the previous state when a unit of work fails.
package memstore

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

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
)

type state struct {
	seq         int64
	categories  map[int64]catalog.Category
	items       map[int64]materials.Item
	adjustments []inventory.Adjustment
	records     map[int64]usage.Record
	history     []audit.History
	jobs        map[int64]jobs.Job
	payments    []payments.Payment
	customers   map[int64]customers.Customer
	waste       []waste.Expense
	users       map[int64]users.User
}

func (s state) clone() state {
	c := s
	c.categories = maps.Clone(s.categories)
	c.items = maps.Clone(s.items)
	c.records = maps.Clone(s.records)
	c.jobs = maps.Clone(s.jobs)
	c.customers = maps.Clone(s.customers)
	c.users = maps.Clone(s.users)
	c.adjustments = append([]inventory.Adjustment(nil), s.adjustments...)
	c.history = append([]audit.History(nil), s.history...)
	c.payments = append([]payments.Payment(nil), s.payments...)
	c.waste = append([]waste.Expense(nil), s.waste...)
	return c
}

type Store struct {
	mu sync.Mutex
	st state
	// FailOn makes the named method return the error once.
	FailOn map[string]error
}

func New() *Store {
	return &Store{st: state{
		categories: map[int64]catalog.Category{},
		items:      map[int64]materials.Item{},
		records:    map[int64]usage.Record{},
		jobs:       map[int64]jobs.Job{},
		customers:  map[int64]customers.Customer{},
		users:      map[int64]users.User{},
	}, FailOn: map[string]error{}}
}

func (s *Store) next() int64 {
	s.st.seq++
	return s.st.seq
}

func (s *Store) fail(method string) error {
	if err, ok := s.FailOn[method]; ok {
		delete(s.FailOn, method)
		return err
	}
	return nil
}

// Transactor runs fn against the store and restores the prior state when
// fn fails.
type Transactor struct {
	Store *Store
	Calls int
}

func (t *Transactor) WithTx(_ context.Context, fn func(q db.DBTX) error) error {
	t.Calls++
	t.Store.mu.Lock()
	saved := t.Store.st.clone()
	t.Store.mu.Unlock()

	if err := fn(nil); err != nil {
		t.Store.mu.Lock()
		t.Store.st = saved
		t.Store.mu.Unlock()
		return err
	}
	return nil
}

/* seeding */

func (s *Store) PutUser(u users.User) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.next()
	}
	s.st.users[u.ID] = u
	return u.ID
}

func (s *Store) PutItem(it materials.Item) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it.ID == 0 {
		it.ID = s.next()
	}
	if it.SheetsPerUnit == 0 {
		it.SheetsPerUnit = 500
	}
	s.st.items[it.ID] = it
	return it.ID
}

func (s *Store) Item(id int64) materials.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.items[id]
}

func (s *Store) PutJob(j jobs.Job) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j.ID == 0 {
		j.ID = s.next()
	}
	s.st.jobs[j.ID] = j
	return j.ID
}

func (s *Store) Job(id int64) jobs.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.jobs[id]
}

func (s *Store) Customer(id int64) customers.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.customers[id]
}

func (s *Store) Adjustments() []inventory.Adjustment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]inventory.Adjustment(nil), s.st.adjustments...)
}

func (s *Store) Payments() []payments.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]payments.Payment(nil), s.st.payments...)
}

/* inventory */

func (s *Store) LockItem(_ context.Context, id int64) (*materials.Item, error) {
	return s.GetItem(context.Background(), id)
}

func (s *Store) GetItem(_ context.Context, id int64) (*materials.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetItem"); err != nil {
		return nil, err
	}
	it, ok := s.st.items[id]
	if !ok {
		return nil, errs.NotFound("inventory item", id)
	}
	return &it, nil
}

func (s *Store) UpdateStock(_ context.Context, id, stock int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpdateStock"); err != nil {
		return err
	}
	it, ok := s.st.items[id]
	if !ok {
		return errs.NotFound("inventory item", id)
	}
	if stock < 0 {
		return errs.Invalid("current_stock_sheets", "must be >= 0")
	}
	it.CurrentStock = stock
	it.UpdatedAt = time.Now()
	s.st.items[id] = it
	return nil
}

func (s *Store) InsertAdjustment(_ context.Context, a inventory.Adjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.next()
	a.CreatedAt = time.Now()
	s.st.adjustments = append(s.st.adjustments, a)
	return nil
}

func (s *Store) ListAdjustments(_ context.Context, materialID int64, limit int) ([]inventory.Adjustment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []inventory.Adjustment
	for i := len(s.st.adjustments) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if a := s.st.adjustments[i]; a.MaterialID == materialID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) FindActiveItemByName(_ context.Context, name string) (*materials.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := strings.ToLower(strings.TrimSpace(name))
	if q == "" {
		return nil, nil
	}
	ids := make([]int64, 0, len(s.st.items))
	for id := range s.st.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		it := s.st.items[id]
		if it.Active && strings.Contains(strings.ToLower(it.Name), q) {
			return &it, nil
		}
	}
	return nil, nil
}

func (s *Store) EnsureCategory(_ context.Context, name string) (*catalog.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.Invalid("category", "must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.st.categories {
		if c.Name == name {
			return &c, nil
		}
	}
	c := catalog.Category{ID: s.next(), Name: name, Active: true, CreatedAt: time.Now()}
	s.st.categories[c.ID] = c
	return &c, nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (*catalog.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.st.categories[id]
	if !ok {
		return nil, errs.NotFound("category", id)
	}
	return &c, nil
}

func (s *Store) ListCategories(_ context.Context) ([]catalog.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]catalog.Category, 0, len(s.st.categories))
	for _, c := range s.st.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) SetCategoryActive(_ context.Context, id int64, active bool) (*catalog.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.st.categories[id]
	if !ok {
		return nil, errs.NotFound("category", id)
	}
	c.Active = active
	s.st.categories[id] = c
	return &c, nil
}

func (s *Store) UpdatePricing(_ context.Context, id int64, unitCost decimal.Decimal, threshold int64) error {
	if unitCost.IsNegative() {
		return errs.Invalid("unit_cost", "must be >= 0")
	}
	if threshold < 0 {
		return errs.Invalid("threshold_sheets", "must be >= 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.st.items[id]
	if !ok {
		return errs.NotFound("inventory item", id)
	}
	it.UnitCost, it.Threshold, it.UpdatedAt = unitCost, threshold, time.Now()
	s.st.items[id] = it
	return nil
}

func (s *Store) CreateItem(_ context.Context, n materials.NewItem) (*materials.Item, error) {
	if strings.TrimSpace(n.Name) == "" {
		return nil, errs.Invalid("name", "must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.SheetsPerUnit <= 0 {
		n.SheetsPerUnit = 500
	}
	it := materials.Item{
		ID:            s.next(),
		Name:          strings.TrimSpace(n.Name),
		CategoryID:    n.CategoryID,
		Category:      s.st.categories[n.CategoryID].Name,
		PaperSize:     n.PaperSize,
		PaperType:     n.PaperType,
		Grammage:      n.Grammage,
		UnitLabel:     n.UnitLabel,
		SheetsPerUnit: n.SheetsPerUnit,
		Threshold:     n.Threshold,
		UnitCost:      n.UnitCost,
		Active:        true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	s.st.items[it.ID] = it
	return &it, nil
}

func (s *Store) SetItemActive(_ context.Context, id int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.st.items[id]
	if !ok {
		return errs.NotFound("inventory item", id)
	}
	it.Active = active
	s.st.items[id] = it
	return nil
}

func (s *Store) ListItems(_ context.Context, onlyActive bool) ([]materials.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []materials.Item
	for _, it := range s.st.items {
		if onlyActive && !it.Active {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

/* usage and audit */

func (s *Store) InsertRecord(_ context.Context, r *usage.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("InsertRecord"); err != nil {
		return err
	}
	r.ID = s.next()
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	s.st.records[r.ID] = *r
	return nil
}

func (s *Store) ListRecords(_ context.Context, jobID int64) ([]usage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []usage.Record
	for _, r := range s.st.records {
		if r.JobID == jobID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) LockRecords(ctx context.Context, jobID int64) ([]usage.Record, error) {
	return s.ListRecords(ctx, jobID)
}

func (s *Store) UpdateRecord(_ context.Context, r usage.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpdateRecord"); err != nil {
		return err
	}
	if _, ok := s.st.records[r.ID]; !ok {
		return errs.NotFound("usage record", r.ID)
	}
	r.UpdatedAt = time.Now()
	s.st.records[r.ID] = r
	return nil
}

func (s *Store) DeleteRecord(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.records[id]; !ok {
		return errs.NotFound("usage record", id)
	}
	delete(s.st.records, id)
	return nil
}

func (s *Store) InsertHistory(_ context.Context, h *audit.History) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h.ID = s.next()
	h.EditedAt = time.Now()
	s.st.history = append(s.st.history, *h)
	return nil
}

func (s *Store) ListHistory(_ context.Context, jobID int64) ([]audit.History, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []audit.History
	for _, h := range s.st.history {
		if h.JobID == jobID {
			out = append(out, h)
		}
	}
	return out, nil
}

/* jobs and money */

func (s *Store) CreateJob(_ context.Context, j *jobs.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.customers[j.CustomerID]; !ok {
		return errs.Invalid("customer_id", "unknown customer")
	}
	j.ID = s.next()
	j.CreatedAt = time.Now()
	j.UpdatedAt = j.CreatedAt
	s.st.jobs[j.ID] = *j
	return nil
}

func (s *Store) GetJob(_ context.Context, id int64) (*jobs.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.st.jobs[id]
	if !ok {
		return nil, errs.NotFound("job", id)
	}
	return &j, nil
}

func (s *Store) GetJobByTicket(_ context.Context, ticket string) (*jobs.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.st.jobs {
		if j.Ticket == ticket {
			return &j, nil
		}
	}
	return nil, errs.NotFound("job", ticket)
}

func (s *Store) LockJob(ctx context.Context, id int64) (*jobs.Job, error) {
	return s.GetJob(ctx, id)
}

func (s *Store) ListJobs(_ context.Context, workerID int64, limit int) ([]jobs.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []jobs.Job
	for _, j := range s.st.jobs {
		if workerID == 0 || j.WorkerID == workerID {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) UpdateMoney(_ context.Context, j *jobs.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.st.jobs[j.ID]
	if !ok {
		return errs.NotFound("job", j.ID)
	}
	cur.TotalCost, cur.Balance, cur.PaymentStatus = j.TotalCost, j.Balance, j.PaymentStatus
	cur.UpdatedAt = time.Now()
	s.st.jobs[j.ID] = cur
	return nil
}

func (s *Store) UpdateStatus(_ context.Context, j *jobs.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.st.jobs[j.ID]
	if !ok {
		return errs.NotFound("job", j.ID)
	}
	cur.Status, cur.CompletedAt, cur.DeliveredAt = j.Status, j.CompletedAt, j.DeliveredAt
	cur.UpdatedAt = time.Now()
	s.st.jobs[j.ID] = cur
	return nil
}

func (s *Store) SumPayments(_ context.Context, jobID int64) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := decimal.Zero
	for _, p := range s.st.payments {
		if p.JobID == jobID {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

func (s *Store) InsertPayment(_ context.Context, p *payments.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("InsertPayment"); err != nil {
		return err
	}
	p.ID = s.next()
	p.PaidAt = time.Now()
	s.st.payments = append(s.st.payments, *p)
	return nil
}

func (s *Store) ListPayments(_ context.Context, jobID int64) ([]payments.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []payments.Payment
	for _, p := range s.st.payments {
		if p.JobID == jobID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) CreateCustomer(_ context.Context, name, email, phone string) (*customers.Customer, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errs.Invalid("name", "must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := customers.Customer{ID: s.next(), Name: strings.TrimSpace(name), Email: email, Phone: phone, CreatedAt: time.Now()}
	s.st.customers[c.ID] = c
	return &c, nil
}

func (s *Store) GetCustomer(_ context.Context, id int64) (*customers.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.st.customers[id]
	if !ok {
		return nil, errs.NotFound("customer", id)
	}
	return &c, nil
}

func (s *Store) AddCustomerPaid(_ context.Context, customerID int64, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.st.customers[customerID]
	if !ok {
		return errs.NotFound("customer", customerID)
	}
	c.TotalPaid = c.TotalPaid.Add(amount)
	c.UpdatedAt = time.Now()
	s.st.customers[customerID] = c
	return nil
}

func (s *Store) InsertWaste(_ context.Context, e *waste.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.next()
	e.CreatedAt = time.Now()
	s.st.waste = append(s.st.waste, *e)
	return nil
}

func (s *Store) ListWaste(_ context.Context, jobID int64) ([]waste.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []waste.Expense
	for _, e := range s.st.waste {
		if e.JobID == jobID {
			out = append(out, e)
		}
	}
	return out, nil
}

/* users */

func (s *Store) GetUser(_ context.Context, id int64) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.st.users[id]
	if !ok {
		return nil, errs.NotFound("user", id)
	}
	return &u, nil
}

func (s *Store) UpsertUser(_ context.Context, name, email string, role users.Role) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, u := range s.st.users {
		if email == "" || !strings.EqualFold(u.Email, email) {
			continue
		}
		u.Name = name
		if u.Role != users.RoleAdmin {
			u.Role = role
		}
		u.UpdatedAt = now
		s.st.users[id] = u
		return &u, nil
	}
	u := users.User{ID: s.next(), Name: name, Email: email, Role: role, Active: true, CreatedAt: now, UpdatedAt: now}
	s.st.users[u.ID] = u
	return &u, nil
}
