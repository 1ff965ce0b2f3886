package http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/pressops/internal/domain/audit"
	"github.com/Spok95/pressops/internal/domain/catalog"
	"github.com/Spok95/pressops/internal/domain/customers"
	"github.com/Spok95/pressops/internal/domain/inventory"
	"github.com/Spok95/pressops/internal/domain/jobs"
	"github.com/Spok95/pressops/internal/domain/payments"
	"github.com/Spok95/pressops/internal/domain/usage"
	"github.com/Spok95/pressops/internal/domain/users"
	"github.com/Spok95/pressops/internal/domain/waste"
	"github.com/Spok95/pressops/internal/usecase"
)

type userView struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role"`
	Active bool   `json:"active"`
}

func newUserView(u *users.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, Role: string(u.Role), Active: u.Active}
}

type categoryView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func newCategoryView(c *catalog.Category) categoryView {
	return categoryView{ID: c.ID, Name: c.Name, Active: c.Active, CreatedAt: c.CreatedAt}
}

type customerView struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email,omitempty"`
	Phone     string          `json:"phone,omitempty"`
	TotalPaid decimal.Decimal `json:"total_paid"`
}

func newCustomerView(c *customers.Customer) customerView {
	return customerView{ID: c.ID, Name: c.Name, Email: c.Email, Phone: c.Phone, TotalPaid: c.TotalPaid}
}

type jobView struct {
	ID            int64           `json:"id"`
	Ticket        string          `json:"ticket"`
	CustomerID    int64           `json:"customer_id"`
	WorkerID      int64           `json:"worker_id"`
	Description   string          `json:"description"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	Balance       decimal.Decimal `json:"balance"`
	PaymentStatus string          `json:"payment_status"`
	Status        string          `json:"status"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	DeliveredAt   *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func newJobView(j *jobs.Job) jobView {
	return jobView{
		ID:            j.ID,
		Ticket:        j.Ticket,
		CustomerID:    j.CustomerID,
		WorkerID:      j.WorkerID,
		Description:   j.Description,
		TotalCost:     j.TotalCost,
		AmountPaid:    j.AmountPaid(),
		Balance:       j.Balance,
		PaymentStatus: string(j.PaymentStatus),
		Status:        string(j.Status),
		CompletedAt:   j.CompletedAt,
		DeliveredAt:   j.DeliveredAt,
		CreatedAt:     j.CreatedAt,
	}
}

type recordView struct {
	ID             int64           `json:"id"`
	MaterialID     int64           `json:"material_id,omitempty"`
	MaterialName   string          `json:"material_name"`
	PaperSize      string          `json:"paper_size,omitempty"`
	PaperType      string          `json:"paper_type,omitempty"`
	Grammage       int             `json:"grammage,omitempty"`
	QuantitySheets int64           `json:"quantity_sheets"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	UsageType      string          `json:"usage_type"`
	Notes          string          `json:"notes,omitempty"`
	RecordedBy     int64           `json:"recorded_by"`
}

func newRecordViews(rs []usage.Record) []recordView {
	out := make([]recordView, 0, len(rs))
	for _, r := range rs {
		out = append(out, recordView{
			ID:             r.ID,
			MaterialID:     r.MaterialID,
			MaterialName:   r.MaterialName,
			PaperSize:      r.PaperSize,
			PaperType:      r.PaperType,
			Grammage:       r.Grammage,
			QuantitySheets: r.QuantitySheets,
			UnitCost:       r.UnitCost,
			TotalCost:      r.TotalCost,
			UsageType:      string(r.UsageType),
			Notes:          r.Notes,
			RecordedBy:     r.RecordedBy,
		})
	}
	return out
}

type snapshotView struct {
	MaterialName   string          `json:"material_name"`
	PaperSize      string          `json:"paper_size,omitempty"`
	PaperType      string          `json:"paper_type,omitempty"`
	Grammage       int             `json:"grammage,omitempty"`
	QuantitySheets int64           `json:"quantity_sheets"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	TotalCost      decimal.Decimal `json:"total_cost"`
}

func newSnapshotView(s *usage.Snapshot) *snapshotView {
	if s == nil {
		return nil
	}
	return &snapshotView{
		MaterialName:   s.MaterialName,
		PaperSize:      s.PaperSize,
		PaperType:      s.PaperType,
		Grammage:       s.Grammage,
		QuantitySheets: s.QuantitySheets,
		UnitCost:       s.UnitCost,
		TotalCost:      s.TotalCost,
	}
}

type historyView struct {
	ID       int64         `json:"id"`
	UsageID  int64         `json:"usage_id"`
	Previous *snapshotView `json:"previous"`
	New      *snapshotView `json:"new"`
	Reason   string        `json:"reason"`
	EditedBy int64         `json:"edited_by"`
	EditedAt time.Time     `json:"edited_at"`
}

func newHistoryViews(hs []audit.History) []historyView {
	out := make([]historyView, 0, len(hs))
	for _, h := range hs {
		out = append(out, historyView{
			ID:       h.ID,
			UsageID:  h.UsageID,
			Previous: newSnapshotView(h.Previous),
			New:      newSnapshotView(h.New),
			Reason:   h.Reason,
			EditedBy: h.EditedBy,
			EditedAt: h.EditedAt,
		})
	}
	return out
}

type paymentView struct {
	ID      int64           `json:"id"`
	JobID   int64           `json:"job_id"`
	Amount  decimal.Decimal `json:"amount"`
	Type    string          `json:"type"`
	Method  string          `json:"method"`
	Receipt string          `json:"receipt"`
	PaidAt  time.Time       `json:"paid_at"`
}

func newPaymentView(p payments.Payment) paymentView {
	return paymentView{ID: p.ID, JobID: p.JobID, Amount: p.Amount, Type: string(p.Type), Method: p.Method, Receipt: p.Receipt, PaidAt: p.PaidAt}
}

type expenseView struct {
	ID         int64           `json:"id"`
	MaterialID int64           `json:"material_id,omitempty"`
	Type       string          `json:"type"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	TotalCost  decimal.Decimal `json:"total_cost"`
	Reason     string          `json:"reason,omitempty"`
}

func newExpenseViews(es []waste.Expense) []expenseView {
	out := make([]expenseView, 0, len(es))
	for _, e := range es {
		out = append(out, expenseView{
			ID: e.ID, MaterialID: e.MaterialID, Type: e.Type,
			Quantity: e.Quantity, UnitCost: e.UnitCost, TotalCost: e.TotalCost, Reason: e.Reason,
		})
	}
	return out
}

type movementView struct {
	MaterialID  int64  `json:"material_id"`
	Material    string `json:"material"`
	Requested   int64  `json:"requested_sheets"`
	Actual      int64  `json:"actual_sheets"`
	Shortage    int64  `json:"shortage_sheets"`
	StockBefore int64  `json:"stock_before"`
	StockAfter  int64  `json:"stock_after"`
	Status      string `json:"status"`
}

func newMovementViews(ms []inventory.Movement) []movementView {
	out := make([]movementView, 0, len(ms))
	for _, m := range ms {
		out = append(out, movementView{
			MaterialID:  m.MaterialID,
			Material:    m.MaterialName,
			Requested:   m.Requested,
			Actual:      m.Actual,
			Shortage:    m.Shortage,
			StockBefore: m.StockBefore,
			StockAfter:  m.StockAfter,
			Status:      string(m.After.Status),
		})
	}
	return out
}

type stockView struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Category      string          `json:"category,omitempty"`
	PaperSize     string          `json:"paper_size,omitempty"`
	PaperType     string          `json:"paper_type,omitempty"`
	Grammage      int             `json:"grammage,omitempty"`
	UnitLabel     string          `json:"unit_label"`
	SheetsPerUnit int64           `json:"sheets_per_unit"`
	StockSheets   int64           `json:"stock_sheets"`
	Threshold     int64           `json:"threshold_sheets"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	Active        bool            `json:"active"`
	Display       string          `json:"display"`
	Short         string          `json:"short"`
	Status        string          `json:"status"`
	Priority      string          `json:"priority"`
	Percentage    int64           `json:"percentage"`
	IsLow         bool            `json:"is_low"`
}

func newStockView(l usecase.StockLine) stockView {
	it := l.Item
	return stockView{
		ID:            it.ID,
		Name:          it.Name,
		Category:      it.Category,
		PaperSize:     it.PaperSize,
		PaperType:     it.PaperType,
		Grammage:      it.Grammage,
		UnitLabel:     it.UnitLabel,
		SheetsPerUnit: it.PerUnit(),
		StockSheets:   it.CurrentStock,
		Threshold:     it.Threshold,
		UnitCost:      it.UnitCost,
		Active:        it.Active,
		Display:       l.Display,
		Short:         l.Short,
		Status:        string(l.Check.Status),
		Priority:      string(l.Check.Priority),
		Percentage:    l.Check.Percentage,
		IsLow:         l.Check.IsLow,
	}
}

type adjustmentView struct {
	ID         int64     `json:"id"`
	Kind       string    `json:"kind"`
	Delta      int64     `json:"delta"`
	StockAfter int64     `json:"stock_after"`
	JobID      int64     `json:"job_id,omitempty"`
	Reason     string    `json:"reason"`
	ActorID    int64     `json:"actor_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func newAdjustmentViews(as []inventory.Adjustment) []adjustmentView {
	out := make([]adjustmentView, 0, len(as))
	for _, a := range as {
		out = append(out, adjustmentView{
			ID: a.ID, Kind: string(a.Kind), Delta: a.Delta, StockAfter: a.StockAfter,
			JobID: a.JobID, Reason: a.Reason, ActorID: a.ActorID, CreatedAt: a.CreatedAt,
		})
	}
	return out
}
