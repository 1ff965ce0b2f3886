package usecase

import (
	"github.com/shopspring/decimal"

	"github.com/Spok95/pressops/internal/domain/audit"
	"github.com/Spok95/pressops/internal/domain/jobs"
	"github.com/Spok95/pressops/internal/domain/payments"
	"github.com/Spok95/pressops/internal/domain/usage"
	"github.com/Spok95/pressops/internal/domain/users"
	"github.com/Spok95/pressops/internal/domain/waste"
)

type CreateCustomer struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"omitempty,email,max=200"`
	Phone string `json:"phone" validate:"omitempty,max=32"`
}

type RegisterUser struct {
	Name  string     `json:"name" validate:"required,max=200"`
	Email string     `json:"email" validate:"required,email,max=200"`
	Role  users.Role `json:"role" validate:"required,oneof=worker admin"`
}

// CreateJob assigns the job to the caller when WorkerID is 0.
type CreateJob struct {
	CustomerID  int64           `json:"customer_id" validate:"required,gt=0"`
	WorkerID    int64           `json:"worker_id" validate:"gte=0"`
	Description string          `json:"description" validate:"max=2000"`
	TotalCost   decimal.Decimal `json:"total_cost"`
}

// MaterialLine is a material entry as sent by a client. ID is only
// meaningful for edits, where 0 adds a line.
type MaterialLine struct {
	ID           int64           `json:"id" validate:"gte=0"`
	MaterialID   int64           `json:"material_id" validate:"gte=0"`
	MaterialName string          `json:"material_name" validate:"required_without=MaterialID,max=200"`
	PaperSize    string          `json:"paper_size" validate:"max=32"`
	PaperType    string          `json:"paper_type" validate:"max=64"`
	Grammage     int             `json:"grammage" validate:"gte=0"`
	Reams        int64           `json:"reams" validate:"gte=0"`
	Sheets       int64           `json:"sheets" validate:"gte=0"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	UsageType    usage.Type      `json:"usage_type" validate:"omitempty,oneof=production waste adjustment"`
	Notes        string          `json:"notes" validate:"max=1000"`
}

func (l MaterialLine) entry() usage.Entry {
	return usage.Entry{
		MaterialID:     l.MaterialID,
		MaterialName:   l.MaterialName,
		PaperSize:      l.PaperSize,
		PaperType:      l.PaperType,
		Grammage:       l.Grammage,
		Reams:          l.Reams,
		QuantitySheets: l.Sheets,
		UnitCost:       l.UnitCost,
		UsageType:      l.UsageType,
		Notes:          l.Notes,
	}
}

func (l MaterialLine) line() audit.Line {
	return audit.Line{
		ID:           l.ID,
		MaterialID:   l.MaterialID,
		MaterialName: l.MaterialName,
		PaperSize:    l.PaperSize,
		PaperType:    l.PaperType,
		Grammage:     l.Grammage,
		Reams:        l.Reams,
		Sheets:       l.Sheets,
		UnitCost:     l.UnitCost,
		UsageType:    l.UsageType,
		Notes:        l.Notes,
	}
}

// ExpenseLine is money spent on a job outside of stock.
type ExpenseLine struct {
	MaterialID int64           `json:"material_id" validate:"gte=0"`
	Type       string          `json:"type" validate:"required,max=64"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	Reason     string          `json:"reason" validate:"max=500"`
}

func (e ExpenseLine) expense(jobID, actorID int64) waste.Expense {
	return waste.Expense{
		JobID:      jobID,
		MaterialID: e.MaterialID,
		Type:       e.Type,
		Quantity:   e.Quantity,
		UnitCost:   e.UnitCost,
		Reason:     e.Reason,
		RecordedBy: actorID,
	}
}

// TransitionJob moves a job forward and books what it consumed on the way.
type TransitionJob struct {
	JobID     int64          `json:"job_id" validate:"required,gt=0"`
	Status    jobs.Status    `json:"status" validate:"required,oneof=not_started in_progress completed delivered"`
	Materials []MaterialLine `json:"materials" validate:"dive"`
	Expenses  []ExpenseLine  `json:"expenses" validate:"dive"`
}

// RecordMaterials appends lines to a job without changing its status.
type RecordMaterials struct {
	JobID     int64          `json:"job_id" validate:"required,gt=0"`
	Materials []MaterialLine `json:"materials" validate:"required,min=1,dive"`
}

// UpdateMaterials replaces the job's material lines with Lines.
type UpdateMaterials struct {
	JobID  int64          `json:"job_id" validate:"required,gt=0"`
	Lines  []MaterialLine `json:"lines" validate:"dive"`
	Reason string         `json:"reason" validate:"required"`
}

func (c UpdateMaterials) request() audit.Request {
	req := audit.Request{JobID: c.JobID, Reason: c.Reason, Lines: make([]audit.Line, 0, len(c.Lines))}
	for _, l := range c.Lines {
		req.Lines = append(req.Lines, l.line())
	}
	return req
}

type RecordPayment struct {
	JobID  int64           `json:"job_id" validate:"required,gt=0"`
	Amount decimal.Decimal `json:"amount"`
	Type   payments.Type   `json:"type" validate:"required,oneof=deposit installment full_payment balance"`
	Method string          `json:"method" validate:"max=32"`
}

type EditTotalCost struct {
	JobID     int64           `json:"job_id" validate:"required,gt=0"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

type CreateMaterial struct {
	Name          string          `json:"name" validate:"required,max=200"`
	Category      string          `json:"category" validate:"max=100"`
	PaperSize     string          `json:"paper_size" validate:"max=32"`
	PaperType     string          `json:"paper_type" validate:"max=64"`
	Grammage      int             `json:"grammage" validate:"gte=0"`
	UnitLabel     string          `json:"unit_label" validate:"max=32"`
	SheetsPerUnit int64           `json:"sheets_per_unit" validate:"gte=0"`
	Threshold     int64           `json:"threshold_sheets" validate:"gte=0"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	OpeningReams  int64           `json:"opening_reams" validate:"gte=0"`
	OpeningSheets int64           `json:"opening_sheets" validate:"gte=0"`
}

// UpdatePricing changes what an item costs and when it counts as low.
// Nil fields are left as they are.
type UpdatePricing struct {
	MaterialID int64            `json:"material_id" validate:"required,gt=0"`
	UnitCost   *decimal.Decimal `json:"unit_cost"`
	Threshold  *int64           `json:"threshold_sheets" validate:"omitempty,gte=0"`
}

type Replenish struct {
	MaterialID int64  `json:"material_id" validate:"required,gt=0"`
	Reams      int64  `json:"reams" validate:"gte=0"`
	Sheets     int64  `json:"sheets" validate:"gte=0"`
	Reason     string `json:"reason" validate:"max=500"`
}
