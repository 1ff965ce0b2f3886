package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/pressops/internal/domain/alerts"
	"github.com/Spok95/pressops/internal/domain/errs"
	"github.com/Spok95/pressops/internal/domain/inventory"
	"github.com/Spok95/pressops/internal/domain/jobs"
	"github.com/Spok95/pressops/internal/domain/materials"
	"github.com/Spok95/pressops/internal/domain/payments"
	"github.com/Spok95/pressops/internal/domain/users"
	"github.com/Spok95/pressops/internal/infra/db"
	"github.com/Spok95/pressops/internal/infra/metrics"
	"github.com/Spok95/pressops/internal/infra/notify"
	"github.com/Spok95/pressops/internal/store/memstore"
	"github.com/Spok95/pressops/internal/usecase"
)

var (
	admin  = users.Caller{UserID: 1, Role: users.RoleAdmin}
	worker = users.Caller{UserID: 7, Role: users.RoleWorker}
	other  = users.Caller{UserID: 8, Role: users.RoleWorker}
)

type recorder struct {
	mu  sync.Mutex
	got []notify.Notification
}

func (r *recorder) Dispatch(_ context.Context, ns ...notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, ns...)
}

func (r *recorder) ofType(t notify.Type) []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Notification
	for _, n := range r.got {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

type fixture struct {
	svc  *usecase.Service
	st   *memstore.Store
	tx   *memstore.Transactor
	sent *recorder
	m    *metrics.Metrics
}

func newFixture(opts usecase.Options) *fixture {
	st := memstore.New()
	f := &fixture{
		st:   st,
		tx:   &memstore.Transactor{Store: st},
		sent: &recorder{},
		m:    metrics.New(prometheus.NewRegistry()),
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = usecase.New(f.tx, func(db.DBTX) usecase.Store { return st }, f.sent, f.m, log, opts)
	return f
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (f *fixture) job(t *testing.T, owner users.Caller, total string) *jobs.Job {
	t.Helper()
	ctx := context.Background()
	cu, err := f.svc.CreateCustomer(ctx, admin, usecase.CreateCustomer{Name: "Acme Print", Email: "ops@acme.test"})
	require.NoError(t, err)
	j, err := f.svc.CreateJob(ctx, owner, usecase.CreateJob{CustomerID: cu.ID, Description: "flyers", TotalCost: dec(total)})
	require.NoError(t, err)
	return j
}

func (f *fixture) paper(stock, threshold int64) int64 {
	return f.st.PutItem(materials.Item{
		Name:          "Bond A4 80gsm",
		PaperSize:     "A4",
		PaperType:     "bond",
		Grammage:      80,
		SheetsPerUnit: 500,
		CurrentStock:  stock,
		Threshold:     threshold,
		UnitCost:      dec("5000"),
		Active:        true,
	})
}

func TestCreateJob(t *testing.T) {
	f := newFixture(usecase.Options{})
	j := f.job(t, worker, "2500")

	assert.Regexp(t, `^PRESS-\d+-[0-9A-Z]{4}$`, j.Ticket)
	assert.Equal(t, worker.UserID, j.WorkerID)
	assert.Equal(t, jobs.StatusNotStarted, j.Status)
	assert.Equal(t, alerts.PaymentPending, j.PaymentStatus)
	assert.True(t, j.Balance.Equal(dec("2500")))
}

func TestCreateJobRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(usecase.Options{})

	_, err := f.svc.CreateJob(ctx, worker, usecase.CreateJob{})
	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "required", ve.Fields["customer_id"])

	_, err = f.svc.CreateJob(ctx, worker, usecase.CreateJob{CustomerID: 99, WorkerID: other.UserID})
	assert.ErrorIs(t, err, errs.ErrAccessDenied)

	_, err = f.svc.CreateJob(ctx, users.Caller{}, usecase.CreateJob{CustomerID: 99})
	assert.ErrorIs(t, err, errs.ErrAccessDenied)

	_, err = f.svc.CreateJob(ctx, admin, usecase.CreateJob{CustomerID: 99, WorkerID: worker.UserID})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestPaymentScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(usecase.Options{})
	j := f.job(t, worker, "10000")

	p, after, err := f.svc.RecordPayment(ctx, worker, usecase.RecordPayment{JobID: j.ID, Amount: dec("4000"), Type: payments.TypeDeposit})
	require.NoError(t, err)
	assert.Regexp(t, `^RCP-\d+-[0-9A-Z]{4}$`, p.Receipt)
	assert.Equal(t, "cash", p.Method)
	assert.Equal(t, "6000.00", after.Balance.StringFixed(2))
	assert.Equal(t, alerts.PaymentPartiallyPaid, after.PaymentStatus)

	_, _, err = f.svc.RecordPayment(ctx, worker, usecase.RecordPayment{JobID: j.ID, Amount: dec("6000.01"), Type: payments.TypeBalance})
	require.ErrorIs(t, err, errs.ErrValidation)

	_, after, err = f.svc.RecordPayment(ctx, worker, usecase.RecordPayment{JobID: j.ID, Amount: dec("6000"), Type: payments.TypeBalance, Method: "card"})
	require.NoError(t, err)
	assert.True(t, after.Balance.IsZero())
	assert.Equal(t, alerts.PaymentFullyPaid, after.PaymentStatus)

	_, _, err = f.svc.RecordPayment(ctx, worker, usecase.RecordPayment{JobID: j.ID, Amount: dec("1"), Type: payments.TypeBalance})
	require.ErrorIs(t, err, errs.ErrValidation)

	assert.Equal(t, "10000.00", f.st.Customer(j.CustomerID).TotalPaid.StringFixed(2))
	sent := f.sent.ofType(notify.TypePayment)
	require.Len(t, sent, 2)
	assert.Equal(t, alerts.PriorityLow, sent[0].Priority)
	assert.Equal(t, alerts.PriorityMedium, sent[1].Priority)
	assert.Equal(t, float64(2), testutil.ToFloat64(f.m.Payments))
	assert.Equal(t, float64(10000), testutil.ToFloat64(f.m.PaymentAmount))
}

func TestPaymentOnOtherWorkersJob(t *testing.T) {
	f := newFixture(usecase.Options{})
	j := f.job(t, worker, "100")

	_, _, err := f.svc.RecordPayment(context.Background(), other, usecase.RecordPayment{JobID: j.ID, Amount: dec("10"), Type: payments.TypeDeposit})
	assert.ErrorIs(t, err, errs.ErrAccessDenied)
	assert.Empty(t, f.st.Payments())
}

func TestEditTotalCostKeepsPaid(t *testing.T) {
	ctx := context.Background()
	f := newFixture(usecase.Options{})
	j := f.job(t, worker, "10000")
	_, _, err := f.svc.RecordPayment(ctx, worker, usecase.RecordPayment{JobID: j.ID, Amount: dec("4000"), Type: payments.TypeDeposit})
	require.NoError(t, err)

	got, err := f.svc.EditTotalCost(ctx, admin, usecase.EditTotalCost{JobID: j.ID, TotalCost: dec("3000")})
	require.NoError(t, err)
	assert.Equal(t, "-1000.00", got.Balance.StringFixed(2))
	assert.Equal(t, alerts.PaymentFullyPaid, got.PaymentStatus)

	again, err := f.svc.RecomputeBalance(ctx, admin, j.ID)
	require.NoError(t, err)
	assert.True(t, again.Balance.Equal(got.Balance))
	assert.Equal(t, got.PaymentStatus, again.PaymentStatus)
}

func TestThresholdScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(usecase.Options{})
	id := f.paper(200, 100)
	j := f.job(t, worker, "100")

	line := usecase.MaterialLine{MaterialID: id, Sheets: 50}
	_, err := f.svc.RecordMaterials(ctx, worker, usecase.RecordMaterials{JobID: j.ID, Materials: []usecase.MaterialLine{line}})
	require.NoError(t, err)
	low := f.sent.ofType(notify.TypeLowStock)
	require.Len(t, low, 1)
	assert.Equal(t, alerts.PriorityMedium, low[0].Priority)

	_, err = f.svc.RecordMaterials(ctx, worker, usecase.RecordMaterials{JobID: j.ID, Materials: []usecase.MaterialLine{line}})
	require.NoError(t, err)
	low = f.sent.ofType(notify.TypeLowStock)
	require.Len(t, low, 2)
	assert.Equal(t, alerts.PriorityHigh, low[1].Priority)
	assert.Contains(t, low[1].Title, "Critical")
	assert.Equal(t, int64(100), f.st.Item(id).CurrentStock)
	assert.Equal(t, float64(100), testutil.ToFloat64(f.m.StockMoved.WithLabelValues("out")))
}

func TestTransitionWithShortage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(usecase.Options{})
	id := f.paper(40, 10)
	j := f.job(t, worker, "500")

	res, err := f.svc.TransitionJob(ctx, worker, usecase.TransitionJob{
		JobID:     j.ID,
		Status:    jobs.StatusInProgress,
		Materials: []usecase.MaterialLine{{MaterialID: id, Sheets: 100}},
		Expenses:  []usecase.ExpenseLine{{Type: "plates", Quantity: dec("2"), UnitCost: dec("15.50")}},
	})
	require.NoError(t, err)

	assert.Equal(t, jobs.StatusNotStarted, res.From)
	assert.Equal(t, jobs.StatusInProgress, f.st.Job(j.ID).Status)
	require.Len(t, res.Records, 1)
	assert.Equal(t, int64(40), res.Records[0].QuantitySheets)
	assert.Equal(t, int64(0), f.st.Item(id).CurrentStock)
	require.Len(t, res.Expenses, 1)
	assert.Equal(t, "31.00", res.Expenses[0].TotalCost.StringFixed(2))

	short := f.sent.ofType(notify.TypeShortage)
	require.Len(t, short, 1)
	assert.Equal(t, alerts.PriorityHigh, short[0].Priority)
	assert.Contains(t, short[0].Message, "missing 60 sheets")
	assert.Len(t, f.sent.ofType(notify.TypeStatusChange), 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.m.Shortages.WithLabelValues("Bond A4 80gsm")))
}

func TestTransitionRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(usecase.Options{})
	j := f.job(t, worker, "500")

	_, err := f.svc.TransitionJob(ctx, other, usecase.TransitionJob{JobID: j.ID, Status: jobs.StatusInProgress})
	require.ErrorIs(t, err, errs.ErrAccessDenied)

	res, err := f.svc.TransitionJob(ctx, worker, usecase.TransitionJob{JobID: j.ID, Status: jobs.StatusDelivered})
	require.NoError(t, err)
	require.NotNil(t, res.Job.CompletedAt)
	require.NotNil(t, res.Job.DeliveredAt)

	_, err = f.svc.TransitionJob(ctx, admin, usecase.TransitionJob{JobID: j.ID, Status: jobs.StatusCompleted})
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = f.svc.TransitionJob(ctx, admin, usecase.TransitionJob{JobID: j.ID, Status: "archived"})
	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "oneof", ve.Fields["status"])
}

func TestTransitionRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(usecase.Options{})
	id := f.paper(1000, 10)
	j := f.job(t, worker, "500")
	before := f.sent.count()
	f.st.FailOn["InsertRecord"] = errors.New("disk full")

	_, err := f.svc.TransitionJob(ctx, worker, usecase.TransitionJob{
		JobID:     j.ID,
		Status:    jobs.StatusInProgress,
		Materials: []usecase.MaterialLine{{MaterialID: id, Sheets: 100}},
	})
	require.Error(t, err)

	assert.Equal(t, jobs.StatusNotStarted, f.st.Job(j.ID).Status)
	assert.Equal(t, int64(1000), f.st.Item(id).CurrentStock)
	assert.Empty(t, f.st.Adjustments())
	assert.Equal(t, before, f.sent.count())
	assert.Equal(t, float64(1), testutil.ToFloat64(f.m.Operations.WithLabelValues("transition_job", "error")))
}

func TestEditScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(usecase.Options{})
	id := f.paper(1000, 10)
	j := f.job(t, worker, "500")

	rec, err := f.svc.RecordMaterials(ctx, worker, usecase.RecordMaterials{
		JobID: j.ID, Materials: []usecase.MaterialLine{{MaterialID: id, Sheets: 50}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(950), f.st.Item(id).CurrentStock)
	lineID := rec.Records[0].ID

	res, err := f.svc.UpdateJobMaterials(ctx, worker, usecase.UpdateMaterials{
		JobID:  j.ID,
		Reason: "customer asked for a reprint",
		Lines:  []usecase.MaterialLine{{ID: lineID, MaterialID: id, Sheets: 80}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Modified)
	assert.Equal(t, int64(920), f.st.Item(id).CurrentStock)

	h, err := f.svc.JobHistory(ctx, worker, j.ID)
	require.NoError(t, err)
	require.Len(t, h.History, 1)
	require.NotNil(t, h.History[0].Previous)
	require.NotNil(t, h.History[0].New)
	assert.Equal(t, int64(50), h.History[0].Previous.QuantitySheets)
	assert.Equal(t, int64(80), h.History[0].New.QuantitySheets)
	assert.Equal(t, "800", h.History[0].New.TotalCost.String())
	require.Len(t, h.Records, 1)
	assert.Equal(t, int64(80), h.Records[0].QuantitySheets)
}

func TestUpdateMaterialsValidatesBeforeTx(t *testing.T) {
	ctx := context.Background()
	f := newFixture(usecase.Options{})
	j := f.job(t, worker, "500")
	calls := f.tx.Calls

	_, err := f.svc.UpdateJobMaterials(ctx, worker, usecase.UpdateMaterials{
		JobID: j.ID, Reason: "typo", Lines: []usecase.MaterialLine{{MaterialName: "Bond", Sheets: 5}},
	})
	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "reason")

	_, err = f.svc.UpdateJobMaterials(ctx, worker, usecase.UpdateMaterials{
		JobID: j.ID, Reason: "wrong count", Lines: []usecase.MaterialLine{{Sheets: 5}},
	})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "required_without", ve.Fields["lines[0].material_name"])
	assert.Equal(t, calls, f.tx.Calls)
}

func TestWritesValidateBeforeTx(t *testing.T) {
	ctx := context.Background()
	f := newFixture(usecase.Options{})
	id := f.paper(1000, 10)
	j := f.job(t, worker, "500")
	calls := f.tx.Calls
	var ve *errs.ValidationError

	_, _, err := f.svc.RecordPayment(ctx, worker, usecase.RecordPayment{JobID: j.ID, Amount: decimal.Zero, Type: payments.TypeDeposit})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "must be > 0", ve.Fields["amount"])

	_, err = f.svc.TransitionJob(ctx, worker, usecase.TransitionJob{
		JobID:  j.ID,
		Status: jobs.StatusInProgress,
		Materials: []usecase.MaterialLine{
			{MaterialID: id, Sheets: 10},
			{MaterialID: id},
		},
	})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "must be > 0", ve.Fields["materials[1].quantity"])

	_, err = f.svc.RecordMaterials(ctx, worker, usecase.RecordMaterials{
		JobID:     j.ID,
		Materials: []usecase.MaterialLine{{MaterialName: "Bond", Sheets: 5, UnitCost: decimal.NewFromInt(-1)}},
	})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "materials[0].unit_cost")

	assert.Equal(t, calls, f.tx.Calls)
	assert.Equal(t, jobs.StatusNotStarted, f.st.Job(j.ID).Status)
	assert.Equal(t, int64(1000), f.st.Item(id).CurrentStock)
}

func TestDeleteReturnsStockWhenEnabled(t *testing.T) {
	for _, tc := range []struct {
		name   string
		opts   usecase.Options
		expect int64
	}{
		{"kept", usecase.Options{}, 900},
		{"returned", usecase.Options{ReturnStockOnDelete: true}, 1000},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(tc.opts)
			id := f.paper(1000, 10)
			j := f.job(t, worker, "500")
			_, err := f.svc.RecordMaterials(ctx, worker, usecase.RecordMaterials{
				JobID: j.ID, Materials: []usecase.MaterialLine{{MaterialID: id, Sheets: 100}},
			})
			require.NoError(t, err)

			res, err := f.svc.UpdateJobMaterials(ctx, admin, usecase.UpdateMaterials{JobID: j.ID, Reason: "job was cancelled"})
			require.NoError(t, err)
			assert.Equal(t, 1, res.Deleted)
			assert.Equal(t, tc.expect, f.st.Item(id).CurrentStock)
		})
	}
}

func TestListJobsScopedToWorker(t *testing.T) {
	ctx := context.Background()
	f := newFixture(usecase.Options{})
	f.job(t, worker, "1")
	f.job(t, other, "2")

	mine, err := f.svc.ListJobs(ctx, worker, 10)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, worker.UserID, mine[0].WorkerID)

	all, err := f.svc.ListJobs(ctx, admin, 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCreateMaterialWithOpeningStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(usecase.Options{})

	_, err := f.svc.CreateMaterial(ctx, worker, usecase.CreateMaterial{Name: "Kraft"})
	require.ErrorIs(t, err, errs.ErrAccessDenied)

	line, err := f.svc.CreateMaterial(ctx, admin, usecase.CreateMaterial{
		Name: "Card A3 300gsm", Category: "Card", SheetsPerUnit: 100,
		Threshold: 50, UnitCost: dec("900"), OpeningReams: 3, OpeningSheets: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(320), line.Item.CurrentStock)
	assert.Equal(t, "Card", line.Item.Category)
	assert.Equal(t, "3 reams, 20 sheets", line.Display)
	assert.Equal(t, "3R 20S", line.Short)
	assert.Equal(t, alerts.StatusHealthy, line.Check.Status)

	adj, err := f.svc.ItemAdjustments(ctx, worker, line.Item.ID, 10)
	require.NoError(t, err)
	require.Len(t, adj, 1)
	assert.Equal(t, inventory.KindReplenish, adj[0].Kind)
	assert.Equal(t, int64(320), adj[0].Delta)

	require.NoError(t, f.svc.DeactivateMaterial(ctx, admin, line.Item.ID))
	active, err := f.svc.StockView(ctx, worker, true)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestReplenish(t *testing.T) {
	ctx := context.Background()
	f := newFixture(usecase.Options{})
	id := f.paper(10, 100)

	mv, err := f.svc.Replenish(ctx, admin, usecase.Replenish{MaterialID: id, Reams: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(510), mv.StockAfter)
	assert.Equal(t, alerts.StatusHealthy, mv.After.Status)

	_, err = f.svc.Replenish(ctx, admin, usecase.Replenish{MaterialID: id})
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = f.svc.Replenish(ctx, worker, usecase.Replenish{MaterialID: id, Sheets: 1})
	assert.ErrorIs(t, err, errs.ErrAccessDenied)
}

func TestStocktakeRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(usecase.Options{})
	id := f.paper(1000, 10)

	data, err := f.svc.ExportStock(ctx, worker)
	require.NoError(t, err)

	x, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	sheet := x.GetSheetName(x.GetActiveSheetIndex())
	require.NoError(t, x.SetCellValue(sheet, "J2", 1))
	require.NoError(t, x.SetCellValue(sheet, "K2", 200))
	buf := &bytes.Buffer{}
	require.NoError(t, x.Write(buf))
	require.NoError(t, x.Close())

	_, err = f.svc.ImportStocktake(ctx, worker, buf.Bytes())
	require.ErrorIs(t, err, errs.ErrAccessDenied)

	res, err := f.svc.ImportStocktake(ctx, admin, buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Counted)
	require.Len(t, res.Movements, 1)
	assert.Equal(t, int64(700), f.st.Item(id).CurrentStock)

	adj := f.st.Adjustments()
	require.Len(t, adj, 1)
	assert.Equal(t, inventory.KindStocktake, adj[0].Kind)
	assert.Equal(t, int64(-300), adj[0].Delta)
	assert.Equal(t, "stocktake", adj[0].Reason)
}

func TestRegisterUserNeverDemotesAdmin(t *testing.T) {
	f := newFixture(usecase.Options{})
	ctx := context.Background()

	_, err := f.svc.RegisterUser(ctx, worker, usecase.RegisterUser{Name: "Ada", Email: "ada@example.com", Role: users.RoleWorker})
	assert.ErrorIs(t, err, errs.ErrAccessDenied)

	boss, err := f.svc.RegisterUser(ctx, admin, usecase.RegisterUser{Name: "Boss", Email: "boss@example.com", Role: users.RoleAdmin})
	require.NoError(t, err)

	again, err := f.svc.RegisterUser(ctx, admin, usecase.RegisterUser{Name: "Boss B", Email: "BOSS@example.com", Role: users.RoleWorker})
	require.NoError(t, err)
	assert.Equal(t, boss.ID, again.ID)
	assert.Equal(t, users.RoleAdmin, again.Role)
	assert.Equal(t, "Boss B", again.Name)

	c, err := f.svc.Identify(ctx, boss.ID)
	require.NoError(t, err)
	assert.Equal(t, users.Caller{UserID: boss.ID, Role: users.RoleAdmin}, c)

	_, err = f.svc.Identify(ctx, 999)
	assert.ErrorIs(t, err, errs.ErrAccessDenied)
}

func TestUpdatePricing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(usecase.Options{})
	id := f.paper(200, 100)

	cost := dec("5200")
	_, err := f.svc.UpdatePricing(ctx, worker, usecase.UpdatePricing{MaterialID: id, UnitCost: &cost})
	assert.ErrorIs(t, err, errs.ErrAccessDenied)

	calls := f.tx.Calls
	_, err = f.svc.UpdatePricing(ctx, admin, usecase.UpdatePricing{MaterialID: id})
	assert.ErrorIs(t, err, errs.ErrValidation)
	neg := dec("-1")
	_, err = f.svc.UpdatePricing(ctx, admin, usecase.UpdatePricing{MaterialID: id, UnitCost: &neg})
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Equal(t, calls, f.tx.Calls)

	line, err := f.svc.UpdatePricing(ctx, admin, usecase.UpdatePricing{MaterialID: id, UnitCost: &cost})
	require.NoError(t, err)
	assert.True(t, line.Item.UnitCost.Equal(cost))
	assert.Equal(t, alerts.StatusHealthy, line.Check.Status)
	assert.Zero(t, f.sent.count())

	// 200 sheets against a threshold of 150 is LOW, stock itself unchanged
	threshold := int64(150)
	line, err = f.svc.UpdatePricing(ctx, admin, usecase.UpdatePricing{MaterialID: id, Threshold: &threshold})
	require.NoError(t, err)
	assert.Equal(t, alerts.StatusLow, line.Check.Status)
	assert.Equal(t, int64(200), f.st.Item(id).CurrentStock)
	assert.Equal(t, int64(150), f.st.Item(id).Threshold)
	assert.True(t, f.st.Item(id).UnitCost.Equal(cost))
	require.Len(t, f.sent.ofType(notify.TypeLowStock), 1)
	assert.Zero(t, testutil.ToFloat64(f.m.StockMoved.WithLabelValues("out")))

	_, err = f.svc.UpdatePricing(ctx, admin, usecase.UpdatePricing{MaterialID: 999, Threshold: &threshold})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCategories(t *testing.T) {
	ctx := context.Background()
	f := newFixture(usecase.Options{})
	vinyl, err := f.st.EnsureCategory(ctx, "vinyl")
	require.NoError(t, err)
	_, err = f.st.EnsureCategory(ctx, "card stock")
	require.NoError(t, err)

	list, err := f.svc.Categories(ctx, worker)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "card stock", list[0].Name)

	_, err = f.svc.SetCategoryActive(ctx, worker, vinyl.ID, false)
	assert.ErrorIs(t, err, errs.ErrAccessDenied)

	got, err := f.svc.SetCategoryActive(ctx, admin, vinyl.ID, false)
	require.NoError(t, err)
	assert.False(t, got.Active)

	got, err = f.svc.Category(ctx, worker, vinyl.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	_, err = f.svc.Category(ctx, worker, 999)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = f.svc.Categories(ctx, users.Caller{})
	assert.ErrorIs(t, err, errs.ErrAccessDenied)
}

func TestJobByTicket(t *testing.T) {
	ctx := context.Background()
	f := newFixture(usecase.Options{})
	j := f.job(t, worker, "100")

	got, err := f.svc.JobByTicket(ctx, worker, " "+strings.ToLower(j.Ticket)+" ")
	require.NoError(t, err)
	assert.Equal(t, j.ID, got.ID)

	got, err = f.svc.JobByTicket(ctx, admin, j.Ticket)
	require.NoError(t, err)
	assert.Equal(t, j.ID, got.ID)

	_, err = f.svc.JobByTicket(ctx, other, j.Ticket)
	assert.ErrorIs(t, err, errs.ErrAccessDenied)

	_, err = f.svc.JobByTicket(ctx, worker, "PRESS-1-0000")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	calls := f.tx.Calls
	_, err = f.svc.JobByTicket(ctx, worker, "job 42")
	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "ticket")
	assert.Equal(t, calls, f.tx.Calls)
}
