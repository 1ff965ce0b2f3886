package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/Spok95//pressops/internal/domain/audit"
	"github.com/Spok95/pressops/internal/domain/catalog"
	"github.com/Spok95/pressops/internal/domain/customers"
	"github.com/Spok95/pressops/internal/domain/errs"
	"github.com/Spok95/pressops/internal/domain/inventory"
	"github.com/Spok95/pressops/internal/domain/jobs"
	"github.com/Spok95/pressops/internal/domain/payments"
	"github.com/Spok95/pressops/internal/domain/users"
	"github.com/Spok95/pressops/internal/usecase"
)

// Ledger is the use-case surface the API exposes.
type Ledger interface {
	Directory
	RegisterUser(ctx context.Context, c users.Caller, cmd usecase.RegisterUser) (*users.User, error)
	CreateCustomer(ctx context.Context, c users.Caller, cmd usecase.CreateCustomer) (*customers.Customer, error)
	CreateJob(ctx context.Context, c users.Caller, cmd usecase.CreateJob) (*jobs.Job, error)
	Job(ctx context.Context, c users.Caller, id int64) (*jobs.Job, error)
	JobByTicket(ctx context.Context, c users.Caller, ticket string) (*jobs.Job, error)
	ListJobs(ctx context.Context, c users.Caller, limit int) ([]jobs.Job, error)
	JobHistory(ctx context.Context, c users.Caller, jobID int64) (*usecase.JobHistory, error)
	TransitionJob(ctx context.Context, c users.Caller, cmd usecase.TransitionJob) (*usecase.Transition, error)
	RecordMaterials(ctx context.Context, c users.Caller, cmd usecase.RecordMaterials) (*usecase.Recorded, error)
	UpdateJobMaterials(ctx context.Context, c users.Caller, cmd usecase.UpdateMaterials) (audit.Result, error)
	RecordPayment(ctx context.Context, c users.Caller, cmd usecase.RecordPayment) (*payments.Payment, *jobs.Job, error)
	EditTotalCost(ctx context.Context, c users.Caller, cmd usecase.EditTotalCost) (*jobs.Job, error)
	RecomputeBalance(ctx context.Context, c users.Caller, jobID int64) (*jobs.Job, error)

	CreateMaterial(ctx context.Context, c users.Caller, cmd usecase.CreateMaterial) (*usecase.StockLine, error)
	DeactivateMaterial(ctx context.Context, c users.Caller, id int64) error
	Material(ctx context.Context, c users.Caller, id int64) (*usecase.StockLine, error)
	UpdatePricing(ctx context.Context, c users.Caller, cmd usecase.UpdatePricing) (*usecase.StockLine, error)
	StockView(ctx context.Context, c users.Caller, onlyActive bool) ([]usecase.StockLine, error)
	Replenish(ctx context.Context, c users.Caller, cmd usecase.Replenish) (inventory.Movement, error)
	ItemAdjustments(ctx context.Context, c users.Caller, materialID int64, limit int) ([]inventory.Adjustment, error)
	ExportStock(ctx context.Context, c users.Caller) ([]byte, error)
	ImportStocktake(ctx context.Context, c users.Caller, data []byte) (*usecase.Stocktake, error)

	Categories(ctx context.Context, c users.Caller) ([]catalog.Category, error)
	Category(ctx context.Context, c users.Caller, id int64) (*catalog.Category, error)
	SetCategoryActive(ctx context.Context, c users.Caller, id int64, active bool) (*catalog.Category, error)
}

type handlers struct {
	svc Ledger
	log *slog.Logger
}

func (h *handlers) registerUser(w http.ResponseWriter, r *http.Request) {
	var cmd usecase.RegisterUser
	if err := decode(w, r, &cmd); err != nil {
		writeError(w, h.log, err)
		return
	}
	u, err := h.svc.RegisterUser(r.Context(), callerFrom(r), cmd)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, newUserView(u))
}

/* customers and jobs */

func (h *handlers) createCustomer(w http.ResponseWriter, r *http.Request) {
	var cmd usecase.CreateCustomer
	if err := decode(w, r, &cmd); err != nil {
		writeError(w, h.log, err)
		return
	}
	cu, err := h.svc.CreateCustomer(r.Context(), callerFrom(r), cmd)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCustomerView(cu))
}

func (h *handlers) createJob(w http.ResponseWriter, r *http.Request) {
	var cmd usecase.CreateJob
	if err := decode(w, r, &cmd); err != nil {
		writeError(w, h.log, err)
		return
	}
	j, err := h.svc.CreateJob(r.Context(), callerFrom(r), cmd)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, newJobView(j))
}

func (h *handlers) listJobs(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListJobs(r.Context(), callerFrom(r), queryInt(r, "limit", 50))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	out := make([]jobView, 0, len(list))
	for i := range list {
		out = append(out, newJobView(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) getJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	j, err := h.svc.Job(r.Context(), callerFrom(r), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newJobView(j))
}

func (h *handlers) jobByTicket(w http.ResponseWriter, r *http.Request) {
	j, err := h.svc.JobByTicket(r.Context(), callerFrom(r), mux.Vars(r)["ticket"])
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newJobView(j))
}

func (h *handlers) jobHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	hist, err := h.svc.JobHistory(r.Context(), callerFrom(r), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	pays := make([]paymentView, 0, len(hist.Payments))
	for _, p := range hist.Payments {
		pays = append(pays, newPaymentView(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job":       newJobView(hist.Job),
		"materials": newRecordViews(hist.Records),
		"history":   newHistoryViews(hist.History),
		"payments":  pays,
		"expenses":  newExpenseViews(hist.Expenses),
	})
}

func (h *handlers) transitionJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	var cmd usecase.TransitionJob
	if err := decode(w, r, &cmd); err != nil {
		writeError(w, h.log, err)
		return
	}
	cmd.JobID = id
	res, err := h.svc.TransitionJob(r.Context(), callerFrom(r), cmd)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job":       newJobView(res.Job),
		"from":      res.From,
		"materials": newRecordViews(res.Records),
		"expenses":  newExpenseViews(res.Expenses),
		"movements": newMovementViews(res.Movements),
	})
}

func (h *handlers) recordMaterials(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	var cmd usecase.RecordMaterials
	if err := decode(w, r, &cmd); err != nil {
		writeError(w, h.log, err)
		return
	}
	cmd.JobID = id
	res, err := h.svc.RecordMaterials(r.Context(), callerFrom(r), cmd)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"materials": newRecordViews(res.Records),
		"movements": newMovementViews(res.Movements),
	})
}

func (h *handlers) updateMaterials(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	var cmd usecase.UpdateMaterials
	if err := decode(w, r, &cmd); err != nil {
		writeError(w, h.log, err)
		return
	}
	cmd.JobID = id
	res, err := h.svc.UpdateJobMaterials(r.Context(), callerFrom(r), cmd)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"added":     res.Added,
		"modified":  res.Modified,
		"deleted":   res.Deleted,
		"unchanged": res.Unchanged,
		"history":   newHistoryViews(res.History),
		"movements": newMovementViews(res.Movements),
	})
}

func (h *handlers) editTotal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	var cmd usecase.EditTotalCost
	if err := decode(w, r, &cmd); err != nil {
		writeError(w, h.log, err)
		return
	}
	cmd.JobID = id
	j, err := h.svc.EditTotalCost(r.Context(), callerFrom(r), cmd)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newJobView(j))
}

func (h *handlers) recompute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	j, err := h.svc.RecomputeBalance(r.Context(), callerFrom(r), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newJobView(j))
}

/* materials and stock */

func (h *handlers) createMaterial(w http.ResponseWriter, r *http.Request) {
	var cmd usecase.CreateMaterial
	if err := decode(w, r, &cmd); err != nil {
		writeError(w, h.log, err)
		return
	}
	line, err := h.svc.CreateMaterial(r.Context(), callerFrom(r), cmd)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, newStockView(*line))
}

func (h *handlers) listMaterials(w http.ResponseWriter, r *http.Request) {
	lines, err := h.svc.StockView(r.Context(), callerFrom(r), r.URL.Query().Get("all") == "")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	out := make([]stockView, 0, len(lines))
	for _, l := range lines {
		out = append(out, newStockView(l))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) getMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	line, err := h.svc.Material(r.Context(), callerFrom(r), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newStockView(*line))
}

func (h *handlers) updatePricing(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	var cmd usecase.UpdatePricing
	if err := decode(w, r, &cmd); err != nil {
		writeError(w, h.log, err)
		return
	}
	cmd.MaterialID = id
	line, err := h.svc.UpdatePricing(r.Context(), callerFrom(r), cmd)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newStockView(*line))
}

func (h *handlers) deactivateMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if err := h.svc.DeactivateMaterial(r.Context(), callerFrom(r), id); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) replenish(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	var cmd usecase.Replenish
	if err := decode(w, r, &cmd); err != nil {
		writeError(w, h.log, err)
		return
	}
	cmd.MaterialID = id
	mv, err := h.svc.Replenish(r.Context(), callerFrom(r), cmd)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newMovementViews([]inventory.Movement{mv})[0])
}

func (h *handlers) adjustments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	list, err := h.svc.ItemAdjustments(r.Context(), callerFrom(r), id, queryInt(r, "limit", 100))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newAdjustmentViews(list))
}

/* categories */

func (h *handlers) listCategories(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Categories(r.Context(), callerFrom(r))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	out := make([]categoryView, 0, len(list))
	for i := range list {
		out = append(out, newCategoryView(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) getCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	cat, err := h.svc.Category(r.Context(), callerFrom(r), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newCategoryView(cat))
}

func (h *handlers) setCategoryActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	var body struct {
		Active *bool `json:"active"`
	}
	if err := decode(w, r, &body); err != nil {
		writeError(w, h.log, err)
		return
	}
	if body.Active == nil {
		writeError(w, h.log, errs.Invalid("active", "is required"))
		return
	}
	cat, err := h.svc.SetCategoryActive(r.Context(), callerFrom(r), id, *body.Active)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newCategoryView(cat))
}

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *handlers) exportStock(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.ExportStock(r.Context(), callerFrom(r))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	w.Header().Set("Content-Type", xlsxType)
	w.Header().Set("Content-Disposition", `attachment; filename="stock.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// importStock accepts the sheet either as the raw body or as the "file"
// part of a multipart form.
func (h *handlers) importStock(w http.ResponseWriter, r *http.Request) {
	const maxFile = 10 << 20
	var src io.Reader = http.MaxBytesReader(w, r.Body, maxFile)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(maxFile); err != nil {
			writeError(w, h.log, errs.Invalid("file", "bad multipart form"))
			return
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, h.log, errs.Invalid("file", "is required"))
			return
		}
		defer func() { _ = f.Close() }()
		src = f
	}
	data, err := io.ReadAll(src)
	if err != nil {
		writeError(w, h.log, errs.Invalid("file", "could not be read"))
		return
	}

	res, err := h.svc.ImportStocktake(r.Context(), callerFrom(r), data)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"counted":   res.Counted,
		"unchanged": res.Unchanged,
		"movements": newMovementViews(res.Movements),
	})
}
