package http

import (
	"log/slog"
	"net/http"

	"github.com/Spok95/pressops/internal/usecase"
)

// PaymentHandler books a payment against a job:
// POST /api/jobs/{id}/payments {"amount": "4000", "type": "deposit", "method": "cash"}.
type PaymentHandler struct {
	log *slog.Logger
	svc Ledger
}

func NewPaymentHandler(log *slog.Logger, svc Ledger) *PaymentHandler {
	return &PaymentHandler{log: log, svc: svc}
}

func (h *PaymentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	jobID, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	var cmd usecase.RecordPayment
	if err := decode(w, r, &cmd); err != nil {
		writeError(w, h.log, err)
		return
	}
	cmd.JobID = jobID

	p, j, err := h.svc.RecordPayment(ctx, callerFrom(r), cmd)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"payment": newPaymentView(*p),
		"job":     newJobView(j),
	})
}
