package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Spok95/pressops/internal/infra/metrics"
)

type Deps struct {
	Ledger  Ledger
	Log     *slog.Logger
	Metrics *metrics.Metrics
	// Keys enables Idempotency-Key handling on mutating calls.
	Keys          KeyStore
	KeyTTL        time.Duration
	ExposeMetrics bool
	// VerifyUsers resolves roles through Ledger.Identify.
	VerifyUsers bool
}

func NewRouter(d Deps) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	if d.ExposeMetrics {
		router.Handle("/metrics", promhttp.Handler())
	}

	api := router.PathPrefix("/api").Subrouter()
	api.Use(instrument(d.Metrics))
	if d.VerifyUsers {
		api.Use(identify(d.Ledger, d.Log))
	}
	if d.Keys != nil {
		ttl := d.KeyTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		api.Use(Idempotency(d.Keys, ttl, d.Log))
	}

	h := &handlers{svc: d.Ledger, log: d.Log}

	api.HandleFunc("/users", h.registerUser).Methods(http.MethodPost)
	api.HandleFunc("/customers", h.createCustomer).Methods(http.MethodPost)

	api.HandleFunc("/jobs", h.createJob).Methods(http.MethodPost)
	api.HandleFunc("/jobs", h.listJobs).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id:[0-9]+}", h.getJob).Methods(http.MethodGet)
	api.HandleFunc("/jobs/by-ticket/{ticket}", h.jobByTicket).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id:[0-9]+}/history", h.jobHistory).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id:[0-9]+}/status", h.transitionJob).Methods(http.MethodPost)
	api.HandleFunc("/jobs/{id:[0-9]+}/materials", h.recordMaterials).Methods(http.MethodPost)
	api.HandleFunc("/jobs/{id:[0-9]+}/materials", h.updateMaterials).Methods(http.MethodPut)
	api.HandleFunc("/jobs/{id:[0-9]+}/total", h.editTotal).Methods(http.MethodPut)
	api.HandleFunc("/jobs/{id:[0-9]+}/recompute", h.recompute).Methods(http.MethodPost)
	api.Handle("/jobs/{id:[0-9]+}/payments", NewPaymentHandler(d.Log, d.Ledger)).Methods(http.MethodPost)

	api.HandleFunc("/materials", h.createMaterial).Methods(http.MethodPost)
	api.HandleFunc("/materials", h.listMaterials).Methods(http.MethodGet)
	api.HandleFunc("/materials/{id:[0-9]+}", h.getMaterial).Methods(http.MethodGet)
	api.HandleFunc("/materials/{id:[0-9]+}", h.updatePricing).Methods(http.MethodPatch)
	api.HandleFunc("/materials/{id:[0-9]+}", h.deactivateMaterial).Methods(http.MethodDelete)
	api.HandleFunc("/materials/{id:[0-9]+}/replenish", h.replenish).Methods(http.MethodPost)
	api.HandleFunc("/materials/{id:[0-9]+}/adjustments", h.adjustments).Methods(http.MethodGet)

	api.HandleFunc("/categories", h.listCategories).Methods(http.MethodGet)
	api.HandleFunc("/categories/{id:[0-9]+}", h.getCategory).Methods(http.MethodGet)
	api.HandleFunc("/categories/{id:[0-9]+}/active", h.setCategoryActive).Methods(http.MethodPut)

	api.HandleFunc("/stock/export", h.exportStock).Methods(http.MethodGet)
	api.HandleFunc("/stock/import", h.importStock).Methods(http.MethodPost)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(otelhttp.NewHandler(router, "pressops-http"))
}
