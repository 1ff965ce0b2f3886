// Package metrics holds the ledger's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Operations    *prometheus.CounterVec
	OpLatency     *prometheus.HistogramVec
	StockMoved    *prometheus.CounterVec
	Shortages     *prometheus.CounterVec
	Payments      prometheus.Counter
	PaymentAmount prometheus.Counter
	Notifications *prometheus.CounterVec
	HTTPRequests  *prometheus.CounterVec
	HTTPLatency   *prometheus.HistogramVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pressops",
			Name:      "ledger_operations_total",
			Help:      "Ledger use cases by operation and outcome.",
		}, []string{"operation", "outcome"}),
		OpLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pressops",
			Name:      "ledger_operation_duration_seconds",
			Help:      "Ledger use case latency including the transaction.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		StockMoved: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pressops",
			Name:      "stock_sheets_moved_total",
			Help:      "Sheets moved in or out of stock.",
		}, []string{"direction"}),
		Shortages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pressops",
			Name:      "stock_shortages_total",
			Help:      "Consumptions that could not be served in full.",
		}, []string{"material"}),
		Payments: f.NewCounter(prometheus.CounterOpts{
			Namespace: "pressops",
			Name:      "payments_total",
			Help:      "Payments recorded.",
		}),
		PaymentAmount: f.NewCounter(prometheus.CounterOpts{
			Namespace: "pressops",
			Name:      "payments_amount_total",
			Help:      "Sum of recorded payment amounts.",
		}),
		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pressops",
			Name:      "notifications_total",
			Help:      "Notification deliveries by sink and outcome.",
		}, []string{"sink", "outcome"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pressops",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pressops",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// Outcome maps an error to a low-cardinality label.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
