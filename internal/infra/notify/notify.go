// Package notify fans ledger signals out to sinks after the owning
// transaction has committed. Delivery is best effort; a failing sink is
// logged and counted, never reported back to the caller.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/pressops/internal/domain/alerts"
	"github.com/Spok95/pressops/internal/infra/metrics"
)

type Type string

const (
	TypeLowStock     Type = "low_stock"
	TypeShortage     Type = "shortage"
	TypeStatusChange Type = "status_change"
	TypePayment      Type = "payment"
)

type Notification struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Message         string          `json:"message"`
	Type            Type            `json:"type"`
	RelatedEntityID int64           `json:"related_entity_id"`
	Priority        alerts.Priority `json:"priority"`
	CreatedAt       time.Time       `json:"created_at"`
}

type Sink interface {
	Name() string
	Send(ctx context.Context, n Notification) error
}

// Notifier is what use cases depend on.
type Notifier interface {
	Dispatch(ctx context.Context, ns ...Notification)
}

type Dispatcher struct {
	sinks   []Sink
	log     *slog.Logger
	metrics *metrics.Metrics
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(log *slog.Logger, m *metrics.Metrics, sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks, log: log, metrics: m, timeout: 10 * time.Second}
}

// Dispatch returns immediately. Deliveries outlive the request context but
// not the dispatcher's timeout.
func (d *Dispatcher) Dispatch(ctx context.Context, ns ...Notification) {
	base := context.WithoutCancel(ctx)
	for _, n := range ns {
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = time.Now()
		}
		for _, s := range d.sinks {
			d.wg.Add(1)
			go d.deliver(base, s, n)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, s Sink, n Notification) {
	defer d.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("notification sink panicked", "sink", s.Name(), "id", n.ID, "panic", fmt.Sprint(r))
			d.count(s.Name(), "panic")
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := s.Send(ctx, n); err != nil {
		d.log.Error("notification delivery failed",
			"sink", s.Name(), "id", n.ID, "type", n.Type, "entity_id", n.RelatedEntityID, "err", err)
		d.count(s.Name(), "error")
		return
	}
	d.count(s.Name(), "ok")
}

func (d *Dispatcher) count(sink, outcome string) {
	if d.metrics != nil {
		d.metrics.Notifications.WithLabelValues(sink, outcome).Inc()
	}
}

// Wait blocks until in-flight deliveries finish. Used on shutdown.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// LogSink writes notifications to the process log.
type LogSink struct{ log *slog.Logger }

func NewLogSink(log *slog.Logger) *LogSink { return &LogSink{log: log} }

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Send(_ context.Context, n Notification) error {
	lvl := slog.LevelInfo
	if n.Priority == alerts.PriorityHigh {
		lvl = slog.LevelWarn
	}
	s.log.Log(context.Background(), lvl, n.Title,
		"id", n.ID, "type", n.Type, "priority", n.Priority, "entity_id", n.RelatedEntityID, "message", n.Message)
	return nil
}
