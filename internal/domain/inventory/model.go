package inventory

import (
	"time"

	"github.com/Spok95/pressops/internal/domain/alerts"
)

type Kind string

const (
	KindConsume    Kind = "consume"
	KindReplenish  Kind = "replenish"
	KindCorrection Kind = "correction"
	KindStocktake  Kind = "stocktake"
)

// Adjustment is one row of the stock trail. Every change to an item's
// stock leaves exactly one.
type Adjustment struct {
	ID         int64
	MaterialID int64
	Kind       Kind
	Delta      int64
	StockAfter int64
	JobID      int64
	Reason     string
	ActorID    int64
	CreatedAt  time.Time
}

// Note says who moved stock and why.
type Note struct {
	ActorID int64
	JobID   int64
	Reason  string
}

// Movement is the outcome of one ledger call.
type Movement struct {
	MaterialID   int64
	MaterialName string
	PerUnit      int64
	Threshold    int64
	Requested    int64
	Actual       int64
	StockBefore  int64
	StockAfter   int64
	Shortage     int64
	Before       alerts.StockCheck
	After        alerts.StockCheck
}

func (m Movement) Short() bool { return m.Shortage > 0 }

// Worsened reports whether the item fell into a worse stock band.
func (m Movement) Worsened() bool { return alerts.Worsened(m.Before.Status, m.After.Status) }
