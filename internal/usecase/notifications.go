package usecase

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Spok95/pressops/internal/domain/alerts"
	"github.com/Spok95/pressops/internal/domain/inventory"
	"github.com/Spok95/pressops/internal/domain/jobs"
	"github.com/Spok95/pressops/internal/domain/payments"
	"github.com/Spok95/pressops/internal/domain/units"
	"github.com/Spok95/pressops/internal/infra/notify"
)

// stockNotification turns a movement into at most one alert. A shortage
// always wins; otherwise only a move into a worse band is reported.
func stockNotification(mv inventory.Movement) (notify.Notification, bool) {
	left := units.ToDisplay(mv.StockAfter, mv.PerUnit)
	if mv.Short() {
		return notify.Notification{
			Title: "Insufficient stock: " + mv.MaterialName,
			Message: fmt.Sprintf("Requested %s, took %s, missing %s. %s left.",
				units.ToDisplay(mv.Requested, mv.PerUnit),
				units.ToDisplay(mv.Actual, mv.PerUnit),
				units.ToDisplay(mv.Shortage, mv.PerUnit),
				left),
			Type:            notify.TypeShortage,
			RelatedEntityID: mv.MaterialID,
			Priority:        alerts.PriorityHigh,
		}, true
	}
	if !mv.Worsened() {
		return notify.Notification{}, false
	}

	title := "Low stock: " + mv.MaterialName
	if mv.After.Status == alerts.StatusCritical {
		title = "Critical stock: " + mv.MaterialName
	}
	return notify.Notification{
		Title: title,
		Message: fmt.Sprintf("%s left (%d%% of threshold %s).",
			left, mv.After.Percentage, units.ToDisplay(mv.Threshold, mv.PerUnit)),
		Type:            notify.TypeLowStock,
		RelatedEntityID: mv.MaterialID,
		Priority:        mv.After.Priority,
	}, true
}

func statusNotification(j *jobs.Job, from jobs.Status) notify.Notification {
	return notify.Notification{
		Title:           "Job " + j.Ticket + " is " + string(j.Status),
		Message:         fmt.Sprintf("Status changed from %s to %s.", from, j.Status),
		Type:            notify.TypeStatusChange,
		RelatedEntityID: j.ID,
		Priority:        alerts.PriorityMedium,
	}
}

func paymentNotification(j *jobs.Job, p *payments.Payment) notify.Notification {
	prio := alerts.PriorityLow
	title := "Payment received for " + j.Ticket
	if j.PaymentStatus == alerts.PaymentFullyPaid {
		prio = alerts.PriorityMedium
		title = "Job " + j.Ticket + " fully paid"
	}
	return notify.Notification{
		Title: title,
		Message: fmt.Sprintf("%s %s (%s), receipt %s. Balance %s.",
			money(p.Amount), p.Type, p.Method, p.Receipt, money(j.Balance)),
		Type:            notify.TypePayment,
		RelatedEntityID: j.ID,
		Priority:        prio,
	}
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }
