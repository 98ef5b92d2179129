package entitlements

import (
	"github.com/ticketcare/ticketcare/app/models"
)

type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

// EventPlan returns the plan an event is on.
func EventPlan(event *models.Event) Plan {
	if event.IsPremiumEvent {
		return PlanPremium
	}
	return PlanFree
}

// TicketCap combines the plan and the stored per-event cap to compute the
// effective ticket limit. Free events are always clamped to the free tier
// cap, whatever the row says; premium events sell up to their purchased cap.
func TicketCap(event *models.Event) int {
	cap := event.MaxTicketsPerEvent
	if EventPlan(event) == PlanFree && cap > models.FreeTierMaxTickets {
		return models.FreeTierMaxTickets
	}
	if cap <= 0 {
		return models.FreeTierMaxTickets
	}
	return cap
}

// Remaining reports how many tickets the event can still sell under its
// effective cap.
func Remaining(event *models.Event) int {
	remaining := TicketCap(event) - event.TicketsSold
	if remaining < 0 {
		return 0
	}
	return remaining
}
