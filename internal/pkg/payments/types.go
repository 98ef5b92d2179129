package payments

import "github.com/ticketcare/ticketcare/app/models"

// Outcome describes what a reconciliation handler actually did, so the
// webhook controller can pick the HTTP answer and the analytics event.
type Outcome int

const (
	// OutcomeApplied means the handler mutated order/event/upgrade state.
	OutcomeApplied Outcome = iota
	// OutcomeAlreadyApplied means the correlated record was already in the
	// target state; nothing was written (duplicate or out-of-order delivery).
	OutcomeAlreadyApplied
	// OutcomeNotFound means no order and no upgrade matched the payment id.
	// Benign: deliveries can duplicate or race replica visibility.
	OutcomeNotFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeAlreadyApplied:
		return "already_applied"
	default:
		return "not_found"
	}
}

// Result carries the outcome plus whichever record the handler resolved.
// Exactly one of Order/Upgrade is set when the outcome is not NotFound.
type Result struct {
	Outcome Outcome
	Order   *models.Order
	Upgrade *models.EventPremiumUpgrade
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
}
