package constants

// Static route constants
const (
	HealthRoute      = "/healthz"
	EventsRoute      = "/events"
	EventDetailRoute = "/events/:slug"

	// Paths below are relative to the /api group
	ChipWebhookPath = "/webhooks/chip"
	CheckoutPath    = "/checkout"
	OrganizerPrefix = "/organizer"
)
