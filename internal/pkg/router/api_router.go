package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ticketcare/ticketcare/app/controllers"
	"github.com/ticketcare/ticketcare/internal/pkg/constants"
	"github.com/ticketcare/ticketcare/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api")

	// The gateway retries aggressively on non-200 answers; webhooks stay
	// outside the rate limiter so redeliveries are never throttled into
	// permanent failure.
	api.Post(constants.ChipWebhookPath, controllers.HandleChipWebhook)

	limited := api.Group("", limiter.New())
	limited.Post(constants.CheckoutPath, controllers.HandleCheckout)

	organizer := limited.Group(constants.OrganizerPrefix, middleware.APIKeyAuthMiddleware())
	organizer.Get("/events", controllers.HandleOrganizerEvents)
	organizer.Get("/orders", controllers.HandleOrganizerOrders)
	organizer.Get("/stats", controllers.HandleOrganizerStats)
	organizer.Post("/events/:slug/upgrade", controllers.HandleUpgradeCheckout)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
