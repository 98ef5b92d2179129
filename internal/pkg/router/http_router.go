package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ticketcare/ticketcare/app/controllers"
	"github.com/ticketcare/ticketcare/app/repository"
	"github.com/ticketcare/ticketcare/internal/pkg/constants"
	"github.com/ticketcare/ticketcare/internal/pkg/database"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Initialize the global repository factory before any controller runs.
	repository.InitializeFactory(database.GetDB())

	// Initialize webhook controller with its injected config
	controllers.InitializeWebhookController()

	app.Get(constants.HealthRoute, func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	// Public storefront
	app.Get(constants.EventsRoute, controllers.HandleEventIndex)
	app.Get(constants.EventDetailRoute, controllers.HandleEventDetail)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
