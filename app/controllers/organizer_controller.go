package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ticketcare/ticketcare/app/repository"
	"github.com/ticketcare/ticketcare/internal/pkg/statistics"
	"github.com/ticketcare/ticketcare/internal/pkg/usercontext"
)

// HandleOrganizerEvents lists the authenticated organizer's events with
// their sold counters and premium state.
func HandleOrganizerEvents(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	events, err := repository.GetGlobalRepositories().Event.GetByOrganizerID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "event_list_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"events": events, "ok": true})
}

// HandleOrganizerOrders lists orders for one of the organizer's events.
func HandleOrganizerOrders(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	eventID, err := strconv.ParseUint(c.Query("event"), 10, 32)
	if err != nil || eventID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "event query parameter required"})
	}

	repos := repository.GetGlobalRepositories()
	event, err := repos.Event.GetByID(uint(eventID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "event_lookup_failed"})
	}
	if event.OrganizerID != userCtx.UserID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
	}

	offset := parseOffset(c.Query("offset"))
	orders, err := repos.Order.GetByEventID(event.ID, offset, 50)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "order_list_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"orders": orders, "ok": true})
}

// HandleOrganizerStats serves cached dashboard aggregates.
func HandleOrganizerStats(c *fiber.Ctx) error {
	statistics.UpdateCacheIfNeeded()

	stats, err := statistics.GetDashboardStats()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "stats_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"stats": stats, "ok": true})
}
