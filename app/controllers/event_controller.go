package controllers

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ticketcare/ticketcare/app/models"
	"github.com/ticketcare/ticketcare/app/repository"
	"github.com/ticketcare/ticketcare/internal/pkg/cache"
	"github.com/ticketcare/ticketcare/internal/pkg/entitlements"
	"github.com/ticketcare/ticketcare/internal/pkg/metrics/counter"
)

const storefrontPageSize = 24

// eventSummary is the storefront projection of an event. Organizer-only
// fields (view counts, raw sold counters) stay out of the public payload;
// availability is reduced to a remaining-seats figure.
type eventSummary struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Venue       string `json:"venue"`
	StartsAt    string `json:"starts_at"`
	TicketPrice int64  `json:"ticket_price"`
	Currency    string `json:"currency"`
	Remaining   int    `json:"remaining"`
	IsPremium   bool   `json:"is_premium"`
}

func summarizeEvent(event *models.Event) eventSummary {
	return eventSummary{
		Title:       event.Title,
		Slug:        event.Slug,
		Venue:       event.Venue,
		StartsAt:    event.StartsAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		TicketPrice: event.TicketPrice,
		Currency:    event.Currency,
		Remaining:   entitlements.Remaining(event),
		IsPremium:   event.IsPremiumEvent,
	}
}

// HandleEventIndex serves the public event listing, cached in Redis.
func HandleEventIndex(c *fiber.Ctx) error {
	if cached, err := cache.Get(cache.EventListKey()); err == nil && cached != "" {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(cached)
	}

	events, err := repository.GetGlobalRepositories().Event.GetPublished(0, storefrontPageSize)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "event_list_failed"})
	}

	summaries := make([]eventSummary, 0, len(events))
	for i := range events {
		summaries = append(summaries, summarizeEvent(&events[i]))
	}

	body, err := json.Marshal(fiber.Map{"events": summaries, "ok": true})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "event_list_failed"})
	}
	_ = cache.SetEventList(body)

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

// HandleEventDetail serves a single public event page, cached by slug. The
// page-view counter accumulates in Redis and is flushed to MySQL in batches.
func HandleEventDetail(c *fiber.Ctx) error {
	slug := c.Params("slug")

	if cached, err := cache.GetEventPage(slug); err == nil && cached != "" {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(cached)
	}

	event, err := repository.GetGlobalRepositories().Event.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "event_lookup_failed"})
	}
	if !event.IsPublished {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event_not_found"})
	}

	if err := counter.AddEventView(event.ID); err != nil {
		log.Printf("storefront: view counter for event %d failed: %v", event.ID, err)
	}

	summary := summarizeEvent(event)
	body, err := json.Marshal(fiber.Map{
		"event":       summary,
		"description": event.Description,
		"ok":          true,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "event_lookup_failed"})
	}
	_ = cache.SetEventPage(slug, body)

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}
