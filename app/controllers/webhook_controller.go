package controllers

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketcare/ticketcare/app/models"
	"github.com/ticketcare/ticketcare/internal/pkg/analytics"
	"github.com/ticketcare/ticketcare/internal/pkg/cache"
	"github.com/ticketcare/ticketcare/internal/pkg/chip"
	"github.com/ticketcare/ticketcare/internal/pkg/database"
	"github.com/ticketcare/ticketcare/internal/pkg/env"
	"github.com/ticketcare/ticketcare/internal/pkg/mail"
	"github.com/ticketcare/ticketcare/internal/pkg/payments"
)

// WebhookConfig carries everything the webhook endpoint needs, resolved once
// at install time instead of read from the environment per request.
type WebhookConfig struct {
	// PublicKeyPEM verifies the gateway's x-signature header. Empty means
	// the endpoint is soft-disabled: it acknowledges deliveries without
	// processing them.
	PublicKeyPEM string
}

// WebhookController reconciles CHIP webhook deliveries against orders and
// premium upgrades.
type WebhookController struct {
	cfg       WebhookConfig
	svc       *payments.Service
	analytics *analytics.Client

	// invalidatePages and sendConfirmation are swappable so handler tests
	// need neither Redis nor an SMTP server.
	invalidatePages  func(slug string)
	sendConfirmation func(order *models.Order) error
}

var webhookController *WebhookController

// InitializeWebhookController wires the webhook controller against the
// global DB handle and environment-derived config.
func InitializeWebhookController() {
	webhookController = NewWebhookController(
		WebhookConfig{PublicKeyPEM: env.GetEnv("CHIP_WEBHOOK_PUBLIC_KEY", "")},
		payments.NewServiceFromDB(database.GetDB()),
		analytics.NewClientFromEnv(),
	)
}

// NewWebhookController creates a webhook controller with explicit
// dependencies.
func NewWebhookController(cfg WebhookConfig, svc *payments.Service, ac *analytics.Client) *WebhookController {
	return &WebhookController{
		cfg:              cfg,
		svc:              svc,
		analytics:        ac,
		invalidatePages:  cache.InvalidateEventPages,
		sendConfirmation: mail.SendOrderConfirmation,
	}
}

// HandleChipWebhook is the Fiber handler for POST /api/webhooks/chip.
func HandleChipWebhook(c *fiber.Ctx) error {
	return webhookController.Handle(c)
}

// Handle processes one webhook delivery. Response contract:
//
//	missing public key          -> 200 {message:"Not configured", ok:false}
//	missing signature or body   -> 500 {ok:false}
//	invalid signature           -> 401 {ok:false}
//	unparseable JSON            -> 500 {ok:false}
//	duplicate delivery          -> 200 {ok:true, duplicate:true}
//	handler error               -> 500 (gateway redelivers)
//	anything else               -> 200 {result:<payload>, ok:true}
func (wc *WebhookController) Handle(c *fiber.Ctx) error {
	if strings.TrimSpace(wc.cfg.PublicKeyPEM) == "" {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Not configured", "ok": false})
	}

	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get("x-signature"))
	if len(rawBody) == 0 || signature == "" {
		log.Print("webhook: delivery rejected, missing body or signature header")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false})
	}

	// Verification happens before anything touches the database, so a
	// forged delivery cannot leave a trace.
	if !chip.VerifyWebhookSignature(rawBody, signature, wc.cfg.PublicKeyPEM) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"ok": false, "error": "invalid_signature"})
	}

	purchase, err := chip.ParsePurchase(rawBody)
	if err != nil {
		log.Printf("webhook: unparseable payload: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false})
	}

	kind, rawStatus := chip.ClassifyStatus(purchase.Status)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	created, stored, err := wc.svc.RecordWebhookEvent(ctx, payments.WebhookEventInput{
		Provider:        models.WebhookProviderChip,
		ProviderEventID: purchase.ID + ":" + rawStatus,
		EventType:       rawStatus,
		PayloadJSON:     string(rawBody),
		SignatureValid:  true,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "webhook_persist_failed"})
	}
	if !created && stored.ProcessedAt != nil && stored.ProcessingError == "" {
		// Only deliveries that finished cleanly are duplicates. A redelivery
		// after a reconciliation failure runs again; the guarded updates
		// below keep the rerun idempotent.
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	}

	var result *payments.Result
	var handlerErr error
	switch kind {
	case chip.EventPaid:
		result, handlerErr = wc.svc.HandlePaid(ctx, purchase)
	case chip.EventFailed:
		result, handlerErr = wc.svc.HandleFailed(ctx, purchase)
	case chip.EventCanceled:
		result, handlerErr = wc.svc.HandleCanceled(ctx, purchase)
	case chip.EventPending, chip.EventViewed:
		log.Printf("webhook: %s for purchase %s, nothing to reconcile", rawStatus, purchase.ID)
	default:
		log.Printf("webhook: unhandled chip status %q for purchase %s", rawStatus, purchase.ID)
	}

	_ = wc.svc.MarkWebhookProcessed(ctx, stored.ID, handlerErr)
	if handlerErr != nil {
		log.Printf("webhook: reconciliation failed for purchase %s: %v", purchase.ID, handlerErr)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "reconciliation_failed"})
	}

	if result != nil {
		wc.afterReconciliation(kind, purchase, result)
	}
	wc.analytics.Flush()

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"result": purchase, "ok": true})
}

func (wc *WebhookController) afterReconciliation(kind chip.EventKind, purchase *chip.Purchase, result *payments.Result) {
	if result.Outcome != payments.OutcomeApplied {
		return
	}

	if result.Upgrade != nil {
		if result.Upgrade.Event != nil {
			wc.invalidatePages(result.Upgrade.Event.Slug)
		}
		wc.analytics.Capture(analytics.EventUpgradedToPremium, "upgrade:"+result.Upgrade.ID, map[string]interface{}{
			"payment_id":      purchase.ID,
			"event_id":        result.Upgrade.EventID,
			"premium_tier_id": result.Upgrade.PremiumTierID,
			"amount":          purchase.AmountMajor(),
			"currency":        purchase.Currency(),
		})
		return
	}

	order := result.Order
	if order == nil {
		return
	}

	eventName := analytics.EventPaymentCompleted
	switch kind {
	case chip.EventFailed:
		eventName = analytics.EventPaymentFailed
	case chip.EventCanceled:
		eventName = analytics.EventPaymentCanceled
	}

	if kind == chip.EventPaid {
		go func(o *models.Order) {
			if err := wc.sendConfirmation(o); err != nil {
				log.Printf("webhook: confirmation mail for order %s: %v", o.Reference, err)
			}
		}(order)
	}

	isPremium := false
	if order.Event != nil {
		isPremium = order.Event.IsPremiumEvent
	}
	wc.analytics.Capture(eventName, "order:"+order.Reference, map[string]interface{}{
		"payment_id":       purchase.ID,
		"order_id":         order.ID,
		"event_id":         order.EventID,
		"amount":           purchase.AmountMajor(),
		"payment_method":   purchase.LastPaymentMethod(),
		"currency":         purchase.Currency(),
		"is_premium_event": isPremium,
	})
}
