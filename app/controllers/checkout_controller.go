package controllers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ticketcare/ticketcare/app/models"
	"github.com/ticketcare/ticketcare/app/repository"
	"github.com/ticketcare/ticketcare/internal/pkg/analytics"
	"github.com/ticketcare/ticketcare/internal/pkg/chip"
	"github.com/ticketcare/ticketcare/internal/pkg/entitlements"
	"github.com/ticketcare/ticketcare/internal/pkg/env"
	"github.com/ticketcare/ticketcare/internal/pkg/usercontext"
)

// CheckoutRequest is the storefront cart submission.
type CheckoutRequest struct {
	EventSlug string              `json:"event_slug" validate:"required"`
	Buyer     CheckoutBuyer       `json:"buyer" validate:"required"`
	Items     []CheckoutItemInput `json:"items" validate:"required,min=1,dive"`
}

type CheckoutBuyer struct {
	Name  string `json:"name" validate:"required,min=3,max=150"`
	Email string `json:"email" validate:"required,email"`
}

type CheckoutItemInput struct {
	Label    string `json:"label" validate:"required,max=100"`
	Quantity int    `json:"quantity" validate:"gt=0,lte=20"`
}

// HandleCheckout creates a pending order, registers the purchase with the
// gateway and hands the buyer its hosted checkout URL. The order stays
// pending until the webhook reconciles the payment.
func HandleCheckout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "Malformed checkout payload"})
	}
	if err := validator.New().Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": err.Error()})
	}

	repos := repository.GetGlobalRepositories()

	event, err := repos.Event.GetBySlug(strings.TrimSpace(req.EventSlug))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "event_lookup_failed"})
	}
	if !event.IsPublished {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event_not_found"})
	}

	quantity := 0
	for _, item := range req.Items {
		quantity += item.Quantity
	}
	// Capacity is checked here; the counter itself is only advanced by the
	// payment reconciliation path.
	if quantity > entitlements.Remaining(event) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     "sold_out",
			"remaining": entitlements.Remaining(event),
		})
	}

	buyer, err := resolveBuyer(repos.User, req.Buyer)
	if err != nil {
		log.Printf("checkout: buyer resolution failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "buyer_resolution_failed"})
	}

	total := event.TicketPrice * int64(quantity)
	products := make([]chip.Product, 0, len(req.Items))
	items := make([]models.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		products = append(products, chip.Product{
			Name:     item.Label,
			Category: "ticket",
			Price:    event.TicketPrice,
			Quantity: item.Quantity,
		})
		items = append(items, models.OrderItem{
			Label:     item.Label,
			Quantity:  item.Quantity,
			UnitPrice: event.TicketPrice,
		})
	}

	reference := uuid.NewString()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	client := chip.NewClientFromEnv()
	purchase, err := client.CreatePurchase(ctx, chip.CreatePurchaseRequest{
		Client: chip.PurchaseClient{Email: buyer.Email, FullName: buyer.Name},
		Purchase: chip.PurchaseDetails{
			Total:    total,
			Currency: event.Currency,
			Products: products,
		},
		Reference:       reference,
		SuccessRedirect: checkoutRedirectURL("success", reference),
		FailureRedirect: checkoutRedirectURL("failed", reference),
	})
	if err != nil {
		log.Printf("checkout: gateway purchase creation failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "gateway_unavailable"})
	}

	order := &models.Order{
		Reference:     reference,
		UserID:        buyer.ID,
		EventID:       event.ID,
		TransactionID: purchase.ID,
		PaymentStatus: models.PaymentStatusPending,
		TotalAmount:   total,
		Currency:      event.Currency,
		Items:         items,
	}
	if err := repos.Order.Create(order); err != nil {
		log.Printf("checkout: order persistence failed for purchase %s: %v", purchase.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "order_create_failed"})
	}

	ac := analytics.NewClientFromEnv()
	ac.Capture(analytics.EventCheckoutStarted, "order:"+reference, map[string]interface{}{
		"event_id": event.ID,
		"tickets":  quantity,
		"amount":   float64(total) / 100.0,
		"currency": event.Currency,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"reference":    reference,
		"checkout_url": purchase.CheckoutURL,
		"ok":           true,
	})
}

// HandleUpgradeCheckout starts a premium-tier purchase for one of the
// organizer's events. The pending upgrade is keyed by the gateway purchase
// id so the webhook can complete it without a separate correlation table.
func HandleUpgradeCheckout(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req struct {
		TierID uint `json:"tier_id" validate:"gt=0"`
	}
	if err := c.BodyParser(&req); err != nil || req.TierID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}

	repos := repository.GetGlobalRepositories()

	event, err := repos.Event.GetBySlug(c.Params("slug"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "event_lookup_failed"})
	}
	if event.OrganizerID != userCtx.UserID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
	}

	tier, err := repos.Tier.GetByID(req.TierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "tier_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "tier_lookup_failed"})
	}
	if !tier.IsActive {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "tier_not_found"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	client := chip.NewClientFromEnv()
	purchase, err := client.CreatePurchase(ctx, chip.CreatePurchaseRequest{
		Client: chip.PurchaseClient{Email: userCtx.Email, FullName: userCtx.Username},
		Purchase: chip.PurchaseDetails{
			Total:    tier.PriceAmount,
			Currency: tier.Currency,
			Products: []chip.Product{{
				Name:     tier.Name,
				Category: chip.ProductCategoryPremiumTier,
				Price:    tier.PriceAmount,
				Quantity: 1,
			}},
		},
		Reference: fmt.Sprintf("upgrade:%d:%d", event.ID, tier.ID),
	})
	if err != nil {
		log.Printf("upgrade checkout: gateway purchase creation failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "gateway_unavailable"})
	}

	upgrade := &models.EventPremiumUpgrade{
		ID:            purchase.ID,
		EventID:       event.ID,
		PremiumTierID: tier.ID,
		OrganizerID:   userCtx.UserID,
		Amount:        tier.PriceAmount,
		Currency:      tier.Currency,
		Status:        models.UpgradeStatusPending,
	}
	if err := repos.Upgrade.Create(upgrade); err != nil {
		log.Printf("upgrade checkout: upgrade persistence failed for purchase %s: %v", purchase.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "upgrade_create_failed"})
	}

	ac := analytics.NewClientFromEnv()
	ac.Capture(analytics.EventPremiumCheckoutStarted, "upgrade:"+purchase.ID, map[string]interface{}{
		"event_id": event.ID,
		"tier_id":  tier.ID,
		"amount":   float64(tier.PriceAmount) / 100.0,
		"currency": tier.Currency,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"upgrade_id":   purchase.ID,
		"checkout_url": purchase.CheckoutURL,
		"ok":           true,
	})
}

// resolveBuyer finds the account for a storefront email or lazily creates a
// guest one with a throwaway password.
func resolveBuyer(users repository.UserRepository, buyer CheckoutBuyer) (*models.User, error) {
	existing, err := users.GetByEmail(strings.ToLower(strings.TrimSpace(buyer.Email)))
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	pw := make([]byte, 16)
	if _, err := rand.Read(pw); err != nil {
		return nil, err
	}
	user, err := models.CreateUser(buyer.Name, strings.ToLower(strings.TrimSpace(buyer.Email)), hex.EncodeToString(pw))
	if err != nil {
		return nil, err
	}
	if err := users.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func checkoutRedirectURL(outcome, reference string) string {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	if base == "" {
		return ""
	}
	return fmt.Sprintf("%s/checkout/%s?ref=%s", base, outcome, reference)
}
