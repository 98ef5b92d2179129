package payments

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"strings"

	"github.com/ticketcare/ticketcare/app/models"
	"github.com/ticketcare/ticketcare/internal/pkg/chip"
	"gorm.io/gorm"
)

// Service reconciles gateway webhook events against orders and premium
// upgrades. All lookups correlate through the gateway purchase id.
type Service struct {
	repo Repository
}

// NewService creates a payments service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a payments service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// RecordWebhookEvent persists webhook payloads idempotently. When the
// gateway sends no usable event id the payload hash stands in for it.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.WebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.WebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}

// HandlePaid applies a completed payment. Premium-tier purchases never touch
// the order tables; they route straight to the upgrade path.
func (s *Service) HandlePaid(ctx context.Context, purchase *chip.Purchase) (*Result, error) {
	if purchase.IsPremiumTierPurchase() {
		return s.HandlePremiumUpgrade(ctx, purchase.ID)
	}

	order, err := s.repo.GetOrderByTransactionID(purchase.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// A payment id with no order may still be an upgrade purchase
			// whose product category got lost on the gateway side.
			return s.HandlePremiumUpgrade(ctx, purchase.ID)
		}
		return nil, err
	}

	ticketCount := purchase.TicketCount()
	if ticketCount == 0 {
		ticketCount = order.TicketCount()
	}

	applied, err := s.repo.CompleteOrderPayment(order, purchase.LastPaymentMethod(), ticketCount)
	if err != nil {
		return nil, err
	}
	if !applied {
		log.Printf("payments: order %d already paid, skipping (purchase %s)", order.ID, purchase.ID)
		return &Result{Outcome: OutcomeAlreadyApplied, Order: order}, nil
	}

	order.PaymentStatus = models.PaymentStatusPaid
	order.PaymentMethod = purchase.LastPaymentMethod()
	return &Result{Outcome: OutcomeApplied, Order: order}, nil
}

// HandleFailed records a failed payment attempt. Counters stay untouched
// since none were applied for a non-paid order.
func (s *Service) HandleFailed(ctx context.Context, purchase *chip.Purchase) (*Result, error) {
	return s.setTerminalStatus(ctx, purchase, models.PaymentStatusFailed)
}

// HandleCanceled records a canceled payment.
func (s *Service) HandleCanceled(ctx context.Context, purchase *chip.Purchase) (*Result, error) {
	return s.setTerminalStatus(ctx, purchase, models.PaymentStatusCanceled)
}

func (s *Service) setTerminalStatus(ctx context.Context, purchase *chip.Purchase, status string) (*Result, error) {
	_ = ctx
	order, err := s.repo.GetOrderByTransactionID(purchase.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("payments: no order for purchase %s, ignoring %s webhook", purchase.ID, status)
			return &Result{Outcome: OutcomeNotFound}, nil
		}
		return nil, err
	}

	applied, err := s.repo.SetOrderPaymentStatus(order.ID, status, purchase.LastPaymentMethod())
	if err != nil {
		return nil, err
	}
	if !applied {
		log.Printf("payments: order %d not pending, skipping %s (purchase %s)", order.ID, status, purchase.ID)
		return &Result{Outcome: OutcomeAlreadyApplied, Order: order}, nil
	}

	order.PaymentStatus = status
	order.PaymentMethod = purchase.LastPaymentMethod()
	return &Result{Outcome: OutcomeApplied, Order: order}, nil
}

// HandlePremiumUpgrade completes the upgrade keyed by the purchase id and
// promotes the target event to the purchased tier. Errors propagate to the
// caller so the webhook can be answered with a retryable status instead of
// silently acknowledging a lost upgrade.
func (s *Service) HandlePremiumUpgrade(ctx context.Context, purchaseID string) (*Result, error) {
	_ = ctx
	upgrade, err := s.repo.GetUpgradeByID(purchaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("payments: no order or upgrade for purchase %s, nothing to do", purchaseID)
			return &Result{Outcome: OutcomeNotFound}, nil
		}
		return nil, err
	}

	maxTickets := 0
	if upgrade.PremiumTier != nil {
		maxTickets = upgrade.PremiumTier.MaxTicketsPerEvent
	}

	applied, err := s.repo.CompletePremiumUpgrade(upgrade, maxTickets)
	if err != nil {
		return nil, err
	}
	if !applied {
		log.Printf("payments: upgrade %s already completed, skipping", upgrade.ID)
		return &Result{Outcome: OutcomeAlreadyApplied, Upgrade: upgrade}, nil
	}

	upgrade.Status = models.UpgradeStatusCompleted
	if upgrade.Event != nil {
		upgrade.Event.IsPremiumEvent = true
		if maxTickets > 0 {
			upgrade.Event.MaxTicketsPerEvent = maxTickets
		}
	}
	return &Result{Outcome: OutcomeApplied, Upgrade: upgrade}, nil
}
