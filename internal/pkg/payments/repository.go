package payments

import (
	"time"

	"github.com/ticketcare/ticketcare/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the reconciliation service.
type Repository interface {
	CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
	GetOrderByTransactionID(transactionID string) (*models.Order, error)
	GetUpgradeByID(id string) (*models.EventPremiumUpgrade, error)
	CompleteOrderPayment(order *models.Order, paymentMethod string, ticketCount int) (bool, error)
	SetOrderPaymentStatus(orderID uint, status, paymentMethod string) (bool, error)
	CompletePremiumUpgrade(upgrade *models.EventPremiumUpgrade, maxTickets int) (bool, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payments repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

func (r *gormRepository) GetOrderByTransactionID(transactionID string) (*models.Order, error) {
	var order models.Order
	err := r.db.
		Preload("User").
		Preload("Event").
		Preload("Event.Organizer").
		Preload("Items").
		Where("transaction_id = ?", transactionID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *gormRepository) GetUpgradeByID(id string) (*models.EventPremiumUpgrade, error) {
	var upgrade models.EventPremiumUpgrade
	err := r.db.
		Preload("Event").
		Preload("PremiumTier").
		Where("id = ?", id).
		First(&upgrade).Error
	if err != nil {
		return nil, err
	}
	return &upgrade, nil
}

// CompleteOrderPayment marks the order paid, advances the event's sold
// counter and issues tickets, all in one transaction. The status update is
// guarded so a redelivered "paid" webhook cannot increment the counter a
// second time; the bool reports whether this call applied the transition.
func (r *gormRepository) CompleteOrderPayment(order *models.Order, paymentMethod string, ticketCount int) (bool, error) {
	applied := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND payment_status <> ?", order.ID, models.PaymentStatusPaid).
			Updates(map[string]interface{}{
				"payment_status": models.PaymentStatusPaid,
				"payment_method": paymentMethod,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true

		if err := tx.Model(&models.Event{}).
			Where("id = ?", order.EventID).
			UpdateColumn("tickets_sold", gorm.Expr("tickets_sold + ?", ticketCount)).Error; err != nil {
			return err
		}

		holder := ""
		if order.User != nil {
			holder = order.User.Name
		}
		tickets := make([]models.Ticket, 0, ticketCount)
		for i := 0; i < ticketCount; i++ {
			tickets = append(tickets, models.NewIssuedTicket(order.ID, order.EventID, holder))
		}
		if len(tickets) > 0 {
			if err := tx.Create(&tickets).Error; err != nil {
				return err
			}
		}
		order.Tickets = tickets
		return nil
	})
	return applied, err
}

// SetOrderPaymentStatus records a terminal non-paid outcome. Guarded so a
// late "failed" cannot clobber an order that already completed.
func (r *gormRepository) SetOrderPaymentStatus(orderID uint, status, paymentMethod string) (bool, error) {
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", orderID, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"payment_status": status,
			"payment_method": paymentMethod,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CompletePremiumUpgrade flips the upgrade to completed and applies the
// tier's cap to the event in one transaction. The status guard makes
// redelivery a no-op.
func (r *gormRepository) CompletePremiumUpgrade(upgrade *models.EventPremiumUpgrade, maxTickets int) (bool, error) {
	applied := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.EventPremiumUpgrade{}).
			Where("id = ? AND status = ?", upgrade.ID, models.UpgradeStatusPending).
			Updates(map[string]interface{}{
				"status":       models.UpgradeStatusCompleted,
				"completed_at": &now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true

		updates := map[string]interface{}{
			"is_premium_event": true,
			"premium_tier_id":  upgrade.PremiumTierID,
		}
		if maxTickets > 0 {
			updates["max_tickets_per_event"] = maxTickets
		}
		return tx.Model(&models.Event{}).
			Where("id = ?", upgrade.EventID).
			Updates(updates).Error
	})
	return applied, err
}
