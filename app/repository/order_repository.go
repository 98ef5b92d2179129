package repository

import (
	"time"

	"github.com/ticketcare/ticketcare/app/models"
	"gorm.io/gorm"
)

// orderRepository implements the OrderRepository interface
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository instance
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create creates a new order with its items in the database
func (r *orderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// GetByID retrieves an order by its ID
func (r *orderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("User").Preload("Event").Preload("Items").Preload("Tickets").First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByReference retrieves an order by its public reference
func (r *orderRepository) GetByReference(reference string) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("User").Preload("Event").Preload("Items").Preload("Tickets").
		Where("reference = ?", reference).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByEventID retrieves orders for an event, newest first
func (r *orderRepository) GetByEventID(eventID uint, offset, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").
		Where("event_id = ?", eventID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// CountPaidTicketsSince counts tickets on orders paid since the given time
func (r *orderRepository) CountPaidTicketsSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Ticket{}).
		Joins("JOIN orders ON orders.id = tickets.order_id").
		Where("orders.payment_status = ? AND orders.updated_at >= ?", models.PaymentStatusPaid, since).
		Count(&count).Error
	return count, err
}

// SumPaidAmountSince sums order totals (minor units) paid since the given time
func (r *orderRepository) SumPaidAmountSince(since time.Time) (int64, error) {
	var total int64
	err := r.db.Model(&models.Order{}).
		Where("payment_status = ? AND updated_at >= ?", models.PaymentStatusPaid, since).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&total).Error
	return total, err
}
