package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusCanceled = "canceled"
)

// Order links a buyer to one or more ticket lines for a single event. The
// gateway purchase id lands in TransactionID when checkout creates the
// purchase; the webhook path correlates deliveries through it.
type Order struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Reference     string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"reference"`
	UserID        uint           `gorm:"not null;index" json:"user_id"`
	User          *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	EventID       uint           `gorm:"not null;index" json:"event_id"`
	Event         *Event         `gorm:"foreignKey:EventID" json:"event,omitempty"`
	TransactionID string         `gorm:"type:varchar(191);uniqueIndex;not null" json:"transaction_id"`
	PaymentStatus string         `gorm:"type:varchar(20);not null;default:'pending';index" json:"payment_status"`
	PaymentMethod string         `gorm:"type:varchar(50)" json:"payment_method"`
	TotalAmount   int64          `gorm:"not null" json:"total_amount"` // minor units
	Currency      string         `gorm:"type:varchar(3);not null;default:'MYR'" json:"currency"`
	Items         []OrderItem    `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Tickets       []Ticket       `gorm:"foreignKey:OrderID" json:"tickets,omitempty"`
	CreatedAt     time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

type OrderItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    uint      `gorm:"not null;index" json:"order_id"`
	Label      string    `gorm:"type:varchar(100);not null" json:"label" validate:"required,max=100"`
	Quantity   int       `gorm:"not null" json:"quantity" validate:"gt=0"`
	UnitPrice  int64     `gorm:"not null" json:"unit_price"` // minor units
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (o *Order) Validate() error {
	v := validator.New()

	return v.Struct(o)
}

// TicketCount sums the line quantities of the order.
func (o *Order) TicketCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}

// IsPaid reports whether payment has already been reconciled.
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}
