package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ticketcare/ticketcare/internal/pkg/shortcode"
)

// Ticket is a single admission issued when an order's payment completes.
type Ticket struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Code       string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"code"`
	OrderID    uint           `gorm:"not null;index" json:"order_id"`
	EventID    uint           `gorm:"not null;index" json:"event_id"`
	HolderName string         `gorm:"type:varchar(150)" json:"holder_name"`
	IssuedAt   *time.Time     `gorm:"type:timestamp;default:null" json:"issued_at,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// NewIssuedTicket builds a ticket with a fresh code, stamped as issued now.
// Codes are short Base62 strings so they survive being read over the phone;
// the uuid fallback only fires when the system randomness source is broken.
func NewIssuedTicket(orderID, eventID uint, holderName string) Ticket {
	code, err := shortcode.Generate(shortcode.TicketCodeLength)
	if err != nil {
		code = uuid.NewString()
	}
	now := time.Now()
	return Ticket{
		Code:       code,
		OrderID:    orderID,
		EventID:    eventID,
		HolderName: holderName,
		IssuedAt:   &now,
	}
}
