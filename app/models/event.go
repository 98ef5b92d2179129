package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const FreeTierMaxTickets = 50

type Event struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	OrganizerID        uint           `gorm:"not null;index" json:"organizer_id"`
	Organizer          *User          `gorm:"foreignKey:OrganizerID" json:"organizer,omitempty"`
	Title              string         `gorm:"type:varchar(200);not null" json:"title" validate:"required,min=3,max=200"`
	Slug               string         `gorm:"type:varchar(220);uniqueIndex;not null" json:"slug" validate:"required,max=220"`
	Description        string         `gorm:"type:text" json:"description"`
	Venue              string         `gorm:"type:varchar(255)" json:"venue" validate:"max=255"`
	StartsAt           time.Time      `gorm:"not null;index" json:"starts_at"`
	TicketPrice        int64          `gorm:"not null" json:"ticket_price"` // minor units
	Currency           string         `gorm:"type:varchar(3);not null;default:'MYR'" json:"currency"`
	TicketsSold        int            `gorm:"not null;default:0" json:"tickets_sold"`
	MaxTicketsPerEvent int            `gorm:"not null;default:50" json:"max_tickets_per_event"`
	IsPremiumEvent     bool           `gorm:"default:false;index" json:"is_premium_event"`
	PremiumTierID      *uint          `gorm:"default:null" json:"premium_tier_id,omitempty"`
	PremiumTier        *PremiumTier   `gorm:"foreignKey:PremiumTierID" json:"premium_tier,omitempty"`
	IsPublished        bool           `gorm:"default:false;index" json:"is_published"`
	ViewCount          int64          `gorm:"not null;default:0" json:"view_count"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (e *Event) Validate() error {
	v := validator.New()

	return v.Struct(e)
}

