package models

import "time"

// PremiumTier is a purchasable capacity tier for events. The webhook path
// only ever reads it to copy MaxTicketsPerEvent onto an upgraded event.
type PremiumTier struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Name               string    `gorm:"type:varchar(100);not null" json:"name" validate:"required,max=100"`
	PriceAmount        int64     `gorm:"not null" json:"price_amount"` // minor units
	Currency           string    `gorm:"type:varchar(3);not null;default:'MYR'" json:"currency"`
	MaxTicketsPerEvent int       `gorm:"not null" json:"max_tickets_per_event" validate:"gt=0"`
	IsActive           bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
