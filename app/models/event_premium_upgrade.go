package models

import "time"

const (
	UpgradeStatusPending   = "pending"
	UpgradeStatusCompleted = "completed"
)

// EventPremiumUpgrade is a one-time purchase that raises an event's ticket
// cap to a premium tier. Its primary key is the gateway purchase id, so the
// webhook path can resolve an upgrade directly from the payment identifier.
type EventPremiumUpgrade struct {
	ID            string       `gorm:"type:varchar(191);primaryKey" json:"id"`
	EventID       uint         `gorm:"not null;index" json:"event_id"`
	Event         *Event       `gorm:"foreignKey:EventID" json:"event,omitempty"`
	PremiumTierID uint         `gorm:"not null" json:"premium_tier_id"`
	PremiumTier   *PremiumTier `gorm:"foreignKey:PremiumTierID" json:"premium_tier,omitempty"`
	OrganizerID   uint         `gorm:"not null;index" json:"organizer_id"`
	Amount        int64        `gorm:"not null" json:"amount"` // minor units
	Currency      string       `gorm:"type:varchar(3);not null;default:'MYR'" json:"currency"`
	Status        string       `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CompletedAt   *time.Time   `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	CreatedAt     time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}
