package repository

import (
	"time"

	"github.com/ticketcare/ticketcare/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
	TouchAPIKeyUsage(userID uint, usedAt time.Time) error
}

// EventRepository defines the interface for event-related database operations
type EventRepository interface {
	Create(event *models.Event) error
	GetByID(id uint) (*models.Event, error)
	GetBySlug(slug string) (*models.Event, error)
	GetPublished(offset, limit int) ([]models.Event, error)
	GetByOrganizerID(organizerID uint) ([]models.Event, error)
	Update(event *models.Event) error
	Count() (int64, error)
	SlugExists(slug string) (bool, error)
}

// OrderRepository defines the interface for order-related database operations
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByReference(reference string) (*models.Order, error)
	GetByEventID(eventID uint, offset, limit int) ([]models.Order, error)
	CountPaidTicketsSince(since time.Time) (int64, error)
	SumPaidAmountSince(since time.Time) (int64, error)
}

// UpgradeRepository defines the interface for premium-upgrade operations
type UpgradeRepository interface {
	Create(upgrade *models.EventPremiumUpgrade) error
	GetByID(id string) (*models.EventPremiumUpgrade, error)
	GetByEventID(eventID uint) ([]models.EventPremiumUpgrade, error)
}

// TierRepository defines the interface for premium tier lookups
type TierRepository interface {
	GetByID(id uint) (*models.PremiumTier, error)
	GetActive() ([]models.PremiumTier, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User    UserRepository
	Event   EventRepository
	Order   OrderRepository
	Upgrade UpgradeRepository
	Tier    TierRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Event:   NewEventRepository(db),
		Order:   NewOrderRepository(db),
		Upgrade: NewUpgradeRepository(db),
		Tier:    NewTierRepository(db),
	}
}
