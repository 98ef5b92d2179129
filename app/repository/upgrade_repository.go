package repository

import (
	"github.com/ticketcare/ticketcare/app/models"
	"gorm.io/gorm"
)

// upgradeRepository implements the UpgradeRepository interface
type upgradeRepository struct {
	db *gorm.DB
}

// NewUpgradeRepository creates a new premium-upgrade repository instance
func NewUpgradeRepository(db *gorm.DB) UpgradeRepository {
	return &upgradeRepository{db: db}
}

// Create creates a pending upgrade keyed by the gateway purchase id
func (r *upgradeRepository) Create(upgrade *models.EventPremiumUpgrade) error {
	return r.db.Create(upgrade).Error
}

// GetByID retrieves an upgrade by the gateway purchase id
func (r *upgradeRepository) GetByID(id string) (*models.EventPremiumUpgrade, error) {
	var upgrade models.EventPremiumUpgrade
	err := r.db.Preload("Event").Preload("PremiumTier").Where("id = ?", id).First(&upgrade).Error
	if err != nil {
		return nil, err
	}
	return &upgrade, nil
}

// GetByEventID retrieves all upgrades recorded for an event
func (r *upgradeRepository) GetByEventID(eventID uint) ([]models.EventPremiumUpgrade, error) {
	var upgrades []models.EventPremiumUpgrade
	err := r.db.Where("event_id = ?", eventID).Order("created_at DESC").Find(&upgrades).Error
	return upgrades, err
}

// tierRepository implements the TierRepository interface
type tierRepository struct {
	db *gorm.DB
}

// NewTierRepository creates a new premium tier repository instance
func NewTierRepository(db *gorm.DB) TierRepository {
	return &tierRepository{db: db}
}

// GetByID retrieves a premium tier by its ID
func (r *tierRepository) GetByID(id uint) (*models.PremiumTier, error) {
	var tier models.PremiumTier
	err := r.db.First(&tier, id).Error
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

// GetActive retrieves the tiers currently offered for purchase
func (r *tierRepository) GetActive() ([]models.PremiumTier, error) {
	var tiers []models.PremiumTier
	err := r.db.Where("is_active = ?", true).Order("price_amount ASC").Find(&tiers).Error
	return tiers, err
}
