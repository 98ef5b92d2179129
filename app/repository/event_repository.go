package repository

import (
	"github.com/ticketcare/ticketcare/app/models"
	"gorm.io/gorm"
)

// eventRepository implements the EventRepository interface
type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new event repository instance
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

// Create creates a new event in the database
func (r *eventRepository) Create(event *models.Event) error {
	return r.db.Create(event).Error
}

// GetByID retrieves an event by its ID
func (r *eventRepository) GetByID(id uint) (*models.Event, error) {
	var event models.Event
	err := r.db.Preload("Organizer").Preload("PremiumTier").First(&event, id).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// GetBySlug retrieves an event by its public slug
func (r *eventRepository) GetBySlug(slug string) (*models.Event, error) {
	var event models.Event
	err := r.db.Preload("Organizer").Preload("PremiumTier").Where("slug = ?", slug).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// GetPublished retrieves published events for the storefront, newest first
func (r *eventRepository) GetPublished(offset, limit int) ([]models.Event, error) {
	var events []models.Event
	err := r.db.Where("is_published = ?", true).
		Order("starts_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&events).Error
	return events, err
}

// GetByOrganizerID retrieves all events owned by an organizer
func (r *eventRepository) GetByOrganizerID(organizerID uint) ([]models.Event, error) {
	var events []models.Event
	err := r.db.Where("organizer_id = ?", organizerID).
		Order("starts_at DESC").
		Find(&events).Error
	return events, err
}

// Update updates an existing event
func (r *eventRepository) Update(event *models.Event) error {
	return r.db.Save(event).Error
}

// Count returns the total number of events
func (r *eventRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Event{}).Count(&count).Error
	return count, err
}

// SlugExists checks whether a slug is already taken
func (r *eventRepository) SlugExists(slug string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Event{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}
