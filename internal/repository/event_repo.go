package repository

import (
	"context"

	"github.com/timmy/guestrank/internal/domain"
	"gorm.io/gorm"
)

// EventRepository handles event data operations.
type EventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Get retrieves an event by workspace and ID.
func (r *EventRepository) Get(ctx context.Context, workspaceID, id string) (*domain.Event, error) {
	var event domain.Event
	if err := r.db.WithContext(ctx).
		First(&event, "workspace_id = ? AND id = ?", workspaceID, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}
