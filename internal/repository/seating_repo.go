package repository

import (
	"context"

	"github.com/timmy/guestrank/internal/domain"
	"gorm.io/gorm"
)

// SeatingRepository stores seating suggestions produced by the optimizer.
type SeatingRepository struct {
	db *gorm.DB
}

// NewSeatingRepository creates a new SeatingRepository.
func NewSeatingRepository(db *gorm.DB) *SeatingRepository {
	return &SeatingRepository{db: db}
}

// Replace discards an event's prior suggestions and stores a fresh proposal.
// A proposal is only meaningful as a whole, so partial retention would mix
// two optimizer runs.
func (r *SeatingRepository) Replace(ctx context.Context, workspaceID, eventID string, suggestions []domain.SeatingSuggestion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workspace_id = ? AND event_id = ?", workspaceID, eventID).
			Delete(&domain.SeatingSuggestion{}).Error; err != nil {
			return err
		}
		if len(suggestions) == 0 {
			return nil
		}
		return tx.Create(&suggestions).Error
	})
}

// ListByEvent returns an event's current suggestions grouped by table.
func (r *SeatingRepository) ListByEvent(ctx context.Context, workspaceID, eventID string) ([]domain.SeatingSuggestion, error) {
	var suggestions []domain.SeatingSuggestion
	if err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND event_id = ?", workspaceID, eventID).
		Order("table_name ASC, seat ASC").
		Find(&suggestions).Error; err != nil {
		return nil, err
	}
	return suggestions, nil
}
