package repository

import (
	"context"

	"github.com/timmy/guestrank/internal/domain"
	"gorm.io/gorm"
)

// ObjectiveRepository handles weighted event objectives.
type ObjectiveRepository struct {
	db *gorm.DB
}

// NewObjectiveRepository creates a new ObjectiveRepository.
func NewObjectiveRepository(db *gorm.DB) *ObjectiveRepository {
	return &ObjectiveRepository{db: db}
}

// ListByEvent returns an event's objectives in operator sort order.
func (r *ObjectiveRepository) ListByEvent(ctx context.Context, workspaceID, eventID string) ([]domain.Objective, error) {
	var objectives []domain.Objective
	if err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND event_id = ?", workspaceID, eventID).
		Order("sort_order ASC").
		Find(&objectives).Error; err != nil {
		return nil, err
	}
	return objectives, nil
}

// CountByEvent counts an event's objectives. Used by the job creation
// boundary to reject scoring jobs for events with no objectives.
func (r *ObjectiveRepository) CountByEvent(ctx context.Context, workspaceID, eventID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Objective{}).
		Where("workspace_id = ? AND event_id = ?", workspaceID, eventID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
