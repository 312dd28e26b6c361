package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/timmy/guestrank/internal/domain"
	"gorm.io/gorm"
)

// InvitationRepository handles invitation RSVP state.
type InvitationRepository struct {
	db *gorm.DB
}

// NewInvitationRepository creates a new InvitationRepository.
func NewInvitationRepository(db *gorm.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

// Get retrieves an invitation by ID.
func (r *InvitationRepository) Get(ctx context.Context, id string) (*domain.Invitation, error) {
	var inv domain.Invitation
	if err := r.db.WithContext(ctx).First(&inv, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// CountByStatus counts an event's invitations in one status.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - workspaceID: owning workspace.
//   - eventID: event scope.
//   - status: invitation status to count.
// Returns:
//   - int64: number of matching invitations.
//   - error: non-nil if the query fails.
func (r *InvitationRepository) CountByStatus(ctx context.Context, workspaceID, eventID string, status domain.InvitationStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Invitation{}).
		Where("workspace_id = ? AND event_id = ? AND status = ?", workspaceID, eventID, status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListWaitlisted returns an event's waitlisted invitations in stored tier and
// priority order. The promoter applies final ordering after joining relevance
// scores.
func (r *InvitationRepository) ListWaitlisted(ctx context.Context, workspaceID, eventID string) ([]domain.Invitation, error) {
	var invitations []domain.Invitation
	if err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND event_id = ? AND status = ?", workspaceID, eventID, domain.InvitationStatusWaitlist).
		Order("tier ASC, priority DESC").
		Find(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}

// Transition performs a guarded compare-and-set on an invitation's status, so
// two racing promoters cannot double-promote one invitation.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: invitation to transition.
//   - from: expected current status.
//   - to: desired status.
// Returns:
//   - error: domain.ErrStatusNoop if from no longer matches, otherwise a DB error.
func (r *InvitationRepository) Transition(ctx context.Context, id string, from, to domain.InvitationStatus) error {
	res := r.db.WithContext(ctx).Model(&domain.Invitation{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to transition invitation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrStatusNoop
	}
	return nil
}
