package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/timmy/guestrank/internal/domain"
	"gorm.io/gorm"
)

// ContactRepository handles contact pool data operations.
type ContactRepository struct {
	db *gorm.DB
}

// NewContactRepository creates a new ContactRepository.
func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// Get retrieves a contact by workspace and ID.
func (r *ContactRepository) Get(ctx context.Context, workspaceID, id string) (*domain.Contact, error) {
	var contact domain.Contact
	if err := r.db.WithContext(ctx).
		First(&contact, "workspace_id = ? AND id = ?", workspaceID, id).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}

// ListIDs returns every contact ID in a workspace in creation order. Job
// creation uses this to snapshot an "all contacts" scope into a concrete
// target list.
func (r *ContactRepository) ListIDs(ctx context.Context, workspaceID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&domain.Contact{}).
		Where("workspace_id = ?", workspaceID).
		Order("created_at ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// ApplyPatch applies a partial update to a contact. Only non-nil patch fields
// are written; the update is a single statement instead of one query shape
// per field combination.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - workspaceID: owning workspace.
//   - id: contact to update.
//   - patch: fields to overwrite; nil fields keep their current value.
// Returns:
//   - error: non-nil if the update fails or the contact does not exist.
func (r *ContactRepository) ApplyPatch(ctx context.Context, workspaceID, id string, patch *domain.ContactPatch) error {
	if patch.Empty() {
		return nil
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if patch.Company != nil {
		updates["company"] = *patch.Company
	}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Industry != nil {
		updates["industry"] = *patch.Industry
	}
	if patch.EnrichmentNote != nil {
		updates["enrichment_note"] = *patch.EnrichmentNote
	}
	if patch.EnrichedAt != nil {
		updates["enriched_at"] = *patch.EnrichedAt
	}

	res := r.db.WithContext(ctx).Model(&domain.Contact{}).
		Where("workspace_id = ? AND id = ?", workspaceID, id).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to patch contact: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
