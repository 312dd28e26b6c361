package repository

import (
	"context"

	"github.com/timmy/guestrank/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ScoreRepository handles persisted relevance scores.
type ScoreRepository struct {
	db *gorm.DB
}

// NewScoreRepository creates a new ScoreRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *ScoreRepository: repository instance bound to db.
func NewScoreRepository(db *gorm.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// Upsert creates or overwrites the score row keyed by
// (workspace_id, event_id, contact_id). Latest wins; re-scoring the same pair
// converges to the same row, which keeps slice reprocessing idempotent.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - score: score record to create or update.
// Returns:
//   - error: non-nil if the upsert fails.
func (r *ScoreRepository) Upsert(ctx context.Context, score *domain.Score) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "workspace_id"}, {Name: "event_id"}, {Name: "contact_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"relevance_score", "matched_objectives", "rationale",
			"talking_points", "model_version", "scored_at",
		}),
	}).Create(score).Error
}

// Get retrieves the score for one (contact, event) pair.
func (r *ScoreRepository) Get(ctx context.Context, workspaceID, eventID, contactID string) (*domain.Score, error) {
	var score domain.Score
	if err := r.db.WithContext(ctx).
		First(&score, "workspace_id = ? AND event_id = ? AND contact_id = ?", workspaceID, eventID, contactID).Error; err != nil {
		return nil, err
	}
	return &score, nil
}

// List retrieves scores for an event, highest relevance first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - workspaceID: owning workspace.
//   - eventID: event scope.
//   - filters: optional narrowing (minimum score, contact subset, paging).
// Returns:
//   - []domain.Score: matching score rows ordered by relevance descending.
//   - error: non-nil if the query fails.
func (r *ScoreRepository) List(ctx context.Context, workspaceID, eventID string, filters domain.ScoreFilters) ([]domain.Score, error) {
	query := r.db.WithContext(ctx).
		Where("workspace_id = ? AND event_id = ?", workspaceID, eventID)
	if filters.MinScore != nil {
		query = query.Where("relevance_score >= ?", *filters.MinScore)
	}
	if len(filters.ContactIDs) > 0 {
		query = query.Where("contact_id IN ?", filters.ContactIDs)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var scores []domain.Score
	if err := query.Order("relevance_score DESC").Find(&scores).Error; err != nil {
		return nil, err
	}
	return scores, nil
}
