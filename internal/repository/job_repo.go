package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/guestrank/internal/domain"
	"gorm.io/gorm"
)

// JobRepository is the durable store for batch jobs. All progress writes are
// guarded single-row updates so concurrent processor passes cannot corrupt a
// job's checkpoint or status.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *JobRepository: repository instance bound to db.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create persists a new job in PENDING state.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - kind: batch job kind (enrichment or scoring).
//   - workspaceID: owning workspace.
//   - eventID: event scope; nil for enrichment jobs.
//   - targetIDs: immutable ordered contact scope, resolved by the caller.
// Returns:
//   - *domain.Job: the created job record.
//   - error: domain.ErrInvalidScope if targetIDs is empty, otherwise a DB error.
func (r *JobRepository) Create(ctx context.Context, kind domain.JobKind, workspaceID string, eventID *string, targetIDs []string) (*domain.Job, error) {
	if len(targetIDs) == 0 {
		return nil, domain.ErrInvalidScope
	}

	job := &domain.Job{
		ID:          uuid.New().String(),
		Kind:        kind,
		WorkspaceID: workspaceID,
		EventID:     eventID,
		TargetIDs:   append(domain.StringArray{}, targetIDs...),
		Status:      domain.JobStatusPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return job, nil
}

// GetByID retrieves a job by its ID.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	var job domain.Job
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// ListDue returns jobs that still need processor attention, oldest first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - kind: job kind to select.
//   - limit: maximum number of jobs for one processor pass.
// Returns:
//   - []domain.Job: PENDING and IN_PROGRESS jobs ordered by created_at.
//   - error: non-nil if the query fails.
func (r *JobRepository) ListDue(ctx context.Context, kind domain.JobKind, limit int) ([]domain.Job, error) {
	var jobs []domain.Job
	if err := r.db.WithContext(ctx).
		Where("kind = ? AND status IN ?", kind, []domain.JobStatus{domain.JobStatusPending, domain.JobStatusInProgress}).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// GetActive returns the newest non-terminal job for an event, or nil.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - workspaceID: owning workspace.
//   - eventID: event scope; empty matches jobs without an event.
//   - kind: job kind to select.
// Returns:
//   - *domain.Job: active job if one exists, nil otherwise.
//   - error: non-nil if the query fails.
func (r *JobRepository) GetActive(ctx context.Context, workspaceID, eventID string, kind domain.JobKind) (*domain.Job, error) {
	query := r.db.WithContext(ctx).
		Where("workspace_id = ? AND kind = ? AND status IN ?",
			workspaceID, kind, []domain.JobStatus{domain.JobStatusPending, domain.JobStatusInProgress})
	if eventID != "" {
		query = query.Where("event_id = ?", eventID)
	} else {
		query = query.Where("event_id IS NULL")
	}

	var job domain.Job
	err := query.Order("created_at DESC").First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// AdvanceCheckpoint moves a job's completion cursor forward and accumulates
// failures. The update is conditional on the stored cursor being at most the
// new value, which makes the cursor monotonic under racing writers: the
// slower of two overlapping passes gets domain.ErrStaleCheckpoint instead of
// rewinding progress.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - jobID: job to advance.
//   - newCompletedCount: absolute cursor value after this slice.
//   - deltaFailed: failures observed in this slice, added to failed_count.
// Returns:
//   - error: domain.ErrStaleCheckpoint on a lost race, otherwise a DB error.
func (r *JobRepository) AdvanceCheckpoint(ctx context.Context, jobID string, newCompletedCount, deltaFailed int) error {
	res := r.db.WithContext(ctx).Model(&domain.Job{}).
		Where("id = ? AND completed_count <= ?", jobID, newCompletedCount).
		Updates(map[string]interface{}{
			"completed_count": newCompletedCount,
			"failed_count":    gorm.Expr("failed_count + ?", deltaFailed),
			"updated_at":      time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to advance checkpoint: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&domain.Job{}).Where("id = ?", jobID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return domain.ErrStaleCheckpoint
	}
	return nil
}

// Transition performs a guarded compare-and-set on a job's status.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - jobID: job to transition.
//   - from: expected current status.
//   - to: desired status.
// Returns:
//   - error: domain.ErrStatusNoop if from no longer matches (another pass
//     already moved the job), otherwise a DB error.
func (r *JobRepository) Transition(ctx context.Context, jobID string, from, to domain.JobStatus) error {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	now := time.Now()
	if from == domain.JobStatusPending && to == domain.JobStatusInProgress {
		updates["started_at"] = &now
	}
	if to.Terminal() {
		updates["completed_at"] = &now
	}

	res := r.db.WithContext(ctx).Model(&domain.Job{}).
		Where("id = ? AND status = ?", jobID, from).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to transition job status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrStatusNoop
	}
	return nil
}

// CountByStatus counts jobs by status within a workspace.
func (r *JobRepository) CountByStatus(ctx context.Context, workspaceID string, status domain.JobStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Job{}).
		Where("workspace_id = ? AND status = ?", workspaceID, status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
