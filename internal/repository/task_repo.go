package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/guestrank/internal/domain"
	"gorm.io/gorm"
)

// TaskRepository handles the outbox task queue.
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Enqueue records a new pending task.
func (r *TaskRepository) Enqueue(ctx context.Context, kind domain.TaskKind, workspaceID, eventID string) error {
	task := &domain.OutboxTask{
		ID:          uuid.New().String(),
		Kind:        kind,
		WorkspaceID: workspaceID,
		EventID:     eventID,
		Status:      domain.TaskStatusPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	return r.db.WithContext(ctx).Create(task).Error
}

// ListPending returns pending tasks oldest first, capped at limit.
func (r *TaskRepository) ListPending(ctx context.Context, limit int) ([]domain.OutboxTask, error) {
	var tasks []domain.OutboxTask
	if err := r.db.WithContext(ctx).
		Where("status = ?", domain.TaskStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// MarkDone marks a task as processed.
func (r *TaskRepository) MarkDone(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.OutboxTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     domain.TaskStatusDone,
			"updated_at": time.Now(),
		}).Error
}

// MarkFailed records a task failure. Tasks under the attempt limit stay
// pending so a later tick retries them.
func (r *TaskRepository) MarkFailed(ctx context.Context, id string, cause error, maxAttempts int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task domain.OutboxTask
		if err := tx.First(&task, "id = ?", id).Error; err != nil {
			return err
		}
		task.Attempts++
		task.LastError = cause.Error()
		task.UpdatedAt = time.Now()
		if task.Attempts >= maxAttempts {
			task.Status = domain.TaskStatusFailed
		}
		return tx.Save(&task).Error
	})
}
