package domain

import "time"

// TaskKind identifies the type of outbox task.
type TaskKind string

const (
	TaskKindPromoteWaitlist TaskKind = "promote_waitlist"
)

// TaskStatus represents the processing state of an outbox task.
type TaskStatus string

const (
	TaskStatusPending TaskStatus = "pending"
	TaskStatusDone    TaskStatus = "done"
	TaskStatusFailed  TaskStatus = "failed"
)

// OutboxTask is a durable side-effect request. Status changes that need a
// follow-up action (an invitation decline that may free capacity) enqueue a
// task row instead of firing an unawaited call, so failures stay observable
// and retryable.
type OutboxTask struct {
	ID          string     `gorm:"type:text;primaryKey" json:"id"`
	Kind        TaskKind   `gorm:"type:text;not null;index:idx_tasks_kind_status" json:"kind"`
	WorkspaceID string     `gorm:"type:text;not null" json:"workspace_id"`
	EventID     string     `gorm:"type:text;not null" json:"event_id"`
	Status      TaskStatus `gorm:"type:text;index:idx_tasks_kind_status;default:pending" json:"status"`
	Attempts    int        `gorm:"default:0" json:"attempts"`
	LastError   string     `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName returns the database table name for OutboxTask.
func (OutboxTask) TableName() string {
	return "outbox_tasks"
}
