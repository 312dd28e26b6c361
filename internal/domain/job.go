package domain

import "time"

// JobKind identifies the type of batch work a job performs.
type JobKind string

const (
	JobKindEnrichment JobKind = "enrichment"
	JobKindScoring    JobKind = "scoring"
)

// JobStatus represents the lifecycle state of a batch job.
// Values include JobStatusPending, JobStatusInProgress, JobStatusCompleted, and JobStatusFailed.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status permits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job represents one requested batch operation over a fixed set of contacts.
//
// TargetIDs is captured once at creation and never re-resolved, so contacts
// added mid-job do not shift the scope. CompletedCount is the sole resumption
// cursor: it indexes into TargetIDs and only ever increases.
type Job struct {
	ID             string      `gorm:"type:text;primaryKey" json:"id"`
	Kind           JobKind     `gorm:"type:text;not null;index:idx_jobs_kind_status" json:"kind"`
	WorkspaceID    string      `gorm:"type:text;not null;index" json:"workspace_id"`
	EventID        *string     `gorm:"type:text;index" json:"event_id,omitempty"`
	TargetIDs      StringArray `gorm:"type:text;not null" json:"target_ids"`
	Status         JobStatus   `gorm:"type:text;index:idx_jobs_kind_status;default:pending" json:"status"`
	CompletedCount int         `gorm:"default:0" json:"completed_count"`
	FailedCount    int         `gorm:"default:0" json:"failed_count"`
	CreatedAt      time.Time   `json:"created_at"`
	StartedAt      *time.Time  `json:"started_at,omitempty"`
	CompletedAt    *time.Time  `json:"completed_at,omitempty"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// TableName returns the database table name for Job.
func (Job) TableName() string {
	return "batch_jobs"
}

// Remaining returns how many target contacts have not been checkpointed yet.
func (j *Job) Remaining() int {
	if j.CompletedCount >= len(j.TargetIDs) {
		return 0
	}
	return len(j.TargetIDs) - j.CompletedCount
}
