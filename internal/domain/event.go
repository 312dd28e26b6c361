package domain

import "time"

// Event represents a hosted event whose guest list is ranked.
type Event struct {
	ID          string    `gorm:"type:text;primaryKey" json:"id"`
	WorkspaceID string    `gorm:"type:text;not null;index" json:"workspace_id"`
	Name        string    `gorm:"type:text;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Capacity    int       `gorm:"default:0" json:"capacity"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Event.
func (Event) TableName() string {
	return "events"
}

// Objective is a weighted, operator-authored criterion an event cares about.
// Weight is relative, not normalized; a scoring job picked up with zero
// objectives for its event cannot make progress and fails as a whole.
type Objective struct {
	ID          string    `gorm:"type:text;primaryKey" json:"id"`
	EventID     string    `gorm:"type:text;not null;index" json:"event_id"`
	WorkspaceID string    `gorm:"type:text;not null;index" json:"workspace_id"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	Weight      float64   `gorm:"default:1" json:"weight"`
	SortOrder   int       `gorm:"default:0" json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Objective.
func (Objective) TableName() string {
	return "event_objectives"
}
