package domain

import "time"

// SeatingSuggestion is a proposed table assignment for one contact, produced
// by the seating optimizer. Suggestions are advisory records, written
// separately from the job store.
type SeatingSuggestion struct {
	ID          string    `gorm:"type:text;primaryKey" json:"id"`
	WorkspaceID string    `gorm:"type:text;not null;index" json:"workspace_id"`
	EventID     string    `gorm:"type:text;not null;index:idx_seating_event" json:"event_id"`
	ContactID   string    `gorm:"type:text;not null;index:idx_seating_event" json:"contact_id"`
	TableName_  string    `gorm:"column:table_name;type:text;not null" json:"table_name"`
	Seat        int       `gorm:"default:0" json:"seat"`
	Score       int       `gorm:"default:0" json:"score"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the database table name for SeatingSuggestion.
func (SeatingSuggestion) TableName() string {
	return "seating_suggestions"
}
