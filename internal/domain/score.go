package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StringArray is a custom type for storing string arrays as JSON in the database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// ObjectiveMatch records how well a contact matched one weighted objective.
type ObjectiveMatch struct {
	ObjectiveID   string `json:"objective_id"`
	ObjectiveText string `json:"objective_text"`
	MatchScore    int    `json:"match_score"`
	Explanation   string `json:"explanation"`
}

// ObjectiveMatchList is a custom type for storing objective matches as JSON.
type ObjectiveMatchList []ObjectiveMatch

// Value implements the driver.Valuer interface for database serialization.
func (l ObjectiveMatchList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (l *ObjectiveMatchList) Scan(value interface{}) error {
	if value == nil {
		*l = ObjectiveMatchList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan ObjectiveMatchList")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, l)
}

// Score is the persisted relevance result for one (contact, event) pair.
// Re-scoring the same pair overwrites the prior row; scores are latest-wins,
// not versioned history.
type Score struct {
	ID                string             `gorm:"type:text;primaryKey" json:"id"`
	ContactID         string             `gorm:"type:text;not null;index:idx_scores_key,unique" json:"contact_id"`
	EventID           string             `gorm:"type:text;not null;index:idx_scores_key,unique" json:"event_id"`
	WorkspaceID       string             `gorm:"type:text;not null;index:idx_scores_key,unique" json:"workspace_id"`
	RelevanceScore    int                `gorm:"not null;index" json:"relevance_score"`
	MatchedObjectives ObjectiveMatchList `gorm:"type:text" json:"matched_objectives"`
	Rationale         string             `gorm:"type:text" json:"rationale"`
	TalkingPoints     StringArray        `gorm:"type:text" json:"talking_points"`
	ModelVersion      string             `gorm:"type:text" json:"model_version"`
	ScoredAt          time.Time          `json:"scored_at"`
}

// TableName returns the database table name for Score.
func (Score) TableName() string {
	return "contact_scores"
}

// ScoreFilters narrows GetScores results.
type ScoreFilters struct {
	MinScore   *int
	ContactIDs []string
	Limit      int
	Offset     int
}
