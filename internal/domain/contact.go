package domain

import "time"

// Contact represents a person in a workspace's contact pool.
// Only DisplayName is required; everything else degrades to "unknown" when
// absent from scoring input.
type Contact struct {
	ID             string      `gorm:"type:text;primaryKey" json:"id"`
	WorkspaceID    string      `gorm:"type:text;not null;index" json:"workspace_id"`
	DisplayName    string      `gorm:"type:text;not null" json:"display_name"`
	Email          string      `gorm:"type:text;index" json:"email,omitempty"`
	Company        string      `gorm:"type:text" json:"company,omitempty"`
	Title          string      `gorm:"type:text" json:"title,omitempty"`
	Industry       string      `gorm:"type:text" json:"industry,omitempty"`
	Tags           StringArray `gorm:"type:text" json:"tags"`
	EnrichmentNote string      `gorm:"type:text" json:"enrichment_note,omitempty"`
	EnrichedAt     *time.Time  `json:"enriched_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// TableName returns the database table name for Contact.
func (Contact) TableName() string {
	return "contacts"
}

// ContactPatch is a partial update for a contact. Nil fields are left
// untouched, so a single parameterized update replaces per-field query
// branching.
type ContactPatch struct {
	Company        *string
	Title          *string
	Industry       *string
	EnrichmentNote *string
	EnrichedAt     *time.Time
}

// Empty reports whether the patch would change nothing.
func (p *ContactPatch) Empty() bool {
	return p == nil ||
		(p.Company == nil && p.Title == nil && p.Industry == nil &&
			p.EnrichmentNote == nil && p.EnrichedAt == nil)
}
