package domain

import "time"

// InvitationStatus represents the RSVP state of an invitation.
type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusAccepted InvitationStatus = "accepted"
	InvitationStatusDeclined InvitationStatus = "declined"
	InvitationStatusWaitlist InvitationStatus = "waitlist"
)

// Invitation links a contact to an event with an RSVP state.
// Tier and Priority are operator-assigned; together with the contact's
// relevance score they order waitlist promotion (lower tier first, then
// higher priority, then higher score).
type Invitation struct {
	ID          string           `gorm:"type:text;primaryKey" json:"id"`
	WorkspaceID string           `gorm:"type:text;not null;index" json:"workspace_id"`
	EventID     string           `gorm:"type:text;not null;index:idx_invitations_event" json:"event_id"`
	ContactID   string           `gorm:"type:text;not null;index" json:"contact_id"`
	Status      InvitationStatus `gorm:"type:text;index:idx_invitations_event;default:pending" json:"status"`
	Tier        int              `gorm:"default:1" json:"tier"`
	Priority    int              `gorm:"default:0" json:"priority"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// TableName returns the database table name for Invitation.
func (Invitation) TableName() string {
	return "invitations"
}
