package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/timmy/guestrank/internal/domain"
	"github.com/timmy/guestrank/internal/logger"
	"github.com/timmy/guestrank/internal/storage"
)

// BriefingService exports a guest briefing document when an event's scoring
// job completes. The briefing is a point-in-time JSON snapshot of every scored
// contact with rationale and talking points, uploaded to object storage for
// the host team to pull before the event.
type BriefingService struct {
	scores   ScoreReader
	contacts ContactStore
	events   EventStore
	store    storage.ObjectStorage
}

func NewBriefingService(scores ScoreReader, contacts ContactStore, events EventStore, store storage.ObjectStorage) *BriefingService {
	return &BriefingService{scores: scores, contacts: contacts, events: events, store: store}
}

type briefingGuest struct {
	ContactID      string                  `json:"contact_id"`
	DisplayName    string                  `json:"display_name"`
	Company        string                  `json:"company,omitempty"`
	Title          string                  `json:"title,omitempty"`
	RelevanceScore int                     `json:"relevance_score"`
	Matches        []domain.ObjectiveMatch `json:"matched_objectives"`
	Rationale      string                  `json:"rationale"`
	TalkingPoints  []string                `json:"talking_points"`
}

type briefingDocument struct {
	WorkspaceID  string          `json:"workspace_id"`
	EventID      string          `json:"event_id"`
	EventName    string          `json:"event_name"`
	GeneratedAt  time.Time       `json:"generated_at"`
	ModelVersion string          `json:"model_version,omitempty"`
	Guests       []briefingGuest `json:"guests"`
}

// Publish builds and uploads the briefing for one event. Scores drive the
// document; contacts that cannot be loaded are included with their ID only.
func (b *BriefingService) Publish(ctx context.Context, workspaceID, eventID string) error {
	event, err := b.events.Get(ctx, workspaceID, eventID)
	if err != nil {
		return fmt.Errorf("failed to load event: %w", err)
	}

	scores, err := b.scores.List(ctx, workspaceID, eventID, domain.ScoreFilters{})
	if err != nil {
		return fmt.Errorf("failed to load scores: %w", err)
	}
	if len(scores) == 0 {
		logger.CtxDebug(ctx, "No scores for event %s, skipping briefing export", eventID)
		return nil
	}

	doc := briefingDocument{
		WorkspaceID: workspaceID,
		EventID:     eventID,
		EventName:   event.Name,
		GeneratedAt: time.Now().UTC(),
		Guests:      make([]briefingGuest, 0, len(scores)),
	}
	for i := range scores {
		score := &scores[i]
		if doc.ModelVersion == "" {
			doc.ModelVersion = score.ModelVersion
		}

		guest := briefingGuest{
			ContactID:      score.ContactID,
			RelevanceScore: score.RelevanceScore,
			Matches:        score.MatchedObjectives,
			Rationale:      score.Rationale,
			TalkingPoints:  score.TalkingPoints,
		}
		if contact, err := b.contacts.Get(ctx, workspaceID, score.ContactID); err == nil {
			guest.DisplayName = contact.DisplayName
			guest.Company = contact.Company
			guest.Title = contact.Title
		}
		doc.Guests = append(doc.Guests, guest)
	}

	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal briefing: %w", err)
	}

	key := BriefingKey(workspaceID, eventID)
	err = b.store.Upload(ctx, key, bytes.NewReader(payload), int64(len(payload)), "application/json")
	if err != nil {
		return fmt.Errorf("failed to upload briefing: %w", err)
	}

	logger.With(logger.Fields{logger.FieldEventID: eventID, "key": key}).
		WithCount(len(doc.Guests)).
		Info(ctx, "Briefing exported")
	return nil
}

// BriefingKey is the stable object key for an event's briefing. Re-exports
// overwrite in place.
func BriefingKey(workspaceID, eventID string) string {
	return fmt.Sprintf("briefings/%s/%s.json", workspaceID, eventID)
}
