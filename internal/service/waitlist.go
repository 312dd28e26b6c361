package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/timmy/guestrank/internal/domain"
	"github.com/timmy/guestrank/internal/logger"
)

// InvitationStore is the invitation persistence surface used by promotion.
type InvitationStore interface {
	CountByStatus(ctx context.Context, workspaceID, eventID string, status domain.InvitationStatus) (int64, error)
	ListWaitlisted(ctx context.Context, workspaceID, eventID string) ([]domain.Invitation, error)
	Transition(ctx context.Context, id string, from, to domain.InvitationStatus) error
}

// ScoreReader lists persisted relevance scores for an event.
type ScoreReader interface {
	List(ctx context.Context, workspaceID, eventID string, filters domain.ScoreFilters) ([]domain.Score, error)
}

// WaitlistPromoter fills freed event capacity from the waitlist. It runs as an
// outbox task handler: a decline enqueues a promote_waitlist task and the
// worker drains it on the next tick.
type WaitlistPromoter struct {
	invitations InvitationStore
	scores      ScoreReader
	events      EventStore
}

func NewWaitlistPromoter(invitations InvitationStore, scores ScoreReader, events EventStore) *WaitlistPromoter {
	return &WaitlistPromoter{invitations: invitations, scores: scores, events: events}
}

// Handle promotes waitlisted invitations for the task's event until capacity
// is filled or the waitlist runs out. Ordering is tier ascending, then
// priority descending, then relevance score descending; unscored contacts
// rank as score 0.
func (w *WaitlistPromoter) Handle(ctx context.Context, task *domain.OutboxTask) error {
	event, err := w.events.Get(ctx, task.WorkspaceID, task.EventID)
	if err != nil {
		return fmt.Errorf("failed to load event: %w", err)
	}
	if event.Capacity <= 0 {
		// Promotion needs a configured capacity to count open seats against.
		logger.CtxDebug(ctx, "Event has no configured capacity, skipping promotion")
		return nil
	}

	accepted, err := w.invitations.CountByStatus(ctx, task.WorkspaceID, task.EventID, domain.InvitationStatusAccepted)
	if err != nil {
		return fmt.Errorf("failed to count accepted invitations: %w", err)
	}
	open := event.Capacity - int(accepted)
	if open <= 0 {
		return nil
	}

	waitlisted, err := w.invitations.ListWaitlisted(ctx, task.WorkspaceID, task.EventID)
	if err != nil {
		return fmt.Errorf("failed to list waitlist: %w", err)
	}
	if len(waitlisted) == 0 {
		return nil
	}

	scoreByContact, err := w.loadScores(ctx, task.WorkspaceID, task.EventID, waitlisted)
	if err != nil {
		return err
	}

	sort.SliceStable(waitlisted, func(i, j int) bool {
		a, b := &waitlisted[i], &waitlisted[j]
		if a.Tier != b.Tier {
			return a.Tier < b.Tier
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return scoreByContact[a.ContactID] > scoreByContact[b.ContactID]
	})

	promoted := 0
	for i := range waitlisted {
		if promoted >= open {
			break
		}
		inv := &waitlisted[i]
		err := w.invitations.Transition(ctx, inv.ID, domain.InvitationStatusWaitlist, domain.InvitationStatusAccepted)
		if err != nil {
			if errors.Is(err, domain.ErrStatusNoop) {
				// Someone else moved this invitation; the seat math is
				// recomputed on the next task anyway.
				continue
			}
			return fmt.Errorf("failed to promote invitation %s: %w", inv.ID, err)
		}
		promoted++
		logger.With(logger.Fields{
			"invitation_id":         inv.ID,
			logger.FieldContactID:   inv.ContactID,
			"tier":                  inv.Tier,
			"priority":              inv.Priority,
			"relevance_score":       scoreByContact[inv.ContactID],
		}).Info(ctx, "Promoted invitation from waitlist")
	}

	logger.With(logger.Fields{"open_seats": open}).
		WithCount(promoted).
		Info(ctx, "Waitlist promotion finished")
	return nil
}

func (w *WaitlistPromoter) loadScores(ctx context.Context, workspaceID, eventID string, waitlisted []domain.Invitation) (map[string]int, error) {
	contactIDs := make([]string, 0, len(waitlisted))
	for i := range waitlisted {
		contactIDs = append(contactIDs, waitlisted[i].ContactID)
	}

	scores, err := w.scores.List(ctx, workspaceID, eventID, domain.ScoreFilters{ContactIDs: contactIDs})
	if err != nil {
		return nil, fmt.Errorf("failed to load scores: %w", err)
	}

	byContact := make(map[string]int, len(scores))
	for i := range scores {
		byContact[scores[i].ContactID] = scores[i].RelevanceScore
	}
	return byContact, nil
}
