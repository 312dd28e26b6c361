package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/timmy/guestrank/internal/domain"
	"github.com/timmy/guestrank/internal/logger"
)

// InvitationReader loads single invitations.
type InvitationReader interface {
	Get(ctx context.Context, id string) (*domain.Invitation, error)
}

// TaskEnqueuer appends a durable side-effect request to the outbox.
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, kind domain.TaskKind, workspaceID, eventID string) error
}

// InvitationService handles RSVP state changes that have downstream effects.
type InvitationService struct {
	reader      InvitationReader
	invitations InvitationStore
	tasks       TaskEnqueuer
}

func NewInvitationService(reader InvitationReader, invitations InvitationStore, tasks TaskEnqueuer) *InvitationService {
	return &InvitationService{reader: reader, invitations: invitations, tasks: tasks}
}

// Decline moves an invitation to DECLINED and enqueues a waitlist promotion
// task for its event. The promotion runs on the worker's next tick, never
// inline, so a decline stays fast and the promotion stays retryable.
// Returns:
//   - *domain.Invitation: the invitation after the transition.
//   - error: domain.ErrStatusNoop when the invitation was already declined.
func (s *InvitationService) Decline(ctx context.Context, id string) (*domain.Invitation, error) {
	inv, err := s.reader.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status == domain.InvitationStatusDeclined {
		return inv, domain.ErrStatusNoop
	}

	freedSeat := inv.Status == domain.InvitationStatusAccepted

	err = s.invitations.Transition(ctx, id, inv.Status, domain.InvitationStatusDeclined)
	if err != nil {
		if errors.Is(err, domain.ErrStatusNoop) {
			// Raced with another status change; reload and report.
			return s.reader.Get(ctx, id)
		}
		return nil, fmt.Errorf("failed to decline invitation: %w", err)
	}
	inv.Status = domain.InvitationStatusDeclined

	// Every decline enqueues; the promoter recomputes the seat math itself.
	if err := s.tasks.Enqueue(ctx, domain.TaskKindPromoteWaitlist, inv.WorkspaceID, inv.EventID); err != nil {
		logger.FromContext(ctx).WithError(err).
			WithField(logger.FieldEventID, inv.EventID).
			Errorf("Failed to enqueue waitlist promotion after decline")
	} else {
		logger.With(logger.Fields{
			"invitation_id":     id,
			logger.FieldEventID: inv.EventID,
			"freed_seat":        freedSeat,
		}).Info(ctx, "Invitation declined, promotion task enqueued")
	}

	return inv, nil
}
