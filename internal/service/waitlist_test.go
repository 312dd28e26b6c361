package service

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/timmy/guestrank/internal/domain"
)

type fakeInvitationStore struct {
	invitations map[string]*domain.Invitation
}

func newFakeInvitationStore(invitations ...*domain.Invitation) *fakeInvitationStore {
	s := &fakeInvitationStore{invitations: make(map[string]*domain.Invitation)}
	for _, inv := range invitations {
		s.invitations[inv.ID] = inv
	}
	return s
}

func (s *fakeInvitationStore) Get(_ context.Context, id string) (*domain.Invitation, error) {
	inv, ok := s.invitations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return inv, nil
}

func (s *fakeInvitationStore) CountByStatus(_ context.Context, _, eventID string, status domain.InvitationStatus) (int64, error) {
	var count int64
	for _, inv := range s.invitations {
		if inv.EventID == eventID && inv.Status == status {
			count++
		}
	}
	return count, nil
}

func (s *fakeInvitationStore) ListWaitlisted(_ context.Context, _, eventID string) ([]domain.Invitation, error) {
	var out []domain.Invitation
	for _, inv := range s.invitations {
		if inv.EventID == eventID && inv.Status == domain.InvitationStatusWaitlist {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (s *fakeInvitationStore) Transition(_ context.Context, id string, from, to domain.InvitationStatus) error {
	inv, ok := s.invitations[id]
	if !ok || inv.Status != from {
		return domain.ErrStatusNoop
	}
	inv.Status = to
	return nil
}

func waitlistFixture(capacity, accepted int, waitlisted ...*domain.Invitation) (*WaitlistPromoter, *fakeInvitationStore, *fakeScoreStore) {
	invitations := make([]*domain.Invitation, 0, accepted+len(waitlisted))
	for i := 0; i < accepted; i++ {
		invitations = append(invitations, &domain.Invitation{
			ID:          "acc-" + string(rune('a'+i)),
			WorkspaceID: "ws-1",
			EventID:     "ev-1",
			ContactID:   "acc-contact-" + string(rune('a'+i)),
			Status:      domain.InvitationStatusAccepted,
		})
	}
	invitations = append(invitations, waitlisted...)

	store := newFakeInvitationStore(invitations...)
	scores := newFakeScoreStore()
	events := &fakeEventStore{events: map[string]*domain.Event{
		"ev-1": {ID: "ev-1", WorkspaceID: "ws-1", Name: "Founders Dinner", Capacity: capacity},
	}}
	return NewWaitlistPromoter(store, scores, events), store, scores
}

func waitlistInvitation(id, contactID string, tier, priority int) *domain.Invitation {
	return &domain.Invitation{
		ID:          id,
		WorkspaceID: "ws-1",
		EventID:     "ev-1",
		ContactID:   contactID,
		Status:      domain.InvitationStatusWaitlist,
		Tier:        tier,
		Priority:    priority,
	}
}

func promoteTask() *domain.OutboxTask {
	return &domain.OutboxTask{
		ID:          "task-1",
		Kind:        domain.TaskKindPromoteWaitlist,
		WorkspaceID: "ws-1",
		EventID:     "ev-1",
	}
}

// Capacity 10 with 8 accepted leaves two open seats: the two best waitlisted
// invitations by (tier, priority, relevance score) get promoted, no more.
func TestWaitlistPromoter_FillsOpenSeatsInOrder(t *testing.T) {
	promoter, store, scores := waitlistFixture(10, 8,
		waitlistInvitation("w1", "c-low-tier", 2, 100),
		waitlistInvitation("w2", "c-high-prio", 1, 50),
		waitlistInvitation("w3", "c-low-prio", 1, 10),
		waitlistInvitation("w4", "c-scored", 1, 10),
	)

	ctx := context.Background()
	// w3 and w4 tie on tier and priority; the score breaks the tie.
	_ = scores.Upsert(ctx, &domain.Score{ID: "s1", ContactID: "c-scored", EventID: "ev-1", WorkspaceID: "ws-1", RelevanceScore: 80})
	_ = scores.Upsert(ctx, &domain.Score{ID: "s2", ContactID: "c-low-prio", EventID: "ev-1", WorkspaceID: "ws-1", RelevanceScore: 20})

	if err := promoter.Handle(ctx, promoteTask()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := store.invitations["w2"].Status; got != domain.InvitationStatusAccepted {
		t.Errorf("expected w2 (tier 1, priority 50) promoted, got %s", got)
	}
	if got := store.invitations["w4"].Status; got != domain.InvitationStatusAccepted {
		t.Errorf("expected w4 (tier 1, score 80) promoted, got %s", got)
	}
	if got := store.invitations["w3"].Status; got != domain.InvitationStatusWaitlist {
		t.Errorf("expected w3 to stay waitlisted, got %s", got)
	}
	if got := store.invitations["w1"].Status; got != domain.InvitationStatusWaitlist {
		t.Errorf("expected w1 (tier 2) to stay waitlisted, got %s", got)
	}

	accepted, _ := store.CountByStatus(ctx, "ws-1", "ev-1", domain.InvitationStatusAccepted)
	if accepted != 10 {
		t.Errorf("expected exactly capacity accepted, got %d", accepted)
	}
}

func TestWaitlistPromoter_NoOpenSeats(t *testing.T) {
	promoter, store, _ := waitlistFixture(10, 10,
		waitlistInvitation("w1", "c1", 1, 50),
	)

	if err := promoter.Handle(context.Background(), promoteTask()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := store.invitations["w1"].Status; got != domain.InvitationStatusWaitlist {
		t.Errorf("expected no promotion at full capacity, got %s", got)
	}
}

func TestWaitlistPromoter_UncappedEvent(t *testing.T) {
	promoter, store, _ := waitlistFixture(0, 3,
		waitlistInvitation("w1", "c1", 1, 50),
	)

	if err := promoter.Handle(context.Background(), promoteTask()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := store.invitations["w1"].Status; got != domain.InvitationStatusWaitlist {
		t.Errorf("expected uncapped event to skip promotion, got %s", got)
	}
}

func TestWaitlistPromoter_ExhaustsWaitlist(t *testing.T) {
	promoter, store, _ := waitlistFixture(10, 5,
		waitlistInvitation("w1", "c1", 1, 50),
		waitlistInvitation("w2", "c2", 1, 40),
	)

	if err := promoter.Handle(context.Background(), promoteTask()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	accepted, _ := store.CountByStatus(context.Background(), "ws-1", "ev-1", domain.InvitationStatusAccepted)
	if accepted != 7 {
		t.Errorf("expected all waitlisted promoted when seats outnumber them, got %d accepted", accepted)
	}
}

// A decline at full capacity frees exactly one seat, and handling the
// enqueued task promotes exactly one waitlisted invitation.
func TestWaitlistPromoter_DeclineFreesOneSeat(t *testing.T) {
	promoter, store, _ := waitlistFixture(10, 10,
		waitlistInvitation("w1", "c-best", 1, 90),
		waitlistInvitation("w2", "c-next", 1, 40),
	)
	tasks := &fakeTaskStore{}
	svc := NewInvitationService(store, store, tasks)
	ctx := context.Background()

	if _, err := svc.Decline(ctx, "acc-a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks.tasks) != 1 {
		t.Fatalf("expected 1 task enqueued, got %d", len(tasks.tasks))
	}

	if err := promoter.Handle(ctx, tasks.tasks[0]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := store.invitations["w1"].Status; got != domain.InvitationStatusAccepted {
		t.Errorf("expected the best waitlisted invitation promoted, got %s", got)
	}
	if got := store.invitations["w2"].Status; got != domain.InvitationStatusWaitlist {
		t.Errorf("expected only one promotion, got %s", got)
	}
	accepted, _ := store.CountByStatus(ctx, "ws-1", "ev-1", domain.InvitationStatusAccepted)
	if accepted != 10 {
		t.Errorf("expected accepted count back at capacity, got %d", accepted)
	}
}

func TestInvitationService_DeclineEnqueuesPromotion(t *testing.T) {
	store := newFakeInvitationStore(
		&domain.Invitation{ID: "inv-1", WorkspaceID: "ws-1", EventID: "ev-1", ContactID: "c1", Status: domain.InvitationStatusAccepted},
	)
	tasks := &fakeTaskStore{}
	svc := NewInvitationService(store, store, tasks)

	inv, err := svc.Decline(context.Background(), "inv-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.Status != domain.InvitationStatusDeclined {
		t.Errorf("expected declined, got %s", inv.Status)
	}
	if len(tasks.tasks) != 1 {
		t.Fatalf("expected 1 task enqueued, got %d", len(tasks.tasks))
	}
	if tasks.tasks[0].Kind != domain.TaskKindPromoteWaitlist {
		t.Errorf("expected promote_waitlist task, got %s", tasks.tasks[0].Kind)
	}

	// Declining again is a no-op and enqueues nothing new.
	_, err = svc.Decline(context.Background(), "inv-1")
	if err == nil {
		t.Error("expected ErrStatusNoop on second decline")
	}
	if len(tasks.tasks) != 1 {
		t.Errorf("expected no additional task, got %d", len(tasks.tasks))
	}
}
