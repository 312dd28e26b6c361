package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/timmy/guestrank/internal/domain"
)

func TestJobRepository_Create_RejectsEmptyScope(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))

	_, err := repo.Create(context.Background(), domain.JobKindEnrichment, "ws-1", nil, nil)
	if !errors.Is(err, domain.ErrInvalidScope) {
		t.Fatalf("expected ErrInvalidScope, got %v", err)
	}

	count, err := repo.CountByStatus(context.Background(), "ws-1", domain.JobStatusPending)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no job rows, got %d", count)
	}
}

func TestJobRepository_AdvanceCheckpoint_Monotonic(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))
	ctx := context.Background()

	job, err := repo.Create(ctx, domain.JobKindScoring, "ws-1", strPtr("ev-1"), []string{"c1", "c2", "c3", "c4"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := repo.AdvanceCheckpoint(ctx, job.ID, 2, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CompletedCount != 2 {
		t.Errorf("expected checkpoint 2, got %d", got.CompletedCount)
	}
	if got.FailedCount != 1 {
		t.Errorf("expected failed_count 1, got %d", got.FailedCount)
	}

	// A racer that read the cursor before the advance tries to write a
	// smaller value and loses.
	err = repo.AdvanceCheckpoint(ctx, job.ID, 1, 0)
	if !errors.Is(err, domain.ErrStaleCheckpoint) {
		t.Fatalf("expected ErrStaleCheckpoint, got %v", err)
	}

	got, _ = repo.GetByID(ctx, job.ID)
	if got.CompletedCount != 2 {
		t.Errorf("expected checkpoint to stay at 2, got %d", got.CompletedCount)
	}
	if got.FailedCount != 1 {
		t.Errorf("expected failed_count unchanged, got %d", got.FailedCount)
	}

	// The larger value always wins.
	if err := repo.AdvanceCheckpoint(ctx, job.ID, 4, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ = repo.GetByID(ctx, job.ID)
	if got.CompletedCount != 4 {
		t.Errorf("expected checkpoint 4, got %d", got.CompletedCount)
	}
}

func TestJobRepository_Transition_CAS(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))
	ctx := context.Background()

	job, err := repo.Create(ctx, domain.JobKindEnrichment, "ws-1", nil, []string{"c1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := repo.Transition(ctx, job.ID, domain.JobStatusPending, domain.JobStatusInProgress); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := repo.GetByID(ctx, job.ID)
	if got.Status != domain.JobStatusInProgress {
		t.Errorf("expected in_progress, got %s", got.Status)
	}
	if got.StartedAt == nil {
		t.Error("expected started_at set on start")
	}

	// Repeating the same transition is a no-op, not an error state.
	err = repo.Transition(ctx, job.ID, domain.JobStatusPending, domain.JobStatusInProgress)
	if !errors.Is(err, domain.ErrStatusNoop) {
		t.Fatalf("expected ErrStatusNoop, got %v", err)
	}

	if err := repo.Transition(ctx, job.ID, domain.JobStatusInProgress, domain.JobStatusCompleted); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ = repo.GetByID(ctx, job.ID)
	if got.Status != domain.JobStatusCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("expected completed_at set on terminal transition")
	}
}

func TestJobRepository_ListDue_SkipsTerminal(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))
	ctx := context.Background()

	pending, _ := repo.Create(ctx, domain.JobKindScoring, "ws-1", strPtr("ev-1"), []string{"c1"})
	done, _ := repo.Create(ctx, domain.JobKindScoring, "ws-1", strPtr("ev-2"), []string{"c1"})
	_ = repo.Transition(ctx, done.ID, domain.JobStatusPending, domain.JobStatusInProgress)
	_ = repo.Transition(ctx, done.ID, domain.JobStatusInProgress, domain.JobStatusCompleted)

	due, err := repo.ListDue(ctx, domain.JobKindScoring, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("expected 1 due job, got %d", len(due))
	}
	if due[0].ID != pending.ID {
		t.Errorf("expected the pending job, got %s", due[0].ID)
	}
}

func TestJobRepository_GetActive(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))
	ctx := context.Background()

	job, err := repo.GetActive(ctx, "ws-1", "ev-1", domain.JobKindScoring)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job != nil {
		t.Fatal("expected nil job when nothing is running")
	}

	created, _ := repo.Create(ctx, domain.JobKindScoring, "ws-1", strPtr("ev-1"), []string{"c1"})

	job, err = repo.GetActive(ctx, "ws-1", "ev-1", domain.JobKindScoring)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job == nil || job.ID != created.ID {
		t.Fatal("expected the created job to be active")
	}

	// Enrichment jobs carry no event and are found by the empty event scope.
	enrich, _ := repo.Create(ctx, domain.JobKindEnrichment, "ws-1", nil, []string{"c1"})
	job, err = repo.GetActive(ctx, "ws-1", "", domain.JobKindEnrichment)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job == nil || job.ID != enrich.ID {
		t.Fatal("expected the enrichment job to be active")
	}
}

func strPtr(s string) *string { return &s }
