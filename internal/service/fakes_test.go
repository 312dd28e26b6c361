package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/timmy/guestrank/internal/domain"
)

// In-memory fakes mirroring the repository guarantees: guarded status
// transitions, monotonic checkpoints, latest-wins score upserts.

type fakeJobStore struct {
	jobs map[string]*domain.Job
}

func newFakeJobStore(jobs ...*domain.Job) *fakeJobStore {
	s := &fakeJobStore{jobs: make(map[string]*domain.Job)}
	for _, j := range jobs {
		s.jobs[j.ID] = j
	}
	return s
}

func (s *fakeJobStore) ListDue(_ context.Context, kind domain.JobKind, limit int) ([]domain.Job, error) {
	var due []domain.Job
	for _, j := range s.jobs {
		if j.Kind == kind && !j.Status.Terminal() {
			due = append(due, *j)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].CreatedAt.Before(due[j].CreatedAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *fakeJobStore) AdvanceCheckpoint(_ context.Context, jobID string, newCompletedCount, deltaFailed int) error {
	j, ok := s.jobs[jobID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if j.CompletedCount > newCompletedCount {
		return domain.ErrStaleCheckpoint
	}
	j.CompletedCount = newCompletedCount
	j.FailedCount += deltaFailed
	return nil
}

func (s *fakeJobStore) Transition(_ context.Context, jobID string, from, to domain.JobStatus) error {
	j, ok := s.jobs[jobID]
	if !ok || j.Status != from {
		return domain.ErrStatusNoop
	}
	j.Status = to
	now := time.Now()
	if from == domain.JobStatusPending && to == domain.JobStatusInProgress {
		j.StartedAt = &now
	}
	if to.Terminal() {
		j.CompletedAt = &now
	}
	return nil
}

type fakeContactStore struct {
	contacts map[string]*domain.Contact
	patches  map[string]*domain.ContactPatch
}

func newFakeContactStore(contacts ...*domain.Contact) *fakeContactStore {
	s := &fakeContactStore{
		contacts: make(map[string]*domain.Contact),
		patches:  make(map[string]*domain.ContactPatch),
	}
	for _, c := range contacts {
		s.contacts[c.ID] = c
	}
	return s
}

func (s *fakeContactStore) Get(_ context.Context, _, id string) (*domain.Contact, error) {
	c, ok := s.contacts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (s *fakeContactStore) ApplyPatch(_ context.Context, _, id string, patch *domain.ContactPatch) error {
	c, ok := s.contacts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if patch.Company != nil {
		c.Company = *patch.Company
	}
	if patch.Title != nil {
		c.Title = *patch.Title
	}
	if patch.Industry != nil {
		c.Industry = *patch.Industry
	}
	if patch.EnrichmentNote != nil {
		c.EnrichmentNote = *patch.EnrichmentNote
	}
	if patch.EnrichedAt != nil {
		c.EnrichedAt = patch.EnrichedAt
	}
	s.patches[id] = patch
	return nil
}

type fakeObjectiveStore struct {
	byEvent map[string][]domain.Objective
}

func (s *fakeObjectiveStore) ListByEvent(_ context.Context, _, eventID string) ([]domain.Objective, error) {
	return s.byEvent[eventID], nil
}

func (s *fakeObjectiveStore) CountByEvent(_ context.Context, _, eventID string) (int64, error) {
	return int64(len(s.byEvent[eventID])), nil
}

type fakeEventStore struct {
	events map[string]*domain.Event
}

func (s *fakeEventStore) Get(_ context.Context, _, id string) (*domain.Event, error) {
	e, ok := s.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return e, nil
}

type fakeScoreStore struct {
	rows map[string]*domain.Score // keyed contactID|eventID
}

func newFakeScoreStore() *fakeScoreStore {
	return &fakeScoreStore{rows: make(map[string]*domain.Score)}
}

func (s *fakeScoreStore) Upsert(_ context.Context, score *domain.Score) error {
	s.rows[score.ContactID+"|"+score.EventID] = score
	return nil
}

func (s *fakeScoreStore) List(_ context.Context, _, eventID string, filters domain.ScoreFilters) ([]domain.Score, error) {
	var out []domain.Score
	for _, row := range s.rows {
		if row.EventID != eventID {
			continue
		}
		if filters.MinScore != nil && row.RelevanceScore < *filters.MinScore {
			continue
		}
		if len(filters.ContactIDs) > 0 {
			found := false
			for _, id := range filters.ContactIDs {
				if id == row.ContactID {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RelevanceScore > out[j].RelevanceScore })
	return out, nil
}

type fakeTaskStore struct {
	tasks []*domain.OutboxTask
}

func (s *fakeTaskStore) Enqueue(_ context.Context, kind domain.TaskKind, workspaceID, eventID string) error {
	s.tasks = append(s.tasks, &domain.OutboxTask{
		ID:          fmt.Sprintf("task-%d", len(s.tasks)+1),
		Kind:        kind,
		WorkspaceID: workspaceID,
		EventID:     eventID,
		Status:      domain.TaskStatusPending,
	})
	return nil
}

func (s *fakeTaskStore) ListPending(_ context.Context, limit int) ([]domain.OutboxTask, error) {
	var out []domain.OutboxTask
	for _, t := range s.tasks {
		if t.Status == domain.TaskStatusPending {
			out = append(out, *t)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *fakeTaskStore) MarkDone(_ context.Context, id string) error {
	for _, t := range s.tasks {
		if t.ID == id {
			t.Status = domain.TaskStatusDone
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *fakeTaskStore) MarkFailed(_ context.Context, id string, cause error, maxAttempts int) error {
	for _, t := range s.tasks {
		if t.ID == id {
			t.Attempts++
			t.LastError = cause.Error()
			if t.Attempts >= maxAttempts {
				t.Status = domain.TaskStatusFailed
			}
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// fakeScorer returns canned results or errors per contact ID. A parse error
// is returned alongside the fallback result, matching the real engine.
type fakeScorer struct {
	results map[string]*ScoreResult
	errs    map[string]error
	calls   []string
}

func (f *fakeScorer) Score(_ context.Context, contact *domain.Contact, _ []domain.Objective, _ *domain.Event) (*ScoreResult, error) {
	f.calls = append(f.calls, contact.ID)
	if err, ok := f.errs[contact.ID]; ok {
		var parseErr *domain.ScoringParseError
		if errors.As(err, &parseErr) {
			return &ScoreResult{
				RelevanceScore:    0,
				MatchedObjectives: []domain.ObjectiveMatch{},
				Rationale:         "Relevance could not be determined for this contact.",
				TalkingPoints:     []string{},
				ModelVersion:      f.ModelVersion(),
			}, err
		}
		return nil, err
	}
	if r, ok := f.results[contact.ID]; ok {
		return r, nil
	}
	return &ScoreResult{
		RelevanceScore:    50,
		MatchedObjectives: []domain.ObjectiveMatch{},
		Rationale:         "Default fit.",
		TalkingPoints:     []string{},
		ModelVersion:      f.ModelVersion(),
	}, nil
}

func (f *fakeScorer) ModelVersion() string { return "fake-model" }

type fakeEnricher struct {
	patches map[string]*domain.ContactPatch
	errs    map[string]error
}

func (f *fakeEnricher) Enrich(_ context.Context, contact *domain.Contact) (*domain.ContactPatch, error) {
	if err, ok := f.errs[contact.ID]; ok {
		return nil, err
	}
	if p, ok := f.patches[contact.ID]; ok {
		return p, nil
	}
	return &domain.ContactPatch{}, nil
}

func (f *fakeEnricher) IsEnabled() bool { return true }

// fakeLimiter allows the first n calls and denies the rest. n < 0 means
// always allow.
type fakeLimiter struct {
	remaining int
}

func (l *fakeLimiter) Allow(string) bool {
	if l.remaining < 0 {
		return true
	}
	if l.remaining == 0 {
		return false
	}
	l.remaining--
	return true
}

func (l *fakeLimiter) Reset(string) {}

type fakeTaskHandler struct {
	handled []string
	err     error
}

func (h *fakeTaskHandler) Handle(_ context.Context, task *domain.OutboxTask) error {
	if h.err != nil {
		return h.err
	}
	h.handled = append(h.handled, task.ID)
	return nil
}
