package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/timmy/guestrank/internal/domain"
	"github.com/timmy/guestrank/internal/logger"
	"github.com/timmy/guestrank/internal/ratelimit"
)

// Store interfaces consumed by the processor. The repository package provides
// the production implementations; tests substitute in-memory fakes.

// JobStore persists batch jobs and their progress checkpoints.
type JobStore interface {
	ListDue(ctx context.Context, kind domain.JobKind, limit int) ([]domain.Job, error)
	AdvanceCheckpoint(ctx context.Context, jobID string, newCompletedCount, deltaFailed int) error
	Transition(ctx context.Context, jobID string, from, to domain.JobStatus) error
}

// ContactStore reads contacts and applies enrichment patches.
type ContactStore interface {
	Get(ctx context.Context, workspaceID, id string) (*domain.Contact, error)
	ApplyPatch(ctx context.Context, workspaceID, id string, patch *domain.ContactPatch) error
}

// ObjectiveStore reads the weighted objectives of an event.
type ObjectiveStore interface {
	ListByEvent(ctx context.Context, workspaceID, eventID string) ([]domain.Objective, error)
}

// EventStore reads events.
type EventStore interface {
	Get(ctx context.Context, workspaceID, id string) (*domain.Event, error)
}

// ScoreStore persists relevance scores, latest write wins per contact/event.
type ScoreStore interface {
	Upsert(ctx context.Context, score *domain.Score) error
}

// TaskStore drains the outbox of durable side-effect requests.
type TaskStore interface {
	ListPending(ctx context.Context, limit int) ([]domain.OutboxTask, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, cause error, maxAttempts int) error
}

// ContactScorer produces a relevance score for one contact against an event.
type ContactScorer interface {
	Score(ctx context.Context, contact *domain.Contact, objectives []domain.Objective, event *domain.Event) (*ScoreResult, error)
	ModelVersion() string
}

// ContactEnricher fetches external profile data for one contact.
type ContactEnricher interface {
	Enrich(ctx context.Context, contact *domain.Contact) (*domain.ContactPatch, error)
	IsEnabled() bool
}

// TaskHandler executes one outbox task kind.
type TaskHandler interface {
	Handle(ctx context.Context, task *domain.OutboxTask) error
}

// BriefingPublisher exports the final guest briefing for a fully scored event.
// Processors treat publishing as best effort.
type BriefingPublisher interface {
	Publish(ctx context.Context, workspaceID, eventID string) error
}

// ProcessorConfig bounds how much work one tick performs.
type ProcessorConfig struct {
	BatchSize       int
	DueJobsLimit    int
	TaskLimit       int
	TaskMaxAttempts int
}

// Processor advances due batch jobs one slice at a time. It holds no state
// between ticks: everything it needs to resume is read back from the job row,
// so any number of restarts or concurrent passes converge on the same result.
type Processor struct {
	jobs       JobStore
	contacts   ContactStore
	objectives ObjectiveStore
	events     EventStore
	scores     ScoreStore
	tasks      TaskStore

	scorer   ContactScorer
	enricher ContactEnricher
	limiter  ratelimit.Limiter

	handlers  map[domain.TaskKind]TaskHandler
	briefings BriefingPublisher

	batchSize       int
	dueJobsLimit    int
	taskLimit       int
	taskMaxAttempts int
}

// NewProcessor creates a batch processor.
// Parameters:
//   - cfg: per-tick work bounds.
//   - jobs, contacts, objectives, events, scores, tasks: persistence layer.
//   - scorer, enricher: external providers for the two job kinds.
//   - limiter: shared rate limiter gating scoring provider calls per workspace.
//
// Returns:
//   - *Processor: processor with no registered task handlers or briefing
//     publisher; attach those with RegisterTaskHandler and SetBriefingPublisher.
func NewProcessor(
	cfg *ProcessorConfig,
	jobs JobStore,
	contacts ContactStore,
	objectives ObjectiveStore,
	events EventStore,
	scores ScoreStore,
	tasks TaskStore,
	scorer ContactScorer,
	enricher ContactEnricher,
	limiter ratelimit.Limiter,
) *Processor {
	p := &Processor{
		jobs:            jobs,
		contacts:        contacts,
		objectives:      objectives,
		events:          events,
		scores:          scores,
		tasks:           tasks,
		scorer:          scorer,
		enricher:        enricher,
		limiter:         limiter,
		handlers:        make(map[domain.TaskKind]TaskHandler),
		batchSize:       cfg.BatchSize,
		dueJobsLimit:    cfg.DueJobsLimit,
		taskLimit:       cfg.TaskLimit,
		taskMaxAttempts: cfg.TaskMaxAttempts,
	}
	if p.batchSize <= 0 {
		p.batchSize = 10
	}
	if p.dueJobsLimit <= 0 {
		p.dueJobsLimit = 5
	}
	if p.taskLimit <= 0 {
		p.taskLimit = 20
	}
	if p.taskMaxAttempts <= 0 {
		p.taskMaxAttempts = 5
	}
	return p
}

// RegisterTaskHandler binds an outbox task kind to its executor.
func (p *Processor) RegisterTaskHandler(kind domain.TaskKind, h TaskHandler) {
	p.handlers[kind] = h
}

// SetBriefingPublisher attaches an optional briefing exporter invoked when a
// scoring job completes.
func (p *Processor) SetBriefingPublisher(b BriefingPublisher) {
	p.briefings = b
}

// KindStats counts items advanced for one job kind during a pass.
type KindStats struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// TickStats summarizes one processor pass. The counts are observability only,
// progress correctness lives in the job rows.
type TickStats struct {
	Jobs          int                  `json:"jobs"`
	Processed     int                  `json:"processed"`
	Failed        int                  `json:"failed"`
	JobsCompleted int                  `json:"jobs_completed"`
	JobsFailed    int                  `json:"jobs_failed"`
	TasksDone     int                  `json:"tasks_done"`
	TasksFailed   int                  `json:"tasks_failed"`
	Kinds         map[string]KindStats `json:"kinds"`
}

func (s *TickStats) addItems(kind domain.JobKind, processed, failed int) {
	s.Processed += processed
	s.Failed += failed
	if s.Kinds == nil {
		s.Kinds = make(map[string]KindStats)
	}
	ks := s.Kinds[string(kind)]
	ks.Processed += processed
	ks.Failed += failed
	s.Kinds[string(kind)] = ks
}

// RunOnce processes at most one slice of each due job, then drains pending
// outbox tasks. A failure inside one job is logged and never blocks the
// remaining jobs; only a failure to list due work aborts the tick.
func (p *Processor) RunOnce(ctx context.Context) (*TickStats, error) {
	start := time.Now()
	stats := &TickStats{Kinds: make(map[string]KindStats)}

	for _, kind := range []domain.JobKind{domain.JobKindEnrichment, domain.JobKindScoring} {
		due, err := p.jobs.ListDue(ctx, kind, p.dueJobsLimit)
		if err != nil {
			return stats, fmt.Errorf("failed to list due %s jobs: %w", kind, err)
		}
		for i := range due {
			stats.Jobs++
			if err := p.processJob(ctx, &due[i], stats); err != nil {
				logger.FromContext(ctx).WithError(err).
					WithField(logger.FieldJobID, due[i].ID).
					Warnf("Job made no progress this tick")
			}
		}
	}

	p.drainTasks(ctx, stats)

	logger.With(logger.Fields{
		"jobs":           stats.Jobs,
		"processed":      stats.Processed,
		"failed":         stats.Failed,
		"jobs_completed": stats.JobsCompleted,
	}).WithDuration(time.Since(start).Milliseconds()).
		Debug(ctx, "Processor tick finished")

	return stats, nil
}

// processJob advances one job by at most one slice. The checkpoint in the job
// row is the only cursor: the slice is recomputed from it every pass, so a
// crash after provider calls but before AdvanceCheckpoint simply replays the
// same slice next tick.
func (p *Processor) processJob(ctx context.Context, job *domain.Job, stats *TickStats) error {
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldJobID:       job.ID,
		logger.FieldJobKind:     string(job.Kind),
		logger.FieldWorkspaceID: job.WorkspaceID,
	})
	if job.EventID != nil {
		ctx = logger.SetEventID(ctx, *job.EventID)
	}

	if job.Status == domain.JobStatusPending {
		err := p.jobs.Transition(ctx, job.ID, domain.JobStatusPending, domain.JobStatusInProgress)
		if err != nil && !errors.Is(err, domain.ErrStatusNoop) {
			return fmt.Errorf("failed to start job: %w", err)
		}
	}

	// A previous pass may have advanced the checkpoint to the end and then
	// died before the terminal transition.
	if job.Remaining() == 0 {
		return p.finishJob(ctx, job, stats)
	}

	var setup *scoringSetup
	if job.Kind == domain.JobKindScoring {
		s, err := p.loadScoringSetup(ctx, job)
		if err != nil {
			if errors.Is(err, domain.ErrJobSetup) {
				return p.failJob(ctx, job, stats, err)
			}
			return err
		}
		setup = s
	}

	end := job.CompletedCount + p.batchSize
	if end > len(job.TargetIDs) {
		end = len(job.TargetIDs)
	}
	slice := job.TargetIDs[job.CompletedCount:end]

	processed, failed := 0, 0
	for _, contactID := range slice {
		if job.Kind == domain.JobKindScoring && !p.limiter.Allow("scoring:"+job.WorkspaceID) {
			// Deferred contacts stay ahead of the checkpoint and are
			// retried on the next tick.
			logger.CtxWarn(ctx, "Workspace scoring rate exhausted, deferring %d contacts", len(slice)-processed)
			break
		}
		if err := p.processItem(logger.SetContactID(ctx, contactID), job, contactID, setup); err != nil {
			failed++
			logger.FromContext(ctx).WithError(err).
				WithField(logger.FieldContactID, contactID).
				Warnf("Contact processing failed, continuing slice")
		}
		processed++
	}
	if processed == 0 {
		return nil
	}

	newCount := job.CompletedCount + processed
	if err := p.jobs.AdvanceCheckpoint(ctx, job.ID, newCount, failed); err != nil {
		if errors.Is(err, domain.ErrStaleCheckpoint) {
			logger.CtxInfo(ctx, "Checkpoint already past %d, another pass won the slice", newCount)
			return nil
		}
		return fmt.Errorf("failed to advance checkpoint: %w", err)
	}
	stats.addItems(job.Kind, processed, failed)
	job.CompletedCount = newCount

	if job.Remaining() == 0 {
		return p.finishJob(ctx, job, stats)
	}
	return nil
}

// scoringSetup is loaded once per slice, not once per contact.
type scoringSetup struct {
	event      *domain.Event
	objectives []domain.Objective
}

func (p *Processor) loadScoringSetup(ctx context.Context, job *domain.Job) (*scoringSetup, error) {
	if job.EventID == nil || *job.EventID == "" {
		return nil, fmt.Errorf("%w: scoring job has no event", domain.ErrJobSetup)
	}
	eventID := *job.EventID

	event, err := p.events.Get(ctx, job.WorkspaceID, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: event %s not found", domain.ErrJobSetup, eventID)
		}
		return nil, fmt.Errorf("failed to load event %s: %w", eventID, err)
	}

	objectives, err := p.objectives.ListByEvent(ctx, job.WorkspaceID, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load objectives for event %s: %w", eventID, err)
	}
	if len(objectives) == 0 {
		return nil, fmt.Errorf("%w: event %s has no objectives", domain.ErrJobSetup, eventID)
	}

	return &scoringSetup{event: event, objectives: objectives}, nil
}

func (p *Processor) processItem(ctx context.Context, job *domain.Job, contactID string, setup *scoringSetup) error {
	switch job.Kind {
	case domain.JobKindScoring:
		return p.scoreContact(ctx, job, contactID, setup)
	case domain.JobKindEnrichment:
		return p.enrichContact(ctx, job, contactID)
	default:
		return fmt.Errorf("unknown job kind %q", job.Kind)
	}
}

// scoreContact scores one contact and upserts the result. A provider failure
// leaves any previous score row untouched; an unparsable response persists the
// engine's minimal fallback so the contact still appears in rankings.
func (p *Processor) scoreContact(ctx context.Context, job *domain.Job, contactID string, setup *scoringSetup) error {
	contact, err := p.contacts.Get(ctx, job.WorkspaceID, contactID)
	if err != nil {
		return fmt.Errorf("failed to load contact: %w", err)
	}

	result, scoreErr := p.scorer.Score(ctx, contact, setup.objectives, setup.event)
	if scoreErr != nil {
		var parseErr *domain.ScoringParseError
		if !errors.As(scoreErr, &parseErr) {
			return scoreErr
		}
		// result already holds the fallback output here.
		logger.CtxWarn(ctx, "Unparsable scorer response, persisting fallback score: %v", parseErr.Cause)
	}

	score := &domain.Score{
		ID:                uuid.New().String(),
		ContactID:         contactID,
		EventID:           setup.event.ID,
		WorkspaceID:       job.WorkspaceID,
		RelevanceScore:    result.RelevanceScore,
		MatchedObjectives: result.MatchedObjectives,
		Rationale:         result.Rationale,
		TalkingPoints:     result.TalkingPoints,
		ModelVersion:      result.ModelVersion,
		ScoredAt:          time.Now().UTC(),
	}
	if err := p.scores.Upsert(ctx, score); err != nil {
		return fmt.Errorf("failed to upsert score: %w", err)
	}
	return scoreErr
}

func (p *Processor) enrichContact(ctx context.Context, job *domain.Job, contactID string) error {
	contact, err := p.contacts.Get(ctx, job.WorkspaceID, contactID)
	if err != nil {
		return fmt.Errorf("failed to load contact: %w", err)
	}

	patch, err := p.enricher.Enrich(ctx, contact)
	if err != nil {
		return err
	}
	if patch == nil || patch.Empty() {
		logger.CtxDebug(ctx, "Enrichment returned nothing for contact %s", contactID)
		return nil
	}
	if err := p.contacts.ApplyPatch(ctx, job.WorkspaceID, contactID, patch); err != nil {
		return fmt.Errorf("failed to apply enrichment patch: %w", err)
	}
	return nil
}

func (p *Processor) finishJob(ctx context.Context, job *domain.Job, stats *TickStats) error {
	err := p.jobs.Transition(ctx, job.ID, domain.JobStatusInProgress, domain.JobStatusCompleted)
	if err != nil {
		if errors.Is(err, domain.ErrStatusNoop) {
			return nil
		}
		return fmt.Errorf("failed to complete job: %w", err)
	}
	stats.JobsCompleted++
	logger.With(logger.Fields{"failed_count": job.FailedCount}).
		WithCount(len(job.TargetIDs)).
		Info(ctx, "Job completed")

	if p.briefings != nil && job.Kind == domain.JobKindScoring && job.EventID != nil {
		if err := p.briefings.Publish(ctx, job.WorkspaceID, *job.EventID); err != nil {
			logger.FromContext(ctx).WithError(err).Warnf("Briefing export failed")
		}
	}
	return nil
}

func (p *Processor) failJob(ctx context.Context, job *domain.Job, stats *TickStats, cause error) error {
	logger.FromContext(ctx).WithError(cause).Errorf("Failing job, no per-contact progress is possible")

	err := p.jobs.Transition(ctx, job.ID, domain.JobStatusInProgress, domain.JobStatusFailed)
	if err != nil && !errors.Is(err, domain.ErrStatusNoop) {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	stats.JobsFailed++
	return nil
}

// drainTasks executes pending outbox tasks. Each task is attempted once per
// tick; MarkFailed keeps it pending until the attempt limit is reached.
func (p *Processor) drainTasks(ctx context.Context, stats *TickStats) {
	pending, err := p.tasks.ListPending(ctx, p.taskLimit)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Errorf("Failed to list pending tasks")
		return
	}

	for i := range pending {
		task := &pending[i]
		tctx := logger.WithFields(ctx, logger.Fields{
			"task_id":               task.ID,
			"task_kind":             string(task.Kind),
			logger.FieldWorkspaceID: task.WorkspaceID,
			logger.FieldEventID:     task.EventID,
		})

		handler, ok := p.handlers[task.Kind]
		if !ok {
			p.recordTaskFailure(tctx, task, stats, fmt.Errorf("no handler for task kind %q", task.Kind))
			continue
		}
		if err := handler.Handle(tctx, task); err != nil {
			p.recordTaskFailure(tctx, task, stats, err)
			continue
		}
		if err := p.tasks.MarkDone(tctx, task.ID); err != nil {
			logger.FromContext(tctx).WithError(err).Errorf("Failed to mark task done")
			continue
		}
		stats.TasksDone++
	}
}

func (p *Processor) recordTaskFailure(ctx context.Context, task *domain.OutboxTask, stats *TickStats, cause error) {
	logger.FromContext(ctx).WithError(cause).Warnf("Task attempt failed")
	if err := p.tasks.MarkFailed(ctx, task.ID, cause, p.taskMaxAttempts); err != nil {
		logger.FromContext(ctx).WithError(err).Errorf("Failed to record task failure")
		return
	}
	stats.TasksFailed++
}
