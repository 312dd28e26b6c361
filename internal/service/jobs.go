package service

import (
	"context"
	"fmt"

	"github.com/timmy/guestrank/internal/domain"
	"github.com/timmy/guestrank/internal/logger"
)

// JobIntakeStore is the job persistence surface used at the creation boundary.
type JobIntakeStore interface {
	Create(ctx context.Context, kind domain.JobKind, workspaceID string, eventID *string, targetIDs []string) (*domain.Job, error)
	GetByID(ctx context.Context, id string) (*domain.Job, error)
	GetActive(ctx context.Context, workspaceID, eventID string, kind domain.JobKind) (*domain.Job, error)
}

// ContactLister resolves the full contact scope of a workspace.
type ContactLister interface {
	ListIDs(ctx context.Context, workspaceID string) ([]string, error)
}

// ObjectiveCounter counts the objectives configured for an event.
type ObjectiveCounter interface {
	CountByEvent(ctx context.Context, workspaceID, eventID string) (int64, error)
}

// JobService is the intake boundary for batch jobs. All scope and setup
// validation happens here, before anything is written, so an invalid request
// never produces a job row.
type JobService struct {
	jobs       JobIntakeStore
	contacts   ContactLister
	objectives ObjectiveCounter
}

func NewJobService(jobs JobIntakeStore, contacts ContactLister, objectives ObjectiveCounter) *JobService {
	return &JobService{jobs: jobs, contacts: contacts, objectives: objectives}
}

// CreateJobRequest carries one job creation request.
//
// TargetIDs empty means "every contact in the workspace": the scope is
// resolved here, once, and snapshotted onto the job. Contacts added later do
// not join the job.
type CreateJobRequest struct {
	Kind        domain.JobKind `json:"kind" binding:"required"`
	WorkspaceID string         `json:"workspace_id" binding:"required"`
	EventID     string         `json:"event_id"`
	TargetIDs   []string       `json:"target_ids"`
}

// Create validates and persists a new batch job.
// Parameters:
//   - req: creation request; see CreateJobRequest for scope semantics.
// Returns:
//   - *domain.Job: the persisted job in PENDING state.
//   - error: domain.ErrInvalidScope when the resolved scope is empty,
//     domain.ErrNoObjectives when a scoring job's event has no objectives.
func (s *JobService) Create(ctx context.Context, req *CreateJobRequest) (*domain.Job, error) {
	switch req.Kind {
	case domain.JobKindEnrichment, domain.JobKindScoring:
	default:
		return nil, fmt.Errorf("unknown job kind %q", req.Kind)
	}

	var eventID *string
	if req.Kind == domain.JobKindScoring {
		if req.EventID == "" {
			return nil, fmt.Errorf("%w: scoring job requires an event", domain.ErrInvalidScope)
		}
		count, err := s.objectives.CountByEvent(ctx, req.WorkspaceID, req.EventID)
		if err != nil {
			return nil, fmt.Errorf("failed to count objectives: %w", err)
		}
		if count == 0 {
			return nil, fmt.Errorf("%w: event %s", domain.ErrNoObjectives, req.EventID)
		}
		eventID = &req.EventID
	}

	targetIDs := req.TargetIDs
	if len(targetIDs) == 0 {
		resolved, err := s.contacts.ListIDs(ctx, req.WorkspaceID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve contact scope: %w", err)
		}
		targetIDs = resolved
	}
	if len(targetIDs) == 0 {
		return nil, domain.ErrInvalidScope
	}

	job, err := s.jobs.Create(ctx, req.Kind, req.WorkspaceID, eventID, targetIDs)
	if err != nil {
		return nil, err
	}

	logger.With(logger.Fields{
		logger.FieldJobID:       job.ID,
		logger.FieldJobKind:     string(job.Kind),
		logger.FieldWorkspaceID: job.WorkspaceID,
	}).WithCount(len(job.TargetIDs)).Info(ctx, "Batch job created")

	return job, nil
}

// Get returns one job by ID.
func (s *JobService) Get(ctx context.Context, id string) (*domain.Job, error) {
	return s.jobs.GetByID(ctx, id)
}

// GetActive returns the newest non-terminal job for a workspace, optionally
// narrowed to one event. It returns (nil, nil) when no job is running.
func (s *JobService) GetActive(ctx context.Context, workspaceID, eventID string, kind domain.JobKind) (*domain.Job, error) {
	return s.jobs.GetActive(ctx, workspaceID, eventID, kind)
}
