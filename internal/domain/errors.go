package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the batch subsystem. Callers discriminate with
// errors.Is; the typed errors below additionally carry a cause.
var (
	// ErrInvalidScope is returned when a job is created with an empty
	// target list. Such a job never enters the store.
	ErrInvalidScope = errors.New("job target scope is empty")

	// ErrStaleCheckpoint is returned when a checkpoint advance lost a race
	// to a writer that already moved the cursor further. Callers treat it
	// as a benign no-op.
	ErrStaleCheckpoint = errors.New("checkpoint is stale")

	// ErrStatusNoop is returned by a guarded status transition whose
	// expected from-status no longer matches. Another processor pass
	// already moved the job; callers treat it as success by idempotence.
	ErrStatusNoop = errors.New("status transition is a no-op")

	// ErrJobSetup marks a failure that prevents any per-item progress on a
	// job (objectives missing, event deleted). It fails the whole job.
	ErrJobSetup = errors.New("job setup failed")

	// ErrNoObjectives rejects a scoring job at creation when its event has
	// no objectives to score against.
	ErrNoObjectives = errors.New("event has no objectives")
)

// ScoringParseError indicates the external scorer returned a response that
// could not be parsed as structured output. The item degrades to a minimal
// default score; the batch continues.
type ScoringParseError struct {
	ContactID string
	Cause     error
}

func (e *ScoringParseError) Error() string {
	return fmt.Sprintf("unparsable scoring response for contact %s: %v", e.ContactID, e.Cause)
}

func (e *ScoringParseError) Unwrap() error { return e.Cause }

// ProviderError indicates a network, timeout, or provider-side failure while
// calling an external service for a single item.
type ProviderError struct {
	Provider string
	Cause    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider call failed: %v", e.Provider, e.Cause)
}

func (e *ProviderError) Unwrap() error { return e.Cause }
