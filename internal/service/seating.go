package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/timmy/guestrank/internal/domain"
	"github.com/timmy/guestrank/internal/logger"
)

// SeatingStore persists seating suggestions for an event.
type SeatingStore interface {
	Replace(ctx context.Context, workspaceID, eventID string, suggestions []domain.SeatingSuggestion) error
	ListByEvent(ctx context.Context, workspaceID, eventID string) ([]domain.SeatingSuggestion, error)
}

// SeatingConfig describes the table layout to seat against.
type SeatingConfig struct {
	TableSize int `json:"table_size"`
}

// SeatingService proposes table assignments from persisted relevance scores.
// It never reads or writes job state; a re-run wholesale replaces the previous
// suggestion set for the event.
type SeatingService struct {
	scores  ScoreReader
	seating SeatingStore
}

func NewSeatingService(scores ScoreReader, seating SeatingStore) *SeatingService {
	return &SeatingService{scores: scores, seating: seating}
}

// Suggest seats every scored contact greedily: contacts ordered by relevance
// score descending fill Table 1 first, then Table 2, and so on. The highest
// scored guests end up sharing tables, which is the stated house policy for
// these events.
// Parameters:
//   - workspaceID, eventID: scope of the suggestion set.
//   - cfg: table layout; TableSize below 1 defaults to 8.
// Returns:
//   - []domain.SeatingSuggestion: persisted assignments, score order.
func (s *SeatingService) Suggest(ctx context.Context, workspaceID, eventID string, cfg SeatingConfig) ([]domain.SeatingSuggestion, error) {
	tableSize := cfg.TableSize
	if tableSize < 1 {
		tableSize = 8
	}

	scores, err := s.scores.List(ctx, workspaceID, eventID, domain.ScoreFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to load scores: %w", err)
	}
	if len(scores) == 0 {
		return nil, nil
	}

	// Score rows arrive ordered by relevance_score descending.
	suggestions := make([]domain.SeatingSuggestion, 0, len(scores))
	for i := range scores {
		table := i/tableSize + 1
		seat := i%tableSize + 1
		suggestions = append(suggestions, domain.SeatingSuggestion{
			ID:          uuid.New().String(),
			WorkspaceID: workspaceID,
			EventID:     eventID,
			ContactID:   scores[i].ContactID,
			TableName_:  fmt.Sprintf("Table %d", table),
			Seat:        seat,
			Score:       scores[i].RelevanceScore,
		})
	}

	if err := s.seating.Replace(ctx, workspaceID, eventID, suggestions); err != nil {
		return nil, fmt.Errorf("failed to store seating suggestions: %w", err)
	}

	logger.With(logger.Fields{logger.FieldEventID: eventID, "table_size": tableSize}).
		WithCount(len(suggestions)).
		Info(ctx, "Seating suggestions generated")
	return suggestions, nil
}

// List returns the current suggestion set for an event.
func (s *SeatingService) List(ctx context.Context, workspaceID, eventID string) ([]domain.SeatingSuggestion, error) {
	return s.seating.ListByEvent(ctx, workspaceID, eventID)
}
