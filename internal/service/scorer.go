package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/guestrank/internal/domain"
	"github.com/timmy/guestrank/internal/prompts"
)

// ScoringService converts a contact snapshot plus an event's weighted
// objectives into a relevance score by calling an external reasoning model
// and parsing its structured response.
type ScoringService struct {
	client   *resty.Client
	model    string
	endpoint string
}

// ScorerConfig holds configuration for the scoring service.
type ScorerConfig struct {
	Model          string
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
}

// ScoreResult is the engine's output for one contact. Every numeric field is
// already clamped to [0,100] and every slice is non-nil.
type ScoreResult struct {
	RelevanceScore    int
	MatchedObjectives []domain.ObjectiveMatch
	Rationale         string
	TalkingPoints     []string
	ModelVersion      string
}

// NewScoringService creates a new scoring service.
// Parameters:
//   - cfg: scorer configuration including model, API key, and base URL.
// Returns:
//   - *ScoringService: initialized client wrapper.
func NewScoringService(cfg *ScorerConfig) *ScoringService {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	client.SetTimeout(timeout)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &ScoringService{
		client:   client,
		model:    cfg.Model,
		endpoint: baseURL + "/chat/completions",
	}
}

// ModelVersion returns the model identifier recorded on score rows.
func (s *ScoringService) ModelVersion() string {
	return s.model
}

// OpenAI-compatible Chat Completion API request/response structures
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float32       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// scorePayload mirrors the JSON object the model is asked to produce.
type scorePayload struct {
	RelevanceScore    int            `json:"relevance_score"`
	MatchedObjectives []matchPayload `json:"matched_objectives"`
	Rationale         string         `json:"rationale"`
	TalkingPoints     []string       `json:"talking_points"`
}

type matchPayload struct {
	ObjectiveID string `json:"objective_id"`
	MatchScore  int    `json:"match_score"`
	Explanation string `json:"explanation"`
}

// Score ranks one contact against an event's objectives.
//
// A provider failure returns (nil, *domain.ProviderError). A response that
// cannot be parsed as structured output returns the deterministic fallback
// result together with a *domain.ScoringParseError: the caller persists the
// fallback and counts the failure, and the batch continues.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - contact: contact snapshot; only DisplayName is required.
//   - objectives: non-empty weighted objective list (validated upstream).
//   - event: event context for the prompt.
// Returns:
//   - *ScoreResult: clamped result, or the fallback on a parse failure.
//   - error: nil, *domain.ProviderError, or *domain.ScoringParseError.
func (s *ScoringService) Score(ctx context.Context, contact *domain.Contact, objectives []domain.Objective, event *domain.Event) (*ScoreResult, error) {
	req := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompts.ScoringSystemPrompt},
			{Role: "user", Content: buildScoringInput(contact, objectives, event)},
		},
		MaxTokens:   700,
		Temperature: 0.2,
	}

	var resp chatResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(s.endpoint)

	if err != nil {
		return nil, &domain.ProviderError{Provider: "scorer", Cause: err}
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		cause := fmt.Errorf("HTTP %d", httpResp.StatusCode())
		if resp.Error != nil {
			cause = fmt.Errorf("HTTP %d: %s", httpResp.StatusCode(), resp.Error.Message)
		}
		return nil, &domain.ProviderError{Provider: "scorer", Cause: cause}
	}

	if resp.Error != nil {
		return nil, &domain.ProviderError{Provider: "scorer", Cause: fmt.Errorf("%s", resp.Error.Message)}
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, &domain.ProviderError{Provider: "scorer", Cause: fmt.Errorf("empty response")}
	}

	result, err := parseScoreContent(resp.Choices[0].Message.Content, objectives)
	if err != nil {
		return s.fallbackResult(), &domain.ScoringParseError{ContactID: contact.ID, Cause: err}
	}
	result.ModelVersion = s.model
	return result, nil
}

// fallbackResult is the deterministic minimal result used when the external
// response is unparsable. Score 0, no matches, generic rationale.
func (s *ScoringService) fallbackResult() *ScoreResult {
	return &ScoreResult{
		RelevanceScore:    0,
		MatchedObjectives: []domain.ObjectiveMatch{},
		Rationale:         "Relevance could not be determined for this contact.",
		TalkingPoints:     []string{},
		ModelVersion:      s.model,
	}
}

// buildScoringInput renders the contact, event, and weighted objectives into
// the compact description the model scores against. Absent contact fields
// degrade to "unknown" rather than being omitted, so the model treats them as
// neutral signals.
func buildScoringInput(contact *domain.Contact, objectives []domain.Objective, event *domain.Event) string {
	var b strings.Builder

	b.WriteString("CONTACT\n")
	fmt.Fprintf(&b, "name: %s\n", contact.DisplayName)
	fmt.Fprintf(&b, "company: %s\n", orUnknown(contact.Company))
	fmt.Fprintf(&b, "title: %s\n", orUnknown(contact.Title))
	fmt.Fprintf(&b, "industry: %s\n", orUnknown(contact.Industry))
	if len(contact.Tags) > 0 {
		fmt.Fprintf(&b, "tags: %s\n", strings.Join(contact.Tags, ", "))
	}
	if contact.EnrichmentNote != "" {
		fmt.Fprintf(&b, "notes: %s\n", contact.EnrichmentNote)
	}

	b.WriteString("\nEVENT\n")
	if event != nil {
		fmt.Fprintf(&b, "name: %s\n", event.Name)
		if event.Description != "" {
			fmt.Fprintf(&b, "description: %s\n", event.Description)
		}
	}

	b.WriteString("\nOBJECTIVES\n")
	sorted := append([]domain.Objective{}, objectives...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].SortOrder < sorted[j].SortOrder })
	for _, obj := range sorted {
		fmt.Fprintf(&b, "- id=%s weight=%.1f %s\n", obj.ID, obj.Weight, obj.Text)
	}

	return b.String()
}

func orUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

// parseScoreContent extracts and validates the JSON object from the model's
// response. An optional <think></think> preamble is stripped first; the JSON
// is located by brace matching so surrounding prose does not break parsing.
func parseScoreContent(content string, objectives []domain.Objective) (*ScoreResult, error) {
	if start := strings.Index(content, "<think>"); start != -1 {
		if end := strings.Index(content, "</think>"); end != -1 {
			content = content[end+len("</think>"):]
		}
	}

	jsonStart := strings.Index(content, "{")
	if jsonStart == -1 {
		return nil, fmt.Errorf("no JSON found in response")
	}

	braceCount := 0
	jsonEnd := -1
findJSON:
	for i := jsonStart; i < len(content); i++ {
		switch content[i] {
		case '{':
			braceCount++
		case '}':
			braceCount--
			if braceCount == 0 {
				jsonEnd = i + 1
				break findJSON
			}
		}
	}
	if jsonEnd == -1 {
		return nil, fmt.Errorf("incomplete JSON in response")
	}

	var payload scorePayload
	if err := json.Unmarshal([]byte(content[jsonStart:jsonEnd]), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return validateAndFix(&payload, objectives), nil
}

// validateAndFix clamps every numeric field to [0,100], defaults missing
// arrays to empty, and drops matches that reference unknown objectives. The
// external model is never trusted to stay inside the schema.
func validateAndFix(payload *scorePayload, objectives []domain.Objective) *ScoreResult {
	known := make(map[string]string, len(objectives))
	for _, obj := range objectives {
		known[obj.ID] = obj.Text
	}

	matches := make([]domain.ObjectiveMatch, 0, len(payload.MatchedObjectives))
	for _, m := range payload.MatchedObjectives {
		text, ok := known[m.ObjectiveID]
		if !ok {
			continue
		}
		matches = append(matches, domain.ObjectiveMatch{
			ObjectiveID:   m.ObjectiveID,
			ObjectiveText: text,
			MatchScore:    clampScore(m.MatchScore),
			Explanation:   m.Explanation,
		})
	}

	points := payload.TalkingPoints
	if points == nil {
		points = []string{}
	}

	rationale := strings.TrimSpace(payload.Rationale)
	if rationale == "" {
		rationale = "No rationale provided."
	}

	return &ScoreResult{
		RelevanceScore:    clampScore(payload.RelevanceScore),
		MatchedObjectives: matches,
		Rationale:         rationale,
		TalkingPoints:     points,
	}
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
