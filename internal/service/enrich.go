package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/guestrank/internal/domain"
	"github.com/timmy/guestrank/internal/prompts"
)

// EnrichmentService fills in missing professional fields for a contact by
// calling an external enrichment provider.
type EnrichmentService struct {
	client   *resty.Client
	endpoint string
	enabled  bool
}

// EnrichmentConfig holds configuration for the enrichment service.
type EnrichmentConfig struct {
	Enabled        bool
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
}

// NewEnrichmentService creates a new enrichment service. A disabled service
// returns an empty patch for every contact.
func NewEnrichmentService(cfg *EnrichmentConfig) *EnrichmentService {
	if cfg == nil || !cfg.Enabled {
		return &EnrichmentService{enabled: false}
	}

	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client.SetTimeout(timeout)

	return &EnrichmentService{
		client:   client,
		endpoint: strings.TrimSuffix(cfg.BaseURL, "/") + "/chat/completions",
		enabled:  true,
	}
}

// IsEnabled reports whether enrichment calls are configured.
func (s *EnrichmentService) IsEnabled() bool {
	return s.enabled
}

type enrichPayload struct {
	Company  string `json:"company"`
	Title    string `json:"title"`
	Industry string `json:"industry"`
	Note     string `json:"note"`
}

// Enrich requests missing professional fields for a contact and returns them
// as a partial patch. Fields the provider leaves empty stay nil in the patch,
// so applying it never erases operator-entered data.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - contact: contact to enrich.
// Returns:
//   - *domain.ContactPatch: non-nil patch; may be empty.
//   - error: *domain.ProviderError on call failure, parse error otherwise.
func (s *EnrichmentService) Enrich(ctx context.Context, contact *domain.Contact) (*domain.ContactPatch, error) {
	if !s.enabled {
		return &domain.ContactPatch{}, nil
	}

	input := fmt.Sprintf("name: %s\nemail: %s\ncompany: %s\ntitle: %s\nindustry: %s",
		contact.DisplayName, orUnknown(contact.Email), orUnknown(contact.Company),
		orUnknown(contact.Title), orUnknown(contact.Industry))

	req := chatRequest{
		Model: "gpt-4o-mini",
		Messages: []chatMessage{
			{Role: "system", Content: prompts.EnrichSystemPrompt},
			{Role: "user", Content: input},
		},
		MaxTokens:   200,
		Temperature: 0,
	}

	var resp chatResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(s.endpoint)

	if err != nil {
		return nil, &domain.ProviderError{Provider: "enrichment", Cause: err}
	}
	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		return nil, &domain.ProviderError{Provider: "enrichment", Cause: fmt.Errorf("HTTP %d", httpResp.StatusCode())}
	}
	if len(resp.Choices) == 0 {
		return nil, &domain.ProviderError{Provider: "enrichment", Cause: fmt.Errorf("empty response")}
	}

	content := resp.Choices[0].Message.Content
	jsonStart := strings.Index(content, "{")
	jsonEnd := strings.LastIndex(content, "}")
	if jsonStart == -1 || jsonEnd < jsonStart {
		return nil, fmt.Errorf("no JSON found in enrichment response")
	}

	var payload enrichPayload
	if err := json.Unmarshal([]byte(content[jsonStart:jsonEnd+1]), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse enrichment response: %w", err)
	}

	now := time.Now()
	patch := &domain.ContactPatch{EnrichedAt: &now}
	if v := strings.TrimSpace(payload.Company); v != "" {
		patch.Company = &v
	}
	if v := strings.TrimSpace(payload.Title); v != "" {
		patch.Title = &v
	}
	if v := strings.TrimSpace(payload.Industry); v != "" {
		patch.Industry = &v
	}
	if v := strings.TrimSpace(payload.Note); v != "" {
		patch.EnrichmentNote = &v
	}
	return patch, nil
}
