package service

import (
	"strings"
	"testing"

	"github.com/timmy/guestrank/internal/domain"
)

func testObjectives() []domain.Objective {
	return []domain.Objective{
		{ID: "obj-1", Text: "Meet robotics founders", Weight: 2.0, SortOrder: 0},
		{ID: "obj-2", Text: "Find seed investors", Weight: 1.0, SortOrder: 1},
	}
}

func TestParseScoreContent(t *testing.T) {
	objectives := testObjectives()

	tests := []struct {
		name        string
		content     string
		wantErr     bool
		wantScore   int
		wantMatches int
	}{
		{
			name:        "clean JSON",
			content:     `{"relevance_score": 82, "matched_objectives": [{"objective_id": "obj-1", "match_score": 90, "explanation": "founder"}], "rationale": "Strong fit.", "talking_points": ["robotics"]}`,
			wantScore:   82,
			wantMatches: 1,
		},
		{
			name:        "JSON wrapped in prose",
			content:     "Here is my assessment:\n{\"relevance_score\": 40, \"matched_objectives\": [], \"rationale\": \"Weak fit.\", \"talking_points\": []}\nLet me know if you need more.",
			wantScore:   40,
			wantMatches: 0,
		},
		{
			name:        "think preamble stripped",
			content:     "<think>The contact runs a robotics company so obj-1 applies strongly.</think>{\"relevance_score\": 75, \"matched_objectives\": [{\"objective_id\": \"obj-1\", \"match_score\": 88, \"explanation\": \"ceo\"}], \"rationale\": \"Good fit.\", \"talking_points\": []}",
			wantScore:   75,
			wantMatches: 1,
		},
		{
			name:        "nested braces inside strings of prose",
			content:     "{\"relevance_score\": 10, \"matched_objectives\": [], \"rationale\": \"none\", \"talking_points\": []} trailing {junk}",
			wantScore:   10,
			wantMatches: 0,
		},
		{
			name:    "no JSON at all",
			content: "I cannot score this contact.",
			wantErr: true,
		},
		{
			name:    "truncated JSON",
			content: `{"relevance_score": 82, "matched_objectives": [`,
			wantErr: true,
		},
		{
			name:    "empty content",
			content: "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseScoreContent(tt.content, objectives)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected parse error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.RelevanceScore != tt.wantScore {
				t.Errorf("expected score %d, got %d", tt.wantScore, result.RelevanceScore)
			}
			if len(result.MatchedObjectives) != tt.wantMatches {
				t.Errorf("expected %d matches, got %d", tt.wantMatches, len(result.MatchedObjectives))
			}
		})
	}
}

func TestValidateAndFix_ClampsScores(t *testing.T) {
	objectives := testObjectives()

	tests := []struct {
		name      string
		payload   scorePayload
		wantScore int
	}{
		{
			name:      "above range",
			payload:   scorePayload{RelevanceScore: 250},
			wantScore: 100,
		},
		{
			name:      "below range",
			payload:   scorePayload{RelevanceScore: -5},
			wantScore: 0,
		},
		{
			name:      "in range untouched",
			payload:   scorePayload{RelevanceScore: 55},
			wantScore: 55,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateAndFix(&tt.payload, objectives)
			if result.RelevanceScore != tt.wantScore {
				t.Errorf("expected score %d, got %d", tt.wantScore, result.RelevanceScore)
			}
		})
	}
}

func TestValidateAndFix_DropsUnknownObjectives(t *testing.T) {
	payload := scorePayload{
		RelevanceScore: 70,
		MatchedObjectives: []matchPayload{
			{ObjectiveID: "obj-1", MatchScore: 150, Explanation: "strong"},
			{ObjectiveID: "hallucinated", MatchScore: 99, Explanation: "made up"},
		},
	}

	result := validateAndFix(&payload, testObjectives())

	if len(result.MatchedObjectives) != 1 {
		t.Fatalf("expected 1 match after dropping unknown objective, got %d", len(result.MatchedObjectives))
	}
	match := result.MatchedObjectives[0]
	if match.ObjectiveID != "obj-1" {
		t.Errorf("expected obj-1 to survive, got %s", match.ObjectiveID)
	}
	if match.MatchScore != 100 {
		t.Errorf("expected match score clamped to 100, got %d", match.MatchScore)
	}
	if match.ObjectiveText != "Meet robotics founders" {
		t.Errorf("expected objective text filled in, got %q", match.ObjectiveText)
	}
}

func TestValidateAndFix_DefaultsEmptyFields(t *testing.T) {
	result := validateAndFix(&scorePayload{RelevanceScore: 30}, testObjectives())

	if result.MatchedObjectives == nil {
		t.Error("expected non-nil matches slice")
	}
	if result.TalkingPoints == nil {
		t.Error("expected non-nil talking points slice")
	}
	if result.Rationale != "No rationale provided." {
		t.Errorf("expected default rationale, got %q", result.Rationale)
	}
}

func TestFallbackResult(t *testing.T) {
	svc := &ScoringService{model: "test-model"}
	result := svc.fallbackResult()

	if result.RelevanceScore != 0 {
		t.Errorf("expected fallback score 0, got %d", result.RelevanceScore)
	}
	if len(result.MatchedObjectives) != 0 || result.MatchedObjectives == nil {
		t.Error("expected empty non-nil matches")
	}
	if len(result.TalkingPoints) != 0 || result.TalkingPoints == nil {
		t.Error("expected empty non-nil talking points")
	}
	if result.Rationale == "" {
		t.Error("expected a generic rationale")
	}
}

func TestBuildScoringInput(t *testing.T) {
	contact := &domain.Contact{DisplayName: "Dana Ortiz", Company: "Finch Robotics"}
	event := &domain.Event{Name: "Founders Dinner", Description: "Quarterly dinner"}
	objectives := []domain.Objective{
		{ID: "obj-2", Text: "Find seed investors", Weight: 1.0, SortOrder: 1},
		{ID: "obj-1", Text: "Meet robotics founders", Weight: 2.0, SortOrder: 0},
	}

	input := buildScoringInput(contact, objectives, event)

	if !strings.Contains(input, "name: Dana Ortiz") {
		t.Error("expected contact name in input")
	}
	if !strings.Contains(input, "title: unknown") {
		t.Error("expected missing title to degrade to unknown")
	}
	if !strings.Contains(input, "id=obj-1 weight=2.0") {
		t.Error("expected objective line with id and weight")
	}

	// Objectives render in sort order regardless of input order.
	if strings.Index(input, "obj-1") > strings.Index(input, "obj-2") {
		t.Error("expected objectives ordered by sort order")
	}
}
