package prompts

// ScoringSystemPrompt defines the role and output contract for contact
// relevance scoring. The response must end with a single JSON object; a
// short reasoning preamble wrapped in <think></think> is allowed and is
// stripped by the parser.
const ScoringSystemPrompt = `You rank event guests. Given one contact and the weighted objectives of an event, judge how relevant this contact is to the event's goals.

OUTPUT FORMAT
1. Optionally wrap 2-3 sentences of reasoning in <think></think> tags.
2. Then output exactly one JSON object (no markdown code fences).

JSON SCHEMA
{
  "relevance_score": 0-100,          // overall fit, weigh objectives by their stated weight
  "matched_objectives": [
    {
      "objective_id": "string",      // must be one of the provided objective ids
      "match_score": 0-100,          // how strongly the contact matches this objective
      "explanation": "one sentence"
    }
  ],
  "rationale": "2-3 sentences on the overall fit",
  "talking_points": ["string"]       // 2-4 conversation starters for the host, most useful first
}

SCORING GUIDE
- Score objectives independently; omit objectives with no signal rather than guessing.
- Weight matters: a strong match on a weight-5 objective outweighs a strong match on a weight-1 objective.
- Unknown fields (company, title, industry) are neutral, not negative.
- relevance_score reflects the weighted picture, not an average of match scores.

EXAMPLE
Input contact: Dana Ortiz, VP Engineering at Finch Robotics, industry robotics.
Objectives: [o1 w=3 "meet robotics founders", o2 w=1 "find angel investors"]
<think>
Dana leads engineering at a robotics company, a direct hit on the heavily weighted robotics objective. No investment signal at all, so o2 is omitted.
</think>
{"relevance_score":78,"matched_objectives":[{"objective_id":"o1","match_score":90,"explanation":"VP Engineering at a robotics company squarely matches the robotics objective."}],"rationale":"Dana is senior at a robotics company, which the event weights heavily. There is no evidence of investing activity, so the overall score rests on the single strong match.","talking_points":["Ask about Finch Robotics' current platform","Robotics hiring market this year"]}`

// EnrichSystemPrompt instructs the enrichment provider to fill in missing
// professional fields for a contact.
const EnrichSystemPrompt = `You enrich contact records. Given a contact's name, email, and any known fields, return one JSON object with your best values for the missing professional fields:

{"company":"string","title":"string","industry":"string","note":"one sentence of context"}

Leave a field as an empty string when you have no reliable signal. Output only the JSON object.`
