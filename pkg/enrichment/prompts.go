package enrichment

import (
	"fmt"
	"strings"

	"github.com/arclinehq/arcline/pkg/centroid"
	"github.com/arclinehq/arcline/pkg/titlestore"
)

// canonicalizeSystemPrompt is Step A's system prompt: extract factual
// context without interpretation, grounded on
// `apps/enrich/prompts.py`'s CANONICALIZE_SYSTEM_PROMPT (§4.6 Step A).
func canonicalizeSystemPrompt() string {
	return `Extract factual strategic context without interpretation or motive attribution.

Actors: official names only (countries as US/UK/RU/CN, organizations as NATO/UN/EU, people by last name).
Roles: initiator, target, beneficiary, or mediator, based on actions rather than intentions.
Policy status: one of proposed, passed, signed, in_force, enforced, suspended, cancelled, or null.
Temporal pattern: frequency and timing of similar events in the relevant timeframe.
Magnitude baseline: scale versus the historical norm in this region or domain.
Systemic context: the broader documented trend this fits within.
Tags: exactly 3 — two thematic concepts and one geographic region.

Report only what happened, not why. Describe observable actions and measurable outcomes; avoid speculation about motive or intent.

Respond with JSON only.`
}

func canonicalizeUserPrompt(ef *titlestore.EventFamily, recentTitles []*titlestore.Title) string {
	var lines []string
	for i, t := range recentTitles {
		date := "unknown"
		if !t.PublishedAt.IsZero() {
			date = t.PublishedAt.Format("2006-01-02")
		}
		lines = append(lines, fmt.Sprintf("%d. %s (%s)", i+1, t.DisplayText, date))
	}

	return fmt.Sprintf(`EF: %s
TYPE: %s | THEATER: %s

KEY TITLES:
%s

Respond in JSON:
{
  "canonical_actors": [{"name": "...", "role": "initiator|target|beneficiary|mediator"}],
  "policy_status": "proposed|passed|signed|in_force|enforced|suspended|cancelled|null",
  "time_span": {"start": "YYYY-MM-DD", "end": null},
  "temporal_pattern": "...",
  "magnitude_baseline": "...",
  "systemic_context": "...",
  "why_strategic": "... (<=150 chars)",
  "tags": ["theme1", "theme2", "geographic_region"]
}`, ef.Title, ef.EventType, ef.PrimaryTheater, strings.Join(lines, "\n"))
}

// macroLinkSystemPrompt is Step C's second-call system prompt: assign an
// EF to a centroid and surface strategically relevant precedents,
// grounded on `apps/enrich/prompts.py`'s MACRO_LINK_SYSTEM_PROMPT.
func macroLinkSystemPrompt(candidates []centroid.Candidate) string {
	var sb strings.Builder
	sb.WriteString(`Identify which narrative centroid (macro-storyline) this Event Family belongs to and assess its strategic context.

Available centroids, ranked by fit:
`)
	for _, c := range candidates {
		fmt.Fprintf(&sb, "- %s (keyword=%.2f actor=%.2f theater=%.2f composite=%.2f)\n",
			c.Name, c.KeywordScore, c.ActorScore, c.TheaterScore, c.Composite)
	}
	sb.WriteString(`
Comparables must be recent precedents (generally within 1-2 decades, longer where the domain has longer cycles) with similar actors and geopolitical context — not famous historical analogies. At most 3. Abnormality names what makes this event unusual or precedent-setting, or null.

Respond with JSON only.`)
	return sb.String()
}

func macroLinkUserPrompt(ef *titlestore.EventFamily, actors []string) string {
	actorsText := "Various actors"
	if len(actors) > 0 {
		actorsText = strings.Join(actors, ", ")
	}
	return fmt.Sprintf(`EF: %s
SUMMARY: %s
ACTORS: %s
THEATER: %s
EVENT_TYPE: %s

Respond in JSON:
{
  "ef_context": {
    "macro_link": "CENTROID_NAME or null",
    "comparables": [{"event_description": "...", "timeframe": "...", "similarity_reason": "..."}],
    "abnormality": "... or null"
  }
}`, ef.Title, ef.Summary, actorsText, ef.PrimaryTheater, ef.EventType)
}

// narrativeSummarySystemPrompt is Step D's rewrite-call system prompt,
// grounded on `apps/enrich/prompts.py`'s NARRATIVE_SUMMARY_SYSTEM_PROMPT
// (§4.6 Step D: "150-250 words ... strategic-intelligence voice").
func narrativeSummarySystemPrompt() string {
	return `Rewrite the Event Family summary for a strategic-intelligence audience: analysts and policymakers who need the strategic implications of an ongoing situation, not a chronology.

Lead with strategic significance. Emphasize ongoing dynamics rather than isolated incidents. Show how this fits a larger geopolitical pattern. Use active voice.

Length: 150-250 words, complete sentences, no truncation.`
}

func narrativeSummaryUserPrompt(ef *titlestore.EventFamily, actors []string, recentTitles []*titlestore.Title) string {
	actorsText := "Various actors"
	if len(actors) > 0 {
		actorsText = strings.Join(actors, ", ")
	}
	var lines []string
	for i, t := range recentTitles {
		if i >= 3 {
			break
		}
		date := "unknown"
		if !t.PublishedAt.IsZero() {
			date = t.PublishedAt.Format("2006-01-02")
		}
		lines = append(lines, fmt.Sprintf("- %s (%s)", t.DisplayText, date))
	}
	return fmt.Sprintf(`EF: %s
CURRENT SUMMARY: %s
THEATER: %s | TYPE: %s
KEY ACTORS: %s

TITLES CONTEXT:
%s

Rewrite the summary for strategic narrative intelligence.`, ef.Title, ef.Summary, ef.PrimaryTheater, ef.EventType, actorsText, strings.Join(lines, "\n"))
}
