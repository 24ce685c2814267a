// Package enrichment implements the Enrichment Processor (C6): a per-EF
// pipeline of up to three LLM calls (Step A always; Step C when no centroid
// clears the auto-link threshold; Step D when ef_context is non-trivial)
// and one regex pass that canonicalizes actors, extracts magnitudes, links an EF to a centroid,
// and rewrites its summary in a strategic-intelligence voice (§4.6).
// Grounded on `apps/enrich/processor.py` and `apps/enrich/prompts.py`
// from the original Python implementation, restructured the way
// `pkg/strategicfilter` splits a multi-stage decision across
// types/filter/matcher files.
package enrichment

// validPolicyStatuses is C6 Step A's closed vocabulary of 8 (§4.6).
var validPolicyStatuses = map[string]bool{
	"proposed":  true,
	"passed":    true,
	"signed":    true,
	"in_force":  true,
	"enforced":  true,
	"suspended": true,
	"cancelled": true,
	"":          true, // "null" normalizes to empty
}

var validActorRoles = map[string]bool{
	"initiator":   true,
	"target":      true,
	"beneficiary": true,
	"mediator":    true,
}

// llmCanonicalActor is one entry of Step A's canonical_actors array.
type llmCanonicalActor struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// llmTimeSpan is Step A's time_span object.
type llmTimeSpan struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// llmCanonical is Step A's full wire response (§4.6 Step A).
type llmCanonical struct {
	CanonicalActors   []llmCanonicalActor `json:"canonical_actors"`
	PolicyStatus      string              `json:"policy_status"`
	TimeSpan          llmTimeSpan         `json:"time_span"`
	TemporalPattern   string              `json:"temporal_pattern"`
	MagnitudeBaseline string              `json:"magnitude_baseline"`
	SystemicContext   string              `json:"systemic_context"`
	WhyStrategic      string              `json:"why_strategic"`
	Tags              []string            `json:"tags"`
}

// llmComparable is one entry of Step C's ef_context.comparables array.
type llmComparable struct {
	EventDescription string `json:"event_description"`
	Timeframe        string `json:"timeframe"`
	SimilarityReason string `json:"similarity_reason"`
}

// llmEFContext is Step C's second-LLM-call response shape.
type llmEFContext struct {
	MacroLink   string          `json:"macro_link"`
	Comparables []llmComparable `json:"comparables"`
	Abnormality string          `json:"abnormality"`
}

type llmMacroLinkResponse struct {
	EFContext llmEFContext `json:"ef_context"`
}

// Result summarizes one Run call over the prioritized queue (§4.6 Queueing).
type Result struct {
	Candidates int
	Enriched   int
	Failed     int
}
