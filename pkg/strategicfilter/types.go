// Package strategicfilter implements the P2 three-stage strategic filter
// (C4): mechanical rules, then a best-effort graph-intelligence boost, then
// a fallback reject (§4.4).
package strategicfilter

// Verdict is the outcome of one filter run over a single title.
type Verdict struct {
	Keep   bool
	Reason string
}

const (
	reasonBlockedByStop   = "blocked_by_stop"
	reasonNoStrategicSig  = "no_strategic_signal"
	reasonActorAllowed    = "actor_allow_listed"
	reasonKeywordMatch    = "keyword_heuristic_match"
)
