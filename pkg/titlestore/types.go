// Package titlestore is the exclusive owner of Title and Event Family (EF)
// records (§3 Ownership, §4.1). It talks to Postgres directly through pgx —
// there is no ORM layer here, only hand-written SQL keyed by natural
// identifier, mirroring how the teacher's pkg/database wraps a raw
// *sql.DB rather than exposing query-builder state to callers.
package titlestore

import "time"

// Verdict is the P2 classification outcome for a Title.
type Verdict string

const (
	VerdictUnfiltered   Verdict = "unfiltered"
	VerdictStrategic    Verdict = "strategic"
	VerdictNonStrategic Verdict = "non-strategic"
)

// ProcessingStatus tracks a Title's position in the P1->P4 pipeline (§5).
type ProcessingStatus string

const (
	StatusPending  ProcessingStatus = "pending"
	StatusFiltered ProcessingStatus = "filtered"
	StatusAssigned ProcessingStatus = "assigned"
	StatusFailed   ProcessingStatus = "failed"
)

// Entity is a named real-world referent attached to a Title (§3 Entity).
type Entity struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// ActionTriple is the (actor?, action, target?) structure extracted per
// title (§3 Action triple / GLOSSARY AAT).
type ActionTriple struct {
	Actor  string `json:"actor,omitempty"`
	Action string `json:"action"`
	Target string `json:"target,omitempty"`
}

// IsComplete reports whether both endpoints are present. C2's
// sync_action_triple is a no-op otherwise (§4.2).
func (t *ActionTriple) IsComplete() bool {
	return t != nil && t.Action != "" && t.Actor != "" && t.Target != ""
}

// Title is one news headline and everything P1-P4 attach to it (§3 Title).
type Title struct {
	ID                   string
	DisplayText          string
	NormalizedText       string
	Publisher            string
	PublishedAt          time.Time
	Language             string
	ISOCountry           string
	Verdict              Verdict
	VerdictReason        string
	Actors               []string
	Entities             []Entity
	ActionTriple         *ActionTriple
	EFID                 *string
	AssignmentConfidence *float64
	AssignmentRationale  *string
	ProcessingStatus     ProcessingStatus
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ItemID satisfies pkg/runner.Item, so cmd/strategicfilter can drive P2's
// per-title checkpointed batch over a *Title slice directly (§4.9).
func (t *Title) ItemID() string { return t.ID }

// EFStatus is the lifecycle state of an Event Family (§3 EF Lifecycle).
type EFStatus string

const (
	EFStatusSeed   EFStatus = "seed"
	EFStatusActive EFStatus = "active"
)

// EFContext holds the macro-link/comparables/abnormality fields C6 Step C
// populates (§3 EF.ef_context).
type EFContext struct {
	MacroLink   string   `json:"macro_link,omitempty"`
	Comparables []string `json:"comparables,omitempty"` // <=3
	Abnormality string   `json:"abnormality,omitempty"`
}

// CanonicalActor is one entry of the enrichment payload's canonical_actors
// list (§4.6 Step A).
type CanonicalActor struct {
	Name string `json:"name"`
	Role string `json:"role"` // initiator|target|beneficiary|mediator
}

// Magnitude is one extracted quantity from C6 Step B's regex pass.
type Magnitude struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
	Kind  string  `json:"kind"` // money|energy|military|casualties|percentage|trade
	Raw   string  `json:"raw"`
}

// EnrichmentPayload is the full output of C6's enrichment pipeline (§3 EF
// Attributes).
type EnrichmentPayload struct {
	CanonicalActors     []CanonicalActor `json:"canonical_actors,omitempty"`
	PolicyStatus        string           `json:"policy_status,omitempty"`
	TimeSpanStart        *time.Time      `json:"time_span_start,omitempty"`
	TimeSpanEnd          *time.Time      `json:"time_span_end,omitempty"`
	TemporalPattern      string           `json:"temporal_pattern,omitempty"`
	MagnitudeBaseline    string           `json:"magnitude_baseline,omitempty"`
	SystemicContext      string           `json:"systemic_context,omitempty"`
	Magnitudes           []Magnitude      `json:"magnitudes,omitempty"` // <=3
	OfficialSources      []string         `json:"official_sources,omitempty"` // <=2
	WhyStrategic         string           `json:"why_strategic,omitempty"`
}

// EventFamily is a coherent strategic event spanning one or more Titles
// (§3 Event Family).
type EventFamily struct {
	ID                 string
	Title              string
	Summary            string
	KeyActors          []string
	EventType          string
	PrimaryTheater     string
	EventStart         *time.Time
	EventEnd           *time.Time
	SourceTitleIDs     []string
	Confidence         float64
	CoherenceRationale string
	Status             EFStatus
	Tags               []string // exactly 3 when enriched
	EFContext          *EFContext
	Enrichment         *EnrichmentPayload
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
