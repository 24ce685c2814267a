// Package narrative implements the Narrative Frame Extractor (C8): a
// single sampling + two-pass LLM algorithm shared by events, CTMs, and
// cross-centroid epics, grounded the way `pkg/agent/controller/summarize.go`
// layers a threshold check in front of an LLM call rather than always
// paying for one (§4.8).
package narrative

import "time"

// EntityType names which of the three population kinds a Frame describes.
type EntityType string

const (
	EntityEvent EntityType = "event"
	EntityCTM   EntityType = "ctm"
	EntityEpic  EntityType = "epic"
)

// SourceStat is one publisher's over-index standing within a frame (§4.8
// Aggregation).
type SourceStat struct {
	Publisher string  `json:"publisher"`
	OverIndex float64 `json:"over_index"`
	Count     int     `json:"count"`
}

// Frame is a single editorially-attributed interpretation over a set of
// titles belonging to one entity (§3, §4.8).
type Frame struct {
	ID                  int64
	EntityType          EntityType
	EntityID            string
	Label               string
	Description         string
	MoralFrame          string
	TitleCount          int
	TopSources          []SourceStat
	ProportionalSources []SourceStat
	TopCountries        []string
	SampleTitles        []string
	CreatedAt           time.Time
}

// SampleTitle is the narrowed view of a titlestore.Title the sampler,
// prompts, and aggregator operate over.
type SampleTitle struct {
	ID          string
	DisplayText string
	Publisher   string
	Language    string
	ISOCountry  string
	CentroidID  string // only populated for epic-scale sampling
}

// ClassifiedTitle pairs a sampled title with the Pass-1 label the
// discovery or Pass-2 classification call assigned it. Label is "" (or
// "neutral") when the title didn't fit any discovered frame.
type ClassifiedTitle struct {
	SampleTitle
	Label string
}
