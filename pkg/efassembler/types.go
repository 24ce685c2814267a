// Package efassembler implements the P3 EF Assembler (C5): batches
// unassigned strategic titles, asks C10 to group them into Event Families,
// validates the response, and persists the result through C1 (§4.5).
package efassembler

import "github.com/arclinehq/arcline/pkg/titlestore"

// llmEF is the wire shape the assembly prompt asks the LLM to return —
// field names match the prompt contract in §4.5 verbatim, not Go
// convention, since this struct only ever round-trips through
// encoding/json against the model's own output.
type llmEF struct {
	Title            string   `json:"title"`
	Summary          string   `json:"summary"`
	KeyActors        []string `json:"key_actors"`
	EventType        string   `json:"event_type"`
	Geography        string   `json:"geography"`
	EventStart       string   `json:"event_start"`
	EventEnd         string   `json:"event_end"`
	SourceTitleIDs   []string `json:"source_title_ids"`
	Confidence       float64  `json:"confidence"`
	CoherenceReason  string   `json:"coherence_reason"`
}

// Result is the per-batch outcome the runner reports in its checkpoint.
type Result struct {
	BatchSize     int
	EFsCreated    int
	TitlesAssigned int
	Dropped       int
}

// Add folds other into the accumulator (§6 run summaries sum per-batch counts).
func (r *Result) Add(other Result) {
	r.BatchSize += other.BatchSize
	r.EFsCreated += other.EFsCreated
	r.TitlesAssigned += other.TitlesAssigned
	r.Dropped += other.Dropped
}

// batchTitle is the narrowed view of a titlestore.Title the assembly
// prompt is given — id/text/publisher/date/language/actors only; the id is
// what source_title_ids refers back to.
type batchTitle struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	Publisher string   `json:"publisher"`
	Date      string   `json:"date"`
	Language  string   `json:"language"`
	Actors    []string `json:"actors"`
}

func toBatchTitle(t *titlestore.Title) batchTitle {
	return batchTitle{
		ID:        t.ID,
		Text:      t.DisplayText,
		Publisher: t.Publisher,
		Date:      t.PublishedAt.Format("2006-01-02T15:04:05Z"),
		Language:  t.Language,
		Actors:    t.Actors,
	}
}
