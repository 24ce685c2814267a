package narrative

import (
	"fmt"
	"strings"
)

// discoverySystemPrompt builds the Pass-1 instruction, varying the frame
// count floor and the entity-specific framing the way the prompt contract
// in §4.8 calls for.
func discoverySystemPrompt(entityType EntityType) string {
	minFrames := 2
	if entityType != EntityEvent {
		minFrames = 3
	}
	var subject string
	switch entityType {
	case EntityEvent:
		subject = "a single strategic event"
	case EntityCTM:
		subject = "a month of coverage within one strategic storyline"
	case EntityEpic:
		subject = "a cross-storyline strategic episode"
	}
	return fmt.Sprintf(`You are identifying competing editorial narratives in coverage of %s.
Read the numbered headlines below and propose %d-5 distinct narrative frames.
Each frame must assign explicit moral roles (hero/villain or victim/aggressor) to the
actors involved. Reject any frame that is merely neutral or topic-descriptive rather
than an interpretation with a moral stance.
Respond with JSON: {"frames": [{"label": string, "description": string, "moral_frame": string, "title_indices": [int]}]}.`,
		subject, minFrames)
}

// classifySystemPrompt builds the Pass-2 instruction for a discovered
// label set.
func classifySystemPrompt(labels []string) string {
	return fmt.Sprintf(`Assign each numbered headline below to exactly one of these narrative frames: %s, or "neutral" if none fits.
Respond with JSON: {"assignments": [{"index": int, "label": string}]}.`,
		strings.Join(labels, ", "))
}

// formatTitlesForPrompt renders titles as "[publisher] text" lines, one
// per index, the format both passes key their index references against.
func formatTitlesForPrompt(titles []SampleTitle) string {
	var b strings.Builder
	for i, t := range titles {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i, t.Publisher, t.DisplayText)
	}
	return b.String()
}
