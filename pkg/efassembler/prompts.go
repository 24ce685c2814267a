package efassembler

import (
	"encoding/json"
	"fmt"
)

// assemblySystemPrompt is the "Event-Family assembly" system prompt (§4.5
// step 3): strategic content only, group by ongoing narrative rather than
// one-off, canonicalize equivalent actors, prefer fewer/broader EFs.
func assemblySystemPrompt() string {
	return `You are grouping strategic news headlines into Event Families: coherent
real-world strategic events, not one-off stories. Rules:
- Only consider strategically significant content.
- Group headlines describing the same ongoing narrative together, even across
  publishers and slightly different phrasing.
- Canonicalize equivalent actor names (e.g. "the Kremlin" and "Russia" refer to
  the same actor) in key_actors.
- Prefer fewer, broader Event Families over many narrow ones.
- A single headline may form its own Event Family only when it is truly
  distinct and you can state why it is coherent on its own.

Respond with a JSON array. Each element:
{"title": string, "summary": string, "key_actors": [string], "event_type": string,
 "geography": string, "event_start": ISO-8601 string, "event_end": ISO-8601 string,
 "source_title_ids": [string], "confidence": number in [0,1], "coherence_reason": string}`
}

// formatBatchForPrompt renders the batch as a JSON array the prompt
// references by id (§4.5 step 3: "id, text, publisher, date, language, actors").
func formatBatchForPrompt(batch []batchTitle) string {
	b, err := json.Marshal(batch)
	if err != nil {
		return "[]"
	}
	return fmt.Sprintf("Headlines:\n%s", string(b))
}
