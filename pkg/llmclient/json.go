package llmclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

const jsonInstruction = "Respond with JSON only, no prose before or after."

// CompleteJSON appends a JSON instruction to the user prompt if one isn't
// already present, then on parse failure falls back to scanning the raw
// text for the first `{…}` or `[…]` block (§4.10 complete_json). The
// caller supplies `out` to unmarshal into, matching json.Unmarshal's
// pointer-target convention.
func (c *Client) CompleteJSON(ctx context.Context, system, user string, opts Options, out any) (string, error) {
	if !strings.Contains(strings.ToLower(user), "json") {
		user = user + "\n\n" + jsonInstruction
	}

	raw, err := c.Complete(ctx, system, user, opts)
	if err != nil {
		return "", err
	}

	if err := json.Unmarshal([]byte(raw), out); err == nil {
		return raw, nil
	}

	block, ok := extractJSONBlock(raw)
	if !ok {
		return raw, fmt.Errorf("llmclient: no JSON block found in response")
	}
	if err := json.Unmarshal([]byte(block), out); err != nil {
		return raw, fmt.Errorf("llmclient: extracted block did not parse: %w", err)
	}
	return raw, nil
}

// extractJSONBlock scans text for the first top-level `{...}` or `[...]`
// span and validates it with gjson.Valid before returning it. Cutting the
// span out is what gets past the common LLM artifacts (leading or trailing
// commentary, code fences) that make encoding/json reject the whole text.
func extractJSONBlock(text string) (string, bool) {
	text = stripCodeFence(text)

	openers := "{["
	closers := map[byte]byte{'{': '}', '[': ']'}

	for i := 0; i < len(text); i++ {
		if !strings.ContainsRune(openers, rune(text[i])) {
			continue
		}
		open := text[i]
		closeByte := closers[open]
		depth := 0
		for j := i; j < len(text); j++ {
			switch text[j] {
			case open:
				depth++
			case closeByte:
				depth--
				if depth == 0 {
					candidate := text[i : j+1]
					if gjson.Valid(candidate) {
						return candidate, true
					}
					goto nextOpener
				}
			}
		}
	nextOpener:
	}
	return "", false
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.SplitN(text, "\n", 2)
	if len(lines) < 2 {
		return text
	}
	body := lines[1]
	if idx := strings.LastIndex(body, "```"); idx != -1 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}
