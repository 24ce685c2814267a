package llmclient

import "regexp"

// postEdit applies the §4.10 stale-role hallucination fixes. These are
// business rules the spec calls out explicitly as belonging to the core
// contract, not optional cleanup, so every Complete/ChatCompletion call
// passes through here before returning.
var staleRoleFixes = []struct {
	pattern *regexp.Regexp
	replace string
}{
	{regexp.MustCompile(`(?i)former president trump`), "President Trump"},
	{regexp.MustCompile(`(?i)opposition leader merz`), "Chancellor Merz"},
}

func postEdit(text string) string {
	for _, fix := range staleRoleFixes {
		text = fix.pattern.ReplaceAllString(text, fix.replace)
	}
	return text
}
