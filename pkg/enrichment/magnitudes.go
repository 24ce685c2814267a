package enrichment

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/arclinehq/arcline/pkg/titlestore"
)

// magnitudePattern is one of Step B's six named regex families (§4.6 Step
// B), grounded on `apps/enrich/prompts.py`'s MAGNITUDE_PATTERNS. unitGroup
// is true when the pattern captures its own unit word (group 2); when
// false the unit falls back to the family name, mirroring the original's
// `unit = match.group(2) if len(match.groups()) > 1 else mag_type`.
type magnitudePattern struct {
	kind      string
	re        *regexp.Regexp
	unitGroup bool
}

var magnitudePatterns = []magnitudePattern{
	{kind: "money", re: regexp.MustCompile(`(?i)(?:[$€£]\s*(\d+(?:\.\d+)?)\s*(?:billion|bn|million|mn|trillion|tn)?|(\d+(?:\.\d+)?)\s*(?:billion|bn|million|mn|trillion|tn)?\s*(?:USD|EUR|GBP|\$|€|£))`), unitGroup: false},
	{kind: "energy", re: regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(GW|MW|TWh|bcm|mcm|barrels|bpd)`), unitGroup: true},
	{kind: "military", re: regexp.MustCompile(`(?i)(\d+(?:,\d+)?)\s*(troops|soldiers|personnel|aircraft|ships|tanks)`), unitGroup: true},
	{kind: "casualties", re: regexp.MustCompile(`(?i)(\d+(?:,\d+)?)\s*(dead|killed|casualties|wounded|injured|missing)`), unitGroup: true},
	{kind: "percentage", re: regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%`), unitGroup: false},
	{kind: "trade", re: regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:billion|bn|million|mn)?\s*(?:tons|tonnes|barrels)`), unitGroup: false},
}

// extractMagnitudes applies the six regex families across every member
// title's display text, normalizes billion/million multipliers, dedupes
// by (rounded value, lowercase unit), and caps at 3 (§4.6 Step B).
func extractMagnitudes(titles []*titlestore.Title) []titlestore.Magnitude {
	var found []titlestore.Magnitude

	for _, t := range titles {
		text := t.DisplayText
		if text == "" {
			continue
		}
		for _, p := range magnitudePatterns {
			for _, m := range p.re.FindAllStringSubmatch(text, -1) {
				mag, ok := parseMagnitudeMatch(p, m, text)
				if !ok {
					continue
				}
				found = append(found, mag)
			}
		}
	}

	return dedupeMagnitudes(found)
}

func parseMagnitudeMatch(p magnitudePattern, m []string, text string) (titlestore.Magnitude, bool) {
	raw := m[0]
	numStr := m[1]
	if numStr == "" && !p.unitGroup && len(m) > 2 {
		numStr = m[2] // money's number-then-currency alternative
	}
	valueStr := strings.ReplaceAll(numStr, ",", "")
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return titlestore.Magnitude{}, false
	}

	unit := p.kind
	if p.unitGroup && len(m) > 2 {
		unit = m[2]
	}

	lowerRaw := strings.ToLower(raw)
	switch {
	case strings.Contains(lowerRaw, "billion") || strings.Contains(lowerRaw, "bn"):
		value *= 1e9
		unit = cleanUnit(unit, "billion", "bn")
	case strings.Contains(lowerRaw, "million") || strings.Contains(lowerRaw, "mn"):
		value *= 1e6
		unit = cleanUnit(unit, "million", "mn")
	}

	return titlestore.Magnitude{
		Value: value,
		Unit:  unit,
		Kind:  p.kind,
		Raw:   fmt.Sprintf("%s: %s", p.kind, text),
	}, true
}

func cleanUnit(unit, long, short string) string {
	u := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(unit, long, ""), short, ""))
	if u == "" {
		return "units"
	}
	return u
}

func dedupeMagnitudes(in []titlestore.Magnitude) []titlestore.Magnitude {
	type key struct {
		value int64
		unit  string
	}
	seen := make(map[key]bool, len(in))
	var out []titlestore.Magnitude
	for _, m := range in {
		k := key{value: int64(m.Value + 0.5), unit: strings.ToLower(m.Unit)}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, m)
	}
	if len(out) > 3 {
		out = out[:3]
	}
	return out
}
