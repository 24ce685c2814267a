package centroid

import (
	"strings"

	"github.com/agext/levenshtein"
)

const fuzzyThreshold = 0.8

// actorVariants expands known actor aliases to a canonical form (§4.7
// "US/USA/America → united states"), plus the other major-power aliases:
// china/russia/uk/eu/north korea/south korea. Anything else passes through
// normalizeActor unchanged.
var actorVariants = map[string]string{
	"us":                          "united states",
	"usa":                         "united states",
	"america":                     "united states",
	"u.s.":                        "united states",
	"u.s.a.":                      "united states",
	"prc":                         "china",
	"peoples republic of china":   "china",
	"russian federation":          "russia",
	"rf":                          "russia",
	"eu":                          "european union",
	"uk":                          "united kingdom",
	"britain":                     "united kingdom",
	"great britain":               "united kingdom",
	"dprk":                        "north korea",
	"democratic peoples republic of korea": "north korea",
	"rok":                         "south korea",
	"republic of korea":           "south korea",
}

func normalizeActor(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if canonical, ok := actorVariants[s]; ok {
		return canonical
	}
	return s
}

func normalizeActorSet(actors []string) map[string]struct{} {
	out := make(map[string]struct{}, len(actors))
	for _, a := range actors {
		out[normalizeActor(a)] = struct{}{}
	}
	return out
}

// fuzzyRatio returns a Jaro-Winkler-free normalized similarity in [0,1]
// derived from Levenshtein edit distance, the way `agext/levenshtein`'s
// `Match` helper is meant to be used for ratio thresholds.
func fuzzyRatio(a, b string) float64 {
	return levenshtein.Match(a, b, levenshtein.NewParams())
}

// keywordScore is the fraction of centroid keywords found in text (exact
// substring or word-prefix fuzzy at ratio >= 0.8), capped at 1 (§4.7).
func keywordScore(def Definition, text string) float64 {
	if len(def.Keywords) == 0 {
		return 0
	}
	text = strings.ToLower(text)
	words := strings.Fields(text)

	hits := 0
	for _, kw := range def.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(text, kw) {
			hits++
			continue
		}
		found := false
		for _, w := range words {
			if len(w) > len(kw) {
				w = w[:len(kw)]
			}
			if fuzzyRatio(kw, w) >= fuzzyThreshold {
				found = true
				break
			}
		}
		if found {
			hits++
		}
	}

	score := float64(hits) / float64(len(def.Keywords))
	if score > 1 {
		score = 1
	}
	return score
}

// actorScore is |normalized(ef_actors) ∩ normalized(centroid_actors)| /
// |normalized(centroid_actors)| (§4.7).
func actorScore(def Definition, efActors []string) float64 {
	if len(def.Actors) == 0 {
		return 0
	}
	centroidSet := normalizeActorSet(def.Actors)
	efSet := normalizeActorSet(efActors)

	overlap := 0
	for a := range efSet {
		if _, ok := centroidSet[a]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(centroidSet))
}

// theaterHierarchy maps a parent theater to the child theaters it contains
// (§4.7 "hierarchical containment", e.g. "ukraine" inside "eastern europe").
var theaterHierarchy = map[string][]string{
	"eastern europe":   {"ukraine", "poland", "belarus", "baltic states"},
	"middle east":      {"israel", "gaza", "west bank", "syria", "lebanon", "jordan"},
	"persian gulf":     {"iran", "iraq", "kuwait", "bahrain", "qatar", "uae"},
	"southeast asia":   {"myanmar", "thailand", "vietnam", "laos", "cambodia"},
	"south asia":       {"india", "pakistan", "bangladesh", "sri lanka"},
	"east china sea":   {"taiwan strait"},
	"south china sea":  {"spratly islands", "paracel islands"},
	"west africa":      {"mali", "niger", "burkina faso", "ghana"},
	"horn of africa":   {"ethiopia", "eritrea", "somalia", "djibouti"},
	"balkans":          {"serbia", "kosovo", "bosnia", "montenegro", "albania"},
}

// theaterScore: 1.0 direct match, 0.8 hierarchical containment, 0.6 fuzzy
// match >= 0.8, else 0 (§4.7).
func theaterScore(def Definition, primaryTheater string) float64 {
	if len(def.Theaters) == 0 || primaryTheater == "" {
		return 0
	}
	efTheater := strings.ToLower(strings.TrimSpace(primaryTheater))

	centroidTheaters := make([]string, len(def.Theaters))
	for i, t := range def.Theaters {
		centroidTheaters[i] = strings.ToLower(strings.TrimSpace(t))
	}

	for _, t := range centroidTheaters {
		if t == efTheater {
			return 1.0
		}
	}

	for parent, children := range theaterHierarchy {
		if !containsString(centroidTheaters, parent) {
			continue
		}
		for _, child := range children {
			if child == efTheater {
				return 0.8
			}
		}
	}

	for _, t := range centroidTheaters {
		if fuzzyRatio(efTheater, t) >= fuzzyThreshold {
			return 0.6
		}
	}
	return 0
}

func containsString(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// eventTypeScore returns the centroid's raw event-type bonus (≤0.25,
// §4.7's table) unnormalized. Score weights it by 0.1, giving a 0.025 max
// contribution; stretching it to [0,1] first would give it a full 0.1.
func eventTypeScore(def Definition, eventType string) float64 {
	rawBonus, ok := def.EventTypeBonuses[eventType]
	if !ok {
		return 0
	}
	return rawBonus
}

// Score computes the full §4.7 breakdown for one centroid against one
// EventSignature.
func Score(def Definition, sig EventSignature) Candidate {
	kw := keywordScore(def, sig.Title+" "+sig.Summary)
	actor := actorScore(def, sig.Actors)
	theater := theaterScore(def, sig.PrimaryTheater)
	eventType := eventTypeScore(def, sig.EventType)

	composite := 0.4*kw + 0.3*actor + 0.2*theater + 0.1*eventType

	return Candidate{
		Name:           def.Name,
		KeywordScore:   kw,
		ActorScore:     actor,
		TheaterScore:   theater,
		EventTypeScore: eventType,
		Composite:      composite,
		Band:           ClassifyBand(composite),
	}
}
