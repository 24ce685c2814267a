package narrative

import "sort"

// FrameAggregate is a single frame's computed publisher/country/sample
// statistics, ready to persist as a Frame (§4.8 Aggregation).
type FrameAggregate struct {
	TitleCount          int
	TopSources          []SourceStat
	ProportionalSources []SourceStat
	TopCountries        []string
	SampleTitles        []string
}

// Aggregate groups classified titles by frame label and computes each
// frame's over-index statistics against the global publisher baseline.
// Unlabeled ("" or "neutral") titles still count toward the baseline but
// form no frame of their own (§4.8: "reject neutral ... frames").
func Aggregate(classified []ClassifiedTitle) map[string]FrameAggregate {
	globalByPublisher := map[string]int{}
	global := 0
	for _, c := range classified {
		globalByPublisher[c.Publisher]++
		global++
	}

	byLabel := map[string][]ClassifiedTitle{}
	for _, c := range classified {
		if c.Label == "" || c.Label == "neutral" {
			continue
		}
		byLabel[c.Label] = append(byLabel[c.Label], c)
	}

	out := map[string]FrameAggregate{}
	for label, members := range byLabel {
		out[label] = aggregateFrame(members, globalByPublisher, global)
	}
	return out
}

func aggregateFrame(members []ClassifiedTitle, globalByPublisher map[string]int, global int) FrameAggregate {
	frameByPublisher := map[string]int{}
	countryCounts := map[string]int{}
	for _, m := range members {
		frameByPublisher[m.Publisher]++
		if m.ISOCountry != "" {
			countryCounts[m.ISOCountry]++
		}
	}
	frameTotal := len(members)

	var overIdx []SourceStat
	for pub, frameCount := range frameByPublisher {
		if frameCount < 3 { // "require minimum 3 titles for the publisher in the frame"
			continue
		}
		globalCount := globalByPublisher[pub]
		if globalCount == 0 || global == 0 {
			continue
		}
		shareInFrame := float64(frameCount) / float64(frameTotal)
		shareInEpic := float64(globalCount) / float64(global)
		overIdx = append(overIdx, SourceStat{
			Publisher: pub,
			OverIndex: shareInFrame / shareInEpic,
			Count:     frameCount,
		})
	}

	topSources := topByOverIndex(overIdx, 1.3, 10)
	if len(topSources) == 0 {
		topSources = topByCount(frameByPublisher, 10)
	}

	proportional := proportionalSources(overIdx, globalByPublisher, 5)

	return FrameAggregate{
		TitleCount:          frameTotal,
		TopSources:          topSources,
		ProportionalSources: proportional,
		TopCountries:        topCountries(countryCounts, 10),
		SampleTitles:        diverseSample(members, 15),
	}
}

func topByOverIndex(stats []SourceStat, minOverIndex float64, limit int) []SourceStat {
	var out []SourceStat
	for _, s := range stats {
		if s.OverIndex >= minOverIndex {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OverIndex > out[j].OverIndex })
	return truncate(out, limit)
}

func topByCount(byPublisher map[string]int, limit int) []SourceStat {
	var out []SourceStat
	for pub, n := range byPublisher {
		out = append(out, SourceStat{Publisher: pub, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Publisher < out[j].Publisher
	})
	return truncate(out, limit)
}

func proportionalSources(stats []SourceStat, globalByPublisher map[string]int, limit int) []SourceStat {
	var out []SourceStat
	for _, s := range stats {
		if s.OverIndex < 0.85 || s.OverIndex > 1.15 {
			continue
		}
		if globalByPublisher[s.Publisher] < 20 {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return truncate(out, limit)
}

func topCountries(counts map[string]int, limit int) []string {
	type c struct {
		code string
		n    int
	}
	var list []c
	for code, n := range counts {
		list = append(list, c{code, n})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].n != list[j].n {
			return list[i].n > list[j].n
		}
		return list[i].code < list[j].code
	})
	if len(list) > limit {
		list = list[:limit]
	}
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.code
	}
	return out
}

// diverseSample picks up to n titles cycling across publishers before
// falling back to filling remaining slots with whatever's left (§4.8
// "publisher-diverse sample, then fill to 15").
func diverseSample(members []ClassifiedTitle, n int) []string {
	byPub := map[string][]string{}
	var pubs []string
	for _, m := range members {
		if _, ok := byPub[m.Publisher]; !ok {
			pubs = append(pubs, m.Publisher)
		}
		byPub[m.Publisher] = append(byPub[m.Publisher], m.DisplayText)
	}
	sort.Strings(pubs)

	var out []string
	seen := map[string]bool{}
	idx := make(map[string]int, len(pubs))
	for len(out) < n {
		progressed := false
		for _, p := range pubs {
			if len(out) >= n {
				break
			}
			i := idx[p]
			if i >= len(byPub[p]) {
				continue
			}
			out = append(out, byPub[p][i])
			seen[byPub[p][i]] = true
			idx[p] = i + 1
			progressed = true
		}
		if !progressed {
			break
		}
	}
	if len(out) < n {
		for _, m := range members {
			if len(out) >= n {
				break
			}
			if !seen[m.DisplayText] {
				out = append(out, m.DisplayText)
				seen[m.DisplayText] = true
			}
		}
	}
	return out
}

func truncate(stats []SourceStat, limit int) []SourceStat {
	if len(stats) > limit {
		return stats[:limit]
	}
	return stats
}
