package narrative

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ct(label, pub, country, text string) ClassifiedTitle {
	return ClassifiedTitle{
		SampleTitle: SampleTitle{DisplayText: text, Publisher: pub, ISOCountry: country},
		Label:       label,
	}
}

func TestAggregate_DropsNeutralFrames(t *testing.T) {
	classified := []ClassifiedTitle{
		ct("", "Reuters", "US", "a"),
		ct("neutral", "AP", "US", "b"),
	}
	out := Aggregate(classified)
	assert.Empty(t, out)
}

func TestAggregate_OverIndexRequiresThreeInFrame(t *testing.T) {
	var classified []ClassifiedTitle
	// Reuters: 2 in frame (below the 3 floor), 10 global.
	for i := 0; i < 2; i++ {
		classified = append(classified, ct("hero", "Reuters", "US", "r"))
	}
	for i := 0; i < 8; i++ {
		classified = append(classified, ct("", "Reuters", "US", "r"))
	}
	// AP: 5 in frame, 5 global -- over-index should be high.
	for i := 0; i < 5; i++ {
		classified = append(classified, ct("hero", "AP", "GB", "a"))
	}

	out := Aggregate(classified)
	require.Contains(t, out, "hero")
	frame := out["hero"]

	var pubs []string
	for _, s := range frame.TopSources {
		pubs = append(pubs, s.Publisher)
	}
	assert.Contains(t, pubs, "AP")
	assert.NotContains(t, pubs, "Reuters")
}

func TestAggregate_ProportionalRequiresGlobalVolume(t *testing.T) {
	var classified []ClassifiedTitle
	// Publisher with exactly proportional share but too little global volume.
	for i := 0; i < 3; i++ {
		classified = append(classified, ct("villain", "Small Wire", "FR", "s"))
	}
	for i := 0; i < 3; i++ {
		classified = append(classified, ct("", "Small Wire", "FR", "s"))
	}
	// Big publisher with >=20 global count at roughly 1.0 over-index.
	for i := 0; i < 10; i++ {
		classified = append(classified, ct("villain", "Big Wire", "DE", "b"))
	}
	for i := 0; i < 10; i++ {
		classified = append(classified, ct("", "Big Wire", "DE", "b"))
	}

	out := Aggregate(classified)
	frame := out["villain"]

	var pubs []string
	for _, s := range frame.ProportionalSources {
		pubs = append(pubs, s.Publisher)
	}
	assert.Contains(t, pubs, "Big Wire")
	assert.NotContains(t, pubs, "Small Wire")
}

func TestAggregate_TopCountriesCapsAtTen(t *testing.T) {
	var classified []ClassifiedTitle
	countries := []string{"US", "GB", "FR", "DE", "IT", "ES", "PL", "NL", "SE", "NO", "FI"}
	for _, c := range countries {
		classified = append(classified, ct("hero", "Reuters", c, "x"))
	}
	out := Aggregate(classified)
	assert.Len(t, out["hero"].TopCountries, 10)
}

func TestAggregate_SampleTitlesDiverseThenFilled(t *testing.T) {
	var classified []ClassifiedTitle
	for i := 0; i < 20; i++ {
		classified = append(classified, ct("hero", "Reuters", "US", "reuters-title"))
	}
	out := Aggregate(classified)
	assert.Len(t, out["hero"].SampleTitles, 15)
}

func TestSampleCTM_UnderCapReturnsAll(t *testing.T) {
	titles := []SampleTitle{{ID: "1", Language: "en", Publisher: "A"}}
	out := SampleCTM(titles, 200)
	assert.Equal(t, titles, out)
}

func TestSampleCTM_StratifiesByLanguage(t *testing.T) {
	var titles []SampleTitle
	for i := 0; i < 100; i++ {
		titles = append(titles, SampleTitle{ID: "en", Language: "en", Publisher: "A"})
	}
	for i := 0; i < 20; i++ {
		titles = append(titles, SampleTitle{ID: "fr", Language: "fr", Publisher: "B"})
	}
	for i := 0; i < 2; i++ {
		titles = append(titles, SampleTitle{ID: "de", Language: "de", Publisher: "C"})
	}

	out := SampleCTM(titles, 60)
	assert.LessOrEqual(t, len(out), 60)

	byLang := map[string]int{}
	for _, t := range out {
		byLang[t.Language]++
	}
	assert.Greater(t, byLang["en"], 0)
	assert.Greater(t, byLang["fr"], 0)
	assert.Zero(t, byLang["de"]) // under the 3-title floor, excluded entirely
}

func TestSampleEpic_ProportionalByCentroid(t *testing.T) {
	var titles []SampleTitle
	for i := 0; i < 80; i++ {
		titles = append(titles, SampleTitle{ID: "a", CentroidID: "ARC-A", Publisher: "A"})
	}
	for i := 0; i < 20; i++ {
		titles = append(titles, SampleTitle{ID: "b", CentroidID: "ARC-B", Publisher: "B"})
	}

	out := SampleEpic(titles, 50)
	assert.LessOrEqual(t, len(out), 50)

	byCentroid := map[string]int{}
	for _, t := range out {
		byCentroid[t.CentroidID]++
	}
	assert.Greater(t, byCentroid["ARC-A"], byCentroid["ARC-B"])
}
