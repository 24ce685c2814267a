package centroid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleDefinition() Definition {
	return Definition{
		Name:             "Iran Sanctions Pressure",
		Keywords:         []string{"sanctions", "nuclear", "enrichment"},
		Actors:           []string{"United States", "Iran"},
		Theaters:         []string{"middle east"},
		EventTypeBonuses: map[string]float64{"sanctions_announcement": 0.25, "diplomatic_meeting": 0.1},
	}
}

func TestKeywordScoreExactMatch(t *testing.T) {
	def := sampleDefinition()
	score := keywordScore(def, "US imposes new sanctions over nuclear enrichment program")
	assert.InDelta(t, 1.0, score, 0.0001)
}

func TestKeywordScorePartialMatch(t *testing.T) {
	def := sampleDefinition()
	score := keywordScore(def, "US imposes new sanctions on shipping firms")
	assert.InDelta(t, 1.0/3.0, score, 0.0001)
}

func TestActorScoreWithVariantNormalization(t *testing.T) {
	def := sampleDefinition()
	score := actorScore(def, []string{"USA", "Iran"})
	assert.InDelta(t, 1.0, score, 0.0001)
}

func TestActorScorePartialOverlap(t *testing.T) {
	def := sampleDefinition()
	score := actorScore(def, []string{"USA"})
	assert.InDelta(t, 0.5, score, 0.0001)
}

func TestTheaterScoreDirectAndContainment(t *testing.T) {
	def := sampleDefinition()
	assert.Equal(t, 1.0, theaterScore(def, "middle east"))

	easternEurope := Definition{Theaters: []string{"eastern europe"}}
	assert.Equal(t, 0.8, theaterScore(easternEurope, "ukraine"))

	assert.Equal(t, 0.6, theaterScore(def, "middle easte"))
}

func TestEventTypeScoreIsRawBonus(t *testing.T) {
	def := sampleDefinition()
	assert.InDelta(t, 0.25, eventTypeScore(def, "sanctions_announcement"), 0.0001)
	assert.InDelta(t, 0.1, eventTypeScore(def, "diplomatic_meeting"), 0.0001)
	assert.Equal(t, 0.0, eventTypeScore(def, "unknown_type"))
}

func TestScoreCompositeAndBand(t *testing.T) {
	def := sampleDefinition()
	sig := EventSignature{
		Title:          "US imposes new sanctions on Iran over nuclear enrichment",
		Summary:        "",
		Actors:         []string{"United States", "Iran"},
		PrimaryTheater: "middle east",
		EventType:      "sanctions_announcement",
	}
	c := Score(def, sig)
	// 0.4*1 + 0.3*1 + 0.2*1 + 0.1*0.25 = 0.925.
	assert.InDelta(t, 0.925, c.Composite, 0.0001)
	assert.Equal(t, BandHigh, c.Band)
}

func TestClassifyBandBoundaries(t *testing.T) {
	assert.Equal(t, BandHigh, ClassifyBand(0.7))
	assert.Equal(t, BandMedium, ClassifyBand(0.4))
	assert.Equal(t, BandMedium, ClassifyBand(0.69))
	assert.Equal(t, BandLow, ClassifyBand(0.39))
}

func TestRegistryTopCandidatesOrdering(t *testing.T) {
	weak := Definition{Name: "Unrelated", Keywords: []string{"sports", "olympics"}}
	strong := sampleDefinition()
	reg := NewRegistry([]Definition{weak, strong})

	sig := EventSignature{
		Title:          "US sanctions Iran over nuclear enrichment",
		Actors:         []string{"United States", "Iran"},
		PrimaryTheater: "middle east",
		EventType:      "sanctions_announcement",
	}
	top := reg.TopCandidates(sig, 1)
	assert.Len(t, top, 1)
	assert.Equal(t, "Iran Sanctions Pressure", top[0].Name)
}
