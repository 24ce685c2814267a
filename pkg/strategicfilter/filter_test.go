package strategicfilter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arclinehq/arcline/pkg/config"
	"github.com/arclinehq/arcline/pkg/graphindex"
	"github.com/arclinehq/arcline/pkg/strategicfilter"
	"github.com/arclinehq/arcline/pkg/titlestore"
)

type fakeGraph struct {
	neighbors []graphindex.StrategicNeighbor
	err       error
}

func (f *fakeGraph) StrategicNeighbors(_ context.Context, _ string, _, _ int) ([]graphindex.StrategicNeighbor, error) {
	return f.neighbors, f.err
}

func testCfg() *config.FilterConfig {
	return &config.FilterConfig{
		ActorAllowList:     []string{"united nations"},
		StopList:           []string{"horoscope", "celebrity gossip"},
		KeywordHeuristics:  []string{"sanctions", "invasion"},
		GraphMinShared:     2,
		GraphPromoteShared: 3,
		GraphWindow:        "48h",
		GraphNeighborCap:   3,
	}
}

func title(text string, entities int) *titlestore.Title {
	ents := make([]titlestore.Entity, entities)
	for i := range ents {
		ents[i] = titlestore.Entity{Text: "E", Type: "GPE"}
	}
	return &titlestore.Title{
		ID:             "T1",
		DisplayText:    text,
		NormalizedText: titlestore.NormalizeText(text),
		Entities:       ents,
	}
}

func TestStage1StopListRejectsRegardlessOfOtherSignals(t *testing.T) {
	f := strategicfilter.New(testCfg(), &fakeGraph{})
	v := f.Evaluate(context.Background(), title("Celebrity Gossip: sanctions imposed on star's divorce", 0))
	assert.False(t, v.Keep)
	assert.Contains(t, v.Reason, "blocked_by_stop")
}

func TestStage1ActorAllowListKeeps(t *testing.T) {
	f := strategicfilter.New(testCfg(), &fakeGraph{})
	v := f.Evaluate(context.Background(), title("United Nations calls for ceasefire", 0))
	assert.True(t, v.Keep)
}

func TestStage1KeywordHeuristicKeeps(t *testing.T) {
	f := strategicfilter.New(testCfg(), &fakeGraph{})
	v := f.Evaluate(context.Background(), title("New sanctions target shipping firms", 0))
	assert.True(t, v.Keep)
}

func TestStage2PromotesOnStrongNeighbor(t *testing.T) {
	graph := &fakeGraph{neighbors: []graphindex.StrategicNeighbor{
		{TitleID: "T2", SharedCount: 3},
	}}
	f := strategicfilter.New(testCfg(), graph)
	v := f.Evaluate(context.Background(), title("Regional leaders meet in Geneva", 2))
	assert.True(t, v.Keep)
	assert.Contains(t, v.Reason, "connected to 3 strategic articles")
}

func TestStage2RequiresAtLeastTwoEntities(t *testing.T) {
	graph := &fakeGraph{neighbors: []graphindex.StrategicNeighbor{{TitleID: "T2", SharedCount: 5}}}
	f := strategicfilter.New(testCfg(), graph)
	v := f.Evaluate(context.Background(), title("Regional leaders meet in Geneva", 1))
	assert.False(t, v.Keep)
	assert.Equal(t, "no_strategic_signal", v.Reason)
}

func TestStage2ErrorDemotesToFallback(t *testing.T) {
	graph := &fakeGraph{err: assert.AnError}
	f := strategicfilter.New(testCfg(), graph)
	v := f.Evaluate(context.Background(), title("Regional leaders meet in Geneva", 2))
	assert.False(t, v.Keep)
	assert.Equal(t, "no_strategic_signal", v.Reason)
}

func TestStage3FallbackReject(t *testing.T) {
	f := strategicfilter.New(testCfg(), &fakeGraph{})
	v := f.Evaluate(context.Background(), title("Local bakery wins regional award", 0))
	assert.False(t, v.Keep)
	assert.Equal(t, "no_strategic_signal", v.Reason)
}
