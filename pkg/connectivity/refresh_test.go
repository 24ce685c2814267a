package connectivity_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arclinehq/arcline/pkg/config"
	"github.com/arclinehq/arcline/pkg/connectivity"
	"github.com/arclinehq/arcline/pkg/graphindex"
	"github.com/arclinehq/arcline/pkg/titlestore"
	testdb "github.com/arclinehq/arcline/test/database"
)

// fakeGraph satisfies connectivity.GraphReader without a live Neo4j
// connection, returning a fixed set of raw pairs.
type fakeGraph struct {
	pairs []graphindex.RawPair
}

func (f *fakeGraph) UnassignedStrategicPairs(_ context.Context, _, _ int) ([]graphindex.RawPair, error) {
	return f.pairs, nil
}

func defaultCfg() *config.ConnectivityConfig {
	return &config.ConnectivityConfig{
		MinSharedEntities:  2,
		PairCap:            50000,
		WriteBatchSize:     1000,
		CompositeThreshold: 0.3,
		JaccardWeight:      0.5,
		ActorWeight:        0.2,
	}
}

func seedStrategicTitle(t *testing.T, store *titlestore.Store, id string, entities []titlestore.Entity, actor string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.UpsertTitle(ctx, &titlestore.Title{
		ID: id, DisplayText: id, NormalizedText: id, PublishedAt: time.Now(),
	}))
	var triple *titlestore.ActionTriple
	if actor != "" {
		triple = &titlestore.ActionTriple{Actor: actor, Action: "sanctions", Target: "Iran"}
	}
	require.NoError(t, store.MarkVerdict(ctx, id, titlestore.VerdictStrategic, "mechanical KEEP", entities, triple))
}

func TestRefreshComputesCompositeAndWritesCache(t *testing.T) {
	db := testdb.NewTestClient(t)
	titles := titlestore.New(db.DB())
	cache := connectivity.New(db.DB())
	ctx := context.Background()

	entitiesA := []titlestore.Entity{{Text: "Iran", Type: "GPE"}, {Text: "US", Type: "GPE"}}
	entitiesB := []titlestore.Entity{{Text: "Iran", Type: "GPE"}, {Text: "US", Type: "GPE"}, {Text: "EU", Type: "GPE"}}
	seedStrategicTitle(t, titles, "T1", entitiesA, "United States")
	seedStrategicTitle(t, titles, "T2", entitiesB, "United States")

	graph := &fakeGraph{pairs: []graphindex.RawPair{{TitleA: "T1", TitleB: "T2", SharedCount: 2}}}
	refresher := connectivity.NewRefresher(graph, titles, cache, defaultCfg())

	result, err := refresher.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.CandidatePairs)
	assert.Equal(t, 1, result.WrittenRows)

	rows, err := cache.TopPairsFor(ctx, "T1", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	row := rows[0]
	assert.InDelta(t, 2.0/3.0, row.EntityJaccard, 0.0001)
	assert.Equal(t, 1.0, row.ActorMatch, "identical normalized actors match exactly")
	assert.InDelta(t, 0.5*(2.0/3.0)+0.2*1.0, row.Composite, 0.0001)
	assert.Equal(t, "United States", row.SharedActor)
}

func TestRefreshDropsPairsBelowCompositeThreshold(t *testing.T) {
	db := testdb.NewTestClient(t)
	titles := titlestore.New(db.DB())
	cache := connectivity.New(db.DB())
	ctx := context.Background()

	// Only 1 shared entity out of large unions and no actor match keeps
	// composite below the 0.3 threshold.
	entitiesA := []titlestore.Entity{{Text: "Iran", Type: "GPE"}, {Text: "Oil", Type: "ORG"}, {Text: "Gas", Type: "ORG"}}
	entitiesB := []titlestore.Entity{{Text: "Iran", Type: "GPE"}, {Text: "Sports", Type: "ORG"}, {Text: "Cup", Type: "ORG"}}
	seedStrategicTitle(t, titles, "T3", entitiesA, "Iran")
	seedStrategicTitle(t, titles, "T4", entitiesB, "FIFA")

	graph := &fakeGraph{pairs: []graphindex.RawPair{{TitleA: "T3", TitleB: "T4", SharedCount: 1}}}
	refresher := connectivity.NewRefresher(graph, titles, cache, defaultCfg())

	result, err := refresher.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.CandidatePairs)
	assert.Equal(t, 0, result.WrittenRows)

	count, err := cache.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRefreshSkipsPairsNoLongerUnassigned(t *testing.T) {
	db := testdb.NewTestClient(t)
	titles := titlestore.New(db.DB())
	cache := connectivity.New(db.DB())
	ctx := context.Background()

	entities := []titlestore.Entity{{Text: "Iran", Type: "GPE"}, {Text: "US", Type: "GPE"}}
	seedStrategicTitle(t, titles, "T5", entities, "United States")
	// T6 is never written to titlestore, simulating a title that dropped
	// out of the unassigned-strategic set between the graph snapshot and
	// this refresh run.
	graph := &fakeGraph{pairs: []graphindex.RawPair{{TitleA: "T5", TitleB: "T6", SharedCount: 2}}}
	refresher := connectivity.NewRefresher(graph, titles, cache, defaultCfg())

	result, err := refresher.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.WrittenRows)
}
