package narrative_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arclinehq/arcline/pkg/narrative"
	testdb "github.com/arclinehq/arcline/test/database"
)

func TestReplaceInsertsFramesAndIsReadableBack(t *testing.T) {
	db := testdb.NewTestClient(t)
	store := narrative.NewStore(db.DB())
	ctx := context.Background()

	frames := []narrative.Frame{
		{
			EntityType:          narrative.EntityEvent,
			EntityID:            "EF1",
			Label:               "economic-coercion",
			Description:         "frames the move as coercive economic pressure",
			MoralFrame:          "harm",
			TitleCount:          12,
			TopSources:          []narrative.SourceStat{{Publisher: "Reuters", OverIndex: 1.8, Count: 5}},
			ProportionalSources: []narrative.SourceStat{{Publisher: "AP", OverIndex: 1.2, Count: 3}},
			TopCountries:        []string{"US", "IR"},
			SampleTitles:        []string{"T1", "T2"},
		},
		{
			EntityType:  narrative.EntityEvent,
			EntityID:    "EF1",
			Label:       "sovereignty-defense",
			Description: "frames the move as defending sovereignty",
			MoralFrame:  "fairness",
			TitleCount:  4,
		},
	}

	require.NoError(t, store.Replace(ctx, narrative.EntityEvent, "EF1", frames))

	got, err := store.ListForEntity(ctx, narrative.EntityEvent, "EF1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	byLabel := map[string]narrative.Frame{}
	for _, f := range got {
		byLabel[f.Label] = f
	}
	require.Contains(t, byLabel, "economic-coercion")
	econ := byLabel["economic-coercion"]
	assert.Equal(t, 12, econ.TitleCount)
	require.Len(t, econ.TopSources, 1)
	assert.Equal(t, "Reuters", econ.TopSources[0].Publisher)
	assert.InDelta(t, 1.8, econ.TopSources[0].OverIndex, 0.0001)
	assert.Equal(t, []string{"US", "IR"}, econ.TopCountries)
	assert.Equal(t, []string{"T1", "T2"}, econ.SampleTitles)
}

func TestReplaceAtomicallySwapsOldFramesForNew(t *testing.T) {
	db := testdb.NewTestClient(t)
	store := narrative.NewStore(db.DB())
	ctx := context.Background()

	require.NoError(t, store.Replace(ctx, narrative.EntityEvent, "EF2", []narrative.Frame{
		{EntityType: narrative.EntityEvent, EntityID: "EF2", Label: "old-frame", TitleCount: 1},
	}))

	require.NoError(t, store.Replace(ctx, narrative.EntityEvent, "EF2", []narrative.Frame{
		{EntityType: narrative.EntityEvent, EntityID: "EF2", Label: "new-frame-a", TitleCount: 2},
		{EntityType: narrative.EntityEvent, EntityID: "EF2", Label: "new-frame-b", TitleCount: 3},
	}))

	got, err := store.ListForEntity(ctx, narrative.EntityEvent, "EF2")
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, f := range got {
		assert.NotEqual(t, "old-frame", f.Label)
	}
}

func TestReplaceWithNoFramesClearsEntity(t *testing.T) {
	db := testdb.NewTestClient(t)
	store := narrative.NewStore(db.DB())
	ctx := context.Background()

	require.NoError(t, store.Replace(ctx, narrative.EntityCTM, "CTM1", []narrative.Frame{
		{EntityType: narrative.EntityCTM, EntityID: "CTM1", Label: "only-frame", TitleCount: 1},
	}))
	require.NoError(t, store.Replace(ctx, narrative.EntityCTM, "CTM1", nil))

	got, err := store.ListForEntity(ctx, narrative.EntityCTM, "CTM1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListForEntitiesGroupsByEntityID(t *testing.T) {
	db := testdb.NewTestClient(t)
	store := narrative.NewStore(db.DB())
	ctx := context.Background()

	require.NoError(t, store.Replace(ctx, narrative.EntityEpic, "EP1", []narrative.Frame{
		{EntityType: narrative.EntityEpic, EntityID: "EP1", Label: "a", TitleCount: 1},
	}))
	require.NoError(t, store.Replace(ctx, narrative.EntityEpic, "EP2", []narrative.Frame{
		{EntityType: narrative.EntityEpic, EntityID: "EP2", Label: "b", TitleCount: 1},
		{EntityType: narrative.EntityEpic, EntityID: "EP2", Label: "c", TitleCount: 1},
	}))

	byEntity, err := store.ListForEntities(ctx, narrative.EntityEpic, []string{"EP1", "EP2", "EP3"})
	require.NoError(t, err)
	assert.Len(t, byEntity["EP1"], 1)
	assert.Len(t, byEntity["EP2"], 2)
	assert.Empty(t, byEntity["EP3"])
}

func TestReplaceAllowsSameLabelForDifferentEntities(t *testing.T) {
	db := testdb.NewTestClient(t)
	store := narrative.NewStore(db.DB())
	ctx := context.Background()

	// The same label on two different entities is fine; uniqueness is
	// scoped to (entity_id, label), not label alone.
	require.NoError(t, store.Replace(ctx, narrative.EntityEvent, "EF3", []narrative.Frame{
		{EntityType: narrative.EntityEvent, EntityID: "EF3", Label: "shared-label", TitleCount: 1},
	}))
	require.NoError(t, store.Replace(ctx, narrative.EntityEvent, "EF4", []narrative.Frame{
		{EntityType: narrative.EntityEvent, EntityID: "EF4", Label: "shared-label", TitleCount: 1},
	}))

	got3, err := store.ListForEntity(ctx, narrative.EntityEvent, "EF3")
	require.NoError(t, err)
	got4, err := store.ListForEntity(ctx, narrative.EntityEvent, "EF4")
	require.NoError(t, err)
	require.Len(t, got3, 1)
	require.Len(t, got4, 1)
}
