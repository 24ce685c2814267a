package titlestore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testdb "github.com/arclinehq/arcline/test/database"

	"github.com/arclinehq/arcline/pkg/errs"
	"github.com/arclinehq/arcline/pkg/titlestore"
)

func TestUpsertAndGetTitle(t *testing.T) {
	db := testdb.NewTestClient(t)
	store := titlestore.New(db.DB())
	ctx := context.Background()

	title := &titlestore.Title{
		ID:             "T1",
		DisplayText:    "US imposes new sanctions on Iran",
		NormalizedText: "us imposes new sanctions on iran",
		Publisher:      "Reuters",
		PublishedAt:    time.Now().Add(-time.Hour),
	}
	require.NoError(t, store.UpsertTitle(ctx, title))

	got, err := store.GetTitle(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, titlestore.VerdictUnfiltered, got.Verdict)
	assert.Equal(t, "Reuters", got.Publisher)
}

func TestMarkVerdictOnceOnly(t *testing.T) {
	db := testdb.NewTestClient(t)
	store := titlestore.New(db.DB())
	ctx := context.Background()

	require.NoError(t, store.UpsertTitle(ctx, &titlestore.Title{
		ID: "T2", DisplayText: "x", NormalizedText: "x", PublishedAt: time.Now(),
	}))

	entities := []titlestore.Entity{{Text: "Iran", Type: "GPE"}}
	require.NoError(t, store.MarkVerdict(ctx, "T2", titlestore.VerdictStrategic, "mechanical KEEP", entities, nil))

	got, err := store.GetTitle(ctx, "T2")
	require.NoError(t, err)
	assert.Equal(t, titlestore.VerdictStrategic, got.Verdict)
	assert.Equal(t, titlestore.StatusFiltered, got.ProcessingStatus)

	// Running mark_verdict twice must not silently overwrite (§4.1 precondition).
	err = store.MarkVerdict(ctx, "T2", titlestore.VerdictNonStrategic, "no_strategic_signal", nil, nil)
	require.Error(t, err)
	var invariant *errs.InvariantViolationError
	assert.ErrorAs(t, err, &invariant)

	got, err = store.GetTitle(ctx, "T2")
	require.NoError(t, err)
	assert.Equal(t, titlestore.VerdictStrategic, got.Verdict, "verdict must remain idempotent")
}

func TestAssignToEFSingleOwnership(t *testing.T) {
	db := testdb.NewTestClient(t)
	store := titlestore.New(db.DB())
	ctx := context.Background()

	for _, id := range []string{"T10", "T11"} {
		require.NoError(t, store.UpsertTitle(ctx, &titlestore.Title{
			ID: id, DisplayText: id, NormalizedText: id, PublishedAt: time.Now(),
		}))
		require.NoError(t, store.MarkVerdict(ctx, id, titlestore.VerdictStrategic, "keep", nil, nil))
	}

	require.NoError(t, store.CreateEF(ctx, &titlestore.EventFamily{
		ID: "EF1", Title: "Summit", Confidence: 0.8, CoherenceRationale: "shared summit",
	}))

	assigned, results, err := store.AssignToEF(ctx, []string{"T10", "T11"}, "EF1", 0.8, "shared summit")
	require.NoError(t, err)
	assert.Equal(t, 2, assigned)
	for _, r := range results {
		assert.True(t, r.OK)
	}

	ef, err := store.GetEF(ctx, "EF1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"T10", "T11"}, ef.SourceTitleIDs)

	// A title may belong to at most one EF (§3 Title Invariants).
	require.NoError(t, store.CreateEF(ctx, &titlestore.EventFamily{ID: "EF2", Title: "Other"}))
	_, results2, err := store.AssignToEF(ctx, []string{"T10"}, "EF2", 0.5, "reassignment attempt")
	require.NoError(t, err)
	require.Len(t, results2, 1)
	assert.False(t, results2[0].OK)
}

func TestUpdateEnrichmentCardinality(t *testing.T) {
	db := testdb.NewTestClient(t)
	store := titlestore.New(db.DB())
	ctx := context.Background()

	require.NoError(t, store.CreateEF(ctx, &titlestore.EventFamily{ID: "EF3", Title: "Trade talks"}))

	err := store.UpdateEnrichment(ctx, "EF3", "summary", []string{"trade", "only-two"}, nil, nil)
	require.Error(t, err, "tags must be exactly 3")

	err = store.UpdateEnrichment(ctx, "EF3", "enriched summary", []string{"trade", "diplomacy", "asia"}, nil, nil)
	require.NoError(t, err)

	ef, err := store.GetEF(ctx, "EF3")
	require.NoError(t, err)
	assert.Equal(t, titlestore.EFStatusActive, ef.Status)
	assert.Len(t, ef.Tags, 3)
}
