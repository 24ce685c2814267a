package runner_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arclinehq/arcline/pkg/runner"
)

func TestCheckpointLoadMissingReturnsZeroValue(t *testing.T) {
	store, err := runner.NewCheckpointStore(t.TempDir())
	require.NoError(t, err)

	cp, err := store.Load("p2")
	require.NoError(t, err)
	assert.Equal(t, "p2", cp.Phase)
	assert.Equal(t, int64(0), cp.ProcessedCount)
}

func TestCheckpointSaveIsAtomicAndParsesAsJSON(t *testing.T) {
	dir := t.TempDir()
	store, err := runner.NewCheckpointStore(dir)
	require.NoError(t, err)

	cp, err := store.Load("p3")
	require.NoError(t, err)
	require.NoError(t, store.RecordSuccess(cp, "T99"))

	raw, err := os.ReadFile(filepath.Join(dir, "p3.json"))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "T99", decoded["last_item_id"])
	assert.Equal(t, float64(1), decoded["processed_count"])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}

func TestCheckpointClearRemovesFile(t *testing.T) {
	dir := t.TempDir()
	store, err := runner.NewCheckpointStore(dir)
	require.NoError(t, err)

	cp, err := store.Load("p4")
	require.NoError(t, err)
	require.NoError(t, store.RecordSuccess(cp, "T1"))
	require.NoError(t, store.Clear("p4"))

	_, err = os.Stat(filepath.Join(dir, "p4.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestCheckpointResumeReflectsLastRecordedItem(t *testing.T) {
	dir := t.TempDir()
	store, err := runner.NewCheckpointStore(dir)
	require.NoError(t, err)

	cp, err := store.Load("p2")
	require.NoError(t, err)
	require.NoError(t, store.RecordSuccess(cp, "T1"))
	require.NoError(t, store.RecordFailure(cp, "T2"))

	reloaded, err := store.Load("p2")
	require.NoError(t, err)
	assert.Equal(t, "T2", reloaded.LastItemID)
	assert.Equal(t, int64(2), reloaded.ProcessedCount)
	assert.Equal(t, int64(1), reloaded.SucceededCount)
	assert.Equal(t, int64(1), reloaded.FailedCount)
}
