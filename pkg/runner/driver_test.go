package runner_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arclinehq/arcline/pkg/config"
	"github.com/arclinehq/arcline/pkg/errs"
	"github.com/arclinehq/arcline/pkg/runner"
)

type testItem string

func (t testItem) ItemID() string { return string(t) }

func TestDriverRunProcessesEveryItemAndCheckpoints(t *testing.T) {
	store, err := runner.NewCheckpointStore(t.TempDir())
	require.NoError(t, err)
	driver := runner.NewDriver[testItem](store, "test-phase", &config.RunnerConfig{StagePool: 4, MaxRetries: 1})

	var processed int64
	items := []testItem{"A", "B", "C", "D", "E"}

	summary, err := driver.Run(context.Background(), items, func(_ context.Context, _ testItem) error {
		atomic.AddInt64(&processed, 1)
		return nil
	}, true)

	require.NoError(t, err)
	assert.EqualValues(t, 5, processed)
	assert.Equal(t, 5, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)

	cp, err := store.Load("test-phase")
	require.NoError(t, err)
	assert.Equal(t, int64(0), cp.ProcessedCount) // cleared on full drain
}

func TestDriverRunRetriesTransientThenSucceeds(t *testing.T) {
	store, err := runner.NewCheckpointStore(t.TempDir())
	require.NoError(t, err)
	driver := runner.NewDriver[testItem](store, "retry-phase", &config.RunnerConfig{StagePool: 1, MaxRetries: 3})

	var calls int64
	items := []testItem{"A"}

	summary, err := driver.Run(context.Background(), items, func(_ context.Context, _ testItem) error {
		n := atomic.AddInt64(&calls, 1)
		if n < 2 {
			return errs.NewTransientError("flaky", errors.New("temporary"))
		}
		return nil
	}, false)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.GreaterOrEqual(t, calls, int64(2))
}

func TestDriverRunDoesNotRetryNonTransientErrors(t *testing.T) {
	store, err := runner.NewCheckpointStore(t.TempDir())
	require.NoError(t, err)
	driver := runner.NewDriver[testItem](store, "novretry-phase", &config.RunnerConfig{StagePool: 1, MaxRetries: 3})

	var calls int64
	items := []testItem{"A"}

	summary, err := driver.Run(context.Background(), items, func(_ context.Context, _ testItem) error {
		atomic.AddInt64(&calls, 1)
		return errs.NewValidationError("field", errors.New("bad"))
	}, false)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.EqualValues(t, 1, calls)

	cp, err := store.Load("novretry-phase")
	require.NoError(t, err)
	assert.Equal(t, int64(1), cp.FailedCount) // checkpoint still advances past it (§7)
}
