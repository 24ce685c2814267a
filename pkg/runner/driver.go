package runner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/arclinehq/arcline/pkg/config"
	"github.com/arclinehq/arcline/pkg/errs"
)

// Item is anything a Driver can process: it must expose a natural
// identifier for checkpointing (§3 Checkpoint, §4.9).
type Item interface {
	ItemID() string
}

// ProcessFunc is one item's unit of work. A TransientError triggers the
// runner's bounded exponential-backoff retry (§7); any other error marks
// the item failed and advances the checkpoint past it without retrying
// (§7 "Invariant violation on write").
type ProcessFunc[T Item] func(ctx context.Context, item T) error

// Driver runs a ProcessFunc over a batch of items with bounded
// concurrency, checkpointing after every item (§4.9, §5).
type Driver[T Item] struct {
	checkpoints *CheckpointStore
	phase       string
	cfg         *config.RunnerConfig
	log         *slog.Logger
}

// NewDriver wires a Driver for phase against the shared checkpoint store.
func NewDriver[T Item](checkpoints *CheckpointStore, phase string, cfg *config.RunnerConfig) *Driver[T] {
	return &Driver[T]{
		checkpoints: checkpoints,
		phase:       phase,
		cfg:         cfg,
		log:         slog.With("component", "runner", "phase", phase),
	}
}

// Summary reports what happened during one Driver.Run call.
type Summary struct {
	Processed int
	Succeeded int
	Failed    int
}

// Run processes items with up to StagePool items in flight at once,
// checkpointing after each (§4.9 step 4, §5 "a bounded semaphore" pool
// per stage). clearOnDrain, when true, clears the checkpoint file once
// every item in items has been processed (§4.9 step 5: "non-batch mode
// only"); batch-mode callers (capped by --limit) pass false and leave the
// checkpoint in place for the next invocation to resume from.
func (d *Driver[T]) Run(ctx context.Context, items []T, process ProcessFunc[T], clearOnDrain bool) (Summary, error) {
	cp, err := d.checkpoints.Load(d.phase)
	if err != nil {
		return Summary{}, err
	}

	poolSize := d.cfg.StagePool
	if poolSize <= 0 {
		poolSize = 8
	}
	sem := make(chan struct{}, poolSize)

	var (
		mu      sync.Mutex
		summary Summary
		cpMu    sync.Mutex
		wg      sync.WaitGroup
	)

	for _, item := range items {
		select {
		case <-ctx.Done():
			wg.Wait()
			return summary, ctx.Err()
		default:
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(item T) {
			defer wg.Done()
			defer func() { <-sem }()

			err := d.processWithRetry(ctx, item, process)

			cpMu.Lock()
			var cpErr error
			if err != nil {
				cpErr = d.checkpoints.RecordFailure(cp, item.ItemID())
			} else {
				cpErr = d.checkpoints.RecordSuccess(cp, item.ItemID())
			}
			cpMu.Unlock()
			if cpErr != nil {
				d.log.Error("checkpoint write failed", "item_id", item.ItemID(), "error", cpErr)
			}

			mu.Lock()
			summary.Processed++
			if err != nil {
				summary.Failed++
				d.log.Warn("item processing failed", "item_id", item.ItemID(), "error", err)
			} else {
				summary.Succeeded++
			}
			mu.Unlock()
		}(item)
	}
	wg.Wait()

	if clearOnDrain {
		if err := d.checkpoints.Clear(d.phase); err != nil {
			d.log.Warn("checkpoint clear failed after full drain", "error", err)
		}
	}
	return summary, nil
}

// processWithRetry retries TransientError failures with bounded
// exponential backoff (§7 "Transient infrastructure... retried by the
// runner (bounded, exponential backoff)"); any other error (validation,
// invariant violation, LLM malformed) is returned immediately without
// retry per §7's per-kind propagation policy.
func (d *Driver[T]) processWithRetry(ctx context.Context, item T, process ProcessFunc[T]) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 2 * time.Minute
	bo := backoff.WithContext(b, ctx)

	maxRetries := d.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	attempts := 0

	operation := func() error {
		attempts++
		err := process(ctx, item)
		if err == nil {
			return nil
		}
		if !errs.IsTransient(err) {
			return backoff.Permanent(err)
		}
		if attempts > maxRetries {
			return backoff.Permanent(err)
		}
		return err
	}

	err := backoff.Retry(operation, bo)
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Unwrap()
	}
	return err
}
