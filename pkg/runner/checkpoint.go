// Package runner implements the Pipeline Runner & Checkpoints (C9): a
// stage driver that pulls work, bounds concurrency, updates a per-stage
// checkpoint after every item, and retries transient failures with
// backoff (§4.9). Checkpoint persistence follows the teacher's
// write-to-temp-then-rename atomicity discipline
// (`pkg/database/migrations.go`'s transactional-apply style, generalized
// here to files per §9's "on-disk checkpoint JSON per phase").
package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Checkpoint is a stage's resumable cursor (§3 Checkpoint, §4.9).
type Checkpoint struct {
	Phase          string    `json:"phase"`
	LastItemID     string    `json:"last_item_id"`
	ProcessedCount int64     `json:"processed_count"`
	SucceededCount int64     `json:"succeeded_count"`
	FailedCount    int64     `json:"failed_count"`
	LastRunAt      time.Time `json:"last_run_at"`
}

// CheckpointStore reads and atomically writes per-phase checkpoint files
// under a configured directory (§6 "logs/checkpoints/<phase>.json").
type CheckpointStore struct {
	dir string
}

// NewCheckpointStore builds a CheckpointStore rooted at dir, creating it if
// it doesn't already exist.
func NewCheckpointStore(dir string) (*CheckpointStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("runner: create checkpoint dir: %w", err)
	}
	return &CheckpointStore{dir: dir}, nil
}

func (s *CheckpointStore) path(phase string) string {
	return filepath.Join(s.dir, phase+".json")
}

// Load returns the checkpoint for phase, or a fresh zero-value Checkpoint
// if no file exists yet (a stage's first run).
func (s *CheckpointStore) Load(phase string) (*Checkpoint, error) {
	raw, err := os.ReadFile(s.path(phase))
	if os.IsNotExist(err) {
		return &Checkpoint{Phase: phase}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("runner: read checkpoint %s: %w", phase, err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, fmt.Errorf("runner: parse checkpoint %s: %w", phase, err)
	}
	return &cp, nil
}

// Save writes cp atomically: write to a temp file in the same directory,
// then rename over the target (§3, §4.9, §6 — the rename is what makes a
// crash mid-write never leave a half-written checkpoint visible).
func (s *CheckpointStore) Save(cp *Checkpoint) error {
	raw, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("runner: marshal checkpoint %s: %w", cp.Phase, err)
	}

	target := s.path(cp.Phase)
	tmp, err := os.CreateTemp(s.dir, cp.Phase+".*.tmp")
	if err != nil {
		return fmt.Errorf("runner: create temp checkpoint: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("runner: write temp checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("runner: close temp checkpoint: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("runner: rename checkpoint into place: %w", err)
	}
	return nil
}

// Clear removes a phase's checkpoint file (§4.9 step 5: "on successful
// full drain (non-batch mode only), clears the checkpoint").
func (s *CheckpointStore) Clear(phase string) error {
	if err := os.Remove(s.path(phase)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("runner: clear checkpoint %s: %w", phase, err)
	}
	return nil
}

// RecordSuccess advances cp past one successfully processed item and
// persists it immediately (§4.9 step 4: "after every single item").
func (s *CheckpointStore) RecordSuccess(cp *Checkpoint, itemID string) error {
	cp.LastItemID = itemID
	cp.ProcessedCount++
	cp.SucceededCount++
	cp.LastRunAt = time.Now()
	return s.Save(cp)
}

// RecordFailure advances cp past a failed-but-skipped item (§7 "the
// checkpoint still advances past it" for invariant-violation drops).
func (s *CheckpointStore) RecordFailure(cp *Checkpoint, itemID string) error {
	cp.LastItemID = itemID
	cp.ProcessedCount++
	cp.FailedCount++
	cp.LastRunAt = time.Now()
	return s.Save(cp)
}
