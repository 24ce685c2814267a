package narrative

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/arclinehq/arcline/pkg/errs"
)

// Store is the sole read/write path to the narratives table (§3, §4.8
// Aggregation, §6). It follows the delete-then-insert full-refresh shape
// `pkg/connectivity/store.go`'s ReplaceForTitles and `pkg/ctm/store.go`'s
// replaceEpicsForMonth use for C3's cache and pkg/ctm's epics table.
type Store struct {
	db *sql.DB
}

// NewStore wraps an already-open, already-migrated *sql.DB.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Replace atomically swaps every frame belonging to (entityType, entityID)
// for frames: delete the old set and insert the new set inside one
// transaction, so a reader never observes a mix of old and new frames
// (§3 "deleted-and-reinserted on refresh rather than updated in place";
// §8 "at no point are both the old and new sets visible").
func (s *Store) Replace(ctx context.Context, entityType EntityType, entityID string, frames []Frame) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.NewTransientError("narrative.replace: begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM narratives WHERE entity_type = $1 AND entity_id = $2
	`, string(entityType), entityID); err != nil {
		return errs.NewTransientError("narrative.replace: delete", err)
	}

	for _, f := range frames {
		topSources, err := json.Marshal(nonNilStats(f.TopSources))
		if err != nil {
			return &errs.InvariantViolationError{Invariant: "narrative.top_sources", Detail: err.Error()}
		}
		proportionalSources, err := json.Marshal(nonNilStats(f.ProportionalSources))
		if err != nil {
			return &errs.InvariantViolationError{Invariant: "narrative.proportional_sources", Detail: err.Error()}
		}
		topCountries, err := json.Marshal(nonNilStrings(f.TopCountries))
		if err != nil {
			return &errs.InvariantViolationError{Invariant: "narrative.top_countries", Detail: err.Error()}
		}
		sampleTitles, err := json.Marshal(nonNilStrings(f.SampleTitles))
		if err != nil {
			return &errs.InvariantViolationError{Invariant: "narrative.sample_titles", Detail: err.Error()}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO narratives
				(entity_type, entity_id, label, description, moral_frame, title_count,
				 top_sources, proportional_sources, top_countries, sample_titles, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
			ON CONFLICT (entity_id, label) DO UPDATE SET
				entity_type          = EXCLUDED.entity_type,
				description          = EXCLUDED.description,
				moral_frame          = EXCLUDED.moral_frame,
				title_count          = EXCLUDED.title_count,
				top_sources          = EXCLUDED.top_sources,
				proportional_sources = EXCLUDED.proportional_sources,
				top_countries        = EXCLUDED.top_countries,
				sample_titles        = EXCLUDED.sample_titles,
				created_at           = now()
		`, string(entityType), entityID, f.Label, f.Description, f.MoralFrame, f.TitleCount,
			topSources, proportionalSources, topCountries, sampleTitles); err != nil {
			return errs.NewTransientError(fmt.Sprintf("narrative.replace: insert frame %q", f.Label), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.NewTransientError("narrative.replace: commit", err)
	}
	return nil
}

// ListForEntity returns every frame currently stored for (entityType,
// entityID), most recently created first.
func (s *Store) ListForEntity(ctx context.Context, entityType EntityType, entityID string) ([]Frame, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entity_type, entity_id, label, description, moral_frame, title_count,
		       top_sources, proportional_sources, top_countries, sample_titles, created_at
		FROM narratives
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC, id DESC
	`, string(entityType), entityID)
	if err != nil {
		return nil, errs.NewTransientError("narrative.list_for_entity", err)
	}
	defer rows.Close()
	return scanFrames(rows)
}

// ListForEntities batches ListForEntity over many entity IDs of the same
// type in one round trip.
func (s *Store) ListForEntities(ctx context.Context, entityType EntityType, entityIDs []string) (map[string][]Frame, error) {
	out := make(map[string][]Frame, len(entityIDs))
	if len(entityIDs) == 0 {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entity_type, entity_id, label, description, moral_frame, title_count,
		       top_sources, proportional_sources, top_countries, sample_titles, created_at
		FROM narratives
		WHERE entity_type = $1 AND entity_id = ANY($2)
		ORDER BY entity_id, created_at DESC, id DESC
	`, string(entityType), pq.Array(entityIDs))
	if err != nil {
		return nil, errs.NewTransientError("narrative.list_for_entities", err)
	}
	defer rows.Close()

	frames, err := scanFrames(rows)
	if err != nil {
		return nil, err
	}
	for _, f := range frames {
		out[f.EntityID] = append(out[f.EntityID], f)
	}
	return out, nil
}

func scanFrames(rows *sql.Rows) ([]Frame, error) {
	var out []Frame
	for rows.Next() {
		var (
			f                                                            Frame
			entityType                                                   string
			topSources, proportionalSources, topCountries, sampleTitles []byte
		)
		if err := rows.Scan(&f.ID, &entityType, &f.EntityID, &f.Label, &f.Description, &f.MoralFrame,
			&f.TitleCount, &topSources, &proportionalSources, &topCountries, &sampleTitles, &f.CreatedAt); err != nil {
			return nil, errs.NewTransientError("narrative: scan frame", err)
		}
		f.EntityType = EntityType(entityType)
		if err := json.Unmarshal(topSources, &f.TopSources); err != nil {
			return nil, &errs.InvariantViolationError{Invariant: "narrative.top_sources", Detail: err.Error()}
		}
		if err := json.Unmarshal(proportionalSources, &f.ProportionalSources); err != nil {
			return nil, &errs.InvariantViolationError{Invariant: "narrative.proportional_sources", Detail: err.Error()}
		}
		if err := json.Unmarshal(topCountries, &f.TopCountries); err != nil {
			return nil, &errs.InvariantViolationError{Invariant: "narrative.top_countries", Detail: err.Error()}
		}
		if err := json.Unmarshal(sampleTitles, &f.SampleTitles); err != nil {
			return nil, &errs.InvariantViolationError{Invariant: "narrative.sample_titles", Detail: err.Error()}
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func nonNilStats(s []SourceStat) []SourceStat {
	if s == nil {
		return []SourceStat{}
	}
	return s
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
