package connectivity

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/arclinehq/arcline/pkg/errs"
)

// Store is the sole read/write path to title_connectivity_cache (§3
// Ownership: "C3 exclusively owns pairwise connectivity rows").
type Store struct {
	db *sql.DB
}

// New wraps an already-open, already-migrated *sql.DB.
func New(db *sql.DB) *Store { return &Store{db: db} }

// ReplaceForTitles deletes every existing row touching any of titleIDs and
// bulk-inserts records in batches, all inside one transaction (§4.3 step 6:
// "full-refresh semantics... commit once").
func (s *Store) ReplaceForTitles(ctx context.Context, titleIDs []string, records []Record, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 1000
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.NewTransientError("connectivity.replace: begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	if len(titleIDs) > 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM title_connectivity_cache
			WHERE title_a = ANY($1) OR title_b = ANY($1)
		`, pq.Array(titleIDs)); err != nil {
			return errs.NewTransientError("connectivity.replace: delete", err)
		}
	}

	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := insertBatch(ctx, tx, records[start:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.NewTransientError("connectivity.replace: commit", err)
	}
	return nil
}

func insertBatch(ctx context.Context, tx *sql.Tx, batch []Record) error {
	if len(batch) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO title_connectivity_cache
		(title_a, title_b, entity_jaccard, actor_match, composite, shared_actor, updated_at)
		VALUES `)
	args := make([]any, 0, len(batch)*6)
	for i, r := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 6
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d,$%d,now())", base+1, base+2, base+3, base+4, base+5, base+6)
		var sharedActor any
		if r.SharedActor != "" {
			sharedActor = r.SharedActor
		}
		args = append(args, r.TitleA, r.TitleB, r.EntityJaccard, r.ActorMatch, r.Composite, sharedActor)
	}
	sb.WriteString(` ON CONFLICT (title_a, title_b) DO UPDATE SET
		entity_jaccard = EXCLUDED.entity_jaccard,
		actor_match = EXCLUDED.actor_match,
		composite = EXCLUDED.composite,
		shared_actor = EXCLUDED.shared_actor,
		updated_at = now()`)

	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		return errs.NewTransientError("connectivity.replace: insert batch", err)
	}
	return nil
}

// TopPairsFor returns the cached connectivity rows touching titleID,
// ordered by composite descending. No pipeline stage calls it; the P3
// assembler batches straight from C1's unassigned-strategic list.
func (s *Store) TopPairsFor(ctx context.Context, titleID string, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title_a, title_b, entity_jaccard, actor_match, composite, coalesce(shared_actor, '')
		FROM title_connectivity_cache
		WHERE title_a = $1 OR title_b = $1
		ORDER BY composite DESC
		LIMIT $2
	`, titleID, limit)
	if err != nil {
		return nil, errs.NewTransientError("connectivity.top_pairs_for", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.TitleA, &r.TitleB, &r.EntityJaccard, &r.ActorMatch, &r.Composite, &r.SharedActor); err != nil {
			return nil, errs.NewTransientError("connectivity.top_pairs_for: scan", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Count returns the total number of cached rows, used by tests (§8
// scenario 6) and operational dashboards.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM title_connectivity_cache`).Scan(&n); err != nil {
		return 0, errs.NewTransientError("connectivity.count", err)
	}
	return n, nil
}
