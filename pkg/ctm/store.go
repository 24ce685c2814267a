package ctm

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arclinehq/arcline/pkg/errs"
)

// Store is the sole read/write path to the ctm and epics tables.
type Store struct {
	db *sql.DB
}

// New wraps an already-open, already-migrated *sql.DB.
func New(db *sql.DB) *Store { return &Store{db: db} }

// IncrementTitleCount upserts the (centroid, track, month) bucket and bumps
// title_count by delta, creating the row on first touch (§3 CTM lifecycle:
// "monotonically accumulates titles until frozen"). Frozen buckets still
// accept increments — freezing only gates narrative refresh eligibility.
func (s *Store) IncrementTitleCount(ctx context.Context, centroidID, track string, month time.Time, delta int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ctm (centroid_id, track, month, title_count)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (centroid_id, track, month)
		DO UPDATE SET title_count = ctm.title_count + EXCLUDED.title_count
	`, centroidID, track, MonthStart(month), delta)
	if err != nil {
		return errs.NewTransientError("ctm increment", err)
	}
	return nil
}

// Get loads a single bucket, returning (nil, nil) when it doesn't exist yet.
func (s *Store) Get(ctx context.Context, centroidID, track string, month time.Time) (*Bucket, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, centroid_id, track, month, title_count, is_frozen,
			COALESCE(summary_text, ''), event_count_at_summary, last_summary_at
		FROM ctm WHERE centroid_id = $1 AND track = $2 AND month = $3
	`, centroidID, track, MonthStart(month))

	b := &Bucket{}
	if err := row.Scan(&b.ID, &b.CentroidID, &b.Track, &b.Month, &b.TitleCount,
		&b.IsFrozen, &b.SummaryText, &b.EventCountAtSummary, &b.LastSummaryAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errs.NewTransientError("ctm get", err)
	}
	return b, nil
}

// GetByID loads a single bucket by its primary key, for callers (the
// on-demand extraction endpoint) that only have the bucket id and not its
// (centroid, track, month) key. Returns errs.ErrNotFound when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Bucket, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, centroid_id, track, month, title_count, is_frozen,
			COALESCE(summary_text, ''), event_count_at_summary, last_summary_at
		FROM ctm WHERE id = $1
	`, id)

	b := &Bucket{}
	if err := row.Scan(&b.ID, &b.CentroidID, &b.Track, &b.Month, &b.TitleCount,
		&b.IsFrozen, &b.SummaryText, &b.EventCountAtSummary, &b.LastSummaryAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, errs.ErrNotFound
		}
		return nil, errs.NewTransientError("ctm get by id", err)
	}
	return b, nil
}

// DueForRefresh reports whether a bucket's narrative needs (re)building:
// never summarized, or title_count has grown by at least refreshGrowth
// titles since the last summary and at least refreshMinHours have elapsed
// (§4.8 CTM/epic refresh eligibility).
func DueForRefresh(b *Bucket, refreshGrowth, refreshMinHours int) bool {
	if b.EventCountAtSummary == nil || b.LastSummaryAt == nil {
		return true
	}
	grown := b.TitleCount-*b.EventCountAtSummary >= refreshGrowth
	aged := time.Since(*b.LastSummaryAt) >= time.Duration(refreshMinHours)*time.Hour
	return grown && aged
}

// DueBuckets lists non-frozen buckets with at least minTitles titles, for
// the narrative stage driver to iterate (§4.8, §6 "narrative" CLI).
func (s *Store) DueBuckets(ctx context.Context, minTitles int) ([]*Bucket, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, centroid_id, track, month, title_count, is_frozen,
			COALESCE(summary_text, ''), event_count_at_summary, last_summary_at
		FROM ctm WHERE is_frozen = false AND title_count >= $1
		ORDER BY month DESC, title_count DESC
	`, minTitles)
	if err != nil {
		return nil, errs.NewTransientError("ctm due buckets", err)
	}
	defer rows.Close()

	var out []*Bucket
	for rows.Next() {
		b := &Bucket{}
		if err := rows.Scan(&b.ID, &b.CentroidID, &b.Track, &b.Month, &b.TitleCount,
			&b.IsFrozen, &b.SummaryText, &b.EventCountAtSummary, &b.LastSummaryAt); err != nil {
			return nil, errs.NewTransientError("ctm due buckets scan", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// RecordSummary stamps a bucket with its freshly (re)built narrative
// bookkeeping — the event_count_at_summary high-water mark and timestamp
// DueForRefresh compares against next time.
func (s *Store) RecordSummary(ctx context.Context, bucketID int64, summary string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE ctm SET summary_text = $2, event_count_at_summary = title_count, last_summary_at = now()
		WHERE id = $1
	`, bucketID, summary)
	if err != nil {
		return errs.NewTransientError("ctm record summary", err)
	}
	return nil
}

// Freeze marks a bucket closed to further narrative refresh (operator
// override via manual_checkpoints-style tooling, not driven by the
// pipeline itself).
func (s *Store) Freeze(ctx context.Context, bucketID int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE ctm SET is_frozen = true WHERE id = $1`, bucketID)
	if err != nil {
		return errs.NewTransientError("ctm freeze", err)
	}
	return nil
}

// efTagRow is the minimal projection of event_families the epic builder
// needs — it reads the table directly rather than through pkg/titlestore
// since this is a cross-cutting aggregation, not a per-EF mutation (§3
// Ownership leaves CTM/epic unassigned to any single component).
type efTagRow struct {
	id    string
	month time.Time
	tags  []string
}

// BuildEpics groups active Event Families created within month by shared
// tags: any two EFs sharing at least minSharedTags of their (at most 3)
// tags are folded into the same epic (GLOSSARY: "a cross-centroid grouping,
// built from tag co-occurrence across EFs in a month"). Existing epics for
// the month are replaced wholesale — this mirrors the delete-then-insert
// idempotency pattern pkg/narrative's store uses for narrative frames.
func (s *Store) BuildEpics(ctx context.Context, month time.Time, minSharedTags int) ([]*Epic, error) {
	monthStart := MonthStart(month)
	monthEnd := monthStart.AddDate(0, 1, 0)

	rows, err := s.db.QueryContext(ctx, `
		SELECT ef.id, ef.created_at, ef.tags
		FROM event_families ef
		WHERE ef.status = 'active' AND ef.created_at >= $1 AND ef.created_at < $2
	`, monthStart, monthEnd)
	if err != nil {
		return nil, errs.NewTransientError("epic source scan", err)
	}
	defer rows.Close()

	var efs []efTagRow
	for rows.Next() {
		var r efTagRow
		var tagsRaw []byte
		if err := rows.Scan(&r.id, &r.month, &tagsRaw); err != nil {
			return nil, errs.NewTransientError("epic source row scan", err)
		}
		_ = json.Unmarshal(tagsRaw, &r.tags)
		if len(r.tags) > 0 {
			efs = append(efs, r)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errs.NewTransientError("epic source rows", err)
	}

	groups := groupByTagOverlap(efs, minSharedTags)

	// Resolve each group's member EFs back to their centroids via the
	// event_families -> titles -> ef_id join isn't available directly
	// (centroid assignment lives on titles through titlestore), so epics
	// record the EF ids' shared tag as the label and leave centroid
	// resolution to the caller (efassembler/enrichment already knows the
	// centroid for each EF it touches).
	var epics []*Epic
	for i, g := range groups {
		epics = append(epics, &Epic{
			ID:    fmt.Sprintf("epic-%s-%d", monthStart.Format("2006-01"), i+1),
			Label: g.label,
			Month: monthStart,
		})
	}

	if err := s.replaceEpicsForMonth(ctx, monthStart, epics); err != nil {
		return nil, err
	}
	return epics, nil
}

type epicGroup struct {
	label string
	ids   []string
	tags  map[string]int
}

// groupByTagOverlap unions EFs whose tag sets intersect in at least
// minSharedTags entries using a simple union-find over tag membership.
func groupByTagOverlap(efs []efTagRow, minSharedTags int) []epicGroup {
	parent := make([]int, len(efs))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for i := 0; i < len(efs); i++ {
		seti := toSet(efs[i].tags)
		for j := i + 1; j < len(efs); j++ {
			setj := toSet(efs[j].tags)
			if sharedCount(seti, setj) >= minSharedTags {
				union(i, j)
			}
		}
	}

	byRoot := map[int]*epicGroup{}
	for i, ef := range efs {
		r := find(i)
		g, ok := byRoot[r]
		if !ok {
			g = &epicGroup{tags: map[string]int{}}
			byRoot[r] = g
		}
		g.ids = append(g.ids, ef.id)
		for _, t := range ef.tags {
			g.tags[t]++
		}
	}

	var out []epicGroup
	for _, g := range byRoot {
		if len(g.ids) < 2 {
			continue // an epic needs cross-EF co-occurrence, not a singleton
		}
		g.label = dominantTag(g.tags)
		out = append(out, *g)
	}
	return out
}

func toSet(tags []string) map[string]bool {
	m := make(map[string]bool, len(tags))
	for _, t := range tags {
		m[t] = true
	}
	return m
}

func sharedCount(a, b map[string]bool) int {
	n := 0
	for t := range a {
		if b[t] {
			n++
		}
	}
	return n
}

func dominantTag(counts map[string]int) string {
	best, bestN := "", 0
	for t, n := range counts {
		if n > bestN || (n == bestN && t < best) {
			best, bestN = t, n
		}
	}
	return best
}

func (s *Store) replaceEpicsForMonth(ctx context.Context, month time.Time, epics []*Epic) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.NewTransientError("epic replace begin", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM epics WHERE month = $1`, month); err != nil {
		return errs.NewTransientError("epic delete", err)
	}
	for _, e := range epics {
		ids, _ := json.Marshal(e.CentroidIDs)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO epics (id, label, month, centroid_ids) VALUES ($1, $2, $3, $4)
		`, e.ID, e.Label, month, ids); err != nil {
			return errs.NewTransientError("epic insert", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errs.NewTransientError("epic replace commit", err)
	}
	return nil
}

// ListEpics returns the epics on record for a given month.
func (s *Store) ListEpics(ctx context.Context, month time.Time) ([]*Epic, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, month, centroid_ids, created_at FROM epics WHERE month = $1 ORDER BY id
	`, MonthStart(month))
	if err != nil {
		return nil, errs.NewTransientError("epic list", err)
	}
	defer rows.Close()

	var out []*Epic
	for rows.Next() {
		e := &Epic{}
		var idsRaw []byte
		if err := rows.Scan(&e.ID, &e.Label, &e.Month, &idsRaw, &e.CreatedAt); err != nil {
			return nil, errs.NewTransientError("epic list scan", err)
		}
		_ = json.Unmarshal(idsRaw, &e.CentroidIDs)
		out = append(out, e)
	}
	return out, rows.Err()
}
