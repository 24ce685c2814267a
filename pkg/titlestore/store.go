package titlestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/arclinehq/arcline/pkg/errs"
)

// Store is the sole read/write path to the titles and event_families
// tables (§3 Ownership: "C1 exclusively owns Title and EF records").
type Store struct {
	db *sql.DB
}

// New wraps an already-open, already-migrated *sql.DB.
func New(db *sql.DB) *Store { return &Store{db: db} }

// UpsertTitle inserts or updates a title by identifier. Fails with
// ConflictingImmutableFieldError if an already-set immutable field
// (entities, action triple) would change (§4.1).
func (s *Store) UpsertTitle(ctx context.Context, t *Title) error {
	existing, err := s.GetTitle(ctx, t.ID)
	if err != nil && !isNotFound(err) {
		return errs.NewTransientError("upsert_title: load existing", err)
	}
	if existing != nil {
		if err := checkImmutable(existing, t); err != nil {
			return err
		}
	}

	entities, err := json.Marshal(t.Entities)
	if err != nil {
		return fmt.Errorf("marshal entities: %w", err)
	}
	actors, err := json.Marshal(t.Actors)
	if err != nil {
		return fmt.Errorf("marshal actors: %w", err)
	}

	var actionActor, actionVerb, actionTarget *string
	if t.ActionTriple != nil {
		if t.ActionTriple.Actor != "" {
			actionActor = &t.ActionTriple.Actor
		}
		actionVerb = &t.ActionTriple.Action
		if t.ActionTriple.Target != "" {
			actionTarget = &t.ActionTriple.Target
		}
	}

	if t.Verdict == "" {
		t.Verdict = VerdictUnfiltered
	}
	if t.ProcessingStatus == "" {
		t.ProcessingStatus = StatusPending
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO titles (
			id, display_text, normalized_text, publisher, published_at,
			language, iso_country, verdict, verdict_reason, actors, entities,
			action_actor, action_verb, action_target, processing_status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (id) DO UPDATE SET
			display_text = EXCLUDED.display_text,
			normalized_text = EXCLUDED.normalized_text,
			publisher = EXCLUDED.publisher,
			published_at = EXCLUDED.published_at,
			language = EXCLUDED.language,
			iso_country = EXCLUDED.iso_country,
			updated_at = now()
	`,
		t.ID, t.DisplayText, t.NormalizedText, t.Publisher, t.PublishedAt,
		t.Language, t.ISOCountry, string(t.Verdict), t.VerdictReason, actors, entities,
		actionActor, actionVerb, actionTarget, string(t.ProcessingStatus),
	)
	if err != nil {
		return errs.NewTransientError("upsert_title", err)
	}
	return nil
}

// checkImmutable enforces that entities/action-triple, once set, never
// silently change on a later upsert (§3 Title Invariants).
func checkImmutable(existing, incoming *Title) error {
	if len(existing.Entities) > 0 && len(incoming.Entities) > 0 && !sameEntities(existing.Entities, incoming.Entities) {
		return &errs.ConflictingImmutableFieldError{TitleID: existing.ID, Field: "entities"}
	}
	if existing.ActionTriple != nil && incoming.ActionTriple != nil && *existing.ActionTriple != *incoming.ActionTriple {
		return &errs.ConflictingImmutableFieldError{TitleID: existing.ID, Field: "action_triple"}
	}
	return nil
}

func sameEntities(a, b []Entity) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[Entity]bool, len(a))
	for _, e := range a {
		seen[e] = true
	}
	for _, e := range b {
		if !seen[e] {
			return false
		}
	}
	return true
}

// MarkVerdict atomically sets all P2 outputs for a title. Preconditions:
// current verdict is unfiltered (§4.1).
func (s *Store) MarkVerdict(ctx context.Context, id string, verdict Verdict, reason string, entities []Entity, triple *ActionTriple) error {
	entitiesJSON, err := json.Marshal(entities)
	if err != nil {
		return fmt.Errorf("marshal entities: %w", err)
	}

	var actionActor, actionVerb, actionTarget *string
	if triple != nil {
		if triple.Actor != "" {
			actionActor = &triple.Actor
		}
		actionVerb = &triple.Action
		if triple.Target != "" {
			actionTarget = &triple.Target
		}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE titles SET
			verdict = $2, verdict_reason = $3, entities = $4,
			action_actor = $5, action_verb = $6, action_target = $7,
			processing_status = 'filtered', updated_at = now()
		WHERE id = $1 AND verdict = 'unfiltered'
	`, id, string(verdict), reason, entitiesJSON, actionActor, actionVerb, actionTarget)
	if err != nil {
		return errs.NewTransientError("mark_verdict", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errs.NewTransientError("mark_verdict: rows affected", err)
	}
	if n == 0 {
		return &errs.InvariantViolationError{
			Invariant: "verdict-set-once",
			Detail:    fmt.Sprintf("title %s: verdict already set or not found", id),
		}
	}
	return nil
}

// AssignResult is the per-title outcome of a batch assign_to_ef call.
type AssignResult struct {
	TitleID string
	OK      bool
	Err     error
}

// AssignToEF batch-assigns titles to an Event Family. Fails per-title if the
// title's current EF reference is non-null (§4.1); returns the count
// assigned along with a per-title result list for callers that need to know
// which ids were dropped.
func (s *Store) AssignToEF(ctx context.Context, titleIDs []string, efID string, confidence float64, rationale string) (int, []AssignResult, error) {
	results := make([]AssignResult, 0, len(titleIDs))
	assigned := 0

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, errs.NewTransientError("assign_to_ef: begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range titleIDs {
		res, err := tx.ExecContext(ctx, `
			UPDATE titles SET
				ef_id = $2, assignment_confidence = $3, assignment_rationale = $4,
				processing_status = 'assigned', updated_at = now()
			WHERE id = $1 AND ef_id IS NULL AND verdict = 'strategic'
		`, id, efID, confidence, rationale)
		if err != nil {
			results = append(results, AssignResult{TitleID: id, Err: err})
			continue
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			results = append(results, AssignResult{TitleID: id, Err: fmt.Errorf("title %s already assigned or not strategic", id)})
			continue
		}
		results = append(results, AssignResult{TitleID: id, OK: true})
		assigned++
	}

	if err := s.refreshSourceTitleIDs(ctx, tx, efID); err != nil {
		return 0, nil, err
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, errs.NewTransientError("assign_to_ef: commit", err)
	}
	return assigned, results, nil
}

// refreshSourceTitleIDs recomputes the EF's denormalized source_title_ids
// cache from the titles that actually reference it (§9: titles own the
// edge, source_title_ids is a derived convenience cache).
func (s *Store) refreshSourceTitleIDs(ctx context.Context, tx *sql.Tx, efID string) error {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM titles WHERE ef_id = $1 ORDER BY published_at DESC`, efID)
	if err != nil {
		return errs.NewTransientError("refresh_source_title_ids: query", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return errs.NewTransientError("refresh_source_title_ids: scan", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return errs.NewTransientError("refresh_source_title_ids: rows", err)
	}

	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal source_title_ids: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE event_families SET source_title_ids = $2, updated_at = now() WHERE id = $1`, efID, idsJSON); err != nil {
		return errs.NewTransientError("refresh_source_title_ids: update", err)
	}
	return nil
}

// LoadOrder controls LoadUnassignedStrategic's ordering.
type LoadOrder int

const (
	OrderPublishedDesc LoadOrder = iota
	OrderPublishedAsc
)

// LoadUnassignedStrategic returns titles with verdict=strategic and no EF,
// ordered by publication descending by default (§4.1).
func (s *Store) LoadUnassignedStrategic(ctx context.Context, limit int, order LoadOrder) ([]*Title, error) {
	dir := "DESC"
	if order == OrderPublishedAsc {
		dir = "ASC"
	}
	query := fmt.Sprintf(`
		SELECT id, display_text, normalized_text, publisher, published_at, language,
			iso_country, verdict, verdict_reason, actors, entities,
			action_actor, action_verb, action_target, ef_id,
			assignment_confidence, assignment_rationale, processing_status,
			created_at, updated_at
		FROM titles
		WHERE verdict = 'strategic' AND ef_id IS NULL
		ORDER BY published_at %s
	`, dir)
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.NewTransientError("load_unassigned_strategic", err)
	}
	defer rows.Close()

	var out []*Title
	for rows.Next() {
		t, err := scanTitle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListUnfiltered returns titles still awaiting a P2 verdict, oldest first,
// for cmd/strategicfilter's batch driver to evaluate (§4.1's backlog is the
// complement of LoadUnassignedStrategic's already-classified set).
func (s *Store) ListUnfiltered(ctx context.Context, limit int) ([]*Title, error) {
	query := `
		SELECT id, display_text, normalized_text, publisher, published_at, language,
			iso_country, verdict, verdict_reason, actors, entities,
			action_actor, action_verb, action_target, ef_id,
			assignment_confidence, assignment_rationale, processing_status,
			created_at, updated_at
		FROM titles
		WHERE verdict = 'unfiltered'
		ORDER BY published_at ASC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.NewTransientError("list_unfiltered", err)
	}
	defer rows.Close()

	var out []*Title
	for rows.Next() {
		t, err := scanTitle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTitle loads a single title by id. Returns errs.ErrNotFound if absent.
func (s *Store) GetTitle(ctx context.Context, id string) (*Title, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, display_text, normalized_text, publisher, published_at, language,
			iso_country, verdict, verdict_reason, actors, entities,
			action_actor, action_verb, action_target, ef_id,
			assignment_confidence, assignment_rationale, processing_status,
			created_at, updated_at
		FROM titles WHERE id = $1
	`, id)
	t, err := scanTitle(row)
	if err == sql.ErrNoRows {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, errs.NewTransientError("get_title", err)
	}
	return t, nil
}

// GetTitlesByIDs loads titles in bulk, order unspecified — callers that
// need a particular order re-sort after the fact.
func (s *Store) GetTitlesByIDs(ctx context.Context, ids []string) ([]*Title, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, display_text, normalized_text, publisher, published_at, language,
			iso_country, verdict, verdict_reason, actors, entities,
			action_actor, action_verb, action_target, ef_id,
			assignment_confidence, assignment_rationale, processing_status,
			created_at, updated_at
		FROM titles WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, errs.NewTransientError("get_titles_by_ids", err)
	}
	defer rows.Close()

	var out []*Title
	for rows.Next() {
		t, err := scanTitle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTitle(row scanner) (*Title, error) {
	var t Title
	var verdict, status string
	var entitiesRaw, actorsRaw []byte
	var actionActor, actionVerb, actionTarget sql.NullString
	var efID, assignmentRationale sql.NullString
	var assignmentConfidence sql.NullFloat64

	if err := row.Scan(
		&t.ID, &t.DisplayText, &t.NormalizedText, &t.Publisher, &t.PublishedAt, &t.Language,
		&t.ISOCountry, &verdict, &t.VerdictReason, &actorsRaw, &entitiesRaw,
		&actionActor, &actionVerb, &actionTarget, &efID,
		&assignmentConfidence, &assignmentRationale, &status,
		&t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}

	t.Verdict = Verdict(verdict)
	t.ProcessingStatus = ProcessingStatus(status)
	if len(entitiesRaw) > 0 {
		_ = json.Unmarshal(entitiesRaw, &t.Entities)
	}
	if len(actorsRaw) > 0 {
		_ = json.Unmarshal(actorsRaw, &t.Actors)
	}
	if actionVerb.Valid && actionVerb.String != "" {
		t.ActionTriple = &ActionTriple{Action: actionVerb.String}
		if actionActor.Valid {
			t.ActionTriple.Actor = actionActor.String
		}
		if actionTarget.Valid {
			t.ActionTriple.Target = actionTarget.String
		}
	}
	if efID.Valid {
		v := efID.String
		t.EFID = &v
	}
	if assignmentConfidence.Valid {
		v := assignmentConfidence.Float64
		t.AssignmentConfidence = &v
	}
	if assignmentRationale.Valid {
		v := assignmentRationale.String
		t.AssignmentRationale = &v
	}
	return &t, nil
}

func isNotFound(err error) bool {
	return err == errs.ErrNotFound
}

// --- Event Family access (C1 also exclusively owns EF records, §3) ---

// CreateEF inserts a new Event Family with status=seed (§4.5 step 5).
func (s *Store) CreateEF(ctx context.Context, ef *EventFamily) error {
	keyActors, err := json.Marshal(ef.KeyActors)
	if err != nil {
		return fmt.Errorf("marshal key_actors: %w", err)
	}
	sourceIDs, err := json.Marshal(ef.SourceTitleIDs)
	if err != nil {
		return fmt.Errorf("marshal source_title_ids: %w", err)
	}
	tags, err := json.Marshal(ef.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	if ef.Status == "" {
		ef.Status = EFStatusSeed
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO event_families (
			id, title, summary, key_actors, event_type, primary_theater,
			event_start, event_end, source_title_ids, confidence,
			coherence_rationale, status, tags
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (id) DO NOTHING
	`, ef.ID, ef.Title, ef.Summary, keyActors, ef.EventType, ef.PrimaryTheater,
		ef.EventStart, ef.EventEnd, sourceIDs, ef.Confidence,
		ef.CoherenceRationale, string(ef.Status), tags)
	if err != nil {
		return errs.NewTransientError("create_ef", err)
	}
	return nil
}

// GetEF loads a single EF by id.
func (s *Store) GetEF(ctx context.Context, id string) (*EventFamily, error) {
	row := s.db.QueryRowContext(ctx, efSelectColumns+` FROM event_families WHERE id = $1`, id)
	ef, err := scanEF(row)
	if err == sql.ErrNoRows {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, errs.NewTransientError("get_ef", err)
	}
	return ef, nil
}

const efSelectColumns = `
	SELECT id, title, summary, key_actors, event_type, primary_theater,
		event_start, event_end, source_title_ids, confidence,
		coherence_rationale, status, tags, ef_context, enrichment_payload,
		created_at, updated_at
`

func scanEF(row scanner) (*EventFamily, error) {
	var ef EventFamily
	var status string
	var keyActorsRaw, sourceIDsRaw, tagsRaw, ctxRaw, enrichRaw []byte

	if err := row.Scan(
		&ef.ID, &ef.Title, &ef.Summary, &keyActorsRaw, &ef.EventType, &ef.PrimaryTheater,
		&ef.EventStart, &ef.EventEnd, &sourceIDsRaw, &ef.Confidence,
		&ef.CoherenceRationale, &status, &tagsRaw, &ctxRaw, &enrichRaw,
		&ef.CreatedAt, &ef.UpdatedAt,
	); err != nil {
		return nil, err
	}
	ef.Status = EFStatus(status)
	_ = json.Unmarshal(keyActorsRaw, &ef.KeyActors)
	_ = json.Unmarshal(sourceIDsRaw, &ef.SourceTitleIDs)
	_ = json.Unmarshal(tagsRaw, &ef.Tags)
	if len(ctxRaw) > 2 { // not "{}"
		var c EFContext
		if err := json.Unmarshal(ctxRaw, &c); err == nil {
			ef.EFContext = &c
		}
	}
	if len(enrichRaw) > 2 {
		var p EnrichmentPayload
		if err := json.Unmarshal(enrichRaw, &p); err == nil {
			ef.Enrichment = &p
		}
	}
	return &ef, nil
}

// ListEFsForEnrichment returns all EFs with status=seed, a candidate pool
// for C6's prioritization function (§4.6).
func (s *Store) ListEFsForEnrichment(ctx context.Context) ([]*EventFamily, error) {
	rows, err := s.db.QueryContext(ctx, efSelectColumns+` FROM event_families WHERE status = 'seed' ORDER BY created_at ASC`)
	if err != nil {
		return nil, errs.NewTransientError("list_efs_for_enrichment", err)
	}
	defer rows.Close()

	var out []*EventFamily
	for rows.Next() {
		ef, err := scanEF(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ef)
	}
	return out, rows.Err()
}

// ListEFsForBucket returns active EFs whose C6 Step C macro_link matches
// centroidID, whose event_type matches track (the CTM "track tag"), and
// whose created_at falls within [monthStart, monthEnd) (§3 CTM, §4.6 Step
// C). Used by C8 to assemble a CTM bucket's member titles.
func (s *Store) ListEFsForBucket(ctx context.Context, centroidID, track string, monthStart, monthEnd time.Time) ([]*EventFamily, error) {
	rows, err := s.db.QueryContext(ctx, efSelectColumns+`
		FROM event_families
		WHERE status = 'active'
			AND event_type = $1
			AND created_at >= $2 AND created_at < $3
			AND ef_context->>'macro_link' = $4
		ORDER BY created_at ASC
	`, track, monthStart, monthEnd, centroidID)
	if err != nil {
		return nil, errs.NewTransientError("list_efs_for_bucket", err)
	}
	defer rows.Close()

	var out []*EventFamily
	for rows.Next() {
		ef, err := scanEF(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ef)
	}
	return out, rows.Err()
}

// ListEFsByIDs loads EFs in bulk by id, order unspecified. No stage or
// handler calls it.
func (s *Store) ListEFsByIDs(ctx context.Context, ids []string) ([]*EventFamily, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, efSelectColumns+` FROM event_families WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, errs.NewTransientError("list_efs_by_ids", err)
	}
	defer rows.Close()

	var out []*EventFamily
	for rows.Next() {
		ef, err := scanEF(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ef)
	}
	return out, rows.Err()
}

// CountTitlesForEF returns the number of titles currently referencing ef,
// used by C8's boundary checks (>=5 for on-demand event extraction, §8).
func (s *Store) CountTitlesForEF(ctx context.Context, efID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM titles WHERE ef_id = $1`, efID).Scan(&n); err != nil {
		return 0, errs.NewTransientError("count_titles_for_ef", err)
	}
	return n, nil
}

// ListTitlesForEF loads the member titles of an EF, newest first.
func (s *Store) ListTitlesForEF(ctx context.Context, efID string, limit int) ([]*Title, error) {
	query := `
		SELECT id, display_text, normalized_text, publisher, published_at, language,
			iso_country, verdict, verdict_reason, actors, entities,
			action_actor, action_verb, action_target, ef_id,
			assignment_confidence, assignment_rationale, processing_status,
			created_at, updated_at
		FROM titles WHERE ef_id = $1 ORDER BY published_at DESC
	`
	args := []any{efID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.NewTransientError("list_titles_for_ef", err)
	}
	defer rows.Close()

	var out []*Title
	for rows.Next() {
		t, err := scanTitle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateEnrichment persists C6's final output and transitions status
// seed->active (§4.6 Step E).
func (s *Store) UpdateEnrichment(ctx context.Context, efID string, summary string, tags []string, efCtx *EFContext, payload *EnrichmentPayload) error {
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	if len(tags) != 3 {
		return errs.NewValidationError("tags", fmt.Errorf("expected exactly 3 tags, got %d", len(tags)))
	}
	if efCtx != nil && len(efCtx.Comparables) > 3 {
		return errs.NewValidationError("ef_context.comparables", fmt.Errorf("at most 3 comparables, got %d", len(efCtx.Comparables)))
	}
	if payload != nil {
		if len(payload.Magnitudes) > 3 {
			return errs.NewValidationError("enrichment.magnitudes", fmt.Errorf("at most 3 magnitudes, got %d", len(payload.Magnitudes)))
		}
		if len(payload.OfficialSources) > 2 {
			return errs.NewValidationError("enrichment.official_sources", fmt.Errorf("at most 2 official_sources, got %d", len(payload.OfficialSources)))
		}
	}

	ctxJSON, err := marshalOrEmptyObject(efCtx)
	if err != nil {
		return err
	}
	payloadJSON, err := marshalOrEmptyObject(payload)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE event_families SET
			summary = $2, tags = $3, ef_context = $4, enrichment_payload = $5,
			status = 'active', updated_at = now()
		WHERE id = $1
	`, efID, summary, tagsJSON, ctxJSON, payloadJSON)
	if err != nil {
		return errs.NewTransientError("update_enrichment", err)
	}
	return nil
}

func marshalOrEmptyObject(v any) ([]byte, error) {
	if v == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	return b, nil
}

// NormalizeText lowercases and collapses whitespace, the shared input to P2
// mechanical rules and C3 actor-match comparisons (§4.4, §4.3).
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// TitlesAge returns how many days ago publishedAt was. Nothing calls it;
// C6's prioritization computes its own day count from the EF's created_at.
func TitlesAge(publishedAt time.Time) float64 {
	return time.Since(publishedAt).Hours() / 24
}
