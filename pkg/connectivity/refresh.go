package connectivity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arclinehq/arcline/pkg/config"
	"github.com/arclinehq/arcline/pkg/errs"
	"github.com/arclinehq/arcline/pkg/graphindex"
	"github.com/arclinehq/arcline/pkg/titlestore"
)

// GraphReader is the subset of graphindex.Client the refresher needs —
// narrowed so tests can substitute an in-memory fake instead of a live
// Neo4j connection.
type GraphReader interface {
	UnassignedStrategicPairs(ctx context.Context, minShared, limit int) ([]graphindex.RawPair, error)
}

// Refresher runs the §4.3 refresh algorithm: cheap raw counts from the
// graph, Jaccard/actor-match scoring done here in the driver, batched
// upsert into Postgres.
type Refresher struct {
	graph  GraphReader
	titles *titlestore.Store
	cache  *Store
	cfg    *config.ConnectivityConfig
}

// NewRefresher wires a Refresher from its three collaborators plus tunables.
func NewRefresher(graph GraphReader, titles *titlestore.Store, cache *Store, cfg *config.ConnectivityConfig) *Refresher {
	return &Refresher{graph: graph, titles: titles, cache: cache, cfg: cfg}
}

// Result summarizes one refresh run.
type Result struct {
	CandidatePairs int
	WrittenRows    int
}

// Refresh executes the full §4.3 algorithm. It is a barrier for P3 readers
// only in the sense that the delete+insert happens in one transaction
// (§5: "Writers to C3 hold no locks visible to P3" — P3 may read a stale
// snapshot mid-refresh, which is acceptable).
func (r *Refresher) Refresh(ctx context.Context) (Result, error) {
	unassigned, err := r.titles.LoadUnassignedStrategic(ctx, 0, titlestore.OrderPublishedDesc)
	if err != nil {
		return Result{}, fmt.Errorf("connectivity refresh: load unassigned: %w", err)
	}

	byID := make(map[string]*titlestore.Title, len(unassigned))
	ids := make([]string, 0, len(unassigned))
	for _, t := range unassigned {
		byID[t.ID] = t
		ids = append(ids, t.ID)
	}

	pairs, err := r.graph.UnassignedStrategicPairs(ctx, r.cfg.MinSharedEntities, r.cfg.PairCap)
	if err != nil {
		// §7 "Graph unavailable: C3 refresh aborts the whole run (no
		// partial cache)".
		return Result{}, errs.NewTransientError("connectivity refresh: graph query", err)
	}

	records := make([]Record, 0, len(pairs))
	for _, p := range pairs {
		a, okA := byID[p.TitleA]
		b, okB := byID[p.TitleB]
		if !okA || !okB {
			// Title no longer unassigned (or no longer exists) — skip
			// (§4.3 step 3).
			continue
		}

		countA, countB := len(a.Entities), len(b.Entities)
		union := countA + countB - p.SharedCount
		if union <= 0 {
			continue
		}
		jaccard := float64(p.SharedCount) / float64(union)

		actorMatch, sharedActor := scoreActorMatch(a, b)

		composite := r.cfg.JaccardWeight*jaccard + r.cfg.ActorWeight*actorMatch
		if composite < r.cfg.CompositeThreshold {
			continue
		}

		records = append(records, Record{
			TitleA:        p.TitleA,
			TitleB:        p.TitleB,
			EntityJaccard: jaccard,
			ActorMatch:    actorMatch,
			Composite:     composite,
			SharedActor:   sharedActor,
		})
	}

	if err := r.cache.ReplaceForTitles(ctx, ids, records, r.cfg.WriteBatchSize); err != nil {
		return Result{}, fmt.Errorf("connectivity refresh: replace: %w", err)
	}

	slog.Info("connectivity cache refreshed",
		"unassigned_titles", len(unassigned),
		"candidate_pairs", len(pairs),
		"written_rows", len(records))

	return Result{CandidatePairs: len(pairs), WrittenRows: len(records)}, nil
}

// scoreActorMatch implements §4.3 step 4: 1.0 if normalized actors are
// equal, 0.8 if one is a substring of the other, else 0.
func scoreActorMatch(a, b *titlestore.Title) (score float64, sharedActor string) {
	actorA := primaryActor(a)
	actorB := primaryActor(b)
	if actorA == "" || actorB == "" {
		return 0, ""
	}

	na, nb := titlestore.NormalizeText(actorA), titlestore.NormalizeText(actorB)
	switch {
	case na == nb:
		return 1.0, actorA
	case strings.Contains(na, nb) || strings.Contains(nb, na):
		return 0.8, actorA
	default:
		return 0, ""
	}
}

// primaryActor returns the title's primary actor from its action triple,
// per §4.3 step 2.
func primaryActor(t *titlestore.Title) string {
	if t.ActionTriple == nil {
		return ""
	}
	return t.ActionTriple.Actor
}
