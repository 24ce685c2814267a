package strategicfilter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arclinehq/arcline/pkg/config"
	"github.com/arclinehq/arcline/pkg/graphindex"
	"github.com/arclinehq/arcline/pkg/titlestore"
)

// GraphNeighbors is the subset of graphindex.Client Stage 2 needs —
// narrowed so tests substitute a fake instead of a live Neo4j connection.
type GraphNeighbors interface {
	StrategicNeighbors(ctx context.Context, titleID string, minShared, days int) ([]graphindex.StrategicNeighbor, error)
}

// Filter runs the §4.4 three-stage decision over a single title. Stateless
// beyond its configuration — all per-title state is passed in.
type Filter struct {
	cfg        *config.FilterConfig
	graph      GraphNeighbors
	graphDays  int
	log        *slog.Logger
}

// New builds a Filter from its tunables. graphWindow is parsed once at
// construction (§9: immutable config loaded once at startup, not kwarg soup).
func New(cfg *config.FilterConfig, graph GraphNeighbors) *Filter {
	days := 2
	if cfg.GraphWindow != "" {
		if d, err := time.ParseDuration(cfg.GraphWindow); err == nil {
			days = int(d.Hours() / 24)
			if days < 1 {
				days = 1
			}
		}
	}
	return &Filter{
		cfg:       cfg,
		graph:     graph,
		graphDays: days,
		log:       slog.With("component", "strategicfilter"),
	}
}

// Evaluate runs the three stages over t and returns the verdict. It never
// returns an error for Stage 2 failures — those demote to Stage 3 per §4.4
// ("a Stage-2 error is logged and treated as 'no boost'; it never poisons
// the verdict").
func (f *Filter) Evaluate(ctx context.Context, t *titlestore.Title) Verdict {
	if v, ok := f.stage1(t); ok {
		return v
	}
	if v, ok := f.stage2(ctx, t); ok {
		return v
	}
	return Verdict{Keep: false, Reason: reasonNoStrategicSig}
}

// stage1 applies the mechanical rules: actor allow-list, then stop-list,
// then keyword heuristics. Returns ok=false for "borderline" (§4.4).
func (f *Filter) stage1(t *titlestore.Title) (Verdict, bool) {
	normalized := t.NormalizedText
	if normalized == "" {
		normalized = titlestore.NormalizeText(t.DisplayText)
	}

	if actor, ok := matchAny(normalized, f.cfg.ActorAllowList); ok {
		return Verdict{Keep: true, Reason: fmt.Sprintf("%s: %s", reasonActorAllowed, actor)}, true
	}
	if _, ok := matchAny(normalized, f.cfg.StopList); ok {
		return Verdict{Keep: false, Reason: reasonBlockedByStop}, true
	}
	if kw, ok := matchAny(normalized, f.cfg.KeywordHeuristics); ok {
		return Verdict{Keep: true, Reason: fmt.Sprintf("%s: %s", reasonKeywordMatch, kw)}, true
	}
	return Verdict{}, false
}

// stage2 asks C2 for strategic neighbors, but only when borderline AND the
// title has at least 2 extracted entities (§4.4). Graph errors demote to
// Stage 3 rather than propagating.
func (f *Filter) stage2(ctx context.Context, t *titlestore.Title) (Verdict, bool) {
	if len(t.Entities) < 2 {
		return Verdict{}, false
	}

	neighbors, err := f.graph.StrategicNeighbors(ctx, t.ID, f.cfg.GraphMinShared, f.graphDays)
	if err != nil {
		f.log.Warn("stage2 graph lookup failed, demoting to fallback", "title_id", t.ID, "error", err)
		return Verdict{}, false
	}

	n := 0
	if len(neighbors) > f.cfg.GraphNeighborCap {
		n = f.cfg.GraphNeighborCap
	} else {
		n = len(neighbors)
	}
	for _, neighbor := range neighbors[:n] {
		if neighbor.SharedCount >= f.cfg.GraphPromoteShared {
			return Verdict{
				Keep:   true,
				Reason: fmt.Sprintf("connected to %d strategic articles", neighbor.SharedCount),
			}, true
		}
	}
	return Verdict{}, false
}
