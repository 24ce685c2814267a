package narrative

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/arclinehq/arcline/pkg/config"
	"github.com/arclinehq/arcline/pkg/ctm"
	"github.com/arclinehq/arcline/pkg/titlestore"
)

// Refresher drives the batch side of §4.8's refresh policy: it finds CTM
// buckets whose title_count has grown enough (and aged enough) since their
// last narrative build, regenerates their frames, and stamps the
// bookkeeping DueForRefresh next compares against. It mirrors
// pkg/connectivity.Refresher's shape — a small struct wrapping its
// collaborators with one driving method.
type Refresher struct {
	titles    *titlestore.Store
	ctm       *ctm.Store
	extractor *Extractor
	store     *Store
	cfg       *config.NarrativeConfig
	log       *slog.Logger
}

// NewRefresher wires a Refresher from its collaborators.
func NewRefresher(titles *titlestore.Store, ctmStore *ctm.Store, extractor *Extractor, store *Store, cfg *config.NarrativeConfig) *Refresher {
	return &Refresher{
		titles:    titles,
		ctm:       ctmStore,
		extractor: extractor,
		store:     store,
		cfg:       cfg,
		log:       slog.With("component", "narrative_refresher"),
	}
}

// Result reports what happened during one RefreshDueCTMs call.
type Result struct {
	Checked   int
	Refreshed int
	Failed    int
}

// RefreshDueCTMs regenerates narrative frames for every non-frozen CTM
// bucket due for a refresh (§4.8 "CTM narrative regeneration requires
// title_count >= previous + REFRESH_GROWTH and at least 24 hours since the
// last regeneration").
func (r *Refresher) RefreshDueCTMs(ctx context.Context) (Result, error) {
	minTitles := r.cfg.MinCTMTitles
	if minTitles <= 0 {
		minTitles = 20
	}

	buckets, err := r.ctm.DueBuckets(ctx, minTitles)
	if err != nil {
		return Result{}, err
	}

	growth := r.cfg.RefreshGrowth
	minHours := r.cfg.RefreshMinHours
	if minHours <= 0 {
		minHours = 24
	}

	var result Result
	for _, b := range buckets {
		if !ctm.DueForRefresh(b, growth, minHours) {
			continue
		}
		result.Checked++

		if err := r.refreshOne(ctx, b); err != nil {
			result.Failed++
			r.log.Warn("ctm narrative refresh failed", "bucket_id", b.ID, "error", err)
			continue
		}
		result.Refreshed++
	}
	return result, nil
}

func (r *Refresher) refreshOne(ctx context.Context, b *ctm.Bucket) error {
	entityID := strconv.FormatInt(b.ID, 10)
	monthEnd := b.Month.AddDate(0, 1, 0)

	efs, err := r.titles.ListEFsForBucket(ctx, b.CentroidID, b.Track, b.Month, monthEnd)
	if err != nil {
		return err
	}

	seen := map[string]bool{}
	var titleIDs []string
	for _, ef := range efs {
		for _, id := range ef.SourceTitleIDs {
			if !seen[id] {
				seen[id] = true
				titleIDs = append(titleIDs, id)
			}
		}
	}

	members, err := r.titles.GetTitlesByIDs(ctx, titleIDs)
	if err != nil {
		return err
	}

	population := make([]SampleTitle, 0, len(members))
	for _, t := range members {
		population = append(population, SampleTitle{
			ID:          t.ID,
			DisplayText: t.DisplayText,
			Publisher:   t.Publisher,
			Language:    t.Language,
			ISOCountry:  t.ISOCountry,
			CentroidID:  b.CentroidID,
		})
	}

	frames, err := r.extractor.Run(ctx, EntityCTM, entityID, population)
	if err != nil {
		return err
	}
	if err := r.store.Replace(ctx, EntityCTM, entityID, frames); err != nil {
		return err
	}

	labels := make([]string, 0, len(frames))
	for _, f := range frames {
		labels = append(labels, f.Label)
	}
	summary := strings.Join(labels, "; ")
	if summary == "" {
		summary = fmt.Sprintf("%d frames", len(frames))
	}
	return r.ctm.RecordSummary(ctx, b.ID, summary)
}
