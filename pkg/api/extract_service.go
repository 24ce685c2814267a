package api

import (
	"context"
	"fmt"
	"strconv"

	"github.com/arclinehq/arcline/pkg/config"
	"github.com/arclinehq/arcline/pkg/ctm"
	"github.com/arclinehq/arcline/pkg/errs"
	"github.com/arclinehq/arcline/pkg/narrative"
	"github.com/arclinehq/arcline/pkg/titlestore"
)

// NarrativeExtractor is the subset of narrative.Extractor the on-demand
// endpoint calls, mirroring pkg/efassembler's narrower-interface pattern
// (§4.5/§4.8 share C8, so both callers depend only on Run).
type NarrativeExtractor interface {
	Run(ctx context.Context, entityType narrative.EntityType, entityID string, population []narrative.SampleTitle) ([]narrative.Frame, error)
}

// NarrativeStore persists the frames a NarrativeExtractor produces.
type NarrativeStore interface {
	Replace(ctx context.Context, entityType narrative.EntityType, entityID string, frames []narrative.Frame) error
}

// ExtractService is the business logic behind POST /extract: it builds the
// requested entity's title population, re-runs C8 over it, and persists
// the result, leaving HTTP binding/status-mapping entirely to the handler
// (§6 "this is interface only; behavior reuses §4.8").
type ExtractService struct {
	titles     *titlestore.Store
	ctm        *ctm.Store
	extractor  NarrativeExtractor
	frameStore NarrativeStore
	cfg        *config.NarrativeConfig
}

// NewExtractService wires an ExtractService from its collaborators.
func NewExtractService(titles *titlestore.Store, ctmStore *ctm.Store, extractor NarrativeExtractor, frameStore NarrativeStore, cfg *config.NarrativeConfig) *ExtractService {
	return &ExtractService{titles: titles, ctm: ctmStore, extractor: extractor, frameStore: frameStore, cfg: cfg}
}

// Extract re-runs narrative extraction for a single event or CTM bucket and
// replaces its frames (§6, §8 "re-running narrative extraction on an entity
// replaces frames atomically").
func (s *ExtractService) Extract(ctx context.Context, entityType, entityID string) ([]narrative.Frame, error) {
	et := narrative.EntityType(entityType)
	switch et {
	case narrative.EntityEvent:
		return s.extractEvent(ctx, entityID)
	case narrative.EntityCTM:
		return s.extractCTM(ctx, entityID)
	default:
		return nil, errs.NewValidationError("entity_type", fmt.Errorf("must be %q or %q, got %q", narrative.EntityEvent, narrative.EntityCTM, entityType))
	}
}

func (s *ExtractService) extractEvent(ctx context.Context, efID string) ([]narrative.Frame, error) {
	ef, err := s.titles.GetEF(ctx, efID)
	if err != nil {
		return nil, err
	}

	count, err := s.titles.CountTitlesForEF(ctx, efID)
	if err != nil {
		return nil, err
	}
	minTitles := s.cfg.MinEventTitles
	if minTitles <= 0 {
		minTitles = 5
	}
	if count < minTitles {
		return nil, fmt.Errorf("event family %s has %d member titles, needs at least %d: %w", efID, count, minTitles, errs.ErrInsufficientPopulation)
	}

	members, err := s.titles.ListTitlesForEF(ctx, ef.ID, 0)
	if err != nil {
		return nil, err
	}

	return s.runAndPersist(ctx, narrative.EntityEvent, efID, toSampleTitles(members, ""))
}

func (s *ExtractService) extractCTM(ctx context.Context, bucketID string) ([]narrative.Frame, error) {
	id, err := parseBucketID(bucketID)
	if err != nil {
		return nil, errs.NewValidationError("entity_id", err)
	}

	bucket, err := s.ctm.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	minTitles := s.cfg.MinCTMTitles
	if minTitles <= 0 {
		minTitles = 20
	}
	if bucket.TitleCount < minTitles {
		return nil, fmt.Errorf("ctm bucket %d has %d titles, needs at least %d: %w", id, bucket.TitleCount, minTitles, errs.ErrInsufficientPopulation)
	}

	monthEnd := bucket.Month.AddDate(0, 1, 0)
	efs, err := s.titles.ListEFsForBucket(ctx, bucket.CentroidID, bucket.Track, bucket.Month, monthEnd)
	if err != nil {
		return nil, err
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

	members, err := s.titles.GetTitlesByIDs(ctx, titleIDs)
	if err != nil {
		return nil, err
	}

	return s.runAndPersist(ctx, narrative.EntityCTM, bucketID, toSampleTitles(members, bucket.CentroidID))
}

func (s *ExtractService) runAndPersist(ctx context.Context, entityType narrative.EntityType, entityID string, population []narrative.SampleTitle) ([]narrative.Frame, error) {
	frames, err := s.extractor.Run(ctx, entityType, entityID, population)
	if err != nil {
		return nil, err
	}
	if err := s.frameStore.Replace(ctx, entityType, entityID, frames); err != nil {
		return nil, err
	}
	return frames, nil
}

func toSampleTitles(titles []*titlestore.Title, centroidID string) []narrative.SampleTitle {
	out := make([]narrative.SampleTitle, 0, len(titles))
	for _, t := range titles {
		out = append(out, narrative.SampleTitle{
			ID:          t.ID,
			DisplayText: t.DisplayText,
			Publisher:   t.Publisher,
			Language:    t.Language,
			ISOCountry:  t.ISOCountry,
			CentroidID:  centroidID,
		})
	}
	return out
}

func parseBucketID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("entity_id must be a ctm bucket id, got %q", s)
	}
	return id, nil
}
