package narrative

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/arclinehq/arcline/pkg/config"
	"github.com/arclinehq/arcline/pkg/llmclient"
)

type llmFrame struct {
	Label        string `json:"label"`
	Description  string `json:"description"`
	MoralFrame   string `json:"moral_frame"`
	TitleIndices []int  `json:"title_indices"`
}

type discoverResponse struct {
	Frames []llmFrame `json:"frames"`
}

type classifyResponse struct {
	Assignments []struct {
		Index int    `json:"index"`
		Label string `json:"label"`
	} `json:"assignments"`
}

// Extractor runs the two-pass narrative algorithm (§4.8). Stateless beyond
// its LLM client and tunables, matching C10's "shared and internally
// stateless" contract.
type Extractor struct {
	llm *llmclient.Client
	cfg *config.NarrativeConfig
	log *slog.Logger
}

// New builds an Extractor from a shared llmclient.Client and the
// narrative section of pipeline.yaml.
func New(llm *llmclient.Client, cfg *config.NarrativeConfig) *Extractor {
	return &Extractor{llm: llm, cfg: cfg, log: slog.With("component", "narrative")}
}

// DiscoverFrames is Pass 1: propose 2-5 (event) or 3-5 (ctm/epic) frames
// over the sampled population, dropping any without an assigned moral
// frame (§4.8 hard rule).
func (e *Extractor) DiscoverFrames(ctx context.Context, entityType EntityType, sample []SampleTitle) ([]llmFrame, error) {
	system := discoverySystemPrompt(entityType)
	user := formatTitlesForPrompt(sample)

	var resp discoverResponse
	if _, err := e.llm.CompleteJSON(ctx, system, user, llmclient.Options{Temperature: 0, MaxTokens: 2048}, &resp); err != nil {
		return nil, fmt.Errorf("narrative: discover frames: %w", err)
	}

	minFrames, maxFrames := 2, 5
	if entityType != EntityEvent {
		minFrames = 3
	}

	valid := make([]llmFrame, 0, len(resp.Frames))
	for _, f := range resp.Frames {
		if f.Label == "" || f.MoralFrame == "" {
			continue
		}
		indices := make([]int, 0, len(f.TitleIndices))
		for _, i := range f.TitleIndices {
			if i >= 0 && i < len(sample) {
				indices = append(indices, i)
			}
		}
		f.TitleIndices = indices
		valid = append(valid, f)
	}
	if len(valid) > maxFrames {
		valid = valid[:maxFrames]
	}
	if len(valid) < minFrames {
		e.log.Warn("narrative discovery returned fewer frames than the floor",
			"entity_type", entityType, "got", len(valid), "want", minFrames)
	}
	return valid, nil
}

// ClassifyBatch is one Pass-2 call: assign each title in batch to one of
// labels, or "neutral" (§4.8 Pass 2).
func (e *Extractor) ClassifyBatch(ctx context.Context, labels []string, batch []SampleTitle) (map[int]string, error) {
	system := classifySystemPrompt(labels)
	user := formatTitlesForPrompt(batch)

	var resp classifyResponse
	if _, err := e.llm.CompleteJSON(ctx, system, user, llmclient.Options{Temperature: 0, MaxTokens: 1024}, &resp); err != nil {
		return nil, fmt.Errorf("narrative: classify batch: %w", err)
	}

	out := make(map[int]string, len(resp.Assignments))
	for _, a := range resp.Assignments {
		if a.Index < 0 || a.Index >= len(batch) {
			continue // validates that returned indices lie in the batch
		}
		out[a.Index] = a.Label
	}
	return out, nil
}

// Run executes the full algorithm for one entity: sample (ctm/epic only),
// discover frames, classify the full population (ctm/epic) or trust
// Pass-1's title_indices directly (event), aggregate, and return the
// frames ready for Store.Replace.
func (e *Extractor) Run(ctx context.Context, entityType EntityType, entityID string, population []SampleTitle) ([]Frame, error) {
	sample := population
	switch entityType {
	case EntityCTM:
		sample = SampleCTM(population, e.cfg.CTMSampleCap)
	case EntityEpic:
		sample = SampleEpic(population, e.cfg.EpicSampleCap)
	}

	discovered, err := e.DiscoverFrames(ctx, entityType, sample)
	if err != nil {
		return nil, err
	}
	if len(discovered) == 0 {
		return nil, nil
	}

	labels := make([]string, len(discovered))
	for i, f := range discovered {
		labels[i] = f.Label
	}

	var classified []ClassifiedTitle
	if entityType == EntityEvent {
		// Events are small enough that Pass 1's own title_indices are the
		// membership assignment; Pass 2 is reserved for epic-scale entities.
		for _, f := range discovered {
			for _, idx := range f.TitleIndices {
				classified = append(classified, ClassifiedTitle{SampleTitle: sample[idx], Label: f.Label})
			}
		}
	} else {
		classified, err = e.classifyAll(ctx, labels, population)
		if err != nil {
			return nil, err
		}
	}

	aggregates := Aggregate(classified)

	frames := make([]Frame, 0, len(discovered))
	for _, f := range discovered {
		agg, ok := aggregates[f.Label]
		if !ok {
			continue // nothing classified into this frame after all; drop it
		}
		frames = append(frames, Frame{
			EntityType:          entityType,
			EntityID:            entityID,
			Label:                f.Label,
			Description:         f.Description,
			MoralFrame:          f.MoralFrame,
			TitleCount:          agg.TitleCount,
			TopSources:          agg.TopSources,
			ProportionalSources: agg.ProportionalSources,
			TopCountries:        agg.TopCountries,
			SampleTitles:        agg.SampleTitles,
		})
	}
	return frames, nil
}

// classifyAll runs Pass 2 over the entire population, sorted by publisher
// and partitioned into Pass2BatchSize-title batches (§4.8). A batch whose
// classification call fails is treated as entirely neutral rather than
// aborting the whole entity.
func (e *Extractor) classifyAll(ctx context.Context, labels []string, population []SampleTitle) ([]ClassifiedTitle, error) {
	sorted := make([]SampleTitle, len(population))
	copy(sorted, population)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Publisher < sorted[j].Publisher })

	batchSize := e.cfg.Pass2BatchSize
	if batchSize <= 0 {
		batchSize = 60
	}

	var out []ClassifiedTitle
	for start := 0; start < len(sorted); start += batchSize {
		end := start + batchSize
		if end > len(sorted) {
			end = len(sorted)
		}
		batch := sorted[start:end]

		assignments, err := e.ClassifyBatch(ctx, labels, batch)
		if err != nil {
			e.log.Warn("narrative classify batch failed, treating as neutral", "error", err)
			for _, t := range batch {
				out = append(out, ClassifiedTitle{SampleTitle: t})
			}
			continue
		}
		for i, t := range batch {
			out = append(out, ClassifiedTitle{SampleTitle: t, Label: assignments[i]})
		}
	}
	return out, nil
}
