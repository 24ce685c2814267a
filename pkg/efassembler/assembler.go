package efassembler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/arclinehq/arcline/pkg/config"
	"github.com/arclinehq/arcline/pkg/errs"
	"github.com/arclinehq/arcline/pkg/llmclient"
	"github.com/arclinehq/arcline/pkg/narrative"
	"github.com/arclinehq/arcline/pkg/titlestore"
)

// NarrativeExtractor is the subset of narrative.Extractor the assembler
// calls to generate framed narratives for a freshly-seeded EF (§4.5 step 6).
type NarrativeExtractor interface {
	Run(ctx context.Context, entityType narrative.EntityType, entityID string, population []narrative.SampleTitle) ([]narrative.Frame, error)
}

// NarrativeStore persists the frames a NarrativeExtractor produces.
type NarrativeStore interface {
	Replace(ctx context.Context, entityType narrative.EntityType, entityID string, frames []narrative.Frame) error
}

// Assembler runs the P3 EF Assembler (C5): batch-load unassigned strategic
// titles, ask C10 to group them into Event Families, validate, persist
// through C1, then frame each new EF via C8 (§4.5).
type Assembler struct {
	titles     *titlestore.Store
	llm        *llmclient.Client
	narratives NarrativeExtractor
	frameStore NarrativeStore
	cfg        *config.AssemblerConfig
	log        *slog.Logger
}

// New wires an Assembler from its collaborators and tunables.
func New(titles *titlestore.Store, llm *llmclient.Client, narratives NarrativeExtractor, frameStore NarrativeStore, cfg *config.AssemblerConfig) *Assembler {
	return &Assembler{
		titles:     titles,
		llm:        llm,
		narratives: narratives,
		frameStore: frameStore,
		cfg:        cfg,
		log:        slog.With("component", "efassembler"),
	}
}

// Run executes one full pass: load up to max_titles unassigned strategic
// titles, partition into batch_size batches, assemble each (§4.5 steps 1-6).
func (a *Assembler) Run(ctx context.Context) (Result, error) {
	var total Result

	titles, err := a.titles.LoadUnassignedStrategic(ctx, a.cfg.MaxTitles, titlestore.OrderPublishedDesc)
	if err != nil {
		return total, fmt.Errorf("efassembler: load unassigned: %w", err)
	}
	if len(titles) == 0 {
		return total, nil
	}

	batchSize := a.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	for start := 0; start < len(titles); start += batchSize {
		end := start + batchSize
		if end > len(titles) {
			end = len(titles)
		}
		batch := titles[start:end]

		res, err := a.runBatch(ctx, batch)
		if err != nil {
			a.log.Error("batch assembly failed, abandoning batch", "batch_size", len(batch), "error", err)
			total.Add(Result{BatchSize: len(batch), Dropped: len(batch)})
			continue
		}
		total.Add(res)
	}
	return total, nil
}

// runBatch calls C10 with the assembly prompt, validates, persists each
// surviving EF, and frames it (§4.5 steps 3-6).
func (a *Assembler) runBatch(ctx context.Context, batch []*titlestore.Title) (Result, error) {
	result := Result{BatchSize: len(batch)}

	byID := make(map[string]*titlestore.Title, len(batch))
	rendered := make([]batchTitle, 0, len(batch))
	for _, t := range batch {
		byID[t.ID] = t
		rendered = append(rendered, toBatchTitle(t))
	}

	efs, err := a.callAssemble(ctx, rendered)
	if err != nil {
		return result, err
	}

	assignedOnce := make(map[string]bool, len(batch))

	for _, raw := range efs {
		ef, titleIDs, ok := validateEF(raw, byID, assignedOnce)
		if !ok {
			result.Dropped++
			continue
		}
		for _, id := range titleIDs {
			assignedOnce[id] = true
		}

		ef.ID = uuid.NewString()
		if err := a.titles.CreateEF(ctx, ef); err != nil {
			a.log.Error("create_ef failed, dropping EF", "ef_title", ef.Title, "error", err)
			result.Dropped++
			continue
		}

		assigned, assignResults, err := a.titles.AssignToEF(ctx, titleIDs, ef.ID, ef.Confidence, ef.CoherenceRationale)
		if err != nil {
			a.log.Error("assign_to_ef failed", "ef_id", ef.ID, "error", err)
			result.Dropped++
			continue
		}
		for _, r := range assignResults {
			if !r.OK {
				a.log.Warn("title dropped from EF assignment", "ef_id", ef.ID, "title_id", r.TitleID, "error", r.Err)
			}
		}
		result.EFsCreated++
		result.TitlesAssigned += assigned

		a.frameEF(ctx, ef, titleIDs, byID)
	}
	return result, nil
}

// callAssemble calls C10 with the batch, retrying once at a lower
// temperature on malformed JSON before abandoning the batch (§4.5 edge
// case: "If C10 returns invalid JSON, retry once with temperature=0.1").
func (a *Assembler) callAssemble(ctx context.Context, batch []batchTitle) ([]llmEF, error) {
	system := assemblySystemPrompt()
	user := formatBatchForPrompt(batch)

	var resp []llmEF
	temp := a.cfg.Temperature
	_, err := a.llm.CompleteJSON(ctx, system, user, llmclient.Options{Temperature: temp, MaxTokens: a.cfg.MaxTokens}, &resp)
	if err == nil {
		return resp, nil
	}

	a.log.Warn("assembly call returned malformed JSON, retrying at lower temperature", "error", err)
	retryTemp := a.cfg.RetryTemperature
	resp = nil
	_, err = a.llm.CompleteJSON(ctx, system, user, llmclient.Options{Temperature: retryTemp, MaxTokens: a.cfg.MaxTokens}, &resp)
	if err != nil {
		return nil, &errs.LLMMalformedError{Stage: "efassembler", Reason: err.Error()}
	}
	return resp, nil
}

// frameEF generates Step 6's framed narratives for a newly-created EF. A
// failure here never undoes the EF itself — narrative generation is a
// best-effort enrichment of an already-durable write.
func (a *Assembler) frameEF(ctx context.Context, ef *titlestore.EventFamily, titleIDs []string, byID map[string]*titlestore.Title) {
	if a.narratives == nil || a.frameStore == nil {
		return
	}
	sample := make([]narrative.SampleTitle, 0, len(titleIDs))
	for _, id := range titleIDs {
		t, ok := byID[id]
		if !ok {
			continue
		}
		sample = append(sample, narrative.SampleTitle{
			ID:          t.ID,
			DisplayText: t.DisplayText,
			Publisher:   t.Publisher,
			Language:    t.Language,
			ISOCountry:  t.ISOCountry,
		})
	}
	frames, err := a.narratives.Run(ctx, narrative.EntityEvent, ef.ID, sample)
	if err != nil {
		a.log.Warn("narrative generation failed for new EF", "ef_id", ef.ID, "error", err)
		return
	}
	if err := a.frameStore.Replace(ctx, narrative.EntityEvent, ef.ID, frames); err != nil {
		a.log.Warn("narrative persistence failed for new EF", "ef_id", ef.ID, "error", err)
	}
}

// validateEF applies §4.5 step 4's validation rules and the single-title
// edge case policy, returning the domain EventFamily and its (deduped,
// subset-checked) title id list.
func validateEF(raw llmEF, byID map[string]*titlestore.Title, alreadyAssigned map[string]bool) (*titlestore.EventFamily, []string, bool) {
	if raw.Title == "" || raw.Summary == "" {
		return nil, nil, false
	}

	var titleIDs []string
	seen := map[string]bool{}
	for _, id := range raw.SourceTitleIDs {
		if _, inBatch := byID[id]; !inBatch {
			continue // source_title_ids must be a subset of the batch (§4.5)
		}
		if alreadyAssigned[id] || seen[id] {
			continue // each title id appears in at most one EF per batch
		}
		seen[id] = true
		titleIDs = append(titleIDs, id)
	}

	if len(titleIDs) == 0 {
		return nil, nil, false
	}
	if len(titleIDs) == 1 && raw.CoherenceReason == "" {
		// single-title EFs are allowed only with a non-empty coherence_reason
		return nil, nil, false
	}

	confidence := raw.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	start := parseLLMDate(raw.EventStart)
	end := parseLLMDate(raw.EventEnd)
	if end != nil && start != nil && end.Before(*start) {
		end = nil
	}

	ef := &titlestore.EventFamily{
		Title:              raw.Title,
		Summary:            raw.Summary,
		KeyActors:          raw.KeyActors,
		EventType:          raw.EventType,
		PrimaryTheater:     raw.Geography,
		EventStart:         start,
		EventEnd:           end,
		SourceTitleIDs:     titleIDs,
		Confidence:         confidence,
		CoherenceRationale: raw.CoherenceReason,
		Status:             titlestore.EFStatusSeed,
	}
	return ef, titleIDs, true
}

// parseLLMDate parses an ISO-8601 Zulu date; unparseable dates default to
// now (§4.5 edge case policy) and an empty string yields nil.
func parseLLMDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		now := time.Now().UTC()
		return &now
	}
	return &t
}
