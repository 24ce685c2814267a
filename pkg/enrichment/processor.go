package enrichment

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/arclinehq/arcline/pkg/centroid"
	"github.com/arclinehq/arcline/pkg/config"
	"github.com/arclinehq/arcline/pkg/errs"
	"github.com/arclinehq/arcline/pkg/llmclient"
	"github.com/arclinehq/arcline/pkg/titlestore"
)

// strategicKeywords earn a recency/size-queue bonus when present in an
// EF's title (§4.6 Queueing), grounded verbatim on the bonus list in
// `apps/enrich/processor.py`'s get_enrichment_queue.
var strategicKeywords = []string{
	"nato", "nuclear", "sanctions", "invasion", "assassination",
	"diplomatic", "alliance", "security", "escalation",
}

// Processor runs the C6 per-EF enrichment pipeline (§4.6).
type Processor struct {
	titles    *titlestore.Store
	llm       *llmclient.Client
	centroids *centroid.Registry
	cfg       *config.EnrichmentConfig
	log       *slog.Logger
}

// New wires a Processor from its collaborators and tunables.
func New(titles *titlestore.Store, llm *llmclient.Client, centroids *centroid.Registry, cfg *config.EnrichmentConfig) *Processor {
	return &Processor{
		titles:    titles,
		llm:       llm,
		centroids: centroids,
		cfg:       cfg,
		log:       slog.With("component", "enrichment"),
	}
}

// Run loads every seed-status EF, ranks it by the §4.6 priority function,
// caps the pass at daily_cap, and enriches each in turn. Already-active
// EFs are excluded by ListEFsForEnrichment's status='seed' filter.
func (p *Processor) Run(ctx context.Context) (Result, error) {
	var result Result

	candidates, err := p.titles.ListEFsForEnrichment(ctx)
	if err != nil {
		return result, fmt.Errorf("enrichment: list candidates: %w", err)
	}
	if len(candidates) == 0 {
		return result, nil
	}

	ranked := prioritize(candidates)
	dailyCap := p.cfg.DailyCap
	if dailyCap > 0 && len(ranked) > dailyCap {
		ranked = ranked[:dailyCap]
	}
	result.Candidates = len(ranked)

	for _, ef := range ranked {
		if err := p.ProcessOne(ctx, ef); err != nil {
			p.log.Warn("enrichment failed for EF", "ef_id", ef.ID, "error", err)
			result.Failed++
			continue
		}
		result.Enriched++
	}
	return result, nil
}

// priorityScore is the recency + size + keyword-bonus ranking function
// (§4.6 Queueing), grounded on get_enrichment_queue's scoring.
func priorityScore(ef *titlestore.EventFamily) float64 {
	daysOld := int(time.Since(ef.CreatedAt).Hours() / 24)
	recency := 7 - daysOld
	if recency < 0 {
		recency = 0
	}

	size := len(ef.SourceTitleIDs)
	if size > 10 {
		size = 10
	}

	keywordBonus := 0
	lowerTitle := strings.ToLower(ef.Title)
	for _, kw := range strategicKeywords {
		if strings.Contains(lowerTitle, kw) {
			keywordBonus += 2
		}
	}

	return float64(recency + size + keywordBonus)
}

func prioritize(efs []*titlestore.EventFamily) []*titlestore.EventFamily {
	ranked := make([]*titlestore.EventFamily, len(efs))
	copy(ranked, efs)
	sort.SliceStable(ranked, func(i, j int) bool {
		return priorityScore(ranked[i]) > priorityScore(ranked[j])
	})
	return ranked
}

// ProcessOne runs Steps A-E for a single EF (§4.6). A failed Step A
// aborts without touching the EF; later step failures downgrade to their
// documented fallback and still reach Step E.
func (p *Processor) ProcessOne(ctx context.Context, ef *titlestore.EventFamily) error {
	memberTitles, err := p.titles.ListTitlesForEF(ctx, ef.ID, 0)
	if err != nil {
		return fmt.Errorf("enrichment: load member titles: %w", err)
	}

	canonical, err := p.callCanonicalize(ctx, ef, memberTitles)
	if err != nil {
		return fmt.Errorf("enrichment: step A canonicalize: %w", err)
	}

	magnitudes := extractMagnitudes(memberTitles)

	actorNames := make([]string, 0, len(canonical.CanonicalActors))
	for _, a := range canonical.CanonicalActors {
		actorNames = append(actorNames, a.Name)
	}

	efCtx := p.populateContext(ctx, ef, actorNames)

	summary := p.narrativeSummary(ctx, ef, canonical, actorNames, memberTitles, efCtx)

	payload := &titlestore.EnrichmentPayload{
		PolicyStatus:      canonical.PolicyStatus,
		TemporalPattern:   canonical.TemporalPattern,
		MagnitudeBaseline: canonical.MagnitudeBaseline,
		SystemicContext:   canonical.SystemicContext,
		Magnitudes:        magnitudes,
		WhyStrategic:      canonical.WhyStrategic,
	}
	for _, a := range canonical.CanonicalActors {
		payload.CanonicalActors = append(payload.CanonicalActors, titlestore.CanonicalActor{Name: a.Name, Role: a.Role})
	}
	if canonical.TimeSpan.Start != "" {
		if t := parseDate(canonical.TimeSpan.Start); t != nil {
			payload.TimeSpanStart = t
		}
	}
	if canonical.TimeSpan.End != "" {
		if t := parseDate(canonical.TimeSpan.End); t != nil {
			payload.TimeSpanEnd = t
		}
	}

	return p.titles.UpdateEnrichment(ctx, ef.ID, summary, canonical.Tags, efCtx, payload)
}

// callCanonicalize issues Step A's single LLM call at temperature 0
// (§4.6 Step A: "Temperature 0") and validates the response's closed
// vocabularies.
func (p *Processor) callCanonicalize(ctx context.Context, ef *titlestore.EventFamily, allTitles []*titlestore.Title) (llmCanonical, error) {
	recent := allTitles
	if max := p.cfg.MaxRecentTitles; max > 0 && len(recent) > max {
		recent = recent[:max]
	}

	system := canonicalizeSystemPrompt()
	user := canonicalizeUserPrompt(ef, recent)

	var resp llmCanonical
	if _, err := p.llm.CompleteJSON(ctx, system, user, llmclient.Options{Temperature: 0, MaxTokens: p.cfg.MaxTokens}, &resp); err != nil {
		return llmCanonical{}, &errs.LLMMalformedError{Stage: "enrichment.canonicalize", Reason: err.Error()}
	}
	return validateCanonical(resp), nil
}

// validateCanonical clamps the response to its documented contracts: a
// closed 8-value policy_status vocabulary, known actor roles, and exactly
// 3 tags. A response short of 3 tags is padded with "unclassified" rather
// than dropped — Step A has already run and the EF must not abort on a
// cosmetic shortfall downstream steps don't depend on.
func validateCanonical(in llmCanonical) llmCanonical {
	in.PolicyStatus = strings.ToLower(strings.TrimSpace(in.PolicyStatus))
	if in.PolicyStatus == "null" || !validPolicyStatuses[in.PolicyStatus] {
		in.PolicyStatus = ""
	}

	for i := range in.CanonicalActors {
		role := strings.ToLower(strings.TrimSpace(in.CanonicalActors[i].Role))
		if !validActorRoles[role] {
			role = ""
		}
		in.CanonicalActors[i].Role = role
	}

	if len(in.WhyStrategic) > 150 {
		in.WhyStrategic = in.WhyStrategic[:150]
	}

	tags := make([]string, 0, 3)
	for _, t := range in.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	for len(tags) < 3 {
		tags = append(tags, "unclassified")
	}
	if len(tags) > 3 {
		tags = tags[:3]
	}
	in.Tags = tags

	return in
}

// populateContext is Step C: an auto-link when C7's best composite clears
// the configured threshold, otherwise a second LLM call over the top-N
// candidates. A failed LLM call downgrades to an empty ef_context rather
// than failing the EF (§4.6 Step C/Failures).
func (p *Processor) populateContext(ctx context.Context, ef *titlestore.EventFamily, actors []string) *titlestore.EFContext {
	sig := centroid.EventSignature{
		Title:          ef.Title,
		Summary:        ef.Summary,
		Actors:         actors,
		PrimaryTheater: ef.PrimaryTheater,
		EventType:      ef.EventType,
	}

	best, ok := p.centroids.Best(sig)
	if ok && best.Composite >= p.cfg.MacroLinkAutoThreshold {
		return &titlestore.EFContext{MacroLink: best.Name}
	}

	candidateCount := p.cfg.CentroidCandidateCount
	if candidateCount <= 0 {
		candidateCount = 5
	}
	candidates := p.centroids.TopCandidates(sig, candidateCount)
	if len(candidates) == 0 {
		return &titlestore.EFContext{}
	}

	system := macroLinkSystemPrompt(candidates)
	user := macroLinkUserPrompt(ef, actors)

	var resp llmMacroLinkResponse
	if _, err := p.llm.CompleteJSON(ctx, system, user, llmclient.Options{Temperature: p.cfg.MacroLinkTemperature, MaxTokens: p.cfg.MaxTokens}, &resp); err != nil {
		p.log.Warn("step C macro-link call failed, downgrading to empty context", "ef_id", ef.ID, "error", err)
		return &titlestore.EFContext{}
	}

	efCtx := &titlestore.EFContext{Abnormality: resp.EFContext.Abnormality}
	if strings.ToLower(resp.EFContext.MacroLink) != "null" {
		efCtx.MacroLink = resp.EFContext.MacroLink
	}
	n := len(resp.EFContext.Comparables)
	if n > 3 {
		n = 3
	}
	for _, c := range resp.EFContext.Comparables[:n] {
		efCtx.Comparables = append(efCtx.Comparables, fmt.Sprintf("%s (%s): %s", c.EventDescription, c.Timeframe, c.SimilarityReason))
	}
	return efCtx
}

// narrativeSummary is Step D: an LLM rewrite when efCtx is non-trivial, a
// deterministic template otherwise, and the original summary when the
// rewrite call itself fails (§4.6 Step D/Failures).
func (p *Processor) narrativeSummary(ctx context.Context, ef *titlestore.EventFamily, canonical llmCanonical, actors []string, memberTitles []*titlestore.Title, efCtx *titlestore.EFContext) string {
	if efCtx == nil || (efCtx.MacroLink == "" && len(efCtx.Comparables) == 0 && efCtx.Abnormality == "") {
		return deterministicSummary(ef, canonical)
	}

	system := narrativeSummarySystemPrompt()
	user := narrativeSummaryUserPrompt(ef, actors, memberTitles)

	rewritten, err := p.llm.Complete(ctx, system, user, llmclient.Options{Temperature: p.cfg.NarrativeTemperature, MaxTokens: p.cfg.MaxTokens})
	if err != nil {
		p.log.Warn("step D narrative rewrite failed, keeping original summary", "ef_id", ef.ID, "error", err)
		return ef.Summary
	}
	return strings.TrimSpace(rewritten)
}

// deterministicSummary composes an enriched summary from Step A's fields
// without an LLM call (§4.6 Step D fallback).
func deterministicSummary(ef *titlestore.EventFamily, canonical llmCanonical) string {
	var sb strings.Builder
	sb.WriteString(ef.Summary)
	if canonical.WhyStrategic != "" {
		fmt.Fprintf(&sb, " Strategically, %s", lowerFirst(canonical.WhyStrategic))
	}
	if canonical.SystemicContext != "" {
		fmt.Fprintf(&sb, " This fits within %s.", lowerFirst(canonical.SystemicContext))
	}
	if canonical.TemporalPattern != "" {
		fmt.Fprintf(&sb, " Pattern: %s.", canonical.TemporalPattern)
	}
	return strings.TrimSpace(sb.String())
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func parseDate(s string) *time.Time {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
