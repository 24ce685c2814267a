package config

import "fmt"

// Validator validates a loaded Config comprehensively, failing fast with a
// descriptive error (mirrors the teacher's pkg/config/validator.go shape).
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll validates every section in dependency order.
func (v *Validator) ValidateAll() error {
	if err := v.validateDatabase(); err != nil {
		return fmt.Errorf("database validation failed: %w", err)
	}
	if err := v.validateLLM(); err != nil {
		return fmt.Errorf("llm validation failed: %w", err)
	}
	if err := v.validateFilter(); err != nil {
		return fmt.Errorf("filter validation failed: %w", err)
	}
	if err := v.validateConnectivity(); err != nil {
		return fmt.Errorf("connectivity validation failed: %w", err)
	}
	if err := v.validateAssembler(); err != nil {
		return fmt.Errorf("assembler validation failed: %w", err)
	}
	if err := v.validateEnrichment(); err != nil {
		return fmt.Errorf("enrichment validation failed: %w", err)
	}
	if err := v.validateNarrative(); err != nil {
		return fmt.Errorf("narrative validation failed: %w", err)
	}
	if err := v.validateRunner(); err != nil {
		return fmt.Errorf("runner validation failed: %w", err)
	}
	return nil
}

func (v *Validator) validateDatabase() error {
	c := v.cfg
	if c.DBHost == "" {
		return NewValidationError("database", "host", ErrMissingRequiredField)
	}
	if c.DBPassword == "" {
		return NewValidationError("database", "password", ErrMissingRequiredField)
	}
	if c.DBMaxIdle > c.DBMaxOpen {
		return NewValidationError("database", "max_idle_conns",
			fmt.Errorf("%w: cannot exceed max_open_conns (%d)", ErrInvalidValue, c.DBMaxOpen))
	}
	if c.DBMaxOpen < 1 {
		return NewValidationError("database", "max_open_conns", ErrInvalidValue)
	}
	return nil
}

func (v *Validator) validateLLM() error {
	c := v.cfg
	if c.LLMBaseURL == "" {
		return NewValidationError("llm", "base_url", ErrMissingRequiredField)
	}
	if c.LLMAPIKey == "" {
		return NewValidationError("llm", "api_key", ErrMissingRequiredField)
	}
	if c.LLMTimeout <= 0 {
		return NewValidationError("llm", "timeout_seconds", ErrInvalidValue)
	}
	return nil
}

func (v *Validator) validateFilter() error {
	f := v.cfg.Filter
	if f.GraphMinShared < 1 {
		return NewValidationError("filter", "graph_min_shared", ErrInvalidValue)
	}
	if f.GraphPromoteShared < f.GraphMinShared {
		return NewValidationError("filter", "graph_promote_shared",
			fmt.Errorf("%w: must be >= graph_min_shared (%d)", ErrInvalidValue, f.GraphMinShared))
	}
	if _, err := ParseDurationOrDefault(f.GraphWindow, 0); err != nil {
		return NewValidationError("filter", "graph_window", err)
	}
	return nil
}

func (v *Validator) validateConnectivity() error {
	c := v.cfg.Connectivity
	if c.MinSharedEntities < 1 {
		return NewValidationError("connectivity", "min_shared_entities", ErrInvalidValue)
	}
	if c.PairCap < 1 {
		return NewValidationError("connectivity", "pair_cap", ErrInvalidValue)
	}
	if c.WriteBatchSize < 1 {
		return NewValidationError("connectivity", "write_batch_size", ErrInvalidValue)
	}
	if c.CompositeThreshold < 0 || c.CompositeThreshold > 1 {
		return NewValidationError("connectivity", "composite_threshold", ErrInvalidValue)
	}
	return nil
}

func (v *Validator) validateAssembler() error {
	a := v.cfg.Assembler
	if a.BatchSize < 1 {
		return NewValidationError("assembler", "batch_size", ErrInvalidValue)
	}
	if a.MaxTitles < 0 {
		return NewValidationError("assembler", "max_titles", ErrInvalidValue)
	}
	return nil
}

func (v *Validator) validateEnrichment() error {
	e := v.cfg.Enrichment
	if e.DailyCap < 0 {
		return NewValidationError("enrichment", "daily_cap", ErrInvalidValue)
	}
	if e.MacroLinkAutoThreshold < 0 || e.MacroLinkAutoThreshold > 1 {
		return NewValidationError("enrichment", "macro_link_auto_threshold", ErrInvalidValue)
	}
	if e.CentroidCandidateCount < 1 {
		return NewValidationError("enrichment", "centroid_candidate_count", ErrInvalidValue)
	}
	return nil
}

func (v *Validator) validateNarrative() error {
	n := v.cfg.Narrative
	if n.Pass2BatchSize < 1 {
		return NewValidationError("narrative", "pass2_batch_size", ErrInvalidValue)
	}
	if n.MinCTMTitles < 0 {
		return NewValidationError("narrative", "min_ctm_titles", ErrInvalidValue)
	}
	if n.MinEventTitles < 0 {
		return NewValidationError("narrative", "min_event_titles", ErrInvalidValue)
	}
	return nil
}

func (v *Validator) validateRunner() error {
	r := v.cfg.Runner
	if r.LLMSemaphore < 1 {
		return NewValidationError("runner", "llm_semaphore", ErrInvalidValue)
	}
	if r.CheckpointDir == "" {
		return NewValidationError("runner", "checkpoint_dir", ErrMissingRequiredField)
	}
	if _, err := ParseDurationOrDefault(r.BackoffInitial, 0); err != nil {
		return NewValidationError("runner", "backoff_initial", err)
	}
	if _, err := ParseDurationOrDefault(r.BackoffMax, 0); err != nil {
		return NewValidationError("runner", "backoff_max", err)
	}
	return nil
}
