// Package config loads, validates, and exposes the pipeline's tunable
// configuration: database/graph/LLM connection settings and the per-stage
// thresholds named throughout the spec (§9: explicit per-stage configuration
// structs, not ad-hoc kwargs).
package config

import "time"

// PipelineYAMLConfig is the top-level shape of pipeline.yaml.
type PipelineYAMLConfig struct {
	Database     *DatabaseYAMLConfig `yaml:"database"`
	Graph        *GraphYAMLConfig    `yaml:"graph"`
	LLM          *LLMYAMLConfig      `yaml:"llm"`
	Filter       *FilterConfig       `yaml:"filter"`
	Connectivity *ConnectivityConfig `yaml:"connectivity"`
	Assembler    *AssemblerConfig    `yaml:"assembler"`
	Enrichment   *EnrichmentConfig   `yaml:"enrichment"`
	Narrative    *NarrativeConfig    `yaml:"narrative"`
	Runner       *RunnerConfig       `yaml:"runner"`
	API          *APIConfig          `yaml:"api"`
}

// DatabaseYAMLConfig holds Postgres connection settings.
type DatabaseYAMLConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	PasswordEnv     string `yaml:"password_env"`
	Database        string `yaml:"database"`
	SSLMode         string `yaml:"sslmode"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime string `yaml:"conn_max_idle_time"`
}

// GraphYAMLConfig holds Neo4j connection settings (C2).
type GraphYAMLConfig struct {
	URI         string `yaml:"uri"`
	User        string `yaml:"user"`
	PasswordEnv string `yaml:"password_env"`
}

// LLMYAMLConfig holds the External LLM Client's (C10) connection settings.
type LLMYAMLConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKeyEnv  string `yaml:"api_key_env"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_seconds"`
	MaxRetries int    `yaml:"max_retries"`
}

// FilterConfig holds the P2 strategic filter's (C4) tunables.
type FilterConfig struct {
	ActorAllowList      []string `yaml:"actor_allow_list"`
	StopList            []string `yaml:"stop_list"`
	KeywordHeuristics   []string `yaml:"keyword_heuristics"`
	GraphMinShared      int      `yaml:"graph_min_shared"`      // Stage-2 pre-filter (spec: 2)
	GraphPromoteShared  int      `yaml:"graph_promote_shared"`  // Stage-2 promotion floor (spec: 3)
	GraphWindow         string   `yaml:"graph_window"`          // e.g. "48h" (spec: last 2 days)
	GraphNeighborCap    int      `yaml:"graph_neighbor_cap"`    // spec: capped at 3
}

// ConnectivityConfig holds the Connectivity Cache's (C3) refresh tunables.
type ConnectivityConfig struct {
	MinSharedEntities   int     `yaml:"min_shared_entities"`   // spec: >= 2
	PairCap             int     `yaml:"pair_cap"`              // spec: default 50,000
	WriteBatchSize      int     `yaml:"write_batch_size"`      // spec: 1,000
	CompositeThreshold  float64 `yaml:"composite_threshold"`   // spec: 0.3
	JaccardWeight       float64 `yaml:"jaccard_weight"`        // spec: 0.5
	ActorWeight         float64 `yaml:"actor_weight"`          // spec: 0.2
}

// AssemblerConfig holds the P3 EF Assembler's (C5) tunables.
type AssemblerConfig struct {
	MaxTitles          int     `yaml:"max_titles"` // 0 = entire backlog
	BatchSize          int     `yaml:"batch_size"` // spec default: 50
	Temperature        float32 `yaml:"temperature"`
	RetryTemperature   float32 `yaml:"retry_temperature"` // spec: 0.1
	MaxTokens          int32   `yaml:"max_tokens"`
}

// EnrichmentConfig holds the Enrichment Processor's (C6) tunables.
type EnrichmentConfig struct {
	DailyCap               int     `yaml:"daily_cap"`
	MaxRecentTitles        int     `yaml:"max_recent_titles"`         // spec: 5
	MacroLinkAutoThreshold float64 `yaml:"macro_link_auto_threshold"` // spec: 0.7
	CentroidCandidateCount int     `yaml:"centroid_candidate_count"`  // spec: top-5
	MaxTokens              int32   `yaml:"max_tokens"`
	MacroLinkTemperature   float32 `yaml:"macro_link_temperature"` // Step C's assessment call
	NarrativeTemperature   float32 `yaml:"narrative_temperature"`  // Step D's rewrite call
}

// NarrativeConfig holds the Narrative Frame Extractor's (C8) tunables.
type NarrativeConfig struct {
	CTMSampleCap      int `yaml:"ctm_sample_cap"`      // spec: 200
	EpicSampleCap     int `yaml:"epic_sample_cap"`     // spec: 150
	EventSampleCap    int `yaml:"event_sample_cap"`    // events use all titles in practice
	Pass2BatchSize    int `yaml:"pass2_batch_size"`    // spec: 60
	RefreshGrowth     int `yaml:"refresh_growth"`      // spec: REFRESH_GROWTH
	RefreshMinHours   int `yaml:"refresh_min_hours"`   // spec: 24h
	MinCTMTitles      int `yaml:"min_ctm_titles"`      // spec: default 20
	MinEventTitles    int `yaml:"min_event_titles"`    // spec: 5 (HTTP 422 boundary)
}

// RunnerConfig holds the Pipeline Runner's (C9) tunables.
type RunnerConfig struct {
	LLMSemaphore   int    `yaml:"llm_semaphore"`  // spec default: 3
	StagePool      int    `yaml:"stage_pool"`     // spec: <=8
	CheckpointDir  string `yaml:"checkpoint_dir"` // spec: logs/checkpoints/<phase>.json
	MaxRetries     int    `yaml:"max_retries"`
	BackoffInitial string `yaml:"backoff_initial"`
	BackoffMax     string `yaml:"backoff_max"`
}

// APIConfig holds the §6 on-demand HTTP interface's settings.
type APIConfig struct {
	ListenAddr    string `yaml:"listen_addr"`
	BearerTokenEnv string `yaml:"bearer_token_env"`
}

// ParseDurationOrDefault parses a tunable duration string. Returns def
// when the string is empty.
func ParseDurationOrDefault(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}
