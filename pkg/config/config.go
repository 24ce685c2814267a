package config

import "time"

// Config is the umbrella configuration object returned by Initialize and
// used throughout the pipeline's stage drivers.
type Config struct {
	configDir string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBMaxOpen  int
	DBMaxIdle  int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration

	GraphURI      string
	GraphUser     string
	GraphPassword string

	LLMBaseURL    string
	LLMAPIKey     string
	LLMModel      string
	LLMTimeout    time.Duration
	LLMMaxRetries int

	Filter       *FilterConfig
	Connectivity *ConnectivityConfig
	Assembler    *AssemblerConfig
	Enrichment   *EnrichmentConfig
	Narrative    *NarrativeConfig
	Runner       *RunnerConfig

	APIListenAddr     string
	APIBearerToken    string
}

// ConfigDir returns the configuration directory path used to load this Config.
func (c *Config) ConfigDir() string { return c.configDir }

// ConfigStats summarizes loaded configuration for startup logging.
type ConfigStats struct {
	ActorAllowListSize int
	StopListSize       int
}

// Stats returns a summary of loaded configuration, used by cmd/ entrypoints
// for an initial log line (mirrors the teacher's Config.Stats()).
func (c *Config) Stats() ConfigStats {
	return ConfigStats{
		ActorAllowListSize: len(c.Filter.ActorAllowList),
		StopListSize:       len(c.Filter.StopList),
	}
}

// LLMClient reshapes the flattened, already-env-resolved LLM* fields back
// into the LLMYAMLConfig shape llmclient.New expects, so every cmd/
// entrypoint wires its LLM client the same way instead of repeating the
// field mapping.
func (c *Config) LLMClient() (*LLMYAMLConfig, string) {
	return &LLMYAMLConfig{
		BaseURL:    c.LLMBaseURL,
		Model:      c.LLMModel,
		TimeoutSec: int(c.LLMTimeout.Seconds()),
		MaxRetries: c.LLMMaxRetries,
	}, c.LLMAPIKey
}
