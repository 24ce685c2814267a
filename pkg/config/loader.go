package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Initialize loads pipeline.yaml from configDir, layers env-var overrides
// over it, validates the result, and returns a ready-to-use Config.
//
// Steps performed:
//  1. Load pipeline.yaml
//  2. Expand ${VAR} references
//  3. Merge built-in defaults under the user's YAML (YAML wins)
//  4. Resolve env-sourced secrets (DB password, LLM API key, graph password)
//  5. Validate
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing pipeline configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("configuration initialized",
		"actor_allow_list", stats.ActorAllowListSize,
		"stop_list", stats.StopListSize)

	return cfg, nil
}

func load(_ context.Context, configDir string) (*Config, error) {
	path := filepath.Join(configDir, "pipeline.yaml")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			raw = []byte{}
		} else {
			return nil, NewLoadError(path, err)
		}
	}

	expanded := ExpandEnv(raw)

	var yamlCfg PipelineYAMLConfig
	if len(expanded) > 0 {
		if err := yaml.Unmarshal(expanded, &yamlCfg); err != nil {
			return nil, NewLoadError(path, fmt.Errorf("%w: %v", ErrInvalidYAML, err))
		}
	}

	filterCfg := DefaultFilterConfig()
	if yamlCfg.Filter != nil {
		if err := mergo.Merge(filterCfg, yamlCfg.Filter, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge filter config: %w", err)
		}
	}

	connCfg := DefaultConnectivityConfig()
	if yamlCfg.Connectivity != nil {
		if err := mergo.Merge(connCfg, yamlCfg.Connectivity, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge connectivity config: %w", err)
		}
	}

	assemblerCfg := DefaultAssemblerConfig()
	if yamlCfg.Assembler != nil {
		if err := mergo.Merge(assemblerCfg, yamlCfg.Assembler, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge assembler config: %w", err)
		}
	}

	enrichCfg := DefaultEnrichmentConfig()
	if yamlCfg.Enrichment != nil {
		if err := mergo.Merge(enrichCfg, yamlCfg.Enrichment, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge enrichment config: %w", err)
		}
	}

	narrativeCfg := DefaultNarrativeConfig()
	if yamlCfg.Narrative != nil {
		if err := mergo.Merge(narrativeCfg, yamlCfg.Narrative, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge narrative config: %w", err)
		}
	}

	runnerCfg := DefaultRunnerConfig()
	if yamlCfg.Runner != nil {
		if err := mergo.Merge(runnerCfg, yamlCfg.Runner, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge runner config: %w", err)
		}
	}

	llmCfg := DefaultLLMConfig()
	if yamlCfg.LLM != nil {
		if err := mergo.Merge(llmCfg, yamlCfg.LLM, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge llm config: %w", err)
		}
	}

	apiCfg := DefaultAPIConfig()
	if yamlCfg.API != nil {
		if err := mergo.Merge(apiCfg, yamlCfg.API, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge api config: %w", err)
		}
	}

	db := yamlCfg.Database
	if db == nil {
		db = &DatabaseYAMLConfig{}
	}
	connMaxLifetime, err := ParseDurationOrDefault(db.ConnMaxLifetime, time.Hour)
	if err != nil {
		return nil, NewLoadError(path, fmt.Errorf("invalid database.conn_max_lifetime: %w", err))
	}
	connMaxIdleTime, err := ParseDurationOrDefault(db.ConnMaxIdleTime, 15*time.Minute)
	if err != nil {
		return nil, NewLoadError(path, fmt.Errorf("invalid database.conn_max_idle_time: %w", err))
	}

	graph := yamlCfg.Graph
	if graph == nil {
		graph = &GraphYAMLConfig{}
	}

	llmTimeout := time.Duration(llmCfg.TimeoutSec) * time.Second
	if llmTimeout == 0 {
		llmTimeout = 120 * time.Second
	}

	return &Config{
		configDir: configDir,

		DBHost:            getEnvOrDefault("DB_HOST", orDefault(db.Host, "localhost")),
		DBPort:            atoiOrDefault(os.Getenv("DB_PORT"), orDefaultInt(db.Port, 5432)),
		DBUser:            getEnvOrDefault("DB_USER", orDefault(db.User, "arcline")),
		DBPassword:        resolveSecretEnv(db.PasswordEnv, "DB_PASSWORD"),
		DBName:            getEnvOrDefault("DB_NAME", orDefault(db.Database, "arcline")),
		DBSSLMode:         getEnvOrDefault("DB_SSLMODE", orDefault(db.SSLMode, "disable")),
		DBMaxOpen:         orDefaultInt(db.MaxOpenConns, 25),
		DBMaxIdle:         orDefaultInt(db.MaxIdleConns, 10),
		DBConnMaxLifetime: connMaxLifetime,
		DBConnMaxIdleTime: connMaxIdleTime,

		GraphURI:      getEnvOrDefault("GRAPH_URI", orDefault(graph.URI, "bolt://localhost:7687")),
		GraphUser:     getEnvOrDefault("GRAPH_USER", orDefault(graph.User, "neo4j")),
		GraphPassword: resolveSecretEnv(graph.PasswordEnv, "GRAPH_PASSWORD"),

		LLMBaseURL:    getEnvOrDefault("LLM_BASE_URL", llmCfg.BaseURL),
		LLMAPIKey:     resolveSecretEnv(llmCfg.APIKeyEnv, "LLM_API_KEY"),
		LLMModel:      getEnvOrDefault("LLM_MODEL", orDefault(llmCfg.Model, "gpt-4o-mini")),
		LLMTimeout:    llmTimeout,
		LLMMaxRetries: llmCfg.MaxRetries,

		Filter:       filterCfg,
		Connectivity: connCfg,
		Assembler:    assemblerCfg,
		Enrichment:   enrichCfg,
		Narrative:    narrativeCfg,
		Runner:       runnerCfg,

		APIListenAddr:  getEnvOrDefault("API_LISTEN_ADDR", apiCfg.ListenAddr),
		APIBearerToken: resolveSecretEnv(apiCfg.BearerTokenEnv, "EXTRACT_API_TOKEN"),
	}, nil
}

func validate(cfg *Config) error {
	v := NewValidator(cfg)
	return v.ValidateAll()
}

func resolveSecretEnv(envVar, fallbackVar string) string {
	if envVar != "" {
		if v := os.Getenv(envVar); v != "" {
			return v
		}
	}
	return os.Getenv(fallbackVar)
}

func getEnvOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func atoiOrDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func orDefaultInt(n, def int) int {
	if n == 0 {
		return def
	}
	return n
}
