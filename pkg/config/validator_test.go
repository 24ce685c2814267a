package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		DBHost:     "localhost",
		DBPassword: "secret",
		DBMaxOpen:  25,
		DBMaxIdle:  10,
		LLMBaseURL: "https://llm.internal",
		LLMAPIKey:  "sk-test",
		LLMTimeout: 1,
		Filter:       DefaultFilterConfig(),
		Connectivity: DefaultConnectivityConfig(),
		Assembler:    DefaultAssemblerConfig(),
		Enrichment:   DefaultEnrichmentConfig(),
		Narrative:    DefaultNarrativeConfig(),
		Runner:       DefaultRunnerConfig(),
	}
}

func TestValidateAll_Valid(t *testing.T) {
	require.NoError(t, NewValidator(validConfig()).ValidateAll())
}

func TestValidateAll_MissingDBPassword(t *testing.T) {
	cfg := validConfig()
	cfg.DBPassword = ""
	err := NewValidator(cfg).ValidateAll()
	assert.Error(t, err)
}

func TestValidateFilter_PromoteBelowMinShared(t *testing.T) {
	cfg := validConfig()
	cfg.Filter.GraphMinShared = 2
	cfg.Filter.GraphPromoteShared = 1
	err := NewValidator(cfg).ValidateAll()
	assert.Error(t, err)
}

func TestValidateConnectivity_CompositeThresholdOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.Connectivity.CompositeThreshold = 1.5
	err := NewValidator(cfg).ValidateAll()
	assert.Error(t, err)
}

func TestValidateRunner_MissingCheckpointDir(t *testing.T) {
	cfg := validConfig()
	cfg.Runner.CheckpointDir = ""
	err := NewValidator(cfg).ValidateAll()
	assert.Error(t, err)
}
