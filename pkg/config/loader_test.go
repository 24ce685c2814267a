package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pipeline.yaml"), []byte(contents), 0o644))
	return dir
}

func TestInitialize_Defaults(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("LLM_API_KEY", "sk-test")

	dir := writeTestConfig(t, `
llm:
  base_url: "https://llm.internal/v1/chat/completions"
`)

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "secret", cfg.DBPassword)
	assert.Equal(t, "sk-test", cfg.LLMAPIKey)
	assert.Equal(t, 50, cfg.Assembler.BatchSize)
	assert.Equal(t, 2, cfg.Filter.GraphMinShared)
	assert.Equal(t, 3, cfg.Filter.GraphPromoteShared)
	assert.Equal(t, 0.3, cfg.Connectivity.CompositeThreshold)
}

func TestInitialize_YAMLOverridesDefault(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("LLM_API_KEY", "sk-test")

	dir := writeTestConfig(t, `
llm:
  base_url: "https://llm.internal/v1/chat/completions"
assembler:
  batch_size: 25
connectivity:
  pair_cap: 10000
`)

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Assembler.BatchSize)
	assert.Equal(t, 10000, cfg.Connectivity.PairCap)
}

func TestInitialize_MissingRequiredFieldFails(t *testing.T) {
	dir := writeTestConfig(t, ``)
	_, err := Initialize(context.Background(), dir)
	assert.Error(t, err)
}

func TestInitialize_EnvExpansion(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("LLM_ENDPOINT", "https://llm.internal/v1/chat/completions")

	dir := writeTestConfig(t, `
llm:
  base_url: "${LLM_ENDPOINT}"
`)

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "https://llm.internal/v1/chat/completions", cfg.LLMBaseURL)
}
