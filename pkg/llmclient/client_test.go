package llmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arclinehq/arcline/pkg/config"
)

func TestPostEditFixesStaleRoles(t *testing.T) {
	in := "Former President Trump met with opposition leader Merz in Berlin."
	out := postEdit(in)
	assert.Equal(t, "President Trump met with Chancellor Merz in Berlin.", out)
}

func TestExtractJSONBlockFindsFirstValidSpan(t *testing.T) {
	text := "Sure, here you go:\n```json\n{\"a\": 1, \"b\": [1,2,3]}\n```\nHope that helps!"
	block, ok := extractJSONBlock(text)
	require.True(t, ok)
	assert.JSONEq(t, `{"a": 1, "b": [1,2,3]}`, block)
}

func TestExtractJSONBlockNoBlock(t *testing.T) {
	_, ok := extractJSONBlock("no json here at all")
	assert.False(t, ok)
}

func TestCompleteJSONFallsBackToExtraction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := chatResponse{}
		resp.Choices = []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		}{
			{Message: struct {
				Content string `json:"content"`
			}{Content: "Here's the result: {\"total_score\": 7} -- done"}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	cfg := &config.LLMYAMLConfig{BaseURL: server.URL, Model: "test-model", TimeoutSec: 5, MaxRetries: 0}
	client := New(cfg, "test-key")

	var out struct {
		TotalScore int `json:"total_score"`
	}
	_, err := client.CompleteJSON(context.Background(), "sys", "give me json", Options{MaxTokens: 100}, &out)
	require.NoError(t, err)
	assert.Equal(t, 7, out.TotalScore)
}
