package efassembler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arclinehq/arcline/pkg/config"
	"github.com/arclinehq/arcline/pkg/efassembler"
	"github.com/arclinehq/arcline/pkg/llmclient"
	"github.com/arclinehq/arcline/pkg/titlestore"
	testdb "github.com/arclinehq/arcline/test/database"
)

// chatResponseBody mirrors llmclient's private wire shape just enough to
// drive a fake chat-completion server from tests in another package.
type chatResponseBody struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func fakeLLMServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := chatResponseBody{}
		body.Choices = []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		}{{}}
		body.Choices[0].Message.Content = content
		_ = json.NewEncoder(w).Encode(body)
	}))
}

func seedTitle(t *testing.T, store *titlestore.Store, id string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.UpsertTitle(ctx, &titlestore.Title{
		ID: id, DisplayText: fmt.Sprintf("Summit headline %s", id), NormalizedText: "summit",
		Publisher: "Reuters", PublishedAt: time.Now(), Language: "en",
	}))
	require.NoError(t, store.MarkVerdict(ctx, id, titlestore.VerdictStrategic, "mechanical KEEP",
		[]titlestore.Entity{{Text: "Summit", Type: "EVENT"}}, nil))
}

func defaultAssemblerCfg() *config.AssemblerConfig {
	return &config.AssemblerConfig{
		BatchSize:        50,
		Temperature:      0,
		RetryTemperature: 0.1,
		MaxTokens:        2048,
	}
}

func TestRunGroupsTenTitlesIntoOneEF(t *testing.T) {
	db := testdb.NewTestClient(t)
	titles := titlestore.New(db.DB())
	ctx := context.Background()

	ids := make([]string, 10)
	for i := range ids {
		ids[i] = fmt.Sprintf("T%d", i+1)
		seedTitle(t, titles, ids[i])
	}

	idsJSON, err := json.Marshal(ids)
	require.NoError(t, err)
	llmContent := fmt.Sprintf(`[{"title": "Diplomatic Summit", "summary": "A summit between strategic actors.",
		"key_actors": ["United States", "European Union"], "event_type": "diplomacy",
		"geography": "Europe", "event_start": "2026-01-01T00:00:00Z", "event_end": "",
		"source_title_ids": %s, "confidence": 0.8, "coherence_reason": "single ongoing summit narrative"}]`,
		string(idsJSON))

	server := fakeLLMServer(t, llmContent)
	defer server.Close()

	llm := llmclient.New(&config.LLMYAMLConfig{BaseURL: server.URL, Model: "test", TimeoutSec: 5}, "test-key")
	asm := efassembler.New(titles, llm, nil, nil, defaultAssemblerCfg())

	result, err := asm.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.EFsCreated)
	assert.Equal(t, 10, result.TitlesAssigned)

	remaining, err := titles.LoadUnassignedStrategic(ctx, 0, titlestore.OrderPublishedDesc)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	// A subsequent run finds zero unassigned titles and creates no EFs.
	second, err := asm.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.EFsCreated)
}

func TestRunDropsSingleTitleEFWithoutCoherenceReason(t *testing.T) {
	db := testdb.NewTestClient(t)
	titles := titlestore.New(db.DB())
	ctx := context.Background()
	seedTitle(t, titles, "S1")

	llmContent := `[{"title": "Lone headline", "summary": "not really coherent alone",
		"key_actors": [], "event_type": "", "geography": "", "event_start": "", "event_end": "",
		"source_title_ids": ["S1"], "confidence": 0.9, "coherence_reason": ""}]`

	server := fakeLLMServer(t, llmContent)
	defer server.Close()

	llm := llmclient.New(&config.LLMYAMLConfig{BaseURL: server.URL, Model: "test", TimeoutSec: 5}, "test-key")
	asm := efassembler.New(titles, llm, nil, nil, defaultAssemblerCfg())

	result, err := asm.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.EFsCreated)
	assert.Equal(t, 1, result.Dropped)
}
