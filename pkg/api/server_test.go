package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arclinehq/arcline/pkg/api"
	"github.com/arclinehq/arcline/pkg/config"
	"github.com/arclinehq/arcline/pkg/ctm"
	"github.com/arclinehq/arcline/pkg/narrative"
	"github.com/arclinehq/arcline/pkg/titlestore"
	testdb "github.com/arclinehq/arcline/test/database"
)

type fakeExtractor struct {
	frames []narrative.Frame
	err    error
}

func (f *fakeExtractor) Run(ctx context.Context, entityType narrative.EntityType, entityID string, population []narrative.SampleTitle) ([]narrative.Frame, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.frames, nil
}

type fakeFrameStore struct {
	replaced []narrative.Frame
}

func (f *fakeFrameStore) Replace(ctx context.Context, entityType narrative.EntityType, entityID string, frames []narrative.Frame) error {
	f.replaced = frames
	return nil
}

func defaultNarrativeCfg() *config.NarrativeConfig {
	return &config.NarrativeConfig{MinEventTitles: 5, MinCTMTitles: 20}
}

func seedEFWithNTitles(t *testing.T, titles *titlestore.Store, n int) string {
	t.Helper()
	ctx := context.Background()
	ef := &titlestore.EventFamily{
		ID: fmt.Sprintf("ef-extract-%d", n), Title: "Extraction candidate", Summary: "summary",
		KeyActors: []string{"Iran"}, EventType: "diplomacy", PrimaryTheater: "middle east",
		Confidence: 0.8, CoherenceRationale: "seed", Status: titlestore.EFStatusSeed,
	}
	require.NoError(t, titles.CreateEF(ctx, ef))

	var ids []string
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%s-T%d", ef.ID, i+1)
		ids = append(ids, id)
		require.NoError(t, titles.UpsertTitle(ctx, &titlestore.Title{
			ID: id, DisplayText: "headline", NormalizedText: "headline",
			Publisher: "Reuters", PublishedAt: time.Now(), Language: "en",
		}))
		require.NoError(t, titles.MarkVerdict(ctx, id, titlestore.VerdictStrategic, "keep", nil, nil))
	}
	if len(ids) > 0 {
		_, _, err := titles.AssignToEF(ctx, ids, ef.ID, 0.8, "seed")
		require.NoError(t, err)
	}
	return ef.ID
}

func newBodyReader(b []byte) io.Reader { return bytes.NewReader(b) }

func newTestServer(t *testing.T, extractor *fakeExtractor, frameStore *fakeFrameStore) (*httptest.Server, *titlestore.Store) {
	t.Helper()
	db := testdb.NewTestClient(t)
	titles := titlestore.New(db.DB())
	ctmStore := ctm.New(db.DB())

	svc := api.NewExtractService(titles, ctmStore, extractor, frameStore, defaultNarrativeCfg())
	srv := api.NewServer(db, svc, "test-token")
	return httptest.NewServer(srv.Handler()), titles
}

func TestExtractEndpoint_HappyPath(t *testing.T) {
	frames := []narrative.Frame{{Label: "escalation", Description: "desc", TitleCount: 5}}
	extractor := &fakeExtractor{frames: frames}
	frameStore := &fakeFrameStore{}
	server, titles := newTestServer(t, extractor, frameStore)
	defer server.Close()

	efID := seedEFWithNTitles(t, titles, 5)

	body, _ := json.Marshal(api.ExtractRequest{EntityType: "event", EntityID: efID})
	req, _ := http.NewRequest(http.MethodPost, server.URL+"/extract", newBodyReader(body))
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var out api.ExtractResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Frames, 1)
	assert.Equal(t, "escalation", out.Frames[0].Label)
	assert.Len(t, frameStore.replaced, 1, "the service should persist what the extractor returned")
}

func TestExtractEndpoint_RejectsEventWithTooFewTitles(t *testing.T) {
	server, titles := newTestServer(t, &fakeExtractor{}, &fakeFrameStore{})
	defer server.Close()

	efID := seedEFWithNTitles(t, titles, 2)

	body, _ := json.Marshal(api.ExtractRequest{EntityType: "event", EntityID: efID})
	req, _ := http.NewRequest(http.MethodPost, server.URL+"/extract", newBodyReader(body))
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestExtractEndpoint_RejectsMissingBearerToken(t *testing.T) {
	server, _ := newTestServer(t, &fakeExtractor{}, &fakeFrameStore{})
	defer server.Close()

	body, _ := json.Marshal(api.ExtractRequest{EntityType: "event", EntityID: "whatever"})
	req, _ := http.NewRequest(http.MethodPost, server.URL+"/extract", newBodyReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestExtractEndpoint_RejectsUnknownEntityType(t *testing.T) {
	server, _ := newTestServer(t, &fakeExtractor{}, &fakeFrameStore{})
	defer server.Close()

	body, _ := json.Marshal(api.ExtractRequest{EntityType: "epic", EntityID: "whatever"})
	req, _ := http.NewRequest(http.MethodPost, server.URL+"/extract", newBodyReader(body))
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthEndpoint_ReportsOKOverAWorkingDatabase(t *testing.T) {
	server, _ := newTestServer(t, &fakeExtractor{}, &fakeFrameStore{})
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var out api.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "ok", out.Status)
}
