package httpapi

import (
	"bufio"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambit-search/ambit/internal/config"
	"github.com/ambit-search/ambit/internal/fanout"
	"github.com/ambit-search/ambit/internal/postsearch"
	"github.com/ambit-search/ambit/internal/provider"
)

func searchTestHandler(cfg *config.Config) *Handler {
	registry := provider.NewRegistry()
	registry.Register(instantSearchProvider{id: "a", resp: provider.EngineResponse{
		SearchResults: []provider.EngineSearchResult{{URL: "https://a.example", Title: "A"}},
	}})
	executor := fanout.NewSearchExecutor(registry, fanout.GoroutinePool())
	postSearchRunner := postsearch.NewRunner(registry, fanout.GoroutinePool())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(registry, executor, postSearchRunner, func() *config.Config { return cfg }, logger)
}

type instantSearchProvider struct {
	id   provider.ID
	resp provider.EngineResponse
}

func (p instantSearchProvider) ID() provider.ID                   { return p.id }
func (p instantSearchProvider) Capabilities() provider.Capability { return provider.Search }
func (p instantSearchProvider) BuildRequest(_ *provider.SearchQuery) provider.RequestPlan {
	return provider.InstantPlan(p.resp)
}
func (p instantSearchProvider) ParseResponse(_ *http.Response, _ []byte, _ provider.ConfigView) provider.EngineResponse {
	return provider.EngineResponse{}
}

func baseConfig() *config.Config {
	return &config.Config{
		Engines: map[provider.ID]config.EngineConfig{"a": {Enabled: true, Weight: 1.0}},
	}
}

func TestHandleSearch_EmptyQueryRedirects(t *testing.T) {
	h := searchTestHandler(baseConfig())

	req := httptest.NewRequest(http.MethodGet, "/search?q=", nil)
	rec := httptest.NewRecorder()
	h.handleSearch(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestHandleSearch_JSONMode_ReturnsMergedResponse(t *testing.T) {
	cfg := baseConfig()
	cfg.API = true
	h := searchTestHandler(cfg)

	req := httptest.NewRequest(http.MethodGet, "/search?q=golang", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.handleSearch(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body searchJSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Response.SearchResults, 1)
	assert.Equal(t, "https://a.example", body.Response.SearchResults[0].Result.URL)
}

func TestHandleSearch_DefaultsToStreamingWhenJSONNotRequested(t *testing.T) {
	cfg := baseConfig()
	cfg.API = true
	h := searchTestHandler(cfg)

	req := httptest.NewRequest(http.MethodGet, "/search?q=golang", nil)
	rec := httptest.NewRecorder()
	h.handleSearch(rec, req)

	assert.Contains(t, rec.Header().Get("Content-Type"), "text/event-stream")

	scanner := bufio.NewScanner(strings.NewReader(rec.Body.String()))
	sawResponseEvent := false
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), "event: response") {
			sawResponseEvent = true
		}
	}
	assert.True(t, sawResponseEvent)
}

func TestWantsJSON_RequiresBothAPIFlagAndAcceptHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/search?q=golang", nil)
	req.Header.Set("Accept", "application/json")

	assert.False(t, wantsJSON(req, &config.Config{API: false}))
	assert.True(t, wantsJSON(req, &config.Config{API: true}))

	reqNoAccept := httptest.NewRequest(http.MethodGet, "/search?q=golang", nil)
	assert.False(t, wantsJSON(reqNoAccept, &config.Config{API: true}))
}
