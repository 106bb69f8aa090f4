package postsearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambit-search/ambit/internal/config"
	"github.com/ambit-search/ambit/internal/fanout"
	"github.com/ambit-search/ambit/internal/provider"
	"github.com/ambit-search/ambit/internal/rank"
	"github.com/ambit-search/ambit/internal/stream"
)

func nonEmptySearchResults() []rank.Result[provider.EngineSearchResult] {
	return []rank.Result[provider.EngineSearchResult]{
		{
			Result:  provider.EngineSearchResult{URL: "https://example.test/a", Title: "A"},
			Engines: map[provider.ID]struct{}{"a": {}},
			Score:   1.0,
		},
	}
}

// stubPostSearchProvider fetches srv (a local test server, so the test
// never touches the network) and always "parses" the response as html.
type stubPostSearchProvider struct {
	id   provider.ID
	srv  *httptest.Server
	html string
}

func (p stubPostSearchProvider) ID() provider.ID                   { return p.id }
func (p stubPostSearchProvider) Capabilities() provider.Capability { return provider.PostSearch }
func (p stubPostSearchProvider) BuildPostSearchRequest(phaseOne *provider.EngineResponse) *http.Request {
	if len(phaseOne.SearchResults) == 0 || p.srv == nil {
		return nil
	}
	req, _ := http.NewRequest(http.MethodGet, p.srv.URL, nil)
	return req
}
func (p stubPostSearchProvider) ParsePostSearchResponse(_ []byte) string { return p.html }

type stubDirectProvider struct {
	id   provider.ID
	html string
}

func (p stubDirectProvider) ID() provider.ID                   { return p.id }
func (p stubDirectProvider) Capabilities() provider.Capability { return provider.PostSearch }
func (p stubDirectProvider) Enrich(_ context.Context, _ *provider.EngineResponse) string {
	return p.html
}

func testConfig(ids ...provider.ID) *config.Config {
	engines := make(map[provider.ID]config.EngineConfig, len(ids))
	for _, id := range ids {
		engines[id] = config.EngineConfig{Enabled: true, Weight: 1.0}
	}
	return &config.Config{Engines: engines}
}

func newTestServer(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunner_Run_SkipsWhenInfoboxAlreadyPresent(t *testing.T) {
	registry := provider.NewRegistry()
	registry.Register(stubPostSearchProvider{id: "a", srv: newTestServer(t), html: "<div>a</div>"})

	runner := NewRunner(registry, fanout.GoroutinePool())
	var updates []stream.Update
	runner.Run(context.Background(), stream.ResponseForTab{}, true, testConfig("a"), time.Now(), func(u stream.Update) {
		updates = append(updates, u)
	})
	assert.Empty(t, updates)
}

func TestRunner_Run_PicksWinnerInRegistryOrder(t *testing.T) {
	registry := provider.NewRegistry()
	registry.Register(
		stubPostSearchProvider{id: "stackoverflow", srv: newTestServer(t), html: ""},
		stubPostSearchProvider{id: "mdn", srv: newTestServer(t), html: "<div>mdn wins</div>"},
	)

	runner := NewRunner(registry, fanout.GoroutinePool())
	input := stream.ResponseForTab{SearchResults: nonEmptySearchResults()}

	var got *string
	runner.Run(context.Background(), input, false, testConfig("stackoverflow", "mdn"), time.Now(), func(u stream.Update) {
		if u.Data.PostSearchInfobox != nil {
			html := u.Data.PostSearchInfobox.HTML
			got = &html
		}
	})

	require.NotNil(t, got)
	assert.Equal(t, "<div>mdn wins</div>", *got)
}

func TestRunner_Run_DirectAdapterWins(t *testing.T) {
	registry := provider.NewRegistry()
	registry.Register(stubDirectProvider{id: "related", html: "<div>related</div>"})

	input := stream.ResponseForTab{SearchResults: nonEmptySearchResults()}
	runner := NewRunner(registry, fanout.GoroutinePool())

	var got *string
	runner.Run(context.Background(), input, false, testConfig("related"), time.Now(), func(u stream.Update) {
		if u.Data.PostSearchInfobox != nil {
			html := u.Data.PostSearchInfobox.HTML
			got = &html
		}
	})

	require.NotNil(t, got)
	assert.Equal(t, "<div>related</div>", *got)
}
