package engines

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambit-search/ambit/internal/provider"
)

func TestMDN_BuildPostSearchRequest_FindsFirstMDNResult(t *testing.T) {
	p := NewMDN().(provider.PostSearchAdapter)

	phaseOne := &provider.EngineResponse{
		SearchResults: []provider.EngineSearchResult{
			{URL: "https://stackoverflow.com/questions/1"},
			{URL: "https://developer.mozilla.org/en-US/docs/Web/JavaScript/Array"},
		},
	}

	req := p.BuildPostSearchRequest(phaseOne)
	require.NotNil(t, req)
	assert.Equal(t, "https://developer.mozilla.org/en-US/docs/Web/JavaScript/Array", req.URL.String())
}

func TestMDN_BuildPostSearchRequest_DeclinesWithoutMDNResult(t *testing.T) {
	p := NewMDN().(provider.PostSearchAdapter)

	phaseOne := &provider.EngineResponse{
		SearchResults: []provider.EngineSearchResult{{URL: "https://stackoverflow.com/questions/1"}},
	}

	assert.Nil(t, p.BuildPostSearchRequest(phaseOne))
}

func TestMDN_ParsePostSearchResponse_ExtractsTitleAndSummary(t *testing.T) {
	p := NewMDN().(provider.PostSearchAdapter)

	body := []byte(`
		<html><body>
			<h1>Array</h1>
			<article><div class="section-content"><p>The Array object.</p></div></article>
		</body></html>
	`)

	html := p.ParsePostSearchResponse(body)
	assert.Contains(t, html, "Array")
	assert.Contains(t, html, "The Array object.")
}

func TestMDN_ParsePostSearchResponse_EmptyWhenMissingSummary(t *testing.T) {
	p := NewMDN().(provider.PostSearchAdapter)

	body := []byte(`<html><body><h1>Array</h1></body></html>`)

	assert.Empty(t, p.ParsePostSearchResponse(body))
}
