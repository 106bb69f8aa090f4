package engines

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambit-search/ambit/internal/provider"
)

func TestStackOverflow_BuildPostSearchRequest_FindsFirstMatchingResult(t *testing.T) {
	p := NewStackOverflow().(stackoverflowProvider)
	phaseOne := &provider.EngineResponse{
		SearchResults: []provider.EngineSearchResult{
			{URL: "https://example.com/unrelated"},
			{URL: "https://stackoverflow.com/questions/123/how-to-x"},
			{URL: "https://stackoverflow.com/questions/456/another"},
		},
	}
	req := p.BuildPostSearchRequest(phaseOne)
	require.NotNil(t, req)
	assert.Equal(t, "https://stackoverflow.com/questions/123/how-to-x", req.URL.String())
}

func TestStackOverflow_BuildPostSearchRequest_DeclinesWithoutMatch(t *testing.T) {
	p := NewStackOverflow().(stackoverflowProvider)
	phaseOne := &provider.EngineResponse{
		SearchResults: []provider.EngineSearchResult{{URL: "https://example.com/unrelated"}},
	}
	assert.Nil(t, p.BuildPostSearchRequest(phaseOne))
}

func TestStackOverflow_ParsePostSearchResponse_ExtractsAcceptedAnswer(t *testing.T) {
	html := `
	<html><body>
		<h1>How do I reverse a slice?</h1>
		<a class="question-hyperlink" href="/questions/123/how-to-x">How do I reverse a slice?</a>
		<div class="answer accepted-answer" data-answerid="789">
			<div class="answercell"><div class="js-post-body"><p>Use a loop.</p></div></div>
		</div>
	</body></html>`

	p := NewStackOverflow().(stackoverflowProvider)
	out := p.ParsePostSearchResponse([]byte(html))
	assert.Contains(t, out, "How do I reverse a slice?")
	assert.Contains(t, out, "Use a loop.")
	assert.Contains(t, out, "#789")
}

func TestStackOverflow_ParsePostSearchResponse_EmptyWithoutAcceptedAnswer(t *testing.T) {
	html := `<html><body><h1>Some question</h1></body></html>`
	p := NewStackOverflow().(stackoverflowProvider)
	assert.Equal(t, "", p.ParsePostSearchResponse([]byte(html)))
}
