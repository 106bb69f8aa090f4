package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambit-search/ambit/internal/provider"
	"github.com/ambit-search/ambit/internal/urls"
)

func TestMergeSearchResults_ScenarioA(t *testing.T) {
	p1, p2 := provider.ID("p1"), provider.ID("p2")
	responses := map[provider.ID]provider.EngineResponse{
		p1: {SearchResults: []provider.EngineSearchResult{
			{URL: "https://a.test", Title: "A"},
			{URL: "https://b.test", Title: "B1"},
		}},
		p2: {SearchResults: []provider.EngineSearchResult{
			{URL: "https://b.test", Title: "B2"},
			{URL: "https://c.test", Title: "C"},
		}},
	}
	weights := Weights{p1: 1.0, p2: 2.0}

	results, _, _, _ := MergeSearchResults(responses, weights, nil, nil)

	require.Len(t, results, 3)
	assert.Equal(t, "https://b.test", results[0].Result.URL)
	assert.Equal(t, "B2", results[0].Result.Title)
	assert.InDelta(t, 2.5, results[0].Score, 1e-9)
	assert.Len(t, results[0].Engines, 2)

	assert.Equal(t, "https://a.test", results[1].Result.URL)
	assert.InDelta(t, 1.0, results[1].Score, 1e-9)

	assert.Equal(t, "https://c.test", results[2].Result.URL)
	assert.InDelta(t, 1.0, results[2].Score, 1e-9)
}

func TestMergeSearchResults_TieKeepsExistingTitle(t *testing.T) {
	p1, p2 := provider.ID("p1"), provider.ID("p2")
	responses := map[provider.ID]provider.EngineResponse{
		p1: {SearchResults: []provider.EngineSearchResult{{URL: "https://a.test", Title: "first"}}},
		p2: {SearchResults: []provider.EngineSearchResult{{URL: "https://a.test", Title: "second"}}},
	}
	weights := Weights{p1: 1.0, p2: 1.0}

	results, _, _, _ := MergeSearchResults(responses, weights, nil, nil)

	require.Len(t, results, 1)
	assert.Equal(t, "first", results[0].Result.Title)
}

func TestMergeSearchResults_ZeroOrNegativeURLWeightDrops(t *testing.T) {
	p1 := provider.ID("p1")
	responses := map[provider.ID]provider.EngineResponse{
		p1: {SearchResults: []provider.EngineSearchResult{{URL: "https://dead.test"}}},
	}
	weights := Weights{p1: 1.0}
	weightRules := []urls.WeightRule{{Match: urls.HostPath{Host: "dead.test"}, Weight: 0}}

	results, _, _, _ := MergeSearchResults(responses, weights, nil, weightRules)
	assert.Empty(t, results)
}

func TestMergeSearchResults_SingleWinnerMonotonic(t *testing.T) {
	p1, p2 := provider.ID("low"), provider.ID("high")
	responses := map[provider.ID]provider.EngineResponse{
		p1: {InfoboxHTML: "<p>low</p>"},
		p2: {InfoboxHTML: "<p>high</p>"},
	}
	weights := Weights{p1: 1.0, p2: 5.0}

	_, _, _, infobox := MergeSearchResults(responses, weights, nil, nil)
	require.NotNil(t, infobox)
	assert.Equal(t, "<p>high</p>", infobox.HTML)
	assert.Equal(t, p2, infobox.Engine)
}

func TestMergeAutocompleteResponses_SortsByAccumulatedScore(t *testing.T) {
	p1, p2 := provider.ID("p1"), provider.ID("p2")
	responses := map[provider.ID][]string{
		p1: {"foo", "bar"},
		p2: {"bar", "baz"},
	}
	weights := Weights{p1: 1.0, p2: 1.0}

	out := MergeAutocompleteResponses(responses, weights)
	require.Len(t, out, 3)
	assert.Equal(t, "bar", out[0])
}

func TestMergeImagesResponses_OverwritesTitleAndPageURLNotDescription(t *testing.T) {
	p1, p2 := provider.ID("a-low"), provider.ID("b-high")
	responses := map[provider.ID]provider.EngineImagesResponse{
		p1: {ImageResults: []provider.EngineImageResult{{ImageURL: "https://img/1", Title: "lo", PageURL: "https://page/lo"}}},
		p2: {ImageResults: []provider.EngineImageResult{{ImageURL: "https://img/1", Title: "hi", PageURL: "https://page/hi"}}},
	}
	weights := Weights{p1: 1.0, p2: 2.0}

	results := MergeImagesResponses(responses, weights)
	require.Len(t, results, 1)
	assert.Equal(t, "hi", results[0].Result.Title)
	assert.Equal(t, "https://page/hi", results[0].Result.PageURL)
}

func TestFiniteWeight(t *testing.T) {
	assert.True(t, FiniteWeight(1.0))
	assert.False(t, FiniteWeight(0.0/zero()))
}

func zero() float64 { return 0 }
