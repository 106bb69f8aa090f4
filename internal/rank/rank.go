// Package rank merges per-provider responses into a single ranked result
// set: organic search results, a single featured snippet/answer/infobox
// winner, image results, and autocomplete suggestions.
package rank

import (
	"math"
	"sort"

	"github.com/ambit-search/ambit/internal/provider"
	"github.com/ambit-search/ambit/internal/urls"
)

// Result is one deduplicated, scored item contributed by one or more
// providers.
type Result[R any] struct {
	Result  R
	Engines map[provider.ID]struct{}
	Score   float64
}

// FeaturedSnippet is the single highest-weight featured snippet across all
// providers that returned one.
type FeaturedSnippet struct {
	URL         string
	Title       string
	Description string
	Engine      provider.ID
}

// Answer is the single highest-weight instant-answer HTML blob.
type Answer struct {
	HTML   string
	Engine provider.ID
}

// Infobox is the single highest-weight infobox HTML blob.
type Infobox struct {
	HTML   string
	Engine provider.ID
}

// Weights maps a provider to the weight configured for it. A provider
// absent from the map is treated as weight 1.0, matching the default engine
// config.
type Weights map[provider.ID]float64

func (w Weights) of(id provider.ID) float64 {
	if v, ok := w[id]; ok {
		return v
	}
	return 1.0
}

// sortedKeys returns the map's provider keys in a fixed order so that
// result merging (and therefore tie-breaking among equal scores) is
// deterministic regardless of Go's randomized map iteration.
func sortedKeys[V any](m map[provider.ID]V) []provider.ID {
	keys := make([]provider.ID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func baseScore(index int) float64 {
	return 1.0 / float64(index+1)
}

// MergeSearchResults implements the organic-result merge and the
// single-winner selection for featured snippet, answer and infobox.
func MergeSearchResults(
	responses map[provider.ID]provider.EngineResponse,
	weights Weights,
	replace []urls.Rewrite,
	weightRules []urls.WeightRule,
) (results []Result[provider.EngineSearchResult], featured *FeaturedSnippet, answer *Answer, infobox *Infobox) {
	index := make(map[string]int)

	for _, engine := range sortedKeys(responses) {
		response := responses[engine]
		engineWeight := weights.of(engine)

		for pos, sr := range response.SearchResults {
			sr.URL = urls.ApplyRewrites(sr.URL, replace)
			urlWeight := urls.URLWeight(sr.URL, weightRules)
			if urlWeight <= 0 {
				continue
			}
			resultScore := baseScore(pos) * engineWeight * urlWeight

			if i, ok := index[sr.URL]; ok {
				existing := &results[i]
				maxWeight := 0.0
				for e := range existing.Engines {
					if w := weights.of(e); w > maxWeight {
						maxWeight = w
					}
				}
				if engineWeight > maxWeight {
					existing.Result.Title = sr.Title
					existing.Result.Description = sr.Description
				}
				existing.Engines[engine] = struct{}{}
				existing.Score += resultScore
				continue
			}

			index[sr.URL] = len(results)
			results = append(results, Result[provider.EngineSearchResult]{
				Result:  sr,
				Engines: map[provider.ID]struct{}{engine: {}},
				Score:   resultScore,
			})
		}

		if response.FeaturedSnippet != nil {
			candidate := *response.FeaturedSnippet
			candidate.URL = urls.ApplyRewrites(candidate.URL, replace)
			urlWeight := urls.URLWeight(candidate.URL, weightRules)
			if urlWeight > 0 {
				currentWeight := 0.0
				if featured != nil {
					currentWeight = weights.of(featured.Engine)
				}
				if engineWeight > currentWeight {
					featured = &FeaturedSnippet{
						URL:         candidate.URL,
						Title:       candidate.Title,
						Description: candidate.Description,
						Engine:      engine,
					}
				}
			}
		}

		if response.AnswerHTML != "" {
			currentWeight := 0.0
			if answer != nil {
				currentWeight = weights.of(answer.Engine)
			}
			if engineWeight > currentWeight {
				answer = &Answer{HTML: response.AnswerHTML, Engine: engine}
			}
		}

		if response.InfoboxHTML != "" {
			currentWeight := 0.0
			if infobox != nil {
				currentWeight = weights.of(infobox.Engine)
			}
			if engineWeight > currentWeight {
				infobox = &Infobox{HTML: response.InfoboxHTML, Engine: engine}
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return results, featured, answer, infobox
}

// MergeImagesResponses implements the image-result merge: same scoring and
// dedup-by-key rule as organic results, but keyed on image URL with no
// rewrite rules applied, and only title/page URL are overwritable.
func MergeImagesResponses(
	responses map[provider.ID]provider.EngineImagesResponse,
	weights Weights,
) []Result[provider.EngineImageResult] {
	var results []Result[provider.EngineImageResult]
	index := make(map[string]int)

	for _, engine := range sortedKeys(responses) {
		response := responses[engine]
		engineWeight := weights.of(engine)

		for pos, ir := range response.ImageResults {
			resultScore := baseScore(pos) * engineWeight

			if i, ok := index[ir.ImageURL]; ok {
				existing := &results[i]
				maxWeight := 0.0
				for e := range existing.Engines {
					if w := weights.of(e); w > maxWeight {
						maxWeight = w
					}
				}
				if engineWeight > maxWeight {
					existing.Result.Title = ir.Title
					existing.Result.PageURL = ir.PageURL
				}
				existing.Engines[engine] = struct{}{}
				existing.Score += resultScore
				continue
			}

			index[ir.ImageURL] = len(results)
			results = append(results, Result[provider.EngineImageResult]{
				Result:  ir,
				Engines: map[provider.ID]struct{}{engine: {}},
				Score:   resultScore,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return results
}

// MergeAutocompleteResponses unions suggestion strings across providers by
// exact match, accumulating score, with no fuzzy matching.
func MergeAutocompleteResponses(responses map[provider.ID][]string, weights Weights) []string {
	type entry struct {
		query string
		score float64
	}
	var entries []entry
	index := make(map[string]int)

	for _, engine := range sortedKeys(responses) {
		engineWeight := weights.of(engine)
		for pos, query := range responses[engine] {
			score := baseScore(pos) * engineWeight
			if i, ok := index[query]; ok {
				entries[i].score += score
				continue
			}
			index[query] = len(entries)
			entries = append(entries, entry{query: query, score: score})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].score > entries[j].score })

	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.query
	}
	return out
}

// FiniteWeight reports whether a configured weight is safe to use in
// scoring: NaN and infinities must never enter a score.
func FiniteWeight(w float64) bool {
	return !math.IsNaN(w) && !math.IsInf(w, 0)
}
