package provider

import (
	"context"
	"net/http"
)

// SearchAdapter is the search half of a provider's contract. BuildRequest
// decides whether the provider participates at all; ParseResponse only runs
// when BuildRequest returned an HTTP plan.
type SearchAdapter interface {
	BuildRequest(query *SearchQuery) RequestPlan
	ParseResponse(resp *http.Response, body []byte, cfg ConfigView) EngineResponse
}

// AutocompleteAdapter is the suggestion-list half of a provider's contract.
type AutocompleteAdapter interface {
	BuildAutocompleteRequest(query *SearchQuery) AutocompletePlan
	ParseAutocompleteResponse(body []byte) []string
}

// PostSearchAdapter enriches a phase-one response. BuildPostSearchRequest returns nil
// when the phase-one response gives the provider nothing to act on.
type PostSearchAdapter interface {
	BuildPostSearchRequest(phaseOne *EngineResponse) *http.Request
	ParsePostSearchResponse(body []byte) string
}

// DirectPostSearchAdapter is an alternative to PostSearchAdapter for
// providers whose enrichment backend isn't plain HTTP request/response
// (e.g. a gRPC vector database query). Enrich runs the whole round trip
// itself and returns the infobox HTML, or an empty string to decline.
type DirectPostSearchAdapter interface {
	Enrich(ctx context.Context, phaseOne *EngineResponse) string
}

// ImagesAdapter is the image-search half of a provider's contract.
type ImagesAdapter interface {
	BuildImagesRequest(query *SearchQuery) RequestPlan
	ParseImagesResponse(resp *http.Response, body []byte) EngineImagesResponse
}

// Provider is a single registered backend. A concrete provider implements
// whichever adapter interfaces match its Capabilities; the fan-out and
// post-search executors type-assert for the ones they need and skip a
// provider silently when it doesn't implement one.
type Provider interface {
	ID() ID
	Capabilities() Capability
}
