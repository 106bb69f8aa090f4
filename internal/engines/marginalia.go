package engines

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ambit-search/ambit/internal/clientpool"
	"github.com/ambit-search/ambit/internal/provider"
)

// marginaliaProvider queries Marginalia's public JSON search API, an
// independent small-web-focused index that favors different results than
// the mainstream engines.
type marginaliaProvider struct{}

func NewMarginalia() provider.Provider { return marginaliaProvider{} }

func (marginaliaProvider) ID() provider.ID { return "marginalia" }

func (marginaliaProvider) Capabilities() provider.Capability {
	return provider.Search | provider.Autocomplete
}

func (marginaliaProvider) BuildRequest(query *provider.SearchQuery) provider.RequestPlan {
	extra := query.Config.ProviderExtra("marginalia")
	apiKey, _ := extra["api_key"].(string)
	if apiKey == "" {
		slog.Default().Warn("no api_key configured, declining", "provider", "marginalia")
		return provider.NoPlan()
	}

	u := &url.URL{
		Scheme:   "https",
		Host:     "api.marginalia.nu",
		Path:     "/" + apiKey + "/search/" + url.PathEscape(query.Query),
		RawQuery: url.Values{"count": {"20"}}.Encode(),
	}
	req, err := clientpool.NewRequest(http.MethodGet, u.String())
	if err != nil {
		return provider.NoPlan()
	}
	return provider.HTTPPlan(req)
}

func (marginaliaProvider) ParseResponse(_ *http.Response, body []byte, _ provider.ConfigView) provider.EngineResponse {
	var results []provider.EngineSearchResult
	gjson.GetBytes(body, "results").ForEach(func(_, item gjson.Result) bool {
		u := item.Get("url").String()
		if u == "" {
			return true
		}
		results = append(results, provider.EngineSearchResult{
			URL:         u,
			Title:       item.Get("title").String(),
			Description: strings.TrimSpace(item.Get("description").String()),
		})
		return true
	})
	return provider.EngineResponse{SearchResults: results}
}

// BuildAutocompleteRequest has no network call: Marginalia has no
// suggestion endpoint, so this provider always declines autocomplete and
// contributes nothing to the autocomplete merge.
func (marginaliaProvider) BuildAutocompleteRequest(_ *provider.SearchQuery) provider.AutocompletePlan {
	return provider.NoAutocompletePlan()
}

func (marginaliaProvider) ParseAutocompleteResponse(_ []byte) []string { return nil }
