package engines

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ambit-search/ambit/internal/clientpool"
	"github.com/ambit-search/ambit/internal/provider"
)

// braveProvider scrapes Brave's organic search and image results.
type braveProvider struct{}

func NewBrave() provider.Provider { return braveProvider{} }

func (braveProvider) ID() provider.ID { return "brave" }

func (braveProvider) Capabilities() provider.Capability {
	return provider.Search | provider.Autocomplete | provider.Images
}

// BuildRequest declines exact-match queries: Brave no longer supports
// quoted exact matching and folds quoted queries back into a fuzzy search,
// which would just pollute the merge with irrelevant results.
func (braveProvider) BuildRequest(query *provider.SearchQuery) provider.RequestPlan {
	if strings.ContainsRune(query.Query, '"') {
		return provider.NoPlan()
	}

	u := &url.URL{
		Scheme:   "https",
		Host:     "search.brave.com",
		Path:     "/search",
		RawQuery: url.Values{"q": {query.Query}}.Encode(),
	}
	req, err := clientpool.NewRequest(http.MethodGet, u.String())
	if err != nil {
		return provider.NoPlan()
	}
	return provider.HTTPPlan(req)
}

func (braveProvider) ParseResponse(_ *http.Response, body []byte, _ provider.ConfigView) provider.EngineResponse {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return provider.EngineResponse{}
	}

	var results []provider.EngineSearchResult
	doc.Find("#results > .snippet[data-pos]:not(.standalone)").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Find("a").Attr("href")
		title := strings.TrimSpace(s.Find(".title").First().Text())
		description := strings.TrimSpace(s.Find(".snippet-content, .video-snippet > .snippet-description").First().Text())
		if href == "" || title == "" {
			return
		}
		results = append(results, provider.EngineSearchResult{URL: href, Title: title, Description: description})
	})

	return provider.EngineResponse{SearchResults: results}
}

func (braveProvider) BuildAutocompleteRequest(query *provider.SearchQuery) provider.AutocompletePlan {
	u := &url.URL{
		Scheme:   "https",
		Host:     "search.brave.com",
		Path:     "/api/suggest",
		RawQuery: url.Values{"q": {query.Query}}.Encode(),
	}
	req, err := clientpool.NewRequest(http.MethodGet, u.String())
	if err != nil {
		return provider.NoAutocompletePlan()
	}
	return provider.HTTPAutocompletePlan(req)
}

func (braveProvider) ParseAutocompleteResponse(body []byte) []string {
	return parseGjsonStringArrayAt(body, "1")
}

func (braveProvider) BuildImagesRequest(query *provider.SearchQuery) provider.RequestPlan {
	u := &url.URL{
		Scheme: "https",
		Host:   "search.brave.com",
		Path:   "/images",
		RawQuery: url.Values{
			"q":  {query.Query},
			"tf": {"all"},
		}.Encode(),
	}
	req, err := clientpool.NewRequest(http.MethodGet, u.String())
	if err != nil {
		return provider.NoPlan()
	}
	return provider.HTTPPlan(req)
}

func (braveProvider) ParseImagesResponse(_ *http.Response, body []byte) provider.EngineImagesResponse {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return provider.EngineImagesResponse{}
	}

	var results []provider.EngineImageResult
	doc.Find(".image-card").Each(func(_ int, s *goquery.Selection) {
		imageURL, _ := s.Find("img").Attr("src")
		pageURL, _ := s.Attr("href")
		title, _ := s.Find("img").Attr("alt")
		if imageURL == "" {
			return
		}
		results = append(results, provider.EngineImageResult{ImageURL: imageURL, PageURL: pageURL, Title: title})
	})

	return provider.EngineImagesResponse{ImageResults: results}
}
