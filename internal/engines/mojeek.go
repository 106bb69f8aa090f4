package engines

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ambit-search/ambit/internal/clientpool"
	"github.com/ambit-search/ambit/internal/provider"
)

// mojeekProvider scrapes Mojeek, an independent crawler-backed search
// engine with its own organic and image result pages.
type mojeekProvider struct{}

func NewMojeek() provider.Provider { return mojeekProvider{} }

func (mojeekProvider) ID() provider.ID { return "mojeek" }

func (mojeekProvider) Capabilities() provider.Capability {
	return provider.Search | provider.Autocomplete | provider.Images
}

func (mojeekProvider) BuildRequest(query *provider.SearchQuery) provider.RequestPlan {
	u := &url.URL{
		Scheme:   "https",
		Host:     "www.mojeek.com",
		Path:     "/search",
		RawQuery: url.Values{"q": {query.Query}}.Encode(),
	}
	req, err := clientpool.NewRequest(http.MethodGet, u.String())
	if err != nil {
		return provider.NoPlan()
	}
	return provider.HTTPPlan(req)
}

func (mojeekProvider) ParseResponse(_ *http.Response, body []byte, _ provider.ConfigView) provider.EngineResponse {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return provider.EngineResponse{}
	}

	var results []provider.EngineSearchResult
	doc.Find("ul.results-standard > li").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Find("a.ob").Attr("href")
		title := strings.TrimSpace(s.Find("a.title").First().Text())
		description := strings.TrimSpace(s.Find("p.s").First().Text())
		if href == "" || title == "" {
			return
		}
		results = append(results, provider.EngineSearchResult{URL: href, Title: title, Description: description})
	})

	return provider.EngineResponse{SearchResults: results}
}

func (mojeekProvider) BuildAutocompleteRequest(query *provider.SearchQuery) provider.AutocompletePlan {
	u := &url.URL{
		Scheme:   "https",
		Host:     "www.mojeek.com",
		Path:     "/search-as-you-type",
		RawQuery: url.Values{"q": {query.Query}}.Encode(),
	}
	req, err := clientpool.NewRequest(http.MethodGet, u.String())
	if err != nil {
		return provider.NoAutocompletePlan()
	}
	return provider.HTTPAutocompletePlan(req)
}

func (mojeekProvider) ParseAutocompleteResponse(body []byte) []string {
	return parseGjsonStringArrayAt(body, "1")
}

func (mojeekProvider) BuildImagesRequest(query *provider.SearchQuery) provider.RequestPlan {
	u := &url.URL{
		Scheme:   "https",
		Host:     "www.mojeek.com",
		Path:     "/search",
		RawQuery: url.Values{"q": {query.Query}, "fmt": {"images"}}.Encode(),
	}
	req, err := clientpool.NewRequest(http.MethodGet, u.String())
	if err != nil {
		return provider.NoPlan()
	}
	return provider.HTTPPlan(req)
}

func (mojeekProvider) ParseImagesResponse(_ *http.Response, body []byte) provider.EngineImagesResponse {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return provider.EngineImagesResponse{}
	}

	var results []provider.EngineImageResult
	doc.Find(".results-img figure").Each(func(_ int, s *goquery.Selection) {
		img := s.Find("img")
		imageURL, _ := img.Attr("data-src")
		if imageURL == "" {
			imageURL, _ = img.Attr("src")
		}
		pageURL, _ := s.Find("a").Attr("href")
		title, _ := img.Attr("alt")
		if imageURL == "" {
			return
		}
		results = append(results, provider.EngineImageResult{ImageURL: imageURL, PageURL: pageURL, Title: title})
	})

	return provider.EngineImagesResponse{ImageResults: results}
}
