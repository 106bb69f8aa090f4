package engines

import (
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ambit-search/ambit/internal/clientpool"
	"github.com/ambit-search/ambit/internal/provider"
)

// mdnProvider re-fetches the first developer.mozilla.org result from
// phase-one and pulls out its summary paragraph, the same "re-fetch and
// enrich" shape as stackoverflowProvider but for web-platform reference
// queries.
type mdnProvider struct{}

func NewMDN() provider.Provider { return mdnProvider{} }

func (mdnProvider) ID() provider.ID { return "mdn" }

func (mdnProvider) Capabilities() provider.Capability { return provider.PostSearch }

const mdnDocsPrefix = "https://developer.mozilla.org/"

func (mdnProvider) BuildPostSearchRequest(phaseOne *provider.EngineResponse) *http.Request {
	limit := len(phaseOne.SearchResults)
	if limit > 8 {
		limit = 8
	}
	for _, sr := range phaseOne.SearchResults[:limit] {
		if strings.HasPrefix(sr.URL, mdnDocsPrefix) {
			req, err := clientpool.NewRequest(http.MethodGet, sr.URL)
			if err != nil {
				return nil
			}
			return req
		}
	}
	return nil
}

func (mdnProvider) ParsePostSearchResponse(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return ""
	}

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	summary := strings.TrimSpace(doc.Find("article .section-content > p").First().Text())
	if title == "" || summary == "" {
		return ""
	}

	return fmt.Sprintf(
		`<h2>%s</h2><div class="infobox-mdn-summary"><p>%s</p></div>`,
		html.EscapeString(title), html.EscapeString(summary),
	)
}
