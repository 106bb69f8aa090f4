package engines

import (
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ambit-search/ambit/internal/clientpool"
	"github.com/ambit-search/ambit/internal/provider"
)

// stackoverflowProvider re-fetches the first Stack Overflow question link
// from the phase-one results and pulls out its accepted answer, so the
// infobox can show the answer inline instead of making the user click
// through.
type stackoverflowProvider struct{}

func NewStackOverflow() provider.Provider { return stackoverflowProvider{} }

func (stackoverflowProvider) ID() provider.ID { return "stackoverflow" }

func (stackoverflowProvider) Capabilities() provider.Capability { return provider.PostSearch }

const stackoverflowQuestionPrefix = "https://stackoverflow.com/questions/"

func (stackoverflowProvider) BuildPostSearchRequest(phaseOne *provider.EngineResponse) *http.Request {
	limit := len(phaseOne.SearchResults)
	if limit > 8 {
		limit = 8
	}
	for _, sr := range phaseOne.SearchResults[:limit] {
		if strings.HasPrefix(sr.URL, stackoverflowQuestionPrefix) {
			req, err := clientpool.NewRequest(http.MethodGet, sr.URL)
			if err != nil {
				return nil
			}
			return req
		}
	}
	return nil
}

func (stackoverflowProvider) ParsePostSearchResponse(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return ""
	}

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		return ""
	}
	href, ok := doc.Find(".question-hyperlink").First().Attr("href")
	if !ok {
		return ""
	}
	questionURL, err := url.Parse("https://stackoverflow.com")
	if err != nil {
		return ""
	}
	joined, err := questionURL.Parse(href)
	if err != nil {
		return ""
	}

	answer := doc.Find("div.answer.accepted-answer").First()
	if answer.Length() == 0 {
		return ""
	}
	answerID, ok := answer.Attr("data-answerid")
	if !ok {
		return ""
	}
	answerHTML, err := answer.Find("div.answercell > div.js-post-body").First().Html()
	if err != nil || answerHTML == "" {
		return ""
	}

	finalURL := fmt.Sprintf("%s#%s", joined.String(), answerID)
	return fmt.Sprintf(
		`<a href="%s"><h2>%s</h2></a><div class="infobox-stackoverflow-answer">%s</div>`,
		html.EscapeString(finalURL), html.EscapeString(title), answerHTML,
	)
}
