package engines

import (
	"fmt"
	"html"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/ambit-search/ambit/internal/provider"
)

var userAgentQueryPattern = regexp.MustCompile(`^(what('s|s| is) my (user ?agent|ua)|ua|user ?agent)$`)

// useragentProvider answers "what's my user agent" style queries from the
// request headers threaded through the query, with no outbound I/O.
type useragentProvider struct{}

func NewUserAgent() provider.Provider { return useragentProvider{} }

func (useragentProvider) ID() provider.ID { return "useragent" }

func (useragentProvider) Capabilities() provider.Capability { return provider.Search }

func (useragentProvider) BuildRequest(query *provider.SearchQuery) provider.RequestPlan {
	if !userAgentQueryPattern.MatchString(strings.ToLower(query.Query)) {
		return provider.NoPlan()
	}

	var body strings.Builder
	if ua, ok := headerLookup(query.RequestHeaders, "user-agent"); ok {
		fmt.Fprintf(&body, "<h3><b>%s</b></h3>", html.EscapeString(ua))
	} else {
		body.WriteString("You don't have a user agent")
	}

	body.WriteString("<br><details><summary>All headers</summary>")
	keys := make([]string, 0, len(query.RequestHeaders))
	for k := range query.RequestHeaders {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&body, "<div><b>%s</b>: %s</div>", html.EscapeString(k), html.EscapeString(query.RequestHeaders[k]))
	}
	body.WriteString("</details>")

	return provider.InstantPlan(provider.EngineResponse{AnswerHTML: body.String()})
}

func (useragentProvider) ParseResponse(_ *http.Response, _ []byte, _ provider.ConfigView) provider.EngineResponse {
	return provider.EngineResponse{}
}
