package engines

import (
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strings"

	"github.com/ambit-search/ambit/internal/provider"
)

var ipQueryPattern = regexp.MustCompile(`^what('s|s| is) my ip`)

// ipProvider answers "what's my ip" style queries instantly from the
// client IP threaded through the request, with no outbound I/O.
type ipProvider struct{}

func NewIP() provider.Provider { return ipProvider{} }

func (ipProvider) ID() provider.ID { return "ip" }

func (ipProvider) Capabilities() provider.Capability { return provider.Search }

func (ipProvider) BuildRequest(query *provider.SearchQuery) provider.RequestPlan {
	if !ipQueryPattern.MatchString(strings.ToLower(query.Query)) {
		return provider.NoPlan()
	}
	answerHTML := fmt.Sprintf(`<h3><b>%s</b></h3>`, html.EscapeString(query.ClientIP))
	return provider.InstantPlan(provider.EngineResponse{AnswerHTML: answerHTML})
}

func (ipProvider) ParseResponse(_ *http.Response, _ []byte, _ provider.ConfigView) provider.EngineResponse {
	return provider.EngineResponse{}
}
