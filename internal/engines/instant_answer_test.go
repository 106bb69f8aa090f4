package engines

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambit-search/ambit/internal/provider"
)

func TestIP_BuildRequest_AnswersIPQuery(t *testing.T) {
	p := NewIP().(ipProvider)
	plan := p.BuildRequest(&provider.SearchQuery{Query: "what's my ip", ClientIP: "203.0.113.7"})
	require.True(t, plan.IsInstant())
	assert.Contains(t, plan.Instant().AnswerHTML, "203.0.113.7")
}

func TestIP_BuildRequest_DeclinesUnrelatedQuery(t *testing.T) {
	p := NewIP().(ipProvider)
	plan := p.BuildRequest(&provider.SearchQuery{Query: "golang", ClientIP: "203.0.113.7"})
	assert.True(t, plan.IsNone())
}

func TestIP_BuildRequest_EscapesClientIP(t *testing.T) {
	p := NewIP().(ipProvider)
	plan := p.BuildRequest(&provider.SearchQuery{Query: "what is my ip", ClientIP: "<script>"})
	require.True(t, plan.IsInstant())
	assert.NotContains(t, plan.Instant().AnswerHTML, "<script>")
}

func TestUserAgent_BuildRequest_AnswersFromHeader(t *testing.T) {
	p := NewUserAgent().(useragentProvider)
	plan := p.BuildRequest(&provider.SearchQuery{
		Query:          "what's my user agent",
		RequestHeaders: map[string]string{"User-Agent": "test-browser/1.0"},
	})
	require.True(t, plan.IsInstant())
	assert.Contains(t, plan.Instant().AnswerHTML, "test-browser/1.0")
}

func TestUserAgent_BuildRequest_FallsBackWithoutHeader(t *testing.T) {
	p := NewUserAgent().(useragentProvider)
	plan := p.BuildRequest(&provider.SearchQuery{Query: "ua", RequestHeaders: map[string]string{}})
	require.True(t, plan.IsInstant())
	assert.Contains(t, plan.Instant().AnswerHTML, "You don't have a user agent")
}

func TestUserAgent_BuildRequest_DeclinesUnrelatedQuery(t *testing.T) {
	p := NewUserAgent().(useragentProvider)
	plan := p.BuildRequest(&provider.SearchQuery{Query: "golang tutorial"})
	assert.True(t, plan.IsNone())
}
