package engines

import (
	"context"
	"html"
	"log/slog"

	"github.com/qdrant/go-client/qdrant"

	"github.com/ambit-search/ambit/internal/provider"
)

// relatedProvider surfaces a "related searches" infobox by looking up the
// phase-one top result's URL against a pre-populated Qdrant collection of
// curated related topics, matched exactly on the "source_url" payload field
// rather than by vector similarity (there's no embedding model in this
// process to turn the query into a vector). A nil client makes the provider permanently decline, so it's
// safe to register even when no Qdrant instance is configured.
type relatedProvider struct {
	client         *qdrant.Client
	collectionName string
}

// NewRelated builds the related-searches provider. Pass a nil client to
// register it in a decline-only state.
func NewRelated(client *qdrant.Client, collectionName string) provider.Provider {
	return relatedProvider{client: client, collectionName: collectionName}
}

func (relatedProvider) ID() provider.ID { return "related" }

func (relatedProvider) Capabilities() provider.Capability { return provider.PostSearch }

func (p relatedProvider) Enrich(ctx context.Context, phaseOne *provider.EngineResponse) string {
	if p.client == nil || len(phaseOne.SearchResults) == 0 {
		return ""
	}

	topResult := phaseOne.SearchResults[0]
	points, err := p.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: p.collectionName,
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatchKeyword("source_url", topResult.URL),
			},
		},
		Limit:       ptrUint64(5),
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		slog.Default().Warn("related: qdrant query failed", "error", err)
		return ""
	}

	return buildRelatedHTML(points)
}

func ptrUint64(v uint64) *uint64 { return &v }

func buildRelatedHTML(points []*qdrant.ScoredPoint) string {
	var items []string
	for _, pt := range points {
		payload := pt.GetPayload()
		if payload == nil {
			continue
		}
		title := payload["title"].GetStringValue()
		url := payload["url"].GetStringValue()
		if title == "" || url == "" {
			continue
		}
		items = append(items, `<li><a href="`+html.EscapeString(url)+`">`+html.EscapeString(title)+`</a></li>`)
	}
	if len(items) == 0 {
		return ""
	}

	html := `<div class="infobox-related-searches"><h3>Related</h3><ul>`
	for _, item := range items {
		html += item
	}
	html += `</ul></div>`
	return html
}
