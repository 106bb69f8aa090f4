// Package engines holds the concrete provider adapters: the search,
// instant-answer, post-search and image backends wired into the registry
// at startup.
package engines

import (
	"github.com/qdrant/go-client/qdrant"

	"github.com/ambit-search/ambit/internal/provider"
)

// All builds the registry every process roster is drawn from, in the fixed
// enumeration order the post-search "first non-empty wins" rule depends
// on. relatedClient may be nil when no Qdrant instance is configured; the
// related provider then simply declines on every request.
func All(relatedClient *qdrant.Client, relatedCollection string) *provider.Registry {
	registry := provider.NewRegistry(9)
	registry.Register(
		NewBrave(),
		NewMarginalia(),
		NewMojeek(),
		NewIP(),
		NewCalc(),
		NewUserAgent(),
		NewStackOverflow(),
		NewMDN(),
		NewRelated(relatedClient, relatedCollection),
	)
	return registry
}
