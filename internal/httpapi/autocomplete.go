package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/ambit-search/ambit/internal/config"
	"github.com/ambit-search/ambit/internal/provider"
)

// autocompleteGroup collapses concurrent identical in-flight autocomplete
// queries into a single fan-out: a user typing triggers a new request per
// keystroke, and bursts of tabs/windows searching the same prefix shouldn't
// each open a fresh round of provider requests.
var autocompleteGroup singleflight.Group

func (h *Handler) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]any{"", []string{}})
		return
	}

	cfg := h.Config()
	sq := &provider.SearchQuery{
		Query:          query,
		Tab:            provider.TabAll,
		RequestHeaders: requestHeaders(r),
		ClientIP:       clientIP(r),
		Config:         config.NewView(cfg),
	}

	result, _, _ := autocompleteGroup.Do(query, func() (any, error) {
		return h.Executor.RunAutocomplete(r.Context(), sq, cfg), nil
	})
	suggestions, _ := result.([]string)
	if suggestions == nil {
		suggestions = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode([]any{query, suggestions})
}
