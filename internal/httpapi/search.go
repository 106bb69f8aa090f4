package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ambit-search/ambit/internal/config"
	"github.com/ambit-search/ambit/internal/provider"
	"github.com/ambit-search/ambit/internal/sse"
	"github.com/ambit-search/ambit/internal/stream"
)

// handleSearch streams progress over SSE by default, or returns a single
// JSON document when the client asks for it and the operator has turned
// the JSON API on.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	cfg := h.Config()
	tab := provider.TabAll
	if r.URL.Query().Get("tab") == "images" {
		tab = provider.TabImages
	}

	log := h.requestLogger(r)
	ctx := r.Context()
	sq := &provider.SearchQuery{
		Query:          query,
		Tab:            tab,
		RequestHeaders: requestHeaders(r),
		ClientIP:       clientIP(r),
		Config:         config.NewView(cfg),
	}

	if wantsJSON(r, cfg) {
		h.handleSearchJSON(ctx, w, sq, cfg)
		return
	}
	h.handleSearchStream(ctx, w, sq, cfg, log)
}

func wantsJSON(r *http.Request, cfg *config.Config) bool {
	return cfg.API && strings.Contains(r.Header.Get("Accept"), "application/json")
}

type searchJSONResponse struct {
	Response stream.ResponseForTab `json:"response"`
	Infobox  *searchInfoboxJSON    `json:"postSearchInfobox,omitempty"`
}

type searchInfoboxJSON struct {
	HTML   string      `json:"html"`
	Engine provider.ID `json:"engine"`
}

// handleSearchJSON runs the same two-stage pipeline as the streaming path
// but discards progress events, returning only the settled result.
func (h *Handler) handleSearchJSON(ctx context.Context, w http.ResponseWriter, sq *provider.SearchQuery, cfg *config.Config) {
	startedAt := time.Now()
	noop := func(stream.Update) {}

	var resp searchJSONResponse
	if sq.Tab == provider.TabImages {
		resp.Response = h.Executor.RunImages(ctx, sq, cfg, startedAt, noop)
	} else {
		final := h.Executor.Run(ctx, sq, cfg, startedAt, noop)
		h.PostSearch.Run(ctx, final, final.Infobox != nil, cfg, startedAt, func(u stream.Update) {
			if u.Data.PostSearchInfobox != nil {
				resp.Infobox = &searchInfoboxJSON{HTML: u.Data.PostSearchInfobox.HTML, Engine: u.Data.PostSearchInfobox.Engine}
			}
		})
		resp.Response = final
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// handleSearchStream runs the pipeline with every progress, response, and
// post-search event relayed to the client as it happens.
func (h *Handler) handleSearchStream(ctx context.Context, w http.ResponseWriter, sq *provider.SearchQuery, cfg *config.Config, log *slog.Logger) {
	writer, err := sse.NewWriter(&sse.WriterConfig{
		Context:        ctx,
		ResponseWriter: w,
		HeartBeat:      15 * time.Second,
	})
	if err != nil {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	defer func() {
		if cerr := writer.Close(); cerr != nil {
			log.Debug("search stream closed", "error", cerr)
		}
	}()

	startedAt := time.Now()
	emit := func(update stream.Update) {
		event, payload := eventForUpdate(update)
		if sendErr := writer.Send(&sse.Message{Event: event, Data: mustJSON(payload)}); sendErr != nil {
			log.Debug("search stream send failed", "error", sendErr)
		}
	}

	if sq.Tab == provider.TabImages {
		h.Executor.RunImages(ctx, sq, cfg, startedAt, emit)
		return
	}

	final := h.Executor.Run(ctx, sq, cfg, startedAt, emit)
	h.PostSearch.Run(ctx, final, final.Infobox != nil, cfg, startedAt, emit)
}

func eventForUpdate(update stream.Update) (string, any) {
	switch {
	case update.Data.EngineProgress != nil:
		return "progress", update.Data.EngineProgress
	case update.Data.Response != nil:
		return "response", update.Data.Response
	case update.Data.PostSearchInfobox != nil:
		return "infobox", update.Data.PostSearchInfobox
	default:
		return "message", nil
	}
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte("null")
	}
	return b
}
