// Package httpapi is the thin HTTP surface that turns the core's search,
// autocomplete, post-search, and image-proxy components into the four
// endpoints a browser or API client talks to. It formats nothing beyond
// JSON and SSE envelopes; result shaping stays in internal/rank and
// internal/stream.
package httpapi

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/google/uuid"

	"github.com/ambit-search/ambit/internal/config"
	"github.com/ambit-search/ambit/internal/fanout"
	"github.com/ambit-search/ambit/internal/postsearch"
	"github.com/ambit-search/ambit/internal/provider"
)

// Handler wires the fan-out executor, post-search runner, and live config
// into the four HTTP endpoints.
type Handler struct {
	Registry   *provider.Registry
	Executor   *fanout.SearchExecutor
	PostSearch *postsearch.Runner
	Config     func() *config.Config
	Logger     *slog.Logger
}

// New builds a Handler. cfg is a accessor rather than a static value so a
// future config-reload feature can swap it out without touching callers.
func New(registry *provider.Registry, executor *fanout.SearchExecutor, postSearch *postsearch.Runner, cfg func() *config.Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Registry: registry, Executor: executor, PostSearch: postSearch, Config: cfg, Logger: logger}
}

// Routes builds the ServeMux exposing /search, /autocomplete, /image-proxy,
// and /opensearch.xml. The teacher's own HTTP surfaces stick to the
// standard library's mux rather than a third-party router, and this module
// follows the same convention.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", h.handleSearch)
	mux.HandleFunc("GET /autocomplete", h.handleAutocomplete)
	mux.HandleFunc("GET /image-proxy", h.handleImageProxy)
	mux.HandleFunc("GET /opensearch.xml", h.handleOpenSearch)
	return mux
}

func (h *Handler) requestLogger(r *http.Request) *slog.Logger {
	return h.Logger.With(slog.String("request_id", uuid.NewString()), slog.String("path", r.URL.Path))
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func requestHeaders(r *http.Request) map[string]string {
	out := make(map[string]string, len(r.Header))
	for name := range r.Header {
		out[name] = r.Header.Get(name)
	}
	return out
}
