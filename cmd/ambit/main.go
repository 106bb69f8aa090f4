// Command ambit runs the metasearch HTTP server: it loads configuration,
// builds the provider registry, and serves /search, /autocomplete,
// /image-proxy and /opensearch.xml until told to stop.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"github.com/spf13/cast"

	"github.com/ambit-search/ambit/internal/config"
	"github.com/ambit-search/ambit/internal/engines"
	"github.com/ambit-search/ambit/internal/fanout"
	"github.com/ambit-search/ambit/internal/httpapi"
	"github.com/ambit-search/ambit/internal/postsearch"
)

const appName = "ambit"

func main() {
	os.Exit(run())
}

func run() int {
	var configPath string
	var logLevel string
	flag.StringVar(&configPath, "config", "", "path to config.toml (default: searched per XDG convention)")
	flag.StringVar(&logLevel, "log-level", envOr("AMBIT_LOG_LEVEL", "info"), "log level: debug, info, warn, error")
	flag.Parse()
	if args := flag.Args(); len(args) > 0 && configPath == "" {
		configPath = args[0]
	}
	if configPath == "" {
		configPath = config.DiscoverPath(appName)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(logLevel)}))
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ambit: %v\n", err)
		return 1
	}

	relatedClient, relatedCollection := buildRelatedClient(cfg, logger)
	if relatedClient != nil {
		defer relatedClient.Close()
	}

	registry := engines.All(relatedClient, relatedCollection)
	pool := fanout.DefaultPool()
	executor := fanout.NewSearchExecutor(registry, pool)
	executor.Logger = logger
	postSearchRunner := postsearch.NewRunner(registry, pool)

	handler := httpapi.New(registry, executor, postSearchRunner, func() *config.Config { return cfg }, logger)

	server := &http.Server{
		Addr:    cfg.Bind,
		Handler: handler.Routes(),
	}

	return serve(server, logger)
}

func serve(server *http.Server, logger *slog.Logger) int {
	logger.Info("starting", "bind", server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGHUP, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
			return 1
		}
	case sig := <-stopChan:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", "error", err)
			return 1
		}
	}

	logger.Info("stopped")
	return 0
}

// buildRelatedClient connects to Qdrant when the "related" engine's extra
// config names a host; otherwise the related provider is registered in its
// permanently-declining state.
func buildRelatedClient(cfg *config.Config, logger *slog.Logger) (*qdrant.Client, string) {
	extra := cfg.Engines["related"].Extra
	host, _ := extra["host"].(string)
	if !cfg.Engines["related"].Enabled || host == "" {
		return nil, ""
	}

	port := 6334
	if v, ok := extra["port"]; ok {
		port = cast.ToInt(v)
	}
	collection := "related_searches"
	if v, ok := extra["collection"].(string); ok && v != "" {
		collection = v
	}
	apiKey, _ := extra["api_key"].(string)

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: cast.ToBool(extra["use_tls"]),
	})
	if err != nil {
		logger.Warn("related: qdrant client unavailable, provider will decline", "error", err)
		return nil, ""
	}
	return client, collection
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
