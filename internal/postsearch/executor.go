// Package postsearch runs the second, gated fan-out stage: enrichment
// providers that only fire when the phase-one merge produced no infobox,
// and whose winner is picked by registry order rather than arrival order.
package postsearch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/ambit-search/ambit/internal/clientpool"
	"github.com/ambit-search/ambit/internal/config"
	"github.com/ambit-search/ambit/internal/fanout"
	"github.com/ambit-search/ambit/internal/provider"
	"github.com/ambit-search/ambit/internal/rank"
	"github.com/ambit-search/ambit/internal/stream"
)

// Runner executes the post-search stage.
type Runner struct {
	Registry *provider.Registry
	Pool     fanout.Pool
	Logger   *slog.Logger
}

// NewRunner builds a Runner over registry, using pool (or the package
// default pool when nil).
func NewRunner(registry *provider.Registry, pool fanout.Pool) *Runner {
	if pool == nil {
		pool = fanout.DefaultPool()
	}
	return &Runner{Registry: registry, Pool: pool, Logger: slog.Default()}
}

// Run gates on phaseOne already carrying an infobox, then fans out to every
// PostSearch-capable enabled provider concurrently. It waits for all of
// them to finish (or decline) before picking a winner, so the winner is
// always the first non-empty result in registry enumeration order, never
// whichever provider happened to answer fastest.
func (r *Runner) Run(
	ctx context.Context,
	phaseOne stream.ResponseForTab,
	infoboxAlreadyPresent bool,
	cfg *config.Config,
	startedAt time.Time,
	emit func(stream.Update),
) {
	if infoboxAlreadyPresent {
		return
	}
	if ctx.Err() != nil {
		return
	}

	providers := lo.Filter(r.Registry.WithCapability(provider.PostSearch), func(p provider.Provider, _ int) bool {
		return cfg.Engines[p.ID()].Enabled
	})
	htmls := make(map[provider.ID]string)
	var mu sync.Mutex
	var wg sync.WaitGroup
	var errs []error

	phaseOneResponse := &provider.EngineResponse{
		FeaturedSnippet: toEngineFeaturedSnippet(phaseOne.FeaturedSnippet),
		AnswerHTML:      answerHTML(phaseOne.Answer),
	}
	if len(phaseOne.SearchResults) > 0 {
		phaseOneResponse.SearchResults = make([]provider.EngineSearchResult, len(phaseOne.SearchResults))
		for i, sr := range phaseOne.SearchResults {
			phaseOneResponse.SearchResults[i] = sr.Result
		}
	}

	for _, p := range providers {
		id := p.ID()
		if ctx.Err() != nil {
			break
		}

		if direct, ok := p.(provider.DirectPostSearchAdapter); ok {
			wg.Add(1)
			r.Pool.Go(func() {
				defer wg.Done()
				html := r.recoverParse(func() string { return direct.Enrich(ctx, phaseOneResponse) })
				if html == "" {
					return
				}
				mu.Lock()
				htmls[id] = html
				mu.Unlock()
			})
			continue
		}

		adapter, ok := p.(provider.PostSearchAdapter)
		if !ok {
			continue
		}

		req := adapter.BuildPostSearchRequest(phaseOneResponse)
		if req == nil {
			continue
		}

		wg.Add(1)
		r.Pool.Go(func() {
			defer wg.Done()
			html, err := r.runOne(ctx, adapter, req)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", id, err))
				return
			}
			if html == "" {
				return
			}
			htmls[id] = html
		})
	}

	wg.Wait()

	if joined := multierr.Combine(errs...); joined != nil {
		r.Logger.Warn("post-search stage completed with provider errors", "error", joined)
	}

	for _, p := range providers {
		if html, ok := htmls[p.ID()]; ok {
			infobox := rank.Infobox{HTML: html, Engine: p.ID()}
			emit(stream.PostSearchInfoboxUpdate(time.Since(startedAt).Milliseconds(), infobox))
			return
		}
	}
}

func (r *Runner) runOne(ctx context.Context, adapter provider.PostSearchAdapter, req *http.Request) (string, error) {
	resp, err := clientpool.Client().Do(req.WithContext(ctx))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return r.recoverParse(func() string { return adapter.ParsePostSearchResponse(body) }), nil
}

func (r *Runner) recoverParse(fn func() string) (html string) {
	defer func() {
		if recover() != nil {
			html = ""
		}
	}()
	return fn()
}

func toEngineFeaturedSnippet(fs *rank.FeaturedSnippet) *provider.EngineFeaturedSnippet {
	if fs == nil {
		return nil
	}
	return &provider.EngineFeaturedSnippet{URL: fs.URL, Title: fs.Title, Description: fs.Description}
}

func answerHTML(a *rank.Answer) string {
	if a == nil {
		return ""
	}
	return a.HTML
}
