package fanout

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ambit-search/ambit/internal/clientpool"
	"github.com/ambit-search/ambit/internal/config"
	"github.com/ambit-search/ambit/internal/provider"
	"github.com/ambit-search/ambit/internal/rank"
	"github.com/ambit-search/ambit/internal/stream"
)

// SearchExecutor runs the concurrent phase-one fan-out across every
// Search-capable, enabled provider, merges the results, and emits progress
// over the caller's sink. Every EngineProgress event for a provider is sent
// before that provider's contribution is folded into the merge, and the
// merge's Response event is sent only after every provider has finished.
type SearchExecutor struct {
	Registry *provider.Registry
	Pool     Pool
	Logger   *slog.Logger
}

// NewSearchExecutor builds an executor over registry, using pool (or the
// package default pool when nil) to run provider tasks concurrently.
func NewSearchExecutor(registry *provider.Registry, pool Pool) *SearchExecutor {
	if pool == nil {
		pool = DefaultPool()
	}
	return &SearchExecutor{Registry: registry, Pool: pool, Logger: slog.Default()}
}

func (e *SearchExecutor) log() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// Run executes the phase-one fan-out and returns the merged response for
// the query's tab. emit is called for every progress update in real time;
// ctx cancellation (e.g. on consumer disconnect) stops launching further
// provider work and cancels in-flight HTTP requests, though a provider that
// already has a response body may still finish parsing it.
func (e *SearchExecutor) Run(
	ctx context.Context,
	query *provider.SearchQuery,
	cfg *config.Config,
	startedAt time.Time,
	emit func(stream.Update),
) stream.ResponseForTab {
	elapsed := func() int64 { return time.Since(startedAt).Milliseconds() }

	providers := e.Registry.WithCapability(provider.Search)
	responses := make(map[provider.ID]provider.EngineResponse, len(providers))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, p := range providers {
		id := p.ID()
		engineCfg := cfg.Engines[id]
		if !engineCfg.Enabled {
			continue
		}
		adapter, ok := p.(provider.SearchAdapter)
		if !ok {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		e.Pool.Go(func() {
			defer wg.Done()
			resp := e.runOne(ctx, id, adapter, query, emit, elapsed)
			mu.Lock()
			responses[id] = resp
			mu.Unlock()
		})
	}

	wg.Wait()

	weights := weightsFromConfig(cfg)
	results, featured, answer, infobox := rank.MergeSearchResults(responses, weights, cfg.URLReplace, cfg.URLWeight)

	merged := stream.ResponseForTab{
		SearchResults:   results,
		FeaturedSnippet: featured,
		Answer:          answer,
		Infobox:         infobox,
	}
	emit(stream.ResponseUpdate(elapsed(), merged))
	return merged
}

// RunImages mirrors Run for the image-search tab: Images-capable providers,
// image merge rules, no featured snippet/answer/infobox.
func (e *SearchExecutor) RunImages(
	ctx context.Context,
	query *provider.SearchQuery,
	cfg *config.Config,
	startedAt time.Time,
	emit func(stream.Update),
) stream.ResponseForTab {
	elapsed := func() int64 { return time.Since(startedAt).Milliseconds() }

	providers := e.Registry.WithCapability(provider.Images)
	responses := make(map[provider.ID]provider.EngineImagesResponse, len(providers))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, p := range providers {
		id := p.ID()
		engineCfg := cfg.Engines[id]
		if !engineCfg.Enabled {
			continue
		}
		adapter, ok := p.(provider.ImagesAdapter)
		if !ok {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		e.Pool.Go(func() {
			defer wg.Done()
			resp := e.runImagesOne(ctx, id, adapter, query, emit, elapsed)
			mu.Lock()
			responses[id] = resp
			mu.Unlock()
		})
	}

	wg.Wait()

	weights := weightsFromConfig(cfg)
	results := rank.MergeImagesResponses(responses, weights)

	merged := stream.ResponseForTab{ImageResults: results}
	emit(stream.ResponseUpdate(elapsed(), merged))
	return merged
}

// RunAutocomplete fans out to every Autocomplete-capable, enabled provider
// and returns the merged suggestion list. There is no progress stream for
// autocomplete: requests are cheap and expected to resolve in well under a
// second, so the collaborator layer just waits for the single JSON result.
func (e *SearchExecutor) RunAutocomplete(ctx context.Context, query *provider.SearchQuery, cfg *config.Config) []string {
	providers := e.Registry.WithCapability(provider.Autocomplete)
	responses := make(map[provider.ID][]string, len(providers))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, p := range providers {
		id := p.ID()
		engineCfg := cfg.Engines[id]
		if !engineCfg.Enabled {
			continue
		}
		adapter, ok := p.(provider.AutocompleteAdapter)
		if !ok {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		e.Pool.Go(func() {
			defer wg.Done()
			suggestions := e.runAutocompleteOne(ctx, id, adapter, query)
			mu.Lock()
			responses[id] = suggestions
			mu.Unlock()
		})
	}

	wg.Wait()

	weights := weightsFromConfig(cfg)
	return rank.MergeAutocompleteResponses(responses, weights)
}

func (e *SearchExecutor) runAutocompleteOne(
	ctx context.Context,
	id provider.ID,
	adapter provider.AutocompleteAdapter,
	query *provider.SearchQuery,
) []string {
	plan := adapter.BuildAutocompleteRequest(query)
	if plan.IsNone() {
		return nil
	}
	if plan.IsInstant() {
		return plan.Suggestions()
	}

	req := plan.Request().WithContext(ctx)
	resp, err := clientpool.Client().Do(req)
	if err != nil {
		e.log().Warn("provider autocomplete request failed", "provider", id, "error", err)
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		e.log().Warn("provider autocomplete response read failed", "provider", id, "error", err)
		return nil
	}

	var suggestions []string
	func() {
		defer func() {
			if r := recover(); r != nil {
				e.log().Error("provider autocomplete parse panicked", "provider", id, "panic", r)
				suggestions = nil
			}
		}()
		suggestions = adapter.ParseAutocompleteResponse(body)
	}()
	return suggestions
}

func (e *SearchExecutor) runOne(
	ctx context.Context,
	id provider.ID,
	adapter provider.SearchAdapter,
	query *provider.SearchQuery,
	emit func(stream.Update),
	elapsed func() int64,
) provider.EngineResponse {
	plan := adapter.BuildRequest(query)
	if plan.IsNone() {
		return provider.EngineResponse{}
	}
	if plan.IsInstant() {
		return plan.Instant()
	}

	emit(stream.EngineProgressUpdate(elapsed(), id, stream.PhaseRequesting, ""))

	req := plan.Request().WithContext(ctx)
	resp, err := clientpool.Client().Do(req)
	if err != nil {
		e.log().Warn("provider request failed", "provider", id, "error", err)
		emit(stream.EngineProgressUpdate(elapsed(), id, stream.PhaseError, err.Error()))
		return provider.EngineResponse{}
	}
	defer resp.Body.Close()

	emit(stream.EngineProgressUpdate(elapsed(), id, stream.PhaseDownloading, ""))
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		e.log().Warn("provider response read failed", "provider", id, "error", err)
		emit(stream.EngineProgressUpdate(elapsed(), id, stream.PhaseError, err.Error()))
		return provider.EngineResponse{}
	}

	emit(stream.EngineProgressUpdate(elapsed(), id, stream.PhaseParsing, ""))
	parsed, panicVal := e.recoverParse(func() provider.EngineResponse {
		return adapter.ParseResponse(resp, body, query.Config)
	})
	if panicVal != nil {
		e.log().Error("provider parse panicked", "provider", id, "panic", panicVal)
		emit(stream.EngineProgressUpdate(elapsed(), id, stream.PhaseError, "parse failed"))
		return provider.EngineResponse{}
	}

	emit(stream.EngineProgressUpdate(elapsed(), id, stream.PhaseDone, ""))
	return parsed
}

func (e *SearchExecutor) runImagesOne(
	ctx context.Context,
	id provider.ID,
	adapter provider.ImagesAdapter,
	query *provider.SearchQuery,
	emit func(stream.Update),
	elapsed func() int64,
) provider.EngineImagesResponse {
	plan := adapter.BuildImagesRequest(query)
	if plan.IsNone() {
		return provider.EngineImagesResponse{}
	}
	if plan.IsInstant() {
		return provider.EngineImagesResponse{}
	}

	emit(stream.EngineProgressUpdate(elapsed(), id, stream.PhaseRequesting, ""))

	req := plan.Request().WithContext(ctx)
	resp, err := clientpool.Client().Do(req)
	if err != nil {
		e.log().Warn("provider image request failed", "provider", id, "error", err)
		emit(stream.EngineProgressUpdate(elapsed(), id, stream.PhaseError, err.Error()))
		return provider.EngineImagesResponse{}
	}
	defer resp.Body.Close()

	emit(stream.EngineProgressUpdate(elapsed(), id, stream.PhaseDownloading, ""))
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		e.log().Warn("provider image response read failed", "provider", id, "error", err)
		emit(stream.EngineProgressUpdate(elapsed(), id, stream.PhaseError, err.Error()))
		return provider.EngineImagesResponse{}
	}

	emit(stream.EngineProgressUpdate(elapsed(), id, stream.PhaseParsing, ""))
	parsed, panicVal := e.recoverParseImages(func() provider.EngineImagesResponse {
		return adapter.ParseImagesResponse(resp, body)
	})
	if panicVal != nil {
		e.log().Error("provider image parse panicked", "provider", id, "panic", panicVal)
		emit(stream.EngineProgressUpdate(elapsed(), id, stream.PhaseError, "parse failed"))
		return provider.EngineImagesResponse{}
	}

	emit(stream.EngineProgressUpdate(elapsed(), id, stream.PhaseDone, ""))
	return parsed
}

func (e *SearchExecutor) recoverParse(fn func() provider.EngineResponse) (result provider.EngineResponse, panicVal any) {
	defer func() {
		if r := recover(); r != nil {
			panicVal = r
		}
	}()
	return fn(), nil
}

func (e *SearchExecutor) recoverParseImages(fn func() provider.EngineImagesResponse) (result provider.EngineImagesResponse, panicVal any) {
	defer func() {
		if r := recover(); r != nil {
			panicVal = r
		}
	}()
	return fn(), nil
}

func weightsFromConfig(cfg *config.Config) rank.Weights {
	weights := make(rank.Weights, len(cfg.Engines))
	for id, ec := range cfg.Engines {
		if rank.FiniteWeight(ec.Weight) {
			weights[id] = ec.Weight
		} else {
			weights[id] = 1.0
		}
	}
	return weights
}
