// Package stream defines the ordered progress events emitted over the
// course of a search request: per-provider phase transitions, the merged
// response, and any post-search enrichment that follows it.
package stream

import (
	"github.com/ambit-search/ambit/internal/provider"
	"github.com/ambit-search/ambit/internal/rank"
)

// Phase is a single provider task's lifecycle stage.
type Phase int

const (
	PhaseRequesting Phase = iota
	PhaseDownloading
	PhaseParsing
	PhaseDone
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseRequesting:
		return "requesting"
	case PhaseDownloading:
		return "downloading"
	case PhaseParsing:
		return "parsing"
	case PhaseDone:
		return "done"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// EngineProgress is one provider's phase transition, carrying an error
// message when Phase is PhaseError.
type EngineProgress struct {
	Provider provider.ID
	Phase    Phase
	Err      string
}

// ResponseForTab is the merged result set for one search tab.
type ResponseForTab struct {
	SearchResults   []rank.Result[provider.EngineSearchResult]
	ImageResults    []rank.Result[provider.EngineImageResult]
	FeaturedSnippet *rank.FeaturedSnippet
	Answer          *rank.Answer
	Infobox         *rank.Infobox
}

// Data is the closed sum type carried by an Update: exactly one of
// EngineProgress, Response, or PostSearchInfobox is non-nil.
type Data struct {
	EngineProgress   *EngineProgress
	Response         *ResponseForTab
	PostSearchInfobox *rank.Infobox
}

// Update is a single item on the progress channel, timestamped relative to
// the start of the request.
type Update struct {
	Data   Data
	TimeMs int64
}

func EngineProgressUpdate(timeMs int64, p provider.ID, phase Phase, errMsg string) Update {
	return Update{TimeMs: timeMs, Data: Data{EngineProgress: &EngineProgress{Provider: p, Phase: phase, Err: errMsg}}}
}

func ResponseUpdate(timeMs int64, r ResponseForTab) Update {
	return Update{TimeMs: timeMs, Data: Data{Response: &r}}
}

func PostSearchInfoboxUpdate(timeMs int64, infobox rank.Infobox) Update {
	return Update{TimeMs: timeMs, Data: Data{PostSearchInfobox: &infobox}}
}
