// Package urls canonicalizes result URLs and applies the configured
// host/path rewrite and weight rules, so syntactically different URLs that
// denote the same page dedup together during ranking.
package urls

import (
	"net/url"
	"strings"
)

var trackingParams = map[string]struct{}{
	"ref_src": {},
	"_sm_au_": {},
}

// Canonicalize normalizes u so that equivalent URLs compare equal. It never
// errors: a URL that fails to parse is returned unchanged, matching the
// "skip, don't crash the merge" failure mode the rest of the ranker uses.
func Canonicalize(raw string) string {
	trimmed := strings.TrimSuffix(raw, "#")
	if trimmed == "" {
		return ""
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return raw
	}

	if parsed.Scheme == "http" {
		parsed.Scheme = "https"
	}
	parsed.Fragment = ""

	parsed.Path = strings.TrimSuffix(parsed.Path, "/")

	if parsed.RawQuery != "" {
		parsed.RawQuery = stripTrackingParams(parsed.RawQuery)
	}

	if decodedPath, err := url.PathUnescape(parsed.Path); err == nil {
		parsed.Path = decodedPath
	}

	out := parsed.String()
	out = strings.TrimSuffix(out, "/")
	return out
}

// stripTrackingParams removes tracking keys from a raw query string while
// preserving the order of the remaining parameters, which url.Values.Encode
// (alphabetical) cannot do.
func stripTrackingParams(rawQuery string) string {
	pairs := strings.Split(rawQuery, "&")
	kept := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		key := pair
		if idx := strings.IndexByte(pair, '='); idx >= 0 {
			key = pair[:idx]
		}
		if decodedKey, err := url.QueryUnescape(key); err == nil {
			key = decodedKey
		}
		if _, tracked := trackingParams[key]; tracked {
			continue
		}
		kept = append(kept, pair)
	}
	return strings.Join(kept, "&")
}
