package urls

import (
	"net/url"
	"strings"
)

// HostPath identifies a host and path pattern used in rewrite and weight
// rules. A host beginning with "." matches any subdomain suffix; otherwise
// the host must match exactly. A path ending in "/" (or empty) matches as a
// prefix; otherwise it must match exactly. Host and Path are stored without
// a leading slash on Path, mirroring how they're read off a parsed URL.
type HostPath struct {
	Host string
	Path string
}

// Rewrite is a single from/to rule in the configured replacement list.
type Rewrite struct {
	From HostPath
	To   HostPath
}

// WeightRule assigns a weight multiplier to URLs matching Match.
type WeightRule struct {
	Match  HostPath
	Weight float64
}

// contains reports whether host/path fall under hp's pattern.
func (hp HostPath) contains(host, path string) bool {
	if strings.HasPrefix(hp.Host, ".") {
		if !strings.HasSuffix(host, hp.Host) {
			return false
		}
	} else if host != hp.Host {
		return false
	}

	if strings.HasSuffix(hp.Path, "/") || hp.Path == "" {
		return strings.HasPrefix(path, hp.Path)
	}
	return path == hp.Path
}

// replaceHostPath computes the new host/path for real against a from/to rule,
// reporting ok=false when the rule doesn't match.
func replaceHostPath(from, to, real HostPath) (newHost, newPath string, ok bool) {
	switch {
	case strings.HasPrefix(from.Host, "."):
		if strings.HasPrefix(to.Host, ".") {
			withoutSuffix, found := strings.CutSuffix(real.Host, from.Host)
			if !found {
				return "", "", false
			}
			newHost = withoutSuffix + to.Host
		} else if strings.HasSuffix(real.Host, from.Host) {
			newHost = to.Host
		} else {
			return "", "", false
		}
	case real.Host == from.Host:
		newHost = to.Host
	default:
		return "", "", false
	}

	switch {
	case strings.HasSuffix(from.Path, "/") || from.Path == "":
		if strings.HasSuffix(to.Path, "/") || to.Path == "" {
			withoutPrefix, found := strings.CutPrefix(real.Path, from.Path)
			if !found {
				return "", "", false
			}
			newPath = to.Path + withoutPrefix
		} else if strings.HasPrefix(real.Path, from.Path) {
			newPath = to.Path
		} else {
			return "", "", false
		}
	case real.Path == from.Path:
		newPath = to.Path
	default:
		return "", "", false
	}

	return newHost, newPath, true
}

// ApplyRewrites walks rules in order and applies the first match, then
// re-canonicalizes the result. A URL that matches no rule, or fails to
// parse, is returned canonicalized but otherwise unchanged.
func ApplyRewrites(raw string, rules []Rewrite) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	real := HostPath{
		Host: parsed.Host,
		Path: strings.TrimPrefix(parsed.Path, "/"),
	}

	for _, rule := range rules {
		newHost, newPath, ok := replaceHostPath(rule.From, rule.To, real)
		if !ok {
			continue
		}
		parsed.Host = newHost
		parsed.Path = "/" + newPath
		break
	}

	return Canonicalize(parsed.String())
}

// URLWeight returns the weight of the first matching rule, in the order
// given (callers sort rules by descending specificity), or 1.0 when nothing
// matches.
func URLWeight(raw string, rules []WeightRule) float64 {
	parsed, err := url.Parse(raw)
	if err != nil {
		return 1.0
	}

	host := parsed.Host
	path := strings.TrimPrefix(parsed.Path, "/")

	for _, rule := range rules {
		if rule.Match.contains(host, path) {
			return rule.Weight
		}
	}
	return 1.0
}

// Specificity ranks a HostPath pattern for sorting weight rules so the most
// specific match is tried first: len(host)+len(path), longer wins.
func Specificity(hp HostPath) int {
	return len(hp.Host) + len(hp.Path)
}
