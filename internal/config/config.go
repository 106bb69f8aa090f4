// Package config loads the TOML configuration file, overlays it on top of
// the embedded defaults, and exposes a read-only snapshot that the rest of
// the process treats as immutable for the lifetime of a request.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cast"

	"github.com/ambit-search/ambit/internal/provider"
	"github.com/ambit-search/ambit/internal/urls"
)

//go:embed default.toml
var embeddedDefaults []byte

const DefaultBind = "0.0.0.0:28019"

// EngineConfig is a provider's resolved per-request settings.
type EngineConfig struct {
	Enabled bool
	Weight  float64
	Extra   map[string]any
}

type ImageProxyConfig struct {
	Enabled         bool
	MaxDownloadSize uint64
}

type ImageSearchConfig struct {
	Enabled     bool
	ShowEngines bool
	Proxy       ImageProxyConfig
}

type UIConfig struct {
	ShowEngineListSeparator bool
	ShowVersionInfo         bool
}

// Config is the fully resolved, overlay-applied configuration snapshot.
type Config struct {
	Bind        string
	API         bool
	UI          UIConfig
	ImageSearch ImageSearchConfig
	Engines     map[provider.ID]EngineConfig
	URLReplace  []urls.Rewrite
	URLWeight   []urls.WeightRule
}

// View adapts Config to provider.ConfigView without leaking the full
// Config type into the provider package.
type View struct {
	cfg *Config
}

func NewView(cfg *Config) View { return View{cfg: cfg} }

func (v View) ProviderExtra(id provider.ID) map[string]any {
	if v.cfg == nil {
		return nil
	}
	return v.cfg.Engines[id].Extra
}

// raw mirrors the TOML shape; pointers distinguish "absent" from "explicit
// zero value" so overlay-on-defaults can tell which fields the user config
// actually set.
type raw struct {
	Bind        *string        `toml:"bind"`
	API         *bool          `toml:"api"`
	UI          rawUI          `toml:"ui"`
	ImageSearch rawImageSearch `toml:"image_search"`
	Engines     map[string]any `toml:"engines"`
	URLs        rawURLs        `toml:"urls"`
}

type rawUI struct {
	ShowEngineListSeparator *bool `toml:"show_engine_list_separator"`
	ShowVersionInfo         *bool `toml:"show_version_info"`
}

type rawImageSearch struct {
	Enabled     *bool         `toml:"enabled"`
	ShowEngines *bool         `toml:"show_engines"`
	Proxy       rawImageProxy `toml:"proxy"`
}

type rawImageProxy struct {
	Enabled         *bool   `toml:"enabled"`
	MaxDownloadSize *uint64 `toml:"max_download_size"`
}

type rawURLs struct {
	Replace []rawReplaceRule `toml:"replace"`
	Weight  []rawWeightRule  `toml:"weight"`
}

type rawReplaceRule struct {
	From string `toml:"from"`
	To   string `toml:"to"`
}

type rawWeightRule struct {
	Match  string  `toml:"match"`
	Weight float64 `toml:"weight"`
}

// Load reads configPath, seeding it from the embedded defaults if it
// doesn't exist yet, and overlays it on top of those same defaults.
func Load(configPath string) (*Config, error) {
	var base raw
	if err := toml.Unmarshal(embeddedDefaults, &base); err != nil {
		return nil, fmt.Errorf("config: decoding embedded defaults: %w", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := seed(configPath); err != nil {
			return nil, fmt.Errorf("config: seeding %s: %w", configPath, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("config: checking %s: %w", configPath, err)
	}

	userBytes, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", configPath, err)
	}

	var given raw
	if err := toml.Unmarshal(userBytes, &given); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", configPath, err)
	}

	merged, err := overlay(base, given)
	if err != nil {
		return nil, err
	}
	return merged, nil
}

func seed(configPath string) error {
	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(configPath, embeddedDefaults, 0o644)
}

func overlay(base, given raw) (*Config, error) {
	cfg := &Config{
		Bind: orString(base.Bind, DefaultBind),
	}
	if given.Bind != nil {
		cfg.Bind = *given.Bind
	}

	cfg.API = orBool(base.API, false)
	if given.API != nil {
		cfg.API = *given.API
	}

	cfg.UI.ShowEngineListSeparator = orBool(coalesce(given.UI.ShowEngineListSeparator, base.UI.ShowEngineListSeparator), true)
	cfg.UI.ShowVersionInfo = orBool(coalesce(given.UI.ShowVersionInfo, base.UI.ShowVersionInfo), true)

	cfg.ImageSearch.Enabled = orBool(coalesce(given.ImageSearch.Enabled, base.ImageSearch.Enabled), true)
	cfg.ImageSearch.ShowEngines = orBool(coalesce(given.ImageSearch.ShowEngines, base.ImageSearch.ShowEngines), true)
	cfg.ImageSearch.Proxy.Enabled = orBool(coalesce(given.ImageSearch.Proxy.Enabled, base.ImageSearch.Proxy.Enabled), true)
	cfg.ImageSearch.Proxy.MaxDownloadSize = orUint64(coalesce(given.ImageSearch.Proxy.MaxDownloadSize, base.ImageSearch.Proxy.MaxDownloadSize), 10*1024*1024)

	baseEngines, err := decodeEngines(base.Engines)
	if err != nil {
		return nil, fmt.Errorf("config: embedded defaults: %w", err)
	}
	givenEngines, err := decodeEngines(given.Engines)
	if err != nil {
		return nil, fmt.Errorf("config: engines: %w", err)
	}
	cfg.Engines = mergeEngines(baseEngines, givenEngines)

	cfg.URLReplace = mergeReplaceRules(base.URLs.Replace, given.URLs.Replace)
	cfg.URLWeight = mergeWeightRules(base.URLs.Weight, given.URLs.Weight)

	return cfg, nil
}

func coalesce[T any](vals ...*T) *T {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func orString(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

func orBool(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func orUint64(v *uint64, def uint64) uint64 {
	if v == nil {
		return def
	}
	return *v
}

// defaultEngineConfig mirrors FullEngineConfig::default(): enabled, weight 1.
func defaultEngineConfig() EngineConfig {
	return EngineConfig{Enabled: true, Weight: 1.0}
}

func decodeEngines(m map[string]any) (map[provider.ID]EngineConfig, error) {
	out := make(map[provider.ID]EngineConfig, len(m))
	for key, raw := range m {
		id := provider.ID(key)
		switch v := raw.(type) {
		case bool:
			cfg := defaultEngineConfig()
			cfg.Enabled = v
			out[id] = cfg
		case map[string]any:
			cfg := defaultEngineConfig()
			if enabled, ok := v["enabled"]; ok {
				cfg.Enabled = cast.ToBool(enabled)
			}
			if weight, ok := v["weight"]; ok {
				w := cast.ToFloat64(weight)
				if w != 0 {
					cfg.Weight = w
				}
			}
			extra := make(map[string]any, len(v))
			for k, val := range v {
				if k == "enabled" || k == "weight" {
					continue
				}
				extra[k] = val
			}
			if len(extra) > 0 {
				cfg.Extra = extra
			}
			out[id] = cfg
		default:
			return nil, fmt.Errorf("engines.%s: expected bool or table, got %T", key, raw)
		}
	}
	return out, nil
}

// mergeEngines applies config.rs's EnginesConfig::update: enabled is always
// taken from the overlay, weight only overrides when the overlay set a
// nonzero value, extra is replaced wholesale rather than merged key-by-key.
func mergeEngines(base, given map[provider.ID]EngineConfig) map[provider.ID]EngineConfig {
	out := make(map[provider.ID]EngineConfig, len(base)+len(given))
	for id, cfg := range base {
		out[id] = cfg
	}
	for id, overlay := range given {
		existing, ok := out[id]
		if !ok {
			out[id] = overlay
			continue
		}
		existing.Enabled = overlay.Enabled
		if overlay.Weight != 0 {
			existing.Weight = overlay.Weight
		}
		existing.Extra = overlay.Extra
		out[id] = existing
	}
	return out
}

func mergeReplaceRules(base, given []rawReplaceRule) []urls.Rewrite {
	rules := make([]urls.Rewrite, 0, len(given)+len(base))
	for _, r := range given {
		rules = append(rules, urls.Rewrite{From: parseHostPath(r.From), To: parseHostPath(r.To)})
	}
	for _, r := range base {
		rules = append(rules, urls.Rewrite{From: parseHostPath(r.From), To: parseHostPath(r.To)})
	}
	return rules
}

// mergeWeightRules concatenates base and overlay rules, then sorts by
// descending specificity so the most specific pattern is tried first
// regardless of where it was declared.
func mergeWeightRules(base, given []rawWeightRule) []urls.WeightRule {
	rules := make([]urls.WeightRule, 0, len(given)+len(base))
	for _, r := range given {
		rules = append(rules, urls.WeightRule{Match: parseHostPath(r.Match), Weight: r.Weight})
	}
	for _, r := range base {
		rules = append(rules, urls.WeightRule{Match: parseHostPath(r.Match), Weight: r.Weight})
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return urls.Specificity(rules[i].Match) > urls.Specificity(rules[j].Match)
	})
	return rules
}

func parseHostPath(s string) urls.HostPath {
	if idx := strings.IndexByte(s, '/'); idx >= 0 {
		return urls.HostPath{Host: s[:idx], Path: s[idx+1:]}
	}
	return urls.HostPath{Host: s}
}

// DiscoverPath walks the search order for a config file:
// $XDG_CONFIG_HOME/appname, then $HOME/.config/appname, then config.toml
// directly in the current directory. It
// returns the first candidate that exists, or the first candidate overall
// (for Load to seed) when none do.
func DiscoverPath(appname string) string {
	var candidates []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidates = append(candidates, filepath.Join(xdg, appname, "config.toml"))
	}
	if home := os.Getenv("HOME"); home != "" {
		candidates = append(candidates, filepath.Join(home, ".config", appname, "config.toml"))
	}
	candidates = append(candidates, "config.toml")

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return candidates[0]
}
