package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures what the storefront needs to reach its mall and keep its
// local state.
type Config struct {
	APIBase          string
	SubDomain        string
	PrefsPath        string
	PollEvery        time.Duration
	RegionExclusions []string // nil keeps region.DefaultExclusions
	OTelEndpoint     string   // empty disables trace export
}

const (
	defaultConfigPath = "~/.config/storefront/config.toml"
	defaultPrefsPath  = "~/.config/storefront/prefs.toml"
	defaultAPIBase    = "https://api.it120.cc"
	defaultPollEvery  = 30 * time.Second
)

// envOverrides are read after the file; empty values leave the file's
// settings alone.
type envOverrides struct {
	APIBase      string `env:"STOREFRONT_API_BASE"`
	SubDomain    string `env:"STOREFRONT_SUB_DOMAIN"`
	PrefsPath    string `env:"STOREFRONT_PREFS_PATH"`
	OTelEndpoint string `env:"STOREFRONT_OTEL_ENDPOINT"`
	PollSeconds  int    `env:"STOREFRONT_POLL_SECONDS"`
}

// Load parses the config file, falling back to defaults when it is missing,
// and then applies environment overrides.
func Load(path string) (Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return Config{}, err
	}

	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.apply(overrides); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		APIBase:   defaultAPIBase,
		PrefsPath: mustExpand(defaultPrefsPath),
		PollEvery: defaultPollEvery,
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIBase          string   `toml:"api_base"`
		SubDomain        string   `toml:"sub_domain"`
		PrefsPath        string   `toml:"prefs_path"`
		PollSeconds      int      `toml:"poll_seconds"`
		RegionExclusions []string `toml:"region_exclusions"`
		OTelEndpoint     string   `toml:"otel_endpoint"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIBase); v != "" {
		cfg.APIBase = v
	}
	cfg.SubDomain = strings.Trim(strings.TrimSpace(raw.SubDomain), "/")
	if v := strings.TrimSpace(raw.PrefsPath); v != "" {
		cfg.PrefsPath = mustExpand(v)
	}
	if raw.PollSeconds > 0 {
		cfg.PollEvery = time.Duration(raw.PollSeconds) * time.Second
	}
	if raw.RegionExclusions != nil {
		cfg.RegionExclusions = trimAll(raw.RegionExclusions)
	}
	cfg.OTelEndpoint = strings.TrimSpace(raw.OTelEndpoint)

	return cfg, nil
}

func (c *Config) apply(o envOverrides) error {
	if v := strings.TrimSpace(o.APIBase); v != "" {
		c.APIBase = v
	}
	if v := strings.TrimSpace(o.SubDomain); v != "" {
		c.SubDomain = strings.Trim(v, "/")
	}
	if v := strings.TrimSpace(o.PrefsPath); v != "" {
		expanded, err := expandPath(v)
		if err != nil {
			return fmt.Errorf("STOREFRONT_PREFS_PATH: %w", err)
		}
		c.PrefsPath = expanded
	}
	if v := strings.TrimSpace(o.OTelEndpoint); v != "" {
		c.OTelEndpoint = v
	}
	if o.PollSeconds < 0 {
		return fmt.Errorf("STOREFRONT_POLL_SECONDS must not be negative")
	}
	if o.PollSeconds > 0 {
		c.PollEvery = time.Duration(o.PollSeconds) * time.Second
	}
	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
