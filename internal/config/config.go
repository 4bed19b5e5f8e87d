// Package config loads the napista YAML configuration.
//
// A missing file is not an error: the defaults below describe the public
// "Na Pista!" sheet and are enough to run. The Sheets API key is normally
// supplied through the environment rather than the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // zone database for hosts without one

	"gopkg.in/yaml.v3"

	"github.com/itantech/napista/internal/filter"
	"github.com/itantech/napista/internal/ingest"
	"github.com/itantech/napista/internal/logger"
	"github.com/itantech/napista/internal/storage"
)

// Environment variables consulted for the Sheets API key, in order.
const (
	EnvAPIKey       = "NAPISTA_SHEETS_API_KEY"
	EnvLegacyAPIKey = "VITE_GOOGLE_SHEETS_API_KEY"
)

// Source kinds.
const (
	SourceAPI  = "api"
	SourceHTML = "html"
)

const (
	DefaultSpreadsheetID = "1184qmC-7mpZtpg15R--il4K3tVxSTAcJUZxpWf9KFAs"
	DefaultRange         = "Página2"
	DefaultTimezone      = "America/Sao_Paulo"
	DefaultListen        = "127.0.0.1:8080"
	DefaultRefresh       = "*/30 * * * *"
)

// Config is the top-level application configuration.
type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Snapshot SnapshotConfig `yaml:"snapshot"`

	// Cutoff is "grace" (from yesterday) or "strict" (from today).
	Cutoff string `yaml:"cutoff"`

	// Timezone is the IANA zone whose midnight starts a day.
	Timezone string `yaml:"timezone"`

	Picks PicksConfig `yaml:"picks"`

	// Listen is the HTTP listen address of the serve command.
	Listen string `yaml:"listen"`

	// RefreshCron is the cron schedule for reloading the sheet while serving.
	RefreshCron string `yaml:"refresh"`

	LogLevel string `yaml:"log_level"`
}

// SourceConfig describes where live rows come from.
type SourceConfig struct {
	Kind          string        `yaml:"kind"`
	SpreadsheetID string        `yaml:"spreadsheet_id"`
	Range         string        `yaml:"range"`
	APIKey        string        `yaml:"api_key"`
	HTMLURL       string        `yaml:"html_url"`
	Timeout       time.Duration `yaml:"timeout"`
}

// SnapshotConfig locates the local fallback snapshot.
type SnapshotConfig struct {
	Path string `yaml:"path"`
	// RefreshOnSuccess rewrites the snapshot after each live refresh in serve.
	RefreshOnSuccess bool `yaml:"refresh_on_success"`
}

// PicksConfig tunes the curator's picks.
type PicksConfig struct {
	Size     int      `yaml:"size"`
	Priority []string `yaml:"priority"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.Normalize()
	return cfg
}

// Normalize fills in missing values with defaults.
func (c *Config) Normalize() {
	if c.Source.Kind == "" {
		c.Source.Kind = SourceAPI
	}
	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))
	if c.Source.SpreadsheetID == "" {
		c.Source.SpreadsheetID = DefaultSpreadsheetID
	}
	if c.Source.Range == "" {
		c.Source.Range = DefaultRange
	}
	if c.Source.Timeout <= 0 {
		c.Source.Timeout = ingest.DefaultTimeout
	}
	if c.Snapshot.Path == "" {
		c.Snapshot.Path = storage.DefaultPath
	}
	if c.Cutoff == "" {
		c.Cutoff = string(ingest.CutoffGrace)
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.Picks.Size <= 0 {
		c.Picks.Size = filter.DefaultPicks
	}
	if c.Picks.Priority == nil {
		c.Picks.Priority = append([]string(nil), filter.DefaultPriority...)
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.RefreshCron == "" {
		c.RefreshCron = DefaultRefresh
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// ApplyEnv takes the API key from the environment when the file leaves it empty.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if c.Source.APIKey != "" {
		return
	}
	for _, name := range []string{EnvAPIKey, EnvLegacyAPIKey} {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			c.Source.APIKey = v
			return
		}
	}
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceAPI:
	case SourceHTML:
		if c.Source.HTMLURL == "" {
			return errors.New("source.html_url is required when source.kind is html")
		}
	default:
		return fmt.Errorf("unknown source.kind: %s (want api or html)", c.Source.Kind)
	}
	if _, err := ingest.ParseCutoff(c.Cutoff); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// CutoffPolicy returns the parsed cutoff policy.
func (c *Config) CutoffPolicy() ingest.CutoffPolicy {
	policy, _ := ingest.ParseCutoff(c.Cutoff)
	return policy
}

// Load reads the YAML file at path, applies defaults and environment
// overrides, and validates the result. An empty path or a missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	cfg.Normalize()
	cfg.ApplyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
