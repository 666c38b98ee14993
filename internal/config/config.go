// Package config resolves qrelax configuration from defaults, a TOML
// file, QRELAX_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"bytes"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/roach88/qrelax/internal/engine"
)

// Source kinds.
const (
	SourceSQLite = "sqlite"
	SourceSPARQL = "sparql"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config is the effective qrelax configuration.
type Config struct {
	Source SourceConfig `mapstructure:"source" toml:"source" json:"source"`
	Relax  RelaxConfig  `mapstructure:"relax" toml:"relax" json:"relax"`
	Server ServerConfig `mapstructure:"server" toml:"server" json:"server"`
	Log    LogConfig    `mapstructure:"log" toml:"log" json:"log"`
}

// SourceConfig selects and tunes the data source.
type SourceConfig struct {
	Kind          string        `mapstructure:"kind" toml:"kind" json:"kind"`                                  // sqlite or sparql
	Path          string        `mapstructure:"path" toml:"path" json:"path"`                                  // SQLite database file
	Endpoint      string        `mapstructure:"endpoint" toml:"endpoint" json:"endpoint"`                      // SPARQL query endpoint URL
	Timeout       time.Duration `mapstructure:"timeout" toml:"timeout" json:"timeout"`                         // per request
	Retries       int           `mapstructure:"retries" toml:"retries" json:"retries"`                         // HTTP retries after the first attempt
	RatePerSecond float64       `mapstructure:"rate_per_second" toml:"rate_per_second" json:"rate_per_second"` // 0 disables limiting
	Burst         int           `mapstructure:"burst" toml:"burst" json:"burst"`
}

// RelaxConfig tunes the repair engine.
type RelaxConfig struct {
	K                  int    `mapstructure:"k" toml:"k" json:"k"`
	Strategy           string `mapstructure:"strategy" toml:"strategy" json:"strategy"`
	K0                 int    `mapstructure:"k0" toml:"k0"`
	MaxRounds          int    `mapstructure:"max_rounds" toml:"max_rounds" json:"max_rounds"`
	ExpandWorkers      int    `mapstructure:"expand_workers" toml:"expand_workers" json:"expand_workers"`
	PlaceholderBroader bool   `mapstructure:"placeholder_broader" toml:"placeholder_broader" json:"placeholder_broader"`
	CacheSize          int    `mapstructure:"cache_size" toml:"cache_size" json:"cache_size"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `mapstructure:"addr" toml:"addr" json:"addr"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level" toml:"level" json:"level"`
	Format string `mapstructure:"format" toml:"format" json:"format"`
}

// Validate checks value ranges and cross-field requirements.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceSQLite:
		if c.Source.Path == "" {
			return fmt.Errorf("source.path is required for the sqlite source")
		}
	case SourceSPARQL:
		if c.Source.Endpoint == "" {
			return fmt.Errorf("source.endpoint is required for the sparql source")
		}
	default:
		return fmt.Errorf("source.kind %q: want %s or %s", c.Source.Kind, SourceSQLite, SourceSPARQL)
	}
	if c.Source.Retries < 0 {
		return fmt.Errorf("source.retries must not be negative")
	}
	if c.Source.RatePerSecond < 0 {
		return fmt.Errorf("source.rate_per_second must not be negative")
	}

	if _, err := engine.ParseStrategy(c.Relax.Strategy); err != nil {
		return fmt.Errorf("relax.strategy: %w", err)
	}
	if c.Relax.K < 1 {
		return fmt.Errorf("relax.k must be at least 1")
	}
	if c.Relax.K0 < 0 || c.Relax.MaxRounds < 0 || c.Relax.ExpandWorkers < 0 {
		return fmt.Errorf("relax.k0, relax.max_rounds and relax.expand_workers must not be negative")
	}

	switch c.Log.Format {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("log.format %q: want %s or %s", c.Log.Format, LogFormatText, LogFormatJSON)
	}
	return nil
}

// EngineOptions translates the relax section into engine options.
func (c *Config) EngineOptions() ([]engine.EngineOption, error) {
	strategy, err := engine.ParseStrategy(c.Relax.Strategy)
	if err != nil {
		return nil, err
	}
	return []engine.EngineOption{
		engine.WithStrategy(strategy),
		engine.WithK0(c.Relax.K0),
		engine.WithMaxRounds(c.Relax.MaxRounds),
		engine.WithExpandWorkers(c.Relax.ExpandWorkers),
		engine.WithPlaceholderBroader(c.Relax.PlaceholderBroader),
		engine.WithCacheSize(c.Relax.CacheSize),
	}, nil
}

// TOML renders the configuration as a TOML document.
func (c *Config) TOML() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}
