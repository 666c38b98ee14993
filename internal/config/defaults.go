package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/roach88/qrelax/internal/datasource"
	"github.com/roach88/qrelax/internal/engine"
)

// AppName names the XDG subdirectories.
const AppName = "qrelax"

// FileName is the configuration file name.
const FileName = "qrelax.toml"

// DefaultDatabasePath returns the SQLite graph location under the XDG
// data directory.
func DefaultDatabasePath() string {
	return filepath.Join(xdg.DataHome, AppName, "graph.db")
}

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("source.kind", SourceSQLite)
	v.SetDefault("source.path", DefaultDatabasePath())
	v.SetDefault("source.endpoint", "")
	v.SetDefault("source.timeout", "30s")
	v.SetDefault("source.retries", 3)
	v.SetDefault("source.rate_per_second", 0.0)
	v.SetDefault("source.burst", 1)

	v.SetDefault("relax.k", engine.DefaultK)
	v.SetDefault("relax.strategy", engine.StrategySmart.String())
	v.SetDefault("relax.k0", 0)
	v.SetDefault("relax.max_rounds", engine.DefaultMaxRounds)
	v.SetDefault("relax.expand_workers", 0)
	v.SetDefault("relax.placeholder_broader", false)
	v.SetDefault("relax.cache_size", datasource.DefaultCacheSize)

	v.SetDefault("server.addr", "127.0.0.1:8470")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", LogFormatText)
}
