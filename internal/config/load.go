package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides: relax.max_rounds is read
// from QRELAX_RELAX_MAX_ROUNDS.
const EnvPrefix = "QRELAX"

// New returns a Viper instance with defaults and environment binding.
// Flags are bound by the caller with BindPFlag before Decode.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// SearchPaths returns the candidate configuration files, most specific
// first: the working directory, then the XDG config directory.
func SearchPaths() []string {
	return []string{
		FileName,
		filepath.Join(xdg.ConfigHome, AppName, FileName),
	}
}

// ReadFile merges a TOML configuration file into v and returns its path.
//
// An explicit path must exist. Without one, the first existing file of
// SearchPaths is used; having none is not an error and returns "".
func ReadFile(v *viper.Viper, path string) (string, error) {
	if path == "" {
		for _, candidate := range SearchPaths() {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			return "", nil
		}
	}

	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return "", fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return path, nil
}

// Decode unmarshals and validates the configuration held by v.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Load reads defaults, the configuration file at path (or the first one
// found on SearchPaths) and the environment.
func Load(path string) (*Config, error) {
	v := New()
	if _, err := ReadFile(v, path); err != nil {
		return nil, err
	}
	return Decode(v)
}
