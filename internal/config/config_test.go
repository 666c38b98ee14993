package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qrelax/internal/engine"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Decode(New())
	require.NoError(t, err)

	assert.Equal(t, SourceSQLite, cfg.Source.Kind)
	assert.Equal(t, DefaultDatabasePath(), cfg.Source.Path)
	assert.Equal(t, 30*time.Second, cfg.Source.Timeout)
	assert.Equal(t, 3, cfg.Source.Retries)
	assert.Equal(t, engine.DefaultK, cfg.Relax.K)
	assert.Equal(t, "smart", cfg.Relax.Strategy)
	assert.Equal(t, engine.DefaultMaxRounds, cfg.Relax.MaxRounds)
	assert.False(t, cfg.Relax.PlaceholderBroader)
	assert.Equal(t, LogFormatText, cfg.Log.Format)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
[source]
kind = "sparql"
endpoint = "http://localhost:3030/ds/query"
timeout = "5s"
rate_per_second = 2.5

[relax]
k = 10
strategy = "mbs"
max_rounds = 64
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, SourceSPARQL, cfg.Source.Kind)
	assert.Equal(t, "http://localhost:3030/ds/query", cfg.Source.Endpoint)
	assert.Equal(t, 5*time.Second, cfg.Source.Timeout)
	assert.Equal(t, 2.5, cfg.Source.RatePerSecond)
	assert.Equal(t, 10, cfg.Relax.K)
	assert.Equal(t, "mbs", cfg.Relax.Strategy)
	assert.Equal(t, 64, cfg.Relax.MaxRounds)
	assert.Equal(t, 3, cfg.Source.Retries, "unset keys keep defaults")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestReadFile_SearchesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("[relax]\nk = 4\n"), 0o644))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	v := New()
	used, err := ReadFile(v, "")
	require.NoError(t, err)
	assert.Equal(t, FileName, used)
	assert.Equal(t, 4, v.GetInt("relax.k"))
}

func TestPrecedence(t *testing.T) {
	path := writeConfig(t, "[relax]\nk = 2\nk0 = 1\nmax_rounds = 3\n")
	t.Setenv("QRELAX_RELAX_K0", "5")
	t.Setenv("QRELAX_RELAX_MAX_ROUNDS", "6")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("max-rounds", 0, "")
	require.NoError(t, flags.Parse([]string{"--max-rounds=9"}))

	v := New()
	require.NoError(t, v.BindPFlag("relax.max_rounds", flags.Lookup("max-rounds")))
	_, err := ReadFile(v, path)
	require.NoError(t, err)

	cfg, err := Decode(v)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Relax.K, "file over default")
	assert.Equal(t, 5, cfg.Relax.K0, "env over file")
	assert.Equal(t, 9, cfg.Relax.MaxRounds, "flag over env")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unknown kind", func(c *Config) { c.Source.Kind = "neo4j" }, `source.kind "neo4j"`},
		{"sqlite without path", func(c *Config) { c.Source.Path = "" }, "source.path is required"},
		{"sparql without endpoint", func(c *Config) { c.Source.Kind = SourceSPARQL }, "source.endpoint is required"},
		{"negative retries", func(c *Config) { c.Source.Retries = -1 }, "source.retries"},
		{"negative rate", func(c *Config) { c.Source.RatePerSecond = -1 }, "source.rate_per_second"},
		{"unknown strategy", func(c *Config) { c.Relax.Strategy = "greedy" }, "relax.strategy"},
		{"zero k", func(c *Config) { c.Relax.K = 0 }, "relax.k must be at least 1"},
		{"negative rounds", func(c *Config) { c.Relax.MaxRounds = -1 }, "must not be negative"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, `log.format "xml"`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Decode(New())
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	t.Setenv("QRELAX_RELAX_STRATEGY", "bogus")
	_, err := Decode(New())
	assert.ErrorContains(t, err, "invalid config")
}

func TestEngineOptions(t *testing.T) {
	cfg, err := Decode(New())
	require.NoError(t, err)
	cfg.Relax.Strategy = "naive"

	opts, err := cfg.EngineOptions()
	require.NoError(t, err)
	e := engine.New(nil, opts...)
	assert.Equal(t, engine.StrategyNaive, e.Strategy())
}

func TestTOML_RoundTrip(t *testing.T) {
	cfg, err := Decode(New())
	require.NoError(t, err)
	cfg.Relax.Strategy = "mbs"
	cfg.Server.Addr = "0.0.0.0:9000"

	data, err := cfg.TOML()
	require.NoError(t, err)
	assert.Contains(t, string(data), "[relax]")

	var decoded struct {
		Relax  RelaxConfig  `toml:"relax"`
		Server ServerConfig `toml:"server"`
	}
	_, err = toml.Decode(string(data), &decoded)
	require.NoError(t, err)
	assert.Equal(t, cfg.Relax, decoded.Relax)
	assert.Equal(t, cfg.Server, decoded.Server)
}
