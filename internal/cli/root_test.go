package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qrelax/internal/ir"
)

const (
	lecturerGraph    = "../../testdata/lecturer/graph.yaml"
	lecturerWorkload = "../../testdata/lecturer/workload.cue"
	scenariosDir     = "../../testdata/scenarios"
)

// execute runs the root command with an empty configuration file, so the
// developer's own qrelax.toml never leaks into a test.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "qrelax.toml")
	require.NoError(t, os.WriteFile(cfgPath, nil, 0o644))

	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	err = cmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

// decodeData unmarshals the data field of a JSON CLI response into v.
func decodeData(t *testing.T, stdout string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp), stdout)
	require.Equal(t, "ok", resp.Status)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"load", "validate", "analyze", "relax", "serve", "test", "config"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCommand_GlobalFlags(t *testing.T) {
	flags := NewRootCommand().PersistentFlags()
	for _, name := range []string{"verbose", "format", "config", "log-format", "source", "db", "endpoint"} {
		assert.NotNil(t, flags.Lookup(name), "missing --%s", name)
	}
	assert.Equal(t, "v", flags.Lookup("verbose").Shorthand)
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	_, _, err := execute(t, "--format", "xml", "config", "show")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestRootCommand_InvalidConfiguration(t *testing.T) {
	_, _, err := execute(t, "--source", "ftp", "config", "show")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "source.kind")
}

func TestConfigShow(t *testing.T) {
	db := filepath.Join(t.TempDir(), "graph.db")

	stdout, _, err := execute(t, "--db", db, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[source]")
	assert.Contains(t, stdout, `kind = "sqlite"`)
	assert.Contains(t, stdout, db)
	assert.Contains(t, stdout, `strategy = "smart"`)
}

func TestConfigShow_JSON(t *testing.T) {
	stdout, _, err := execute(t, "--format", "json", "config", "show", "--source", "sparql",
		"--endpoint", "http://localhost:3030/ds/sparql")
	require.NoError(t, err)

	var cfg struct {
		Source struct {
			Kind     string `json:"kind"`
			Endpoint string `json:"endpoint"`
		} `json:"source"`
		Relax struct {
			K int `json:"k"`
		} `json:"relax"`
	}
	decodeData(t, stdout, &cfg)
	assert.Equal(t, "sparql", cfg.Source.Kind)
	assert.Equal(t, "http://localhost:3030/ds/sparql", cfg.Source.Endpoint)
	assert.Equal(t, 1, cfg.Relax.K)
}

func TestRootCommand_Version(t *testing.T) {
	stdout, _, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "qrelax version "+ir.EngineVersion)
}
