package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// copyFixtures copies the scenarios and the fixtures they reference into
// a temp dir, keeping their relative layout.
func copyFixtures(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{"scenarios", "lecturer"} {
		src := filepath.Join("../../testdata", dir)
		entries, err := os.ReadDir(src)
		require.NoError(t, err)
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
		for _, e := range entries {
			data, err := os.ReadFile(filepath.Join(src, e.Name()))
			require.NoError(t, err)
			require.NoError(t, os.WriteFile(filepath.Join(root, dir, e.Name()), data, 0o644))
		}
	}
	return filepath.Join(root, "scenarios")
}

func TestTestCommand_AllPass(t *testing.T) {
	stdout, _, err := execute(t, "test", scenariosDir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ lecturer-smart")
	assert.Contains(t, stdout, "✓ us-lecturer")
	assert.Contains(t, stdout, "Test Summary: 4 passed, 0 failed, 4 total")
	assert.Contains(t, stdout, "✓ All scenarios passed")
}

func TestTestCommand_Filter(t *testing.T) {
	stdout, _, err := execute(t, "--format", "json", "test", scenariosDir, "--filter", "lecturer-*")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, resp.Data.Total)
	assert.Equal(t, 3, resp.Data.Passed)
}

func TestTestCommand_NoScenarios(t *testing.T) {
	stdout, _, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, stdout, "No scenarios found.")
}

func TestTestCommand_MissingDir(t *testing.T) {
	_, _, err := execute(t, "test", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_GoldenMismatchAndUpdate(t *testing.T) {
	dir := copyFixtures(t)
	golden := filepath.Join(dir, "lecturer-smart.golden")
	want, err := os.ReadFile(golden)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(golden, []byte("stale\n"), 0o644))

	stdout, _, err := execute(t, "test", dir, "--filter", "lecturer-smart")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ lecturer-smart")
	assert.Contains(t, stdout, "does not match golden file")

	stdout, _, err = execute(t, "test", dir, "--filter", "lecturer-smart", "--update")
	require.NoError(t, err)
	assert.Contains(t, stdout, "(golden updated)")

	got, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestTestCommand_FailedExpectationJSON(t *testing.T) {
	dir := copyFixtures(t)
	path := filepath.Join(dir, "lecturer-naive.yaml")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// The naive search never prunes.
	data = bytes.Replace(data, []byte("pruned: 0"), []byte("pruned: 5"), 1)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	stdout, _, err := execute(t, "--format", "json", "test", dir, "--filter", "lecturer-naive")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
}
