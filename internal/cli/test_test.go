package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testResponse struct {
	Status string     `json:"status"`
	Data   TestResult `json:"data"`
	Error  *CLIError  `json:"error"`
}

// writeScenario writes an adults scenario into dir with an absolute ruleset
// path, so it runs from any directory.
func writeScenario(t *testing.T, dir, name string, expectAdults int) string {
	t.Helper()
	rules, err := filepath.Abs(ruleset("adults"))
	require.NoError(t, err)

	src := fmt.Sprintf(`name: %s
rulesets: [%q]
facts:
  - { name: ann, age: 34 }
assertions:
  - type: final_state
    path: adults
    expect: %d
`, name, rules, expectAdults)

	path := filepath.Join(dir, name+".yaml")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func TestTestCommandMissingArgs(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	_, err := execute(t, cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	_, err := execute(t, cmd, "/nonexistent/scenarios")
	require.Error(t, err)

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandNonExistentBase(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	_, err := execute(t, cmd, scenariosDir, "--base", "/nonexistent/base")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base directory not found")
}

func TestTestCommandEmptyDir(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	out, err := execute(t, cmd, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommandSharedScenarios(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	out, err := execute(t, cmd, scenariosDir)
	require.NoError(t, err, "output: %s", out)

	assert.Contains(t, out, "✓ adults")
	assert.Contains(t, out, "✓ fault")
	assert.Contains(t, out, "Test Summary: 4 passed, 0 failed, 4 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFilterJSON(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "json"})
	out, err := execute(t, cmd, scenariosDir, "--filter", "com*")
	require.NoError(t, err)

	var resp testResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Total)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "composed", resp.Data.Scenarios[0].Name)
	assert.Equal(t, "missing", resp.Data.Scenarios[0].Golden)
}

func TestTestCommandInvalidFilter(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	_, err := execute(t, cmd, scenariosDir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "wrong", 7)

	cmd := NewTestCommand(&RootOptions{Format: "json"})
	out, err := execute(t, cmd, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp testResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, 1, resp.Data.Failed)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Errors)
}

func TestTestCommandGoldenLifecycle(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "ann", 1)
	goldenPath := filepath.Join(dir, "golden", "ann.golden")

	// --update writes the golden file.
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir, "--update")
	require.NoError(t, err, "output: %s", out)
	assert.Contains(t, out, "✓ ann (golden updated)")

	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario":"ann"`)
	assert.Contains(t, string(golden), `"adults":1`)

	// A second run matches it.
	out, err = execute(t, NewTestCommand(&RootOptions{Format: "json"}), dir)
	require.NoError(t, err)
	var resp testResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "match", resp.Data.Scenarios[0].Golden)

	// A stale golden file fails the scenario.
	require.NoError(t, os.WriteFile(goldenPath, []byte("{}"), 0644))
	out, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "does not match golden file")
}

func TestTestCommandBasePath(t *testing.T) {
	dir := t.TempDir()
	src := `name: based
rulesets: [adults.cue]
facts:
  - { name: bo, age: 19 }
assertions:
  - type: final_state
    path: names
    expect: [bo]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "based.yaml"), []byte(src), 0644))

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir, "--base", rulesetsDir)
	require.NoError(t, err, "output: %s", out)
	assert.Contains(t, out, "✓ based")
}
