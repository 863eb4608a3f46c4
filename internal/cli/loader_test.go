package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandRulesetPaths(t *testing.T) {
	files, err := ExpandRulesetPaths([]string{rulesetsDir})
	require.NoError(t, err)

	assert.Equal(t, []string{ruleset("adults"), ruleset("pricing"), ruleset("strict")}, files)
}

func TestExpandRulesetPathsKeepsArgumentOrder(t *testing.T) {
	files, err := ExpandRulesetPaths([]string{ruleset("strict"), ruleset("adults")})
	require.NoError(t, err)

	assert.Equal(t, []string{ruleset("strict"), ruleset("adults")}, files)
}

func TestExpandRulesetPathsErrors(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		code string
	}{
		{"missing path", "/nonexistent/rules", ErrCodeNotFound},
		{"empty directory", t.TempDir(), ErrCodeNoFiles},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExpandRulesetPaths([]string{tt.arg})
			require.Error(t, err)

			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr))
			assert.Equal(t, tt.code, loadErr.Code)
		})
	}
}

func TestFindCUEFilesRecursesAndSorts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0755))
	for _, name := range []string{"b.cue", "a.cue", "notes.txt", filepath.Join("nested", "c.cue")} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644))
	}

	files, err := FindCUEFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.cue"),
		filepath.Join(dir, "b.cue"),
		filepath.Join(dir, "nested", "c.cue"),
	}, files)
}

func TestLoadRulesets(t *testing.T) {
	specs, err := LoadRulesets([]string{ruleset("pricing"), ruleset("adults")})
	require.NoError(t, err)
	require.Len(t, specs, 2)

	assert.Equal(t, "pricing", specs[0].Name)
	assert.Equal(t, "adults", specs[1].Name)
}

func TestLoadRulesetsCompileErrorKeepsPosition(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.cue")
	require.NoError(t, os.WriteFile(path, []byte("rules: [{\n\tname: \"x\"\n"), 0644))

	_, err := LoadRulesets([]string{path})
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeLoadFailed, loadErr.Code)
	assert.Contains(t, loadErr.Error(), "broken.cue")
}

func TestLoadFacts(t *testing.T) {
	t.Run("json list", func(t *testing.T) {
		facts, err := LoadFacts(filepath.Join(factsDir, "people.json"))
		require.NoError(t, err)
		require.Len(t, facts, 2)

		first, ok := facts[0].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "ann", first["name"])
		assert.Equal(t, 34, first["age"])
	})

	t.Run("yaml list", func(t *testing.T) {
		facts, err := LoadFacts(filepath.Join(factsDir, "orders.yaml"))
		require.NoError(t, err)
		require.Len(t, facts, 2)
		assert.Equal(t, 1.5, facts[1].(map[string]any)["price"])
	})

	t.Run("single document is one fact", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "one.yaml")
		require.NoError(t, os.WriteFile(path, []byte("name: solo\n"), 0644))

		facts, err := LoadFacts(path)
		require.NoError(t, err)
		assert.Equal(t, []any{map[string]any{"name": "solo"}}, facts)
	})

	t.Run("empty file has no facts", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.yaml")
		require.NoError(t, os.WriteFile(path, nil, 0644))

		facts, err := LoadFacts(path)
		require.NoError(t, err)
		assert.Empty(t, facts)
	})

	t.Run("malformed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("[unclosed"), 0644))

		_, err := LoadFacts(path)
		var loadErr *LoadError
		require.True(t, errors.As(err, &loadErr))
		assert.Equal(t, ErrCodeFactsFailed, loadErr.Code)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := LoadFacts(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrCodeFactsFailed)
	})
}
