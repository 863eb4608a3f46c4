package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulebook/internal/value"
)

// Golden files live in testdata/golden. Regenerate with:
//
//	go test ./internal/harness -run TestRunWithGolden -update

func TestRunWithGolden_Adults(t *testing.T) {
	result, err := RunWithGolden(t, loadShared(t, "adults"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors=%v", result.Errors)
}

func TestRunWithGolden_Composed(t *testing.T) {
	result, err := RunWithGolden(t, loadShared(t, "composed"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors=%v", result.Errors)
}

func TestSnapshot_Canonical(t *testing.T) {
	result := NewResult()
	result.SessionID = "s"
	result.Trace = []TraceEvent{{Seq: 1, FactIndex: 0, Rule: "r", Outcome: "skipped", Issues: []string{"age: missing"}}}
	result.State = value.Map{"b": value.Int(1), "a": value.String("<x>")}

	data, err := Snapshot("snap", result)
	require.NoError(t, err)

	assert.Equal(t,
		`{"scenario":"snap","session_id":"s","state":{"a":"<x>","b":1},"trace":[{"fact":0,"outcome":"skipped","rule":"r","seq":1}]}`,
		string(data),
		"keys sorted, no HTML escaping, issues omitted")
}

func TestSnapshot_IncludesFireError(t *testing.T) {
	result := NewResult()
	result.FireError = "HANDLER_FAULT: boom"

	data, err := Snapshot("fault", result)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"fire_error":"HANDLER_FAULT: boom"`)
}
