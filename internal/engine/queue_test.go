package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulebook/internal/value"
)

func TestFactQueue_PreservesInsertionOrder(t *testing.T) {
	q := newFactQueue()
	q.Push(map[string]any{"id": 1})
	q.Push("scalar fact")
	q.Push(value.List{value.Int(3)})

	assert.Equal(t, 3, q.Len())

	facts, err := q.Values()
	require.NoError(t, err)
	assert.Equal(t, value.Map{"id": value.Int(1)}, facts[0])
	assert.Equal(t, value.String("scalar fact"), facts[1])
	assert.Equal(t, value.List{value.Int(3)}, facts[2])
}

func TestFactQueue_ReportsFirstConversionFailure(t *testing.T) {
	q := newFactQueue()
	q.Push(map[string]any{})
	q.Push(struct{}{})
	q.Push(func() {})

	_, err := q.Values()

	var re *RuntimeError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, ErrCodeInvalidFact, re.Code)
	assert.Equal(t, 1, re.FactIndex)
	assert.Equal(t, 3, q.Len(), "failed facts keep their slot")
}

func TestFactQueue_ValuesDoesNotDrain(t *testing.T) {
	q := newFactQueue()
	q.Push(1)

	_, err := q.Values()
	require.NoError(t, err)
	facts, err := q.Values()
	require.NoError(t, err)

	assert.Len(t, facts, 1)
}

func TestFactView(t *testing.T) {
	m := value.Map{"a": value.Int(1), "inner": value.Map{"b": value.Int(2)}}
	view := factView(m).(value.Map)
	view["a"] = value.Int(9)
	assert.Equal(t, value.Int(1), m["a"])

	l := value.List{value.Int(1)}
	factView(l).(value.List)[0] = value.Int(9)
	assert.Equal(t, value.Int(1), l[0])

	assert.Equal(t, value.String("s"), factView(value.String("s")))
}
