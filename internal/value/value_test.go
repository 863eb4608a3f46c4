package value

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	// Compile-time check via assignment
	var _ Value = Null{}
	var _ Value = String("s")
	var _ Value = Int(1)
	var _ Value = Float(1.5)
	var _ Value = Bool(true)
	var _ Value = List{Int(1)}
	var _ Value = Map{"k": String("v")}
	var _ Value = Time(time.Unix(0, 0))
	var _ Value = Bytes("raw")
}

func TestKindAtomic(t *testing.T) {
	assert.False(t, KindMap.Atomic())
	for _, k := range []Kind{KindNull, KindString, KindInt, KindFloat, KindBool, KindList, KindTime, KindBytes} {
		assert.True(t, k.Atomic(), k.String())
	}
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestOfNativeTypes(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Null{}},
		{"string", "x", String("x")},
		{"bool", true, Bool(true)},
		{"int", 42, Int(42)},
		{"int32", int32(-7), Int(-7)},
		{"uint16", uint16(9), Int(9)},
		{"float64", 1.5, Float(1.5)},
		{"big", big.NewInt(12), Int(12)},
		{"time", now, Time(now)},
		{"bytes", []byte("ab"), Bytes("ab")},
		{"strings", []string{"a", "b"}, List{String("a"), String("b")}},
		{"nested", map[string]any{"a": []any{1, "two"}}, Map{"a": List{Int(1), String("two")}}},
		{"value passthrough", Int(3), Int(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Of(tt.in)
			require.NoError(t, err)
			assert.True(t, Equal(tt.want, got), "want %#v, got %#v", tt.want, got)
		})
	}
}

func TestOfRejectsUnsupported(t *testing.T) {
	type point struct{ X int }

	_, err := Of(point{X: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")

	_, err = Of(map[string]any{"nested": []any{func() {}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `map["nested"]`)

	_, err = Of(uint64(1 << 63))
	require.Error(t, err)
}

func TestMustOfPanics(t *testing.T) {
	assert.Panics(t, func() { MustOf(struct{}{}) })
	assert.NotPanics(t, func() { MustOf(map[string]any{"a": 1}) })
}

func TestNativeRoundTrip(t *testing.T) {
	in := map[string]any{
		"name":  "cart",
		"count": int64(3),
		"ratio": 0.5,
		"tags":  []any{"a", true},
		"inner": map[string]any{"nil": nil},
	}

	v, err := Of(in)
	require.NoError(t, err)
	assert.Equal(t, in, Native(v))
}

func TestCloneIsDeep(t *testing.T) {
	orig := Map{
		"list":  List{Int(1)},
		"inner": Map{"n": Int(1)},
		"raw":   Bytes("ab"),
	}

	cp := orig.Clone()
	cp.Map("inner")["n"] = Int(2)
	cp.List("list")[0] = Int(9)
	cp["raw"].(Bytes)[0] = 'z'

	assert.Equal(t, int64(1), orig.Map("inner").Int("n"))
	assert.Equal(t, Int(1), orig.List("list")[0])
	assert.Equal(t, Bytes("ab"), orig["raw"])
}

func TestShallowCopySharesNested(t *testing.T) {
	inner := Map{"n": Int(1)}
	orig := Map{"top": Int(1), "inner": inner}

	cp := orig.ShallowCopy()
	cp["top"] = Int(2)
	cp.Map("inner")["n"] = Int(5)

	assert.Equal(t, int64(1), orig.Int("top"), "top-level reassignment must not leak")
	assert.Equal(t, int64(5), orig.Map("inner").Int("n"), "nested values are shared")
}

func TestMapLookupAndSetPath(t *testing.T) {
	m := Map{}
	m.SetPath(Int(1), "a", "b", "c")

	v, ok := m.Lookup("a", "b", "c")
	require.True(t, ok)
	assert.Equal(t, Int(1), v)

	_, ok = m.Lookup("a", "missing")
	assert.False(t, ok)

	_, ok = m.Lookup("a", "b", "c", "d")
	assert.False(t, ok, "cannot descend into a scalar")

	m.SetPath(String("x"), "a", "b", "c", "d")
	v, ok = m.Lookup("a", "b", "c", "d")
	require.True(t, ok)
	assert.Equal(t, String("x"), v)
}

func TestMapTypedGetters(t *testing.T) {
	m := Map{
		"i": Int(4),
		"f": Float(1.5),
		"s": String("str"),
		"b": Bool(true),
	}

	assert.Equal(t, int64(4), m.Int("i"))
	assert.Equal(t, 4.0, m.Float("i"))
	assert.Equal(t, 1.5, m.Float("f"))
	assert.Equal(t, "str", m.String("s"))
	assert.True(t, m.Bool("b"))

	assert.Zero(t, m.Int("s"))
	assert.Zero(t, m.String("missing"))
	assert.Nil(t, m.List("i"))
	assert.Nil(t, m.Map("i"))
}

func TestSortedKeysRFC8785Order(t *testing.T) {
	m := Map{"b": Null{}, "a": Null{}, "B": Null{}, "aa": Null{}}
	assert.Equal(t, []string{"B", "a", "aa", "b"}, m.SortedKeys())
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Map{"a": List{Int(1)}}, Map{"a": List{Int(1)}}))
	assert.False(t, Equal(Int(1), Float(1)))
	assert.False(t, Equal(Map{"a": Int(1)}, Map{"b": Int(1)}))
	assert.True(t, Equal(nil, Null{}))

	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, Equal(Time(t1), Time(t1.In(time.FixedZone("x", 3600)))))
}
