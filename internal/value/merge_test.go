package value

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeRecursesIntoMaps(t *testing.T) {
	target := Map{"user": Map{"name": String("ada"), "age": Int(36)}}
	source := Map{"user": Map{"age": Int(37), "admin": Bool(true)}}

	out := Merge(target, source)

	assert.Equal(t, Map{"user": Map{
		"name":  String("ada"),
		"age":   Int(37),
		"admin": Bool(true),
	}}, out)
}

func TestMergeAtomicKinds(t *testing.T) {
	t1 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	target := Map{
		"list": List{Int(1), Int(2)},
		"when": Time(t1),
		"blob": Bytes("old"),
		"n":    Int(1),
	}
	source := Map{
		"list": List{Int(3)},
		"when": Time(t2),
		"blob": Bytes("new"),
		"n":    Map{"now": String("a map")},
	}

	out := Merge(target, source)

	assert.Equal(t, List{Int(3)}, out["list"], "lists are overwritten, never concatenated")
	assert.True(t, Equal(Time(t2), out["when"]))
	assert.Equal(t, Bytes("new"), out["blob"])
	assert.Equal(t, Int(1), out["n"], "a map never replaces an existing scalar")
}

func TestMergeMapOntoScalarKeepsTarget(t *testing.T) {
	target := Map{"a": Int(1), "l": List{Int(1)}, "empty": Map(nil)}
	source := Map{
		"a":     Map{"b": Int(2)},
		"l":     Map{"b": Int(2)},
		"empty": Map{"b": Int(2)},
		"fresh": Map{"b": Int(2)},
	}

	out := Merge(target, source)

	assert.Equal(t, Int(1), out["a"])
	assert.Equal(t, List{Int(1)}, out["l"])
	assert.Equal(t, Map{"b": Int(2)}, out["empty"])
	assert.Equal(t, Map{"b": Int(2)}, out["fresh"])
}

func TestMergeWithoutOverride(t *testing.T) {
	target := Map{"a": Int(1), "nested": Map{"x": Int(1)}}
	source := Map{"a": Int(2), "b": Int(3), "nested": Map{"x": Int(2), "y": Int(2)}}

	out := Merge(target, source, WithOverride(false))

	assert.Equal(t, Map{
		"a":      Int(1),
		"b":      Int(3),
		"nested": Map{"x": Int(1), "y": Int(2)},
	}, out)
}

func TestMergeSkipKeys(t *testing.T) {
	target := Map{}
	source := Map{"keep": Int(1), "secret": Int(2), "inner": Map{"secret": Int(3), "ok": Int(4)}}

	out := Merge(target, source, WithSkipKeys("secret"))

	assert.Equal(t, Map{"keep": Int(1), "inner": Map{"ok": Int(4)}}, out)
}

func TestMergeNilTarget(t *testing.T) {
	out := Merge(nil, Map{"a": Int(1)})
	assert.Equal(t, Map{"a": Int(1)}, out)
}

func TestMergeDoesNotAliasSource(t *testing.T) {
	source := Map{"inner": Map{"n": Int(1)}, "list": List{Int(1)}}
	target := Merge(Map{}, source)

	target.Map("inner")["n"] = Int(99)
	target.List("list")[0] = Int(99)

	assert.Equal(t, int64(1), source.Map("inner").Int("n"))
	assert.Equal(t, Int(1), source.List("list")[0])
}

func TestMergeLawDisjointPaths(t *testing.T) {
	x := func() Map { return Map{"base": Int(0), "cfg": Map{"x": Int(1)}} }
	a := func() Map { return Map{"cfg": Map{"a": Int(2)}, "onlyA": String("a")} }
	b := func() Map { return Map{"cfg": Map{"b": Int(3)}, "onlyB": List{Int(1)}} }

	left := Merge(Merge(x(), a()), b())
	right := Merge(x(), Merge(a(), b()))

	require.True(t, Equal(left, right), "left=%v right=%v", left, right)
}

func TestMergeLawLaterSourceWins(t *testing.T) {
	x := Map{}
	a := Map{"k": Int(1), "l": List{Int(1)}, "nested": Map{"v": String("a")}}
	b := Map{"k": Int(2), "l": List{Int(2)}, "nested": Map{"v": String("b")}}

	left := Merge(Merge(x.Clone(), a), b)
	right := Merge(x.Clone(), Merge(a.Clone(), b))

	assert.Equal(t, Int(2), left["k"])
	assert.Equal(t, List{Int(2)}, left["l"])
	assert.Equal(t, "b", left.Map("nested").String("v"))
	assert.True(t, Equal(left, right))
}
