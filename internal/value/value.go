package value

import (
	"bytes"
	"slices"
	"time"
	"unicode/utf16"
)

// Value is a sealed interface over the supported kinds.
// Only the types declared in this file implement it.
type Value interface {
	Kind() Kind
	value() // sealed
}

// Kind classifies a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindList
	KindMap
	KindTime
	KindBytes
)

var kindNames = [...]string{
	KindNull:   "null",
	KindString: "string",
	KindInt:    "int",
	KindFloat:  "float",
	KindBool:   "bool",
	KindList:   "list",
	KindMap:    "map",
	KindTime:   "time",
	KindBytes:  "bytes",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Atomic reports whether values of this kind are overwritten, never merged.
func (k Kind) Atomic() bool {
	return k != KindMap
}

// Null is the explicit absence of a value.
type Null struct{}

// String is a UTF-8 string.
type String string

// Int is a signed 64-bit integer.
type Int int64

// Float is a 64-bit floating point number.
type Float float64

// Bool is a boolean.
type Bool bool

// List is an ordered sequence of values.
type List []Value

// Map is a plain mapping from string keys to values.
// Use SortedKeys() for deterministic iteration.
type Map map[string]Value

// Time is an opaque date/time instant.
type Time time.Time

// Bytes is an opaque binary blob.
type Bytes []byte

func (Null) Kind() Kind   { return KindNull }
func (String) Kind() Kind { return KindString }
func (Int) Kind() Kind    { return KindInt }
func (Float) Kind() Kind  { return KindFloat }
func (Bool) Kind() Kind   { return KindBool }
func (List) Kind() Kind   { return KindList }
func (Map) Kind() Kind    { return KindMap }
func (Time) Kind() Kind   { return KindTime }
func (Bytes) Kind() Kind  { return KindBytes }

func (Null) value()   {}
func (String) value() {}
func (Int) value()    {}
func (Float) value()  {}
func (Bool) value()   {}
func (List) value()   {}
func (Map) value()    {}
func (Time) value()   {}
func (Bytes) value()  {}

// KindOf returns the kind of v. A nil interface is reported as KindNull.
func KindOf(v Value) Kind {
	if v == nil {
		return KindNull
	}
	return v.Kind()
}

// Clone returns a deep copy of v. Maps, lists and byte slices are freshly
// allocated; scalars and times are copied by value.
func Clone(v Value) Value {
	switch val := v.(type) {
	case nil:
		return Null{}
	case Map:
		return val.Clone()
	case List:
		if val == nil {
			return List(nil)
		}
		out := make(List, len(val))
		for i, elem := range val {
			out[i] = Clone(elem)
		}
		return out
	case Bytes:
		if val == nil {
			return Bytes(nil)
		}
		return Bytes(bytes.Clone(val))
	default:
		return v
	}
}

// Equal reports whether a and b are deeply equal. Int and Float are distinct
// kinds and never compare equal to each other.
func Equal(a, b Value) bool {
	if KindOf(a) != KindOf(b) {
		return false
	}
	switch av := a.(type) {
	case nil, Null:
		return true
	case Map:
		bv := b.(Map)
		if len(av) != len(bv) {
			return false
		}
		for k, elem := range av {
			other, ok := bv[k]
			if !ok || !Equal(elem, other) {
				return false
			}
		}
		return true
	case List:
		return slices.EqualFunc(av, b.(List), Equal)
	case Bytes:
		return bytes.Equal(av, b.(Bytes))
	case Time:
		return time.Time(av).Equal(time.Time(b.(Time)))
	default:
		return a == b
	}
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
// Go's default string comparison uses UTF-8 which produces a different order
// for characters outside the BMP.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
