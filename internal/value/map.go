package value

import (
	"maps"
	"slices"
)

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
func (m Map) SortedKeys() []string {
	keys := slices.Collect(maps.Keys(m))
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// Clone returns a deep copy of m. A nil map clones to an empty, non-nil map.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = Clone(v)
	}
	return out
}

// ShallowCopy copies the top-level keys of m. Nested maps and lists are shared.
func (m Map) ShallowCopy() Map {
	out := make(Map, len(m))
	maps.Copy(out, m)
	return out
}

// Lookup walks a key path through nested maps.
func (m Map) Lookup(path ...string) (Value, bool) {
	if len(path) == 0 {
		return m, true
	}
	cur := m
	for i, key := range path {
		v, ok := cur[key]
		if !ok {
			return nil, false
		}
		if i == len(path)-1 {
			return v, true
		}
		next, ok := v.(Map)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return nil, false
}

// SetPath assigns v at a key path, creating intermediate maps as needed.
// A non-map value sitting on the path is replaced by a new map.
func (m Map) SetPath(v Value, path ...string) {
	if len(path) == 0 {
		return
	}
	cur := m
	for _, key := range path[:len(path)-1] {
		next, ok := cur[key].(Map)
		if !ok {
			next = Map{}
			cur[key] = next
		}
		cur = next
	}
	cur[path[len(path)-1]] = v
}

// Int returns the Int stored at key, or 0.
func (m Map) Int(key string) int64 {
	if v, ok := m[key].(Int); ok {
		return int64(v)
	}
	return 0
}

// Float returns the numeric value stored at key as float64, or 0.
// Int values are widened.
func (m Map) Float(key string) float64 {
	f, _ := Number(m[key])
	return f
}

// String returns the String stored at key, or "".
func (m Map) String(key string) string {
	if v, ok := m[key].(String); ok {
		return string(v)
	}
	return ""
}

// Bool returns the Bool stored at key, or false.
func (m Map) Bool(key string) bool {
	if v, ok := m[key].(Bool); ok {
		return bool(v)
	}
	return false
}

// List returns the List stored at key, or nil.
func (m Map) List(key string) List {
	if v, ok := m[key].(List); ok {
		return v
	}
	return nil
}

// Map returns the nested Map stored at key, or nil.
func (m Map) Map(key string) Map {
	if v, ok := m[key].(Map); ok {
		return v
	}
	return nil
}

// Number widens Int and Float to float64.
func Number(v Value) (float64, bool) {
	switch n := v.(type) {
	case Int:
		return float64(n), true
	case Float:
		return float64(n), true
	default:
		return 0, false
	}
}
