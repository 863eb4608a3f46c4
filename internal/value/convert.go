package value

import (
	"fmt"
	"math"
	"math/big"
	"time"
)

// Of converts a native Go value into a Value.
//
// The accepted native types are enumerated explicitly: nil, Value, string,
// bool, every int/uint width that fits int64, float32/float64, *big.Int that
// fits int64, time.Time, []byte, []string, []any, map[string]any and
// map[string]Value. Anything else is rejected.
func Of(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint:
		return uintValue(uint64(val))
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint64:
		return uintValue(val)
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case *big.Int:
		if val == nil || !val.IsInt64() {
			return nil, fmt.Errorf("integer out of int64 range: %v", val)
		}
		return Int(val.Int64()), nil
	case time.Time:
		return Time(val), nil
	case []byte:
		return Bytes(val), nil
	case []string:
		list := make(List, len(val))
		for i, s := range val {
			list[i] = String(s)
		}
		return list, nil
	case []any:
		list := make(List, len(val))
		for i, elem := range val {
			converted, err := Of(elem)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			list[i] = converted
		}
		return list, nil
	case map[string]any:
		m := make(Map, len(val))
		for k, elem := range val {
			converted, err := Of(elem)
			if err != nil {
				return nil, fmt.Errorf("map[%q]: %w", k, err)
			}
			m[k] = converted
		}
		return m, nil
	case map[string]Value:
		return Map(val), nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// MustOf is like Of but panics on unsupported input.
// Intended for literals in tests and examples.
func MustOf(v any) Value {
	out, err := Of(v)
	if err != nil {
		panic(fmt.Sprintf("value.MustOf: %v", err))
	}
	return out
}

// MapOf converts a native map. A nil map converts to an empty Map.
func MapOf(m map[string]any) (Map, error) {
	if m == nil {
		return Map{}, nil
	}
	v, err := Of(m)
	if err != nil {
		return nil, err
	}
	return v.(Map), nil
}

func uintValue(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return nil, fmt.Errorf("unsigned integer out of int64 range: %d", u)
	}
	return Int(u), nil
}

// Native converts v back to plain Go values: map[string]any, []any, int64,
// float64, string, bool, time.Time, []byte and nil.
func Native(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Bool:
		return bool(val)
	case Time:
		return time.Time(val)
	case Bytes:
		return []byte(val)
	case List:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Native(elem)
		}
		return out
	case Map:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = Native(elem)
		}
		return out
	default:
		return nil
	}
}
