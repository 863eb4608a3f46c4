package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FromJSON decodes a JSON document into a Value.
// Integer literals become Int; any other number becomes Float. JSON null
// becomes Null.
func FromJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return fromDecoded(raw)
}

func fromDecoded(v any) (Value, error) {
	switch val := v.(type) {
	case json.Number:
		s := string(val)
		if !strings.ContainsAny(s, ".eE") {
			if n, err := val.Int64(); err == nil {
				return Int(n), nil
			}
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %s: %w", s, err)
		}
		return Float(f), nil
	case []any:
		list := make(List, len(val))
		for i, elem := range val {
			converted, err := fromDecoded(elem)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			list[i] = converted
		}
		return list, nil
	case map[string]any:
		m := make(Map, len(val))
		for k, elem := range val {
			converted, err := fromDecoded(elem)
			if err != nil {
				return nil, fmt.Errorf("map[%q]: %w", k, err)
			}
			m[k] = converted
		}
		return m, nil
	default:
		return Of(val)
	}
}

// MarshalJSON renders the map as canonical JSON.
func (m Map) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(m)
}

// MarshalJSON renders the list as canonical JSON.
func (l List) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(l)
}

// UnmarshalJSON decodes a JSON object into the map.
func (m *Map) UnmarshalJSON(data []byte) error {
	v, err := FromJSON(data)
	if err != nil {
		return err
	}
	decoded, ok := v.(Map)
	if !ok {
		return fmt.Errorf("expected JSON object, got %s", v.Kind())
	}
	*m = decoded
	return nil
}
