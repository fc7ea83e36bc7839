// Package jsonutil tolerates the shapes LLMs actually produce: values that
// should be objects arrive as JSON strings, numbers arrive where strings
// belong. Tool handlers normalize arguments through these helpers instead
// of rejecting near-miss payloads.
package jsonutil

import (
	"encoding/json"
	"fmt"
)

// ObjectValue normalizes a tool argument that should be a JSON object.
// Accepts a decoded map or a string holding serialized JSON. nil yields an
// empty map.
func ObjectValue(value any) (map[string]any, error) {
	switch v := value.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	case string:
		if v == "" {
			return map[string]any{}, nil
		}
		var out map[string]any
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, fmt.Errorf("value is a string but not valid JSON object text: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected object or JSON text, got %T", value)
	}
}

// ArrayValue normalizes a tool argument that should be a JSON array of
// objects (an aggregation pipeline). Accepts a decoded slice or a string
// holding serialized JSON.
func ArrayValue(value any) ([]map[string]any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []any:
		return objectSlice(v)
	case []map[string]any:
		return v, nil
	case string:
		if v == "" {
			return nil, nil
		}
		var raw []any
		if err := json.Unmarshal([]byte(v), &raw); err != nil {
			return nil, fmt.Errorf("value is a string but not valid JSON array text: %w", err)
		}
		return objectSlice(raw)
	default:
		return nil, fmt.Errorf("expected array or JSON text, got %T", value)
	}
}

func objectSlice(raw []any) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(raw))
	for i, elem := range raw {
		obj, ok := elem.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("element %d is %T, expected object", i, elem)
		}
		out = append(out, obj)
	}
	return out, nil
}

// StringsValue normalizes a tool argument that should be a list of
// strings. Accepts a decoded slice, a JSON string, or a single bare string
// treated as a one-element list.
func StringsValue(value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, elem := range v {
			s, ok := elem.(string)
			if !ok {
				return nil, fmt.Errorf("element %d is %T, expected string", i, elem)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		if v == "" {
			return nil, nil
		}
		var out []string
		if err := json.Unmarshal([]byte(v), &out); err == nil {
			return out, nil
		}
		return []string{v}, nil
	default:
		return nil, fmt.Errorf("expected string list, got %T", value)
	}
}
