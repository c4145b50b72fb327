package models

import (
	"encoding/json"
	"errors"
	"strconv"
)

var (
	ErrStepTypeRequired      = errors.New("step_type is required")
	ErrInvalidInstanceStatus = errors.New("invalid instance status")
)

// CloneMap deep-copies nested maps and slices of a JSON-like value tree.
func CloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}

	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = cloneValue(value)
	}

	return dst
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return CloneMap(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}

		return out
	case []string:
		return append([]string(nil), v...)
	default:
		return v
	}
}

func stringValue(config map[string]any, key string) string {
	value, ok := config[key].(string)
	if !ok {
		return ""
	}

	return value
}

// NumberValue accepts the numeric shapes produced by encoding/json, yaml.v3
// and Go literals.
func NumberValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()

		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)

		return f, err == nil
	default:
		return 0, false
	}
}
