package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseValue coerces a raw environment string into a typed value. The ladder
// is fixed and the first match wins: boolean, integer, float, JSON document,
// raw string. "null" therefore parses as a JSON null (nil), not as a string.
func ParseValue(raw string) any {
	switch strings.ToLower(raw) {
	case "true":
		return true
	case "false":
		return false
	}

	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}

	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}

	if v, ok := parseJSON([]byte(raw)); ok {
		return v
	}

	return raw
}

// parseJSON decodes exactly one JSON value spanning the whole input.
func parseJSON(data []byte) (any, bool) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, false
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	return normalizeValue(v), true
}

// normalizeValue canonicalizes parser output so every layer yields the same
// scalar types: int64 for integers, float64 for other numbers.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case uint:
		return int64(t)
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint64:
		if t > 1<<63-1 {
			return float64(t)
		}
		return int64(t)
	case float32:
		return float64(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalizeValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = normalizeValue(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[toKey(k)] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}

func toKey(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprint(k)
}

// foldKeys returns a deep copy of m with every map key lower-cased, so JSON
// keys match environment-derived segments case-insensitively.
func foldKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = foldValue(v)
	}
	return out
}

func foldValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return foldKeys(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = foldValue(item)
		}
		return out
	default:
		return v
	}
}

// NormalizeDocument returns a deep copy of a decoded document with canonical
// scalar types and lower-cased keys, as every configuration layer uses.
func NormalizeDocument(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return foldKeys(normalizeValue(m).(map[string]any))
}
