package jsonmap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotObject is returned when a raw document is not a JSON object.
var ErrNotObject = errors.New("document is not a JSON object")

// JSONMap represents a JSON object as a map.
type JSONMap map[string]interface{}

// FromRaw converts a decoded or encoded JSON value into a JSONMap.
// Accepted inputs are JSONMap, map[string]interface{}, []byte and json.RawMessage.
// Encoded numbers are kept as json.Number so integers of any size survive.
func FromRaw(raw interface{}) (JSONMap, error) {
	switch v := raw.(type) {
	case JSONMap:
		if v == nil {
			return nil, ErrNotObject
		}
		return v, nil
	case map[string]interface{}:
		if v == nil {
			return nil, ErrNotObject
		}
		return JSONMap(v), nil
	case json.RawMessage:
		return FromRaw([]byte(v))
	case []byte:
		var m JSONMap
		dec := json.NewDecoder(bytes.NewReader(v))
		dec.UseNumber()
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal document: %w", ErrNotObject)
		}
		if dec.More() {
			return nil, fmt.Errorf("failed to unmarshal document: trailing data: %w", ErrNotObject)
		}
		if m == nil {
			return nil, ErrNotObject
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrNotObject, raw)
	}
}

// ToJSON serializes the JSONMap to JSON.
func (m *JSONMap) ToJSON() ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("JSONMap is nil")
	}

	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSONMap: %w", err)
	}
	return data, nil
}

// Clone returns a deep copy of the map. Nested objects and arrays are copied,
// so mutating the clone never reaches the receiver.
func (m JSONMap) Clone() JSONMap {
	if m == nil {
		return nil
	}
	return JSONMap(cloneObject(m))
}

func cloneObject(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = cloneValue(v)
	}
	return dst
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return cloneObject(val)
	case JSONMap:
		return cloneObject(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	default:
		return val
	}
}

// Segments splits a slash path into its non-empty segments.
func Segments(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Resolve walks a slash path such as "/credentialSubject/identity".
// It reports false as soon as a segment is missing or a non-object is met.
// The empty path and "/" resolve to the map itself.
func (m JSONMap) Resolve(path string) (interface{}, bool) {
	var cur interface{} = map[string]interface{}(m)
	for _, seg := range Segments(path) {
		obj, ok := asObject(cur)
		if !ok {
			return nil, false
		}
		next, exists := obj[seg]
		if !exists {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// ResolveMap resolves path and requires the target to be a JSON object.
func (m JSONMap) ResolveMap(path string) (map[string]interface{}, bool) {
	v, ok := m.Resolve(path)
	if !ok {
		return nil, false
	}
	return asObject(v)
}

func asObject(v interface{}) (map[string]interface{}, bool) {
	switch obj := v.(type) {
	case map[string]interface{}:
		return obj, obj != nil
	case JSONMap:
		return obj, obj != nil
	default:
		return nil, false
	}
}
