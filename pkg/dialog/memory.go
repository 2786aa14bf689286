package dialog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

const memoryKind = "collection"

// Memory is an ordered key-value bag shared by the steps of a dialog.
// Values are restricted to JSON-compatible variants: nil, string, bool, int64, float64,
// and nested []any / map[string]any built from the same types.
type Memory struct {
	keys   []string
	values map[string]any
}

// NewMemory creates an empty memory bag.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]any)}
}

// Put stores a value under key, keeping the original position of an existing key.
func (m *Memory) Put(key string, value any) error {
	v, err := normalize(value)
	if err != nil {
		return fmt.Errorf("memory %q: %w", key, err)
	}
	if m.values == nil {
		m.values = make(map[string]any)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
	return nil
}

// Get returns the value stored under key.
func (m *Memory) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Value returns the value stored under key or def when the key is missing.
func (m *Memory) Value(key string, def any) any {
	if v, ok := m.values[key]; ok {
		return v
	}
	return def
}

// GetString returns the string stored under key.
func (m *Memory) GetString(key string) (string, bool) {
	v, ok := m.values[key].(string)
	return v, ok
}

// GetInt returns the integer stored under key.
// Whole floats are accepted since some stores round-trip numbers as floats.
func (m *Memory) GetInt(key string) (int64, bool) {
	switch v := m.values[key].(type) {
	case int64:
		return v, true
	case float64:
		if v == math.Trunc(v) {
			return int64(v), true
		}
	}
	return 0, false
}

// GetBool returns the boolean stored under key.
func (m *Memory) GetBool(key string) (bool, bool) {
	v, ok := m.values[key].(bool)
	return v, ok
}

// Has reports whether key is present.
func (m *Memory) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Forget removes key.
func (m *Memory) Forget(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (m *Memory) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	return len(m.keys)
}

// All returns a copy of the stored values.
func (m *Memory) All() map[string]any {
	out := make(map[string]any, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

type memoryItem struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type memoryContainer struct {
	Kind  string       `json:"kind"`
	Items []memoryItem `json:"items"`
}

// MarshalJSON encodes the memory as an ordered container.
func (m *Memory) MarshalJSON() ([]byte, error) {
	c := memoryContainer{Kind: memoryKind, Items: make([]memoryItem, 0, len(m.keys))}
	for _, k := range m.keys {
		c.Items = append(c.Items, memoryItem{Key: k, Value: m.values[k]})
	}
	return json.Marshal(c)
}

// UnmarshalJSON decodes the container form and also accepts the legacy plain-object form,
// upgrading it in place.
func (m *Memory) UnmarshalJSON(data []byte) error {
	m.keys = nil
	m.values = make(map[string]any)

	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	keys, raws, err := decodeOrderedObject(data)
	if err != nil {
		return fmt.Errorf("decode memory: %w", err)
	}

	if isContainer(keys, raws) {
		var items []json.RawMessage
		if err := json.Unmarshal(raws["items"], &items); err != nil {
			return fmt.Errorf("decode memory items: %w", err)
		}
		for _, raw := range items {
			var item struct {
				Key   string          `json:"key"`
				Value json.RawMessage `json:"value"`
			}
			if err := json.Unmarshal(raw, &item); err != nil {
				return fmt.Errorf("decode memory item: %w", err)
			}
			if err := m.putRaw(item.Key, item.Value); err != nil {
				return err
			}
		}
		return nil
	}

	// Legacy: a plain mapping.
	for _, k := range keys {
		if err := m.putRaw(k, raws[k]); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) putRaw(key string, raw json.RawMessage) error {
	var v any
	if len(raw) > 0 {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("decode memory %q: %w", key, err)
		}
	}
	return m.Put(key, v)
}

func isContainer(keys []string, raws map[string]json.RawMessage) bool {
	if len(keys) != 2 {
		return false
	}
	var kind string
	if err := json.Unmarshal(raws["kind"], &kind); err != nil || kind != memoryKind {
		return false
	}
	items := bytes.TrimSpace(raws["items"])
	return len(items) > 0 && (items[0] == '[' || bytes.Equal(items, []byte("null")))
}

// decodeOrderedObject reads a JSON object preserving the order of its keys.
func decodeOrderedObject(data []byte) ([]string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}

	var keys []string
	raws := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, err
		}
		if _, seen := raws[key]; !seen {
			keys = append(keys, key)
		}
		raws[key] = raw
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return keys, raws, nil
}

// finite rejects values JSON cannot encode.
func finite(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("unsupported float value %v", f)
	}
	return f, nil
}

// normalize converts supported Go values into the memory variant types.
func normalize(value any) (any, error) {
	switch v := value.(type) {
	case nil, string, bool, int64:
		return v, nil
	case float64:
		return finite(v)
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return nil, fmt.Errorf("unsigned value %d overflows int64", v)
		}
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("unsigned value %d overflows int64", v)
		}
		return int64(v), nil
	case float32:
		return finite(float64(v))
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", v, err)
		}
		return f, nil
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			n, err := normalize(item)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case map[string]string:
		out := make(map[string]any, len(v))
		for k, s := range v {
			out[k] = s
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			n, err := normalize(item)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", value)
}
