package pageforge

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// StyleEntry is one property/value pair of a style map.
type StyleEntry struct {
	Property string
	Value    string
}

// Styles is an insertion-ordered mapping of CSS property to value.
// The zero value is an empty map ready to use.
type Styles struct {
	entries []StyleEntry
}

// NewStyles builds a style map from alternating property, value arguments.
func NewStyles(pairs ...string) Styles {
	var s Styles
	for i := 0; i+1 < len(pairs); i += 2 {
		s.Set(pairs[i], pairs[i+1])
	}
	return s
}

// Len returns the number of entries.
func (s Styles) Len() int { return len(s.entries) }

// Entries returns the entries in stored order. The slice must not be modified.
func (s Styles) Entries() []StyleEntry { return s.entries }

// Get returns the value for property.
func (s Styles) Get(property string) (string, bool) {
	for _, e := range s.entries {
		if e.Property == property {
			return e.Value, true
		}
	}
	return "", false
}

// Set updates property in place, or appends it when absent.
func (s *Styles) Set(property, value string) {
	for i := range s.entries {
		if s.entries[i].Property == property {
			s.entries[i].Value = value
			return
		}
	}
	s.entries = append(s.entries, StyleEntry{Property: property, Value: value})
}

// Delete removes property. It reports whether anything was removed.
func (s *Styles) Delete(property string) bool {
	for i := range s.entries {
		if s.entries[i].Property == property {
			s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
			if len(s.entries) == 0 {
				s.entries = nil
			}
			return true
		}
	}
	return false
}

// Clone returns an independent copy.
func (s Styles) Clone() Styles {
	if len(s.entries) == 0 {
		return Styles{}
	}
	return Styles{entries: append([]StyleEntry(nil), s.entries...)}
}

// MarshalJSON writes the map as a JSON object in stored order.
func (s Styles) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range s.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Property)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping the document's key order.
// Non-string values are stored using their JSON text.
func (s *Styles) UnmarshalJSON(data []byte) error {
	s.entries = nil
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("styles: expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("styles: expected string key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			value = string(raw)
		}
		s.Set(key, value)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
