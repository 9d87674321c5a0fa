package timing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Entry is one key/value pair of a RawEvent, in arrival order.
type Entry struct {
	Key   string
	Value json.RawMessage
}

// Text returns the entry value when it is a JSON string.
func (e Entry) Text() (string, bool) {
	if len(e.Value) == 0 || e.Value[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(e.Value, &s); err != nil {
		return "", false
	}
	return s, true
}

// RawEvent is one decoded feed payload. Key order is kept because driver
// lookup picks the first matching entry.
type RawEvent struct {
	entries []Entry
	index   map[string]int
}

// NewRawEvent builds an event from string entries, in the given order.
// Later duplicates replace the value but keep the first position.
func NewRawEvent(pairs ...[2]string) *RawEvent {
	evt := &RawEvent{index: make(map[string]int, len(pairs))}
	for _, p := range pairs {
		value, _ := json.Marshal(p[1])
		evt.set(p[0], value)
	}
	return evt
}

// ParseRawEvent decodes a JSON object into a RawEvent.
func ParseRawEvent(data []byte) (*RawEvent, error) {
	evt := &RawEvent{}
	if err := evt.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return evt, nil
}

// UnmarshalJSON implements json.Unmarshaler, preserving key order.
func (e *RawEvent) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("feed event must be a JSON object, got %v", tok)
	}

	e.entries = nil
	e.index = make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("decode value of %q: %w", key, err)
		}
		e.set(key, value)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("trailing data after feed event")
	}
	return nil
}

// MarshalJSON implements json.Marshaler, writing entries in order.
func (e *RawEvent) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range e.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(entry.Value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (e *RawEvent) set(key string, value json.RawMessage) {
	if e.index == nil {
		e.index = make(map[string]int)
	}
	if i, ok := e.index[key]; ok {
		e.entries[i].Value = value
		return
	}
	e.index[key] = len(e.entries)
	e.entries = append(e.entries, Entry{Key: key, Value: value})
}

// Entries returns the event entries in arrival order.
func (e *RawEvent) Entries() []Entry {
	if e == nil {
		return nil
	}
	return e.entries
}

// Len returns the number of entries.
func (e *RawEvent) Len() int {
	if e == nil {
		return 0
	}
	return len(e.entries)
}

// String returns the value under key when it is present and a string.
func (e *RawEvent) String(key string) (string, bool) {
	if e == nil {
		return "", false
	}
	i, ok := e.index[key]
	if !ok {
		return "", false
	}
	return e.entries[i].Text()
}
