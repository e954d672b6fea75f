// Package tabular converts between delimited text and ordered rows.
//
// A Row is a flat key→string mapping that remembers the order keys were
// first set in, so a table read from CSV can be written back with its
// original column order and untouched cells intact.
package tabular

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Row is an ordered mapping of column name to cell text.
// The zero value is an empty row ready to use.
type Row struct {
	keys []string
	vals map[string]string
}

// NewRow creates a row from alternating key, value pairs.
// A trailing key without a value is set to "".
func NewRow(pairs ...string) Row {
	var r Row
	for i := 0; i < len(pairs); i += 2 {
		v := ""
		if i+1 < len(pairs) {
			v = pairs[i+1]
		}
		r.Set(pairs[i], v)
	}
	return r
}

// BlankRow creates a row holding every header with an empty value.
func BlankRow(headers []string) Row {
	var r Row
	for _, h := range headers {
		r.Set(h, "")
	}
	return r
}

// Set assigns a value. New keys are appended to the key order.
func (r *Row) Set(key, value string) {
	if r.vals == nil {
		r.vals = make(map[string]string)
	}
	if _, ok := r.vals[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.vals[key] = value
}

// Get returns the value for key and whether it is present.
func (r Row) Get(key string) (string, bool) {
	v, ok := r.vals[key]
	return v, ok
}

// Value returns the value for key, or "" when absent.
func (r Row) Value(key string) string {
	return r.vals[key]
}

// Has reports whether key is present.
func (r Row) Has(key string) bool {
	_, ok := r.vals[key]
	return ok
}

// Delete removes key, keeping the order of the remaining keys.
func (r *Row) Delete(key string) {
	if _, ok := r.vals[key]; !ok {
		return
	}
	delete(r.vals, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i:i], r.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (r Row) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of keys.
func (r Row) Len() int {
	return len(r.keys)
}

// Clone returns an independent copy.
func (r Row) Clone() Row {
	var c Row
	for _, k := range r.keys {
		c.Set(k, r.vals[k])
	}
	return c
}

// Overlay copies every key of other onto r. Existing keys keep their
// position; keys new to r are appended in other's order.
func (r *Row) Overlay(other Row) {
	for _, k := range other.keys {
		r.Set(k, other.vals[k])
	}
}

// Project returns a row with exactly the given headers, in that order.
// Headers missing from r are set to "".
func (r Row) Project(headers []string) Row {
	var p Row
	for _, h := range headers {
		p.Set(h, r.vals[h])
	}
	return p
}

// Values returns the cells for headers, in order.
func (r Row) Values(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = r.vals[h]
	}
	return out
}

// MarshalJSON writes the row as a JSON object in key order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a flat JSON object, keeping the document's key order.
// Numbers are kept as written, booleans become "True"/"False" and null
// becomes "". Nested objects and arrays are stored as compact JSON text.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*r = Row{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("tabular: row must be a JSON object")
	}

	var out Row
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("tabular: invalid object key %v", kt)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		out.Set(key, ScalarText(raw))
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = out
	return nil
}

// ScalarText renders a JSON value as cell text.
func ScalarText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	case 't':
		return "True"
	case 'f':
		return "False"
	case 'n':
		return ""
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err == nil {
			return buf.String()
		}
	default:
		if _, err := strconv.ParseFloat(string(trimmed), 64); err == nil {
			return string(trimmed)
		}
	}
	return string(trimmed)
}
