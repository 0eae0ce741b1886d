// Package record holds the row model shared by the persistence layer: an
// ordered set of named scalar values with no schema attached.
package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNotObject is returned when JSON input for a Record is not an object.
var ErrNotObject = errors.New("record must be a JSON object")

// Field is one named value of a Record.
type Field struct {
	Name  string
	Value Value
}

// F is shorthand for building a Field.
func F(name string, v Value) Field { return Field{Name: name, Value: v} }

// Record is an ordered name→value mapping. Names are unique; order is the
// order in which names were first set. The zero Record is empty and ready
// to use.
type Record struct {
	fields []Field
}

// New builds a Record from fields. A repeated name keeps its first position
// and the last value.
func New(fields ...Field) Record {
	var r Record
	for _, f := range fields {
		r.Set(f.Name, f.Value)
	}
	return r
}

func (r Record) Len() int { return len(r.fields) }

// Set replaces the value of name in place, or appends it.
func (r *Record) Set(name string, v Value) {
	for i := range r.fields {
		if r.fields[i].Name == name {
			r.fields[i].Value = v
			return
		}
	}
	r.fields = append(r.fields, Field{Name: name, Value: v})
}

func (r Record) Get(name string) (Value, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Fields returns a copy of the fields in order.
func (r Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Present returns the fields whose values are not absent (see Value.IsAbsent),
// in order.
func (r Record) Present() []Field {
	out := make([]Field, 0, len(r.fields))
	for _, f := range r.fields {
		if !f.Value.IsAbsent() {
			out = append(out, f)
		}
	}
	return out
}

func (r Record) Names() []string {
	out := make([]string, len(r.fields))
	for i, f := range r.fields {
		out[i] = f.Name
	}
	return out
}

// Without returns a copy of r with name removed.
func (r Record) Without(name string) Record {
	out := Record{fields: make([]Field, 0, len(r.fields))}
	for _, f := range r.fields {
		if f.Name != name {
			out.fields = append(out.fields, f)
		}
	}
	return out
}

// Equal reports whether both records hold the same names, values and order.
func (r Record) Equal(o Record) bool {
	if len(r.fields) != len(o.fields) {
		return false
	}
	for i := range r.fields {
		if r.fields[i].Name != o.fields[i].Name || !r.fields[i].Value.Equal(o.fields[i].Value) {
			return false
		}
	}
	return true
}

func (r Record) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", f.Name, f.Value.Literal())
	}
	b.WriteByte('}')
	return b.String()
}

// MarshalJSON writes the fields as a JSON object in record order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a flat JSON object, keeping key order. Nested objects
// and arrays are rejected with ErrUnsupportedValue.
func (r *Record) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	rec, err := decodeObject(dec)
	if err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("%w: trailing data after object", ErrNotObject)
	}
	*r = rec
	return nil
}

// DecodeList reads either a single JSON object or an array of objects.
// The bool result reports whether the input was an array.
func DecodeList(b []byte) ([]Record, bool, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var raws []json.RawMessage
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, true, err
		}
		out := make([]Record, 0, len(raws))
		for i, raw := range raws {
			var rec Record
			if err := rec.UnmarshalJSON(raw); err != nil {
				return nil, true, fmt.Errorf("element %d: %w", i, err)
			}
			out = append(out, rec)
		}
		return out, true, nil
	}
	var rec Record
	if err := rec.UnmarshalJSON(trimmed); err != nil {
		return nil, false, err
	}
	return []Record{rec}, false, nil
}

func decodeObject(dec *json.Decoder) (Record, error) {
	tok, err := dec.Token()
	if err != nil {
		return Record{}, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return Record{}, ErrNotObject
	}
	var rec Record
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Record{}, err
		}
		name, ok := tok.(string)
		if !ok {
			return Record{}, ErrNotObject
		}
		tok, err = dec.Token()
		if err != nil {
			return Record{}, err
		}
		if _, ok := tok.(json.Delim); ok {
			return Record{}, fmt.Errorf("%w: field %q is not a scalar", ErrUnsupportedValue, name)
		}
		v, err := fromToken(tok)
		if err != nil {
			return Record{}, fmt.Errorf("field %q: %w", name, err)
		}
		rec.Set(name, v)
	}
	if _, err := dec.Token(); err != nil {
		return Record{}, err
	}
	return rec, nil
}
