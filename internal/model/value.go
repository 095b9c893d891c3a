package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// ValueKind identifies the runtime shape of a Value.
//
// Design decision: We use iota-based constants rather than type switches
// over an interface because the set of shapes is closed: the binary decoder
// can only ever produce these six kinds, and the structural diff dispatches
// on the kind in a single switch.
type ValueKind int

const (
	// KindNull is the absence of a value.
	KindNull ValueKind = iota

	// KindBool is a boolean scalar.
	KindBool

	// KindNumber is a numeric scalar. All integer widths decoded from the
	// binary formats fit a float64 without loss (the widest is 32 bits).
	KindNumber

	// KindString is a text scalar.
	KindString

	// KindList is an ordered sequence of values.
	KindList

	// KindMap is a string-keyed collection with insertion order preserved.
	KindMap
)

// String returns a human-readable representation of the kind.
func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a dynamic, recursively defined tree: the common output of binary
// decoding, consumed uniformly by the dat-to-json conversion and the
// structural diff.
//
// Design decision: Value is a single struct with a kind tag rather than an
// interface with one implementation per shape. The decoder and the diff
// walk values constantly; a concrete type keeps those hot paths free of
// interface assertions and lets us hang ordered-map bookkeeping off the
// same allocation.
type Value struct {
	kind ValueKind
	b    bool
	n    float64
	s    string
	list []*Value

	// keys preserves map insertion order; fields holds the actual entries.
	keys   []string
	fields map[string]*Value
}

// Null returns the null value.
func Null() *Value {
	return &Value{kind: KindNull}
}

// Bool returns a boolean value.
func Bool(b bool) *Value {
	return &Value{kind: KindBool, b: b}
}

// Number returns a numeric value.
func Number(n float64) *Value {
	return &Value{kind: KindNumber, n: n}
}

// String returns a text value.
func String(s string) *Value {
	return &Value{kind: KindString, s: s}
}

// NewList returns a list value holding the given elements.
func NewList(elems ...*Value) *Value {
	return &Value{kind: KindList, list: elems}
}

// NewMap returns an empty map value. Keys keep insertion order.
func NewMap() *Value {
	return &Value{kind: KindMap, fields: make(map[string]*Value)}
}

// Kind returns the runtime shape of the value.
func (v *Value) Kind() ValueKind {
	return v.kind
}

// AsBool returns the boolean payload. Valid only for KindBool.
func (v *Value) AsBool() bool {
	return v.b
}

// AsNumber returns the numeric payload. Valid only for KindNumber.
func (v *Value) AsNumber() float64 {
	return v.n
}

// AsString returns the text payload. Valid only for KindString.
func (v *Value) AsString() string {
	return v.s
}

// Len returns the element count of a list or the entry count of a map,
// and zero for scalars.
func (v *Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindMap:
		return len(v.keys)
	default:
		return 0
	}
}

// Index returns the i-th element of a list.
func (v *Value) Index(i int) *Value {
	return v.list[i]
}

// Append adds an element to the end of a list.
func (v *Value) Append(elem *Value) {
	v.list = append(v.list, elem)
}

// Keys returns the map keys in insertion order. The returned slice must
// not be modified.
func (v *Value) Keys() []string {
	return v.keys
}

// Get returns the value stored under key, and whether it exists.
func (v *Value) Get(key string) (*Value, bool) {
	val, ok := v.fields[key]
	return val, ok
}

// Has reports whether the map contains key.
func (v *Value) Has(key string) bool {
	_, ok := v.fields[key]
	return ok
}

// Set stores val under key, keeping insertion order for new keys.
func (v *Value) Set(key string, val *Value) {
	if _, ok := v.fields[key]; !ok {
		v.keys = append(v.keys, key)
	}
	v.fields[key] = val
}

// Equal reports deep structural equality. Numbers compare by exact
// float64 equality: decoded values are never the result of arithmetic,
// so there is no rounding to tolerate.
func (v *Value) Equal(other *Value) bool {
	if v == nil || other == nil {
		return v == other
	}
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return v.n == other.n
	case KindString:
		return v.s == other.s
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.keys) != len(other.keys) {
			return false
		}
		for _, k := range v.keys {
			o, ok := other.fields[k]
			if !ok || !v.fields[k].Equal(o) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String returns the canonical text form of the value. It is valid JSON
// for every kind and is what report writers print for left/right values.
func (v *Value) String() string {
	if v == nil {
		return "null"
	}
	data, err := v.MarshalJSON()
	if err != nil {
		// Only non-UTF8-safe strings could fail, and we escape those below.
		return "<invalid>"
	}
	return string(data)
}

// MarshalJSON encodes the value as JSON. Map keys are written in insertion
// order, which encoding/json cannot do for Go maps; integral numbers are
// written without a fractional part.
func (v *Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v *Value) encode(buf *bytes.Buffer) error {
	if v == nil {
		buf.WriteString("null")
		return nil
	}
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		buf.WriteString(formatNumber(v.n))
	case KindString:
		data, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(data)
	case KindList:
		buf.WriteByte('[')
		for i, elem := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := elem.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMap:
		buf.WriteByte('{')
		for i, k := range v.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := v.fields[k].encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

// formatNumber renders integral float64 values without an exponent or
// fractional part so that decoded integers survive a JSON round trip
// unchanged in appearance.
func formatNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}
