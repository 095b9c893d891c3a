package dat

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/nao1215/desyncdiff/internal/model"
)

// Field is one named member of a struct schema.
type Field struct {
	Name   string
	Schema Schema
}

// F is shorthand for building a Field.
func F(name string, schema Schema) Field {
	return Field{Name: name, Schema: schema}
}

// StructOf decodes the given fields in order and assembles them into an
// insertion-ordered map. Fields decoded earlier are visible to later
// switch and computed fields through the scope.
func StructOf(fields ...Field) Schema {
	return structSchema{fields: fields}
}

type structSchema struct {
	fields []Field
}

func (s structSchema) decode(c *Cursor, parent *Scope) (*model.Value, error) {
	child := &Scope{parent: parent, fields: model.NewMap()}
	for _, f := range s.fields {
		v, err := f.Schema.decode(c, child)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		child.fields.Set(f.Name, v)
	}
	return child.fields, nil
}

// PrefixedArray decodes a count using the length schema, then that many
// elements into a list.
func PrefixedArray(length, elem Schema) Schema {
	return prefixedArraySchema{length: length, elem: elem}
}

type prefixedArraySchema struct {
	length Schema
	elem   Schema
}

func (p prefixedArraySchema) decode(c *Cursor, s *Scope) (*model.Value, error) {
	n, err := decodeCount(c, s, p.length)
	if err != nil {
		return nil, fmt.Errorf("array count: %w", err)
	}
	list := model.NewList()
	for i := 0; i < n; i++ {
		v, err := p.elem.decode(c, s)
		if err != nil {
			return nil, fmt.Errorf("element %d of %d: %w", i, n, err)
		}
		list.Append(v)
	}
	return list, nil
}

// Prefixed decodes a byte length, then decodes the inner schema from
// exactly that many bytes. The region must be consumed in full;
// leftover bytes are a schema violation.
func Prefixed(length, inner Schema) Schema {
	return prefixedSchema{length: length, inner: inner}
}

type prefixedSchema struct {
	length Schema
	inner  Schema
}

func (p prefixedSchema) decode(c *Cursor, s *Scope) (*model.Value, error) {
	n, err := decodeCount(c, s, p.length)
	if err != nil {
		return nil, fmt.Errorf("region length: %w", err)
	}
	start := c.Offset()
	raw, err := c.Read(n)
	if err != nil {
		return nil, err
	}

	sub := NewCursor(bytes.NewReader(raw))
	v, err := p.inner.decode(sub, s)
	if err != nil {
		return nil, fmt.Errorf("region at offset %d: %w", start, err)
	}
	eof, err := sub.AtEOF()
	if err != nil {
		return nil, err
	}
	if !eof {
		return nil, fmt.Errorf("region at offset %d consumed %d of %d bytes: %w",
			start, sub.Offset(), n, ErrRegionUnderflow)
	}
	return v, nil
}

// Sequence decodes a fixed tuple of schemas into a list.
func Sequence(elems ...Schema) Schema {
	return sequenceSchema{elems: elems}
}

type sequenceSchema struct {
	elems []Schema
}

func (q sequenceSchema) decode(c *Cursor, s *Scope) (*model.Value, error) {
	list := model.NewList()
	for i, elem := range q.elems {
		v, err := elem.decode(c, s)
		if err != nil {
			return nil, fmt.Errorf("sequence element %d: %w", i, err)
		}
		list.Append(v)
	}
	return list, nil
}

// SwitchOn dispatches on a field decoded earlier in the same record.
// Numeric discriminants are keyed by their decimal rendering, strings by
// their text. A discriminant absent from the table is a schema
// violation, not a fallback.
func SwitchOn(field string, cases map[string]Schema) Schema {
	return switchSchema{field: field, cases: cases}
}

type switchSchema struct {
	field string
	cases map[string]Schema
}

func (w switchSchema) decode(c *Cursor, s *Scope) (*model.Value, error) {
	v, ok := s.Get(w.field)
	if !ok {
		return nil, fmt.Errorf("switch discriminant %q not decoded yet", w.field)
	}
	key, err := switchKey(v)
	if err != nil {
		return nil, fmt.Errorf("switch on %q: %w", w.field, err)
	}
	schema, ok := w.cases[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s=%s", ErrNoSwitchCase, w.field, key)
	}
	return schema.decode(c, s)
}

func switchKey(v *model.Value) (string, error) {
	switch v.Kind() {
	case model.KindNumber:
		return strconv.FormatInt(int64(v.AsNumber()), 10), nil
	case model.KindString:
		return v.AsString(), nil
	default:
		return "", fmt.Errorf("discriminant has kind %s, want number or string", v.Kind())
	}
}

// Computed is a field derived from sibling or ancestor fields rather
// than read from the stream, e.g. tagging a record with its format name
// or resolving an integer id to a name through an id table.
func Computed(fn func(*Scope) (*model.Value, error)) Schema {
	return computedSchema{fn: fn}
}

type computedSchema struct {
	fn func(*Scope) (*model.Value, error)
}

func (p computedSchema) decode(_ *Cursor, s *Scope) (*model.Value, error) {
	return p.fn(s)
}

// constString is a computed field with a fixed text value.
func constString(text string) Schema {
	return Computed(func(*Scope) (*model.Value, error) {
		return model.String(text), nil
	})
}

// GreedyRange decodes elements until the stream is exhausted. An error
// in the middle of an element propagates; only a clean end of stream
// terminates the repetition.
func GreedyRange(elem Schema) Schema {
	return greedySchema{elem: elem}
}

type greedySchema struct {
	elem Schema
}

func (g greedySchema) decode(c *Cursor, s *Scope) (*model.Value, error) {
	list := model.NewList()
	for {
		eof, err := c.AtEOF()
		if err != nil {
			return nil, err
		}
		if eof {
			return list, nil
		}
		v, err := g.elem.decode(c, s)
		if err != nil {
			return nil, fmt.Errorf("greedy element %d: %w", list.Len(), err)
		}
		list.Append(v)
	}
}
