package dat

import (
	"fmt"
	"io"
	"sort"

	"github.com/nao1215/desyncdiff/internal/model"
)

// Schema is one decoding rule producing a value from a byte cursor.
// Schemas compose: a struct field may itself be another schema, a
// length-prefixed array of a schema, or a switch dispatching on a
// previously decoded field.
//
// The decode method is unexported so the set of schema variants is
// closed within this package, matching the fixed algebra of shapes the
// formats are built from.
type Schema interface {
	decode(c *Cursor, s *Scope) (*model.Value, error)
}

// Scope gives computed fields and switches access to the struct fields
// decoded so far, and to ancestor records (the achievement log resolves
// entry ids against an id table carried two levels up).
type Scope struct {
	parent *Scope
	fields *model.Value
}

// Get returns a field of the record currently being decoded.
func (s *Scope) Get(name string) (*model.Value, bool) {
	if s == nil || s.fields == nil {
		return nil, false
	}
	return s.fields.Get(name)
}

// Lookup searches the current record first and then climbs the ancestor
// records until the field is found.
func (s *Scope) Lookup(name string) (*model.Value, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.Get(name); ok {
			return v, true
		}
	}
	return nil, false
}

// Decode decodes a complete record of the named format from r. It fails
// with a *FormatError if the format is unregistered, if any schema rule
// is violated, or if the record does not consume the entire stream.
func Decode(format string, r io.Reader) (*model.Value, error) {
	schema, ok := formats[format]
	if !ok {
		return nil, &FormatError{
			Format: format,
			Err:    fmt.Errorf("%w: %q", ErrUnknownFormat, format),
		}
	}

	c := NewCursor(r)
	v, err := schema.decode(c, nil)
	if err != nil {
		return nil, &FormatError{Format: format, Offset: c.Offset(), Err: err}
	}

	eof, err := c.AtEOF()
	if err != nil {
		return nil, &FormatError{Format: format, Offset: c.Offset(), Err: err}
	}
	if !eof {
		return nil, &FormatError{Format: format, Offset: c.Offset(), Err: ErrTrailingData}
	}
	return v, nil
}

// Formats returns the registered format names, sorted.
func Formats() []string {
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
