package dat

import (
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/text/encoding/charmap"

	"github.com/nao1215/desyncdiff/internal/model"
)

// Fixed-width little-endian unsigned integers.
var (
	// U8 is an unsigned 8-bit integer.
	U8 Schema = uintSchema{width: 1}

	// U16 is a little-endian unsigned 16-bit integer.
	U16 Schema = uintSchema{width: 2}

	// U24 is a little-endian unsigned 24-bit integer.
	U24 Schema = uintSchema{width: 3}

	// U32 is a little-endian unsigned 32-bit integer.
	U32 Schema = uintSchema{width: 4}

	// F32 is a little-endian IEEE 754 single-precision float.
	F32 Schema = floatSchema{width: 4}

	// F64 is a little-endian IEEE 754 double-precision float.
	F64 Schema = floatSchema{width: 8}

	// VarInt32 is the game's variable-width integer (see Cursor.VarInt).
	VarInt32 Schema = varIntSchema{}
)

type uintSchema struct {
	width int
}

func (u uintSchema) decode(c *Cursor, _ *Scope) (*model.Value, error) {
	v, err := c.Uint(u.width)
	if err != nil {
		return nil, err
	}
	return model.Number(float64(v)), nil
}

type floatSchema struct {
	width int
}

func (f floatSchema) decode(c *Cursor, _ *Scope) (*model.Value, error) {
	buf, err := c.Read(f.width)
	if err != nil {
		return nil, err
	}
	if f.width == 4 {
		return model.Number(float64(math.Float32frombits(binary.LittleEndian.Uint32(buf)))), nil
	}
	return model.Number(math.Float64frombits(binary.LittleEndian.Uint64(buf))), nil
}

type varIntSchema struct{}

func (varIntSchema) decode(c *Cursor, _ *Scope) (*model.Value, error) {
	v, err := c.VarInt()
	if err != nil {
		return nil, err
	}
	return model.Number(float64(v)), nil
}

// PascalString is a length-prefixed Latin-1 string: the length schema is
// decoded first (one byte in most formats, a varint in script dumps),
// then that many bytes of text.
func PascalString(length Schema) Schema {
	return stringSchema{length: length}
}

type stringSchema struct {
	length Schema
}

func (s stringSchema) decode(c *Cursor, scope *Scope) (*model.Value, error) {
	n, err := decodeCount(c, scope, s.length)
	if err != nil {
		return nil, fmt.Errorf("string length: %w", err)
	}
	raw, err := c.Read(n)
	if err != nil {
		return nil, err
	}
	text, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		// Latin-1 maps every byte to a code point; decoding cannot fail
		// on any input, but the error path is kept for safety.
		return nil, fmt.Errorf("latin-1 decode at offset %d: %w", c.Offset(), err)
	}
	return model.String(string(text)), nil
}

// decodeCount decodes a length/count field and validates it as a
// non-negative int.
func decodeCount(c *Cursor, s *Scope, length Schema) (int, error) {
	v, err := length.decode(c, s)
	if err != nil {
		return 0, err
	}
	if v.Kind() != model.KindNumber {
		return 0, fmt.Errorf("count schema produced %s, want number", v.Kind())
	}
	n := int(v.AsNumber())
	if n < 0 {
		return 0, fmt.Errorf("negative count %d at offset %d", n, c.Offset())
	}
	return n, nil
}
