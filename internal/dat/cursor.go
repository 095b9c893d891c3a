package dat

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Cursor is a forward-only read position over a byte stream. It tracks
// the absolute offset for error reporting and offers the primitive reads
// shared by all schema nodes.
type Cursor struct {
	r   *bufio.Reader
	off int64
}

// NewCursor creates a Cursor reading from r.
func NewCursor(r io.Reader) *Cursor {
	return &Cursor{r: bufio.NewReader(r)}
}

// Offset returns the number of bytes consumed so far.
func (c *Cursor) Offset() int64 {
	return c.off
}

// Read consumes exactly n bytes. Hitting end of stream early is reported
// as io.ErrUnexpectedEOF with the offset included.
func (c *Cursor) Read(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.r, buf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("read %d bytes at offset %d: %w", n, c.off, err)
	}
	c.off += int64(n)
	return buf, nil
}

// Uint reads a little-endian unsigned integer of 1 to 4 bytes.
func (c *Cursor) Uint(width int) (uint32, error) {
	buf, err := c.Read(width)
	if err != nil {
		return 0, err
	}
	var v uint32
	for i := width - 1; i >= 0; i-- {
		v = v<<8 | uint32(buf[i])
	}
	return v, nil
}

// VarInt reads the game's variable-width integer: a single byte holds
// values 0-254 directly, while the escape byte 0xFF is followed by a
// little-endian signed 32-bit value. The format uses this exactly where
// it needs large counts cheaply.
func (c *Cursor) VarInt() (int64, error) {
	b, err := c.Read(1)
	if err != nil {
		return 0, err
	}
	if b[0] != 0xff {
		return int64(b[0]), nil
	}
	buf, err := c.Read(4)
	if err != nil {
		return 0, err
	}
	return int64(int32(binary.LittleEndian.Uint32(buf))), nil
}

// AtEOF reports whether the stream is exhausted without consuming input.
func (c *Cursor) AtEOF() (bool, error) {
	if _, err := c.r.Peek(1); err != nil {
		if err == io.EOF {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

// AppendVarInt appends the variable-width encoding of v to dst: values
// 0-254 as a single byte, everything else as 0xFF plus a little-endian
// signed 32-bit value. Counterpart of Cursor.VarInt.
func AppendVarInt(dst []byte, v int64) []byte {
	if v >= 0 && v < 0xff {
		return append(dst, byte(v))
	}
	dst = append(dst, 0xff)
	return binary.LittleEndian.AppendUint32(dst, uint32(int32(v)))
}
