package effect

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrTruncated is returned when a read runs past the end of the buffer.
var ErrTruncated = errors.New("unexpected end of data")

// DecodeError records where in an effect container decoding failed.
type DecodeError struct {
	Offset int
	Op     string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("effect: %s at offset %d: %v", e.Op, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Cursor is a bounds-checked little-endian reader over a byte slice.
type Cursor struct {
	buf []byte
	off int
}

// NewCursor returns a cursor positioned at the start of buf.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Offset returns the number of bytes consumed so far.
func (c *Cursor) Offset() int { return c.off }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.off }

// U32 reads a little-endian uint32.
func (c *Cursor) U32(op string) (uint32, error) {
	b, err := c.Bytes(op, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Bytes returns the next n bytes without copying them.
func (c *Cursor) Bytes(op string, n int) ([]byte, error) {
	if n < 0 || n > c.Remaining() {
		return nil, &DecodeError{Offset: c.off, Op: op, Err: fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, n, c.Remaining())}
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, nil
}
