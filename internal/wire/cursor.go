package wire

import "encoding/binary"

// Cursor reads fixed and length-prefixed fields from a response buffer.
// Every read checks the remaining length first, so an overrun fails instead
// of yielding a truncated slice.
type Cursor struct {
	buf []byte
	off int
}

// NewCursor returns a cursor positioned at the start of buf.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Offset is the number of bytes consumed so far.
func (c *Cursor) Offset() int { return c.off }

// Remaining is the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.off }

// Bytes returns a copy of the next n bytes.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	if n < 0 || n > c.Remaining() {
		return nil, decodeErrorf("need %d bytes at offset %d, have %d", n, c.off, c.Remaining())
	}
	out := make([]byte, n)
	copy(out, c.buf[c.off:c.off+n])
	c.off += n
	return out, nil
}

// Uint8 reads one byte.
func (c *Cursor) Uint8() (uint8, error) {
	if c.Remaining() < 1 {
		return 0, decodeErrorf("need 1 byte at offset %d, have 0", c.off)
	}
	v := c.buf[c.off]
	c.off++
	return v, nil
}

// Uint16 reads a big-endian uint16.
func (c *Cursor) Uint16() (uint16, error) {
	if c.Remaining() < 2 {
		return 0, decodeErrorf("need 2 bytes at offset %d, have %d", c.off, c.Remaining())
	}
	v := binary.BigEndian.Uint16(c.buf[c.off:])
	c.off += 2
	return v, nil
}

// Uint32 reads a big-endian uint32.
func (c *Cursor) Uint32() (uint32, error) {
	if c.Remaining() < 4 {
		return 0, decodeErrorf("need 4 bytes at offset %d, have %d", c.off, c.Remaining())
	}
	v := binary.BigEndian.Uint32(c.buf[c.off:])
	c.off += 4
	return v, nil
}

// Prefixed reads a u16 length followed by that many bytes.
func (c *Cursor) Prefixed() ([]byte, error) {
	n, err := c.Uint16()
	if err != nil {
		return nil, err
	}
	return c.Bytes(int(n))
}
