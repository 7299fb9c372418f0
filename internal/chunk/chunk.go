// Package chunk splits request payloads into frames small enough for a
// single device exchange.
package chunk

import (
	"errors"
	"fmt"
)

// DefaultMaxSize is the largest frame payload the device accepts.
const DefaultMaxSize = 250

// maxFrameSize is bounded by the one-byte Lc field of the frame header.
const maxFrameSize = 0xff

var ErrInvalidSize = errors.New("chunk: invalid frame size")

// Position is the framing indicator sent as P1 with every frame.
type Position byte

const (
	Init Position = 0x00
	Add  Position = 0x01
	Last Position = 0x02
)

func (p Position) String() string {
	switch p {
	case Init:
		return "INIT"
	case Add:
		return "ADD"
	case Last:
		return "LAST"
	}
	return fmt.Sprintf("Position(0x%02x)", byte(p))
}

// Framing decides where an encoded derivation path goes.
type Framing int

const (
	// Packed puts the path at the head of the byte stream, so it consumes
	// part of the first frame's budget.
	Packed Framing = iota
	// Separate sends the path alone as the first frame.
	Separate
)

// ParseFraming maps "packed" and "separate" to a Framing. Empty means Packed.
func ParseFraming(s string) (Framing, error) {
	switch s {
	case "", "packed":
		return Packed, nil
	case "separate":
		return Separate, nil
	}
	return 0, fmt.Errorf("chunk: unknown path framing %q", s)
}

// Frame is one bounded slice of a request.
type Frame struct {
	Index int // 1-based
	First bool
	Last  bool
	Data  []byte
}

// Position tags the frame. A frame that is both first and last is sent as
// Last, which the device treats as a complete single-frame command.
func (f Frame) Position() Position {
	switch {
	case f.Last:
		return Last
	case f.First:
		return Init
	default:
		return Add
	}
}

// Chunker splits payloads into frames of at most MaxSize bytes.
type Chunker struct {
	MaxSize int
	Framing Framing
}

// New returns a Chunker, rejecting sizes that do not fit a frame header.
func New(maxSize int, framing Framing) (*Chunker, error) {
	if maxSize <= 0 || maxSize > maxFrameSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, maxSize)
	}
	return &Chunker{MaxSize: maxSize, Framing: framing}, nil
}

// Split returns the ordered frames for path followed by blob. path may be
// nil. An empty request still yields one empty frame so the device sees a
// complete command.
func (c *Chunker) Split(path, blob []byte) ([]Frame, error) {
	if c.MaxSize <= 0 || c.MaxSize > maxFrameSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, c.MaxSize)
	}

	var pieces [][]byte
	switch {
	case c.Framing == Separate && len(path) > 0:
		if len(path) > c.MaxSize {
			return nil, fmt.Errorf("%w: path of %d bytes exceeds frame size %d", ErrInvalidSize, len(path), c.MaxSize)
		}
		pieces = append(pieces, path)
		pieces = append(pieces, c.cut(blob)...)
	default:
		stream := make([]byte, 0, len(path)+len(blob))
		stream = append(stream, path...)
		stream = append(stream, blob...)
		pieces = c.cut(stream)
	}
	if len(pieces) == 0 {
		pieces = [][]byte{{}}
	}

	frames := make([]Frame, len(pieces))
	for i, p := range pieces {
		frames[i] = Frame{
			Index: i + 1,
			First: i == 0,
			Last:  i == len(pieces)-1,
			Data:  p,
		}
	}
	return frames, nil
}

func (c *Chunker) cut(b []byte) [][]byte {
	out := make([][]byte, 0, (len(b)+c.MaxSize-1)/c.MaxSize)
	for off := 0; off < len(b); off += c.MaxSize {
		end := off + c.MaxSize
		if end > len(b) {
			end = len(b)
		}
		out = append(out, b[off:end])
	}
	return out
}
