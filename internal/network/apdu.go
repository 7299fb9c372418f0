package network

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	headerLen   = 5
	lengthBytes = 4
	maxDataLen  = 0xff
	// maxFrameLen bounds a length prefix read from the peer.
	maxFrameLen = 1 << 16
)

// ErrFrameTooLarge is returned when a peer announces an oversized frame.
var ErrFrameTooLarge = errors.New("network: frame too large")

// APDU is a single command sent to the device.
type APDU struct {
	CLA, INS, P1, P2 byte
	Data             []byte
}

// Bytes serializes the command as CLA INS P1 P2 Lc data.
func (a APDU) Bytes() ([]byte, error) {
	if len(a.Data) > maxDataLen {
		return nil, fmt.Errorf("network: apdu data of %d bytes exceeds %d", len(a.Data), maxDataLen)
	}
	out := make([]byte, 0, headerLen+len(a.Data))
	out = append(out, a.CLA, a.INS, a.P1, a.P2, byte(len(a.Data)))
	return append(out, a.Data...), nil
}

// ParseAPDU is the inverse of Bytes.
func ParseAPDU(b []byte) (APDU, error) {
	if len(b) < headerLen {
		return APDU{}, fmt.Errorf("network: apdu of %d bytes is shorter than its header", len(b))
	}
	lc := int(b[4])
	if len(b) != headerLen+lc {
		return APDU{}, fmt.Errorf("network: apdu length %d does not match Lc %d", len(b), lc)
	}
	data := make([]byte, lc)
	copy(data, b[headerLen:])
	return APDU{CLA: b[0], INS: b[1], P1: b[2], P2: b[3], Data: data}, nil
}

// WriteRequest writes a length-prefixed command.
func WriteRequest(w io.Writer, apdu []byte) error {
	buf := make([]byte, lengthBytes+len(apdu))
	binary.BigEndian.PutUint32(buf, uint32(len(apdu)))
	copy(buf[lengthBytes:], apdu)
	_, err := w.Write(buf)
	return err
}

// ReadRequest reads a length-prefixed command.
func ReadRequest(r io.Reader) ([]byte, error) {
	n, err := readLength(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteResponse writes a response. The length prefix counts the data only;
// the status word follows the data.
func WriteResponse(w io.Writer, data []byte, sw uint16) error {
	buf := make([]byte, lengthBytes+len(data)+2)
	binary.BigEndian.PutUint32(buf, uint32(len(data)))
	copy(buf[lengthBytes:], data)
	binary.BigEndian.PutUint16(buf[lengthBytes+len(data):], sw)
	_, err := w.Write(buf)
	return err
}

// ReadResponse reads a response and returns the data with the status word
// still attached.
func ReadResponse(r io.Reader) ([]byte, error) {
	n, err := readLength(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n+2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func readLength(r io.Reader) (int, error) {
	var prefix [lengthBytes]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return 0, err
	}
	n := binary.BigEndian.Uint32(prefix[:])
	if n > maxFrameLen {
		return 0, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}
	return int(n), nil
}
