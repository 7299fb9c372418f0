package session

import (
	"errors"
	"fmt"
)

// ErrShortResponse is wrapped in a TransportError when a raw response is
// too short to carry a status word.
var ErrShortResponse = errors.New("session: response shorter than status word")

// StatusError is a non-success status word reported by the device.
type StatusError struct {
	Instruction byte
	StatusWord  uint16
	Message     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("device returned 0x%04x for instruction 0x%02x: %s", e.StatusWord, e.Instruction, e.Message)
}

// TransportError wraps a failure of the transmit capability.
type TransportError struct {
	Instruction byte
	Err         error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failed for instruction 0x%02x: %v", e.Instruction, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
