package wire

import (
	"errors"
	"fmt"
)

var (
	// ErrEncoding is returned when a request violates a structural
	// precondition. Nothing is sent to the device in that case.
	ErrEncoding = errors.New("wire: encoding precondition violated")

	// ErrDecode is returned when a device response is empty or a declared
	// length runs past the end of the buffer.
	ErrDecode = errors.New("wire: decode failed")
)

func encodingErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrEncoding, fmt.Sprintf(format, args...))
}

func decodeErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrDecode, fmt.Sprintf(format, args...))
}
