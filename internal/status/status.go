// Package status maps device status words to readable messages.
package status

import "fmt"

// Well-known status words.
const (
	U2FUnknown                  uint16 = 0x0001
	U2FBadRequest               uint16 = 0x0002
	U2FConfigurationUnsupported uint16 = 0x0003
	U2FDeviceIneligible         uint16 = 0x0004
	U2FTimeout                  uint16 = 0x0005
	Timeout                     uint16 = 0x000e
	GpAuthFailed                uint16 = 0x6300
	PinRemainingAttempts        uint16 = 0x63c0
	ExecutionError              uint16 = 0x6400
	WrongLength                 uint16 = 0x6700
	EmptyBuffer                 uint16 = 0x6982
	OutputBufferTooSmall        uint16 = 0x6983
	DataIsInvalid               uint16 = 0x6984
	ConditionsNotSatisfied      uint16 = 0x6985
	TransactionRejected         uint16 = 0x6986
	BadKeyHandle                uint16 = 0x6a80
	InvalidP1P2                 uint16 = 0x6b00
	InstructionNotSupported     uint16 = 0x6d00
	AppDoesNotSeemToBeOpen      uint16 = 0x6e01
	UnknownError                uint16 = 0x6f00
	SignVerifyError             uint16 = 0x6f01
	NoErrors                    uint16 = 0x9000
	DeviceIsBusy                uint16 = 0x9001
	UnknownTransportError       uint16 = 0xffff
)

var descriptions = map[uint16]string{
	U2FUnknown:                  "U2F: Unknown",
	U2FBadRequest:               "U2F: Bad request",
	U2FConfigurationUnsupported: "U2F: Configuration unsupported",
	U2FDeviceIneligible:         "U2F: Device Ineligible",
	U2FTimeout:                  "U2F: Timeout",
	Timeout:                     "Timeout",
	GpAuthFailed:                "GP Authentication Failed",
	PinRemainingAttempts:        "PIN Remaining Attempts",
	ExecutionError:              "Execution Error",
	WrongLength:                 "Wrong Length",
	EmptyBuffer:                 "Empty Buffer",
	OutputBufferTooSmall:        "Output buffer too small",
	DataIsInvalid:               "Data is invalid",
	ConditionsNotSatisfied:      "Conditions not satisfied",
	TransactionRejected:         "Transaction rejected",
	BadKeyHandle:                "Bad key handle",
	InvalidP1P2:                 "Invalid P1/P2",
	InstructionNotSupported:     "Instruction not supported",
	AppDoesNotSeemToBeOpen:      "App does not seem to be open",
	UnknownError:                "Unknown error",
	SignVerifyError:             "Sign/verify error",
	NoErrors:                    "No errors",
	DeviceIsBusy:                "Device is busy",
	UnknownTransportError:       "Unknown transport error",
}

// Message returns the description of code.
func Message(code uint16) string {
	if d, ok := descriptions[code]; ok {
		return d
	}
	return fmt.Sprintf("Unknown Status Code: 0x%04x", code)
}

// CarriesDiagnostic reports whether the device places an ASCII explanation
// in the payload of a response with this status word.
func CarriesDiagnostic(code uint16) bool {
	switch code {
	case DataIsInvalid, BadKeyHandle, SignVerifyError:
		return true
	}
	return false
}
