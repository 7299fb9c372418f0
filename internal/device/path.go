package device

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"frost-ledger/internal/wire"
)

const (
	// DummyPath prefixes every chunked DKG command. The device ignores it.
	DummyPath = "m/44'/1338'/0"

	// PathComponents is the number of components the device accepts.
	PathComponents = 3

	hardened uint32 = 0x80000000
)

// SerializePath encodes a derivation path such as "m/44'/1338'/0" as
// consecutive little-endian uint32 components, hardened components carrying
// the high bit.
func SerializePath(path string) ([]byte, error) {
	if !strings.HasPrefix(path, "m/") {
		return nil, invalidf("path %q must start with \"m/\"", path)
	}
	parts := strings.Split(path[2:], "/")
	if len(parts) != PathComponents {
		return nil, invalidf("path %q has %d components, want %d", path, len(parts), PathComponents)
	}

	out := make([]byte, 4*len(parts))
	for i, part := range parts {
		var flag uint32
		if strings.HasSuffix(part, "'") {
			flag = hardened
			part = strings.TrimSuffix(part, "'")
		}
		v, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, invalidf("path %q: invalid component %q", path, part)
		}
		if uint32(v) >= hardened {
			return nil, invalidf("path %q: component %d out of range", path, v)
		}
		binary.LittleEndian.PutUint32(out[4*i:], uint32(v)|flag)
	}
	return out, nil
}

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", wire.ErrEncoding, fmt.Sprintf(format, args...))
}
