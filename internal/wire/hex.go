package wire

import "encoding/hex"

// ParseHex decodes a hex field, reporting malformed input as ErrEncoding.
func ParseHex(field, s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, encodingErrorf("%s: %v", field, err)
	}
	return b, nil
}

// ParseHexList decodes every element of a hex array.
func ParseHexList(field string, items []string) ([][]byte, error) {
	out := make([][]byte, 0, len(items))
	for i, s := range items {
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, encodingErrorf("%s[%d]: %v", field, i, err)
		}
		out = append(out, b)
	}
	return out, nil
}
