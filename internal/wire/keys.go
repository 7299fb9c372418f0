package wire

// KeyResponse is one of AddressKey, ViewKeys or ProofGenKey. The concrete
// type is fixed by the KeyKind the caller asked for.
type KeyResponse interface {
	Kind() KeyKind
}

// AddressKey is returned for PublicAddress.
type AddressKey struct {
	PublicAddress [KeyLen]byte
}

// ViewKeys is returned for ViewKey.
type ViewKeys struct {
	ViewKey         [ViewKeyLen]byte
	IncomingViewKey [KeyLen]byte
	OutgoingViewKey [KeyLen]byte
}

// ProofGenKey is returned for ProofGenerationKey.
type ProofGenKey struct {
	AK  [KeyLen]byte
	NSK [KeyLen]byte
}

func (AddressKey) Kind() KeyKind  { return PublicAddress }
func (ViewKeys) Kind() KeyKind    { return ViewKey }
func (ProofGenKey) Kind() KeyKind { return ProofGenerationKey }

// DecodeKeys reads the key material for kind from payload. The fields carry
// no length prefixes, so kind alone decides how many bytes are consumed.
func DecodeKeys(kind KeyKind, payload []byte) (KeyResponse, error) {
	c := NewCursor(payload)
	switch kind {
	case PublicAddress:
		var k AddressKey
		if err := readInto(c, k.PublicAddress[:]); err != nil {
			return nil, err
		}
		return k, nil
	case ViewKey:
		var k ViewKeys
		for _, dst := range [][]byte{k.ViewKey[:], k.IncomingViewKey[:], k.OutgoingViewKey[:]} {
			if err := readInto(c, dst); err != nil {
				return nil, err
			}
		}
		return k, nil
	case ProofGenerationKey:
		var k ProofGenKey
		for _, dst := range [][]byte{k.AK[:], k.NSK[:]} {
			if err := readInto(c, dst); err != nil {
				return nil, err
			}
		}
		return k, nil
	}
	return nil, encodingErrorf("unknown key kind 0x%02x", byte(kind))
}

func readInto(c *Cursor, dst []byte) error {
	b, err := c.Bytes(len(dst))
	if err != nil {
		return err
	}
	copy(dst, b)
	return nil
}
