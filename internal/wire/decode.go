package wire

// Round1Result is the device output of DKG round 1.
type Round1Result struct {
	SecretPackage []byte
	PublicPackage []byte
}

// Round2Result has the same layout as Round1Result. Its public package
// aggregates the per-recipient packages and is opaque here.
type Round2Result struct {
	SecretPackage []byte
	PublicPackage []byte
}

// Identity is a DKG participant identity as produced by the device.
type Identity [IdentityLen]byte

// Version describes the device application.
type Version struct {
	TestMode bool
	Major    uint8
	Minor    uint8
	Patch    uint8
	Locked   bool
	TargetID uint32
}

func decodePackagePair(data []byte) (secret, public []byte, err error) {
	if len(data) == 0 {
		return nil, nil, decodeErrorf("empty package response")
	}
	c := NewCursor(data)
	if secret, err = c.Prefixed(); err != nil {
		return nil, nil, err
	}
	if public, err = c.Prefixed(); err != nil {
		return nil, nil, err
	}
	return secret, public, nil
}

// DecodeRound1Response parses u16 secretLen | secret | u16 publicLen | public.
func DecodeRound1Response(data []byte) (*Round1Result, error) {
	secret, public, err := decodePackagePair(data)
	if err != nil {
		return nil, err
	}
	return &Round1Result{SecretPackage: secret, PublicPackage: public}, nil
}

// DecodeRound2Response parses the same layout as DecodeRound1Response.
func DecodeRound2Response(data []byte) (*Round2Result, error) {
	secret, public, err := decodePackagePair(data)
	if err != nil {
		return nil, err
	}
	return &Round2Result{SecretPackage: secret, PublicPackage: public}, nil
}

// DecodeReviewTransaction returns the first 32 bytes of the payload. Any
// trailing bytes are ignored.
func DecodeReviewTransaction(data []byte) ([TxHashLen]byte, error) {
	var hash [TxHashLen]byte
	if len(data) == 0 {
		return hash, decodeErrorf("empty review response")
	}
	b, err := NewCursor(data).Bytes(TxHashLen)
	if err != nil {
		return hash, err
	}
	copy(hash[:], b)
	return hash, nil
}

// DecodeIdentity reads the fixed 129-byte identity field.
func DecodeIdentity(data []byte) (Identity, error) {
	var id Identity
	b, err := NewCursor(data).Bytes(IdentityLen)
	if err != nil {
		return id, err
	}
	copy(id[:], b)
	return id, nil
}

// DecodeSignature reads a 64-byte signature from the start of the payload.
func DecodeSignature(data []byte) ([SignatureLen]byte, error) {
	var sig [SignatureLen]byte
	b, err := NewCursor(data).Bytes(SignatureLen)
	if err != nil {
		return sig, err
	}
	copy(sig[:], b)
	return sig, nil
}

// DecodeVersion parses test mode, major, minor, patch and the locked flag,
// followed by an optional big-endian target id.
func DecodeVersion(data []byte) (*Version, error) {
	c := NewCursor(data)
	var fields [5]uint8
	for i := range fields {
		v, err := c.Uint8()
		if err != nil {
			return nil, err
		}
		fields[i] = v
	}
	v := &Version{
		TestMode: fields[0] != 0,
		Major:    fields[1],
		Minor:    fields[2],
		Patch:    fields[3],
		Locked:   fields[4] == 1,
	}
	if c.Remaining() >= 4 {
		id, err := c.Uint32()
		if err != nil {
			return nil, err
		}
		v.TargetID = id
	}
	return v, nil
}
