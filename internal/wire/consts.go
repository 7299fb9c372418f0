package wire

// Fixed field sizes on the device wire.
const (
	VersionLen        = 1
	KeyLen            = 32
	SignatureLen      = 64
	Ed25519SigLen     = 64
	TxHashLen         = 32
	ViewKeyLen        = 2 * KeyLen
	IdentityLen       = VersionLen + KeyLen + KeyLen + Ed25519SigLen
	MaxPackageLen     = 0xffff
	MaxArrayCount     = 0xff
	lengthPrefixBytes = 2
)

// KeyKind selects which key material the device returns. It is sent as P2.
type KeyKind byte

const (
	PublicAddress      KeyKind = 0x00
	ViewKey            KeyKind = 0x01
	ProofGenerationKey KeyKind = 0x02
)

func (k KeyKind) String() string {
	switch k {
	case PublicAddress:
		return "public_address"
	case ViewKey:
		return "view_key"
	case ProofGenerationKey:
		return "proof_generation_key"
	default:
		return "unknown"
	}
}

// ParseKeyKind maps the names returned by String back to a KeyKind.
func ParseKeyKind(s string) (KeyKind, error) {
	switch s {
	case "public_address", "address":
		return PublicAddress, nil
	case "view_key", "view":
		return ViewKey, nil
	case "proof_generation_key", "proof":
		return ProofGenerationKey, nil
	}
	return 0, encodingErrorf("unknown key kind %q", s)
}
