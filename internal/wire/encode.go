package wire

import "encoding/binary"

// Round3Request is the minimized round-3 input sent to the device. The
// participant, round-1 and group secret shard arrays are index aligned; the
// round-2 array only carries packages addressed to the local identity.
type Round3Request struct {
	Index                uint8
	Participants         [][]byte
	Round1PublicPackages [][]byte
	Round2PublicPackages [][]byte
	Round2SecretPackage  []byte
	GroupSecretShards    [][]byte
}

// EncodeIdentityRequest encodes the single index byte of a DKG identity fetch.
func EncodeIdentityRequest(index uint8) []byte {
	return []byte{index}
}

// EncodeRound1 lays out
//
//	u8 index | u8 count | count * 129-byte identity | u8 minSigners
func EncodeRound1(index uint8, identities [][]byte, minSigners uint8) ([]byte, error) {
	if len(identities) > MaxArrayCount {
		return nil, encodingErrorf("round1: %d identities exceeds %d", len(identities), MaxArrayCount)
	}
	for i, id := range identities {
		if len(id) != IdentityLen {
			return nil, encodingErrorf("round1: identity %d is %d bytes, want %d", i, len(id), IdentityLen)
		}
	}

	blob := make([]byte, 0, 1+1+len(identities)*IdentityLen+1)
	blob = append(blob, index, byte(len(identities)))
	for _, id := range identities {
		blob = append(blob, id...)
	}
	blob = append(blob, minSigners)
	return blob, nil
}

// EncodeRound2 lays out
//
//	u8 index | u8 count | u16 len | count * len-byte package | u16 secretLen | secret
func EncodeRound2(index uint8, round1PublicPackages [][]byte, round1SecretPackage []byte) ([]byte, error) {
	pkgs, err := uniformArray("round1 public packages", round1PublicPackages)
	if err != nil {
		return nil, err
	}
	if len(round1SecretPackage) > MaxPackageLen {
		return nil, encodingErrorf("round1 secret package is %d bytes, max %d", len(round1SecretPackage), MaxPackageLen)
	}

	blob := make([]byte, 0, 1+pkgs.size()+lengthPrefixBytes+len(round1SecretPackage))
	blob = append(blob, index)
	blob = pkgs.append(blob)
	blob = appendPrefixed(blob, round1SecretPackage)
	return blob, nil
}

// EncodeRound3Min lays out the minimized round-3 request. Field order is
// fixed by the device:
//
//	u8 index
//	u8 n | u16 len | round-1 public packages
//	u8 n | u16 len | round-2 public packages
//	u16 len | round-2 secret package
//	u8 n | u16 len | participant identities
//	u8 n | u16 len | group secret key shards
func EncodeRound3Min(req Round3Request) ([]byte, error) {
	round1, err := uniformArray("round1 public packages", req.Round1PublicPackages)
	if err != nil {
		return nil, err
	}
	round2, err := uniformArray("round2 public packages", req.Round2PublicPackages)
	if err != nil {
		return nil, err
	}
	participants, err := uniformArray("participants", req.Participants)
	if err != nil {
		return nil, err
	}
	gsk, err := uniformArray("group secret key shards", req.GroupSecretShards)
	if err != nil {
		return nil, err
	}
	if len(req.Round2SecretPackage) > MaxPackageLen {
		return nil, encodingErrorf("round2 secret package is %d bytes, max %d", len(req.Round2SecretPackage), MaxPackageLen)
	}

	size := 1 + round1.size() + round2.size() + lengthPrefixBytes + len(req.Round2SecretPackage) +
		participants.size() + gsk.size()
	blob := make([]byte, 0, size)
	blob = append(blob, req.Index)
	blob = round1.append(blob)
	blob = round2.append(blob)
	blob = appendPrefixed(blob, req.Round2SecretPackage)
	blob = participants.append(blob)
	blob = gsk.append(blob)
	return blob, nil
}

// EncodeGetCommitments returns the raw 32-byte transaction hash.
func EncodeGetCommitments(txHash []byte) ([]byte, error) {
	if len(txHash) != TxHashLen {
		return nil, encodingErrorf("tx hash is %d bytes, want %d", len(txHash), TxHashLen)
	}
	out := make([]byte, TxHashLen)
	copy(out, txHash)
	return out, nil
}

// EncodeDkgSign lays out
//
//	u16 len | pk randomness | u16 len | frost signing package | 32-byte tx hash
func EncodeDkgSign(pkRandomness, signingPackage, txHash []byte) ([]byte, error) {
	if len(pkRandomness) > MaxPackageLen {
		return nil, encodingErrorf("pk randomness is %d bytes, max %d", len(pkRandomness), MaxPackageLen)
	}
	if len(signingPackage) > MaxPackageLen {
		return nil, encodingErrorf("signing package is %d bytes, max %d", len(signingPackage), MaxPackageLen)
	}
	if len(txHash) != TxHashLen {
		return nil, encodingErrorf("tx hash is %d bytes, want %d", len(txHash), TxHashLen)
	}

	blob := make([]byte, 0, 2*lengthPrefixBytes+len(pkRandomness)+len(signingPackage)+TxHashLen)
	blob = appendPrefixed(blob, pkRandomness)
	blob = appendPrefixed(blob, signingPackage)
	blob = append(blob, txHash...)
	return blob, nil
}

// EncodePackagePair is the inverse of DecodeRound1Response.
func EncodePackagePair(secretPackage, publicPackage []byte) ([]byte, error) {
	if len(secretPackage) > MaxPackageLen || len(publicPackage) > MaxPackageLen {
		return nil, encodingErrorf("package exceeds %d bytes", MaxPackageLen)
	}
	blob := make([]byte, 0, 2*lengthPrefixBytes+len(secretPackage)+len(publicPackage))
	blob = appendPrefixed(blob, secretPackage)
	blob = appendPrefixed(blob, publicPackage)
	return blob, nil
}

// fixedArray is a validated u8 count / u16 stride array.
type fixedArray struct {
	items  [][]byte
	stride int
}

// uniformArray rejects arrays whose elements differ in length, since the
// wire format carries a single stride taken for every element.
func uniformArray(name string, items [][]byte) (fixedArray, error) {
	if len(items) > MaxArrayCount {
		return fixedArray{}, encodingErrorf("%s: %d entries exceeds %d", name, len(items), MaxArrayCount)
	}
	if len(items) == 0 {
		return fixedArray{}, nil
	}
	stride := len(items[0])
	if stride > MaxPackageLen {
		return fixedArray{}, encodingErrorf("%s: entry length %d exceeds %d", name, stride, MaxPackageLen)
	}
	for i, item := range items[1:] {
		if len(item) != stride {
			return fixedArray{}, encodingErrorf("%s: entry %d is %d bytes, entry 0 is %d", name, i+1, len(item), stride)
		}
	}
	return fixedArray{items: items, stride: stride}, nil
}

func (a fixedArray) size() int {
	return 1 + lengthPrefixBytes + len(a.items)*a.stride
}

func (a fixedArray) append(blob []byte) []byte {
	blob = append(blob, byte(len(a.items)))
	blob = binary.BigEndian.AppendUint16(blob, uint16(a.stride))
	for _, item := range a.items {
		blob = append(blob, item...)
	}
	return blob
}

func appendPrefixed(blob, data []byte) []byte {
	blob = binary.BigEndian.AppendUint16(blob, uint16(len(data)))
	return append(blob, data...)
}
