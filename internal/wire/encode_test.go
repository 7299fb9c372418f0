package wire

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filled(n int, b byte) []byte {
	return bytes.Repeat([]byte{b}, n)
}

func TestEncodeRound1(t *testing.T) {
	ids := [][]byte{filled(IdentityLen, 0xaa), filled(IdentityLen, 0xbb)}

	blob, err := EncodeRound1(0, ids, 2)
	require.NoError(t, err)
	require.Len(t, blob, 1+1+2*129+1)
	assert.Equal(t, byte(0x00), blob[0])
	assert.Equal(t, byte(0x02), blob[1])
	assert.Equal(t, byte(0x02), blob[len(blob)-1])
	assert.Equal(t, ids[0], blob[2:2+IdentityLen])
	assert.Equal(t, ids[1], blob[2+IdentityLen:2+2*IdentityLen])
}

func TestEncodeRound1RejectsShortIdentity(t *testing.T) {
	_, err := EncodeRound1(0, [][]byte{filled(IdentityLen, 1), filled(IdentityLen-1, 2)}, 2)
	require.ErrorIs(t, err, ErrEncoding)
}

func TestEncodeRound2(t *testing.T) {
	pkgs := [][]byte{filled(5, 1), filled(5, 2), filled(5, 3)}
	secret := filled(7, 9)

	blob, err := EncodeRound2(4, pkgs, secret)
	require.NoError(t, err)
	require.Len(t, blob, 1+1+2+3*5+2+7)

	assert.Equal(t, byte(4), blob[0])
	assert.Equal(t, byte(3), blob[1])
	assert.Equal(t, uint16(5), binary.BigEndian.Uint16(blob[2:]))
	assert.Equal(t, bytes.Join(pkgs, nil), blob[4:19])
	assert.Equal(t, uint16(7), binary.BigEndian.Uint16(blob[19:]))
	assert.Equal(t, secret, blob[21:])
}

func TestEncodeRound2RejectsMixedLengths(t *testing.T) {
	_, err := EncodeRound2(0, [][]byte{filled(5, 1), filled(6, 2)}, nil)
	require.ErrorIs(t, err, ErrEncoding)
}

func TestEncodeRound3MinLayout(t *testing.T) {
	req := Round3Request{
		Index:                1,
		Round1PublicPackages: [][]byte{filled(3, 0x11), filled(3, 0x12)},
		Round2PublicPackages: [][]byte{filled(2, 0x21)},
		Round2SecretPackage:  filled(4, 0x5e),
		Participants:         [][]byte{filled(IdentityLen, 0x01), filled(IdentityLen, 0x02)},
		GroupSecretShards:    [][]byte{filled(6, 0x61), filled(6, 0x62), filled(6, 0x63)},
	}

	blob, err := EncodeRound3Min(req)
	require.NoError(t, err)

	c := NewCursor(blob)
	idx, _ := c.Uint8()
	assert.Equal(t, uint8(1), idx)

	readArray := func() [][]byte {
		n, err := c.Uint8()
		require.NoError(t, err)
		l, err := c.Uint16()
		require.NoError(t, err)
		out := make([][]byte, n)
		for i := range out {
			out[i], err = c.Bytes(int(l))
			require.NoError(t, err)
		}
		return out
	}

	assert.Equal(t, req.Round1PublicPackages, readArray())
	assert.Equal(t, req.Round2PublicPackages, readArray())
	secret, err := c.Prefixed()
	require.NoError(t, err)
	assert.Equal(t, req.Round2SecretPackage, secret)
	assert.Equal(t, req.Participants, readArray())
	assert.Equal(t, req.GroupSecretShards, readArray())
	assert.Zero(t, c.Remaining())
}

func TestEncodeRound3MinEmptyRound2(t *testing.T) {
	blob, err := EncodeRound3Min(Round3Request{
		Round1PublicPackages: [][]byte{filled(3, 1)},
		Participants:         [][]byte{filled(3, 2)},
		GroupSecretShards:    [][]byte{filled(3, 3), filled(3, 4)},
	})
	require.NoError(t, err)
	// index, round1 array, then an empty round2 array: count 0 and stride 0.
	assert.Equal(t, []byte{0, 0, 0}, blob[1+1+2+3:1+1+2+3+3])
}

func TestEncodeRound3MinRejectsMixedLengths(t *testing.T) {
	tests := []struct {
		name string
		req  Round3Request
	}{
		{"round1", Round3Request{Round1PublicPackages: [][]byte{{1}, {1, 2}}}},
		{"round2", Round3Request{Round2PublicPackages: [][]byte{{1, 2}, {1}}}},
		{"participants", Round3Request{Participants: [][]byte{{1}, {}}}},
		{"gsk", Round3Request{GroupSecretShards: [][]byte{{1}, {2}, {3, 4}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeRound3Min(tt.req)
			assert.ErrorIs(t, err, ErrEncoding)
		})
	}
}

func TestEncodeGetCommitments(t *testing.T) {
	hash := filled(TxHashLen, 0x42)
	blob, err := EncodeGetCommitments(hash)
	require.NoError(t, err)
	assert.Equal(t, hash, blob)

	_, err = EncodeGetCommitments(filled(31, 0))
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestEncodeDkgSign(t *testing.T) {
	rnd := filled(32, 0x0a)
	pkg := filled(300, 0x0b)
	hash := filled(TxHashLen, 0x0c)

	blob, err := EncodeDkgSign(rnd, pkg, hash)
	require.NoError(t, err)
	require.Len(t, blob, 2+32+2+300+32)

	c := NewCursor(blob)
	got, err := c.Prefixed()
	require.NoError(t, err)
	assert.Equal(t, rnd, got)
	got, err = c.Prefixed()
	require.NoError(t, err)
	assert.Equal(t, pkg, got)
	got, err = c.Bytes(TxHashLen)
	require.NoError(t, err)
	assert.Equal(t, hash, got)

	_, err = EncodeDkgSign(rnd, pkg, hash[:10])
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestParseHex(t *testing.T) {
	b, err := ParseHex("tx", "00ff")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xff}, b)

	_, err = ParseHex("tx", "zz")
	assert.ErrorIs(t, err, ErrEncoding)

	_, err = ParseHexList("pkgs", []string{"00", "0"})
	assert.ErrorIs(t, err, ErrEncoding)
}
