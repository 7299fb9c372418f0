// Package minimize derives the per-participant round-3 input from the full
// round-1 and round-2 broadcast sets of a DKG ceremony.
package minimize

import (
	"bytes"
	"errors"
	"fmt"

	"frost-ledger/internal/wire"
)

// ErrIndexOutOfRange is returned when the local index does not address any
// round-1 package.
var ErrIndexOutOfRange = errors.New("minimize: participant index out of range")

// IndexBase states how the local participant index maps onto the round-1
// broadcast array. The key ceremony protocol pins this, not this package.
type IndexBase int

const (
	ZeroBased IndexBase = 0
	OneBased  IndexBase = 1
)

// ParseIndexBase accepts 0 or 1.
func ParseIndexBase(v int) (IndexBase, error) {
	switch IndexBase(v) {
	case ZeroBased, OneBased:
		return IndexBase(v), nil
	}
	return 0, fmt.Errorf("minimize: index base must be 0 or 1, got %d", v)
}

// Round1Package is one participant's decoded round-1 broadcast.
type Round1Package struct {
	Identity                     []byte
	FrostPackage                 []byte
	GroupSecretKeyShardEncrypted []byte
}

// Round2Entry is a package addressed to a single recipient.
type Round2Entry struct {
	RecipientIdentity []byte
	FrostPackage      []byte
}

// Round2Package is one sender's round-2 broadcast.
type Round2Package struct {
	Packages []Round2Entry
}

// Result is the minimized round-3 input. Participants, Round1PublicPackages
// and GroupSecretShards follow round-1 broadcast order; Round2PublicPackages
// holds only the entries addressed to the local identity.
type Result struct {
	Participants         [][]byte
	Round1PublicPackages [][]byte
	Round2PublicPackages [][]byte
	GroupSecretShards    [][]byte
}

// Request turns the result into a device request for the given index and
// round-2 secret package.
func (r *Result) Request(index uint8, round2SecretPackage []byte) wire.Round3Request {
	return wire.Round3Request{
		Index:                index,
		Participants:         r.Participants,
		Round1PublicPackages: r.Round1PublicPackages,
		Round2PublicPackages: r.Round2PublicPackages,
		Round2SecretPackage:  round2SecretPackage,
		GroupSecretShards:    r.GroupSecretShards,
	}
}

// Round3 minimizes the broadcast sets for the participant at index.
//
// Every group secret shard is kept, including the local one. The local
// identity and round-1 package are excluded from Participants and
// Round1PublicPackages. If index addresses no round-1 package the local
// identity is unknown and no round-2 package can match; that is reported as
// ErrIndexOutOfRange.
func Round3(index int, base IndexBase, round1 []Round1Package, round2 []Round2Package) (*Result, error) {
	local := index - int(base)
	if local < 0 || local >= len(round1) {
		return nil, fmt.Errorf("%w: index %d (base %d) with %d round1 packages", ErrIndexOutOfRange, index, base, len(round1))
	}

	res := &Result{
		Participants:         make([][]byte, 0, len(round1)-1),
		Round1PublicPackages: make([][]byte, 0, len(round1)-1),
		Round2PublicPackages: [][]byte{},
		GroupSecretShards:    make([][]byte, 0, len(round1)),
	}

	var identity []byte
	for i, pkg := range round1 {
		res.GroupSecretShards = append(res.GroupSecretShards, pkg.GroupSecretKeyShardEncrypted)
		if i == local {
			identity = pkg.Identity
			continue
		}
		res.Participants = append(res.Participants, pkg.Identity)
		res.Round1PublicPackages = append(res.Round1PublicPackages, pkg.FrostPackage)
	}

	for _, sender := range round2 {
		for _, entry := range sender.Packages {
			if bytes.Equal(entry.RecipientIdentity, identity) {
				res.Round2PublicPackages = append(res.Round2PublicPackages, entry.FrostPackage)
			}
		}
	}
	return res, nil
}
