// Package dto holds the JSON bodies of the HTTP API. Byte fields travel as
// hex strings.
package dto

import (
	"fmt"

	"frost-ledger/internal/minimize"
	"frost-ledger/internal/wire"
)

// KeysRequest asks for key material under a derivation path.
type KeysRequest struct {
	Path         string `json:"path" binding:"required"`
	Kind         string `json:"kind" binding:"required"`
	ShowOnDevice bool   `json:"showOnDevice"`
}

// SignRequest asks the device to sign a blob under a derivation path.
type SignRequest struct {
	Path string `json:"path" binding:"required"`
	Blob string `json:"blob" binding:"required"`
}

type IdentityRequest struct {
	Index uint8 `json:"index"`
}

type Round1Request struct {
	Index      uint8    `json:"index"`
	Identities []string `json:"identities" binding:"required"`
	MinSigners uint8    `json:"minSigners" binding:"required"`
}

type Round2Request struct {
	Index                uint8    `json:"index"`
	Round1PublicPackages []string `json:"round1PublicPackages" binding:"required"`
	Round1SecretPackage  string   `json:"round1SecretPackage" binding:"required"`
}

// Round1Package is one participant's decoded round-1 broadcast.
type Round1Package struct {
	Identity                     string `json:"identity"`
	FrostPackage                 string `json:"frostPackage"`
	GroupSecretKeyShardEncrypted string `json:"groupSecretKeyShardEncrypted"`
}

type Round2Entry struct {
	RecipientIdentity string `json:"recipientIdentity"`
	FrostPackage      string `json:"frostPackage"`
}

// Round2Package is one sender's decoded round-2 broadcast.
type Round2Package struct {
	Packages []Round2Entry `json:"packages"`
}

// Round3Request carries the full broadcast sets. The server minimizes them
// for Index before anything is sent.
type Round3Request struct {
	Index               uint8           `json:"index"`
	Round1              []Round1Package `json:"round1" binding:"required"`
	Round2              []Round2Package `json:"round2" binding:"required"`
	Round2SecretPackage string          `json:"round2SecretPackage"`
}

// MinimizeRequest is a Round3Request whose index base may be overridden.
// A nil IndexBase uses the device's configured base.
type MinimizeRequest struct {
	Round3Request
	IndexBase *int `json:"indexBase"`
}

// Round3MinRequest carries an already minimized round-3 input.
type Round3MinRequest struct {
	Index                uint8    `json:"index"`
	Participants         []string `json:"participants"`
	Round1PublicPackages []string `json:"round1PublicPackages"`
	Round2PublicPackages []string `json:"round2PublicPackages"`
	Round2SecretPackage  string   `json:"round2SecretPackage"`
	GroupSecretShards    []string `json:"groupSecretShards"`
}

type CommitmentsRequest struct {
	TxHash string `json:"txHash" binding:"required"`
}

type DkgSignRequest struct {
	PkRandomness   string `json:"pkRandomness" binding:"required"`
	SigningPackage string `json:"signingPackage" binding:"required"`
	TxHash         string `json:"txHash" binding:"required"`
}

type RestoreRequest struct {
	EncryptedKeys string `json:"encryptedKeys" binding:"required"`
}

type ReviewRequest struct {
	Transaction string `json:"transaction" binding:"required"`
}

// Broadcast decodes the round-1 and round-2 broadcast sets.
func (r Round3Request) Broadcast() ([]minimize.Round1Package, []minimize.Round2Package, error) {
	round1 := make([]minimize.Round1Package, 0, len(r.Round1))
	for i, p := range r.Round1 {
		field := fmt.Sprintf("round1[%d]", i)
		id, err := wire.ParseHex(field+".identity", p.Identity)
		if err != nil {
			return nil, nil, err
		}
		frost, err := wire.ParseHex(field+".frostPackage", p.FrostPackage)
		if err != nil {
			return nil, nil, err
		}
		gsk, err := wire.ParseHex(field+".groupSecretKeyShardEncrypted", p.GroupSecretKeyShardEncrypted)
		if err != nil {
			return nil, nil, err
		}
		round1 = append(round1, minimize.Round1Package{Identity: id, FrostPackage: frost, GroupSecretKeyShardEncrypted: gsk})
	}

	round2 := make([]minimize.Round2Package, 0, len(r.Round2))
	for i, p := range r.Round2 {
		entries := make([]minimize.Round2Entry, 0, len(p.Packages))
		for j, e := range p.Packages {
			field := fmt.Sprintf("round2[%d].packages[%d]", i, j)
			recipient, err := wire.ParseHex(field+".recipientIdentity", e.RecipientIdentity)
			if err != nil {
				return nil, nil, err
			}
			frost, err := wire.ParseHex(field+".frostPackage", e.FrostPackage)
			if err != nil {
				return nil, nil, err
			}
			entries = append(entries, minimize.Round2Entry{RecipientIdentity: recipient, FrostPackage: frost})
		}
		round2 = append(round2, minimize.Round2Package{Packages: entries})
	}
	return round1, round2, nil
}

// Request decodes the hex fields into a wire request.
func (r Round3MinRequest) Request() (wire.Round3Request, error) {
	var req wire.Round3Request
	var err error
	req.Index = r.Index
	if req.Participants, err = wire.ParseHexList("participants", r.Participants); err != nil {
		return req, err
	}
	if req.Round1PublicPackages, err = wire.ParseHexList("round1PublicPackages", r.Round1PublicPackages); err != nil {
		return req, err
	}
	if req.Round2PublicPackages, err = wire.ParseHexList("round2PublicPackages", r.Round2PublicPackages); err != nil {
		return req, err
	}
	if req.Round2SecretPackage, err = wire.ParseHex("round2SecretPackage", r.Round2SecretPackage); err != nil {
		return req, err
	}
	if req.GroupSecretShards, err = wire.ParseHexList("groupSecretShards", r.GroupSecretShards); err != nil {
		return req, err
	}
	return req, nil
}
