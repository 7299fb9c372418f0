package dto

import (
	"encoding/hex"
	"fmt"
	"time"

	"frost-ledger/internal/minimize"
	"frost-ledger/internal/session"
	"frost-ledger/internal/storage/models"
	"frost-ledger/internal/wire"
)

// ErrorResponse is returned by every failing route. StatusWord is set when
// the device rejected the command.
type ErrorResponse struct {
	Error      string `json:"error"`
	StatusWord string `json:"statusWord,omitempty"`
}

type VersionResponse struct {
	TestMode bool   `json:"testMode"`
	Major    uint8  `json:"major"`
	Minor    uint8  `json:"minor"`
	Patch    uint8  `json:"patch"`
	Locked   bool   `json:"locked"`
	TargetID string `json:"targetId"`
}

func NewVersionResponse(v *wire.Version) VersionResponse {
	return VersionResponse{
		TestMode: v.TestMode,
		Major:    v.Major,
		Minor:    v.Minor,
		Patch:    v.Patch,
		Locked:   v.Locked,
		TargetID: fmt.Sprintf("%08x", v.TargetID),
	}
}

// KeysResponse flattens the key union. Only the fields of Kind are set.
type KeysResponse struct {
	Kind            string `json:"kind"`
	PublicAddress   string `json:"publicAddress,omitempty"`
	ViewKey         string `json:"viewKey,omitempty"`
	IncomingViewKey string `json:"incomingViewKey,omitempty"`
	OutgoingViewKey string `json:"outgoingViewKey,omitempty"`
	AK              string `json:"ak,omitempty"`
	NSK             string `json:"nsk,omitempty"`
}

func NewKeysResponse(k wire.KeyResponse) KeysResponse {
	resp := KeysResponse{Kind: k.Kind().String()}
	switch v := k.(type) {
	case wire.AddressKey:
		resp.PublicAddress = hex.EncodeToString(v.PublicAddress[:])
	case wire.ViewKeys:
		resp.ViewKey = hex.EncodeToString(v.ViewKey[:])
		resp.IncomingViewKey = hex.EncodeToString(v.IncomingViewKey[:])
		resp.OutgoingViewKey = hex.EncodeToString(v.OutgoingViewKey[:])
	case wire.ProofGenKey:
		resp.AK = hex.EncodeToString(v.AK[:])
		resp.NSK = hex.EncodeToString(v.NSK[:])
	}
	return resp
}

type SignResponse struct {
	Signature string `json:"signature"`
}

type IdentityResponse struct {
	Identity string `json:"identity"`
}

// RoundResponse is the result of round 1 and round 2.
type RoundResponse struct {
	SecretPackage string `json:"secretPackage"`
	PublicPackage string `json:"publicPackage"`
}

func NewRoundResponse(secret, public []byte) RoundResponse {
	return RoundResponse{SecretPackage: hex.EncodeToString(secret), PublicPackage: hex.EncodeToString(public)}
}

type MinimizeResponse struct {
	Participants         []string `json:"participants"`
	Round1PublicPackages []string `json:"round1PublicPackages"`
	Round2PublicPackages []string `json:"round2PublicPackages"`
	GroupSecretShards    []string `json:"groupSecretShards"`
}

func NewMinimizeResponse(r *minimize.Result) MinimizeResponse {
	return MinimizeResponse{
		Participants:         hexList(r.Participants),
		Round1PublicPackages: hexList(r.Round1PublicPackages),
		Round2PublicPackages: hexList(r.Round2PublicPackages),
		GroupSecretShards:    hexList(r.GroupSecretShards),
	}
}

// DataResponse carries an opaque device result.
type DataResponse struct {
	Data string `json:"data"`
}

type ReviewResponse struct {
	TxHash string `json:"txHash"`
}

// Operation describes one tracked or recorded device operation.
type Operation struct {
	OperationID string    `json:"operationId"`
	Device      string    `json:"device"`
	Operation   string    `json:"operation"`
	Instruction uint8     `json:"instruction"`
	Frames      int       `json:"frames"`
	Parts       int       `json:"parts"`
	Status      string    `json:"status"`
	StatusWord  string    `json:"statusWord,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	FinishedAt  time.Time `json:"finishedAt,omitempty"`
}

func NewOperation(op session.OperationState) Operation {
	return Operation{
		OperationID: op.OperationID.String(),
		Device:      op.Device,
		Operation:   op.Operation,
		Instruction: op.Instruction,
		Frames:      op.Frames,
		Parts:       op.Parts,
		Status:      string(op.Status),
		StatusWord:  statusWord(op.StatusWord),
		Error:       op.Error,
		CreatedAt:   op.CreatedAt,
		FinishedAt:  op.FinishedAt,
	}
}

func NewOperationFromLog(row models.OperationLog) Operation {
	return Operation{
		OperationID: row.OperationID.String(),
		Device:      row.Device,
		Operation:   row.Operation,
		Instruction: row.Instruction,
		Frames:      row.Frames,
		Parts:       row.Parts,
		Status:      row.Status,
		StatusWord:  statusWord(row.StatusWord),
		Error:       row.Error,
		CreatedAt:   row.CreatedAt,
		FinishedAt:  row.FinishedAt,
	}
}

func statusWord(sw uint16) string {
	if sw == 0 {
		return ""
	}
	return fmt.Sprintf("0x%04x", sw)
}

func hexList(items [][]byte) []string {
	out := make([]string, len(items))
	for i, b := range items {
		out[i] = hex.EncodeToString(b)
	}
	return out
}
