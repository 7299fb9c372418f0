// Package device exposes the named operations of the signing device
// application on top of a command session.
package device

import (
	"context"
	"fmt"

	"frost-ledger/internal/minimize"
	"frost-ledger/internal/session"
	"frost-ledger/internal/wire"
)

// App issues device operations through a single session.
type App struct {
	name      string
	session   *session.Session
	indexBase minimize.IndexBase
	dummyPath []byte
}

// NewApp creates an App. indexBase decides how DkgRound3 maps the local
// participant index onto the round-1 broadcast.
func NewApp(name string, s *session.Session, indexBase minimize.IndexBase) (*App, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: session has not been defined", wire.ErrEncoding)
	}
	path, err := SerializePath(DummyPath)
	if err != nil {
		return nil, err
	}
	return &App{name: name, session: s, indexBase: indexBase, dummyPath: path}, nil
}

func (a *App) Name() string                  { return a.name }
func (a *App) Session() *session.Session     { return a.session }
func (a *App) IndexBase() minimize.IndexBase { return a.indexBase }

// single sends one unchunked request.
func (a *App) single(ctx context.Context, name string, ins, p1, p2 byte, data []byte, retrieve bool) ([]byte, error) {
	res, err := a.session.Run(ctx, session.Command{
		Name:           name,
		Instruction:    ins,
		P1:             p1,
		P2:             p2,
		Data:           data,
		RetrieveResult: retrieve,
	})
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// dkg sends blob in chunks behind the dummy path.
func (a *App) dkg(ctx context.Context, name string, ins byte, blob []byte, retrieve bool) ([]byte, error) {
	return a.chunked(ctx, name, ins, a.dummyPath, blob, retrieve)
}

func (a *App) chunked(ctx context.Context, name string, ins byte, path, blob []byte, retrieve bool) ([]byte, error) {
	res, err := a.session.Run(ctx, session.Command{
		Name:           name,
		Instruction:    ins,
		Path:           path,
		Data:           blob,
		Chunked:        true,
		RetrieveResult: retrieve,
	})
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// GetVersion reads the application version.
func (a *App) GetVersion(ctx context.Context) (*wire.Version, error) {
	data, err := a.single(ctx, "get_version", wire.InsGetVersion, 0, 0, nil, false)
	if err != nil {
		return nil, err
	}
	return wire.DecodeVersion(data)
}

// RetrieveKeys reads the key material of kind for path, optionally asking
// the device to display the address.
func (a *App) RetrieveKeys(ctx context.Context, path string, kind wire.KeyKind, showOnDevice bool) (wire.KeyResponse, error) {
	serialized, err := SerializePath(path)
	if err != nil {
		return nil, err
	}
	p1 := wire.P1OnlyRetrieve
	if showOnDevice {
		p1 = wire.P1ShowAddressInDevice
	}
	data, err := a.single(ctx, "get_keys", wire.InsGetKeys, p1, byte(kind), serialized, false)
	if err != nil {
		return nil, err
	}
	return wire.DecodeKeys(kind, data)
}

// Sign sends blob for signing under path and returns the signature.
func (a *App) Sign(ctx context.Context, path string, blob []byte) ([wire.SignatureLen]byte, error) {
	serialized, err := SerializePath(path)
	if err != nil {
		return [wire.SignatureLen]byte{}, err
	}
	data, err := a.chunked(ctx, "sign", wire.InsSign, serialized, blob, false)
	if err != nil {
		return [wire.SignatureLen]byte{}, err
	}
	return wire.DecodeSignature(data)
}

// DkgGetIdentity returns the identity the device uses at index.
func (a *App) DkgGetIdentity(ctx context.Context, index uint8) (wire.Identity, error) {
	data, err := a.single(ctx, "dkg_identity", wire.InsDkgIdentity, 0, 0, wire.EncodeIdentityRequest(index), false)
	if err != nil {
		return wire.Identity{}, err
	}
	return wire.DecodeIdentity(data)
}

// DkgRound1 runs the first ceremony round.
func (a *App) DkgRound1(ctx context.Context, index uint8, identities [][]byte, minSigners uint8) (*wire.Round1Result, error) {
	blob, err := wire.EncodeRound1(index, identities, minSigners)
	if err != nil {
		return nil, err
	}
	data, err := a.dkg(ctx, "dkg_round1", wire.InsDkgRound1, blob, true)
	if err != nil {
		return nil, err
	}
	return wire.DecodeRound1Response(data)
}

// DkgRound2 runs the second ceremony round.
func (a *App) DkgRound2(ctx context.Context, index uint8, round1PublicPackages [][]byte, round1SecretPackage []byte) (*wire.Round2Result, error) {
	blob, err := wire.EncodeRound2(index, round1PublicPackages, round1SecretPackage)
	if err != nil {
		return nil, err
	}
	data, err := a.dkg(ctx, "dkg_round2", wire.InsDkgRound2, blob, true)
	if err != nil {
		return nil, err
	}
	return wire.DecodeRound2Response(data)
}

// DkgRound3Min sends an already minimized round-3 input.
func (a *App) DkgRound3Min(ctx context.Context, req wire.Round3Request) error {
	blob, err := wire.EncodeRound3Min(req)
	if err != nil {
		return err
	}
	_, err = a.dkg(ctx, "dkg_round3_min", wire.InsDkgRound3Min, blob, false)
	return err
}

// DkgRound3 minimizes the full broadcast for index and sends the result.
func (a *App) DkgRound3(ctx context.Context, index uint8, round1 []minimize.Round1Package, round2 []minimize.Round2Package, round2SecretPackage []byte) error {
	minimized, err := minimize.Round3(int(index), a.indexBase, round1, round2)
	if err != nil {
		return fmt.Errorf("%w: %w", wire.ErrEncoding, err)
	}
	return a.DkgRound3Min(ctx, minimized.Request(index, round2SecretPackage))
}

// DkgGetCommitments returns the signing commitments for txHash.
func (a *App) DkgGetCommitments(ctx context.Context, txHash []byte) ([]byte, error) {
	blob, err := wire.EncodeGetCommitments(txHash)
	if err != nil {
		return nil, err
	}
	return a.dkg(ctx, "dkg_get_commitments", wire.InsDkgGetCommitments, blob, true)
}

// DkgSign returns the signature share for signingPackage.
func (a *App) DkgSign(ctx context.Context, pkRandomness, signingPackage, txHash []byte) ([]byte, error) {
	blob, err := wire.EncodeDkgSign(pkRandomness, signingPackage, txHash)
	if err != nil {
		return nil, err
	}
	return a.dkg(ctx, "dkg_sign", wire.InsDkgSign, blob, true)
}

// DkgGetPublicPackage returns the group public key package.
func (a *App) DkgGetPublicPackage(ctx context.Context) ([]byte, error) {
	return a.single(ctx, "dkg_get_public_package", wire.InsDkgGetPublicPackage, 0, 0, nil, true)
}

// DkgBackupKeys returns the encrypted key backup.
func (a *App) DkgBackupKeys(ctx context.Context) ([]byte, error) {
	return a.single(ctx, "dkg_backup_keys", wire.InsDkgBackupKeys, 0, 0, nil, true)
}

// DkgRetrieveKeys reads the group key material of kind.
func (a *App) DkgRetrieveKeys(ctx context.Context, kind wire.KeyKind) (wire.KeyResponse, error) {
	data, err := a.single(ctx, "dkg_get_keys", wire.InsDkgGetKeys, 0, byte(kind), nil, false)
	if err != nil {
		return nil, err
	}
	return wire.DecodeKeys(kind, data)
}

// DkgRestoreKeys loads an encrypted key backup into the device.
func (a *App) DkgRestoreKeys(ctx context.Context, encryptedKeys []byte) error {
	_, err := a.dkg(ctx, "dkg_restore_keys", wire.InsDkgRestoreKeys, encryptedKeys, false)
	return err
}

// ReviewTransaction shows tx on the device and returns its hash once
// the user approves.
func (a *App) ReviewTransaction(ctx context.Context, tx []byte) ([wire.TxHashLen]byte, error) {
	data, err := a.dkg(ctx, "review_tx", wire.InsReviewTx, tx, true)
	if err != nil {
		return [wire.TxHashLen]byte{}, err
	}
	return wire.DecodeReviewTransaction(data)
}
