package api

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"frost-ledger/api/handlers"
	"frost-ledger/internal/chunk"
	"frost-ledger/internal/device"
	"frost-ledger/internal/dto"
	"frost-ledger/internal/metrics"
	"frost-ledger/internal/minimize"
	"frost-ledger/internal/session"
	"frost-ledger/internal/wire"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice answers by instruction. A nil answer fails the transport.
type fakeDevice struct {
	mu      sync.Mutex
	answers map[byte][]byte
	sent    []byte
}

func (f *fakeDevice) Transmit(_ context.Context, _, ins, p1, _ byte, _ []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, ins)
	if ins == wire.InsGetResult {
		ins = 0xff - p1
	}
	resp, ok := f.answers[ins]
	if !ok || resp == nil {
		return nil, errors.New("device unplugged")
	}
	return resp, nil
}

func (f *fakeDevice) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

var ok9000 = []byte{0x90, 0x00}

func withSW(data []byte, sw ...byte) []byte {
	if len(sw) == 0 {
		sw = ok9000
	}
	return append(append([]byte{}, data...), sw...)
}

func setup(t *testing.T, answers map[byte][]byte) (*gin.Engine, *fakeDevice) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	collector, err := metrics.New(metrics.Config{Enabled: true})
	require.NoError(t, err)

	fake := &fakeDevice{answers: answers}
	chunker, err := chunk.New(chunk.DefaultMaxSize, chunk.Packed)
	require.NoError(t, err)
	s, err := session.New(fake, session.Config{Device: "emu", Mode: session.ModeDKG, Chunker: chunker, Metrics: collector})
	require.NoError(t, err)
	app, err := device.NewApp("emu", s, minimize.ZeroBased)
	require.NoError(t, err)

	reg := device.NewRegistry()
	require.NoError(t, reg.Register(app, nil))
	return SetupRouter(handlers.NewDeviceHandler(reg, nil), collector.Handler()), fake
}

func do(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPingAndDevices(t *testing.T) {
	r, _ := setup(t, nil)

	w := do(t, r, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())

	w = do(t, r, http.MethodGet, "/devices", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"devices":["emu"]}`, w.Body.String())

	w = do(t, r, http.MethodGet, "/devices/nope/version", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetVersion(t *testing.T) {
	r, _ := setup(t, map[byte][]byte{
		wire.InsGetVersion: withSW([]byte{1, 0, 4, 2, 1}),
	})
	w := do(t, r, http.MethodGet, "/devices/emu/version", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var v dto.VersionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	assert.True(t, v.TestMode)
	assert.Equal(t, uint8(4), v.Minor)
	assert.True(t, v.Locked)
}

func TestDkgRound1WithRetrieval(t *testing.T) {
	pair, err := wire.EncodePackagePair([]byte{0x01, 0x02}, []byte{0x03})
	require.NoError(t, err)
	r, fake := setup(t, map[byte][]byte{
		wire.InsDkgRound1: withSW([]byte{2}),
		0xff:              withSW(pair[:3]),
		0xfe:              withSW(pair[3:]),
	})

	w := do(t, r, http.MethodPost, "/devices/emu/dkg/round1", dto.Round1Request{
		Index:      0,
		Identities: []string{strings.Repeat("ab", wire.IdentityLen)},
		MinSigners: 1,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"secretPackage":"0102","publicPackage":"03"}`, w.Body.String())
	assert.Equal(t, 3, fake.count())

	w = do(t, r, http.MethodGet, "/devices/emu/operations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Operations []dto.Operation `json:"operations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Operations, 1)
	assert.Equal(t, "dkg_round1", body.Operations[0].Operation)
	assert.Equal(t, "Done", body.Operations[0].Status)
	assert.Equal(t, 2, body.Operations[0].Parts)

	w = do(t, r, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "frost_ledger_")
}

func TestErrorMapping(t *testing.T) {
	r, _ := setup(t, map[byte][]byte{
		wire.InsDkgRound1:     withSW([]byte("oops"), 0x69, 0x84),
		wire.InsDkgBackupKeys: nil,
		wire.InsDkgGetKeys:    withSW([]byte{1, 2}),
	})

	w := do(t, r, http.MethodPost, "/devices/emu/dkg/round1", dto.Round1Request{
		Identities: []string{strings.Repeat("00", wire.IdentityLen)},
		MinSigners: 1,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	assert.Equal(t, "0x6984", e.StatusWord)
	assert.Contains(t, e.Error, "oops")

	w = do(t, r, http.MethodPost, "/devices/emu/dkg/backup", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = do(t, r, http.MethodGet, "/devices/emu/dkg/keys/view", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code, "short key payload is a decode error")

	w = do(t, r, http.MethodGet, "/devices/emu/dkg/keys/nonsense", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/devices/emu/dkg/round1", dto.Round1Request{
		Identities: []string{"zz"},
		MinSigners: 1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/devices/emu/sign", map[string]string{"path": "m/44'/1338'/0"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "missing blob")
}

func TestMinimizeDoesNotTouchDevice(t *testing.T) {
	r, fake := setup(t, nil)
	req := dto.MinimizeRequest{Round3Request: dto.Round3Request{
		Index: 1,
		Round1: []dto.Round1Package{
			{Identity: "a1", FrostPackage: "f1", GroupSecretKeyShardEncrypted: "c1"},
			{Identity: "a2", FrostPackage: "f2", GroupSecretKeyShardEncrypted: "c2"},
		},
		Round2: []dto.Round2Package{
			{Packages: []dto.Round2Entry{{RecipientIdentity: "a2", FrostPackage: "e1"}}},
			{Packages: []dto.Round2Entry{{RecipientIdentity: "a1", FrostPackage: "e2"}}},
		},
	}}

	w := do(t, r, http.MethodPost, "/devices/emu/dkg/round3/minimize", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{
		"participants": ["a1"],
		"round1PublicPackages": ["f1"],
		"round2PublicPackages": ["e1"],
		"groupSecretShards": ["c1", "c2"]
	}`, w.Body.String())

	one := 1
	req.IndexBase = &one
	w = do(t, r, http.MethodPost, "/devices/emu/dkg/round3/minimize", req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"participants":["a2"]`)

	req.Index = 5
	w = do(t, r, http.MethodPost, "/devices/emu/dkg/round3/minimize", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Zero(t, fake.count())
}

func TestRestoreAndReview(t *testing.T) {
	hash := bytes.Repeat([]byte{0x42}, 40)
	r, _ := setup(t, map[byte][]byte{
		wire.InsDkgRestoreKeys: ok9000,
		wire.InsReviewTx:       withSW([]byte{1}),
		0xff:                   withSW(hash),
	})

	w := do(t, r, http.MethodPost, "/devices/emu/dkg/restore", dto.RestoreRequest{EncryptedKeys: "deadbeef"})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodPost, "/devices/emu/review", dto.ReviewRequest{Transaction: "0102"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"txHash":"`+hex.EncodeToString(hash[:32])+`"}`, w.Body.String())
}
