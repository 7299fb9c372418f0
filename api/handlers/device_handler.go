package handlers

import (
	"context"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"

	"frost-ledger/internal/device"
	"frost-ledger/internal/dto"
	"frost-ledger/internal/logger"
	"frost-ledger/internal/minimize"
	"frost-ledger/internal/storage/models"
	"frost-ledger/internal/wire"

	"github.com/gin-gonic/gin"
)

// OperationLister reads the persisted operation audit log.
type OperationLister interface {
	ListOperations(ctx context.Context, device string, limit int) ([]models.OperationLog, error)
}

var errBadLimit = errors.New("limit must be a non-negative integer")

// DeviceHandler serves the device routes.
type DeviceHandler struct {
	registry *device.Registry
	audit    OperationLister
}

// NewDeviceHandler creates a handler. audit may be nil, in which case
// operations are served from the in-memory tracker.
func NewDeviceHandler(registry *device.Registry, audit OperationLister) *DeviceHandler {
	return &DeviceHandler{registry: registry, audit: audit}
}

func (h *DeviceHandler) app(c *gin.Context) (*device.App, bool) {
	app, err := h.registry.Get(c.Param("name"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return app, true
}

// ListDevices returns the configured device names.
func (h *DeviceHandler) ListDevices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"devices": h.registry.Names()})
}

func (h *DeviceHandler) GetVersion(c *gin.Context) {
	app, ok := h.app(c)
	if !ok {
		return
	}
	v, err := app.GetVersion(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewVersionResponse(v))
}

func (h *DeviceHandler) RetrieveKeys(c *gin.Context) {
	app, ok := h.app(c)
	if !ok {
		return
	}
	var req dto.KeysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	kind, err := wire.ParseKeyKind(req.Kind)
	if err != nil {
		respondError(c, err)
		return
	}
	keys, err := app.RetrieveKeys(c.Request.Context(), req.Path, kind, req.ShowOnDevice)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewKeysResponse(keys))
}

func (h *DeviceHandler) Sign(c *gin.Context) {
	app, ok := h.app(c)
	if !ok {
		return
	}
	var req dto.SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	blob, err := wire.ParseHex("blob", req.Blob)
	if err != nil {
		respondError(c, err)
		return
	}
	sig, err := app.Sign(c.Request.Context(), req.Path, blob)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SignResponse{Signature: hex.EncodeToString(sig[:])})
}

func (h *DeviceHandler) DkgIdentity(c *gin.Context) {
	app, ok := h.app(c)
	if !ok {
		return
	}
	var req dto.IdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id, err := app.DkgGetIdentity(c.Request.Context(), req.Index)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.IdentityResponse{Identity: hex.EncodeToString(id[:])})
}

func (h *DeviceHandler) DkgRound1(c *gin.Context) {
	app, ok := h.app(c)
	if !ok {
		return
	}
	var req dto.Round1Request
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	identities, err := wire.ParseHexList("identities", req.Identities)
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := app.DkgRound1(c.Request.Context(), req.Index, identities, req.MinSigners)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRoundResponse(res.SecretPackage, res.PublicPackage))
}

func (h *DeviceHandler) DkgRound2(c *gin.Context) {
	app, ok := h.app(c)
	if !ok {
		return
	}
	var req dto.Round2Request
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pkgs, err := wire.ParseHexList("round1PublicPackages", req.Round1PublicPackages)
	if err != nil {
		respondError(c, err)
		return
	}
	secret, err := wire.ParseHex("round1SecretPackage", req.Round1SecretPackage)
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := app.DkgRound2(c.Request.Context(), req.Index, pkgs, secret)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRoundResponse(res.SecretPackage, res.PublicPackage))
}

func (h *DeviceHandler) DkgRound3(c *gin.Context) {
	app, ok := h.app(c)
	if !ok {
		return
	}
	var req dto.Round3Request
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	round1, round2, err := req.Broadcast()
	if err != nil {
		respondError(c, err)
		return
	}
	secret, err := wire.ParseHex("round2SecretPackage", req.Round2SecretPackage)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := app.DkgRound3(c.Request.Context(), req.Index, round1, round2, secret); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DeviceHandler) DkgRound3Min(c *gin.Context) {
	app, ok := h.app(c)
	if !ok {
		return
	}
	var body dto.Round3MinRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	req, err := body.Request()
	if err != nil {
		respondError(c, err)
		return
	}
	if err := app.DkgRound3Min(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MinimizeRound3 returns the minimized round-3 input without contacting
// the device.
func (h *DeviceHandler) MinimizeRound3(c *gin.Context) {
	app, ok := h.app(c)
	if !ok {
		return
	}
	var req dto.MinimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	base := app.IndexBase()
	if req.IndexBase != nil {
		var err error
		if base, err = minimize.ParseIndexBase(*req.IndexBase); err != nil {
			badRequest(c, err)
			return
		}
	}
	round1, round2, err := req.Broadcast()
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := minimize.Round3(int(req.Index), base, round1, round2)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewMinimizeResponse(res))
}

func (h *DeviceHandler) DkgCommitments(c *gin.Context) {
	app, ok := h.app(c)
	if !ok {
		return
	}
	var req dto.CommitmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	txHash, err := wire.ParseHex("txHash", req.TxHash)
	if err != nil {
		respondError(c, err)
		return
	}
	data, err := app.DkgGetCommitments(c.Request.Context(), txHash)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DataResponse{Data: hex.EncodeToString(data)})
}

func (h *DeviceHandler) DkgSign(c *gin.Context) {
	app, ok := h.app(c)
	if !ok {
		return
	}
	var req dto.DkgSignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	randomness, err := wire.ParseHex("pkRandomness", req.PkRandomness)
	if err != nil {
		respondError(c, err)
		return
	}
	pkg, err := wire.ParseHex("signingPackage", req.SigningPackage)
	if err != nil {
		respondError(c, err)
		return
	}
	txHash, err := wire.ParseHex("txHash", req.TxHash)
	if err != nil {
		respondError(c, err)
		return
	}
	data, err := app.DkgSign(c.Request.Context(), randomness, pkg, txHash)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DataResponse{Data: hex.EncodeToString(data)})
}

func (h *DeviceHandler) DkgPublicPackage(c *gin.Context) {
	app, ok := h.app(c)
	if !ok {
		return
	}
	data, err := app.DkgGetPublicPackage(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DataResponse{Data: hex.EncodeToString(data)})
}

func (h *DeviceHandler) DkgBackupKeys(c *gin.Context) {
	app, ok := h.app(c)
	if !ok {
		return
	}
	data, err := app.DkgBackupKeys(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DataResponse{Data: hex.EncodeToString(data)})
}

func (h *DeviceHandler) DkgRetrieveKeys(c *gin.Context) {
	app, ok := h.app(c)
	if !ok {
		return
	}
	kind, err := wire.ParseKeyKind(c.Param("kind"))
	if err != nil {
		respondError(c, err)
		return
	}
	keys, err := app.DkgRetrieveKeys(c.Request.Context(), kind)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewKeysResponse(keys))
}

func (h *DeviceHandler) DkgRestoreKeys(c *gin.Context) {
	app, ok := h.app(c)
	if !ok {
		return
	}
	var req dto.RestoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	keys, err := wire.ParseHex("encryptedKeys", req.EncryptedKeys)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := app.DkgRestoreKeys(c.Request.Context(), keys); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DeviceHandler) ReviewTransaction(c *gin.Context) {
	app, ok := h.app(c)
	if !ok {
		return
	}
	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	tx, err := wire.ParseHex("transaction", req.Transaction)
	if err != nil {
		respondError(c, err)
		return
	}
	txHash, err := app.ReviewTransaction(c.Request.Context(), tx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ReviewResponse{TxHash: hex.EncodeToString(txHash[:])})
}

// ListOperations returns the device's recent operations, newest first.
// The audit log is used when configured; otherwise the in-memory tracker.
func (h *DeviceHandler) ListOperations(c *gin.Context) {
	app, ok := h.app(c)
	if !ok {
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest(c, errBadLimit)
			return
		}
		limit = n
	}

	ops := []dto.Operation{}
	if h.audit != nil {
		rows, err := h.audit.ListOperations(c.Request.Context(), app.Name(), limit)
		if err != nil {
			logger.Log.Errorf("[API] Failed to list operations for %s: %v", app.Name(), err)
			respondError(c, err)
			return
		}
		for _, row := range rows {
			ops = append(ops, dto.NewOperationFromLog(row))
		}
	} else {
		for _, op := range app.Session().Manager().Recent(app.Name()) {
			if limit > 0 && len(ops) == limit {
				break
			}
			ops = append(ops, dto.NewOperation(op))
		}
	}
	c.JSON(http.StatusOK, gin.H{"operations": ops})
}
