package api

import (
	"net/http"

	"frost-ledger/api/handlers"

	"github.com/gin-gonic/gin"
)

// SetupRouter wires the HTTP routes. metrics may be nil.
func SetupRouter(devices *handlers.DeviceHandler, metrics http.Handler) *gin.Engine {
	router := gin.Default()

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	router.GET("/devices", devices.ListDevices)

	d := router.Group("/devices/:name")
	d.GET("/version", devices.GetVersion)
	d.POST("/keys", devices.RetrieveKeys)
	d.POST("/sign", devices.Sign)
	d.POST("/review", devices.ReviewTransaction)
	d.GET("/operations", devices.ListOperations)

	dkg := d.Group("/dkg")
	dkg.POST("/identity", devices.DkgIdentity)
	dkg.POST("/round1", devices.DkgRound1)
	dkg.POST("/round2", devices.DkgRound2)
	dkg.POST("/round3", devices.DkgRound3)
	dkg.POST("/round3/min", devices.DkgRound3Min)
	dkg.POST("/round3/minimize", devices.MinimizeRound3)
	dkg.POST("/commitments", devices.DkgCommitments)
	dkg.POST("/sign", devices.DkgSign)
	dkg.GET("/public-package", devices.DkgPublicPackage)
	dkg.POST("/backup", devices.DkgBackupKeys)
	dkg.GET("/keys/:kind", devices.DkgRetrieveKeys)
	dkg.POST("/restore", devices.DkgRestoreKeys)

	return router
}
