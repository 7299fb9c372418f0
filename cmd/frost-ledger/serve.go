package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"frost-ledger/api"
	"frost-ledger/api/handlers"
	"frost-ledger/internal/config"
	"frost-ledger/internal/device"
	"frost-ledger/internal/logger"
	"frost-ledger/internal/metrics"
	"frost-ledger/internal/session"
	"frost-ledger/internal/storage"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	if err := logger.InitLogger(cfg.Logger); err != nil {
		return err
	}
	defer logger.Close()

	collector, err := metrics.New(metrics.Config{Enabled: cfg.Metrics.Enabled, Namespace: cfg.Metrics.Namespace})
	if err != nil {
		return err
	}

	deps := device.Deps{
		Manager: session.NewManager(cfg.History),
		Metrics: collector,
	}
	var audit handlers.OperationLister
	if cfg.Database.Enabled {
		store, err := storage.InitDB(cfg.Database)
		if err != nil {
			return err
		}
		defer store.Close()
		deps.Recorder = store
		audit = store
	}

	registry := device.NewRegistry()
	defer registry.Close()
	for _, d := range cfg.Devices {
		if _, err := registry.Open(d, deps); err != nil {
			return err
		}
		logger.Log.Infof("[Serve] Registered device %s at %s (mode %s)", d.Name, d.Address, d.Mode)
	}

	var metricsHandler http.Handler
	if collector != nil {
		metricsHandler = collector.Handler()
	}
	router := api.SetupRouter(handlers.NewDeviceHandler(registry, audit), metricsHandler)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Log.Infof("[Serve] HTTP server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Log.Info("[Serve] Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
