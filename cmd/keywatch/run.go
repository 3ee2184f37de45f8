package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aleister1102/keywatch/internal/api"
	"github.com/aleister1102/keywatch/internal/config"
	"github.com/aleister1102/keywatch/internal/datastore"
	"github.com/aleister1102/keywatch/internal/httpclient"
	"github.com/aleister1102/keywatch/internal/logger"
	"github.com/aleister1102/keywatch/internal/monitor"
	"github.com/aleister1102/keywatch/internal/notifier"
	"github.com/aleister1102/keywatch/internal/telemetry"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the monitoring daemon and its local API",
	RunE:  runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configPath := resolveConfigPath()
	logCfg := config.NewDefaultLogConfig()
	if gCfg, err := config.LoadGlobalConfig(configPath); err == nil {
		logCfg = gCfg.LogConfig
	}
	zLogger, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("could not initialize logger: %w", err)
	}

	opts := config.DefaultConfigManagerOptions()
	opts.Logger = zLogger
	opts.HotReloadEnabled = true
	opts.CreateIfMissing = true
	cm, err := config.NewConfigManager(configPath, opts)
	if err != nil {
		zLogger.Error().Err(err).Str("path", configPath).Msg("Could not load configuration")
		return err
	}
	defer cm.Close()
	gCfg := cm.GetConfig()

	metrics := telemetry.NewMetrics()

	store, err := datastore.Open(ctx, gCfg.StorageConfig.SQLitePath, zLogger)
	if err != nil {
		zLogger.Error().Err(err).Str("path", gCfg.StorageConfig.SQLitePath).Msg("Could not open local store")
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			zLogger.Warn().Err(err).Msg("Failed to close local store")
		}
	}()

	notifyClient, err := httpclient.NewHTTPClientBuilder(zLogger).
		WithTimeout(20 * time.Second).
		WithRetry(httpclient.DefaultRetryHandlerConfig()).
		Build()
	if err != nil {
		return fmt.Errorf("could not create notification HTTP client: %w", err)
	}
	channels, err := notifier.BuildChannels(gCfg.NotificationConfig, notifyClient, zLogger)
	if err != nil {
		return fmt.Errorf("could not set up notification channels: %w", err)
	}
	dispatcher := notifier.NewDispatcher(store, channels, zLogger)

	svc, err := monitor.NewMonitoringService(ctx, monitor.ServiceOptions{
		Settings:        cm,
		Store:           store,
		Dispatcher:      dispatcher,
		BadgeColor:      gCfg.NotificationConfig.BadgeColor,
		ScanResultsSize: gCfg.StorageConfig.ScanResultsSize,
		Logger:          zLogger,
		Metrics:         metrics,
	})
	if err != nil {
		return fmt.Errorf("could not create monitoring service: %w", err)
	}
	defer svc.Stop()

	if err := svc.Start(ctx); err != nil {
		return err
	}
	cm.StartHotReload(ctx)

	mainLogger := logger.Component(zLogger, "Main")
	mainLogger.Info().
		Str("config", configPath).
		Str("listen_addr", gCfg.ServerConfig.ListenAddr).
		Msg("keywatch daemon running")

	server := api.NewServer(gCfg.ServerConfig, svc, metrics, zLogger)
	if err := server.ListenAndServe(ctx); err != nil && !errors.Is(err, context.Canceled) {
		mainLogger.Error().Err(err).Msg("API server failed")
		return err
	}

	mainLogger.Info().Msg("Shutting down")
	return nil
}

// nopLogger keeps client commands quiet unless they fail.
func nopLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).Level(zerolog.WarnLevel)
}
