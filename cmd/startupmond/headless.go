package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/config"
	"github.com/NetPLC/mb-applet-startup-monitor/internal/daemon"
	"github.com/NetPLC/mb-applet-startup-monitor/internal/launch"
)

// runHeadless runs the tracker without GTK. Indicator requests are logged,
// which is useful on sessions without layer-shell and for debugging event
// sources.
func runHeadless(rt *runtime) int {
	logger := rt.logger
	logger.Info("starting startupmond in headless mode", "version", version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	surface := daemon.NewLogSurface(rt.cfg.Indicator.Size, logger)
	svc := daemon.NewService(surface, logger, rt.serviceOptions()...)
	surface.SetHandler(svc)

	loop := daemon.NewLoop(svc, logger)

	sink := func(ctx context.Context, ev launch.RawEvent) {
		if err := loop.Post(ctx, ev); err != nil {
			logger.Debug("dropping launch event", "id", ev.ID, "error", err)
		}
	}
	reload := func(newCfg *config.DaemonConfig) {
		if err := loop.Invoke(ctx, func() {
			rt.applyCommon(ctx, newCfg)
			rt.notifier.NotifyConfigReloaded()
		}); err != nil {
			logger.Debug("config reload dropped", "error", err)
		}
	}

	if err := rt.start(ctx, sink, snapshotState(svc), reload); err != nil {
		logger.Error("failed to start D-Bus launch monitor", "error", err)
		return 1
	}
	defer rt.stop()

	logger.Info("startupmond ready")
	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("control loop failed", "error", err)
		return 1
	}
	logger.Info("shutting down")
	_ = os.Stderr.Sync()
	return 0
}
