package main

import (
	"context"
	"os"
	"os/signal"
	"slices"
	"sync/atomic"
	"syscall"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/config"
	"github.com/NetPLC/mb-applet-startup-monitor/internal/daemon"
	"github.com/NetPLC/mb-applet-startup-monitor/internal/display"
	"github.com/NetPLC/mb-applet-startup-monitor/internal/icons"
	"github.com/NetPLC/mb-applet-startup-monitor/internal/launch"
	"github.com/NetPLC/mb-applet-startup-monitor/internal/theme"
)

// runDaemon runs the indicator on the GLib main loop and returns the exit
// status.
func runDaemon(rt *runtime, frames []icons.Frame) int {
	logger := rt.logger
	logger.Info("starting startupmond", "version", version)

	app := adw.NewApplication(appID, 0)

	var (
		surface     *display.Manager
		themeLoader *theme.Loader
		tickSource  glib.SourceHandle
		running     atomic.Bool
		exitCode    atomic.Int32
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
		glib.IdleAdd(func() {
			app.Quit()
		})
	}()

	fail := func(msg string, err error) {
		logger.Error(msg, "error", err)
		exitCode.Store(1)
		app.Quit()
	}

	app.ConnectActivate(func() {
		if running.Load() {
			logger.Warn("application already running")
			return
		}
		running.Store(true)

		themeLoader = theme.NewLoader(logger)
		if err := themeLoader.LoadTheme(rt.cfg.Theme.Name); err != nil {
			logger.Warn("failed to load theme, using default", "error", err)
		}
		themeLoader.Apply(nil)
		themeLoader.StartHotReload(ctx)

		fs, err := display.LoadFrames(frames)
		if err != nil {
			logFrameError(logger, err)
			exitCode.Store(1)
			app.Quit()
			return
		}

		// The indicator window stays attached to the application while
		// hidden, which keeps the application alive between launches.
		surface = display.NewManager(&app.Application, rt.cfg.Indicator, fs, logger)
		if err := surface.Start(); err != nil {
			fail("failed to start indicator surface", err)
			return
		}

		svc := daemon.NewService(surface, logger, rt.serviceOptions()...)
		surface.SetHandler(svc)

		sink := func(_ context.Context, ev launch.RawEvent) {
			glib.IdleAdd(func() {
				svc.OnExternalEvent(ev)
			})
		}
		reload := func(newCfg *config.DaemonConfig) {
			glib.IdleAdd(func() {
				applyWindowed(ctx, rt, surface, themeLoader, newCfg)
			})
		}
		if err := rt.start(ctx, sink, snapshotState(svc), reload); err != nil {
			fail("failed to start D-Bus launch monitor", err)
			return
		}

		tickSource = glib.TimeoutAdd(uint(launch.TickInterval.Milliseconds()), func() bool {
			svc.OnTick()
			return true
		})

		logger.Info("startupmond ready", "position", rt.cfg.Indicator.Position, "size", rt.cfg.Indicator.Size)
	})

	app.ConnectShutdown(func() {
		logger.Info("application shutting down")
		if tickSource != 0 {
			glib.SourceRemove(uint(tickSource))
		}
		if themeLoader != nil {
			themeLoader.StopHotReload()
		}
		rt.stop()
		if surface != nil {
			surface.Stop()
		}
		running.Store(false)
	})

	// GApplication parses its own arguments; flags were consumed already.
	status := app.Run([]string{os.Args[0]})
	cancel()

	if code := exitCode.Load(); code != 0 {
		return int(code)
	}
	if status != 0 {
		logger.Error("application exited with error", "status", status)
	}
	return status
}

// applyWindowed applies a reloaded config on the GTK main thread.
func applyWindowed(ctx context.Context, rt *runtime, surface *display.Manager, loader *theme.Loader, newCfg *config.DaemonConfig) {
	old := rt.cfg
	rt.applyCommon(ctx, newCfg)

	surface.UpdateConfig(newCfg.Indicator)

	if old.Icons.Theme != newCfg.Icons.Theme ||
		old.Indicator.Size != newCfg.Indicator.Size ||
		!slices.Equal(old.Icons.ExtraDirs, newCfg.Icons.ExtraDirs) {
		reloadFrames(rt, surface, newCfg)
	}

	if old.Theme.Name != newCfg.Theme.Name {
		if err := loader.LoadTheme(newCfg.Theme.Name); err != nil {
			rt.logger.Warn("failed to load new theme", "theme", newCfg.Theme.Name, "error", err)
			rt.notifier.NotifyThemeError(err)
		}
		loader.StartHotReload(ctx)
	}

	rt.notifier.NotifyConfigReloaded()
}

// reloadFrames resolves and decodes the frames for newCfg. On failure the
// current frames stay in use.
func reloadFrames(rt *runtime, surface *display.Manager, newCfg *config.DaemonConfig) {
	resolver := icons.NewResolver(newCfg.Icons.Theme, newCfg.Indicator.Size, newCfg.IconDirs())
	frames, err := resolver.Frames()
	if err == nil {
		var fs *display.FrameSet
		if fs, err = display.LoadFrames(frames); err == nil {
			surface.ReplaceFrames(fs)
			return
		}
	}
	logFrameError(rt.logger, err)
	rt.notifier.NotifyFrameError(err)
}
