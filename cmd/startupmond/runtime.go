package main

import (
	"context"
	"log/slog"
	"slices"

	godbus "github.com/godbus/dbus/v5"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/audio"
	"github.com/NetPLC/mb-applet-startup-monitor/internal/config"
	"github.com/NetPLC/mb-applet-startup-monitor/internal/daemon"
	"github.com/NetPLC/mb-applet-startup-monitor/internal/dbus"
	"github.com/NetPLC/mb-applet-startup-monitor/internal/launch"
)

// runtime holds the components shared by the windowed and headless modes.
// Fields are only touched from the control loop once started.
type runtime struct {
	cfg        *config.DaemonConfig
	configPath string
	logger     *slog.Logger
	level      *slog.LevelVar
	debug      bool

	sink  dbus.EventSink
	state dbus.StateFunc

	server        *dbus.Server
	systemd       *dbus.SystemdSource
	notifier      *daemon.InternalNotifier
	cue           *audio.Cue
	configWatcher *daemon.ConfigWatcher
}

func newRuntime(cfg *config.DaemonConfig, path string, logger *slog.Logger, level *slog.LevelVar, debug bool) *runtime {
	return &runtime{
		cfg:        cfg,
		configPath: path,
		logger:     logger,
		level:      level,
		debug:      debug,
		notifier:   daemon.NewInternalNotifier(logger),
		cue:        audio.NewCue(cfg, logger),
	}
}

// serviceOptions returns the hooks that connect the service to the bus and
// the audio cue.
func (rt *runtime) serviceOptions() []daemon.ServiceOption {
	return []daemon.ServiceOption{
		daemon.WithExpiryHook(rt.launchTimedOut),
		daemon.WithStateHook(rt.stateChanged),
	}
}

func (rt *runtime) launchTimedOut(r launch.Record) {
	if rt.server != nil {
		if err := rt.server.EmitLaunchTimedOut(r.ID); err != nil {
			rt.logger.Debug("failed to emit timeout signal", "id", r.ID, "error", err)
		}
	}
	go func() {
		if err := rt.cue.PlayTimeout(); err != nil {
			rt.logger.Warn("failed to play timeout sound", "error", err)
			rt.notifier.NotifyAudioError(err)
		}
	}()
}

func (rt *runtime) stateChanged(s daemon.Snapshot) {
	if rt.server == nil {
		return
	}
	if err := rt.server.EmitStateChanged(s.Visible, s.Outstanding()); err != nil {
		rt.logger.Debug("failed to emit state signal", "error", err)
	}
}

// snapshotState adapts a service snapshot for the bus server.
func snapshotState(svc *daemon.Service) dbus.StateFunc {
	return func() dbus.State {
		snap := svc.Snapshot()
		return dbus.State{
			Visible:  snap.Visible,
			Frame:    snap.Frame,
			Launches: snap.Launches,
		}
	}
}

// start brings up the event sources, the notifier, the audio cue and the
// config watcher. reload is called with each new valid config and must hand
// it to the control loop.
func (rt *runtime) start(ctx context.Context, sink dbus.EventSink, state dbus.StateFunc, reload func(*config.DaemonConfig)) error {
	rt.sink = sink
	rt.state = state

	if rt.cfg.Sources.DBus {
		rt.server = dbus.NewServer(sink, state, rt.logger)
		if err := rt.server.Start(); err != nil {
			return err
		}
	}
	rt.startSystemd(ctx)

	if conn, err := godbus.SessionBus(); err != nil {
		rt.logger.Warn("desktop notifications unavailable", "error", err)
	} else {
		rt.notifier.SetNotifyHandler(dbus.NewNotificationClient(conn, rt.logger).Notify)
	}

	if err := rt.cue.Start(ctx); err != nil {
		rt.logger.Warn("failed to start audio cue", "error", err)
	}

	rt.configWatcher = daemon.NewConfigWatcher(rt.configPath, rt.logger)
	rt.configWatcher.SetReloadCallback(reload)
	rt.configWatcher.SetErrorCallback(rt.notifier.NotifyConfigError)
	if err := rt.configWatcher.Start(ctx, rt.cfg); err != nil {
		rt.logger.Warn("failed to start config watcher", "error", err)
	}

	return nil
}

func (rt *runtime) startSystemd(ctx context.Context) {
	if !rt.cfg.Sources.Systemd {
		return
	}
	rt.systemd = dbus.NewSystemdSource(rt.cfg.Sources.UnitPrefixes, rt.sink, rt.logger)
	if err := rt.systemd.Start(ctx); err != nil {
		rt.logger.Warn("systemd user jobs unavailable", "error", err)
		rt.systemd = nil
	}
}

// applyCommon applies the parts of a reloaded config that do not depend on
// the surface. Must run on the control loop.
func (rt *runtime) applyCommon(ctx context.Context, newCfg *config.DaemonConfig) {
	old := rt.cfg
	rt.cfg = newCfg

	if !rt.debug {
		rt.level.Set(newCfg.SlogLevel())
	}

	rt.cue.UpdateConfig(newCfg)

	if old.Sources.Systemd != newCfg.Sources.Systemd ||
		!slices.Equal(old.Sources.UnitPrefixes, newCfg.Sources.UnitPrefixes) {
		if rt.systemd != nil {
			rt.systemd.Stop()
			rt.systemd = nil
		}
		rt.startSystemd(ctx)
	}

	if old.Sources.DBus != newCfg.Sources.DBus {
		rt.logger.Warn("sources.dbus changes take effect after a restart")
	}
}

// stop shuts everything down in reverse start order.
func (rt *runtime) stop() {
	if rt.configWatcher != nil {
		rt.configWatcher.Stop()
	}
	rt.cue.Stop()
	if rt.systemd != nil {
		rt.systemd.Stop()
	}
	if rt.server != nil {
		_ = rt.server.Stop()
	}
}
