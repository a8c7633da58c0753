// Package main is the entry point for the startupmond launch monitor daemon.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/config"
	"github.com/NetPLC/mb-applet-startup-monitor/internal/icons"
)

const (
	appID   = "io.github.netplc.startupmond"
	appName = "startupmond"
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: ~/.config/startupmon/startupmond.toml)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	headless := flag.Bool("headless", false, "Run without an indicator window, logging indicator changes instead")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(appName, "version", version)
		os.Exit(0)
	}

	path := *configPath
	if path == "" {
		path = config.DaemonConfigPath()
	}

	cfg, err := config.LoadDaemonConfigFrom(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "startupmond:", err)
		os.Exit(1)
	}

	// The level is kept in a LevelVar so config reloads can change it.
	level := new(slog.LevelVar)
	level.Set(cfg.SlogLevel())
	if *debug {
		level.Set(slog.LevelDebug)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	resolver := icons.NewResolver(cfg.Icons.Theme, cfg.Indicator.Size, cfg.IconDirs())
	frames, err := resolver.Frames()
	if err != nil {
		logFrameError(logger, err)
		os.Exit(1)
	}
	logger.Debug("indicator frames resolved", "count", len(frames), "theme", cfg.Icons.Theme)

	rt := newRuntime(cfg, path, logger, level, *debug)

	if *headless {
		os.Exit(runHeadless(rt))
	}
	os.Exit(runDaemon(rt, frames))
}

// logFrameError reports which hourglass frame could not be loaded.
func logFrameError(logger *slog.Logger, err error) {
	var fe *icons.FrameError
	if errors.As(err, &fe) {
		logger.Error("failed to load indicator frame", "frame", fe.Name, "error", fe.Err)
		return
	}
	logger.Error("failed to load indicator frames", "error", err)
}
