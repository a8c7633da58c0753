package audio

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/config"
)

// Cue plays the configured sound when a launch times out.
type Cue struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	player  *Player
	watcher *Watcher

	enabled bool
	path    string
}

// NewCue creates a cue from the audio section of cfg.
func NewCue(cfg *config.DaemonConfig, logger *slog.Logger) *Cue {
	if logger == nil {
		logger = slog.Default()
	}

	player := NewPlayer(logger)
	c := &Cue{
		logger:  logger,
		player:  player,
		watcher: NewWatcher(player, logger),
	}
	c.apply(cfg)
	return c
}

// Start preloads the sound and watches it for changes.
func (c *Cue) Start(ctx context.Context) error {
	c.preload()
	if err := c.watcher.Start(ctx); err != nil {
		return err
	}

	c.mu.RLock()
	c.logger.Info("audio cue ready", "enabled", c.enabled, "sound", c.path)
	c.mu.RUnlock()
	return nil
}

// Stop shuts down the watcher and the speaker.
func (c *Cue) Stop() {
	c.watcher.Stop()
	c.player.Close()
}

// PlayTimeout plays the timeout sound if the cue is enabled.
func (c *Cue) PlayTimeout() error {
	c.mu.RLock()
	enabled, path := c.enabled, c.path
	c.mu.RUnlock()

	if !enabled || path == "" {
		return nil
	}
	return c.player.Play(path)
}

// UpdateConfig applies a hot-reloaded configuration.
func (c *Cue) UpdateConfig(cfg *config.DaemonConfig) {
	c.mu.RLock()
	old := c.path
	c.mu.RUnlock()

	c.apply(cfg)
	if old != "" {
		c.watcher.Unwatch(old)
		c.player.InvalidateCache(old)
	}
	c.preload()
	c.logger.Debug("audio cue config updated")
}

func (c *Cue) apply(cfg *config.DaemonConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.enabled = cfg.Audio.Enabled
	c.path = ""
	c.player.SetVolume(float64(cfg.Audio.Volume) / 100.0)

	path := cfg.TimeoutSoundPath()
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.logger.Warn("timeout sound not found", "path", path)
		} else {
			c.logger.Warn("timeout sound unreadable", "path", path, "error", err)
		}
		return
	}
	c.path = path
}

func (c *Cue) preload() {
	c.mu.RLock()
	enabled, path := c.enabled, c.path
	c.mu.RUnlock()

	if !enabled || path == "" {
		return
	}
	if err := c.player.Preload(path); err != nil {
		c.logger.Warn("failed to preload timeout sound", "path", path, "error", err)
	}
	c.watcher.Watch(path)
}
