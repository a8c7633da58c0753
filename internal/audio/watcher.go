package audio

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Watcher polls sound files and drops the player's decoded copy when one is
// replaced on disk.
type Watcher struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	player   *Player
	interval time.Duration

	modTimes map[string]time.Time

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewWatcher creates a watcher that invalidates entries in player.
func NewWatcher(player *Player, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		logger:   logger,
		player:   player,
		interval: 2 * time.Second,
		modTimes: make(map[string]time.Time),
	}
}

// SetPollInterval sets how often watched files are checked.
func (w *Watcher) SetPollInterval(interval time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.interval = interval
}

// Watch adds path to the watch list.
func (w *Watcher) Watch(path string) {
	if path == "" {
		return
	}

	var mod time.Time
	if info, err := os.Stat(path); err == nil {
		mod = info.ModTime()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.modTimes[path] = mod
}

// Unwatch removes path from the watch list.
func (w *Watcher) Unwatch(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.modTimes, path)
}

// Watched reports whether path is on the watch list.
func (w *Watcher) Watched(path string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.modTimes[path]
	return ok
}

// Start begins polling.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	interval := w.interval
	w.mu.Unlock()

	go w.watchLoop(ctx, interval)

	w.logger.Debug("sound watcher started", "interval", interval)
	return nil
}

// Stop stops polling and waits for the watcher goroutine.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh
	w.logger.Debug("sound watcher stopped")
}

// IsRunning returns whether the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

func (w *Watcher) watchLoop(ctx context.Context, interval time.Duration) {
	defer close(w.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

// poll returns the paths whose modification time moved forward.
func (w *Watcher) poll() []string {
	w.mu.Lock()
	var changed []string
	for path, last := range w.modTimes {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.ModTime().After(last) {
			w.modTimes[path] = info.ModTime()
			changed = append(changed, path)
		}
	}
	w.mu.Unlock()

	for _, path := range changed {
		w.logger.Debug("sound file changed, invalidating cache", "path", path)
		if w.player != nil {
			w.player.InvalidateCache(path)
		}
	}
	return changed
}
