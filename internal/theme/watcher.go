package theme

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// changeDebounce collapses the write/rename burst of a single save.
const changeDebounce = 100 * time.Millisecond

// Watcher follows a user theme and the files it imports, and hands the
// rebuilt CSS to a callback whenever it changes.
type Watcher struct {
	mu     sync.RWMutex
	logger *slog.Logger

	theme    *Theme
	onChange func(css string)

	watcher *fsnotify.Watcher
	dirs    map[string]bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewWatcher creates a watcher for theme.
func NewWatcher(theme *Theme, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		logger: logger,
		theme:  theme,
	}
}

// SetChangeCallback sets the callback invoked with the new CSS. It runs on the
// watcher goroutine.
func (w *Watcher) SetChangeCallback(callback func(css string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = callback
}

// Start begins watching. Bundled themes are not watched.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}
	if w.theme == nil || w.theme.Embedded {
		w.logger.Debug("not watching bundled theme")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create theme watcher: %w", err)
	}
	w.watcher = watcher
	w.dirs = make(map[string]bool)
	if err := w.watchSources(); err != nil {
		watcher.Close()
		return err
	}

	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.running = true

	go w.watchLoop(ctx)

	w.logger.Debug("theme watcher started", "theme", w.theme.Name, "files", w.theme.Sources())
	return nil
}

// Stop stops watching and waits for the watcher goroutine.
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
	w.watcher.Close()
	w.logger.Debug("theme watcher stopped")
}

// IsRunning returns whether the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// watchSources adds the directory of every theme source not yet watched.
// Directories are watched rather than files so that editors replacing a file
// by rename keep being followed. Must be called with mu held.
func (w *Watcher) watchSources() error {
	for _, path := range w.theme.Sources() {
		dir := filepath.Dir(path)
		if w.dirs[dir] {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		w.dirs[dir] = true
	}
	return nil
}

func (w *Watcher) isSource(name string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, path := range w.theme.Sources() {
		if path == filepath.Clean(name) {
			return true
		}
	}
	return false
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.doneCh)

	debounce := time.NewTimer(changeDebounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Chmod) || !w.isSource(event.Name) {
				continue
			}
			debounce.Reset(changeDebounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("theme watcher error", "error", err)

		case <-debounce.C:
			w.rebuild()
		}
	}
}

func (w *Watcher) rebuild() {
	w.mu.Lock()
	theme := w.theme
	callback := w.onChange
	changed, err := theme.rebuild()
	if err == nil && changed {
		if werr := w.watchSources(); werr != nil {
			w.logger.Warn("failed to follow new theme imports", "error", werr)
		}
	}
	w.mu.Unlock()

	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			w.logger.Debug("theme file no longer exists", "path", theme.Path)
		} else {
			w.logger.Warn("failed to reload theme", "path", theme.Path, "error", err)
		}
		return
	}

	if changed {
		w.logger.Info("theme changed, reloading", "theme", theme.Name)
		if callback != nil {
			callback(theme.CSS)
		}
	}
}
