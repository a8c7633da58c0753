package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/config"
)

func startWatcher(t *testing.T, path string) (*ConfigWatcher, chan *config.DaemonConfig, chan error) {
	t.Helper()

	reloads := make(chan *config.DaemonConfig, 4)
	errs := make(chan error, 4)

	w := NewConfigWatcher(path, nil)
	w.SetReloadCallback(func(c *config.DaemonConfig) { reloads <- c })
	w.SetErrorCallback(func(err error) { errs <- err })

	require.NoError(t, w.Start(context.Background(), config.DefaultDaemonConfig()))
	t.Cleanup(w.Stop)
	return w, reloads, errs
}

func TestConfigWatcher_ReloadsValidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "startupmond.toml")
	w, reloads, _ := startWatcher(t, path)

	require.NoError(t, os.WriteFile(path, []byte("[indicator]\nsize = 64\n"), 0600))

	select {
	case c := <-reloads:
		assert.Equal(t, 64, c.Indicator.Size)
		assert.Equal(t, c, w.GetCurrentConfig())
	case <-time.After(3 * time.Second):
		t.Fatal("no reload")
	}
}

func TestConfigWatcher_InvalidConfigKeepsCurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "startupmond.toml")
	w, reloads, errs := startWatcher(t, path)
	initial := w.GetCurrentConfig()

	require.NoError(t, os.WriteFile(path, []byte("[indicator]\nsize = 4\n"), 0600))

	select {
	case err := <-errs:
		assert.ErrorContains(t, err, "size must be between")
	case <-reloads:
		t.Fatal("invalid config was applied")
	case <-time.After(3 * time.Second):
		t.Fatal("no error reported")
	}
	assert.Same(t, initial, w.GetCurrentConfig())
}

func TestConfigWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	_, reloads, errs := startWatcher(t, filepath.Join(dir, "startupmond.toml"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600))

	select {
	case <-reloads:
		t.Fatal("unexpected reload")
	case <-errs:
		t.Fatal("unexpected error")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestConfigWatcher_StartStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "startupmond.toml")
	w := NewConfigWatcher(path, nil)

	require.NoError(t, w.Start(context.Background(), config.DefaultDaemonConfig()))
	require.NoError(t, w.Start(context.Background(), config.DefaultDaemonConfig()))
	assert.DirExists(t, filepath.Dir(path))

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Stop()
		}()
	}
	wg.Wait()
}
