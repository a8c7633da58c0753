// Package icons locates the hourglass animation frames in the icon theme.
package icons

import (
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/config"
	"github.com/NetPLC/mb-applet-startup-monitor/internal/launch"
)

// FallbackTheme is searched after the configured theme.
const FallbackTheme = "hicolor"

// contexts are the theme subdirectories searched, in order.
var contexts = []string{"apps", "status", "animations"}

// ErrNotFound is returned when a frame exists in no search directory.
var ErrNotFound = errors.New("not found in icon search path")

// FrameError reports a frame that could not be loaded.
type FrameError struct {
	Name string
	Err  error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("icon frame %s: %v", e.Name, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// Frame is one resolved animation frame.
type Frame struct {
	Name   string
	Path   string
	Width  int
	Height int
}

// FrameName returns the file name of frame k, counted from 1.
func FrameName(k int) string {
	return "hourglass-" + strconv.Itoa(k) + ".png"
}

// Resolver searches the XDG icon directories for frame files.
type Resolver struct {
	theme     string
	size      int
	dataDirs  []string
	extraDirs []string
}

// NewResolver creates a resolver for theme at the given icon size. The data
// directories default to XDG_DATA_HOME followed by XDG_DATA_DIRS.
func NewResolver(theme string, size int, extraDirs []string) *Resolver {
	dataDirs := append([]string{config.DataHome()}, config.DataDirs()...)
	return &Resolver{
		theme:     theme,
		size:      size,
		dataDirs:  dataDirs,
		extraDirs: extraDirs,
	}
}

// SetDataDirs overrides the XDG data directories searched.
func (r *Resolver) SetDataDirs(dirs []string) {
	r.dataDirs = dirs
}

// SearchPath returns the directories searched, most preferred first.
func (r *Resolver) SearchPath() []string {
	themes := []string{r.theme}
	if r.theme != FallbackTheme {
		themes = append(themes, FallbackTheme)
	}
	sizeDir := fmt.Sprintf("%dx%d", r.size, r.size)

	var dirs []string
	for _, theme := range themes {
		for _, base := range r.dataDirs {
			if base == "" {
				continue
			}
			for _, ctx := range contexts {
				dirs = append(dirs, filepath.Join(base, "icons", theme, sizeDir, ctx))
			}
		}
	}
	for _, base := range r.dataDirs {
		if base != "" {
			dirs = append(dirs, filepath.Join(base, "pixmaps"))
		}
	}
	return append(dirs, r.extraDirs...)
}

// Lookup returns the first file called name in the search path.
func (r *Resolver) Lookup(name string) (string, error) {
	for _, dir := range r.SearchPath() {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", ErrNotFound
}

// Frames resolves and validates every animation frame. The first frame that
// is missing or cannot be decoded is reported as a *FrameError.
func (r *Resolver) Frames() ([]Frame, error) {
	frames := make([]Frame, 0, launch.FrameCount)
	for k := 1; k <= launch.FrameCount; k++ {
		name := FrameName(k)

		path, err := r.Lookup(name)
		if err != nil {
			return nil, &FrameError{Name: name, Err: err}
		}

		w, h, err := decodeSize(path)
		if err != nil {
			return nil, &FrameError{Name: name, Err: err}
		}

		frames = append(frames, Frame{Name: name, Path: path, Width: w, Height: h})
	}
	return frames, nil
}

func decodeSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}
