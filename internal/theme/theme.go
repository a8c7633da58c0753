package theme

import (
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/config"
)

// importRegex matches @import "file.css"; or @import 'file.css'; or @import url("file.css");
var importRegex = regexp.MustCompile(`@import\s+(?:url\s*\(\s*)?["']([^"']+)["']\s*\)?;?`)

// Theme is a CSS theme with its imports inlined.
type Theme struct {
	Name     string // Theme name (without .css extension)
	Path     string // CSS file on disk, empty when bundled
	CSS      string // Resolved CSS
	Embedded bool   // True if the theme comes from the binary

	// files maps every on-disk file the CSS was built from, Path and its
	// imports, to its modification time when read.
	files map[string]time.Time
}

// NewTheme loads a theme from a CSS file.
func NewTheme(name, path string) (*Theme, error) {
	t := &Theme{Name: name, Path: path}
	if err := t.load(); err != nil {
		return nil, err
	}
	return t, nil
}

// NewEmbeddedTheme returns a bundled theme, or false if there is none by that
// name.
func NewEmbeddedTheme(name string) (*Theme, bool) {
	css, found := bundled(name)
	if !found || strings.HasPrefix(name, "_") {
		return nil, false
	}
	return &Theme{
		Name:     name,
		CSS:      ProcessImports(css, "", nil),
		Embedded: true,
	}, true
}

// Resolve finds a theme by name. A file in the user themes directory wins over
// a bundled theme of the same name; unknown names fall back to the default.
func Resolve(name, themesDir string) (*Theme, error) {
	if name == "" {
		name = DefaultThemeName
	}

	if themesDir != "" {
		path := filepath.Join(themesDir, name+".css")
		if _, err := os.Stat(path); err == nil {
			return NewTheme(name, path)
		}
	}

	if t, ok := NewEmbeddedTheme(name); ok {
		return t, nil
	}

	t, _ := NewEmbeddedTheme(DefaultThemeName)
	return t, nil
}

// Sources returns the on-disk files the theme was built from, sorted. It is
// empty for bundled themes.
func (t *Theme) Sources() []string {
	return slices.Sorted(maps.Keys(t.files))
}

// Reload rebuilds the theme if the theme file or any file it imports has
// changed, and reports whether the resulting CSS differs. Bundled themes
// never change.
func (t *Theme) Reload() (bool, error) {
	if t.Embedded || !t.stale() {
		return false, nil
	}
	return t.rebuild()
}

// rebuild rereads the theme unconditionally and reports whether the CSS
// changed.
func (t *Theme) rebuild() (bool, error) {
	if t.Embedded {
		return false, nil
	}
	old := t.CSS
	if err := t.load(); err != nil {
		return false, err
	}
	return old != t.CSS, nil
}

func (t *Theme) stale() bool {
	for path, modTime := range t.files {
		info, err := os.Stat(path)
		if err != nil || !info.ModTime().Equal(modTime) {
			return true
		}
	}
	return false
}

func (t *Theme) load() error {
	info, err := os.Stat(t.Path)
	if err != nil {
		return err
	}
	css, err := os.ReadFile(t.Path)
	if err != nil {
		return err
	}

	im := &importer{
		seen:  make(map[string]bool),
		files: map[string]time.Time{t.Path: info.ModTime()},
	}
	t.CSS = im.inline(string(css), filepath.Dir(t.Path))
	t.files = im.files
	return nil
}

// ProcessImports inlines @import statements, resolved relative to baseDir.
// Files that are missing on disk are looked up among the bundled partials and
// themes. The seen map breaks import cycles.
func ProcessImports(css string, baseDir string, seen map[string]bool) string {
	if seen == nil {
		seen = make(map[string]bool)
	}
	im := &importer{seen: seen}
	return im.inline(css, baseDir)
}

// importer inlines imports and records which on-disk files were read.
type importer struct {
	seen  map[string]bool
	files map[string]time.Time // nil when not recording
}

func (im *importer) inline(css, baseDir string) string {
	return importRegex.ReplaceAllStringFunc(css, func(match string) string {
		submatch := importRegex.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}
		importPath := submatch[1]

		fullPath := importPath
		if !filepath.IsAbs(importPath) {
			fullPath = filepath.Join(baseDir, importPath)
		}

		if im.seen[fullPath] {
			return "/* circular import prevented: " + importPath + " */"
		}
		im.seen[fullPath] = true

		// Bundled CSS has no directory of its own.
		if baseDir != "" || filepath.IsAbs(importPath) {
			if data, ok := im.read(fullPath); ok {
				return "/* imported: " + importPath + " */\n" + im.inline(data, filepath.Dir(fullPath))
			}
		}

		if css, found := bundled(filepath.Base(importPath)); found {
			return "/* imported (embedded): " + importPath + " */\n" + im.inline(css, "")
		}
		return "/* import failed: " + importPath + " */"
	})
}

func (im *importer) read(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	if im.files != nil {
		im.files[path] = info.ModTime()
	}
	return string(data), true
}

// ListAvailableThemes returns bundled theme names followed by user themes not
// shadowing a bundled name.
func ListAvailableThemes() []string {
	themes := BundledThemes()
	seen := make(map[string]bool, len(themes))
	for _, name := range themes {
		seen[name] = true
	}

	entries, err := os.ReadDir(config.ThemesDir())
	if err != nil {
		return themes
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".css" || strings.HasPrefix(name, "_") {
			continue
		}
		if themeName := strings.TrimSuffix(name, ".css"); !seen[themeName] {
			seen[themeName] = true
			themes = append(themes, themeName)
		}
	}
	return themes
}
