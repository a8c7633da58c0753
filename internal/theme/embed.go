package theme

import (
	"embed"
	"io/fs"
	"path"
	"slices"
	"strings"
)

//go:embed themes/*.css
var bundledFS embed.FS

// DefaultThemeName is the theme used when none is configured or the
// configured one cannot be found.
const DefaultThemeName = "default"

// bundled returns a CSS file shipped in the binary. Themes are looked up by
// name ("outline"), partials by file name ("_base.css").
func bundled(name string) (string, bool) {
	if path.Ext(name) != ".css" {
		name += ".css"
	}
	data, err := bundledFS.ReadFile("themes/" + name)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// BundledThemes returns the sorted names of the themes shipped in the binary.
// Partials are not themes and are left out.
func BundledThemes() []string {
	entries, err := fs.ReadDir(bundledFS, "themes")
	if err != nil {
		return []string{DefaultThemeName}
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, "_") || path.Ext(name) != ".css" {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".css"))
	}
	slices.Sort(names)
	return names
}
