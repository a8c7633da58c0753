package theme

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSS(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestProcessImports_NoImports(t *testing.T) {
	css := `.startup-frame { opacity: 0.5; }`
	assert.Equal(t, css, ProcessImports(css, "", nil))
}

func TestProcessImports_NestedImports(t *testing.T) {
	dir := t.TempDir()
	writeCSS(t, dir, "_grandchild.css", `.grandchild { color: blue; }`)
	writeCSS(t, dir, "_child.css", "@import \"_grandchild.css\";\n.child { color: green; }")

	result := ProcessImports("@import \"_child.css\";\n.main { color: red; }", dir, nil)

	assert.Contains(t, result, "/* imported: _child.css */")
	assert.Contains(t, result, "/* imported: _grandchild.css */")
	assert.Contains(t, result, ".grandchild")
	assert.Contains(t, result, ".main")
}

func TestProcessImports_CircularPrevention(t *testing.T) {
	dir := t.TempDir()
	writeCSS(t, dir, "_a.css", "@import \"_b.css\";\n.a { color: red; }")
	writeCSS(t, dir, "_b.css", "@import \"_a.css\";\n.b { color: blue; }")

	result := ProcessImports(`@import "_a.css";`, dir, nil)

	assert.Contains(t, result, "/* imported: _a.css */")
	assert.Contains(t, result, "/* imported: _b.css */")
	assert.Contains(t, result, "/* circular import prevented: _a.css */")
}

func TestProcessImports_MissingFile(t *testing.T) {
	result := ProcessImports(`@import "nonexistent.css";`, t.TempDir(), nil)
	assert.Contains(t, result, "/* import failed: nonexistent.css")
}

func TestProcessImports_FallbackToEmbedded(t *testing.T) {
	result := ProcessImports(`@import "outline.css";`, t.TempDir(), nil)

	assert.Contains(t, result, "/* imported (embedded): outline.css */")
	assert.Contains(t, result, "/* imported (embedded): _base.css */")
	assert.Contains(t, result, "border-radius")
}

func TestImportRegex(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`@import "file.css";`, "file.css"},
		{`@import 'file.css';`, "file.css"},
		{`@import url("file.css");`, "file.css"},
		{`@import url( "file.css" );`, "file.css"},
		{`@import "_partial.css"`, "_partial.css"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			matches := importRegex.FindStringSubmatch(tt.input)
			require.Len(t, matches, 2)
			assert.Equal(t, tt.expected, matches[1])
		})
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	writeCSS(t, dir, "outline.css", `.startup-frame { padding: 0; }`)
	writeCSS(t, dir, "mine.css", `@import "_base.css"; .startup-frame { opacity: 0.8; }`)

	tests := []struct {
		name         string
		wantName     string
		wantEmbedded bool
	}{
		{"", "default", true},
		{"default", "default", true},
		{"outline", "outline", false},
		{"mine", "mine", false},
		{"missing", "default", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th, err := Resolve(tt.name, dir)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, th.Name)
			assert.Equal(t, tt.wantEmbedded, th.Embedded)
		})
	}

	th, err := Resolve("mine", dir)
	require.NoError(t, err)
	assert.Contains(t, th.CSS, "/* imported (embedded): _base.css */")
}

func TestTheme_Reload(t *testing.T) {
	dir := t.TempDir()
	path := writeCSS(t, dir, "test.css", `.startup-frame { color: red; }`)

	th, err := NewTheme("test", path)
	require.NoError(t, err)

	changed, err := th.Reload()
	require.NoError(t, err)
	assert.False(t, changed, "unchanged file")

	writeCSS(t, dir, "_new.css", `:root { --tint: blue; }`)
	writeCSS(t, dir, "test.css", "@import \"_new.css\";\n.startup-frame { color: var(--tint); }")
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	changed, err = th.Reload()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Contains(t, th.CSS, "--tint: blue")
	assert.Equal(t, []string{filepath.Join(dir, "_new.css"), path}, th.Sources())
}

func TestTheme_ReloadOnImportChange(t *testing.T) {
	dir := t.TempDir()
	partial := writeCSS(t, dir, "_tint.css", `:root { --tint: red; }`)
	path := writeCSS(t, dir, "test.css", "@import \"_tint.css\";\n.startup-frame { color: var(--tint); }")

	th, err := NewTheme("test", path)
	require.NoError(t, err)

	writeCSS(t, dir, "_tint.css", `:root { --tint: green; }`)
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(partial, future, future))

	changed, err := th.Reload()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Contains(t, th.CSS, "--tint: green")
}

func TestTheme_ReloadEmbedded(t *testing.T) {
	th, ok := NewEmbeddedTheme("default")
	require.True(t, ok)

	changed, err := th.Reload()
	assert.NoError(t, err)
	assert.False(t, changed)
}

func TestListAvailableThemes(t *testing.T) {
	cfgHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfgHome)
	dir := filepath.Join(cfgHome, "startupmon", "themes")
	require.NoError(t, os.MkdirAll(dir, 0755))
	writeCSS(t, dir, "mine.css", `.startup-frame {}`)
	writeCSS(t, dir, "default.css", `.startup-frame {}`)
	writeCSS(t, dir, "_partial.css", `.x {}`)

	assert.Equal(t, []string{"default", "outline", "mine"}, ListAvailableThemes())
}

func waitForCSS(t *testing.T, got <-chan string, want string) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case css := <-got:
			if strings.Contains(css, want) {
				return
			}
		case <-deadline:
			t.Fatalf("no change containing %q reported", want)
		}
	}
}

func startThemeWatcher(t *testing.T, th *Theme) <-chan string {
	t.Helper()
	got := make(chan string, 8)
	w := NewWatcher(th, nil)
	w.SetChangeCallback(func(css string) { got <- css })
	require.NoError(t, w.Start(t.Context()))
	t.Cleanup(w.Stop)
	assert.True(t, w.IsRunning())
	return got
}

func TestWatcher_ReportsChanges(t *testing.T) {
	dir := t.TempDir()
	path := writeCSS(t, dir, "live.css", `.startup-frame { opacity: 1; }`)

	th, err := NewTheme("live", path)
	require.NoError(t, err)
	got := startThemeWatcher(t, th)

	tmp := writeCSS(t, dir, "live.tmp", `.startup-frame { opacity: 0.5; }`)
	require.NoError(t, os.Rename(tmp, path))

	waitForCSS(t, got, "opacity: 0.5")
}

func TestWatcher_FollowsImports(t *testing.T) {
	dir := t.TempDir()
	partials := filepath.Join(dir, "partials")
	require.NoError(t, os.MkdirAll(partials, 0755))
	partial := writeCSS(t, partials, "_tint.css", `:root { --tint: red; }`)
	path := writeCSS(t, dir, "live.css", "@import \"partials/_tint.css\";\n.startup-frame { color: var(--tint); }")

	th, err := NewTheme("live", path)
	require.NoError(t, err)
	assert.Equal(t, []string{path, partial}, th.Sources())
	got := startThemeWatcher(t, th)

	writeCSS(t, partials, "_tint.css", `:root { --tint: green; }`)

	waitForCSS(t, got, "--tint: green")
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeCSS(t, dir, "live.css", `.startup-frame {}`)

	th, err := NewTheme("live", path)
	require.NoError(t, err)
	got := startThemeWatcher(t, th)

	writeCSS(t, dir, "other.css", `.other {}`)

	select {
	case css := <-got:
		t.Fatalf("unexpected change: %s", css)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcher_IgnoresEmbedded(t *testing.T) {
	th, _ := NewEmbeddedTheme("default")
	w := NewWatcher(th, nil)

	require.NoError(t, w.Start(t.Context()))
	assert.False(t, w.IsRunning())
	w.Stop()
}
