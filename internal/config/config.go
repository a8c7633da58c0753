// Package config handles configuration file loading and XDG path lookup.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// AppName is the directory name used under the XDG base directories.
const AppName = "startupmon"

// defaultDataDirs is the XDG_DATA_DIRS fallback used when the variable is unset.
var defaultDataDirs = []string{"/usr/local/share", "/usr/share"}

// ConfigHome returns XDG_CONFIG_HOME, or ~/.config when unset.
func ConfigHome() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return configHome
}

// ConfigDir returns the startupmon configuration directory.
func ConfigDir() string {
	return filepath.Join(ConfigHome(), AppName)
}

// DaemonConfigPath returns the path to the daemon config file.
func DaemonConfigPath() string {
	return filepath.Join(ConfigDir(), "startupmond.toml")
}

// ThemesDir returns the directory holding user CSS themes.
func ThemesDir() string {
	return filepath.Join(ConfigDir(), "themes")
}

// DataHome returns XDG_DATA_HOME, or ~/.local/share when unset.
func DataHome() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return dataHome
}

// DataDirs returns XDG_DATA_DIRS in order of preference.
func DataDirs() []string {
	env := os.Getenv("XDG_DATA_DIRS")
	if env == "" {
		return defaultDataDirs
	}

	var dirs []string
	for _, d := range strings.Split(env, ":") {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	if len(dirs) == 0 {
		return defaultDataDirs
	}
	return dirs
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
