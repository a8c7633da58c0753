package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// DaemonConfig is the configuration for startupmond.
// Loaded from ~/.config/startupmon/startupmond.toml
//
// The launch timeout and the animation rate are fixed and have no setting.
type DaemonConfig struct {
	Indicator IndicatorConfig `toml:"indicator"`
	Icons     IconsConfig     `toml:"icons"`
	Theme     ThemeConfig     `toml:"theme"`
	Sources   SourcesConfig   `toml:"sources"`
	Audio     AudioConfig     `toml:"audio"`
	Log       LogConfig       `toml:"log"`
}

// IndicatorConfig contains placement of the indicator window.
type IndicatorConfig struct {
	Position string `toml:"position"` // "top-right", "bottom-center", etc.
	OffsetX  int    `toml:"offset_x"` // Pixels from screen edge
	OffsetY  int    `toml:"offset_y"` // Pixels from screen edge
	Size     int    `toml:"size"`     // Indicator edge length in pixels
	Monitor  int    `toml:"monitor"`  // 0 = compositor default, 1+ = specific monitor
}

// IconsConfig selects where the hourglass frames come from.
type IconsConfig struct {
	Theme     string   `toml:"theme"`      // Icon theme name
	ExtraDirs []string `toml:"extra_dirs"` // Searched after the theme directories
}

// ThemeConfig contains the CSS theme for the indicator window.
type ThemeConfig struct {
	Name string `toml:"name"` // Theme name without .css extension
}

// SourcesConfig selects the launch event sources.
type SourcesConfig struct {
	DBus         bool     `toml:"dbus"`          // Export the control interface on the session bus
	Systemd      bool     `toml:"systemd"`       // Follow systemd user jobs
	UnitPrefixes []string `toml:"unit_prefixes"` // Units tracked by the systemd source
}

// AudioConfig contains the optional timeout cue.
type AudioConfig struct {
	Enabled      bool   `toml:"enabled"`
	Volume       int    `toml:"volume"` // 0-100
	TimeoutSound string `toml:"timeout_sound"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"` // "debug", "info", "warn", "error"
}

// Position represents an indicator position on screen.
type Position string

const (
	PositionTopLeft      Position = "top-left"
	PositionTopRight     Position = "top-right"
	PositionTopCenter    Position = "top-center"
	PositionBottomLeft   Position = "bottom-left"
	PositionBottomRight  Position = "bottom-right"
	PositionBottomCenter Position = "bottom-center"
)

// ValidPositions returns all valid position values.
func ValidPositions() []Position {
	return []Position{
		PositionTopLeft,
		PositionTopRight,
		PositionTopCenter,
		PositionBottomLeft,
		PositionBottomRight,
		PositionBottomCenter,
	}
}

const (
	MinIndicatorSize = 16
	MaxIndicatorSize = 256
)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// DefaultDaemonConfig returns a new DaemonConfig with default values.
func DefaultDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		Indicator: IndicatorConfig{
			Position: string(PositionTopRight),
			OffsetX:  10,
			OffsetY:  10,
			Size:     32,
			Monitor:  0,
		},
		Icons: IconsConfig{
			Theme: "hicolor",
		},
		Theme: ThemeConfig{
			Name: "default",
		},
		Sources: SourcesConfig{
			DBus:         true,
			Systemd:      true,
			UnitPrefixes: []string{"app-"},
		},
		Audio: AudioConfig{
			Enabled: false,
			Volume:  80,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadDaemonConfig loads the daemon configuration from the default path.
// If the file doesn't exist, returns the default configuration.
func LoadDaemonConfig() (*DaemonConfig, error) {
	return LoadDaemonConfigFrom(DaemonConfigPath())
}

// LoadDaemonConfigFrom loads the daemon configuration from path.
func LoadDaemonConfigFrom(path string) (*DaemonConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultDaemonConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	config := DefaultDaemonConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate checks if the configuration is valid.
func (c *DaemonConfig) Validate() error {
	if !slices.Contains(ValidPositions(), Position(c.Indicator.Position)) {
		return fmt.Errorf("invalid position %q, must be one of: %v", c.Indicator.Position, ValidPositions())
	}

	if c.Indicator.Size < MinIndicatorSize || c.Indicator.Size > MaxIndicatorSize {
		return fmt.Errorf("size must be between %d and %d, got %d", MinIndicatorSize, MaxIndicatorSize, c.Indicator.Size)
	}
	if c.Indicator.Monitor < 0 {
		return fmt.Errorf("monitor must not be negative, got %d", c.Indicator.Monitor)
	}

	if strings.TrimSpace(c.Icons.Theme) == "" {
		return errors.New("icons.theme must not be empty")
	}
	if c.Theme.Name == "" {
		return errors.New("theme.name must not be empty")
	}

	if !c.Sources.DBus && !c.Sources.Systemd {
		return errors.New("at least one of sources.dbus and sources.systemd must be enabled")
	}
	if c.Sources.Systemd && len(c.Sources.UnitPrefixes) == 0 {
		return errors.New("sources.unit_prefixes must not be empty when sources.systemd is enabled")
	}

	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", c.Audio.Volume)
	}

	if _, ok := logLevels[strings.ToLower(c.Log.Level)]; !ok {
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}

	return nil
}

// SlogLevel returns the configured log level.
func (c *DaemonConfig) SlogLevel() slog.Level {
	if level, ok := logLevels[strings.ToLower(c.Log.Level)]; ok {
		return level
	}
	return slog.LevelInfo
}

// TimeoutSoundPath returns the timeout sound file with ~ expanded.
func (c *DaemonConfig) TimeoutSoundPath() string {
	return expandPath(c.Audio.TimeoutSound)
}

// IconDirs returns the extra icon directories with ~ expanded.
func (c *DaemonConfig) IconDirs() []string {
	dirs := make([]string, 0, len(c.Icons.ExtraDirs))
	for _, d := range c.Icons.ExtraDirs {
		dirs = append(dirs, expandPath(d))
	}
	return dirs
}

// Edges are the screen edges an indicator position anchors to.
type Edges struct {
	Top, Bottom, Left, Right bool
}

// Edges returns the anchors for p. Unknown positions anchor top-right.
func (p Position) Edges() Edges {
	switch p {
	case PositionTopLeft:
		return Edges{Top: true, Left: true}
	case PositionTopCenter:
		return Edges{Top: true}
	case PositionBottomLeft:
		return Edges{Bottom: true, Left: true}
	case PositionBottomRight:
		return Edges{Bottom: true, Right: true}
	case PositionBottomCenter:
		return Edges{Bottom: true}
	default:
		return Edges{Top: true, Right: true}
	}
}

// Margins returns the horizontal and vertical margins for the indicator in
// the given slot. A negative slot is the configured offset; each further slot
// moves the indicator one size step away from the anchored side edge.
func (c IndicatorConfig) Margins(slot int) (x, y int) {
	x, y = c.OffsetX, c.OffsetY
	if slot > 0 {
		x += slot * c.Size
	}
	return x, y
}
