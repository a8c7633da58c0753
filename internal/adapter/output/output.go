// Package output renders outstanding launches for the command line.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/launch"
)

// Formatter formats launches for output.
type Formatter interface {
	// Format writes formatted launches to the writer.
	Format(w io.Writer, launches []launch.Record) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatPlain FormatType = "plain"
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
	FormatIDs   FormatType = "ids"
)

// FormatTypes returns all supported format names.
func FormatTypes() []FormatType {
	return []FormatType{FormatPlain, FormatJSON, FormatYAML, FormatIDs}
}

// ParseFormat returns the format named s, case-insensitively.
func ParseFormat(s string) (FormatType, error) {
	f := FormatType(strings.ToLower(s))
	switch f {
	case FormatPlain, FormatJSON, FormatYAML, FormatIDs:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatYAML:
		return NewYAMLFormatter(opts)
	case FormatIDs:
		return NewIDsFormatter()
	default:
		return NewPlainFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template  string           // Custom template for plain format
	ShowIndex bool             // Show 1-based index prefix
	Now       func() time.Time // Reference time for relative deadlines
}

// DefaultFormatterOptions returns defaults for plain output.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		ShowIndex: false,
		Now:       time.Now,
	}
}

func (o FormatterOptions) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}
