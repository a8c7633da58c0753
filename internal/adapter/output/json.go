package output

import (
	"encoding/json"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/launch"
)

// entry is the machine-readable form of a launch.
type entry struct {
	ID        string    `json:"id" yaml:"id"`
	Deadline  time.Time `json:"deadline" yaml:"deadline"`
	Remaining string    `json:"remaining" yaml:"remaining"`
	Expired   bool      `json:"expired" yaml:"expired"`
}

func entries(launches []launch.Record, now time.Time) []entry {
	out := make([]entry, 0, len(launches))
	for _, r := range launches {
		remaining := max(r.Deadline.Sub(now), 0).Truncate(100 * time.Millisecond)
		out = append(out, entry{
			ID:        r.ID,
			Deadline:  r.Deadline,
			Remaining: remaining.String(),
			Expired:   r.Expired(now),
		})
	}
	return out
}

// JSONFormatter formats launches as a JSON array.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Format writes launches as a JSON array.
func (f *JSONFormatter) Format(w io.Writer, launches []launch.Record) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(entries(launches, f.opts.now()))
}

// YAMLFormatter formats launches as a YAML sequence.
type YAMLFormatter struct {
	opts FormatterOptions
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(opts FormatterOptions) *YAMLFormatter {
	return &YAMLFormatter{opts: opts}
}

// Format writes launches as YAML.
func (f *YAMLFormatter) Format(w io.Writer, launches []launch.Record) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(entries(launches, f.opts.now())); err != nil {
		return err
	}
	return encoder.Close()
}
