package output

import (
	"fmt"
	"io"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/launch"
)

// IDsFormatter outputs just the launch ids, one per line, for piping into
// startupmon completed or canceled.
type IDsFormatter struct{}

// NewIDsFormatter creates a new IDs formatter.
func NewIDsFormatter() *IDsFormatter {
	return &IDsFormatter{}
}

// Format writes launch ids to the writer, one per line.
func (f *IDsFormatter) Format(w io.Writer, launches []launch.Record) error {
	for _, r := range launches {
		if _, err := fmt.Fprintln(w, r.ID); err != nil {
			return err
		}
	}
	return nil
}
