package input

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/launch"
	"github.com/NetPLC/mb-applet-startup-monitor/internal/startupinfo"
)

// sourceStdin tags events read from a stream.
const sourceStdin = "stdin"

// StdinAdapter reads one event per line. A line is either a startup
// notification message ("new: ID=..." / "remove: ID=...") or a kind and an id
// separated by whitespace ("completed firefox-01HX"). Blank lines and lines
// starting with # are ignored.
type StdinAdapter struct {
	reader io.Reader
	logger *slog.Logger
}

// NewStdinAdapter creates a new StdinAdapter reading from os.Stdin.
func NewStdinAdapter(logger *slog.Logger) *StdinAdapter {
	return NewStdinAdapterWithReader(os.Stdin, logger)
}

// NewStdinAdapterWithReader creates a new StdinAdapter with a custom reader.
func NewStdinAdapterWithReader(r io.Reader, logger *slog.Logger) *StdinAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &StdinAdapter{reader: r, logger: logger}
}

// Name returns the adapter identifier.
func (a *StdinAdapter) Name() string {
	return sourceStdin
}

// Events reads lines until EOF. An error from emit stops reading and is
// returned.
func (a *StdinAdapter) Events(ctx context.Context, emit func(launch.RawEvent) error) error {
	scanner := bufio.NewScanner(a.reader)
	const maxSize = 64 * 1024
	scanner.Buffer(make([]byte, 4*1024), maxSize)

	lineNo := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lineNo++

		ev, ok := ParseLine(scanner.Text())
		if !ok {
			a.logger.Debug("skipping line", "line", lineNo)
			continue
		}
		if err := emit(ev); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return &AdapterError{
			Source:  sourceStdin,
			Message: "failed to read input",
			Err:     err,
		}
	}
	return nil
}

// ParseLine converts one input line into an event.
func ParseLine(line string) (launch.RawEvent, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return launch.RawEvent{}, false
	}

	if msg, err := startupinfo.Parse(line); err == nil {
		ev, ok := msg.Event()
		return ev, ok
	}

	fields := strings.Fields(line)
	if len(fields) != 2 {
		return launch.RawEvent{}, false
	}
	kind, ok := launch.ParseKind(fields[0])
	if !ok {
		return launch.RawEvent{}, false
	}
	return launch.RawEvent{Kind: kind, ID: fields[1], Source: sourceStdin}, true
}
