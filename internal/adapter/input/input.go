// Package input reads launch events from text streams.
package input

import (
	"context"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/launch"
)

// InputAdapter produces launch events from a source.
type InputAdapter interface {
	// Name returns the adapter identifier.
	Name() string

	// Events reads the source until it is exhausted or ctx is done, calling
	// emit for each event. Lines that cannot be parsed are skipped.
	Events(ctx context.Context, emit func(launch.RawEvent) error) error
}

// AdapterError represents an adapter-related error.
type AdapterError struct {
	Source  string
	Message string
	Err     error
}

func (e *AdapterError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}
