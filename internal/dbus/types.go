package dbus

import (
	"context"
	"errors"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/launch"
)

const (
	// Interface is the launch monitor interface name.
	Interface = "io.github.netplc.StartupMonitor1"
	// ObjectPath is the launch monitor object path.
	ObjectPath = dbus.ObjectPath("/io/github/netplc/StartupMonitor1")
	// BusName is the bus name claimed by startupmond.
	BusName = "io.github.netplc.StartupMonitor1"

	// ErrorEmptyID is the D-Bus error name for calls without a launch id.
	ErrorEmptyID = Interface + ".Error.EmptyID"
	// ErrorMalformedMessage is the D-Bus error name for bad Broadcast text.
	ErrorMalformedMessage = Interface + ".Error.MalformedMessage"
)

var (
	// ErrNotRunning is returned by the client when no daemon owns BusName.
	ErrNotRunning = errors.New("startupmond is not running")
	// ErrEmptyID is returned for launch events without an id.
	ErrEmptyID = errors.New("launch id must not be empty")
)

// EventSink receives launch events from the bus. Implementations hand the
// event over to the control loop and must give up once ctx is done; ctx is
// canceled when the source delivering the event stops.
type EventSink func(ctx context.Context, ev launch.RawEvent)

// State is the daemon state exposed over the bus.
type State struct {
	Visible  bool
	Frame    int
	Launches []launch.Record
}

// StateFunc returns the current daemon state. It is called from D-Bus
// goroutines.
type StateFunc func() State

// LaunchInfo is the wire form of one outstanding launch, signature (sx).
type LaunchInfo struct {
	ID       string
	Deadline int64 // Unix milliseconds
}

// NewLaunchInfo converts a record to its wire form.
func NewLaunchInfo(r launch.Record) LaunchInfo {
	return LaunchInfo{ID: r.ID, Deadline: r.Deadline.UnixMilli()}
}

// Record converts the wire form back to a record.
func (l LaunchInfo) Record() launch.Record {
	return launch.Record{ID: l.ID, Deadline: time.UnixMilli(l.Deadline)}
}

// Status is the reply of the Status method.
type Status struct {
	Visible     bool   `json:"visible" yaml:"visible"`
	Outstanding uint32 `json:"outstanding" yaml:"outstanding"`
	Frame       uint32 `json:"frame" yaml:"frame"`
}

// DBusNotification is an org.freedesktop.Notifications.Notify call.
type DBusNotification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// Urgency extracts the urgency hint from the notification.
// Returns 1 (normal) if not specified.
func (n *DBusNotification) Urgency() int {
	if v, ok := n.Hints["urgency"]; ok {
		if b, ok := v.Value().(byte); ok {
			return int(b)
		}
	}
	return 1
}

// Transient returns true if the transient hint is set.
func (n *DBusNotification) Transient() bool {
	if v, ok := n.Hints["transient"]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}
