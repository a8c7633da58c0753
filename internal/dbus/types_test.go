package dbus

import (
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/launch"
)

func TestLaunchInfo_Record(t *testing.T) {
	deadline := time.Date(2024, 3, 1, 12, 0, 20, 0, time.UTC)
	info := NewLaunchInfo(launch.Record{ID: "app-x", Deadline: deadline})

	assert.Equal(t, "app-x", info.ID)
	assert.Equal(t, deadline.UnixMilli(), info.Deadline)
	assert.True(t, deadline.Equal(info.Record().Deadline))
}

func TestUrgency(t *testing.T) {
	tests := []struct {
		name     string
		hints    map[string]dbus.Variant
		expected int
	}{
		{"no hint", nil, 1},
		{"low", map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(0))}, 0},
		{"critical", map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(2))}, 2},
		{"wrong type", map[string]dbus.Variant{"urgency": dbus.MakeVariant("high")}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &DBusNotification{Hints: tt.hints}
			assert.Equal(t, tt.expected, n.Urgency())
		})
	}
}

func TestTransient(t *testing.T) {
	n := &DBusNotification{Hints: map[string]dbus.Variant{"transient": dbus.MakeVariant(true)}}
	assert.True(t, n.Transient())

	n = &DBusNotification{}
	assert.False(t, n.Transient())
}

func TestJobEvent(t *testing.T) {
	prefixes := []string{"app-"}
	job := dbus.ObjectPath("/org/freedesktop/systemd1/job/42")

	tests := []struct {
		name   string
		sig    *dbus.Signal
		wantOK bool
		want   launch.RawEvent
	}{
		{
			name:   "job new",
			sig:    &dbus.Signal{Path: systemdPath, Name: signalJobNew, Body: []any{uint32(42), job, "app-firefox@1.service"}},
			wantOK: true,
			want:   launch.RawEvent{Kind: launch.KindInitiated, ID: "app-firefox@1.service", Source: "systemd"},
		},
		{
			name:   "job done",
			sig:    &dbus.Signal{Path: systemdPath, Name: signalJobRemoved, Body: []any{uint32(42), job, "app-firefox@1.service", "done"}},
			wantOK: true,
			want:   launch.RawEvent{Kind: launch.KindCompleted, ID: "app-firefox@1.service", Source: "systemd"},
		},
		{
			name:   "job failed",
			sig:    &dbus.Signal{Path: systemdPath, Name: signalJobRemoved, Body: []any{uint32(42), job, "app-gimp.scope", "failed"}},
			wantOK: true,
			want:   launch.RawEvent{Kind: launch.KindCanceled, ID: "app-gimp.scope", Source: "systemd"},
		},
		{
			name: "unit outside prefixes",
			sig:  &dbus.Signal{Path: systemdPath, Name: signalJobNew, Body: []any{uint32(1), job, "dbus.service"}},
		},
		{
			name: "short body",
			sig:  &dbus.Signal{Path: systemdPath, Name: signalJobRemoved, Body: []any{uint32(1), job, "app-x"}},
		},
		{
			name: "other member",
			sig:  &dbus.Signal{Path: systemdPath, Name: systemdManager + ".UnitNew", Body: []any{"app-x", job}},
		},
		{
			name: "other path",
			sig:  &dbus.Signal{Path: ObjectPath, Name: signalJobNew, Body: []any{uint32(1), job, "app-x"}},
		},
		{
			name: "nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := jobEvent(tt.sig, prefixes)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, ev)
		})
	}
}

func TestStateChanged(t *testing.T) {
	st, ok := stateChanged(&dbus.Signal{
		Path: ObjectPath,
		Name: Interface + ".StateChanged",
		Body: []any{true, uint32(3)},
	})
	assert.True(t, ok)
	assert.Equal(t, Status{Visible: true, Outstanding: 3}, st)

	_, ok = stateChanged(&dbus.Signal{Path: ObjectPath, Name: Interface + ".LaunchTimedOut", Body: []any{"x"}})
	assert.False(t, ok)
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))
	assert.ErrorIs(t, mapError(dbus.Error{Name: "org.freedesktop.DBus.Error.ServiceUnknown"}), ErrNotRunning)
	assert.ErrorIs(t, mapError(dbus.Error{Name: ErrorEmptyID}), ErrEmptyID)

	other := dbus.Error{Name: "org.freedesktop.DBus.Error.AccessDenied"}
	assert.Equal(t, other, mapError(other))
}
