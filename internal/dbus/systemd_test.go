package dbus

import (
	"context"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/launch"
)

// startDetached runs the delivery goroutine of s on a hand-fed signal channel.
func startDetached(ctx context.Context, s *SystemdSource) chan *dbus.Signal {
	signals := make(chan *dbus.Signal, 4)
	s.mu.Lock()
	s.signals = signals
	s.run(ctx)
	s.mu.Unlock()
	return signals
}

func jobNew(unit string) *dbus.Signal {
	job := dbus.ObjectPath("/org/freedesktop/systemd1/job/7")
	return &dbus.Signal{Path: systemdPath, Name: signalJobNew, Body: []any{uint32(7), job, unit}}
}

func TestSystemdSource_DeliversMatchingJobs(t *testing.T) {
	got := make(chan launch.RawEvent, 4)
	s := NewSystemdSource([]string{"app-"}, func(_ context.Context, ev launch.RawEvent) {
		got <- ev
	}, nil)

	signals := startDetached(context.Background(), s)
	signals <- jobNew("dbus.service")
	signals <- jobNew("app-gedit.scope")

	select {
	case ev := <-got:
		assert.Equal(t, launch.RawEvent{Kind: launch.KindInitiated, ID: "app-gedit.scope", Source: "systemd"}, ev)
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
	}

	s.Stop()
	assert.Empty(t, got)
}

// The control loop restarts the source on reload while the source may be
// blocked handing an event to that same loop. Stop must not wait for the
// loop to drain.
func TestSystemdSource_StopAbandonsBlockedDelivery(t *testing.T) {
	queue := make(chan launch.RawEvent, 1)
	queue <- launch.RawEvent{Kind: launch.KindInitiated, ID: "app-earlier.scope"}

	entered := make(chan struct{})
	abandoned := make(chan error, 1)
	s := NewSystemdSource([]string{"app-"}, func(ctx context.Context, ev launch.RawEvent) {
		close(entered)
		select {
		case queue <- ev:
		case <-ctx.Done():
			abandoned <- ctx.Err()
		}
	}, nil)

	signals := startDetached(context.Background(), s)
	signals <- jobNew("app-firefox.scope")

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("sink never called")
	}

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked on a full queue")
	}
	require.ErrorIs(t, <-abandoned, context.Canceled)
	assert.Len(t, queue, 1)
}

func TestSystemdSource_StopIdempotent(t *testing.T) {
	s := NewSystemdSource(nil, func(context.Context, launch.RawEvent) {}, nil)
	s.Stop()

	startDetached(context.Background(), s)
	s.Stop()
	s.Stop()
}
