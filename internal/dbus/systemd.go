package dbus

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/launch"
)

const (
	systemdBusName    = "org.freedesktop.systemd1"
	systemdPath       = dbus.ObjectPath("/org/freedesktop/systemd1")
	systemdManager    = "org.freedesktop.systemd1.Manager"
	signalJobNew      = systemdManager + ".JobNew"
	signalJobRemoved  = systemdManager + ".JobRemoved"
	jobResultDone     = "done"
	systemdSourceName = "systemd"
)

// SystemdSource follows the systemd user manager and turns jobs for
// application units into launch events. The unit name is the launch id.
type SystemdSource struct {
	conn     *dbus.Conn
	logger   *slog.Logger
	prefixes []string
	sink     EventSink

	mu      sync.Mutex
	signals chan *dbus.Signal
	cancel  context.CancelFunc
	doneCh  chan struct{}
	running bool
}

// NewSystemdSource creates a source tracking units whose names start with one
// of prefixes.
func NewSystemdSource(prefixes []string, sink EventSink, logger *slog.Logger) *SystemdSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &SystemdSource{
		logger:   logger,
		prefixes: prefixes,
		sink:     sink,
	}
}

// Start subscribes to the user manager's job signals.
func (s *SystemdSource) Start(ctx context.Context) error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return s.StartOn(ctx, conn)
}

// StartOn subscribes using an existing connection.
func (s *SystemdSource) StartOn(ctx context.Context, conn *dbus.Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	s.conn = conn

	for _, member := range []string{"JobNew", "JobRemoved"} {
		if err := conn.AddMatchSignal(
			dbus.WithMatchObjectPath(systemdPath),
			dbus.WithMatchInterface(systemdManager),
			dbus.WithMatchMember(member),
		); err != nil {
			return fmt.Errorf("failed to add match for %s: %w", member, err)
		}
	}

	// The manager only broadcasts job signals to subscribed clients.
	if err := conn.Object(systemdBusName, systemdPath).Call(systemdManager+".Subscribe", 0).Err; err != nil {
		return fmt.Errorf("failed to subscribe to systemd user manager: %w", err)
	}

	s.signals = make(chan *dbus.Signal, 64)
	conn.Signal(s.signals)
	s.run(ctx)

	s.logger.Info("following systemd user jobs", "prefixes", s.prefixes)
	return nil
}

// run starts the delivery goroutine. Must be called with mu held.
func (s *SystemdSource) run(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.doneCh = make(chan struct{})
	s.running = true
	go s.processSignals(ctx)
}

// Stop stops delivering events. A delivery blocked in the sink is abandoned,
// so Stop may be called from the goroutine that drains the sink.
func (s *SystemdSource) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	if s.conn != nil {
		s.conn.RemoveSignal(s.signals)
	}
	s.cancel()
	s.mu.Unlock()

	<-s.doneCh
	s.logger.Debug("systemd source stopped")
}

func (s *SystemdSource) processSignals(ctx context.Context) {
	defer close(s.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-s.signals:
			if !ok {
				return
			}
			if ev, ok := jobEvent(sig, s.prefixes); ok {
				s.logger.Debug("systemd job event", "kind", ev.Kind, "unit", ev.ID)
				s.sink(ctx, ev)
			}
		}
	}
}

// jobEvent maps a systemd job signal onto a launch event.
//
//	JobNew(u id, o job, s unit)
//	JobRemoved(u id, o job, s unit, s result)
func jobEvent(sig *dbus.Signal, prefixes []string) (launch.RawEvent, bool) {
	if sig == nil || sig.Path != systemdPath {
		return launch.RawEvent{}, false
	}

	var unit string
	var kind launch.Kind

	switch sig.Name {
	case signalJobNew:
		if len(sig.Body) < 3 {
			return launch.RawEvent{}, false
		}
		unit, _ = sig.Body[2].(string)
		kind = launch.KindInitiated
	case signalJobRemoved:
		if len(sig.Body) < 4 {
			return launch.RawEvent{}, false
		}
		unit, _ = sig.Body[2].(string)
		result, _ := sig.Body[3].(string)
		kind = launch.KindCanceled
		if result == jobResultDone {
			kind = launch.KindCompleted
		}
	default:
		return launch.RawEvent{}, false
	}

	if unit == "" || !hasAnyPrefix(unit, prefixes) {
		return launch.RawEvent{}, false
	}
	return launch.RawEvent{Kind: kind, ID: unit, Source: systemdSourceName}, true
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
