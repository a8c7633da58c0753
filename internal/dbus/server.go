// Package dbus exposes the launch monitor on the session bus and consumes
// launch events from other bus services.
package dbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/launch"
	"github.com/NetPLC/mb-applet-startup-monitor/internal/startupinfo"
)

// Server implements the io.github.netplc.StartupMonitor1 interface.
type Server struct {
	conn   *dbus.Conn
	logger *slog.Logger

	sink  EventSink
	state StateFunc

	// ctx is passed to the sink and canceled by Stop.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	running bool
}

// NewServer creates a server that forwards events to sink and answers
// queries from state.
func NewServer(sink EventSink, state StateFunc, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		logger: logger,
		sink:   sink,
		state:  state,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start connects to the session bus and exports the launch monitor.
func (s *Server) Start() error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return s.StartOn(conn)
}

// StartOn exports the launch monitor on an existing connection.
func (s *Server) StartOn(conn *dbus.Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}
	s.conn = conn

	if err := conn.Export(s, ObjectPath, Interface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: string(ObjectPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    Interface,
				Methods: monitorMethods(),
				Signals: monitorSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ObjectPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", BusName)
	}

	s.running = true
	s.logger.Info("D-Bus launch monitor started", "interface", Interface, "path", ObjectPath)
	return nil
}

// Stop releases the bus name.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel()
	if !s.running {
		return nil
	}
	s.running = false

	if s.conn != nil {
		if _, err := s.conn.ReleaseName(BusName); err != nil {
			s.logger.Warn("failed to release bus name", "error", err)
		}
		// Don't close the connection as it's shared (SessionBus)
	}

	s.logger.Info("D-Bus launch monitor stopped")
	return nil
}

// Initiated reports that a launch has started.
// D-Bus method: Initiated(s) -> nothing
func (s *Server) Initiated(id string) *dbus.Error {
	return s.deliver(launch.KindInitiated, id)
}

// Completed reports that a launch has finished.
// D-Bus method: Completed(s) -> nothing
func (s *Server) Completed(id string) *dbus.Error {
	return s.deliver(launch.KindCompleted, id)
}

// Canceled reports that a launch was abandoned.
// D-Bus method: Canceled(s) -> nothing
func (s *Server) Canceled(id string) *dbus.Error {
	return s.deliver(launch.KindCanceled, id)
}

// Broadcast accepts a startup-notification message. Change messages are
// accepted and ignored.
// D-Bus method: Broadcast(s) -> nothing
func (s *Server) Broadcast(message string) *dbus.Error {
	msg, err := startupinfo.Parse(message)
	if err != nil {
		s.logger.Debug("dropping startup message", "message", message, "error", err)
		return dbus.NewError(ErrorMalformedMessage, []any{err.Error()})
	}

	ev, ok := msg.Event()
	if !ok {
		s.logger.Debug("startup message has no launch meaning", "type", msg.Type, "id", msg.ID())
		return nil
	}
	s.sink(s.ctx, ev)
	return nil
}

// Status returns whether the indicator is shown, how many launches are
// outstanding and the current frame.
// D-Bus method: Status() -> (buu)
func (s *Server) Status() (bool, uint32, uint32, *dbus.Error) {
	st := s.state()
	return st.Visible, uint32(len(st.Launches)), uint32(st.Frame), nil
}

// List returns the outstanding launches, oldest first.
// D-Bus method: List() -> a(sx)
func (s *Server) List() ([]LaunchInfo, *dbus.Error) {
	st := s.state()
	out := make([]LaunchInfo, 0, len(st.Launches))
	for _, r := range st.Launches {
		out = append(out, NewLaunchInfo(r))
	}
	return out, nil
}

func (s *Server) deliver(kind launch.Kind, id string) *dbus.Error {
	if id == "" {
		s.logger.Debug("dropping launch event without id", "kind", kind)
		return dbus.NewError(ErrorEmptyID, []any{ErrEmptyID.Error()})
	}
	s.logger.Debug("launch event received", "kind", kind, "id", id)
	s.sink(s.ctx, launch.RawEvent{Kind: kind, ID: id, Source: "dbus"})
	return nil
}

func monitorMethods() []introspect.Method {
	idArg := []introspect.Arg{{Name: "id", Type: "s", Direction: "in"}}
	return []introspect.Method{
		{Name: "Initiated", Args: idArg},
		{Name: "Completed", Args: idArg},
		{Name: "Canceled", Args: idArg},
		{
			Name: "Broadcast",
			Args: []introspect.Arg{
				{Name: "message", Type: "s", Direction: "in"},
			},
		},
		{
			Name: "Status",
			Args: []introspect.Arg{
				{Name: "visible", Type: "b", Direction: "out"},
				{Name: "outstanding", Type: "u", Direction: "out"},
				{Name: "frame", Type: "u", Direction: "out"},
			},
		},
		{
			Name: "List",
			Args: []introspect.Arg{
				{Name: "launches", Type: "a(sx)", Direction: "out"},
			},
		},
	}
}

func monitorSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "StateChanged",
			Args: []introspect.Arg{
				{Name: "visible", Type: "b"},
				{Name: "outstanding", Type: "u"},
			},
		},
		{
			Name: "LaunchTimedOut",
			Args: []introspect.Arg{
				{Name: "id", Type: "s"},
			},
		},
	}
}
