package dbus

import (
	"fmt"
)

// EmitStateChanged emits the StateChanged signal.
// This signal is emitted when the indicator visibility or the number of
// outstanding launches changes.
func (s *Server) EmitStateChanged(visible bool, outstanding int) error {
	if s.conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	err := s.conn.Emit(ObjectPath, Interface+".StateChanged", visible, uint32(outstanding))
	if err != nil {
		return fmt.Errorf("failed to emit StateChanged signal: %w", err)
	}

	s.logger.Debug("emitted StateChanged signal", "visible", visible, "outstanding", outstanding)
	return nil
}

// EmitLaunchTimedOut emits the LaunchTimedOut signal for a launch reaped by
// the sweeper.
func (s *Server) EmitLaunchTimedOut(id string) error {
	if s.conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	err := s.conn.Emit(ObjectPath, Interface+".LaunchTimedOut", id)
	if err != nil {
		return fmt.Errorf("failed to emit LaunchTimedOut signal: %w", err)
	}

	s.logger.Debug("emitted LaunchTimedOut signal", "id", id)
	return nil
}
