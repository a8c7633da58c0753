// Package dbus implements the io.github.netplc.StartupMonitor1 D-Bus
// interface. It provides a server that receives launch events and answers
// Status and List queries, a source that follows systemd user jobs, and the
// client used by the startupmon command.
package dbus
