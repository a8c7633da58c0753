// Package daemon provides the control loop for startupmond.
// It owns the launch tracker and the indicator state machine, runs the
// periodic sweep, and coordinates configuration hot-reload and internal
// notifications.
package daemon
