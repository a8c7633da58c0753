package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/dbus"
)

var statusOpts struct {
	follow bool
}

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text    string `json:"text"`
	Alt     string `json:"alt,omitempty"`
	Tooltip string `json:"tooltip,omitempty"`
	Class   string `json:"class,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Output Waybar-compatible JSON status",
	Long: `Output the indicator state in Waybar's custom module JSON format.

This is designed to be used with Waybar's custom module:

  "custom/launching": {
    "exec": "startupmon status --follow",
    "return-type": "json",
    "on-click": "startupmon watch"
  }

The output includes:
  - text: Number of outstanding launches, empty when idle
  - alt: busy, idle or offline
  - tooltip: Human readable summary
  - class: Same as alt

With --follow a new line is printed each time the indicator appears,
disappears or the number of outstanding launches changes.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&statusOpts.follow, "follow", "f", false,
		"Keep running and print a line on every state change")
}

func runStatus(cmd *cobra.Command, args []string) error {
	c, err := dbus.Connect()
	if err != nil {
		return outputStatus(os.Stdout, offlineStatus())
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var changes <-chan dbus.Status
	if statusOpts.follow {
		// Subscribe before the first query so no change is missed in between.
		changes, err = c.WatchState(ctx)
		if err != nil {
			return err
		}
	}

	callCtx, callCancel := context.WithTimeout(ctx, callTimeout)
	st, err := c.Status(callCtx)
	callCancel()
	switch {
	case errors.Is(err, dbus.ErrNotRunning):
		if err := outputStatus(os.Stdout, offlineStatus()); err != nil {
			return err
		}
	case err != nil:
		logger.Debug("status query failed", "error", err)
		return outputStatus(os.Stdout, WaybarStatus{Alt: "error", Class: "error", Tooltip: err.Error()})
	default:
		if err := outputStatus(os.Stdout, waybarStatus(st)); err != nil {
			return err
		}
	}

	if !statusOpts.follow {
		return nil
	}
	for st := range changes {
		if err := outputStatus(os.Stdout, waybarStatus(st)); err != nil {
			return err
		}
	}
	return nil
}

// waybarStatus builds the Waybar module for a daemon status.
func waybarStatus(st dbus.Status) WaybarStatus {
	if !st.Visible && st.Outstanding == 0 {
		return WaybarStatus{
			Text:    "",
			Alt:     "idle",
			Tooltip: "No launches in progress",
			Class:   "idle",
		}
	}

	tooltip := "1 launch in progress"
	if st.Outstanding != 1 {
		tooltip = fmt.Sprintf("%d launches in progress", st.Outstanding)
	}
	return WaybarStatus{
		Text:    fmt.Sprintf("%d", st.Outstanding),
		Alt:     "busy",
		Tooltip: tooltip,
		Class:   "busy",
	}
}

func offlineStatus() WaybarStatus {
	return WaybarStatus{
		Text:    "",
		Alt:     "offline",
		Tooltip: "startupmond is not running",
		Class:   "offline",
	}
}

func outputStatus(w io.Writer, status WaybarStatus) error {
	return json.NewEncoder(w).Encode(status)
}
