package main

import (
	"github.com/spf13/cobra"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/dbus"
	"github.com/NetPLC/mb-applet-startup-monitor/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live view of outstanding launches",
	Long: `Open a terminal view of the indicator state and the launches the
daemon is waiting on. The view keeps polling when the daemon is not
running and picks it up once it starts.

Key bindings:
  r           Refresh now
  ?           Show help
  q           Quit`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	c, err := dbus.Connect()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	return tui.Run(c)
}
