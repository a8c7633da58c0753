package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/dbus"
	"github.com/NetPLC/mb-applet-startup-monitor/internal/launch"
)

var initiatedCmd = &cobra.Command{
	Use:   "initiated ID",
	Short: "Report that a launch has started",
	Args:  cobra.ExactArgs(1),
	RunE:  sendEvent(launch.KindInitiated),
}

var completedCmd = &cobra.Command{
	Use:   "completed ID",
	Short: "Report that a launch has finished",
	Long: `Report that a launch has finished. An id the daemon does not know
is ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: sendEvent(launch.KindCompleted),
}

var canceledCmd = &cobra.Command{
	Use:   "canceled ID",
	Short: "Report that a launch was abandoned",
	Args:  cobra.ExactArgs(1),
	RunE:  sendEvent(launch.KindCanceled),
}

var sendCmd = &cobra.Command{
	Use:   "send MESSAGE",
	Short: "Forward a startup notification message",
	Long: `Forward a raw startup notification message to the daemon.

  startupmon send 'new: ID=gedit-1 NAME="Text Editor"'
  startupmon send 'remove: ID=gedit-1'

'change:' messages are accepted and ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *dbus.Client) error {
			return c.Broadcast(ctx, args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(initiatedCmd, completedCmd, canceledCmd, sendCmd)
}

func sendEvent(kind launch.Kind) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *dbus.Client) error {
			if err := c.Send(ctx, kind, args[0]); err != nil {
				return err
			}
			logger.Debug("event sent", "kind", kind, "id", args[0])
			return nil
		})
	}
}
