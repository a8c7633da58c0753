package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/adapter/input"
	"github.com/NetPLC/mb-applet-startup-monitor/internal/dbus"
	"github.com/NetPLC/mb-applet-startup-monitor/internal/launch"
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Forward launch events read from stdin",
	Long: `Read launch events from stdin, one per line, and forward them to the
daemon until EOF.

Each line is either a startup notification message or a kind and an id:

  new: ID=gedit-1 NAME="Text Editor"
  remove: ID=gedit-1
  initiated firefox-2
  canceled firefox-2

Blank lines and lines starting with # are skipped.`,
	Args: cobra.NoArgs,
	RunE: runFeed,
}

func init() {
	rootCmd.AddCommand(feedCmd)
}

func runFeed(cmd *cobra.Command, args []string) error {
	c, err := dbus.Connect()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	adapter := input.NewStdinAdapter(logger)
	sent := 0
	err = adapter.Events(ctx, func(ev launch.RawEvent) error {
		callCtx, callCancel := context.WithTimeout(ctx, callTimeout)
		defer callCancel()
		if err := c.Send(callCtx, ev.Kind, ev.ID); err != nil {
			return err
		}
		sent++
		return nil
	})
	logger.Debug("feed finished", "sent", sent)
	return err
}
