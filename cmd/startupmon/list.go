package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/adapter/output"
	"github.com/NetPLC/mb-applet-startup-monitor/internal/dbus"
	"github.com/NetPLC/mb-applet-startup-monitor/internal/launch"
)

var listOpts struct {
	format   string
	template string
	index    bool
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List outstanding launches",
	Long: `List the launches the daemon is waiting on, oldest first.

Output formats:
  plain  One launch per line with its remaining time (default)
  json   JSON array
  yaml   YAML sequence
  ids    Launch ids only

The plain format accepts a Go template, for example:

  startupmon list --template '{{.ID | upper}} {{.Remaining}}'`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listOpts.format, "output", "o", string(output.FormatPlain),
		fmt.Sprintf("Output format %v", output.FormatTypes()))
	listCmd.Flags().StringVar(&listOpts.template, "template", "",
		"Go template for plain output")
	listCmd.Flags().BoolVar(&listOpts.index, "index", false,
		"Prefix plain output with a 1-based index")
}

func runList(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(listOpts.format)
	if err != nil {
		return err
	}

	var records []launch.Record
	err = withClient(func(ctx context.Context, c *dbus.Client) error {
		records, err = c.List(ctx)
		return err
	})
	if err != nil {
		return err
	}

	opts := output.DefaultFormatterOptions()
	opts.Template = listOpts.template
	opts.ShowIndex = listOpts.index
	return output.NewFormatter(format, opts).Format(os.Stdout, records)
}
