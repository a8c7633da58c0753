package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/dbus"
)

// startupIDEnv is the variable toolkits read to complete a launch themselves.
const startupIDEnv = "DESKTOP_STARTUP_ID"

var runOpts struct {
	id   string
	wait bool
}

var runCmd = &cobra.Command{
	Use:   "run [flags] -- COMMAND [ARGS...]",
	Short: "Start a program with launch feedback",
	Long: `Report a launch, start COMMAND with DESKTOP_STARTUP_ID set and return.

Applications that implement startup notification complete the launch
themselves once their first window is mapped. Others are covered by the
daemon's timeout.

If COMMAND cannot be started the launch is canceled straight away. With
--wait, the launch is also completed when COMMAND exits.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runOpts.id, "id", "",
		"Launch id (default: generated from the command name)")
	runCmd.Flags().BoolVar(&runOpts.wait, "wait", false,
		"Wait for COMMAND and report completion when it exits")
}

func runRun(cmd *cobra.Command, args []string) error {
	id := runOpts.id
	if id == "" {
		var err error
		id, err = newLaunchID(args[0], time.Now())
		if err != nil {
			return err
		}
	}

	// The command is started even when the daemon cannot be reached.
	var c *dbus.Client
	if conn, err := dbus.Connect(); err != nil {
		logger.Warn("launch feedback unavailable", "error", err)
	} else {
		defer func() { _ = conn.Close() }()
		if err := notify(conn.Initiated, id); err != nil {
			logger.Warn("launch feedback unavailable", "error", err)
		} else {
			c = conn
		}
	}

	child := exec.Command(args[0], args[1:]...)
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr
	child.Env = withStartupID(os.Environ(), id)

	if err := child.Start(); err != nil {
		if c != nil {
			if cerr := notify(c.Canceled, id); cerr != nil {
				logger.Warn("failed to cancel launch", "id", id, "error", cerr)
			}
		}
		return fmt.Errorf("failed to start %s: %w", args[0], err)
	}
	logger.Debug("launched", "id", id, "pid", child.Process.Pid)

	if !runOpts.wait {
		return child.Process.Release()
	}

	waitErr := child.Wait()
	if c != nil {
		if err := notify(c.Completed, id); err != nil {
			logger.Warn("failed to complete launch", "id", id, "error", err)
		}
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		os.Exit(exitErr.ExitCode())
	}
	return waitErr
}

func notify(call func(context.Context, string) error, id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	return call(ctx, id)
}

// newLaunchID builds an id of the form <command>-<ulid>.
func newLaunchID(command string, now time.Time) (string, error) {
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to generate launch id: %w", err)
	}
	name := filepath.Base(command)
	name = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' {
			return '_'
		}
		return r
	}, name)
	return name + "-" + id.String(), nil
}

// withStartupID returns env with DESKTOP_STARTUP_ID replaced by id.
func withStartupID(env []string, id string) []string {
	out := make([]string, 0, len(env)+1)
	for _, kv := range env {
		if strings.HasPrefix(kv, startupIDEnv+"=") {
			continue
		}
		out = append(out, kv)
	}
	return append(out, startupIDEnv+"="+id)
}
