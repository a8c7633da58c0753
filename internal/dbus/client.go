package dbus

import (
	"context"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/launch"
	"github.com/NetPLC/mb-applet-startup-monitor/internal/startupinfo"
)

// Client calls a running startupmond over the session bus.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// Connect opens a private session bus connection to the daemon.
func Connect() (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return NewClient(conn), nil
}

// NewClient wraps an existing connection.
func NewClient(conn *dbus.Conn) *Client {
	return &Client{
		conn: conn,
		obj:  conn.Object(BusName, ObjectPath),
	}
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Initiated reports a launch start.
func (c *Client) Initiated(ctx context.Context, id string) error {
	return c.event(ctx, "Initiated", id)
}

// Completed reports a launch completion.
func (c *Client) Completed(ctx context.Context, id string) error {
	return c.event(ctx, "Completed", id)
}

// Canceled reports an abandoned launch.
func (c *Client) Canceled(ctx context.Context, id string) error {
	return c.event(ctx, "Canceled", id)
}

// Send dispatches a launch event by kind.
func (c *Client) Send(ctx context.Context, kind launch.Kind, id string) error {
	switch kind {
	case launch.KindInitiated:
		return c.Initiated(ctx, id)
	case launch.KindCompleted:
		return c.Completed(ctx, id)
	case launch.KindCanceled:
		return c.Canceled(ctx, id)
	default:
		return fmt.Errorf("unknown launch event kind %q", kind)
	}
}

// Broadcast forwards a startup-notification message.
func (c *Client) Broadcast(ctx context.Context, message string) error {
	return c.call(ctx, "Broadcast", message).Err
}

// Status queries the indicator state.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var st Status
	call := c.call(ctx, "Status")
	if call.Err != nil {
		return st, call.Err
	}
	if err := call.Store(&st.Visible, &st.Outstanding, &st.Frame); err != nil {
		return st, fmt.Errorf("failed to decode Status reply: %w", err)
	}
	return st, nil
}

// List returns the outstanding launches, oldest first.
func (c *Client) List(ctx context.Context) ([]launch.Record, error) {
	call := c.call(ctx, "List")
	if call.Err != nil {
		return nil, call.Err
	}

	var infos []LaunchInfo
	if err := call.Store(&infos); err != nil {
		return nil, fmt.Errorf("failed to decode List reply: %w", err)
	}

	records := make([]launch.Record, 0, len(infos))
	for _, info := range infos {
		records = append(records, info.Record())
	}
	return records, nil
}

// WatchState delivers StateChanged signals until ctx is canceled.
func (c *Client) WatchState(ctx context.Context) (<-chan Status, error) {
	if err := c.conn.AddMatchSignal(
		dbus.WithMatchObjectPath(ObjectPath),
		dbus.WithMatchInterface(Interface),
		dbus.WithMatchMember("StateChanged"),
	); err != nil {
		return nil, fmt.Errorf("failed to add match: %w", err)
	}

	signals := make(chan *dbus.Signal, 16)
	c.conn.Signal(signals)

	out := make(chan Status)
	go func() {
		defer close(out)
		defer c.conn.RemoveSignal(signals)

		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-signals:
				if !ok {
					return
				}
				st, ok := stateChanged(sig)
				if !ok {
					continue
				}
				select {
				case out <- st:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func stateChanged(sig *dbus.Signal) (Status, bool) {
	if sig.Path != ObjectPath || sig.Name != Interface+".StateChanged" || len(sig.Body) < 2 {
		return Status{}, false
	}
	visible, ok1 := sig.Body[0].(bool)
	outstanding, ok2 := sig.Body[1].(uint32)
	if !ok1 || !ok2 {
		return Status{}, false
	}
	return Status{Visible: visible, Outstanding: outstanding}, true
}

func (c *Client) event(ctx context.Context, method, id string) error {
	if id == "" {
		return ErrEmptyID
	}
	return c.call(ctx, method, id).Err
}

func (c *Client) call(ctx context.Context, method string, args ...any) *dbus.Call {
	call := c.obj.CallWithContext(ctx, Interface+"."+method, 0, args...)
	call.Err = mapError(call.Err)
	return call
}

// mapError converts well-known bus errors into package sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) {
		switch dbusErr.Name {
		case "org.freedesktop.DBus.Error.ServiceUnknown", "org.freedesktop.DBus.Error.NameHasNoOwner":
			return ErrNotRunning
		case ErrorEmptyID:
			return ErrEmptyID
		case ErrorMalformedMessage:
			return fmt.Errorf("%w: %v", startupinfo.ErrMalformedMessage, dbusErr.Body)
		}
	}
	return err
}
