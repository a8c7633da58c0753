package dbus

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsBusName   = "org.freedesktop.Notifications"
	notificationsPath      = dbus.ObjectPath("/org/freedesktop/Notifications")
	notificationsInterface = "org.freedesktop.Notifications"
)

// NotificationClient sends desktop notifications to whichever notification
// daemon owns org.freedesktop.Notifications.
type NotificationClient struct {
	conn   *dbus.Conn
	logger *slog.Logger
}

// NewNotificationClient creates a client on conn.
func NewNotificationClient(conn *dbus.Conn, logger *slog.Logger) *NotificationClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationClient{conn: conn, logger: logger}
}

// Notify sends n and returns the id assigned by the notification daemon, or 0
// when the call fails.
func (c *NotificationClient) Notify(n *DBusNotification) uint32 {
	id, err := c.Send(n)
	if err != nil {
		c.logger.Debug("desktop notification failed", "summary", n.Summary, "error", err)
		return 0
	}
	return id
}

// Send calls Notify(susssasa{sv}i) -> u.
func (c *NotificationClient) Send(n *DBusNotification) (uint32, error) {
	actions := n.Actions
	if actions == nil {
		actions = []string{}
	}
	hints := n.Hints
	if hints == nil {
		hints = map[string]dbus.Variant{}
	}

	obj := c.conn.Object(notificationsBusName, notificationsPath)
	call := obj.Call(notificationsInterface+".Notify", 0,
		n.AppName, n.ReplacesID, n.AppIcon, n.Summary, n.Body, actions, hints, n.ExpireTimeout)
	if call.Err != nil {
		return 0, fmt.Errorf("notify: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("notify reply: %w", err)
	}
	return id, nil
}
