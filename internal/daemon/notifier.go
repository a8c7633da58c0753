package daemon

import (
	"log/slog"
	"sync"
	"time"

	godbus "github.com/godbus/dbus/v5"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/dbus"
)

// NotificationLevel is the severity of a daemon notification.
type NotificationLevel int

const (
	// NotificationLevelInfo maps to low urgency.
	NotificationLevelInfo NotificationLevel = iota
	// NotificationLevelWarning maps to normal urgency.
	NotificationLevelWarning
	// NotificationLevelError maps to critical urgency.
	NotificationLevelError
)

// urgency returns the freedesktop urgency byte for the level.
func (l NotificationLevel) urgency() byte {
	switch l {
	case NotificationLevelInfo:
		return 0
	case NotificationLevelError:
		return 2
	default:
		return 1
	}
}

func (l NotificationLevel) icon() string {
	switch l {
	case NotificationLevelInfo:
		return "dialog-information"
	case NotificationLevelError:
		return "dialog-error"
	default:
		return "dialog-warning"
	}
}

// notifierAppName is the application name shown by the notification daemon.
const notifierAppName = "startupmond"

// InternalNotifier raises desktop notifications about the daemon itself, such
// as a config file that failed to reload. Repeats of the same key are
// suppressed for minInterval.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger
	now    func() time.Time

	notifyHandler func(notification *dbus.DBusNotification) uint32

	lastNotifyTime map[string]time.Time
	minInterval    time.Duration

	enabled bool
}

// NewInternalNotifier creates an enabled notifier with a five second repeat
// interval.
func NewInternalNotifier(logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:         logger,
		now:            time.Now,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    5 * time.Second,
		enabled:        true,
	}
}

// SetNotifyHandler sets the function that delivers notifications, normally
// dbus.NotificationClient.Notify.
func (n *InternalNotifier) SetNotifyHandler(handler func(notification *dbus.DBusNotification) uint32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifyHandler = handler
}

// SetEnabled enables or disables notifications.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between notifications sharing a key.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify sends a notification unless one with the same key was sent within
// the minimum interval.
func (n *InternalNotifier) Notify(key, summary, body string, level NotificationLevel) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.enabled {
		return
	}
	if n.notifyHandler == nil {
		n.logger.Debug("internal notification skipped: no handler", "summary", summary)
		return
	}

	now := n.now()
	if last, ok := n.lastNotifyTime[key]; ok && now.Sub(last) < n.minInterval {
		n.logger.Debug("internal notification rate-limited", "key", key)
		return
	}
	n.lastNotifyTime[key] = now

	notification := &dbus.DBusNotification{
		AppName: notifierAppName,
		AppIcon: level.icon(),
		Summary: summary,
		Body:    body,
		Hints: map[string]godbus.Variant{
			"urgency":       godbus.MakeVariant(level.urgency()),
			"category":      godbus.MakeVariant("device"),
			"transient":     godbus.MakeVariant(true),
			"desktop-entry": godbus.MakeVariant(notifierAppName),
		},
		ExpireTimeout: 5000,
	}

	n.logger.Debug("sending internal notification", "key", key, "summary", summary)
	_ = n.notifyHandler(notification)
}

// NotifyConfigReloaded reports a successful config reload.
func (n *InternalNotifier) NotifyConfigReloaded() {
	n.Notify("config-reload", "Configuration Reloaded",
		"startupmond configuration has been reloaded.", NotificationLevelInfo)
}

// NotifyConfigError reports a config file that failed to load or validate.
func (n *InternalNotifier) NotifyConfigError(err error) {
	n.Notify("config-error", "Configuration Error",
		"Failed to reload configuration: "+err.Error(), NotificationLevelWarning)
}

// NotifyThemeError reports a theme that could not be loaded.
func (n *InternalNotifier) NotifyThemeError(err error) {
	n.Notify("theme-error", "Theme Error",
		"Failed to load theme: "+err.Error(), NotificationLevelWarning)
}

// NotifyFrameError reports indicator frames that could not be reloaded. The
// previously loaded frames stay in use.
func (n *InternalNotifier) NotifyFrameError(err error) {
	n.Notify("frame-error", "Indicator Frames Unavailable",
		err.Error()+". Keeping the previous frames.", NotificationLevelError)
}

// NotifyAudioError reports a timeout sound that failed to play.
func (n *InternalNotifier) NotifyAudioError(err error) {
	n.Notify("audio-error", "Audio Error",
		"Failed to play timeout sound: "+err.Error(), NotificationLevelWarning)
}
