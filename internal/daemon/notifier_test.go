package daemon

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/dbus"
)

func newTestNotifier() (*InternalNotifier, *[]*dbus.DBusNotification, *fakeClock) {
	clock := &fakeClock{t: epoch}
	n := NewInternalNotifier(nil)
	n.now = clock.Now

	var sent []*dbus.DBusNotification
	n.SetNotifyHandler(func(notification *dbus.DBusNotification) uint32 {
		sent = append(sent, notification)
		return uint32(len(sent))
	})
	return n, &sent, clock
}

func TestInternalNotifier_Notify(t *testing.T) {
	n, sent, _ := newTestNotifier()

	n.NotifyConfigError(errors.New("bad position"))

	require.Len(t, *sent, 1)
	got := (*sent)[0]
	assert.Equal(t, "startupmond", got.AppName)
	assert.Equal(t, "Configuration Error", got.Summary)
	assert.Contains(t, got.Body, "bad position")
	assert.Equal(t, "dialog-warning", got.AppIcon)
	assert.Equal(t, 1, got.Urgency())
	assert.True(t, got.Transient())
}

func TestInternalNotifier_Levels(t *testing.T) {
	n, sent, _ := newTestNotifier()

	n.NotifyConfigReloaded()
	n.NotifyFrameError(errors.New("icon frame hourglass-3.png: not found"))

	require.Len(t, *sent, 2)
	assert.Equal(t, 0, (*sent)[0].Urgency())
	assert.Equal(t, 2, (*sent)[1].Urgency())
	assert.Equal(t, "dialog-error", (*sent)[1].AppIcon)
}

func TestInternalNotifier_RateLimit(t *testing.T) {
	n, sent, clock := newTestNotifier()

	n.NotifyThemeError(errors.New("x"))
	n.NotifyThemeError(errors.New("x"))
	assert.Len(t, *sent, 1, "repeat within interval is suppressed")

	n.NotifyConfigError(errors.New("y"))
	assert.Len(t, *sent, 2, "different key is not suppressed")

	clock.Advance(5 * time.Second)
	n.NotifyThemeError(errors.New("x"))
	assert.Len(t, *sent, 3)
}

func TestInternalNotifier_DisabledAndNoHandler(t *testing.T) {
	n, sent, _ := newTestNotifier()
	n.SetEnabled(false)
	n.NotifyConfigReloaded()
	assert.Empty(t, *sent)

	bare := NewInternalNotifier(nil)
	assert.NotPanics(t, bare.NotifyConfigReloaded)
}
