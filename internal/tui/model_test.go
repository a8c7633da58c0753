package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/dbus"
	"github.com/NetPLC/mb-applet-startup-monitor/internal/launch"
)

type fakeSource struct {
	status   dbus.Status
	launches []launch.Record
	err      error
}

func (f *fakeSource) Status(context.Context) (dbus.Status, error) {
	return f.status, f.err
}

func (f *fakeSource) List(context.Context) ([]launch.Record, error) {
	return f.launches, f.err
}

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestModel(src Source) Model {
	m := New(src)
	m.now = func() time.Time { return now }
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	got, ok := next.(Model)
	require.True(t, ok)
	return got, cmd
}

func TestModel_FetchAndRender(t *testing.T) {
	src := &fakeSource{
		status: dbus.Status{Visible: true, Outstanding: 2, Frame: 3},
		launches: []launch.Record{
			{ID: "firefox-1", Deadline: now.Add(12 * time.Second)},
			{ID: "gimp-2", Deadline: now.Add(-time.Second)},
		},
	}
	m := newTestModel(src)

	msg := m.fetch()
	m, cmd := update(t, m, msg)
	assert.NotNil(t, cmd, "a poll is scheduled after each fetch")

	view := m.View()
	assert.Contains(t, view, "2 launches outstanding")
	assert.Contains(t, view, "firefox-1")
	assert.Contains(t, view, "12 seconds from now")
	assert.Contains(t, view, "gimp-2")
	assert.Contains(t, view, "timing out")
}

func TestModel_Idle(t *testing.T) {
	m := newTestModel(&fakeSource{})
	m, _ = update(t, m, m.fetch())

	assert.Contains(t, m.View(), "idle")
}

func TestModel_NotRunning(t *testing.T) {
	m := newTestModel(&fakeSource{err: dbus.ErrNotRunning})
	m, _ = update(t, m, m.fetch())

	assert.Contains(t, m.View(), "daemon not running")
}

func TestModel_OtherErrorKeepsLastState(t *testing.T) {
	src := &fakeSource{status: dbus.Status{Visible: true, Outstanding: 1}, launches: []launch.Record{{ID: "a", Deadline: now}}}
	m := newTestModel(src)
	m, _ = update(t, m, m.fetch())

	src.err = errors.New("timeout")
	m, _ = update(t, m, m.fetch())

	assert.Contains(t, m.View(), "error: timeout")
	assert.Len(t, m.launches, 1)
}

func TestModel_ConnectingBeforeFirstFetch(t *testing.T) {
	m := newTestModel(&fakeSource{})
	assert.Contains(t, m.View(), "connecting")
}

func TestModel_Keys(t *testing.T) {
	m := newTestModel(&fakeSource{})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	assert.Nil(t, cmd)
	assert.True(t, m.help.ShowAll)

	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	_, ok := cmd().(stateMsg)
	assert.True(t, ok)

	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func TestLaunchCount(t *testing.T) {
	assert.Equal(t, "1 launch outstanding", launchCount(1))
	assert.Equal(t, "3 launches outstanding", launchCount(3))
}
