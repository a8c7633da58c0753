// Package tui provides the BubbleTea live view of outstanding launches.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/dbus"
	"github.com/NetPLC/mb-applet-startup-monitor/internal/launch"
)

// PollInterval is how often the daemon is queried.
const PollInterval = 500 * time.Millisecond

// Source is the daemon state the view polls.
type Source interface {
	Status(ctx context.Context) (dbus.Status, error)
	List(ctx context.Context) ([]launch.Record, error)
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	overdueText = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// Model is the watch view.
type Model struct {
	source Source
	now    func() time.Time

	spinner spinner.Model
	help    help.Model
	keys    KeyMap

	status   dbus.Status
	launches []launch.Record
	err      error
	loaded   bool
	width    int
}

// New creates a watch model polling source.
func New(source Source) Model {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))

	return Model{
		source:  source,
		now:     time.Now,
		spinner: s,
		help:    help.New(),
		keys:    DefaultKeyMap(),
	}
}

type stateMsg struct {
	status   dbus.Status
	launches []launch.Record
	err      error
}

type pollMsg struct{}

// Init starts polling and the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch, m.spinner.Tick)
}

func (m Model) fetch() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	status, err := m.source.Status(ctx)
	if err != nil {
		return stateMsg{err: err}
	}
	launches, err := m.source.List(ctx)
	if err != nil {
		return stateMsg{err: err}
	}
	return stateMsg{status: status, launches: launches}
}

func schedulePoll() tea.Cmd {
	return tea.Tick(PollInterval, func(time.Time) tea.Msg {
		return pollMsg{}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			return m, m.fetch
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case stateMsg:
		m.loaded = true
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
			m.launches = msg.launches
		}
		return m, schedulePoll()

	case pollMsg:
		return m, m.fetch

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the watch view.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("startupmon"))
	b.WriteString("  ")
	b.WriteString(m.headline())
	b.WriteString("\n\n")

	if m.err == nil {
		now := m.now()
		for _, r := range m.launches {
			b.WriteString(m.row(r, now))
			b.WriteString("\n")
		}
		if len(m.launches) > 0 {
			b.WriteString("\n")
		}
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) headline() string {
	switch {
	case m.err != nil:
		if errors.Is(m.err, dbus.ErrNotRunning) {
			return errorStyle.Render("daemon not running")
		}
		return errorStyle.Render("error: " + m.err.Error())
	case !m.loaded:
		return dimStyle.Render("connecting...")
	case m.status.Visible:
		return m.spinner.View() + " " + launchCount(int(m.status.Outstanding))
	default:
		return dimStyle.Render("idle")
	}
}

func (m Model) row(r launch.Record, now time.Time) string {
	var remaining string
	if r.Expired(now) {
		remaining = overdueText.Render("timing out")
	} else {
		remaining = dimStyle.Render("expires " + humanize.RelTime(r.Deadline, now, "ago", "from now"))
	}

	id := r.ID
	if m.width > 0 {
		id = truncate(id, max(m.width/2, 16))
	}
	return "  " + idStyle.Render(id) + "  " + remaining
}

func launchCount(n int) string {
	if n == 1 {
		return "1 launch outstanding"
	}
	return fmt.Sprintf("%d launches outstanding", n)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

// Run starts the watch view and blocks until the user quits.
func Run(source Source) error {
	p := tea.NewProgram(New(source), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
