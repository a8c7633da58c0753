package display

import (
	"errors"
	"log/slog"

	"github.com/diamondburned/gotk4/pkg/cairo"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/config"
	"github.com/NetPLC/mb-applet-startup-monitor/internal/daemon"
)

// ErrNoDisplay is returned by Start when GTK has no default display.
var ErrNoDisplay = errors.New("no display available")

// Manager is the GTK indicator surface. It owns the window and the scaled
// frames and forwards resize and paint requests to the control loop handler.
// Every method must be called on the GTK main thread.
type Manager struct {
	app     *gtk.Application
	config  config.IndicatorConfig
	logger  *slog.Logger
	display *gdk.Display

	layout  *LayoutManager
	window  *Window
	frames  *FrameSet
	handler daemon.Handler

	// cr is the paint target while the draw callback runs.
	cr *cairo.Context

	slot       int
	visible    bool
	watching   bool
	envChanged bool
}

var _ daemon.Surface = (*Manager)(nil)

// NewManager creates the surface for frames. Start must be called before use.
func NewManager(app *gtk.Application, cfg config.IndicatorConfig, frames *FrameSet, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		app:    app,
		config: cfg,
		logger: logger,
		frames: frames,
		slot:   -1,
	}
}

// SetHandler sets the control loop that receives resize and paint callbacks.
func (m *Manager) SetHandler(h daemon.Handler) {
	m.handler = h
}

// Start creates the hidden indicator window and begins watching monitors.
func (m *Manager) Start() error {
	m.display = gdk.DisplayGetDefault()
	if m.display == nil {
		return ErrNoDisplay
	}

	m.layout = NewLayoutManager(m.config, m.logger)
	m.window = NewWindow(m.app, m.config.Size, m.logger)
	m.window.OnDraw(m.draw)
	m.window.OnResize(func(width, height int) {
		if m.handler != nil {
			m.handler.OnResize(width, height)
		}
	})

	if monitors := m.display.Monitors(); monitors != nil {
		monitors.ConnectItemsChanged(func(_, _, _ uint) {
			m.envChanged = true
			if !m.visible {
				m.WatchEnvironment()
			}
		})
	}
	m.WatchEnvironment()

	m.logger.Info("indicator surface started", "size", m.config.Size, "position", m.config.Position)
	return nil
}

// Stop destroys the window.
func (m *Manager) Stop() {
	if m.window != nil {
		m.window.Destroy()
		m.window = nil
	}
	m.logger.Info("indicator surface stopped")
}

// Show maps the window at the current slot.
func (m *Manager) Show() {
	m.layout.Apply(m.window.GTKWindow(), m.slot)
	m.window.Present()
	m.visible = true
}

// Hide unmaps the window.
func (m *Manager) Hide() {
	m.window.Hide()
	m.visible = false
}

// RequestOffset sets the slot used on the next Show.
func (m *Manager) RequestOffset(n int) {
	m.slot = n
}

// QueueRepaint asks GTK to redraw; the draw callback calls back into the
// handler.
func (m *Manager) QueueRepaint() {
	m.window.QueueDraw()
}

// Composite paints frame k centered in the drawing area. It does nothing
// outside a draw callback.
func (m *Manager) Composite(frame int) {
	if m.cr == nil {
		return
	}
	pb := m.frames.Frame(frame)
	if pb == nil {
		return
	}

	width, height := m.window.Size()
	x := float64(width-pb.Width()) / 2
	y := float64(height-pb.Height()) / 2

	gdk.CairoSetSourcePixbuf(m.cr, pb, x, y)
	m.cr.Paint()
}

// ScaleFrames rescales every frame to fit width x height.
func (m *Manager) ScaleFrames(width, height int) {
	m.frames.Scale(width, height)
}

// Size returns the drawing area allocation.
func (m *Manager) Size() (int, int) {
	if m.window == nil {
		return 0, 0
	}
	return m.window.Size()
}

// WatchEnvironment applies monitor changes that arrived while the indicator
// was shown and re-arms change detection.
func (m *Manager) WatchEnvironment() {
	if m.watching && !m.envChanged {
		return
	}
	if m.envChanged {
		m.layout.HandleMonitorChange()
		m.envChanged = false
	}
	m.layout.Apply(m.window.GTKWindow(), m.slot)
	m.watching = true
}

// ReplaceFrames swaps in a newly loaded frame set, scaled to the current
// allocation.
func (m *Manager) ReplaceFrames(frames *FrameSet) {
	m.frames = frames
	if w, h := m.Size(); w > 0 && h > 0 {
		m.frames.Scale(w, h)
	}
	if m.visible {
		m.window.QueueDraw()
	}
	m.logger.Info("indicator frames replaced", "count", frames.Len())
}

// UpdateConfig applies new placement and size settings.
func (m *Manager) UpdateConfig(cfg config.IndicatorConfig) {
	m.config = cfg
	m.layout.UpdateConfig(cfg)
	m.window.SetSize(cfg.Size)
	m.layout.Apply(m.window.GTKWindow(), m.slot)
}

func (m *Manager) draw(cr *cairo.Context, _, _ int) {
	if m.handler == nil {
		return
	}
	m.cr = cr
	m.handler.OnPaint()
	m.cr = nil
}
