package display

import (
	"log/slog"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/cairo"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

const (
	// windowNamespace identifies the indicator to the compositor.
	windowNamespace = "startupmon"

	windowClass = "startup-indicator"
	frameClass  = "startup-frame"
)

// Window is the layer-shell window the hourglass is drawn into.
type Window struct {
	window *gtk.Window
	area   *gtk.DrawingArea
	logger *slog.Logger

	onDraw   func(cr *cairo.Context, width, height int)
	onResize func(width, height int)
}

// NewWindow creates a hidden, undecorated indicator window of the given edge
// length. Must be called on the GTK main thread.
func NewWindow(app *gtk.Application, size int, logger *slog.Logger) *Window {
	if logger == nil {
		logger = slog.Default()
	}

	w := &Window{logger: logger}

	w.window = gtk.NewWindow()
	w.window.SetApplication(app)
	w.window.SetDecorated(false)
	w.window.SetResizable(false)
	w.window.SetDefaultSize(size, size)
	w.window.AddCSSClass(windowClass)

	layershell.InitForWindow(w.window)
	layershell.SetLayer(w.window, layershell.LayerShellLayerOverlay)
	layershell.SetExclusiveZone(w.window, 0)
	layershell.SetKeyboardMode(w.window, layershell.LayerShellKeyboardModeNone)
	layershell.SetNamespace(w.window, windowNamespace)

	w.area = gtk.NewDrawingArea()
	w.area.AddCSSClass(frameClass)
	w.area.SetContentWidth(size)
	w.area.SetContentHeight(size)
	w.area.SetDrawFunc(func(_ *gtk.DrawingArea, cr *cairo.Context, width, height int) {
		if w.onDraw != nil {
			w.onDraw(cr, width, height)
		}
	})
	w.area.ConnectResize(func(width, height int) {
		if w.onResize != nil {
			w.onResize(width, height)
		}
	})
	w.window.SetChild(w.area)

	return w
}

// OnDraw sets the paint callback. cr is only valid during the call.
func (w *Window) OnDraw(cb func(cr *cairo.Context, width, height int)) {
	w.onDraw = cb
}

// OnResize sets the callback for size allocation changes.
func (w *Window) OnResize(cb func(width, height int)) {
	w.onResize = cb
}

// GTKWindow returns the underlying window for layout.
func (w *Window) GTKWindow() *gtk.Window {
	return w.window
}

// Present maps the window.
func (w *Window) Present() {
	w.window.Present()
}

// Hide unmaps the window.
func (w *Window) Hide() {
	w.window.SetVisible(false)
}

// SetSize changes the requested edge length.
func (w *Window) SetSize(size int) {
	w.area.SetContentWidth(size)
	w.area.SetContentHeight(size)
	w.window.SetDefaultSize(size, size)
}

// QueueDraw schedules a paint of the drawing area.
func (w *Window) QueueDraw() {
	w.area.QueueDraw()
}

// Size returns the drawing area allocation, zero before the first map.
func (w *Window) Size() (int, int) {
	return w.area.Width(), w.area.Height()
}

// Destroy closes the window.
func (w *Window) Destroy() {
	w.window.Destroy()
}
