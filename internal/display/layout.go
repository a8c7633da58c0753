package display

import (
	"log/slog"
	"unsafe"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/config"
)

// LayoutManager places the indicator window with layer-shell anchors and
// picks its monitor.
type LayoutManager struct {
	config  config.IndicatorConfig
	display *gdk.Display
	logger  *slog.Logger
}

// NewLayoutManager creates a layout manager for the default display.
func NewLayoutManager(cfg config.IndicatorConfig, logger *slog.Logger) *LayoutManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &LayoutManager{
		config:  cfg,
		display: gdk.DisplayGetDefault(),
		logger:  logger,
	}
}

// UpdateConfig replaces the placement settings. Call Apply to take effect.
func (l *LayoutManager) UpdateConfig(cfg config.IndicatorConfig) {
	l.config = cfg
}

// Apply anchors window for the given slot and moves it to the configured
// monitor.
func (l *LayoutManager) Apply(window *gtk.Window, slot int) {
	edges := config.Position(l.config.Position).Edges()
	x, y := l.config.Margins(slot)

	layershell.SetAnchor(window, layershell.LayerShellEdgeTop, edges.Top)
	layershell.SetAnchor(window, layershell.LayerShellEdgeBottom, edges.Bottom)
	layershell.SetAnchor(window, layershell.LayerShellEdgeLeft, edges.Left)
	layershell.SetAnchor(window, layershell.LayerShellEdgeRight, edges.Right)

	if edges.Top {
		layershell.SetMargin(window, layershell.LayerShellEdgeTop, y)
	}
	if edges.Bottom {
		layershell.SetMargin(window, layershell.LayerShellEdgeBottom, y)
	}
	if edges.Left {
		layershell.SetMargin(window, layershell.LayerShellEdgeLeft, x)
	}
	if edges.Right {
		layershell.SetMargin(window, layershell.LayerShellEdgeRight, x)
	}

	if monitor := l.GetMonitor(); monitor != nil {
		layershell.SetMonitor(window, monitor)
	}
}

// GetMonitor returns the configured monitor, or nil to let the compositor
// choose. Monitor numbers are 1-indexed; 0 means the compositor default.
func (l *LayoutManager) GetMonitor() *gdk.Monitor {
	if l.display == nil || l.config.Monitor == 0 {
		return nil
	}

	monitors := l.display.Monitors()
	if monitors == nil {
		l.logger.Warn("no monitors list available")
		return nil
	}

	index := uint(l.config.Monitor - 1)
	if index >= monitors.NItems() {
		l.logger.Warn("configured monitor not available, using first",
			"configured", l.config.Monitor,
			"available", monitors.NItems(),
		)
		index = 0
		if monitors.NItems() == 0 {
			return nil
		}
	}

	return wrapMonitor(monitors.Item(index))
}

// wrapMonitor wraps a glib.Object as a gdk.Monitor. gotk4 does not export its
// own wrapper, but gdk.Monitor only embeds the object pointer.
func wrapMonitor(obj *glib.Object) *gdk.Monitor {
	if obj == nil {
		return nil
	}
	type monitor struct {
		_ [0]func()
		*glib.Object
	}
	m := &monitor{Object: obj}
	return (*gdk.Monitor)(unsafe.Pointer(m))
}

// HandleMonitorChange refreshes the display after monitors are added or
// removed.
func (l *LayoutManager) HandleMonitorChange() {
	l.display = gdk.DisplayGetDefault()
	if l.display == nil {
		l.logger.Warn("no display available after monitor change")
		return
	}
	if monitors := l.display.Monitors(); monitors != nil {
		l.logger.Info("monitor configuration changed", "count", monitors.NItems())
	}
}
