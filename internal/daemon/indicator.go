package daemon

import "github.com/NetPLC/mb-applet-startup-monitor/internal/launch"

// Indicator drives the host surface from tracker occupancy and sweep ticks.
//
// The frame counter is never reset: it carries over across hide/show cycles.
type Indicator struct {
	surface Surface
	visible bool
	frame   int
}

// NewIndicator creates a hidden indicator on top of surface.
func NewIndicator(surface Surface) *Indicator {
	return &Indicator{surface: surface}
}

// Visible reports whether the indicator is currently shown.
func (i *Indicator) Visible() bool {
	return i.visible
}

// Frame returns the current animation frame, in [0, launch.FrameCount).
func (i *Indicator) Frame() int {
	return i.frame
}

// BecameNonEmpty shows the indicator after the first launch arrives.
func (i *Indicator) BecameNonEmpty() {
	i.surface.RequestOffset(-1)
	i.surface.Show()
	i.visible = true

	// A surface that kept its allocation across a hide does not report a new
	// size, so the scaled frames are refreshed here.
	if w, h := i.surface.Size(); w > 0 && h > 0 {
		i.surface.ScaleFrames(w, h)
	}
}

// BecameEmpty hides the indicator after the last launch is gone.
func (i *Indicator) BecameEmpty() {
	i.surface.Hide()
	i.surface.WatchEnvironment()
	i.visible = false
}

// Advance moves to the next animation frame.
func (i *Indicator) Advance() {
	i.frame = (i.frame + 1) % launch.FrameCount
}

// Repaint requests a redraw of the current frame. No-op while hidden.
func (i *Indicator) Repaint() {
	if !i.visible {
		return
	}
	i.surface.QueueRepaint()
}

// Paint composites the current frame. No-op while hidden.
func (i *Indicator) Paint() {
	if !i.visible {
		return
	}
	i.surface.Composite(i.frame)
}

// Resize rescales the frames for a new surface size. No-op while hidden.
func (i *Indicator) Resize(width, height int) {
	if !i.visible {
		return
	}
	i.surface.ScaleFrames(width, height)
}
