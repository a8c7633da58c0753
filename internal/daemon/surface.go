package daemon

import "github.com/NetPLC/mb-applet-startup-monitor/internal/launch"

// Surface is the host-provided indicator window.
//
// All methods are invoked from the control loop. Paint requests are
// asynchronous: QueueRepaint asks the host to redraw, and the host answers by
// calling Handler.OnPaint, during which Composite may be called.
type Surface interface {
	// Show makes the indicator visible.
	Show()
	// Hide removes the indicator from screen.
	Hide()
	// RequestOffset asks the host to place the indicator; -1 means the host's
	// default slot.
	RequestOffset(n int)
	// QueueRepaint schedules a paint.
	QueueRepaint()
	// Composite draws the given scaled frame over the current background and
	// presents it. Only called while painting.
	Composite(frame int)
	// ScaleFrames regenerates every scaled frame image for the given size.
	ScaleFrames(width, height int)
	// Size returns the current surface size, zero when not yet allocated.
	Size() (width, height int)
	// WatchEnvironment re-arms detection of monitor and theme changes after
	// the indicator has been hidden.
	WatchEnvironment()
}

// Handler is the set of callbacks the host delivers to the control loop. The
// host must invoke them one at a time from a single goroutine.
type Handler interface {
	OnExternalEvent(ev launch.RawEvent)
	OnTick()
	OnResize(width, height int)
	OnPaint()
}
