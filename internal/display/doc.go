// Package display is the GTK4 host surface for the launch indicator.
//
// The indicator is a small layer-shell window holding a drawing area. Frames
// are decoded with gdk-pixbuf, scaled when the allocation changes, and
// composited with cairo when the control loop answers a paint request.
// Placement comes from the [indicator] config section.
package display
