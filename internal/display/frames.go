package display

import (
	"github.com/diamondburned/gotk4/pkg/gdkpixbuf/v2"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/icons"
)

// FrameSet holds the hourglass images at their source resolution and scaled
// to the indicator allocation.
type FrameSet struct {
	names  []string
	source []*gdkpixbuf.Pixbuf
	scaled []*gdkpixbuf.Pixbuf
	side   int
}

// LoadFrames decodes every resolved frame. The first frame that fails to load
// is reported as an *icons.FrameError.
func LoadFrames(frames []icons.Frame) (*FrameSet, error) {
	fs := &FrameSet{
		names:  make([]string, 0, len(frames)),
		source: make([]*gdkpixbuf.Pixbuf, 0, len(frames)),
	}
	for _, f := range frames {
		pb, err := gdkpixbuf.NewPixbufFromFile(f.Path)
		if err != nil {
			return nil, &icons.FrameError{Name: f.Name, Err: err}
		}
		fs.names = append(fs.names, f.Name)
		fs.source = append(fs.source, pb)
	}
	return fs, nil
}

// Len returns the number of frames.
func (fs *FrameSet) Len() int {
	return len(fs.source)
}

// Scale regenerates every scaled frame to fit a width x height area. Frames
// stay square.
func (fs *FrameSet) Scale(width, height int) {
	side := min(width, height)
	if side <= 0 {
		return
	}

	scaled := make([]*gdkpixbuf.Pixbuf, len(fs.source))
	for i, pb := range fs.source {
		scaled[i] = pb.ScaleSimple(side, side, gdkpixbuf.InterpBilinear)
	}
	fs.scaled = scaled
	fs.side = side
}

// Frame returns frame k, scaled when Scale has run. It returns nil when k is
// out of range.
func (fs *FrameSet) Frame(k int) *gdkpixbuf.Pixbuf {
	if k < 0 || k >= len(fs.source) {
		return nil
	}
	if fs.scaled != nil && fs.scaled[k] != nil {
		return fs.scaled[k]
	}
	return fs.source[k]
}
