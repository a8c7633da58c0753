package daemon

import (
	"time"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/launch"
)

// ExpiryHook is called with each launch reaped by the sweeper.
type ExpiryHook func(r launch.Record)

// Sweeper runs the periodic tick: it reaps at most one expired launch per tick
// and advances the animation while anything remains outstanding.
type Sweeper struct {
	tracker   *launch.Tracker
	indicator *Indicator
	onExpire  ExpiryHook
}

// NewSweeper creates a sweeper over tracker and indicator.
func NewSweeper(tracker *launch.Tracker, indicator *Indicator) *Sweeper {
	return &Sweeper{tracker: tracker, indicator: indicator}
}

// SetExpiryHook sets the callback invoked for reaped launches.
func (s *Sweeper) SetExpiryHook(hook ExpiryHook) {
	s.onExpire = hook
}

// Tick performs one sweep at now. Ticks are free while the indicator is hidden.
func (s *Sweeper) Tick(now time.Time) {
	if !s.indicator.Visible() {
		return
	}

	if r, ok := s.tracker.SweepOneExpired(now); ok && s.onExpire != nil {
		s.onExpire(r)
	}

	if s.tracker.IsEmpty() {
		s.indicator.BecameEmpty()
		return
	}

	s.indicator.Advance()
	s.indicator.Repaint()
}
