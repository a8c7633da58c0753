package daemon

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/launch"
)

// Snapshot is an immutable view of the service state, safe to read from any
// goroutine.
type Snapshot struct {
	Visible  bool            `json:"visible" yaml:"visible"`
	Frame    int             `json:"frame" yaml:"frame"`
	Launches []launch.Record `json:"launches" yaml:"launches"`
}

// Outstanding returns the number of launches in flight.
func (s Snapshot) Outstanding() int {
	return len(s.Launches)
}

// Service owns the launch tracker and the indicator and implements the host
// callbacks. All Handler methods must be called from the control loop.
type Service struct {
	logger    *slog.Logger
	now       func() time.Time
	tracker   *launch.Tracker
	adapter   *launch.Adapter
	indicator *Indicator
	sweeper   *Sweeper
	snapshot  atomic.Pointer[Snapshot]

	onExpire ExpiryHook
	onChange StateHook
}

// StateHook is called from the control loop when the indicator visibility or
// the number of outstanding launches changes.
type StateHook func(Snapshot)

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithExpiryHook registers a callback for launches reaped by timeout.
func WithExpiryHook(hook ExpiryHook) ServiceOption {
	return func(s *Service) {
		s.onExpire = hook
	}
}

// WithStateHook registers a callback for visibility and occupancy changes.
func WithStateHook(hook StateHook) ServiceOption {
	return func(s *Service) {
		s.onChange = hook
	}
}

// NewService creates a service drawing onto surface.
func NewService(surface Surface, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		logger:    logger,
		now:       time.Now,
		tracker:   launch.NewTracker(),
		indicator: NewIndicator(surface),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.adapter = launch.NewAdapter(s)
	s.sweeper = NewSweeper(s.tracker, s.indicator)
	s.sweeper.SetExpiryHook(s.expired)
	s.publish()

	return s
}

// Snapshot returns the state published after the last callback.
func (s *Service) Snapshot() Snapshot {
	return *s.snapshot.Load()
}

// OnExternalEvent handles one launch lifecycle event.
func (s *Service) OnExternalEvent(ev launch.RawEvent) {
	if !s.adapter.Dispatch(ev) {
		s.logger.Debug("ignoring launch event", "kind", ev.Kind, "id", ev.ID, "source", ev.Source)
		return
	}
	s.publish()
}

// OnTick runs one sweep.
func (s *Service) OnTick() {
	if !s.indicator.Visible() {
		return
	}
	s.sweeper.Tick(s.now())
	s.publish()
}

// OnResize rescales the indicator frames.
func (s *Service) OnResize(width, height int) {
	s.indicator.Resize(width, height)
}

// OnPaint composites the current frame.
func (s *Service) OnPaint() {
	s.indicator.Paint()
}

// LaunchInitiated implements launch.Handler.
func (s *Service) LaunchInitiated(id string) {
	s.tracker.Initiate(id, s.now())
	s.logger.Debug("launch initiated", "id", id, "outstanding", s.tracker.Len())

	if !s.indicator.Visible() {
		s.indicator.BecameNonEmpty()
	}
}

// LaunchCompleted implements launch.Handler.
func (s *Service) LaunchCompleted(id string) {
	s.remove(id, s.tracker.Complete, "completed")
}

// LaunchCanceled implements launch.Handler.
func (s *Service) LaunchCanceled(id string) {
	s.remove(id, s.tracker.Cancel, "canceled")
}

func (s *Service) remove(id string, fn func(string) bool, what string) {
	if !fn(id) {
		s.logger.Debug("no outstanding launch", "id", id, "event", what)
		return
	}
	s.logger.Debug("launch "+what, "id", id, "outstanding", s.tracker.Len())

	if s.tracker.IsEmpty() && s.indicator.Visible() {
		s.indicator.BecameEmpty()
	}
}

func (s *Service) expired(r launch.Record) {
	s.logger.Info("launch timed out", "id", r.ID)
	if s.onExpire != nil {
		s.onExpire(r)
	}
}

func (s *Service) publish() {
	next := &Snapshot{
		Visible:  s.indicator.Visible(),
		Frame:    s.indicator.Frame(),
		Launches: s.tracker.Records(),
	}
	prev := s.snapshot.Swap(next)

	if s.onChange == nil || prev == nil {
		return
	}
	if prev.Visible != next.Visible || prev.Outstanding() != next.Outstanding() {
		s.onChange(*next)
	}
}
