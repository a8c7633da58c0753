package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/launch"
)

// Loop is a control loop for running a Handler without a GUI main loop. It
// serialises events, ticks and arbitrary calls onto one goroutine.
type Loop struct {
	handler  Handler
	logger   *slog.Logger
	interval time.Duration
	queue    chan func()
}

// NewLoop creates a loop that ticks handler every launch.TickInterval.
func NewLoop(handler Handler, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		handler:  handler,
		logger:   logger,
		interval: launch.TickInterval,
		queue:    make(chan func(), 64),
	}
}

// SetTickInterval overrides the tick period. Must be called before Run.
func (l *Loop) SetTickInterval(d time.Duration) {
	l.interval = d
}

// Post delivers an event to the handler on the loop goroutine.
func (l *Loop) Post(ctx context.Context, ev launch.RawEvent) error {
	return l.Invoke(ctx, func() {
		l.handler.OnExternalEvent(ev)
	})
}

// Invoke runs fn on the loop goroutine. It blocks only while the queue is full.
func (l *Loop) Invoke(ctx context.Context, fn func()) error {
	select {
	case l.queue <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes queued work and ticks until ctx is canceled.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.logger.Debug("control loop started", "interval", l.interval)
	defer l.logger.Debug("control loop stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.queue:
			fn()
		case <-ticker.C:
			l.handler.OnTick()
		}
	}
}

// LogSurface is a Surface that only logs what it is asked to do. It backs the
// headless mode and answers every repaint request synchronously.
type LogSurface struct {
	logger  *slog.Logger
	handler Handler
	width   int
	height  int
}

// NewLogSurface creates a logging surface reporting a fixed size.
func NewLogSurface(size int, logger *slog.Logger) *LogSurface {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSurface{logger: logger, width: size, height: size}
}

// SetHandler sets the handler that receives paint callbacks.
func (s *LogSurface) SetHandler(h Handler) {
	s.handler = h
}

func (s *LogSurface) Show() {
	s.logger.Info("indicator shown")
}

func (s *LogSurface) Hide() {
	s.logger.Info("indicator hidden")
}

func (s *LogSurface) RequestOffset(n int) {
	s.logger.Debug("indicator offset requested", "offset", n)
}

func (s *LogSurface) QueueRepaint() {
	if s.handler != nil {
		s.handler.OnPaint()
	}
}

func (s *LogSurface) Composite(frame int) {
	s.logger.Debug("indicator frame", "frame", frame)
}

func (s *LogSurface) ScaleFrames(width, height int) {
	s.logger.Debug("indicator frames scaled", "width", width, "height", height)
}

func (s *LogSurface) Size() (int, int) {
	return s.width, s.height
}

func (s *LogSurface) WatchEnvironment() {}
