package daemon

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/launch"
)

// fakeSurface records the calls made to it. Repaint requests are answered
// synchronously, like a host that paints immediately.
type fakeSurface struct {
	calls   []string
	frames  []int
	handler Handler
	width   int
	height  int
}

func (f *fakeSurface) Show()               { f.calls = append(f.calls, "show") }
func (f *fakeSurface) Hide()               { f.calls = append(f.calls, "hide") }
func (f *fakeSurface) RequestOffset(n int) { f.calls = append(f.calls, fmt.Sprintf("offset:%d", n)) }
func (f *fakeSurface) WatchEnvironment()   { f.calls = append(f.calls, "watch") }
func (f *fakeSurface) Size() (int, int)    { return f.width, f.height }

func (f *fakeSurface) QueueRepaint() {
	f.calls = append(f.calls, "repaint")
	if f.handler != nil {
		f.handler.OnPaint()
	}
}

func (f *fakeSurface) Composite(frame int) {
	f.frames = append(f.frames, frame)
}

func (f *fakeSurface) ScaleFrames(width, height int) {
	f.calls = append(f.calls, fmt.Sprintf("scale:%dx%d", width, height))
}

func (f *fakeSurface) reset() {
	f.calls = nil
	f.frames = nil
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, opts ...ServiceOption) (*Service, *fakeSurface, *fakeClock) {
	t.Helper()
	surface := &fakeSurface{}
	clock := &fakeClock{t: epoch}
	opts = append([]ServiceOption{WithClock(clock.Now)}, opts...)
	svc := NewService(surface, nil, opts...)
	surface.handler = svc
	return svc, surface, clock
}

func initiated(id string) launch.RawEvent {
	return launch.RawEvent{Kind: launch.KindInitiated, ID: id}
}

func completed(id string) launch.RawEvent {
	return launch.RawEvent{Kind: launch.KindCompleted, ID: id}
}

func canceled(id string) launch.RawEvent {
	return launch.RawEvent{Kind: launch.KindCanceled, ID: id}
}

func TestService_InitialSnapshot(t *testing.T) {
	svc, surface, _ := newTestService(t)

	snap := svc.Snapshot()
	assert.False(t, snap.Visible)
	assert.Equal(t, 0, snap.Frame)
	assert.Equal(t, 0, snap.Outstanding())
	assert.Empty(t, surface.calls)
}

func TestService_ShowOnFirstLaunch(t *testing.T) {
	svc, surface, _ := newTestService(t)

	svc.OnExternalEvent(initiated("x"))
	assert.Equal(t, []string{"offset:-1", "show"}, surface.calls)
	assert.True(t, svc.Snapshot().Visible)

	surface.reset()
	svc.OnExternalEvent(initiated("y"))
	assert.Empty(t, surface.calls, "second launch must not re-show")
	assert.Equal(t, 2, svc.Snapshot().Outstanding())
}

func TestService_ShowRescalesAllocatedSurface(t *testing.T) {
	svc, surface, _ := newTestService(t)
	surface.width, surface.height = 32, 32

	svc.OnExternalEvent(initiated("x"))
	assert.Equal(t, []string{"offset:-1", "show", "scale:32x32"}, surface.calls)
}

// Scenario A: a launch that completes before its deadline.
func TestService_LaunchCompletesQuickly(t *testing.T) {
	svc, surface, clock := newTestService(t)

	svc.OnExternalEvent(initiated("x"))
	require.True(t, svc.Snapshot().Visible)

	for range 10 {
		clock.Advance(launch.TickInterval)
		svc.OnTick()
	}
	assert.Equal(t, 10%launch.FrameCount, svc.Snapshot().Frame)

	surface.reset()
	svc.OnExternalEvent(completed("x"))

	snap := svc.Snapshot()
	assert.False(t, snap.Visible)
	assert.Equal(t, 0, snap.Outstanding())
	assert.Equal(t, []string{"hide", "watch"}, surface.calls)
}

// Scenario B: a launch that never completes is reaped at its deadline.
func TestService_LaunchTimesOut(t *testing.T) {
	var reaped []string
	svc, surface, clock := newTestService(t, WithExpiryHook(func(r launch.Record) {
		reaped = append(reaped, r.ID)
	}))

	svc.OnExternalEvent(initiated("x"))

	ticks := int(launch.Timeout / launch.TickInterval)
	for range ticks - 1 {
		clock.Advance(launch.TickInterval)
		svc.OnTick()
		require.True(t, svc.Snapshot().Visible)
	}
	assert.Equal(t, (ticks-1)%launch.FrameCount, svc.Snapshot().Frame)

	surface.reset()
	clock.Advance(launch.TickInterval)
	svc.OnTick()

	snap := svc.Snapshot()
	assert.False(t, snap.Visible)
	assert.Equal(t, 0, snap.Outstanding())
	assert.Equal(t, []string{"x"}, reaped)
	assert.Equal(t, []string{"hide", "watch"}, surface.calls, "emptying tick must not repaint")
	assert.Equal(t, (ticks-1)%launch.FrameCount, snap.Frame, "emptying tick must not advance")
}

// Scenario C: overlapping launches keep the indicator up until the last ends.
func TestService_OverlappingLaunches(t *testing.T) {
	svc, surface, clock := newTestService(t)

	svc.OnExternalEvent(initiated("x"))
	clock.Advance(time.Second)
	svc.OnExternalEvent(initiated("y"))

	clock.Advance(time.Second)
	svc.OnExternalEvent(completed("x"))
	assert.True(t, svc.Snapshot().Visible)
	assert.Equal(t, 1, svc.Snapshot().Outstanding())

	surface.reset()
	svc.OnExternalEvent(canceled("y"))
	assert.False(t, svc.Snapshot().Visible)
	assert.Equal(t, []string{"hide", "watch"}, surface.calls)
}

func TestService_VisibleIffOutstanding(t *testing.T) {
	svc, _, clock := newTestService(t)

	steps := []func(){
		func() { svc.OnExternalEvent(initiated("a")) },
		func() { svc.OnExternalEvent(initiated("b")) },
		func() { svc.OnTick() },
		func() { svc.OnExternalEvent(completed("ghost")) },
		func() { svc.OnExternalEvent(completed("a")) },
		func() { clock.Advance(launch.Timeout); svc.OnTick() },
		func() { svc.OnTick() },
		func() { svc.OnExternalEvent(canceled("b")) },
		func() { svc.OnExternalEvent(initiated("c")) },
		func() { svc.OnExternalEvent(launch.RawEvent{Kind: "changed", ID: "c"}) },
		func() { svc.OnExternalEvent(canceled("c")) },
	}

	for i, step := range steps {
		step()
		snap := svc.Snapshot()
		assert.Equal(t, snap.Outstanding() > 0, snap.Visible, "step %d", i)
	}
}

func TestService_OneReapPerTick(t *testing.T) {
	svc, _, clock := newTestService(t)

	svc.OnExternalEvent(initiated("a"))
	svc.OnExternalEvent(initiated("b"))
	svc.OnExternalEvent(initiated("c"))

	clock.Advance(launch.Timeout)
	svc.OnTick()
	assert.Equal(t, 2, svc.Snapshot().Outstanding())
	svc.OnTick()
	assert.Equal(t, 1, svc.Snapshot().Outstanding())
	svc.OnTick()
	assert.Equal(t, 0, svc.Snapshot().Outstanding())
	assert.False(t, svc.Snapshot().Visible)
}

func TestService_FrameAdvancesOncePerVisibleTick(t *testing.T) {
	svc, surface, clock := newTestService(t)

	svc.OnTick()
	assert.Equal(t, 0, svc.Snapshot().Frame, "hidden ticks are free")
	assert.Empty(t, surface.calls)

	svc.OnExternalEvent(initiated("x"))
	surface.reset()

	for i := 1; i <= 2*launch.FrameCount+3; i++ {
		clock.Advance(launch.TickInterval)
		svc.OnTick()
		assert.Equal(t, i%launch.FrameCount, svc.Snapshot().Frame)
	}

	want := make([]int, 0, 2*launch.FrameCount+3)
	for i := 1; i <= 2*launch.FrameCount+3; i++ {
		want = append(want, i%launch.FrameCount)
	}
	assert.Equal(t, want, surface.frames)
}

func TestService_FrameCarriesOverAcrossHide(t *testing.T) {
	svc, _, clock := newTestService(t)

	svc.OnExternalEvent(initiated("x"))
	for range 3 {
		clock.Advance(launch.TickInterval)
		svc.OnTick()
	}
	svc.OnExternalEvent(completed("x"))
	require.False(t, svc.Snapshot().Visible)

	svc.OnExternalEvent(initiated("y"))
	assert.Equal(t, 3, svc.Snapshot().Frame)
}

func TestService_HiddenPaintAndResizeAreNoops(t *testing.T) {
	svc, surface, _ := newTestService(t)

	svc.OnResize(48, 48)
	svc.OnPaint()
	assert.Empty(t, surface.calls)
	assert.Empty(t, surface.frames)

	svc.OnExternalEvent(initiated("x"))
	surface.reset()

	svc.OnResize(48, 48)
	svc.OnPaint()
	assert.Equal(t, []string{"scale:48x48"}, surface.calls)
	assert.Equal(t, []int{0}, surface.frames)
}

func TestService_UnknownIDWhileHidden(t *testing.T) {
	svc, surface, _ := newTestService(t)

	svc.OnExternalEvent(completed("ghost"))
	svc.OnExternalEvent(canceled("ghost"))

	assert.Empty(t, surface.calls)
	assert.False(t, svc.Snapshot().Visible)
}

func TestService_DuplicateIDs(t *testing.T) {
	svc, _, _ := newTestService(t)

	svc.OnExternalEvent(initiated("x"))
	svc.OnExternalEvent(initiated("x"))
	svc.OnExternalEvent(completed("x"))

	snap := svc.Snapshot()
	assert.True(t, snap.Visible)
	assert.Equal(t, 1, snap.Outstanding())
}

func TestService_SnapshotIsDetached(t *testing.T) {
	svc, _, _ := newTestService(t)

	svc.OnExternalEvent(initiated("x"))
	snap := svc.Snapshot()
	svc.OnExternalEvent(completed("x"))

	require.Len(t, snap.Launches, 1)
	assert.Equal(t, "x", snap.Launches[0].ID)
	assert.Equal(t, epoch.Add(launch.Timeout), snap.Launches[0].Deadline)
}

func TestService_StateHookFiresOnOccupancyChange(t *testing.T) {
	var changes []Snapshot
	svc, _, clock := newTestService(t, WithStateHook(func(s Snapshot) {
		changes = append(changes, s)
	}))

	svc.OnExternalEvent(initiated("a"))
	svc.OnExternalEvent(initiated("b"))
	clock.Advance(launch.TickInterval)
	svc.OnTick()
	svc.OnExternalEvent(completed("unknown"))
	svc.OnExternalEvent(completed("a"))
	svc.OnExternalEvent(canceled("b"))

	require.Len(t, changes, 4, "frame advances and ignored events do not fire")
	assert.True(t, changes[0].Visible)
	assert.Equal(t, 1, changes[0].Outstanding())
	assert.Equal(t, 2, changes[1].Outstanding())
	assert.Equal(t, 1, changes[2].Outstanding())
	assert.False(t, changes[3].Visible)
	assert.Equal(t, 0, changes[3].Outstanding())
}
