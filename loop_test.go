package uvcore

import (
	"testing"

	"github.com/loopforge/uvcore/aio"
	"github.com/loopforge/uvcore/internal/kaio"
	"github.com/loopforge/uvcore/internal/logging"
	"github.com/loopforge/uvcore/timer"
)

// newTestLoop builds a Loop over a FakeContext/FakePoller pair, bypassing
// NewLoop's real kernel AIO setup so this package's tests never need
// root privileges or a live Linux kernel.
func newTestLoop(t *testing.T) (*Loop, *kaio.FakeContext, *FakePoller, *FakeClock) {
	t.Helper()
	ctx, err := kaio.NewFakeContext()
	if err != nil {
		t.Fatalf("NewFakeContext: %v", err)
	}
	poller := NewFakePoller()
	clock := NewFakeClock()

	watcher, err := aio.NewWatcherWithContext(ctx, poller, aio.DefaultWatcherConfig())
	if err != nil {
		t.Fatalf("NewWatcherWithContext: %v", err)
	}

	l := &Loop{
		poller:  poller,
		clock:   clock,
		logger:  logging.Default(),
		watcher: watcher,
		wheel:   timer.NewWheel(timer.DefaultWheelConfig()),
	}
	t.Cleanup(func() { l.Close() })
	return l, ctx, poller, clock
}

func TestNewLoopRequiresPollerAndClock(t *testing.T) {
	if _, err := NewLoop(LoopConfig{Clock: NewFakeClock()}); err == nil {
		t.Fatal("expected an error with nil Poller")
	}
	if _, err := NewLoop(LoopConfig{Poller: NewFakePoller()}); err == nil {
		t.Fatal("expected an error with nil Clock")
	}
}

func TestLoopTickFiresDueTimers(t *testing.T) {
	l, _, _, clock := newTestLoop(t)

	fired := false
	th := l.NewTimer()
	if err := th.Start(func(*timer.Handle) { fired = true }, 10, 0); err != nil {
		t.Fatalf("Start: %v", err)
	}

	clock.SetMillis(5)
	l.Tick()
	if fired {
		t.Fatal("timer fired before its deadline")
	}

	clock.SetMillis(11)
	l.Tick()
	if !fired {
		t.Fatal("timer did not fire once the clock reached its deadline")
	}
}

func TestLoopNextTimeoutReflectsPendingTimer(t *testing.T) {
	l, _, _, _ := newTestLoop(t)

	if got := l.NextTimeout(); got != -1 {
		t.Fatalf("expected -1 with no timers pending, got %d", got)
	}

	th := l.NewTimer()
	if err := th.Start(func(*timer.Handle) {}, 5, 0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := l.NextTimeout(); got < 0 {
		t.Fatalf("expected a non-negative bound with a timer pending, got %d", got)
	}
}

func TestLoopAIOHandleRoundTrip(t *testing.T) {
	l, ctx, _, _ := newTestLoop(t)

	var fired bool
	h, err := l.NewAIOHandle(func(_ *aio.Handle, r *aio.Request) {
		fired = true
		if r.Result() != 4 {
			t.Errorf("expected Result()==4, got %d", r.Result())
		}
	})
	if err != nil {
		t.Fatalf("NewAIOHandle: %v", err)
	}

	req := &aio.Request{
		File:    fakeLoopFile{},
		Buffers: []aio.Buffer{{Base: make([]byte, 4)}},
		Op:      aio.OpRead,
	}
	if err := h.Submit(req); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// This is the only Submit against a freshly created watcher, so its
	// one buffer was assigned the watcher's first tag.
	ctx.Complete(kaio.Event{Data: 1, Res: 4})
	l.watcher.Drain(1)

	if !fired {
		t.Fatal("expected the AIO callback to fire")
	}
}

type fakeLoopFile struct{}

func (fakeLoopFile) Fd() uintptr { return 5 }
