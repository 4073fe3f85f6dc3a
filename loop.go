package uvcore

import (
	"github.com/loopforge/uvcore/aio"
	"github.com/loopforge/uvcore/internal/interfaces"
	"github.com/loopforge/uvcore/internal/logging"
	"github.com/loopforge/uvcore/timer"
)

// LoopConfig wires a Loop's collaborators. Poller and Clock are required;
// Watcher and Wheel default the same way their own packages do when left
// zero.
type LoopConfig struct {
	Poller interfaces.Poller
	Clock  interfaces.Clock

	Watcher aio.WatcherConfig
	Wheel   timer.WheelConfig
}

// Loop wires one AIO watcher and one timer wheel to a shared poller and
// clock. It is not a full reactor main loop: driving the poller's wait
// call and deciding the blocking timeout is the caller's job (see
// NextTimeout); Loop only owns the two subsystems and advances the
// timer wheel on request.
type Loop struct {
	poller interfaces.Poller
	clock  interfaces.Clock
	logger *logging.Logger

	watcher *aio.Watcher
	wheel   *timer.Wheel
}

// NewLoop constructs a Loop. cfg.Poller and cfg.Clock must be non-nil.
func NewLoop(cfg LoopConfig) (*Loop, error) {
	if cfg.Poller == nil {
		return nil, NewError("loop_init", CodeInvalid)
	}
	if cfg.Clock == nil {
		return nil, NewError("loop_init", CodeInvalid)
	}

	watcher, err := aio.NewWatcher(cfg.Poller, cfg.Watcher)
	if err != nil {
		return nil, err
	}

	return &Loop{
		poller:  cfg.Poller,
		clock:   cfg.Clock,
		logger:  logging.Default(),
		watcher: watcher,
		wheel:   timer.NewWheel(cfg.Wheel),
	}, nil
}

// NewAIOHandle registers a new AIO handle against this loop's watcher.
func (l *Loop) NewAIOHandle(userCB func(*aio.Handle, *aio.Request)) (*aio.Handle, error) {
	return aio.NewHandle(l.watcher, userCB)
}

// NewTimer creates a new, inert timer handle bound to this loop's wheel.
func (l *Loop) NewTimer() *timer.Handle {
	return timer.NewHandle(l.wheel)
}

// Tick advances the timer wheel to the clock's current time, firing
// every timer whose deadline has arrived. Call this once per reactor
// iteration, after the poller wait returns (so any AIO completions it
// woke have also been drained).
func (l *Loop) Tick() {
	l.wheel.RunTimers(l.clock.NowMillis())
}

// NextTimeout returns how many milliseconds the caller's poller wait may
// safely block for, bounded by the nearest pending timer. Callers
// combine this with their own I/O-readiness requirements when choosing
// an actual wait timeout.
func (l *Loop) NextTimeout() int64 {
	return l.wheel.NextTimeout()
}

// Close tears down the loop's AIO watcher. The timer wheel holds no
// kernel resources and needs no explicit teardown.
func (l *Loop) Close() error {
	return l.watcher.Teardown()
}
