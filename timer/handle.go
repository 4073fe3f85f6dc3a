package timer

import (
	"math"

	"github.com/loopforge/uvcore/internal/coreerr"
	"github.com/loopforge/uvcore/internal/list"
)

// Handle is a single timer registered against a Wheel. Zero value is not
// usable; construct with NewHandle.
type Handle struct {
	wheel *Wheel
	node  list.Node

	// Callback fires when the timer's tick arrives. Start sets this.
	Callback func(*Handle)

	timeout int64 // absolute deadline, in wheel ticks
	repeat  int64 // 0 means one-shot
	startID uint64
	active  bool
}

// NewHandle creates a Handle bound to wheel. The handle is inert until
// Start is called.
func NewHandle(wheel *Wheel) *Handle {
	return &Handle{wheel: wheel}
}

// Active reports whether the timer is currently armed (pending in some
// wheel bucket).
func (h *Handle) Active() bool { return h.active }

// Repeat returns the handle's current repeat interval in milliseconds;
// 0 means the timer is one-shot.
func (h *Handle) Repeat() int64 { return h.repeat }

// SetRepeat changes the interval used the next time the timer re-arms.
// It does not affect a deadline already in flight.
func (h *Handle) SetRepeat(repeatMs int64) { h.repeat = repeatMs }

// StartID returns the monotonically increasing sequence number assigned
// at the most recent Start. The wheel does not order timers by it:
// timers sharing a bucket fire in the order they were inserted into that
// bucket, so a timer cascaded into a wheel-1 bucket fires after any timer
// already waiting there, whatever their StartIDs.
func (h *Handle) StartID() uint64 { return h.startID }

// Start arms the timer with a deadline timeoutMs past the wheel's
// current time and, if repeatMs != 0, re-arms it repeatMs past each tick
// it fires on. The wheel fires a timer on the tick after its deadline, so
// the first firing comes timeoutMs+1 ticks after the current time and
// repeats are repeatMs+1 ticks apart. Starting an already-active timer
// re-arms it from the current time, discarding the pending firing.
func (h *Handle) Start(cb func(*Handle), timeoutMs, repeatMs int64) error {
	if cb == nil {
		return coreerr.New("timer_start", coreerr.CodeInvalid)
	}
	if h.active {
		h.wheel.removeTimer(h)
	}

	deadline := h.wheel.CurrentTime() + timeoutMs
	if timeoutMs > 0 && deadline < h.wheel.CurrentTime() {
		deadline = math.MaxInt64 // saturate instead of wrapping negative
	}

	h.Callback = cb
	h.timeout = deadline
	h.repeat = repeatMs
	h.startID = h.wheel.nextStartID()
	h.wheel.insert(h)
	return nil
}

// Stop disarms the timer. No-op if it is not currently active.
func (h *Handle) Stop() {
	h.wheel.removeTimer(h)
}

// Again restarts a repeating timer using its current repeat interval as
// both the new timeout and the new repeat, and stops it first if it is
// currently active. It fails with an INVALID error if the handle has
// never been started. On a started, non-repeating timer (Repeat() == 0)
// it is a no-op that returns nil, matching Start's semantics rather than
// erroring.
func (h *Handle) Again() error {
	if h.Callback == nil {
		return coreerr.New("timer_again", coreerr.CodeInvalid)
	}
	if h.repeat == 0 {
		return nil
	}
	if h.active {
		h.wheel.removeTimer(h)
	}
	return h.Start(h.Callback, h.repeat, h.repeat)
}
