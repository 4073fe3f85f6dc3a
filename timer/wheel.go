// Package timer implements the hierarchical timer wheel: five cascading
// wheels keyed on loop time, supporting O(1) insertion and removal at
// millisecond resolution from 1ms up to the wheel's maximum representable
// delta.
package timer

import (
	"github.com/loopforge/uvcore/internal/constants"
	"github.com/loopforge/uvcore/internal/interfaces"
	"github.com/loopforge/uvcore/internal/list"
	"github.com/loopforge/uvcore/internal/logging"
)

// WheelConfig configures a Wheel.
type WheelConfig struct {
	// Observer receives per-tick telemetry. Defaults to a no-op if nil.
	Observer interfaces.Observer
}

// DefaultWheelConfig returns the configuration this package uses when
// none is supplied.
func DefaultWheelConfig() WheelConfig {
	return WheelConfig{Observer: interfaces.NoOpObserver{}}
}

// Wheel is the cascading timer wheel: wheel-1 (index 0 of wheel1) is the
// finest, covering TVRSize ticks; wheels 2-5 (wheels[0..3]) each cover
// TVNSize buckets at one TVNBits shift coarser than the last.
//
// Single-threaded cooperative model: every method here is meant to be
// called from the one goroutine driving the owning loop. There is no
// internal locking.
type Wheel struct {
	logger *logging.Logger
	obs    interfaces.Observer

	// currentTime is the authoritative wall-clock tick count (the
	// loop's "now"), set by RunTimers on every call regardless of how
	// many ticks actually get processed. Start() bases new deadlines on
	// this, not on the lagging now/nextTick cursor below.
	currentTime int64

	now      int64 // last processed tick
	nextTick int64 // next tick to be processed

	wheel1 [constants.TVRSize]list.List
	wheels [constants.NumWheels - 1][constants.TVNSize]list.List

	startCounter uint64
}

// NewWheel creates an empty Wheel. As in uv__init_timers, next_tick
// starts at 1; now_ starts at -1, two ticks behind it, so the very first
// RunTimers call processes at least one tick before any timer inserted
// at the current time can fire.
func NewWheel(cfg WheelConfig) *Wheel {
	if cfg.Observer == nil {
		cfg.Observer = interfaces.NoOpObserver{}
	}
	return &Wheel{
		logger:   logging.Default(),
		obs:      cfg.Observer,
		now:      -1,
		nextTick: 1,
	}
}

// CurrentTime returns the wheel's last-known wall-clock tick count, the
// basis new timer deadlines are computed from.
func (w *Wheel) CurrentTime() int64 { return w.currentTime }

func (w *Wheel) nextStartID() uint64 {
	w.startCounter++
	return w.startCounter
}

// bucketFor computes which wheel level (0 = wheel-1, 1..4 = wheels 2..5)
// and bucket index a timer with the given delta (ticks from now_) and
// expires (delta+next_tick) lands in, per the bucket-selection rules.
// A negative delta (already expired) is placed at wheel-1's current
// bucket so it fires on the very next tick; a delta beyond the wheel's
// representable range is clamped to MaxTval.
func bucketFor(delta, nextTick int64) (level int, idx int64) {
	if delta < 0 {
		return 0, nextTick & constants.TVRMask
	}
	if delta > constants.MaxTval {
		delta = constants.MaxTval
	}
	expires := delta + nextTick
	switch {
	case delta < constants.TVRSize:
		return 0, expires & constants.TVRMask
	case delta < 1<<(constants.TVRBits+constants.TVNBits):
		return 1, (expires >> constants.TVRBits) & constants.TVNMask
	case delta < 1<<(constants.TVRBits+2*constants.TVNBits):
		return 2, (expires >> (constants.TVRBits + constants.TVNBits)) & constants.TVNMask
	case delta < 1<<(constants.TVRBits+3*constants.TVNBits):
		return 3, (expires >> (constants.TVRBits + 2*constants.TVNBits)) & constants.TVNMask
	default:
		return 4, (expires >> (constants.TVRBits + 3*constants.TVNBits)) & constants.TVNMask
	}
}

func (w *Wheel) bucket(level int, idx int64) *list.List {
	if level == 0 {
		return &w.wheel1[idx]
	}
	return &w.wheels[level-1][idx]
}

// insert places h into the bucket its current timeout maps to, relative
// to now_/next_tick. O(1), no allocation beyond boxing h as the node's
// value.
func (w *Wheel) insert(h *Handle) {
	delta := h.timeout - w.now
	level, idx := bucketFor(delta, w.nextTick)
	w.bucket(level, idx).PushBack(&h.node, h)
	h.active = true
}

// removeTimer detaches h from whatever bucket it occupies. No-op if h
// is already inactive.
func (w *Wheel) removeTimer(h *Handle) {
	if !h.active {
		return
	}
	list.Remove(&h.node)
	h.active = false
}

// cascadeIndex computes the bucket index of wheels[level] (0-based: 0 is
// wheel-2) that next_tick currently addresses, matching the INDEX(N)
// macro in the original design for N = level.
func (w *Wheel) cascadeIndex(level int) int64 {
	shift := constants.TVRBits + level*constants.TVNBits
	return (w.nextTick >> shift) & constants.TVNMask
}

// cascadeLevel empties wheels[level-1][idx] and reinserts every timer it
// held; each lands back in a finer wheel (ultimately wheel-1) at its
// correct bucket.
func (w *Wheel) cascadeLevel(level int, idx int64) {
	bucket := w.bucket(level, idx)
	var tmp list.List
	list.Splice(&tmp, bucket)
	for tmp.Len() > 0 {
		n := tmp.Front()
		h := n.Value().(*Handle)
		list.Remove(n)
		h.active = false
		w.insert(h)
	}
}

// cascadeChain runs when wheel-1 wraps (its index returns to 0): wheel-2's
// next bucket cascades down unconditionally, and the chain continues
// into wheel-3, 4, 5 only as long as each level's own bucket index is
// also 0 — i.e. that level is wrapping too. The chain stops at the
// first level whose index is non-zero.
func (w *Wheel) cascadeChain() {
	i0 := w.cascadeIndex(0)
	w.cascadeLevel(1, i0)
	if i0 != 0 {
		return
	}
	i1 := w.cascadeIndex(1)
	w.cascadeLevel(2, i1)
	if i1 != 0 {
		return
	}
	i2 := w.cascadeIndex(2)
	w.cascadeLevel(3, i2)
	if i2 != 0 {
		return
	}
	i3 := w.cascadeIndex(3)
	w.cascadeLevel(4, i3)
}

// RunTimers advances the wheel to nowMillis (milliseconds since wheel
// creation), firing every timer whose tick has arrived. Call this once
// per loop iteration.
//
// Each tick: cascade if wheel-1 just wrapped (before now_ advances, so
// re-inserted timers see the same now_/next_tick spacing they were first
// placed with and keep their expiry tick), advance now_, splice the
// current wheel-1 bucket into a scratch work list (so insertions during
// dispatch, including re-arms, never land in the list being drained),
// then for every timer in the work list: detach it, re-arm it if it
// repeats, and invoke its callback. Timers due at tick T all fire,
// in bucket (FIFO) order, before any timer due at T+1.
//
// The Observer hears once per callback invoked; the number of wheel
// levels the tick cascaded is reported with that tick's first callback
// (and 0 with the rest). Cascades on a tick that fires no timer are not
// reported.
func (w *Wheel) RunTimers(nowMillis int64) {
	w.currentTime = nowMillis

	for w.now < nowMillis {
		index := w.nextTick & constants.TVRMask
		cascades := 0
		if index == 0 {
			w.cascadeChain()
			cascades = 1
			for lvl := 0; lvl < constants.NumWheels-2 && w.cascadeIndex(lvl) == 0; lvl++ {
				cascades++
			}
		}
		w.now++
		w.nextTick++

		var work list.List
		list.Splice(&work, &w.wheel1[index])

		for work.Len() > 0 {
			n := work.Front()
			h := n.Value().(*Handle)
			list.Remove(n)
			h.active = false

			if h.repeat != 0 {
				h.timeout = w.now + h.repeat
				w.insert(h)
			}

			cb := h.Callback
			if cb != nil {
				cb(h)
				w.obs.ObserveTimerFire(cascades)
				cascades = 0
			}
		}
	}
}

// NextTimeout returns the number of milliseconds the poller may safely
// block, computed as the distance to the nearest non-empty wheel-1
// bucket ahead of next_tick. If wheel-1 is entirely empty but a higher
// wheel holds timers, it returns a conservative upper bound (one full
// wheel-1 sweep) rather than claiming there is nothing to wait for. If
// no timer is scheduled anywhere, it returns -1 ("block indefinitely").
//
// This replaces the original "count empty wheel-1 buckets" computation,
// which over-counts slack and ignores higher wheels entirely.
func (w *Wheel) NextTimeout() int64 {
	for i := int64(0); i < constants.TVRSize; i++ {
		idx := (w.nextTick + i) & constants.TVRMask
		if w.wheel1[idx].Len() > 0 {
			return i
		}
	}

	for _, lvl := range w.wheels {
		for i := range lvl {
			if lvl[i].Len() > 0 {
				return constants.TVRSize
			}
		}
	}

	return -1
}
