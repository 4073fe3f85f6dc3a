// Package constants holds shared default values for the AIO watcher and
// timer wheel.
package constants

import "time"

// AIO defaults.
const (
	// DefaultAIOContextDepth is the number of in-flight kernel AIO slots
	// requested at watcher setup. 8192 comfortably covers bursty batch
	// submission without the kernel rejecting the context as oversized.
	DefaultAIOContextDepth = 8192

	// MaxBatch is the largest number of buffers a single request may
	// submit in one call.
	MaxBatch = 64

	// MinBatch is the smallest number of buffers a valid request may
	// submit in one call.
	MinBatch = 1

	// DrainReadBufSize is the size of the scratch buffer used to drain
	// the eventfd/pipe completion descriptor.
	DrainReadBufSize = 1024
)

// Timer wheel defaults.
//
// Five wheels total: wheel-1 (the finest) has TVRSize buckets addressed
// by TVRBits; wheels 2-5 each have TVNSize buckets addressed by TVNBits.
// These sizes match the example figures in the timer wheel's own
// bucket-selection rules: wheel-1 covers roughly 256 ms of lookahead
// before cascading is needed, each higher wheel multiplies that reach by
// TVNSize.
const (
	TVRBits = 8
	TVRSize = 1 << TVRBits
	TVRMask = TVRSize - 1

	TVNBits = 6
	TVNSize = 1 << TVNBits
	TVNMask = TVNSize - 1

	// NumWheels is the total wheel count (wheel-1 plus four cascading
	// wheels 2-5).
	NumWheels = 5

	// TickResolution is the duration of one tick.
	TickResolution = time.Millisecond
)

// MaxTval is the largest representable delta (in ticks), derived from the
// top wheel's addressable range. Deltas beyond this are clamped.
const MaxTval int64 = (1 << (TVRBits + (NumWheels-1)*TVNBits)) - 1
