package uvcore

import "github.com/loopforge/uvcore/internal/constants"

// Re-exported tuning constants, so callers never need to import the
// internal package directly.
const (
	DefaultAIOContextDepth = constants.DefaultAIOContextDepth
	MaxBatch               = constants.MaxBatch
	MinBatch               = constants.MinBatch

	TVRBits        = constants.TVRBits
	TVRSize        = constants.TVRSize
	TVNBits        = constants.TVNBits
	TVNSize        = constants.TVNSize
	NumWheels      = constants.NumWheels
	TickResolution = constants.TickResolution
)

// MaxTval is the largest timeout delta (in ticks) the timer wheel can
// represent directly; longer timeouts are clamped to it.
const MaxTval = constants.MaxTval
