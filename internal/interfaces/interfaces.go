// Package interfaces holds the small collaborator contracts the aio and
// timer packages consume from their owning loop. They live here, separate
// from the aio/timer packages themselves, so that a loop implementation
// and the fakes used in tests can both depend on them without creating an
// import cycle with aio/timer.
package interfaces

// Clock supplies the loop's millisecond wall-clock source.
type Clock interface {
	// NowMillis returns milliseconds elapsed since some fixed but
	// arbitrary origin. Only differences between calls are meaningful.
	NowMillis() int64
}

// PollerCallback is invoked by a Poller when a registered descriptor
// becomes ready. mask is a poller-defined readiness bitmask (at minimum,
// read-readiness).
type PollerCallback func(fd int, mask uint32)

// Poller is the readiness poller the AIO watcher registers its
// completion descriptor with.
type Poller interface {
	// Register arms fd for read-readiness notifications; cb is invoked
	// on every future readiness event until Unregister is called.
	Register(fd int, flags uint32, cb PollerCallback) error

	// Unregister disarms fd. It is a no-op if fd was never registered.
	Unregister(fd int) error
}

// Readiness flags passed to Poller.Register.
const (
	ReadableEvent uint32 = 1 << iota
	WritableEvent
)

// HandleLifecycle are the hooks a loop provides for handle bookkeeping
// (reference counting, active-handle lists) that are out of scope for
// this core but must be invoked at the right points.
type HandleLifecycle interface {
	HandleInit(h any)
	HandleStart(h any)
	HandleStop(h any)
}

// Allocator abstracts buffer allocation so the core never assumes a
// specific allocation strategy.
type Allocator interface {
	Allocate(n int) []byte
	Free(b []byte)
}

// Observer receives operational metrics. It mirrors the root package's
// Observer so internal packages can depend on it without importing the
// root package.
type Observer interface {
	ObserveAIOSubmit(nbufs int, err error)
	ObserveAIOComplete(result int64, latencyNs uint64)
	ObserveTimerFire(cascades int)
}

// NoOpObserver discards every observation.
type NoOpObserver struct{}

func (NoOpObserver) ObserveAIOSubmit(int, error)        {}
func (NoOpObserver) ObserveAIOComplete(int64, uint64)   {}
func (NoOpObserver) ObserveTimerFire(int)               {}

var _ Observer = NoOpObserver{}
