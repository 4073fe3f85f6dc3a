package aio

import (
	"encoding/binary"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/loopforge/uvcore/internal/constants"
	"github.com/loopforge/uvcore/internal/coreerr"
	"github.com/loopforge/uvcore/internal/interfaces"
	"github.com/loopforge/uvcore/internal/kaio"
	"github.com/loopforge/uvcore/internal/logging"
)

// drainBatch bounds how many completions Watcher asks the kernel for in
// one io_getevents call while draining.
const drainBatch = constants.MaxBatch

// WatcherConfig configures a Watcher's kernel AIO context.
type WatcherConfig struct {
	// ContextDepth is the number of in-flight kernel AIO slots requested
	// at setup.
	ContextDepth int
	// Observer receives submit/completion telemetry. Defaults to a
	// no-op if nil.
	Observer interfaces.Observer
}

// DefaultWatcherConfig returns the configuration this package uses when
// none is supplied.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		ContextDepth: constants.DefaultAIOContextDepth,
		Observer:     interfaces.NoOpObserver{},
	}
}

// Watcher owns the kernel AIO context and completion descriptor for one
// loop. It is created once per loop; every Handle on that loop submits
// through the same Watcher.
type Watcher struct {
	ctx    kaio.Context
	poller interfaces.Poller
	obs    interfaces.Observer
	logger *logging.Logger

	mu      sync.Mutex
	tags    map[uint64]*Request
	nextTag uint64
}

// NewWatcher creates a real kernel AIO context and registers its
// completion descriptor with poller for read-readiness.
func NewWatcher(poller interfaces.Poller, cfg WatcherConfig) (*Watcher, error) {
	if cfg.ContextDepth <= 0 {
		cfg.ContextDepth = constants.DefaultAIOContextDepth
	}
	ctx, err := kaio.NewContext(cfg.ContextDepth)
	if err != nil {
		return nil, coreerr.Wrap("aio_setup", coreerr.CodeResourceExhausted, err)
	}
	return NewWatcherWithContext(ctx, poller, cfg)
}

// NewWatcherWithContext builds a Watcher over an already-constructed
// kaio.Context. Tests use this to inject a kaio.FakeContext.
func NewWatcherWithContext(ctx kaio.Context, poller interfaces.Poller, cfg WatcherConfig) (*Watcher, error) {
	if cfg.Observer == nil {
		cfg.Observer = interfaces.NoOpObserver{}
	}
	w := &Watcher{
		ctx:    ctx,
		poller: poller,
		obs:    cfg.Observer,
		logger: logging.Default(),
		tags:   make(map[uint64]*Request),
	}
	if poller != nil {
		if err := poller.Register(ctx.EventFD(), interfaces.ReadableEvent, w.onReadable); err != nil {
			return nil, coreerr.Wrap("aio_setup", coreerr.CodeResourceExhausted, err)
		}
	}
	return w, nil
}

// Teardown unregisters the completion descriptor and destroys the
// kernel AIO context. Call it once, when the last consumer detaches.
func (w *Watcher) Teardown() error {
	if w.poller != nil {
		w.poller.Unregister(w.ctx.EventFD())
	}
	if err := w.ctx.Destroy(); err != nil {
		return coreerr.Wrap("aio_teardown", coreerr.CodeDescriptorRead, err)
	}
	return nil
}

// onReadable is the poller callback registered against the completion
// descriptor. It drains the descriptor fully (looping until EAGAIN,
// retrying on EINTR; any other error is fatal per this core's error
// handling design), then drains that many kernel completions.
func (w *Watcher) onReadable(fd int, mask uint32) {
	count, err := w.drainDescriptor(fd)
	if err != nil {
		w.logger.Error("aio: fatal descriptor read error", "error", err)
		panic(fmt.Sprintf("aio: fatal descriptor read error: %v", err))
	}
	if count > 0 {
		w.Drain(int(count))
	}
}

// drainDescriptor reads the eventfd's accumulated completion counter,
// looping until EAGAIN in case multiple writes coalesced or raced with
// this read.
func (w *Watcher) drainDescriptor(fd int) (uint64, error) {
	var total uint64
	buf := make([]byte, constants.DrainReadBufSize)
	for {
		n, err := unix.Read(fd, buf)
		if err != nil {
			if err == unix.EAGAIN {
				return total, nil
			}
			if err == unix.EINTR {
				continue
			}
			return total, err
		}
		if n == 8 {
			total += binary.NativeEndian.Uint64(buf)
		} else if n > 0 {
			// Fallback byte-accumulation mode (pipe-based notifier):
			// each byte written represents one pending completion.
			total += uint64(n)
		} else {
			return total, nil
		}
	}
}

// Drain asks the kernel for up to count completions with a zero-timeout
// (non-blocking) wait, demultiplexing each one back to its owning
// Request. It keeps calling io_getevents until count completions have
// been harvested or the kernel reports none pending.
func (w *Watcher) Drain(count int) {
	remaining := count
	for remaining > 0 {
		batch := drainBatch
		if remaining < batch {
			batch = remaining
		}
		events := make([]kaio.Event, batch)
		n, err := w.ctx.GetEvents(events, 0, true)
		if err != nil {
			w.logger.Error("aio: fatal io_getevents error", "error", err)
			panic(fmt.Sprintf("aio: fatal io_getevents error: %v", err))
		}
		if n == 0 {
			return
		}
		for i := 0; i < n; i++ {
			w.deliver(events[i])
		}
		remaining -= n
	}
}

func (w *Watcher) deliver(ev kaio.Event) {
	w.mu.Lock()
	req, ok := w.tags[ev.Data]
	if ok {
		delete(w.tags, ev.Data)
	}
	w.mu.Unlock()

	if !ok {
		w.logger.Warn("aio: completion for unknown tag", "tag", ev.Data)
		return
	}

	fire := req.applyCompletion(ev.Res, ev.Res2)
	if fire {
		w.obs.ObserveAIOComplete(req.result, 0)
		if req.Callback != nil {
			req.Callback(req)
		}
	}
}

// register records that tag's completion belongs to req, for deliver to
// resolve later. Matches the kernel's aio_data tag mechanism, but with a
// dense per-watcher counter instead of a raw request pointer, so a
// misdelivered or duplicate completion can never dereference freed
// memory.
func (w *Watcher) register(tag uint64, req *Request) {
	w.mu.Lock()
	w.tags[tag] = req
	w.mu.Unlock()
}

func (w *Watcher) unregister(tag uint64) {
	w.mu.Lock()
	delete(w.tags, tag)
	w.mu.Unlock()
}

func (w *Watcher) newTag() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextTag++
	return w.nextTag
}
