package uvcore

import (
	"sync"

	"github.com/loopforge/uvcore/internal/interfaces"
)

// FakeClock is a settable interfaces.Clock for deterministic tests: it
// never consults the wall clock, only whatever SetMillis last stored.
type FakeClock struct {
	mu     sync.Mutex
	millis int64
}

// NewFakeClock creates a FakeClock starting at 0.
func NewFakeClock() *FakeClock { return &FakeClock{} }

// NowMillis implements interfaces.Clock.
func (c *FakeClock) NowMillis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.millis
}

// SetMillis sets the clock to an absolute time.
func (c *FakeClock) SetMillis(ms int64) {
	c.mu.Lock()
	c.millis = ms
	c.mu.Unlock()
}

// Advance moves the clock forward by deltaMs and returns the new time.
func (c *FakeClock) Advance(deltaMs int64) int64 {
	c.mu.Lock()
	c.millis += deltaMs
	now := c.millis
	c.mu.Unlock()
	return now
}

var _ interfaces.Clock = (*FakeClock)(nil)

// FakePoller is an in-memory interfaces.Poller double: Register/
// Unregister just record bookkeeping, and tests drive callbacks
// directly via Fire instead of waiting on real descriptor readiness.
type FakePoller struct {
	mu   sync.Mutex
	subs map[int]interfaces.PollerCallback

	registerCalls   int
	unregisterCalls int
}

// NewFakePoller creates an empty FakePoller.
func NewFakePoller() *FakePoller {
	return &FakePoller{subs: make(map[int]interfaces.PollerCallback)}
}

// Register implements interfaces.Poller.
func (p *FakePoller) Register(fd int, flags uint32, cb interfaces.PollerCallback) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registerCalls++
	p.subs[fd] = cb
	return nil
}

// Unregister implements interfaces.Poller.
func (p *FakePoller) Unregister(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unregisterCalls++
	delete(p.subs, fd)
	return nil
}

// Fire invokes fd's registered callback, if any, simulating the poller
// observing it as ready. Returns false if fd is not registered.
func (p *FakePoller) Fire(fd int, mask uint32) bool {
	p.mu.Lock()
	cb, ok := p.subs[fd]
	p.mu.Unlock()
	if !ok {
		return false
	}
	cb(fd, mask)
	return true
}

// Registered reports whether fd currently has a callback registered.
func (p *FakePoller) Registered(fd int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.subs[fd]
	return ok
}

// CallCounts returns how many times Register/Unregister have been
// called, for tests asserting setup/teardown bookkeeping.
func (p *FakePoller) CallCounts() (registers, unregisters int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.registerCalls, p.unregisterCalls
}

var _ interfaces.Poller = (*FakePoller)(nil)
