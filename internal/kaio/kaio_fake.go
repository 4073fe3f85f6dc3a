package kaio

import (
	"errors"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// ErrShortSubmit is returned by FakeContext.Submit when injected to
// simulate a kernel submission anomaly (partial acceptance).
var ErrShortSubmit = errors.New("kaio: short submit")

// FakeContext is an in-memory double for Context, used by the aio and
// root package tests to drive completion scenarios deterministically
// without root privileges or a real Linux kernel. Tests inject
// completions with Complete; Submit keeps no record of the requests and,
// absent an injected short-submit, "accepts" every request.
type FakeContext struct {
	mu sync.Mutex

	// pipe stands in for the eventfd: writing a byte makes the read end
	// readable, exactly like the real eventfd does when nudged.
	readFD, writeFD *os.File

	pending []Event
	// forceShort, when >= 0, makes the next Submit report exactly that
	// many accepted requests instead of len(reqs).
	forceShort int
}

// NewFakeContext constructs a FakeContext. The returned file descriptor
// pair is a real OS pipe so that callers can register EventFD() with a real
// Poller in integration tests.
func NewFakeContext() (*FakeContext, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	// Match the real eventfd's non-blocking mode so a drain loop reading
	// this descriptor terminates on EAGAIN instead of blocking forever.
	if err := unix.SetNonblock(int(r.Fd()), true); err != nil {
		r.Close()
		w.Close()
		return nil, err
	}
	return &FakeContext{readFD: r, writeFD: w, forceShort: -1}, nil
}

func (f *FakeContext) EventFD() int { return int(f.readFD.Fd()) }

// ForceShortSubmit arranges for the next Submit call to report only n
// accepted requests, simulating a kernel submission anomaly (fewer iocbs
// accepted than requested).
func (f *FakeContext) ForceShortSubmit(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forceShort = n
}

func (f *FakeContext) Submit(reqs []IOCB) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.forceShort >= 0 {
		n := f.forceShort
		f.forceShort = -1
		if n > len(reqs) {
			n = len(reqs)
		}
		return n, nil
	}
	return len(reqs), nil
}

// Complete injects one completion event and nudges the notification
// descriptor readable, mirroring the kernel writing to the AIO
// completion queue and bumping the eventfd counter.
func (f *FakeContext) Complete(ev Event) {
	f.mu.Lock()
	f.pending = append(f.pending, ev)
	f.mu.Unlock()
	f.writeFD.Write([]byte{1})
}

func (f *FakeContext) GetEvents(out []Event, minNr int, nonBlocking bool) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := len(f.pending)
	if n > len(out) {
		n = len(out)
	}
	copy(out, f.pending[:n])
	f.pending = f.pending[n:]
	return n, nil
}

func (f *FakeContext) Destroy() error {
	f.readFD.Close()
	f.writeFD.Close()
	return nil
}

var _ Context = (*FakeContext)(nil)
