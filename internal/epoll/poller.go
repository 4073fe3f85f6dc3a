//go:build linux

// Package epoll provides a minimal internal/interfaces.Poller built on
// epoll_create1/epoll_ctl/epoll_wait. It is not part of this core's
// spec'd contract (the readiness poller is an external collaborator),
// but a working implementation lets the aio and timer packages be
// exercised end-to-end without every caller bringing their own.
package epoll

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/loopforge/uvcore/internal/interfaces"
)

// Poller implements interfaces.Poller over a single epoll instance.
type Poller struct {
	epfd int

	mu   sync.Mutex
	subs map[int]interfaces.PollerCallback
}

// New creates an epoll instance.
func New() (*Poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}
	return &Poller{epfd: fd, subs: make(map[int]interfaces.PollerCallback)}, nil
}

func toEpollEvents(flags uint32) uint32 {
	var ev uint32
	if flags&interfaces.ReadableEvent != 0 {
		ev |= unix.EPOLLIN
	}
	if flags&interfaces.WritableEvent != 0 {
		ev |= unix.EPOLLOUT
	}
	return ev
}

// Register arms fd with epoll for the requested readiness flags.
func (p *Poller) Register(fd int, flags uint32, cb interfaces.PollerCallback) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ev := &unix.EpollEvent{Events: toEpollEvents(flags), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, ev); err != nil {
		return fmt.Errorf("epoll_ctl(ADD): %w", err)
	}
	p.subs[fd] = cb
	return nil
}

// Unregister disarms fd. It is a no-op if fd was never registered.
func (p *Poller) Unregister(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.subs[fd]; !ok {
		return nil
	}
	delete(p.subs, fd)
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("epoll_ctl(DEL): %w", err)
	}
	return nil
}

// Wait blocks for up to timeoutMillis (negative means indefinitely) and
// dispatches every ready descriptor to its registered callback. It
// returns the number of descriptors that were ready.
func (p *Poller) Wait(timeoutMillis int) (int, error) {
	var events [64]unix.EpollEvent
	n, err := unix.EpollWait(p.epfd, events[:], timeoutMillis)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, fmt.Errorf("epoll_wait: %w", err)
	}

	p.mu.Lock()
	ready := make([]struct {
		fd   int
		cb   interfaces.PollerCallback
		mask uint32
	}, 0, n)
	for i := 0; i < n; i++ {
		fd := int(events[i].Fd)
		if cb, ok := p.subs[fd]; ok {
			ready = append(ready, struct {
				fd   int
				cb   interfaces.PollerCallback
				mask uint32
			}{fd, cb, events[i].Events})
		}
	}
	p.mu.Unlock()

	for _, r := range ready {
		r.cb(r.fd, r.mask)
	}
	return n, nil
}

// Close releases the epoll instance.
func (p *Poller) Close() error {
	return unix.Close(p.epfd)
}

var _ interfaces.Poller = (*Poller)(nil)
