//go:build linux

package kaio

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/loopforge/uvcore/internal/bufpool"
)

// linuxContext is the real implementation of Context, issuing raw
// io_setup/io_submit/io_getevents/io_destroy syscalls. golang.org/x/sys/
// unix exports the syscall numbers but, unlike io_uring, the kernel AIO
// interface needs no ring memory or manual memory fencing: io_submit and
// io_getevents are ordinary blocking (or non-blocking, with a zero
// timespec) syscalls that the kernel synchronizes internally.
type linuxContext struct {
	ctxID   uintptr // aio_context_t, opaque to userspace
	eventFD int
}

// NewContext creates a kernel AIO context sized for nrEvents in-flight
// requests and an eventfd for completion notification, matching
// uv__aio_init/uv__aio_start in the original design.
func NewContext(nrEvents int) (Context, error) {
	var ctxID uintptr
	if _, _, errno := unix.Syscall(unix.SYS_IO_SETUP, uintptr(nrEvents), uintptr(unsafe.Pointer(&ctxID)), 0); errno != 0 {
		return nil, fmt.Errorf("io_setup: %w", errno)
	}

	efd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Syscall(unix.SYS_IO_DESTROY, ctxID, 0, 0)
		return nil, fmt.Errorf("eventfd: %w", err)
	}

	return &linuxContext{ctxID: ctxID, eventFD: efd}, nil
}

func (c *linuxContext) EventFD() int { return c.eventFD }

func (c *linuxContext) Submit(reqs []IOCB) (int, error) {
	if len(reqs) == 0 {
		return 0, nil
	}

	cbs := make([]iocb, len(reqs))
	ptrs := make([]*iocb, len(reqs))
	for i, r := range reqs {
		cb := &cbs[i]
		cb.Data = r.Data
		cb.Fd = r.Fd
		cb.OpCode = r.OpCode
		cb.NBytes = uint64(len(r.Buf))
		cb.Offset = r.Offset
		if len(r.Buf) > 0 {
			cb.Buf = uint64(uintptr(unsafe.Pointer(&r.Buf[0])))
		}
		if r.UseResFD {
			cb.Flags |= IOCBFlagResFD
			cb.ResFd = r.ResFD
		}
		ptrs[i] = cb
	}

	n, _, errno := unix.Syscall(unix.SYS_IO_SUBMIT, c.ctxID, uintptr(len(ptrs)), uintptr(unsafe.Pointer(&ptrs[0])))
	if errno != 0 {
		return int(n), fmt.Errorf("io_submit: %w", errno)
	}
	return int(n), nil
}

func (c *linuxContext) GetEvents(out []Event, minNr int, nonBlocking bool) (int, error) {
	if len(out) == 0 {
		return 0, nil
	}

	rawBuf := bufpool.GetEventBuf(len(out))
	defer bufpool.PutEventBuf(rawBuf)
	raw := unsafe.Slice((*ioEvent)(unsafe.Pointer(&rawBuf[0])), len(out))

	var timeoutPtr unsafe.Pointer
	var ts unix.Timespec
	if nonBlocking {
		ts = unix.Timespec{Sec: 0, Nsec: 0}
		timeoutPtr = unsafe.Pointer(&ts)
	}

	n, _, errno := unix.Syscall6(unix.SYS_IO_GETEVENTS, c.ctxID, uintptr(minNr), uintptr(len(raw)),
		uintptr(unsafe.Pointer(&raw[0])), uintptr(timeoutPtr), 0)
	if errno != 0 {
		if errno == unix.EINTR {
			return 0, nil
		}
		return 0, fmt.Errorf("io_getevents: %w", errno)
	}

	for i := 0; i < int(n); i++ {
		out[i] = Event{Data: raw[i].Data, Obj: raw[i].Obj, Res: raw[i].Res, Res2: raw[i].Res2}
	}
	return int(n), nil
}

func (c *linuxContext) Destroy() error {
	unix.Close(c.eventFD)
	if _, _, errno := unix.Syscall(unix.SYS_IO_DESTROY, c.ctxID, 0, 0); errno != 0 {
		return fmt.Errorf("io_destroy: %w", errno)
	}
	return nil
}
