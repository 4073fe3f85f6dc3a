// Package kaio wraps the Linux kernel's legacy asynchronous I/O interface
// (io_setup/io_submit/io_getevents/io_destroy) behind a small Context
// interface, plus the iocb/io_event wire structs the kernel expects.
//
// This is deliberately the legacy AIO interface, not io_uring: it has no
// submission/completion ring to mmap or fence, so submission and
// completion harvesting are both plain syscalls.
package kaio

import "unsafe"

// IOCB opcodes, matching the kernel's io_iocb_cmd enum values for
// IOCB_CMD_PREAD and IOCB_CMD_PWRITE.
const (
	IOCBCmdPread  uint16 = 0
	IOCBCmdPwrite uint16 = 1
)

// IOCBFlagResFD tells the kernel to signal completion of this iocb by
// writing to the eventfd named in iocb.ResFd, in addition to (or instead
// of) the standard completion-queue mechanism.
const IOCBFlagResFD uint32 = 1 << 0

// iocb is the kernel's control-block format for one AIO request. Field
// order and widths mirror struct iocb from linux/aio_abi.h for the
// standard 64-bit layout (x86_64, arm64).
type iocb struct {
	Data      uint64 // user data, returned verbatim in the completion
	Key       uint32 // kernel-internal, must be zero on submit
	RwFlags   uint32 // RWF_* flags
	OpCode    uint16
	ReqPrio   int16
	Fd        uint32
	Buf       uint64 // buffer address
	NBytes    uint64
	Offset    int64
	Reserved2 uint64
	Flags     uint32 // IOCBFlagResFD et al.
	ResFd     uint32 // eventfd to notify, when Flags has IOCBFlagResFD set
}

// ioEvent is the kernel's completion record format, matching struct
// io_event from linux/aio_abi.h.
type ioEvent struct {
	Data uint64 // copied from the originating iocb's Data
	Obj  uint64 // address of the originating iocb
	Res  int64  // result: bytes transferred, or a negative errno
	Res2 int64  // secondary result, normally 0
}

// Compile-time layout assertions: a silent ABI mismatch here would
// corrupt every submission.
var _ [64]byte = [unsafe.Sizeof(iocb{})]byte{}
var _ [32]byte = [unsafe.Sizeof(ioEvent{})]byte{}

// Event is the decoded, exported form of ioEvent handed back to callers
// of Context.GetEvents.
type Event struct {
	Data uint64
	Obj  uint64
	Res  int64
	Res2 int64
}

// IOCB is the exported, decoded form of one submission accepted by
// Context.Submit.
type IOCB struct {
	Data    uint64
	Fd      uint32
	OpCode  uint16
	Buf     []byte
	Offset  int64
	ResFD   uint32
	UseResFD bool
}

// Context is the Linux kernel AIO contract this package wraps. A real
// implementation (see kaio_linux.go) issues raw io_setup/io_submit/
// io_getevents/io_destroy syscalls; FakeContext (kaio_fake.go) is an
// in-memory double for tests that never touch the kernel.
type Context interface {
	// Submit enqueues the given requests. It returns the number of
	// requests the kernel accepted. Per spec, a return value less than
	// len(reqs) is a kernel submission anomaly the caller must treat as
	// fatal, not retry.
	Submit(reqs []IOCB) (int, error)

	// GetEvents harvests up to len(out) completions, waiting no longer
	// than the given behavior allows. A zero-timeout, non-blocking call
	// is what the watcher uses on every drain.
	GetEvents(out []Event, minNr int, nonBlocking bool) (int, error)

	// EventFD returns the completion-notification descriptor consumers
	// should register with their readiness poller.
	EventFD() int

	// Destroy releases the context and its eventfd.
	Destroy() error
}
