// Package uvcore wires the AIO submission/completion bridge (package
// aio) and the hierarchical timer wheel (package timer) to a caller-
// supplied poller and clock, the way a libuv-style event loop wires its
// own io_uring/epoll and timer backends to one reactor.
package uvcore

import "github.com/loopforge/uvcore/internal/coreerr"

// Error is a structured error carrying the failing operation, a coarse
// classification, and (when the failure originated at a syscall
// boundary) the kernel errno. It supports errors.Is/As and Unwrap.
//
// The concrete type lives in internal/coreerr so the aio and timer
// packages can construct and return it without importing this package
// (which in turn imports them) — re-exported here as the public name.
type Error = coreerr.Error

// Code classifies an Error at a level useful for dispatch (retry,
// log-and-continue, fatal), independent of the underlying errno.
type Code = coreerr.Code

const (
	CodeInvalid           = coreerr.CodeInvalid
	CodeResourceExhausted = coreerr.CodeResourceExhausted
	CodeKernelAnomaly     = coreerr.CodeKernelAnomaly
	CodeCompletionFailed  = coreerr.CodeCompletionFailed
	CodeDescriptorRead    = coreerr.CodeDescriptorRead
)

// NewError constructs an *Error with no wrapped cause.
func NewError(op string, code Code) *Error { return coreerr.New(op, code) }

// WrapError constructs an *Error wrapping inner.
func WrapError(op string, code Code, inner error) *Error { return coreerr.Wrap(op, code, inner) }
