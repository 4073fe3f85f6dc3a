// Package aio implements the AIO submission/completion bridge: a Watcher
// owns the kernel AIO context and completion descriptor, a Handle fans
// submitted requests' completions out to a user callback, and a Request
// carries one file's vectored read or write.
package aio

// Op identifies the direction of a Request.
type Op int

const (
	OpRead Op = iota
	OpWrite
)

// File is the narrow subset of *os.File a Request needs: a kernel file
// descriptor. Kept as an interface so tests can submit against a
// synthetic descriptor without opening a real file.
type File interface {
	Fd() uintptr
}

// Buffer is one scatter/gather entry: a base address (backed by a Go
// byte slice) and implicit length len(Base).
type Buffer struct {
	Base []byte
}

// Request is a vectored read or write against File, owned by its issuer.
// This package only touches the fields documented here; callers populate
// File, Buffers, Offset, and Op, then hand the request to Handle.Submit,
// which wires Callback to the owning Handle's fan-out.
type Request struct {
	File    File
	Buffers []Buffer
	Offset  int64
	Op      Op

	// Callback fires exactly once, after every buffer's completion has
	// been applied. Result() gives the final aggregate/error value at
	// that point. Handle.Submit sets this; callers should not set it
	// themselves.
	Callback func(*Request)

	outstanding int
	result      int64
}

// Outstanding returns the number of buffers whose completions are still
// pending. It monotonically decreases from len(Buffers) to 0.
func (r *Request) Outstanding() int { return r.outstanding }

// Result returns the aggregate byte count on success, or the first
// observed failure's signed error code once any completion has failed.
func (r *Request) Result() int64 { return r.result }

// applyCompletion folds in one completion's res/res2 fields, following
// the AIO sum law and sticky-error law: summed while every completion so
// far has succeeded, frozen at the first failure's res value once any
// completion fails (res2 != 0, or a negative res, counts as a failure).
// It returns true when this was the request's last outstanding
// completion.
func (r *Request) applyCompletion(res, res2 int64) bool {
	switch {
	case r.result < 0:
		// Already sticky from an earlier failure; later completions
		// (success or failure) no longer modify result.
	case res2 != 0 || res < 0:
		if res < 0 {
			r.result = res
		} else {
			// res2 signaled failure even though res itself wasn't
			// negative; there's no well-defined positive error code to
			// surface, so freeze on a generic sticky marker.
			r.result = -1
		}
	default:
		r.result += res
	}
	r.outstanding--
	return r.outstanding == 0
}
