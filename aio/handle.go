package aio

import (
	"github.com/loopforge/uvcore/internal/constants"
	"github.com/loopforge/uvcore/internal/coreerr"
	"github.com/loopforge/uvcore/internal/kaio"
	"github.com/loopforge/uvcore/internal/logging"
)

// Handle fans a loop's AIO completions out to one user callback. 0..N
// Handles may share a single Watcher.
type Handle struct {
	watcher *Watcher
	userCB  func(*Handle, *Request)
	logger  *logging.Logger
}

// NewHandle registers a new Handle against watcher. userCB is invoked
// once per submitted Request, after all of that request's buffers have
// completed.
func NewHandle(watcher *Watcher, userCB func(*Handle, *Request)) (*Handle, error) {
	if userCB == nil {
		return nil, coreerr.New("aio_init", coreerr.CodeInvalid)
	}
	return &Handle{watcher: watcher, userCB: userCB, logger: logging.Default()}, nil
}

// Close detaches the handle. Any requests already submitted through it
// still run to completion; Close only stops it from being used for
// further submissions.
func (h *Handle) Close() {
	h.watcher = nil
	h.userCB = nil
}

// Submit commits req for asynchronous execution: it validates the
// buffer count, builds one kernel control block per buffer tagged for
// this watcher's completion descriptor, and submits the batch to the
// kernel AIO context.
//
// Validation failures return a *coreerr.Error with no allocation and no
// kernel interaction (nbufs checked first). A kernel submission anomaly
// — fewer iocbs accepted than requested — is treated as fatal and panics,
// per this core's error handling design: the legacy AIO submit interface
// is documented to be all-or-nothing under normal load, so partial
// acceptance means the core's bookkeeping can no longer be trusted.
func (h *Handle) Submit(req *Request) error {
	nbufs := len(req.Buffers)
	if nbufs < constants.MinBatch || nbufs > constants.MaxBatch {
		return coreerr.New("aio_submit", coreerr.CodeInvalid)
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	req.outstanding = nbufs
	req.result = 0
	userCB := h.userCB
	req.Callback = func(r *Request) {
		userCB(h, r)
	}

	iocbs := make([]kaio.IOCB, nbufs)
	tags := make([]uint64, nbufs)
	offset := req.Offset
	opcode := kaio.IOCBCmdPread
	if req.Op == OpWrite {
		opcode = kaio.IOCBCmdPwrite
	}

	for i, buf := range req.Buffers {
		tag := h.watcher.newTag()
		tags[i] = tag
		iocbs[i] = kaio.IOCB{
			Data:     tag,
			Fd:       uint32(req.File.Fd()),
			OpCode:   opcode,
			Buf:      buf.Base,
			Offset:   offset,
			UseResFD: true,
			ResFD:    uint32(h.watcher.ctx.EventFD()),
		}
		offset += int64(len(buf.Base))
	}

	for _, tag := range tags {
		h.watcher.register(tag, req)
	}

	n, err := h.watcher.ctx.Submit(iocbs)
	if err != nil {
		for _, tag := range tags {
			h.watcher.unregister(tag)
		}
		h.watcher.obs.ObserveAIOSubmit(nbufs, err)
		return coreerr.Wrap("aio_submit", coreerr.CodeResourceExhausted, err)
	}
	if n != nbufs {
		h.logger.Error("aio: partial submission accepted", "accepted", n, "requested", nbufs)
		panic(coreerr.New("aio_submit", coreerr.CodeKernelAnomaly).Error())
	}

	h.watcher.obs.ObserveAIOSubmit(nbufs, nil)
	return nil
}
