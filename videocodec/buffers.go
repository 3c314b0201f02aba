package videocodec

import (
	"sync"

	"github.com/qualcomm/qcnode/qcstatus"
	"github.com/qualcomm/qcnode/videocodec/driver"
)

// port tracks one side's (input or output) buffer mode and in-flight
// set (§4.G.2 "Per-frame submit", §4.G.3).
type port struct {
	mu       sync.Mutex
	mode     driver.BufferMode
	declared uint32 // numInputBufferReq / numOutputBufferReq, post-negotiation
	inflight map[int32]bool

	// enrolled holds the static-mode buffer descriptors' dma handles, so
	// a submission against an unenrolled handle is rejected even if the
	// in-flight set has room.
	enrolled map[int32]bool
}

func newPort(mode driver.BufferMode) *port {
	return &port{mode: mode, inflight: make(map[int32]bool), enrolled: make(map[int32]bool)}
}

func (p *port) enroll(handle int32) {
	p.mu.Lock()
	p.enrolled[handle] = true
	p.mu.Unlock()
}

// submit applies the lookup/insert rule from §4.G.2 for one dma handle,
// returning OK if the submission may proceed or NOMEM if it must be
// rejected. On OK the handle is marked in-use; callers must call
// complete(handle) once the corresponding RESP_*_DONE event arrives, or
// release(handle) if the ioctl itself failed.
func (p *port) submit(handle int32) qcstatus.Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.mode {
	case driver.BufferModeDynamic:
		if p.inflight[handle] {
			return qcstatus.NoMem
		}
		if !p.inflight[handle] && uint32(len(p.inflight)) >= p.declared {
			return qcstatus.NoMem
		}
		p.inflight[handle] = true
		return qcstatus.OK
	case driver.BufferModeStatic:
		if !p.enrolled[handle] || p.inflight[handle] {
			return qcstatus.NoMem
		}
		p.inflight[handle] = true
		return qcstatus.OK
	default:
		return qcstatus.BadState
	}
}

func (p *port) release(handle int32) {
	p.mu.Lock()
	delete(p.inflight, handle)
	p.mu.Unlock()
}

func (p *port) complete(handle int32) {
	p.release(handle)
}

func (p *port) inFlightCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inflight)
}

// NegotiateBufferReq implements the unified rule of §4.G.2 step 5 (the
// spec's authoritative replacement for the source's two slightly
// different video-node/video-component branches, per §9):
//
//	driver reports {actualCount, size}; if caller declared fewer than
//	actualCount, fail BadArguments; if caller declared more, write the
//	caller's count back to the driver, re-query, and require the reply
//	to equal the caller's count exactly.
func NegotiateBufferReq(ch driver.Channel, side driver.Side, declared uint32) (uint32, qcstatus.Status) {
	req := &driver.BufferReqPayload{Side: side, Requested: declared}
	if err := ch.Ioctl(driver.CmdRequestBuffers, req); err != nil {
		return 0, qcstatus.Fail
	}

	if declared < req.Reply.ActualCount {
		return 0, qcstatus.BadArguments
	}
	if declared == req.Reply.ActualCount {
		return declared, qcstatus.OK
	}

	// declared > actualCount: write caller's count back, re-query, require
	// an exact echo.
	req2 := &driver.BufferReqPayload{Side: side, Requested: declared}
	if err := ch.Ioctl(driver.CmdRequestBuffers, req2); err != nil {
		return 0, qcstatus.Fail
	}
	if req2.Reply.ActualCount != declared {
		return 0, qcstatus.BadArguments
	}
	return declared, qcstatus.OK
}
