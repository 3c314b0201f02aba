package videocodec

import (
	"sync"
	"time"

	"github.com/qualcomm/qcnode/backend"
	"github.com/qualcomm/qcnode/bufferdesc"
	"github.com/qualcomm/qcnode/framedesc"
	"github.com/qualcomm/qcnode/internal/workerthread"
	"github.com/qualcomm/qcnode/node"
	"github.com/qualcomm/qcnode/qcstatus"
	"github.com/qualcomm/qcnode/videocodec/driver"
)

// waitLoadStartStopDrain and waitGeneralSettle are the two timeout
// classes §4.G.4 calls out: "order of ~10ms for load/start/stop/drain;
// ~1ms for general state settle".
const (
	waitLoadStartStopDrain = 10 * time.Millisecond
	waitGeneralSettle      = 1 * time.Millisecond
)

// core is the shared engine behind both Encoder and Decoder. It is not
// itself a node.Node — Encoder/Decoder embed it and supply the
// kind-specific Start/Stop sequencing that §4.G.2 documents as the one
// place the two directions genuinely diverge.
type core struct {
	*node.Base

	ch  driver.Channel
	cfg Config

	input  *port
	output *port

	mu            sync.Mutex
	drainReceived bool
	lastFlagSeen  bool
	reconfiguring bool

	pump    *workerthread.Thread
	pumpRun bool

	registry   *backend.Registry
	variant    backend.Variant
	registered []uintptr
}

func newCore(name string, id int, ch driver.Channel) *core {
	return &core{
		Base: node.NewBase(name, id),
		ch:   ch,
	}
}

// withRegistry installs the backend.Registry/Variant pair commonInit
// uses to pre-register static.bufferIds at Initialize and Stop uses to
// deregister them when static.deRegisterAllBuffersWhenStop is set
// (§6, §4.F). A core with no registry installed parses both fields but
// never touches a backend, matching nodeconfig.Stub's default.
func (c *core) withRegistry(registry *backend.Registry, variant backend.Variant) {
	c.registry = registry
	c.variant = variant
}

// registerBuffers pre-registers the buffers staticBuffers[i] named by
// cfg.BufferIDs against the configured backend (§6: "indices into
// Init.buffers to pre-register"). A registration failure is logged and
// otherwise ignored, matching nodeconfig.Stub.registerBuffers: codec
// pre-registration is a warm-up for the dma_buf import path, not a
// precondition commonInit's own enrollStatic ioctls depend on.
func (c *core) registerBuffers(staticBuffers []bufferdesc.Descriptor) {
	if c.registry == nil {
		return
	}
	for _, idx := range c.cfg.BufferIDs {
		if idx < 0 || idx >= len(staticBuffers) {
			c.Log().Warn("bufferIds index out of range", "index", idx, "len", len(staticBuffers))
			continue
		}
		_, st := c.registry.RegBuf(c.variant, staticBuffers[idx])
		if st != qcstatus.OK {
			c.Log().Warn("buffer pre-registration failed", "index", idx, "status", st.String())
			continue
		}
		c.registered = append(c.registered, staticBuffers[idx].VirtualAddr)
	}
}

// deregisterBuffers releases every address registerBuffers registered,
// honoring cfg.DeregAllBuffersOnStop (§6 "deRegisterAllBuffersWhenStop").
func (c *core) deregisterBuffers() {
	if !c.cfg.DeregAllBuffersOnStop || c.registry == nil {
		return
	}
	for _, addr := range c.registered {
		c.registry.DeregBuf(c.variant, addr)
	}
	c.registered = nil
}

// commonInit runs §4.G.2's init sequence steps 1-7, parameterized by
// session/codec and by which sides get static-mode enrollment at init
// time (the encoder enrolls both; the decoder enrolls input only,
// enrolling output after the first OUTPUT_RECONFIG).
func (c *core) commonInit(cfg Config, session driver.Session, codec driver.Codec, staticBuffers []bufferdesc.Descriptor, enrollOutputNow bool) qcstatus.Status {
	c.cfg = cfg
	if !cfg.ValidateFormats() {
		return qcstatus.BadArguments
	}

	inputMode := driver.BufferModeDynamic
	if !cfg.InputDynamicMode {
		inputMode = driver.BufferModeStatic
	}
	outputMode := driver.BufferModeDynamic
	if !cfg.OutputDynamicMode {
		outputMode = driver.BufferModeStatic
	}
	c.input = newPort(inputMode)
	c.output = newPort(outputMode)

	if err := c.ch.Ioctl(driver.CmdSetSession, struct {
		Session driver.Session
		Codec   driver.Codec
	}{session, codec}); err != nil {
		return qcstatus.Fail
	}
	if err := c.ch.Ioctl(driver.CmdSetFrameRate, cfg.FrameRate); err != nil {
		return qcstatus.Fail
	}
	if err := c.ch.Ioctl(driver.CmdSetFrameSize, struct{ Width, Height uint32 }{cfg.Width, cfg.Height}); err != nil {
		return qcstatus.Fail
	}
	if err := c.ch.Ioctl(driver.CmdSetBufferMode, struct {
		Input, Output driver.BufferMode
	}{inputMode, outputMode}); err != nil {
		return qcstatus.Fail
	}

	inCount, st := NegotiateBufferReq(c.ch, driver.SideInput, cfg.NumInputBufferReq)
	if st != qcstatus.OK {
		return st
	}
	c.input.declared = inCount

	outCount, st := NegotiateBufferReq(c.ch, driver.SideOutput, cfg.NumOutputBufferReq)
	if st != qcstatus.OK {
		return st
	}
	c.output.declared = outCount

	if inputMode == driver.BufferModeStatic {
		if st := c.enrollStatic(driver.SideInput, staticBuffers); st != qcstatus.OK {
			return st
		}
	}
	if enrollOutputNow && outputMode == driver.BufferModeStatic {
		if st := c.enrollStatic(driver.SideOutput, staticBuffers); st != qcstatus.OK {
			return st
		}
	}

	c.registerBuffers(staticBuffers)

	if err := c.ch.Ioctl(driver.CmdLoadResources, nil); err != nil {
		return qcstatus.Fail
	}
	ev, err := c.ch.WaitEvent(waitLoadStartStopDrain)
	if err != nil || ev.Kind != driver.EvtLoadResourcesDone {
		return qcstatus.Timeout
	}
	return qcstatus.OK
}

func (c *core) enrollStatic(side driver.Side, descs []bufferdesc.Descriptor) qcstatus.Status {
	p := c.input
	if side == driver.SideOutput {
		p = c.output
	}
	for _, d := range descs {
		if err := c.ch.Ioctl(driver.CmdSetBuffer, struct {
			Side driver.Side
			Desc bufferdesc.Descriptor
		}{side, d}); err != nil {
			return qcstatus.Fail
		}
		p.enroll(int32(d.DmaHandle))
	}
	return qcstatus.OK
}

// commonStart issues startCmd and waits for the event that takes the
// Node to RUNNING.
func (c *core) commonStart(startCmd driver.Command) qcstatus.Status {
	if err := c.ch.Ioctl(startCmd, nil); err != nil {
		return qcstatus.Fail
	}
	ev, err := c.ch.WaitEvent(waitLoadStartStopDrain)
	if err != nil || ev.Kind != driver.EvtStart {
		return qcstatus.Timeout
	}
	return qcstatus.OK
}

// submitFrame implements the per-frame submit rule of §4.G.2 for one
// side, given the FrameDescriptor slot bufferdesc for that side.
func (c *core) submitFrame(side driver.Side, desc bufferdesc.Descriptor) qcstatus.Status {
	p := c.input
	cmd := driver.CmdEmptyInputBuffer
	if side == driver.SideOutput {
		p = c.output
		cmd = driver.CmdFillOutputBuffer
	}

	handle := int32(desc.DmaHandle)
	if st := p.submit(handle); st != qcstatus.OK {
		return st
	}

	io := driver.FrameIO{
		Address:     uintptr(desc.VirtualAddr),
		DMAHandle:   handle,
		AllocLen:    uint32(desc.TotalSize),
		DataLen:     uint32(desc.ValidSize),
		TimestampUs: desc.TimestampNs / 1000,
		MarkData:    desc.AppMarkData,
		Flags:       desc.FrameFlags,
	}
	if err := c.ch.Ioctl(cmd, io); err != nil {
		p.release(handle)
		return qcstatus.Fail
	}
	return qcstatus.OK
}

// ProcessFrameDescriptor submits fd's input slot (port 0) and/or output
// slot (port 1) per the default video codec buffer map
// (node.DefaultBufferMap(KindVideoEncoder/KindVideoDecoder)): a Dummy
// slot is simply skipped, letting a caller submit input-only,
// output-only, or both in one call.
func (c *core) ProcessFrameDescriptor(fd *framedesc.FrameDescriptor) qcstatus.Status {
	if st := c.RejectWrongState(); st != qcstatus.OK {
		return st
	}

	in := fd.GetBuffer(0)
	if !in.IsDummy() {
		if st := c.submitFrame(driver.SideInput, in); st != qcstatus.OK {
			return st
		}
	}
	out := fd.GetBuffer(1)
	if !out.IsDummy() {
		if st := c.submitFrame(driver.SideOutput, out); st != qcstatus.OK {
			return st
		}
	}
	return qcstatus.OK
}

// StartCompletionLoop launches the background worker that pumps
// RESP_INPUT_DONE/RESP_OUTPUT_DONE (and OUTPUT_RECONFIG/fatal) events
// while the Node is RUNNING, forwarding each through Emit (§9:
// "explicit backend thread... publishes completion via a small command
// queue"). It must not be running during Initialize/Start/Stop, which
// wait on their own protocol events from the same Channel directly.
func (c *core) StartCompletionLoop() {
	c.mu.Lock()
	if c.pumpRun {
		c.mu.Unlock()
		return
	}
	c.pumpRun = true
	c.mu.Unlock()

	c.pump = workerthread.New()
	c.pump.Post(func() { c.pumpLoop() })
}

// StopCompletionLoop signals the pump to exit and blocks until it has.
func (c *core) StopCompletionLoop() {
	c.mu.Lock()
	c.pumpRun = false
	c.mu.Unlock()
	if c.pump != nil {
		// pumpLoop occupies the worker goroutine until it sees pumpRun
		// false, so this no-op only runs once the loop has returned.
		c.pump.CallVoid(func() {})
		c.pump.Stop()
	}
}

func (c *core) pumpLoop() {
	for {
		c.mu.Lock()
		run := c.pumpRun
		c.mu.Unlock()
		if !run {
			return
		}

		ev, err := c.ch.WaitEvent(waitGeneralSettle)
		if err != nil {
			continue
		}
		info, fatal := c.HandleEvent(ev)
		c.Emit(info)
		if fatal {
			c.Force(node.StateError)
		}
	}
}

// HandleEvent applies one completion/notification event to the shared
// state (in-flight maps, the reconfiguring flag) and returns the
// EventInfo to forward to the user callback, plus whether the event
// indicated a terminal/error condition the caller must additionally
// Force the state machine into StateError for. Input/output-done events
// only clear the in-flight mark; the event's length, timestamp, mark
// data, flags and frame kind are not copied into any descriptor. The
// reconfiguring flag is reported by the monitoring interface; submitFrame
// does not consult it, so output submissions are not held back.
func (c *core) HandleEvent(ev driver.Event) (node.EventInfo, bool) {
	switch ev.Kind {
	case driver.EvtInputDone:
		c.input.complete(ev.DMAHandle)
		return node.EventInfo{NodeID: c.ID(), Status: qcstatus.OK}, false

	case driver.EvtOutputDone:
		c.output.complete(ev.DMAHandle)
		return node.EventInfo{NodeID: c.ID(), Status: qcstatus.OK}, false

	case driver.EvtOutputReconfig:
		c.mu.Lock()
		c.reconfiguring = true
		c.mu.Unlock()
		return node.EventInfo{NodeID: c.ID(), Status: qcstatus.OK}, false

	case driver.EvtHWFatal, driver.EvtClientFatal:
		return node.EventInfo{NodeID: c.ID(), Status: qcstatus.Fail}, true

	default:
		return node.EventInfo{NodeID: c.ID(), Status: qcstatus.OK}, false
	}
}

// commonDeinit runs §4.G.2's deinit sequence: RELEASE_RESOURCES,
// RESP_RELEASE_RESOURCES, free static-mode buffers, close device.
func (c *core) commonDeinit() qcstatus.Status {
	if err := c.ch.Ioctl(driver.CmdReleaseResources, nil); err != nil {
		return qcstatus.Fail
	}
	ev, err := c.ch.WaitEvent(waitLoadStartStopDrain)
	if err != nil || ev.Kind != driver.EvtReleaseResourcesDone {
		return qcstatus.Timeout
	}

	if c.input.mode == driver.BufferModeStatic {
		if err := c.ch.Ioctl(driver.CmdFreeBuffer, driver.SideInput); err != nil {
			return qcstatus.Fail
		}
	}
	if c.output.mode == driver.BufferModeStatic {
		if err := c.ch.Ioctl(driver.CmdFreeBuffer, driver.SideOutput); err != nil {
			return qcstatus.Fail
		}
	}

	if err := c.ch.Close(); err != nil {
		return qcstatus.Fail
	}
	return qcstatus.OK
}
