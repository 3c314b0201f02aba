package videocodec

import (
	"github.com/qualcomm/qcnode/backend"
	"github.com/qualcomm/qcnode/bufferdesc"
	"github.com/qualcomm/qcnode/node"
	"github.com/qualcomm/qcnode/qcstatus"
	"github.com/qualcomm/qcnode/videocodec/driver"
)

// Decoder is the video decoder Node (§4.G). It enrolls only input
// static buffers at init, deferring output enrollment until the first
// OUTPUT_RECONFIG event, and stops through the four-event ordered
// sequence in §4.G.2 rather than the encoder's single STOP.
type Decoder struct {
	*core
	codec driver.Codec
}

// NewDecoder constructs a Decoder Node bound to ch.
func NewDecoder(name string, id int, ch driver.Channel, codec driver.Codec) *Decoder {
	return &Decoder{core: newCore(name, id, ch), codec: codec}
}

// NewDecoderWithRegistry constructs a Decoder that pre-registers
// static.bufferIds against registry under variant at Initialize, and
// honors static.deRegisterAllBuffersWhenStop at Stop.
func NewDecoderWithRegistry(name string, id int, ch driver.Channel, codec driver.Codec, registry *backend.Registry, variant backend.Variant) *Decoder {
	d := &Decoder{core: newCore(name, id, ch), codec: codec}
	d.withRegistry(registry, variant)
	return d
}

func (d *Decoder) Initialize(init node.Init) qcstatus.Status {
	var errs []string
	cfg, st := ParseConfig(init.ConfigText, false, &errs)
	if st != qcstatus.OK {
		return st
	}
	staticBufs := init.Buffers
	d.SetCallback(init.Callback)
	d.BindLogger(cfg.LogLevel)

	return d.Enter("Initialize", []node.State{node.StateInitial}, node.StateInitializing, func() qcstatus.Status {
		return d.commonInit(cfg, driver.SessionDecode, d.codec, staticBufs, false)
	}, node.StateReady, node.StateError)
}

func (d *Decoder) Start() qcstatus.Status {
	st := d.Enter("Start", []node.State{node.StateReady}, node.StateStarting, func() qcstatus.Status {
		return d.commonStart(driver.CmdStartInput)
	}, node.StateRunning, node.StateError)
	if st == qcstatus.OK {
		d.StartCompletionLoop()
	}
	return st
}

// ReconfigureOutput re-enrolls the output side with newly-sized
// descriptors after an OUTPUT_RECONFIG event (§4.G.2). The caller
// allocates newDescs under the new requirements and hands them here;
// ReconfigureOutput negotiates an output buffer count of len(newDescs)
// with the driver, rebuilds the output port fresh so stale
// enrollment/in-flight state from before the reconfig cannot leak into
// the new generation, enrolls newDescs in static mode, and clears the
// reconfiguring flag. Output submissions made between the event and
// this call are not held back.
func (d *Decoder) ReconfigureOutput(newDescs []bufferdesc.Descriptor) qcstatus.Status {
	count, st := NegotiateBufferReq(d.ch, driver.SideOutput, uint32(len(newDescs)))
	if st != qcstatus.OK {
		return st
	}

	mode := driver.BufferModeDynamic
	if !d.cfg.OutputDynamicMode {
		mode = driver.BufferModeStatic
	}
	d.output = newPort(mode)
	d.output.declared = count

	if mode == driver.BufferModeStatic {
		if st := d.enrollStatic(driver.SideOutput, newDescs); st != qcstatus.OK {
			return st
		}
	}

	d.mu.Lock()
	d.reconfiguring = false
	d.mu.Unlock()
	return qcstatus.OK
}

// Stop runs the decoder's four-event ordered stop sequence (§4.G.2,
// scenario S6): DRAIN, await RESP_DRAIN, await LAST_FLAG, STOP(input)
// await STOP_INPUT_DONE, STOP(output) await STOP_OUTPUT_DONE. If
// LAST_FLAG does not arrive before timeout, state becomes ERROR and
// Stop returns Fail per S6.
func (d *Decoder) Stop() qcstatus.Status {
	d.StopCompletionLoop()
	return d.Enter("Stop", []node.State{node.StateRunning}, node.StateStopping, func() qcstatus.Status {
		if err := d.ch.Ioctl(driver.CmdDrain, nil); err != nil {
			return qcstatus.Fail
		}
		ev, err := d.ch.WaitEvent(waitLoadStartStopDrain)
		if err != nil || ev.Kind != driver.EvtDrain {
			return qcstatus.Timeout
		}
		d.mu.Lock()
		d.drainReceived = true
		d.mu.Unlock()

		ev, err = d.ch.WaitEvent(waitLoadStartStopDrain)
		if err != nil || ev.Kind != driver.EvtLastFlag {
			return qcstatus.Fail
		}
		d.mu.Lock()
		d.lastFlagSeen = true
		d.mu.Unlock()

		if err := d.ch.Ioctl(driver.CmdStopInput, nil); err != nil {
			return qcstatus.Fail
		}
		ev, err = d.ch.WaitEvent(waitLoadStartStopDrain)
		if err != nil || ev.Kind != driver.EvtStopInputDone {
			return qcstatus.Timeout
		}

		if err := d.ch.Ioctl(driver.CmdStopOutput, nil); err != nil {
			return qcstatus.Fail
		}
		ev, err = d.ch.WaitEvent(waitLoadStartStopDrain)
		if err != nil || ev.Kind != driver.EvtStopOutputDone {
			return qcstatus.Timeout
		}
		d.deregisterBuffers()
		return qcstatus.OK
	}, node.StateReady, node.StateError)
}

func (d *Decoder) DeInitialize() qcstatus.Status {
	return d.Enter("DeInitialize", []node.State{node.StateReady}, node.StateDeinitializing, func() qcstatus.Status {
		return d.commonDeinit()
	}, node.StateInitial, node.StateError)
}

func (d *Decoder) GetConfigurationIfs() node.ConfigurationIfs {
	return configIfs{cfg: &d.cfg}
}

func (d *Decoder) GetMonitoringIfs() node.MonitoringIfs {
	return monitoringIfs{c: d.core}
}

var _ node.Node = (*Decoder)(nil)
