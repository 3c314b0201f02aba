package videocodec

import (
	"github.com/qualcomm/qcnode/backend"
	"github.com/qualcomm/qcnode/node"
	"github.com/qualcomm/qcnode/qcstatus"
	"github.com/qualcomm/qcnode/videocodec/driver"
)

// Encoder is the video encoder Node (§4.G). It enrolls both input and
// output static buffers at init (no OUTPUT_RECONFIG wait, unlike the
// decoder) and stops with a single STOP ioctl.
type Encoder struct {
	*core
	codec driver.Codec
}

// NewEncoder constructs an Encoder Node bound to ch. codec selects
// H.264 vs HEVC.
func NewEncoder(name string, id int, ch driver.Channel, codec driver.Codec) *Encoder {
	return &Encoder{core: newCore(name, id, ch), codec: codec}
}

// NewEncoderWithRegistry constructs an Encoder that pre-registers
// static.bufferIds against registry under variant at Initialize, and
// honors static.deRegisterAllBuffersWhenStop at Stop.
func NewEncoderWithRegistry(name string, id int, ch driver.Channel, codec driver.Codec, registry *backend.Registry, variant backend.Variant) *Encoder {
	e := &Encoder{core: newCore(name, id, ch), codec: codec}
	e.withRegistry(registry, variant)
	return e
}

func (e *Encoder) Initialize(init node.Init) qcstatus.Status {
	var errs []string
	cfg, st := ParseConfig(init.ConfigText, true, &errs)
	if st != qcstatus.OK {
		return st
	}
	staticBufs := init.Buffers
	e.SetCallback(init.Callback)
	e.BindLogger(cfg.LogLevel)

	return e.Enter("Initialize", []node.State{node.StateInitial}, node.StateInitializing, func() qcstatus.Status {
		return e.commonInit(cfg, driver.SessionEncode, e.codec, staticBufs, true)
	}, node.StateReady, node.StateError)
}

func (e *Encoder) Start() qcstatus.Status {
	st := e.Enter("Start", []node.State{node.StateReady}, node.StateStarting, func() qcstatus.Status {
		return e.commonStart(driver.CmdStart)
	}, node.StateRunning, node.StateError)
	if st == qcstatus.OK {
		e.StartCompletionLoop()
	}
	return st
}

// Stop issues a single STOP ioctl and awaits RESP_STOP (§4.G.2 "Stop
// (encoder)").
func (e *Encoder) Stop() qcstatus.Status {
	e.StopCompletionLoop()
	return e.Enter("Stop", []node.State{node.StateRunning}, node.StateStopping, func() qcstatus.Status {
		if err := e.ch.Ioctl(driver.CmdStop, nil); err != nil {
			return qcstatus.Fail
		}
		ev, err := e.ch.WaitEvent(waitLoadStartStopDrain)
		if err != nil || ev.Kind != driver.EvtStopDone {
			return qcstatus.Timeout
		}
		e.deregisterBuffers()
		return qcstatus.OK
	}, node.StateReady, node.StateError)
}

func (e *Encoder) DeInitialize() qcstatus.Status {
	return e.Enter("DeInitialize", []node.State{node.StateReady}, node.StateDeinitializing, func() qcstatus.Status {
		return e.commonDeinit()
	}, node.StateInitial, node.StateError)
}

func (e *Encoder) GetConfigurationIfs() node.ConfigurationIfs {
	return configIfs{cfg: &e.cfg}
}

func (e *Encoder) GetMonitoringIfs() node.MonitoringIfs {
	return monitoringIfs{c: e.core}
}

var _ node.Node = (*Encoder)(nil)
