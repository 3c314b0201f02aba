package nodeconfig

import (
	"github.com/qualcomm/qcnode/backend"
	"github.com/qualcomm/qcnode/bufferdesc"
	"github.com/qualcomm/qcnode/framedesc"
	"github.com/qualcomm/qcnode/node"
	"github.com/qualcomm/qcnode/qcstatus"
)

// configIfs adapts *Config to node.ConfigurationIfs.
type configIfs struct {
	cfg  *Config
	kind node.Kind
}

func (c configIfs) VerifyAndSet(text string, errs *[]string) qcstatus.Status {
	return c.cfg.VerifyAndSet(c.kind, text, errs)
}

func (c configIfs) GetOptions() []string { return c.cfg.GetOptions() }

func (c configIfs) Get(path string) (string, bool) { return c.cfg.Get(path) }

// Stub is a bare node.Node whose algorithm body is intentionally empty
// (§1's Non-goal: per-Node processing algorithms are out of scope).
// It exercises the shared lifecycle/config/buffer-map plumbing for the
// Node kinds that have no dedicated package in this repository (Camera,
// Remap, DepthFromStereo, OpticalFlow, Voxelization, Radar) so that
// plumbing has real test fixtures beyond the video codec. Outside the
// tests, only the cmd/qcnode-demo wiring example constructs one.
//
// A Stub optionally pre-registers the buffers named by `static.bufferIds`
// with a backend.Registry (§6, §4.F) at Initialize, and — when
// `static.deRegisterAllBuffersWhenStop` is set — deregisters every
// address it registered when the Node stops.
type Stub struct {
	*node.Base
	kind     node.Kind
	cfg      *Config
	registry *backend.Registry
	variant  backend.Variant

	registered []uintptr
}

// NewStub constructs a Stub Node of the given kind with no backend
// registration wired in: `bufferIds` is parsed but never registered.
func NewStub(kind node.Kind, name string, id int) *Stub {
	return &Stub{Base: node.NewBase(name, id), kind: kind, cfg: New()}
}

// NewStubWithRegistry constructs a Stub Node that pre-registers
// `static.bufferIds` against registry under variant at Initialize, and
// honors `static.deRegisterAllBuffersWhenStop` at Stop.
func NewStubWithRegistry(kind node.Kind, name string, id int, registry *backend.Registry, variant backend.Variant) *Stub {
	return &Stub{Base: node.NewBase(name, id), kind: kind, cfg: New(), registry: registry, variant: variant}
}

func (s *Stub) Initialize(init node.Init) qcstatus.Status {
	var errs []string
	return s.Enter("Initialize", []node.State{node.StateInitial}, node.StateInitializing, func() qcstatus.Status {
		st := s.cfg.VerifyAndSet(s.kind, init.ConfigText, &errs)
		if st != qcstatus.OK {
			return st
		}
		s.SetCallback(init.Callback)
		s.BindLogger(s.cfg.LogLevel)
		s.registerBuffers(init.Buffers)
		return qcstatus.OK
	}, node.StateReady, node.StateError)
}

// registerBuffers pre-registers the Init.Buffers entries named by
// static.bufferIds against the configured backend (§6: "indices into
// Init.buffers to pre-register"). A backend registration failure is
// logged and otherwise ignored: pre-registration is a warm-up, not a
// frame-submission precondition.
func (s *Stub) registerBuffers(buffers []bufferdesc.Descriptor) {
	if s.registry == nil {
		return
	}
	for _, idx := range s.cfg.BufferIDs {
		if idx < 0 || idx >= len(buffers) {
			s.Log().Warn("bufferIds index out of range", "index", idx, "len", len(buffers))
			continue
		}
		_, st := s.registry.RegBuf(s.variant, buffers[idx])
		if st != qcstatus.OK {
			s.Log().Warn("buffer pre-registration failed", "index", idx, "status", st.String())
			continue
		}
		s.registered = append(s.registered, buffers[idx].VirtualAddr)
	}
}

func (s *Stub) Start() qcstatus.Status {
	return s.Enter("Start", []node.State{node.StateReady}, node.StateStarting, func() qcstatus.Status {
		return qcstatus.OK
	}, node.StateRunning, node.StateError)
}

// ProcessFrameDescriptor accepts fd without transforming it: the Stub
// has no algorithm, only the shared state-guard behavior every real
// Node kind must also honor.
func (s *Stub) ProcessFrameDescriptor(fd *framedesc.FrameDescriptor) qcstatus.Status {
	return s.RejectWrongState()
}

func (s *Stub) Stop() qcstatus.Status {
	return s.Enter("Stop", []node.State{node.StateRunning}, node.StateStopping, func() qcstatus.Status {
		if s.cfg.DeregisterAllBuffersOnStop && s.registry != nil {
			for _, addr := range s.registered {
				s.registry.DeregBuf(s.variant, addr)
			}
			s.registered = nil
		}
		return qcstatus.OK
	}, node.StateReady, node.StateError)
}

func (s *Stub) DeInitialize() qcstatus.Status {
	return s.Enter("DeInitialize", []node.State{node.StateReady}, node.StateDeinitializing, func() qcstatus.Status {
		return qcstatus.OK
	}, node.StateInitial, node.StateError)
}

func (s *Stub) GetConfigurationIfs() node.ConfigurationIfs {
	return configIfs{cfg: s.cfg, kind: s.kind}
}

func (s *Stub) GetMonitoringIfs() node.MonitoringIfs {
	return stubMonitoring{s: s}
}

type stubMonitoring struct{ s *Stub }

func (m stubMonitoring) Get(key string) (string, bool) {
	if key == "state" {
		return m.s.GetState().String(), true
	}
	return "", false
}

var _ node.Node = (*Stub)(nil)
