package nodeconfig

import (
	"testing"

	"github.com/qualcomm/qcnode/backend"
	"github.com/qualcomm/qcnode/bufferdesc"
	"github.com/qualcomm/qcnode/node"
	"github.com/qualcomm/qcnode/qcstatus"
	"github.com/qualcomm/qcnode/qctypes"
)

type fakeBackend struct {
	variant    backend.Variant
	regs       int
	deregs     int
	nextHandle uintptr
}

func (f *fakeBackend) Variant() backend.Variant { return f.variant }

func (f *fakeBackend) RegisterBuffer(desc bufferdesc.Descriptor) (backend.Handle, qcstatus.Status) {
	f.regs++
	f.nextHandle++
	return backend.Handle{Variant: f.variant, Native: f.nextHandle}, qcstatus.OK
}

func (f *fakeBackend) DeregisterBuffer(h backend.Handle) qcstatus.Status {
	f.deregs++
	return qcstatus.OK
}

func TestVerifyAndSetFallsBackToDefaultBufferMap(t *testing.T) {
	cfg := New()
	var errs []string
	text := `
static:
  name: remap0
  id: 3
`
	if st := cfg.VerifyAndSet(node.KindRemap, text, &errs); st != qcstatus.OK {
		t.Fatalf("VerifyAndSet() = %v, errs=%v", st, errs)
	}
	want := node.DefaultBufferMap(node.KindRemap)
	if len(cfg.BufferIDMap) != len(want) {
		t.Fatalf("BufferIDMap = %v, want %v", cfg.BufferIDMap, want)
	}
	for i := range want {
		if cfg.BufferIDMap[i] != want[i] {
			t.Errorf("BufferIDMap[%d] = %v, want %v", i, cfg.BufferIDMap[i], want[i])
		}
	}
}

func TestVerifyAndSetExplicitBufferMapOverridesDefault(t *testing.T) {
	cfg := New()
	var errs []string
	text := `
static:
  name: custom0
  id: 1
  globalBufferIdMap:
    - name: a
      id: 5
    - name: b
      id: 6
`
	if st := cfg.VerifyAndSet(node.KindCamera, text, &errs); st != qcstatus.OK {
		t.Fatalf("VerifyAndSet() = %v, errs=%v", st, errs)
	}
	if len(cfg.BufferIDMap) != 2 || cfg.BufferIDMap[0].ID != 5 || cfg.BufferIDMap[1].ID != 6 {
		t.Fatalf("BufferIDMap = %v", cfg.BufferIDMap)
	}
}

func TestVerifyAndSetMissingNameIsBadArguments(t *testing.T) {
	cfg := New()
	var errs []string
	text := "static:\n  id: 1\n"
	if st := cfg.VerifyAndSet(node.KindCamera, text, &errs); st != qcstatus.BadArguments {
		t.Fatalf("VerifyAndSet() = %v, want BadArguments", st)
	}
	if len(errs) == 0 {
		t.Error("expected an error message for missing name")
	}
}

func TestVerifyAndSetNeitherStaticNorDynamicIsBadArguments(t *testing.T) {
	cfg := New()
	var errs []string
	if st := cfg.VerifyAndSet(node.KindCamera, "other:\n  foo: 1\n", &errs); st != qcstatus.BadArguments {
		t.Fatalf("VerifyAndSet() = %v, want BadArguments", st)
	}
	if len(errs) == 0 {
		t.Error("expected an error message for missing static/dynamic section")
	}
}

func TestVerifyAndSetDynamicOnlyUpdatesLogLevel(t *testing.T) {
	cfg := New()
	var errs []string
	if st := cfg.VerifyAndSet(node.KindCamera, "dynamic:\n  logLevel: WARN\n", &errs); st != qcstatus.OK {
		t.Fatalf("VerifyAndSet() = %v, errs=%v", st, errs)
	}
	if cfg.LogLevel != qctypes.LogLevelWarn {
		t.Errorf("LogLevel = %v, want LogLevelWarn", cfg.LogLevel)
	}
}

func TestVerifyAndSetDynamicUnrecognizedLogLevelIsBadArguments(t *testing.T) {
	cfg := New()
	var errs []string
	if st := cfg.VerifyAndSet(node.KindCamera, "dynamic:\n  logLevel: NOPE\n", &errs); st != qcstatus.BadArguments {
		t.Fatalf("VerifyAndSet() = %v, want BadArguments", st)
	}
	if len(errs) == 0 {
		t.Error("expected an error message for unrecognized dynamic.logLevel")
	}
}

func TestVerifyAndSetDynamicIgnoresUnknownFields(t *testing.T) {
	cfg := New()
	var errs []string
	if st := cfg.VerifyAndSet(node.KindCamera, "dynamic:\n  foo: 1\n", &errs); st != qcstatus.OK {
		t.Fatalf("VerifyAndSet() = %v, errs=%v, want OK", st, errs)
	}
}

func TestVerifyAndSetStaticLogLevelDefaultsToError(t *testing.T) {
	cfg := New()
	var errs []string
	text := "static:\n  name: cam0\n  id: 1\n"
	if st := cfg.VerifyAndSet(node.KindCamera, text, &errs); st != qcstatus.OK {
		t.Fatalf("VerifyAndSet() = %v, errs=%v", st, errs)
	}
	if cfg.LogLevel != qctypes.LogLevelError {
		t.Errorf("LogLevel = %v, want LogLevelError default", cfg.LogLevel)
	}
}

func TestVerifyAndSetStaticParsesBufferIDsAndDeregFlag(t *testing.T) {
	cfg := New()
	var errs []string
	text := `
static:
  name: cam0
  id: 1
  bufferIds: [0, 2]
  deRegisterAllBuffersWhenStop: true
`
	if st := cfg.VerifyAndSet(node.KindCamera, text, &errs); st != qcstatus.OK {
		t.Fatalf("VerifyAndSet() = %v, errs=%v", st, errs)
	}
	if len(cfg.BufferIDs) != 2 || cfg.BufferIDs[0] != 0 || cfg.BufferIDs[1] != 2 {
		t.Errorf("BufferIDs = %v, want [0 2]", cfg.BufferIDs)
	}
	if !cfg.DeregisterAllBuffersOnStop {
		t.Error("DeregisterAllBuffersOnStop = false, want true")
	}
}

func TestStubLifecycle(t *testing.T) {
	s := NewStub(node.KindCamera, "cam0", 1)
	if st := s.Initialize(node.Init{ConfigText: "static:\n  name: cam0\n  id: 1\n"}); st != qcstatus.OK {
		t.Fatalf("Initialize() = %v", st)
	}
	if st := s.Start(); st != qcstatus.OK {
		t.Fatalf("Start() = %v", st)
	}
	if st := s.ProcessFrameDescriptor(nil); st != qcstatus.OK {
		t.Fatalf("ProcessFrameDescriptor() = %v", st)
	}
	if st := s.Stop(); st != qcstatus.OK {
		t.Fatalf("Stop() = %v", st)
	}
	if st := s.DeInitialize(); st != qcstatus.OK {
		t.Fatalf("DeInitialize() = %v", st)
	}
	if got := s.GetState(); got != node.StateInitial {
		t.Errorf("state after DeInitialize = %v, want StateInitial", got)
	}
}

func TestStubRejectsProcessFrameDescriptorOutsideRunning(t *testing.T) {
	s := NewStub(node.KindCamera, "cam0", 1)
	if st := s.ProcessFrameDescriptor(nil); st != qcstatus.BadState {
		t.Fatalf("ProcessFrameDescriptor() before Start = %v, want BadState", st)
	}
}

func TestStubRegistersAndDeregistersConfiguredBufferIDs(t *testing.T) {
	reg := backend.NewRegistry()
	fb := &fakeBackend{variant: backend.VariantEGL}
	reg.Install(fb)

	s := NewStubWithRegistry(node.KindCamera, "cam0", 1, reg, backend.VariantEGL)
	init := node.Init{
		ConfigText: "static:\n  name: cam0\n  id: 1\n  bufferIds: [0, 2]\n  deRegisterAllBuffersWhenStop: true\n",
		Buffers: []bufferdesc.Descriptor{
			{VirtualAddr: 0x1000},
			{VirtualAddr: 0x2000},
			{VirtualAddr: 0x3000},
		},
	}
	if st := s.Initialize(init); st != qcstatus.OK {
		t.Fatalf("Initialize() = %v", st)
	}
	if fb.regs != 2 {
		t.Fatalf("backend registrations = %d, want 2", fb.regs)
	}
	if reg.Count() != 2 {
		t.Fatalf("Registry.Count() = %d, want 2", reg.Count())
	}

	if st := s.Start(); st != qcstatus.OK {
		t.Fatalf("Start() = %v", st)
	}
	if st := s.Stop(); st != qcstatus.OK {
		t.Fatalf("Stop() = %v", st)
	}
	if fb.deregs != 2 {
		t.Errorf("backend deregistrations = %d, want 2", fb.deregs)
	}
	if reg.Count() != 0 {
		t.Errorf("Registry.Count() after Stop = %d, want 0", reg.Count())
	}
}

func TestStubSkipsOutOfRangeBufferIDs(t *testing.T) {
	reg := backend.NewRegistry()
	fb := &fakeBackend{variant: backend.VariantEGL}
	reg.Install(fb)

	s := NewStubWithRegistry(node.KindCamera, "cam0", 1, reg, backend.VariantEGL)
	init := node.Init{
		ConfigText: "static:\n  name: cam0\n  id: 1\n  bufferIds: [0, 5]\n",
		Buffers: []bufferdesc.Descriptor{
			{VirtualAddr: 0x1000},
		},
	}
	if st := s.Initialize(init); st != qcstatus.OK {
		t.Fatalf("Initialize() = %v", st)
	}
	if fb.regs != 1 {
		t.Errorf("backend registrations = %d, want 1 (out-of-range index skipped)", fb.regs)
	}
}
