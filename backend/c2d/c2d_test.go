//go:build linux

package c2d

import (
	"testing"

	"github.com/qualcomm/qcnode/bufferdesc"
	"github.com/qualcomm/qcnode/qcstatus"
)

// newBareBackend constructs a Backend without attempting to dlopen the
// vendor runtime, exercising the local-surface-id fallback path every
// development host takes.
func newBareBackend() *Backend {
	return &Backend{surfaces: make(map[uintptr]uint32)}
}

func TestRegisterBufferAssignsLocalSurfaceID(t *testing.T) {
	b := newBareBackend()
	desc := bufferdesc.Descriptor{
		Tag: bufferdesc.TypeImage, VirtualAddr: 0x4000, NumPlanes: 2, Width: 64, Height: 32,
	}
	h, st := b.RegisterBuffer(desc)
	if st != qcstatus.OK {
		t.Fatalf("RegisterBuffer() = %v", st)
	}
	if h.Native == 0 {
		t.Error("surface id is zero")
	}
}

func TestRegisterBufferRejectsUnsupportedShape(t *testing.T) {
	b := newBareBackend()
	desc := bufferdesc.Descriptor{Tag: bufferdesc.TypeTensor, VirtualAddr: 0x5000}
	if _, st := b.RegisterBuffer(desc); st != qcstatus.Unsupported {
		t.Errorf("RegisterBuffer(tensor) = %v, want Unsupported", st)
	}
}

func TestDeregisterBufferRemovesTracking(t *testing.T) {
	b := newBareBackend()
	desc := bufferdesc.Descriptor{Tag: bufferdesc.TypeImage, VirtualAddr: 0x6000, NumPlanes: 1, Width: 16, Height: 16}
	h, _ := b.RegisterBuffer(desc)
	if st := b.DeregisterBuffer(h); st != qcstatus.OK {
		t.Fatalf("DeregisterBuffer() = %v", st)
	}
	b.mu.Lock()
	_, tracked := b.surfaces[desc.VirtualAddr]
	b.mu.Unlock()
	if tracked {
		t.Error("surface still tracked after deregister")
	}
}
