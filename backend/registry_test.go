package backend

import (
	"testing"

	"github.com/qualcomm/qcnode/bufferdesc"
	"github.com/qualcomm/qcnode/qcstatus"
)

type fakeBackend struct {
	variant    Variant
	calls      int
	nextHandle uintptr
	deregCalls int
}

func (f *fakeBackend) Variant() Variant { return f.variant }

func (f *fakeBackend) RegisterBuffer(desc bufferdesc.Descriptor) (Handle, qcstatus.Status) {
	f.calls++
	f.nextHandle++
	return Handle{Variant: f.variant, Native: f.nextHandle}, qcstatus.OK
}

func (f *fakeBackend) DeregisterBuffer(h Handle) qcstatus.Status {
	f.deregCalls++
	return qcstatus.OK
}

func TestRegBufIdempotentPerAddress(t *testing.T) {
	r := NewRegistry()
	fb := &fakeBackend{variant: VariantEGL}
	r.Install(fb)

	desc := bufferdesc.Descriptor{VirtualAddr: 0x1000}
	h1, st1 := r.RegBuf(VariantEGL, desc)
	h2, st2 := r.RegBuf(VariantEGL, desc)

	if st1 != qcstatus.OK || st2 != qcstatus.OK {
		t.Fatalf("RegBuf statuses = %v, %v", st1, st2)
	}
	if h1 != h2 {
		t.Errorf("second RegBuf() = %+v, want identical to first %+v", h2, h1)
	}
	if fb.calls != 1 {
		t.Errorf("backend.RegisterBuffer called %d times, want 1", fb.calls)
	}
}

func TestRegBufDistinctAddressesDistinctHandles(t *testing.T) {
	r := NewRegistry()
	fb := &fakeBackend{variant: VariantEGL}
	r.Install(fb)

	h1, _ := r.RegBuf(VariantEGL, bufferdesc.Descriptor{VirtualAddr: 0x1000})
	h2, _ := r.RegBuf(VariantEGL, bufferdesc.Descriptor{VirtualAddr: 0x2000})
	if h1 == h2 {
		t.Error("distinct addresses produced identical handles")
	}
	if fb.calls != 2 {
		t.Errorf("backend.RegisterBuffer called %d times, want 2", fb.calls)
	}
}

func TestRegBufUnsupportedBackend(t *testing.T) {
	r := NewRegistry()
	if _, st := r.RegBuf(VariantHTP, bufferdesc.Descriptor{VirtualAddr: 1}); st != qcstatus.Unsupported {
		t.Errorf("RegBuf() with no installed backend = %v, want Unsupported", st)
	}
}

func TestDeregBufReleasesAndForgets(t *testing.T) {
	r := NewRegistry()
	fb := &fakeBackend{variant: VariantC2D}
	r.Install(fb)

	desc := bufferdesc.Descriptor{VirtualAddr: 0x3000}
	r.RegBuf(VariantC2D, desc)
	if st := r.DeregBuf(VariantC2D, desc.VirtualAddr); st != qcstatus.OK {
		t.Fatalf("DeregBuf() = %v", st)
	}
	if fb.deregCalls != 1 {
		t.Errorf("DeregisterBuffer called %d times, want 1", fb.deregCalls)
	}
	if r.Count() != 0 {
		t.Errorf("Count() = %d after deregister, want 0", r.Count())
	}

	// Re-registering after deregistration must call the backend again.
	r.RegBuf(VariantC2D, desc)
	if fb.calls != 2 {
		t.Errorf("RegisterBuffer called %d times after re-register, want 2", fb.calls)
	}
}

func TestDeregBufUnknownAddressIsNoop(t *testing.T) {
	r := NewRegistry()
	fb := &fakeBackend{variant: VariantEGL}
	r.Install(fb)
	if st := r.DeregBuf(VariantEGL, 0xdead); st != qcstatus.OK {
		t.Errorf("DeregBuf() on unknown address = %v, want OK", st)
	}
}
