// Package backend implements §4.F: the buffer-registration service that
// hands a SharedBuffer's virtual address to whichever hardware backend
// (EGL, EVA DSP, HTP, C2D) a Node needs it imported into, and keeps the
// resulting remote handle keyed by that address so a second
// registration of the same buffer is a no-op.
package backend

import (
	"sync"

	"github.com/qualcomm/qcnode/bufferdesc"
	"github.com/qualcomm/qcnode/qcstatus"
)

// Variant identifies a registered backend, mirroring the teacher's
// gputypes.Backend discriminator but scoped to this module's hardware
// targets instead of graphics APIs.
type Variant int

const (
	VariantUnknown Variant = iota
	VariantEGL
	VariantEVADSP
	VariantHTP
	VariantC2D
)

func (v Variant) String() string {
	switch v {
	case VariantEGL:
		return "egl"
	case VariantEVADSP:
		return "evadsp"
	case VariantHTP:
		return "htp"
	case VariantC2D:
		return "c2d"
	default:
		return "unknown"
	}
}

// Handle is the opaque remote-side handle a backend returns for a
// registered buffer (an EGLImage, an EVA/HTP remote buffer id, a C2D
// surface id). Callers treat it as opaque; backends populate Native
// with whatever concrete type they use internally.
type Handle struct {
	Variant Variant
	Native  uintptr
}

// Backend is the interface each hardware target implements (§4.F).
// RegisterBuffer imports the dma_buf described by desc and returns a
// remote Handle; DeregisterBuffer releases it. Implementations must be
// idempotent-safe from the registry's point of view: the registry
// itself enforces "idempotent per address" by never calling
// RegisterBuffer twice for the same VirtualAddr, so a Backend only
// needs to implement a single clean register/deregister pair.
type Backend interface {
	Variant() Variant
	RegisterBuffer(desc bufferdesc.Descriptor) (Handle, qcstatus.Status)
	DeregisterBuffer(h Handle) qcstatus.Status
}

// Registry is the per-process buffer-registration service (§4.F):
// "Maintains virtualAddress → backendHandle per backend; a second
// registration of the same address against the same backend returns
// the existing handle rather than calling the backend again."
type Registry struct {
	mu       sync.RWMutex
	backends map[Variant]Backend
	handles  map[regKey]Handle
}

type regKey struct {
	addr    uintptr
	variant Variant
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[Variant]Backend),
		handles:  make(map[regKey]Handle),
	}
}

// Install registers a Backend implementation under its own Variant.
// Installing the same Variant twice replaces the previous one; any
// handles already issued against the old instance are left as-is,
// matching the teacher's RegisterBackend replace-in-place semantics.
func (r *Registry) Install(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[b.Variant()] = b
}

// Get returns the installed Backend for variant, if any.
func (r *Registry) Get(variant Variant) (Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[variant]
	return b, ok
}

// RegBuf registers desc's virtual address against variant. If that
// address is already registered with variant, the existing Handle is
// returned without calling the backend again (§4.F idempotency
// requirement). Returns Unsupported if no backend is installed for
// variant.
func (r *Registry) RegBuf(variant Variant, desc bufferdesc.Descriptor) (Handle, qcstatus.Status) {
	key := regKey{addr: desc.VirtualAddr, variant: variant}

	r.mu.RLock()
	if h, ok := r.handles[key]; ok {
		r.mu.RUnlock()
		return h, qcstatus.OK
	}
	b, ok := r.backends[variant]
	r.mu.RUnlock()
	if !ok {
		return Handle{}, qcstatus.Unsupported
	}

	h, st := b.RegisterBuffer(desc)
	if st != qcstatus.OK {
		return Handle{}, st
	}

	r.mu.Lock()
	if existing, raced := r.handles[key]; raced {
		r.mu.Unlock()
		_ = b.DeregisterBuffer(h)
		return existing, qcstatus.OK
	}
	r.handles[key] = h
	r.mu.Unlock()
	return h, qcstatus.OK
}

// DeregBuf releases the handle registered for addr under variant, if
// any. Deregistering an address that was never registered is a no-op
// returning OK.
func (r *Registry) DeregBuf(variant Variant, addr uintptr) qcstatus.Status {
	key := regKey{addr: addr, variant: variant}

	r.mu.Lock()
	h, ok := r.handles[key]
	if !ok {
		r.mu.Unlock()
		return qcstatus.OK
	}
	delete(r.handles, key)
	b := r.backends[variant]
	r.mu.Unlock()

	if b == nil {
		return qcstatus.OK
	}
	return b.DeregisterBuffer(h)
}

// Count returns the number of live registrations across all backends,
// for monitoring/tests.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}
