// Package c2d implements the C2D backend (§4.F): registering a
// SharedBuffer as a C2D surface, a lighter-weight registration than EGL
// or the DSP backends since C2D addresses buffers by dma_buf fd plus a
// shape descriptor rather than requiring an explicit import call.
//
//go:build linux

package c2d

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/go-webgpu/goffi/types"

	"github.com/qualcomm/qcnode/backend"
	"github.com/qualcomm/qcnode/bufferdesc"
	"github.com/qualcomm/qcnode/internal/qclog"
	"github.com/qualcomm/qcnode/qcstatus"
)

var (
	lib unsafe.Pointer

	symCreateSurface  unsafe.Pointer
	symDestroySurface unsafe.Pointer
	cifCreateSurface  types.CallInterface
	cifDestroySurface types.CallInterface
)

// surfaceFormat mirrors the vendor C2D_COLOR_FORMAT enum subset this
// module cares about.
type surfaceFormat uint32

const (
	formatUnsupported surfaceFormat = 0
	formatNV12        surfaceFormat = 1
	formatRGB888      surfaceFormat = 2
)

// Backend implements backend.Backend over the vendor C2D surface ABI:
//
//	int32_t c2dCreateSurface(uint32_t *surface_id, uint32_t bits_per_pixel,
//	                         uint32_t format, int32_t dmabuf_fd,
//	                         uint32_t width, uint32_t height, uint32_t stride);
//	int32_t c2dDestroySurface(uint32_t surface_id);
type Backend struct {
	mu       sync.Mutex
	surfaces map[uintptr]uint32

	nextFake atomic.Uint32 // used only if the vendor library is absent; see New
}

// New loads libC2D2.so. Unlike the other backends, a missing C2D
// runtime is common on non-Qualcomm targets; New still succeeds with a
// nil library handle and RegisterBuffer then assigns purely in-process
// surface ids. This keeps the rest of the pipeline runnable on a
// development host the way the other backend constructors cannot.
func New() *Backend {
	b := &Backend{surfaces: make(map[uintptr]uint32)}
	if err := b.loadLibrary(); err != nil {
		qclog.Logger().Warn("c2d: vendor runtime unavailable, using local surface ids", "error", err)
	}
	return b
}

func (b *Backend) loadLibrary() error {
	var err error
	lib, err = ffi.LoadLibrary("libC2D2.so")
	if err != nil {
		return fmt.Errorf("load libC2D2.so: %w", err)
	}
	if symCreateSurface, err = ffi.GetSymbol(lib, "c2dCreateSurface"); err != nil {
		return fmt.Errorf("c2dCreateSurface not found: %w", err)
	}
	if symDestroySurface, err = ffi.GetSymbol(lib, "c2dDestroySurface"); err != nil {
		return fmt.Errorf("c2dDestroySurface not found: %w", err)
	}

	if err = ffi.PrepareCallInterface(&cifCreateSurface, types.DefaultCall,
		types.SInt32TypeDescriptor, []*types.TypeDescriptor{
			types.PointerTypeDescriptor, // surface_id*
			types.UInt32TypeDescriptor,  // bits_per_pixel
			types.UInt32TypeDescriptor,  // format
			types.SInt32TypeDescriptor,  // dmabuf_fd
			types.UInt32TypeDescriptor,  // width
			types.UInt32TypeDescriptor,  // height
			types.UInt32TypeDescriptor,  // stride
		}); err != nil {
		return fmt.Errorf("prepare c2dCreateSurface: %w", err)
	}
	if err = ffi.PrepareCallInterface(&cifDestroySurface, types.DefaultCall,
		types.SInt32TypeDescriptor, []*types.TypeDescriptor{types.UInt32TypeDescriptor}); err != nil {
		return fmt.Errorf("prepare c2dDestroySurface: %w", err)
	}
	return nil
}

func (b *Backend) Variant() backend.Variant { return backend.VariantC2D }

func (b *Backend) RegisterBuffer(desc bufferdesc.Descriptor) (backend.Handle, qcstatus.Status) {
	format := formatFor(desc)
	if format == formatUnsupported {
		return backend.Handle{}, qcstatus.Unsupported
	}

	var surfaceID uint32
	if symCreateSurface != nil {
		fd := int32(desc.DmaHandle)
		bpp := uint32(8)
		width := uint32(desc.Width)
		height := uint32(desc.Height)
		stride := uint32(desc.Stride[0])
		fmtVal := uint32(format)

		var rc int32
		args := [7]unsafe.Pointer{
			unsafe.Pointer(&surfaceID),
			unsafe.Pointer(&bpp),
			unsafe.Pointer(&fmtVal),
			unsafe.Pointer(&fd),
			unsafe.Pointer(&width),
			unsafe.Pointer(&height),
			unsafe.Pointer(&stride),
		}
		_ = ffi.CallFunction(&cifCreateSurface, symCreateSurface, unsafe.Pointer(&rc), args[:])
		if rc != 0 {
			return backend.Handle{}, qcstatus.Fail
		}
	} else {
		surfaceID = b.nextFake.Add(1)
	}

	h := backend.Handle{Variant: backend.VariantC2D, Native: uintptr(surfaceID)}
	b.mu.Lock()
	b.surfaces[desc.VirtualAddr] = surfaceID
	b.mu.Unlock()
	return h, qcstatus.OK
}

func (b *Backend) DeregisterBuffer(h backend.Handle) qcstatus.Status {
	surfaceID := uint32(h.Native)
	if symDestroySurface != nil {
		var rc int32
		args := [1]unsafe.Pointer{unsafe.Pointer(&surfaceID)}
		_ = ffi.CallFunction(&cifDestroySurface, symDestroySurface, unsafe.Pointer(&rc), args[:])
		if rc != 0 {
			return qcstatus.Fail
		}
	}

	b.mu.Lock()
	for addr, id := range b.surfaces {
		if id == surfaceID {
			delete(b.surfaces, addr)
			break
		}
	}
	b.mu.Unlock()
	return qcstatus.OK
}

func formatFor(desc bufferdesc.Descriptor) surfaceFormat {
	if desc.Tag != bufferdesc.TypeImage && desc.Tag != bufferdesc.TypeCameraFrame && desc.Tag != bufferdesc.TypeVideoFrame {
		return formatUnsupported
	}
	switch desc.NumPlanes {
	case 1:
		return formatRGB888
	case 2:
		return formatNV12
	default:
		return formatUnsupported
	}
}
