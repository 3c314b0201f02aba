// Package egl implements the EGL backend (§4.F): importing a dma_buf
// described by a bufferdesc.Descriptor as an EGLImageKHR so a
// downstream GPU consumer can sample it without a copy.
//
//go:build linux

package egl

import (
	"fmt"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/go-webgpu/goffi/types"

	"github.com/qualcomm/qcnode/backend"
	"github.com/qualcomm/qcnode/bufferdesc"
	"github.com/qualcomm/qcnode/internal/qclog"
	"github.com/qualcomm/qcnode/qcstatus"
	"github.com/qualcomm/qcnode/qctypes"
)

// EGL_LINUX_DMA_BUF_EXT and the fourcc/plane attribute keys used to
// describe an imported dma_buf (EGL_EXT_image_dma_buf_import).
const (
	eglLinuxDMABufEXT  = 0x3270
	eglLinuxDRMFourCC  = 0x3271
	eglDMABufPlaneFd0  = 0x3272
	eglDMABufPlanePitch0 = 0x3274
	eglDMABufPlaneOffset0 = 0x3273
	eglImageNone       = 0
	eglWidth           = 0x3057
	eglHeight          = 0x3056
	drmFormatNV12      = 0x3231564e // "NV12" little-endian fourcc
	drmFormatXRGB8888  = 0x34325258
)

type eglint = int32
type eglDisplay = uintptr
type eglContext = uintptr
type eglImage = uintptr

var (
	lib unsafe.Pointer

	symGetDisplay     unsafe.Pointer
	symInitialize     unsafe.Pointer
	symGetProcAddress unsafe.Pointer

	cifGetDisplay     types.CallInterface
	cifInitialize     types.CallInterface
	cifGetProcAddress types.CallInterface

	// Resolved via eglGetProcAddress, per the EGL extension model — these
	// entry points are not guaranteed present in libEGL's export table.
	symCreateImageKHR  uintptr
	symDestroyImageKHR uintptr
	cifCreateImageKHR  types.CallInterface
	cifDestroyImageKHR types.CallInterface
)

// Backend implements backend.Backend for EGL_EXT_image_dma_buf_import.
type Backend struct {
	dpy eglDisplay
	ctx eglContext
}

// New loads libEGL, obtains a display connection, and resolves the
// dma_buf import extension entry points. Returns an error if libEGL or
// the extension is unavailable — callers should treat that as "EGL
// backend not present on this target" rather than a fatal error.
func New() (*Backend, error) {
	if err := loadLibrary(); err != nil {
		return nil, err
	}
	dpy := getDisplay()
	if dpy == 0 {
		return nil, fmt.Errorf("egl: eglGetDisplay returned EGL_NO_DISPLAY")
	}
	if ok := initialize(dpy); !ok {
		return nil, fmt.Errorf("egl: eglInitialize failed")
	}
	if err := resolveDMABufImportExt(); err != nil {
		return nil, err
	}
	qclog.Logger().Debug("egl backend initialized", "display", dpy)
	return &Backend{dpy: dpy}, nil
}

func (b *Backend) Variant() backend.Variant { return backend.VariantEGL }

// RegisterBuffer imports desc's dma_buf handle as a single-plane
// EGLImageKHR. Only image-tagged descriptors (Image, CameraFrame,
// VideoFrame) are accepted; any other tag, tensors included, returns
// BadArguments. Images with more than one plane, or in a format with no
// DRM fourcc mapping in fourCCFor (only NV12 and NV12 UBWC have one),
// return Unsupported.
func (b *Backend) RegisterBuffer(desc bufferdesc.Descriptor) (backend.Handle, qcstatus.Status) {
	if desc.Tag != bufferdesc.TypeImage && desc.Tag != bufferdesc.TypeCameraFrame && desc.Tag != bufferdesc.TypeVideoFrame {
		return backend.Handle{}, qcstatus.BadArguments
	}
	if desc.NumPlanes > 1 {
		return backend.Handle{}, qcstatus.Unsupported
	}

	fourcc := fourCCFor(desc)
	if fourcc == 0 {
		return backend.Handle{}, qcstatus.Unsupported
	}

	attribs := []int32{
		eglWidth, int32(desc.Width),
		eglHeight, int32(desc.Height),
		eglLinuxDRMFourCC, fourcc,
		eglDMABufPlaneFd0, int32(desc.DmaHandle),
		eglDMABufPlaneOffset0, int32(desc.Offset),
		eglDMABufPlanePitch0, int32(desc.Stride[0]),
		eglImageNone,
	}

	img := createImageKHR(b.dpy, eglLinuxDMABufEXT, attribs)
	if img == 0 {
		return backend.Handle{}, qcstatus.Fail
	}
	return backend.Handle{Variant: backend.VariantEGL, Native: img}, qcstatus.OK
}

func (b *Backend) DeregisterBuffer(h backend.Handle) qcstatus.Status {
	if !destroyImageKHR(b.dpy, h.Native) {
		return qcstatus.Fail
	}
	return qcstatus.OK
}

func fourCCFor(desc bufferdesc.Descriptor) int32 {
	switch desc.Format {
	case qctypes.ImageFormatNV12, qctypes.ImageFormatNV12UBWC:
		// NV12 and its UBWC variant both import as the NV12 DRM fourcc;
		// everything else is left to a future extension entry.
		return drmFormatNV12
	default:
		return 0
	}
}

func loadLibrary() error {
	if lib != nil {
		return nil
	}
	var err error
	lib, err = ffi.LoadLibrary("libEGL.so.1")
	if err != nil {
		lib, err = ffi.LoadLibrary("libEGL.so")
		if err != nil {
			return fmt.Errorf("egl: failed to load libEGL: %w", err)
		}
	}

	if symGetDisplay, err = ffi.GetSymbol(lib, "eglGetDisplay"); err != nil {
		return fmt.Errorf("egl: eglGetDisplay not found: %w", err)
	}
	if symInitialize, err = ffi.GetSymbol(lib, "eglInitialize"); err != nil {
		return fmt.Errorf("egl: eglInitialize not found: %w", err)
	}
	if symGetProcAddress, err = ffi.GetSymbol(lib, "eglGetProcAddress"); err != nil {
		return fmt.Errorf("egl: eglGetProcAddress not found: %w", err)
	}

	if err = ffi.PrepareCallInterface(&cifGetDisplay, types.DefaultCall,
		types.PointerTypeDescriptor, []*types.TypeDescriptor{types.PointerTypeDescriptor}); err != nil {
		return fmt.Errorf("egl: prepare eglGetDisplay: %w", err)
	}
	if err = ffi.PrepareCallInterface(&cifInitialize, types.DefaultCall,
		types.UInt32TypeDescriptor, []*types.TypeDescriptor{
			types.PointerTypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor,
		}); err != nil {
		return fmt.Errorf("egl: prepare eglInitialize: %w", err)
	}
	if err = ffi.PrepareCallInterface(&cifGetProcAddress, types.DefaultCall,
		types.PointerTypeDescriptor, []*types.TypeDescriptor{types.PointerTypeDescriptor}); err != nil {
		return fmt.Errorf("egl: prepare eglGetProcAddress: %w", err)
	}
	return nil
}

func getDisplay() eglDisplay {
	var result eglDisplay
	var defaultDisplay uintptr
	args := [1]unsafe.Pointer{unsafe.Pointer(&defaultDisplay)}
	_ = ffi.CallFunction(&cifGetDisplay, symGetDisplay, unsafe.Pointer(&result), args[:])
	return result
}

func initialize(dpy eglDisplay) bool {
	var major, minor eglint
	var result uint32
	args := [3]unsafe.Pointer{unsafe.Pointer(&dpy), unsafe.Pointer(&major), unsafe.Pointer(&minor)}
	_ = ffi.CallFunction(&cifInitialize, symInitialize, unsafe.Pointer(&result), args[:])
	return result != 0
}

func getProcAddress(name string) uintptr {
	cname := append([]byte(name), 0)
	var result uintptr
	args := [1]unsafe.Pointer{unsafe.Pointer(&cname[0])}
	_ = ffi.CallFunction(&cifGetProcAddress, symGetProcAddress, unsafe.Pointer(&result), args[:])
	return result
}

func resolveDMABufImportExt() error {
	symCreateImageKHR = getProcAddress("eglCreateImageKHR")
	symDestroyImageKHR = getProcAddress("eglDestroyImageKHR")
	if symCreateImageKHR == 0 || symDestroyImageKHR == 0 {
		return fmt.Errorf("egl: EGL_EXT_image_dma_buf_import not available")
	}

	if err := ffi.PrepareCallInterface(&cifCreateImageKHR, types.DefaultCall,
		types.PointerTypeDescriptor, []*types.TypeDescriptor{
			types.PointerTypeDescriptor, // dpy
			types.PointerTypeDescriptor, // ctx
			types.UInt32TypeDescriptor,  // target
			types.PointerTypeDescriptor, // buffer
			types.PointerTypeDescriptor, // attrib_list*
		}); err != nil {
		return fmt.Errorf("egl: prepare eglCreateImageKHR: %w", err)
	}
	if err := ffi.PrepareCallInterface(&cifDestroyImageKHR, types.DefaultCall,
		types.UInt32TypeDescriptor, []*types.TypeDescriptor{
			types.PointerTypeDescriptor, types.PointerTypeDescriptor,
		}); err != nil {
		return fmt.Errorf("egl: prepare eglDestroyImageKHR: %w", err)
	}
	return nil
}

func createImageKHR(dpy eglDisplay, target int32, attribs []int32) eglImage {
	var result eglImage
	var ctx eglContext
	var buffer uintptr
	args := [5]unsafe.Pointer{
		unsafe.Pointer(&dpy),
		unsafe.Pointer(&ctx),
		unsafe.Pointer(&target),
		unsafe.Pointer(&buffer),
		unsafe.Pointer(&attribs[0]),
	}
	_ = ffi.CallFunction(&cifCreateImageKHR, unsafe.Pointer(symCreateImageKHR), unsafe.Pointer(&result), args[:])
	return result
}

func destroyImageKHR(dpy eglDisplay, img eglImage) bool {
	var result uint32
	args := [2]unsafe.Pointer{unsafe.Pointer(&dpy), unsafe.Pointer(&img)}
	_ = ffi.CallFunction(&cifDestroyImageKHR, unsafe.Pointer(symDestroyImageKHR), unsafe.Pointer(&result), args[:])
	return result != 0
}
