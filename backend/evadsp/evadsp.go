// Package evadsp implements the EVA DSP backend (§4.F): registering a
// SharedBuffer's dma_buf handle with the vendor EVA runtime so an EVA
// kernel can address it by a remote buffer id instead of a virtual
// address.
//
//go:build linux

package evadsp

import (
	"fmt"
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

	symRegister   unsafe.Pointer
	symDeregister unsafe.Pointer
	cifRegister   types.CallInterface
	cifDeregister types.CallInterface
)

// Backend implements backend.Backend by dlopen'ing the vendor EVA DSP
// runtime and calling its buffer registration ABI:
//
//	int32_t eva_register_dmabuf(int32_t fd, uint32_t size, uint64_t *out_handle);
//	int32_t eva_deregister_dmabuf(uint64_t handle);
type Backend struct{}

// New loads libevadsp.so and resolves the registration entry points.
func New() (*Backend, error) {
	var err error
	lib, err = ffi.LoadLibrary("libevadsp.so")
	if err != nil {
		return nil, fmt.Errorf("evadsp: failed to load libevadsp.so: %w", err)
	}
	if symRegister, err = ffi.GetSymbol(lib, "eva_register_dmabuf"); err != nil {
		return nil, fmt.Errorf("evadsp: eva_register_dmabuf not found: %w", err)
	}
	if symDeregister, err = ffi.GetSymbol(lib, "eva_deregister_dmabuf"); err != nil {
		return nil, fmt.Errorf("evadsp: eva_deregister_dmabuf not found: %w", err)
	}

	if err = ffi.PrepareCallInterface(&cifRegister, types.DefaultCall,
		types.SInt32TypeDescriptor, []*types.TypeDescriptor{
			types.SInt32TypeDescriptor, types.UInt32TypeDescriptor, types.PointerTypeDescriptor,
		}); err != nil {
		return nil, fmt.Errorf("evadsp: prepare eva_register_dmabuf: %w", err)
	}
	if err = ffi.PrepareCallInterface(&cifDeregister, types.DefaultCall,
		types.SInt32TypeDescriptor, []*types.TypeDescriptor{types.UInt64TypeDescriptor}); err != nil {
		return nil, fmt.Errorf("evadsp: prepare eva_deregister_dmabuf: %w", err)
	}

	qclog.Logger().Debug("evadsp backend initialized")
	return &Backend{}, nil
}

func (b *Backend) Variant() backend.Variant { return backend.VariantEVADSP }

func (b *Backend) RegisterBuffer(desc bufferdesc.Descriptor) (backend.Handle, qcstatus.Status) {
	fd := int32(desc.DmaHandle)
	size := uint32(desc.TotalSize)
	var outHandle uint64

	var rc int32
	args := [3]unsafe.Pointer{
		unsafe.Pointer(&fd),
		unsafe.Pointer(&size),
		unsafe.Pointer(&outHandle),
	}
	_ = ffi.CallFunction(&cifRegister, symRegister, unsafe.Pointer(&rc), args[:])
	if rc != 0 {
		return backend.Handle{}, qcstatus.Fail
	}
	return backend.Handle{Variant: backend.VariantEVADSP, Native: uintptr(outHandle)}, qcstatus.OK
}

func (b *Backend) DeregisterBuffer(h backend.Handle) qcstatus.Status {
	handle := uint64(h.Native)
	var rc int32
	args := [1]unsafe.Pointer{unsafe.Pointer(&handle)}
	_ = ffi.CallFunction(&cifDeregister, symDeregister, unsafe.Pointer(&rc), args[:])
	if rc != 0 {
		return qcstatus.Fail
	}
	return qcstatus.OK
}
