// Package htp implements the HTP (Hexagon Tensor Processor) backend
// (§4.F): registering a SharedBuffer's dma_buf handle with the vendor
// HTP runtime so an HTP graph can address it by a remote buffer id.
//
//go:build linux

package htp

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

// Backend implements backend.Backend by dlopen'ing the vendor HTP
// runtime and calling its buffer registration ABI:
//
//	int32_t htp_register_ion(int32_t fd, uint32_t size, uint32_t *out_handle);
//	int32_t htp_deregister_ion(uint32_t handle);
type Backend struct{}

// New loads libhtp_runtime.so and resolves the registration entry
// points.
func New() (*Backend, error) {
	var err error
	lib, err = ffi.LoadLibrary("libhtp_runtime.so")
	if err != nil {
		return nil, fmt.Errorf("htp: failed to load libhtp_runtime.so: %w", err)
	}
	if symRegister, err = ffi.GetSymbol(lib, "htp_register_ion"); err != nil {
		return nil, fmt.Errorf("htp: htp_register_ion not found: %w", err)
	}
	if symDeregister, err = ffi.GetSymbol(lib, "htp_deregister_ion"); err != nil {
		return nil, fmt.Errorf("htp: htp_deregister_ion not found: %w", err)
	}

	if err = ffi.PrepareCallInterface(&cifRegister, types.DefaultCall,
		types.SInt32TypeDescriptor, []*types.TypeDescriptor{
			types.SInt32TypeDescriptor, types.UInt32TypeDescriptor, types.PointerTypeDescriptor,
		}); err != nil {
		return nil, fmt.Errorf("htp: prepare htp_register_ion: %w", err)
	}
	if err = ffi.PrepareCallInterface(&cifDeregister, types.DefaultCall,
		types.SInt32TypeDescriptor, []*types.TypeDescriptor{types.UInt32TypeDescriptor}); err != nil {
		return nil, fmt.Errorf("htp: prepare htp_deregister_ion: %w", err)
	}

	qclog.Logger().Debug("htp backend initialized")
	return &Backend{}, nil
}

func (b *Backend) Variant() backend.Variant { return backend.VariantHTP }

func (b *Backend) RegisterBuffer(desc bufferdesc.Descriptor) (backend.Handle, qcstatus.Status) {
	fd := int32(desc.DmaHandle)
	size := uint32(desc.TotalSize)
	var outHandle uint32

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
	return backend.Handle{Variant: backend.VariantHTP, Native: uintptr(outHandle)}, qcstatus.OK
}

func (b *Backend) DeregisterBuffer(h backend.Handle) qcstatus.Status {
	handle := uint32(h.Native)
	var rc int32
	args := [1]unsafe.Pointer{unsafe.Pointer(&handle)}
	_ = ffi.CallFunction(&cifDeregister, symDeregister, unsafe.Pointer(&rc), args[:])
	if rc != 0 {
		return qcstatus.Fail
	}
	return qcstatus.OK
}
