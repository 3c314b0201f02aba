package sharedbuf

import (
	"os"

	"github.com/qualcomm/qcnode/bufferdesc"
	"github.com/qualcomm/qcnode/internal/qclog"
	"github.com/qualcomm/qcnode/qcstatus"
)

// bufferState tracks a SharedBuffer's lifecycle so Allocate/Free/Import/
// UnImport can reject out-of-sequence calls: Already for a second
// Allocate, InvalidBuf for Free of an imported buffer, BadState otherwise.
type bufferState int

const (
	stateUninitialized bufferState = iota
	stateAllocated
	stateImported
)

// SharedBuffer owns one DMA allocation plus cached image/tensor property
// side-info, per §4.C. The zero value is a valid, unallocated buffer.
type SharedBuffer struct {
	VirtualAddr uintptr
	DmaHandle   int32
	TotalSize   uint64
	Pid         int32
	Usage       Usage
	Flags       Flags
	ID          uint64

	// Image and Tensor cache the property side-info a Node's descriptor
	// views are built from; at most one is meaningful, selected by Kind.
	Kind   bufferdesc.TypeTag
	Image  bufferdesc.Descriptor
	Tensor bufferdesc.Descriptor

	state bufferState
	mgr   *BufferManager
	alloc DmaAllocator
}

// New constructs an unallocated SharedBuffer bound to mgr and alloc.
func New(mgr *BufferManager, alloc DmaAllocator) *SharedBuffer {
	return &SharedBuffer{mgr: mgr, alloc: alloc}
}

// Allocate performs the allocation, per §4.C. Must be called by the
// owning process. On success the buffer registers with the bound
// BufferManager, which assigns ID.
func (b *SharedBuffer) Allocate(size uint64, usage Usage, flags Flags) qcstatus.Status {
	if b.state != stateUninitialized {
		return qcstatus.Already
	}
	if size == 0 {
		return qcstatus.BadArguments
	}

	alloc, st := b.alloc.Allocate(size, flags, usage)
	if st != qcstatus.OK {
		return qcstatus.NoMem
	}

	b.VirtualAddr = alloc.VirtualAddr
	b.DmaHandle = alloc.DmaHandle
	b.TotalSize = alloc.Size
	b.Pid = int32(os.Getpid())
	b.Usage = usage
	b.Flags = flags
	b.state = stateAllocated

	b.ID = b.mgr.register(b)
	qclog.Logger().Debug("sharedbuf allocated", "id", b.ID, "size", size, "handle", b.DmaHandle)
	return qcstatus.OK
}

// Free releases the allocation. Rejected when the calling process does
// not own the buffer (§4.C: "Only the owning process may free").
func (b *SharedBuffer) Free() qcstatus.Status {
	switch b.state {
	case stateUninitialized:
		return qcstatus.BadState
	case stateImported:
		return qcstatus.InvalidBuf
	}
	if b.Pid != int32(os.Getpid()) {
		return qcstatus.OutOfBound
	}

	b.mgr.deregister(b.ID)
	if st := b.alloc.Free(b.VirtualAddr, b.DmaHandle, b.TotalSize); st != qcstatus.OK {
		return st
	}
	*b = SharedBuffer{mgr: b.mgr, alloc: b.alloc}
	return qcstatus.OK
}

// Import maps a remote SharedBuffer's allocation into this process, per
// §4.C. Rejected when remote is already owned by the calling process.
func (b *SharedBuffer) Import(remote *SharedBuffer) qcstatus.Status {
	if b.state != stateUninitialized {
		return qcstatus.BadState
	}
	if remote == nil {
		return qcstatus.BadArguments
	}
	if remote.Pid == int32(os.Getpid()) {
		return qcstatus.BadArguments
	}

	alloc, st := b.alloc.Import(remote.Pid, remote.DmaHandle, remote.TotalSize, remote.Flags, remote.Usage)
	if st != qcstatus.OK {
		return qcstatus.OutOfBound
	}

	b.VirtualAddr = alloc.VirtualAddr
	b.DmaHandle = alloc.DmaHandle
	b.TotalSize = alloc.Size
	b.Pid = remote.Pid
	b.Usage = remote.Usage
	b.Flags = remote.Flags
	b.Kind = remote.Kind
	b.Image = remote.Image
	b.Tensor = remote.Tensor
	b.state = stateImported

	b.ID = b.mgr.register(b)
	return qcstatus.OK
}

// UnImport reverses Import. Rejected when the buffer is locally owned.
func (b *SharedBuffer) UnImport() qcstatus.Status {
	if b.state != stateImported {
		return qcstatus.BadState
	}
	if b.Pid == int32(os.Getpid()) {
		return qcstatus.BadArguments
	}

	b.mgr.deregister(b.ID)
	st := b.alloc.UnImport(b.VirtualAddr, b.DmaHandle, b.TotalSize)
	*b = SharedBuffer{mgr: b.mgr, alloc: b.alloc}
	return st
}

// BaseDescriptor returns the base view of this buffer's full extent,
// suitable as a starting point for the derived views in package
// bufferdesc.
func (b *SharedBuffer) BaseDescriptor(name string) bufferdesc.Descriptor {
	return bufferdesc.Descriptor{
		Tag:         bufferdesc.TypeRaw,
		Name:        name,
		VirtualAddr: b.VirtualAddr,
		TotalSize:   b.TotalSize,
		DmaHandle:   b.DmaHandle,
		Pid:         b.Pid,
		ID:          b.ID,
		ValidSize:   b.TotalSize,
	}
}
