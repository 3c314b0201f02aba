// Package sharedbuf implements §3/§4.C: SharedBuffer (one DMA allocation
// plus cached property side-info) and BufferManager (the process-wide
// registry that assigns IDs and resolves descriptor-driven backend
// lookups).
//
// The platform DMA allocator stays an interface per §1's Non-goals ("No
// platform-specific memory allocator implementation — the allocator is
// an interface the core consumes"); NewDefaultAllocator below returns the
// in-memory reference implementation used by tests and by callers with
// no real DMA heap, grounded on the pack's DMA-buf precedent
// (usbarmory/tamago's soc/nxp/enet DMA descriptor code) for the shape of
// {addr, handle, size} triples a real allocator would hand back.
package sharedbuf

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/qualcomm/qcnode/qcstatus"
)

// Usage describes the intended consumer of a DMA allocation.
type Usage int

const (
	UsageUnknown Usage = iota
	UsageCPURead
	UsageCPUWrite
	UsageHardwareReadOnly
	UsageHardwareReadWrite
)

// Flags are allocator hints (cached vs. uncached, contiguous, secure).
type Flags uint32

const (
	FlagNone       Flags = 0
	FlagCached     Flags = 1 << 0
	FlagContiguous Flags = 1 << 1
	FlagSecure     Flags = 1 << 2
)

// DmaAllocation is what a DmaAllocator hands back: the boundary described
// in §6 ("DMA allocator boundary").
type DmaAllocation struct {
	VirtualAddr uintptr
	DmaHandle   int32
	Size        uint64
}

// DmaAllocator is the platform DMA allocator interface the core consumes
// (§1 Non-goal: the core never implements one itself).
type DmaAllocator interface {
	Allocate(size uint64, flags Flags, usage Usage) (DmaAllocation, qcstatus.Status)
	Free(addr uintptr, handle int32, size uint64) qcstatus.Status
	Import(remotePid int32, remoteHandle int32, size uint64, flags Flags, usage Usage) (DmaAllocation, qcstatus.Status)
	UnImport(addr uintptr, handle int32, size uint64) qcstatus.Status
}

// mapping is one mmap'd view of a memfd: the primary allocation, or a
// second view obtained through Import.
type mapping struct {
	fd  int
	mem []byte
}

// defaultAllocator is the reference DmaAllocator: each allocation is a
// Linux memfd (a dma_heap/ION handle's in-process stand-in — both are
// just fds a driver can mmap or hand to another process) sized with
// Ftruncate and mapped MAP_SHARED, so DmaHandle is a real fd a caller
// could pass across a process boundary the same way a dma-heap handle
// would be. Real platform allocators (ION, dma-heap, GBM) satisfy the
// same interface without this package knowing about them, per the
// Non-goal in §1; this is the one the Non-goal lets the core ship with.
type defaultAllocator struct {
	mu      sync.Mutex
	bufs    map[int32]mapping
	imports map[uintptr]mapping
}

// NewDefaultAllocator returns the in-process reference DmaAllocator.
func NewDefaultAllocator() DmaAllocator {
	return &defaultAllocator{
		bufs:    map[int32]mapping{},
		imports: map[uintptr]mapping{},
	}
}

func (a *defaultAllocator) Allocate(size uint64, _ Flags, _ Usage) (DmaAllocation, qcstatus.Status) {
	if size == 0 {
		return DmaAllocation{}, qcstatus.BadArguments
	}
	fd, err := unix.MemfdCreate("qcnode-dma", 0)
	if err != nil {
		return DmaAllocation{}, qcstatus.NoMem
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		return DmaAllocation{}, qcstatus.NoMem
	}
	mem, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return DmaAllocation{}, qcstatus.NoMem
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.bufs[int32(fd)] = mapping{fd: fd, mem: mem}
	return DmaAllocation{
		VirtualAddr: uintptr(unsafe.Pointer(&mem[0])),
		DmaHandle:   int32(fd),
		Size:        size,
	}, qcstatus.OK
}

func (a *defaultAllocator) Free(_ uintptr, handle int32, _ uint64) qcstatus.Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	m, ok := a.bufs[handle]
	if !ok {
		return qcstatus.InvalidBuf
	}
	delete(a.bufs, handle)
	unix.Munmap(m.mem)
	unix.Close(m.fd)
	return qcstatus.OK
}

// Import maps a second view of an already-allocated handle, standing in
// for a remote process mapping the same dma_heap fd it was handed.
func (a *defaultAllocator) Import(_ int32, remoteHandle int32, size uint64, _ Flags, _ Usage) (DmaAllocation, qcstatus.Status) {
	a.mu.Lock()
	defer a.mu.Unlock()
	src, ok := a.bufs[remoteHandle]
	if !ok {
		return DmaAllocation{}, qcstatus.BadArguments
	}
	mem, err := unix.Mmap(src.fd, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return DmaAllocation{}, qcstatus.NoMem
	}
	addr := uintptr(unsafe.Pointer(&mem[0]))
	a.imports[addr] = mapping{fd: src.fd, mem: mem}
	return DmaAllocation{
		VirtualAddr: addr,
		DmaHandle:   remoteHandle,
		Size:        size,
	}, qcstatus.OK
}

func (a *defaultAllocator) UnImport(addr uintptr, _ int32, _ uint64) qcstatus.Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	m, ok := a.imports[addr]
	if !ok {
		return qcstatus.InvalidBuf
	}
	delete(a.imports, addr)
	unix.Munmap(m.mem)
	return qcstatus.OK
}

// idCounter is package-scoped so every BufferManager instance in a
// process shares a single, never-reused ID space, per §4.C ("assigns
// monotonic id") and §8 property 6 ("ids are not reused — monotone").
var idCounter atomic.Uint64
