// Package bufferdesc implements the §3/§4.B descriptor hierarchy over a
// single DMA-backed allocation: a common Base plus non-allocating Tensor,
// Image, CameraFrame, and VideoFrame views.
//
// Grounded on the teacher's resource-ID model (core/id.go's tagged,
// epoch-checked IDs) for the closed-sum-type design note in §9
// ("virtual-dispatch descriptor hierarchy -> closed sum type with a
// runtime-checked typeTag"): TypeTag plays the role core/id.go's Marker
// plays, except here one concrete struct carries every variant's fields
// (the source's derived structs never allocate independently of the
// base, so there is nothing for a Go interface hierarchy to gain).
package bufferdesc

import (
	"github.com/qualcomm/qcnode/qctypes"
)

// MaxDims bounds a Tensor's rank, mirroring the source's fixed-size dims
// array.
const MaxDims = 6

// MaxPlanes bounds the number of memory planes an Image may declare.
const MaxPlanes = 3

// TypeTag discriminates which derived view of Base is populated. It is
// the runtime-checked replacement for the source's RTTI-based
// dynamic_cast chain (§9).
type TypeTag int

const (
	// TypeRaw is a bare Base descriptor with no derived fields populated.
	TypeRaw TypeTag = iota
	TypeTensor
	TypeImage
	TypeCameraFrame
	TypeVideoFrame
	// TypeMax is the Dummy descriptor's tag (§3: "type MAX, name Dummy").
	TypeMax
)

// AllocatorKind names which DMA allocator family produced a buffer.
type AllocatorKind int

const (
	AllocatorUnknown AllocatorKind = iota
	AllocatorIon
	AllocatorDmaHeap
	AllocatorGBM
)

// CacheAttr describes the CPU cache policy of the mapped allocation.
type CacheAttr int

const (
	CacheUncached CacheAttr = iota
	CacheWriteBack
	CacheWriteCombine
)

// FrameKind names a video frame's coding type (§3).
type FrameKind int

const (
	FrameKindNotCoded FrameKind = iota
	FrameKindI
	FrameKindP
	FrameKindB
	FrameKindIDR
)

// Descriptor is the single concrete representation for every member of
// the §3 hierarchy (Base, Tensor, Image, CameraFrame, VideoFrame). Which
// fields are meaningful is determined by Tag; narrowing accessors below
// return ok=false rather than panicking when Tag doesn't match.
//
// Invariant (§3.1): VirtualAddress, TotalSize, DmaHandle, and Pid are set
// once at allocation and never change; only ValidSize, Offset, and the
// derived-view fields change to form a view. Invariant (§3.4): a
// Descriptor is a value type. Copying it never duplicates ownership of
// the backing allocation — ownership lives in the SharedBuffer registry
// (package sharedbuf); a Descriptor only carries the opaque handle.
type Descriptor struct {
	Tag TypeTag

	// Base fields, immutable after allocation except where noted.
	Name          string
	VirtualAddr   uintptr
	TotalSize     uint64
	DmaHandle     int32
	CacheAttr     CacheAttr
	AllocatorKind AllocatorKind
	Pid           int32
	ID            uint64

	// Mutable view fields.
	ValidSize uint64
	Offset    uint64

	// Tensor fields (TypeTensor).
	ElementType qctypes.TensorElementType
	Dims        [MaxDims]uint32
	NumDims     int

	// Image fields (TypeImage, TypeCameraFrame, TypeVideoFrame).
	Format        qctypes.ImageFormat
	BatchSize     uint32
	Width         uint32
	Height        uint32
	Stride        [MaxPlanes]uint32
	ActualHeight  [MaxPlanes]uint32
	PlaneBufSize  [MaxPlanes]uint64
	NumPlanes     int

	// CameraFrame fields (TypeCameraFrame).
	HWTimestampNs  uint64
	GPTPTimestampNs uint64
	FrameIndex     uint64
	ErrorFlags     uint32
	StreamID       uint32

	// VideoFrame fields (TypeVideoFrame).
	TimestampNs uint64
	AppMarkData uint64
	FrameKind   FrameKind
	FrameFlags  uint32
}

// Dummy returns the sentinel descriptor for the per-context immutable
// zero descriptor design note (§9):
// "a per-context immutable zero descriptor; reads return a reference into
// the context." QcNode has no process-wide global: Dummy() returns a
// fresh value, which is just as safe since Descriptor is a plain value
// type with no shared backing state of its own.
func Dummy() Descriptor {
	return Descriptor{Tag: TypeMax, Name: "Dummy"}
}

// IsDummy reports whether d is the Dummy sentinel.
func (d Descriptor) IsDummy() bool {
	return d.Tag == TypeMax
}

// GetDataPtr returns the address of the first valid byte, per §3.
func (d Descriptor) GetDataPtr() uintptr {
	return d.VirtualAddr + uintptr(d.Offset)
}

// GetDataSize returns the number of valid bytes, per §3.
func (d Descriptor) GetDataSize() uint64 {
	return d.ValidSize
}

// CheckInvariant verifies §3 invariant 1 / §8 testable property 3:
// Offset + ValidSize <= TotalSize.
func (d Descriptor) CheckInvariant() bool {
	return d.Offset+d.ValidSize <= d.TotalSize
}

// AsTensor narrows d to its Tensor view. ok is false unless Tag is
// TypeTensor.
func (d Descriptor) AsTensor() (Descriptor, bool) {
	return d, d.Tag == TypeTensor
}

// AsImage narrows d to its Image view. ok is true for TypeImage and the
// two image-derived kinds (CameraFrame, VideoFrame), since both extend
// Image per §3.
func (d Descriptor) AsImage() (Descriptor, bool) {
	return d, d.Tag == TypeImage || d.Tag == TypeCameraFrame || d.Tag == TypeVideoFrame
}

// AsCameraFrame narrows d to its CameraFrame view.
func (d Descriptor) AsCameraFrame() (Descriptor, bool) {
	return d, d.Tag == TypeCameraFrame
}

// AsVideoFrame narrows d to its VideoFrame view.
func (d Descriptor) AsVideoFrame() (Descriptor, bool) {
	return d, d.Tag == TypeVideoFrame
}
