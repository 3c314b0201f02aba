// Package framedesc implements §3/§4.D: FrameDescriptor, a fixed-arity
// indexed slot table of descriptor references, and FrameDescriptorPool,
// a thread-safe FIFO that recycles them.
package framedesc

import (
	"github.com/qualcomm/qcnode/bufferdesc"
	"github.com/qualcomm/qcnode/qcstatus"
)

// FrameDescriptor is a fixed-size vector of descriptor references, one
// per global buffer ID agreed at Node init (§4.E). All slots start as
// the Dummy descriptor.
type FrameDescriptor struct {
	slots []bufferdesc.Descriptor
}

// New constructs a FrameDescriptor with arity slots, all initialized to
// Dummy.
func New(arity int) *FrameDescriptor {
	fd := &FrameDescriptor{slots: make([]bufferdesc.Descriptor, arity)}
	fd.Clear()
	return fd
}

// Arity returns the number of slots.
func (fd *FrameDescriptor) Arity() int {
	return len(fd.slots)
}

// GetBuffer returns the descriptor at slot i. Out-of-range i returns the
// Dummy descriptor rather than a reference to a stack-local or invalid
// value (§9 design note: the source returns a reference to a stack-local
// variable in one GetBuffer path; this implementation always returns a
// persistent, valid Descriptor by value instead).
func (fd *FrameDescriptor) GetBuffer(i int) bufferdesc.Descriptor {
	if i < 0 || i >= len(fd.slots) {
		return bufferdesc.Dummy()
	}
	return fd.slots[i]
}

// SetBuffer replaces slot i. Returns OutOfBound without side effects if
// i is out of range.
func (fd *FrameDescriptor) SetBuffer(i int, b bufferdesc.Descriptor) qcstatus.Status {
	if i < 0 || i >= len(fd.slots) {
		return qcstatus.OutOfBound
	}
	fd.slots[i] = b
	return qcstatus.OK
}

// Clear reverts every slot to Dummy.
func (fd *FrameDescriptor) Clear() {
	for i := range fd.slots {
		fd.slots[i] = bufferdesc.Dummy()
	}
}

// Assign copies src into fd. When the two arities match, every slot is
// copied. When they differ, only min(arity) slots are copied and the
// remainder of fd is left unchanged — a documented, test-pinned quirk
// (§4.D, §9) rather than an inferred default. StrictAssign below is the
// fix the design notes in §9 ask implementers to add as an extension
// point.
func (fd *FrameDescriptor) Assign(src *FrameDescriptor) {
	n := len(fd.slots)
	if len(src.slots) < n {
		n = len(src.slots)
	}
	copy(fd.slots, src.slots[:n])
}

// StrictAssign is the §9-recommended strict-mode alternative to Assign:
// it rejects unequal-arity assignment instead of silently truncating.
func (fd *FrameDescriptor) StrictAssign(src *FrameDescriptor) qcstatus.Status {
	if len(fd.slots) != len(src.slots) {
		return qcstatus.BadArguments
	}
	copy(fd.slots, src.slots)
	return qcstatus.OK
}
