package sharedbuf

import (
	"testing"

	"github.com/qualcomm/qcnode/qcstatus"
)

func TestAllocateFreeIDMonotone(t *testing.T) {
	mgr := NewBufferManager()
	alloc := NewDefaultAllocator()

	b1 := New(mgr, alloc)
	if st := b1.Allocate(4096, UsageCPURead, FlagNone); st != qcstatus.OK {
		t.Fatalf("Allocate() = %v", st)
	}
	id1 := b1.ID

	b2 := New(mgr, alloc)
	if st := b2.Allocate(4096, UsageCPURead, FlagNone); st != qcstatus.OK {
		t.Fatalf("Allocate() = %v", st)
	}
	id2 := b2.ID

	if id2 <= id1 {
		t.Fatalf("ids not monotone: id1=%d id2=%d", id1, id2)
	}

	if st := b1.Free(); st != qcstatus.OK {
		t.Fatalf("Free() = %v", st)
	}
	if _, ok := mgr.Lookup(id1); ok {
		t.Error("freed buffer still resolvable by ID")
	}

	b3 := New(mgr, alloc)
	if st := b3.Allocate(4096, UsageCPURead, FlagNone); st != qcstatus.OK {
		t.Fatalf("Allocate() = %v", st)
	}
	if b3.ID == id1 {
		t.Error("BufferManager reused a freed ID; §8 property 6 requires monotone non-reuse")
	}
}

func TestAllocateZeroSize(t *testing.T) {
	mgr := NewBufferManager()
	b := New(mgr, NewDefaultAllocator())
	if st := b.Allocate(0, UsageCPURead, FlagNone); st != qcstatus.BadArguments {
		t.Errorf("Allocate(0) = %v, want BadArguments", st)
	}
}

func TestAllocateTwiceIsAlready(t *testing.T) {
	mgr := NewBufferManager()
	b := New(mgr, NewDefaultAllocator())
	if st := b.Allocate(1024, UsageCPURead, FlagNone); st != qcstatus.OK {
		t.Fatalf("Allocate() = %v", st)
	}
	if st := b.Allocate(1024, UsageCPURead, FlagNone); st != qcstatus.Already {
		t.Errorf("second Allocate() = %v, want Already", st)
	}
}

func TestFreeByNonOwnerRejected(t *testing.T) {
	mgr := NewBufferManager()
	b := New(mgr, NewDefaultAllocator())
	if st := b.Allocate(1024, UsageCPURead, FlagNone); st != qcstatus.OK {
		t.Fatalf("Allocate() = %v", st)
	}
	b.Pid = b.Pid + 1 // simulate a process that does not own this buffer

	if st := b.Free(); st != qcstatus.OutOfBound {
		t.Errorf("Free() by non-owner = %v, want OutOfBound", st)
	}
}

func TestImportRejectsSamePid(t *testing.T) {
	mgr := NewBufferManager()
	alloc := NewDefaultAllocator()

	owner := New(mgr, alloc)
	if st := owner.Allocate(1024, UsageCPURead, FlagNone); st != qcstatus.OK {
		t.Fatalf("Allocate() = %v", st)
	}

	importer := New(mgr, alloc)
	if st := importer.Import(owner); st != qcstatus.BadArguments {
		t.Errorf("Import() of same-pid buffer = %v, want BadArguments", st)
	}
}

func TestLookupByAddr(t *testing.T) {
	mgr := NewBufferManager()
	b := New(mgr, NewDefaultAllocator())
	if st := b.Allocate(1024, UsageCPURead, FlagNone); st != qcstatus.OK {
		t.Fatalf("Allocate() = %v", st)
	}
	got, ok := mgr.LookupByAddr(b.VirtualAddr)
	if !ok || got.ID != b.ID {
		t.Errorf("LookupByAddr() = (%v, %v), want the registered buffer", got, ok)
	}
}
