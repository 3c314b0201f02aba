package framedesc

import (
	"sync"
	"testing"

	"github.com/qualcomm/qcnode/bufferdesc"
	"github.com/qualcomm/qcnode/qcstatus"
)

func TestPoolBackPressureS4(t *testing.T) {
	pool := NewPool(2, 3)

	st1, fd1 := pool.Get()
	if st1 != qcstatus.OK {
		t.Fatalf("first Get() = %v", st1)
	}
	st2, _ := pool.Get()
	if st2 != qcstatus.OK {
		t.Fatalf("second Get() = %v", st2)
	}

	st3, fd3 := pool.Get()
	if st3 != qcstatus.OutOfBound {
		t.Fatalf("third Get() = %v, want OutOfBound", st3)
	}
	if !fd3.GetBuffer(0).IsDummy() {
		t.Error("third Get() ref is not all-Dummy")
	}

	if st := pool.Put(fd1); st != qcstatus.OK {
		t.Fatalf("Put() = %v", st)
	}
	st4, _ := pool.Get()
	if st4 != qcstatus.OK {
		t.Errorf("Get() after Put() = %v, want OK", st4)
	}
}

func TestGetOutOfRangeReturnsDummy(t *testing.T) {
	fd := New(3)
	if !fd.GetBuffer(-1).IsDummy() {
		t.Error("GetBuffer(-1) is not Dummy")
	}
	if !fd.GetBuffer(3).IsDummy() {
		t.Error("GetBuffer(arity) is not Dummy")
	}
}

func TestSetBufferOutOfRange(t *testing.T) {
	fd := New(2)
	if st := fd.SetBuffer(5, bufferdesc.Descriptor{}); st != qcstatus.OutOfBound {
		t.Errorf("SetBuffer(5, ...) = %v, want OutOfBound", st)
	}
}

func TestClearRevertsToDummy(t *testing.T) {
	fd := New(2)
	fd.SetBuffer(0, bufferdesc.Descriptor{Name: "real"})
	fd.Clear()
	if !fd.GetBuffer(0).IsDummy() {
		t.Error("Clear() did not revert slot 0 to Dummy")
	}
}

func TestAssignUnequalArityTruncates(t *testing.T) {
	src := New(2)
	src.SetBuffer(0, bufferdesc.Descriptor{Name: "a"})
	src.SetBuffer(1, bufferdesc.Descriptor{Name: "b"})

	dst := New(3)
	dst.SetBuffer(2, bufferdesc.Descriptor{Name: "preexisting"})
	dst.Assign(src)

	if got := dst.GetBuffer(0).Name; got != "a" {
		t.Errorf("dst[0] = %q, want a", got)
	}
	if got := dst.GetBuffer(1).Name; got != "b" {
		t.Errorf("dst[1] = %q, want b", got)
	}
	if got := dst.GetBuffer(2).Name; got != "preexisting" {
		t.Errorf("dst[2] = %q, want preexisting (documented unequal-arity quirk leaves the remainder untouched)", got)
	}
}

func TestStrictAssignRejectsUnequalArity(t *testing.T) {
	src := New(2)
	dst := New(3)
	if st := dst.StrictAssign(src); st != qcstatus.BadArguments {
		t.Errorf("StrictAssign() = %v, want BadArguments", st)
	}
}

func TestPoolConcurrentGetPut(t *testing.T) {
	pool := NewPool(8, 2)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if st, fd := pool.Get(); st == qcstatus.OK {
				pool.Put(fd)
			}
		}()
	}
	wg.Wait()
	if got := pool.Available(); got != 8 {
		t.Errorf("Available() = %d after balanced Get/Put, want 8", got)
	}
}
