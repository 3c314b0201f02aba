package datatree

import (
	"testing"

	"github.com/qualcomm/qcnode/qcstatus"
	"github.com/qualcomm/qcnode/qctypes"
)

func TestLoadS1(t *testing.T) {
	d := New()
	var errs []string
	text := `
static:
  name: c0
  id: 7
  width: 1920
  height: 1080
  format: nv12
`
	if st := d.Load(text, &errs); st != qcstatus.OK {
		t.Fatalf("Load() = %v, errs=%v", st, errs)
	}

	if got := Get(d, "static.name", ""); got != "c0" {
		t.Errorf("static.name = %q, want c0", got)
	}
	if got := Get(d, "static.id", int64(0)); got != 7 {
		t.Errorf("static.id = %d, want 7", got)
	}
	if got := d.GetImageFormat("static.format", qctypes.ImageFormatMax); got != qctypes.ImageFormatNV12 {
		t.Errorf("static.format = %v, want NV12", got)
	}
}

func TestTypedAccessorDefault(t *testing.T) {
	d := New()

	if got := Get(d, "missing.path", "dv"); got != "dv" {
		t.Errorf("Get() = %q, want dv", got)
	}
	if got := Get(d, "missing.path", int64(42)); got != 42 {
		t.Errorf("Get() = %d, want 42", got)
	}
	if got := Get(d, "missing.path", true); got != true {
		t.Errorf("Get() = %v, want true", got)
	}
	if d.Exists("missing.path") {
		t.Errorf("Exists() = true after a defaulted read, want false (reads never mutate)")
	}
	if len(d.order) != 0 {
		t.Errorf("tree mutated by a defaulted read: order=%v", d.order)
	}
}

func TestSetCreatesIntermediateMappings(t *testing.T) {
	d := New()
	Set(d, "static.nested.value", int64(5))

	if got := Get(d, "static.nested.value", int64(0)); got != 5 {
		t.Errorf("Get() = %d, want 5", got)
	}
	if !d.Exists("static.nested") {
		t.Errorf("Exists(static.nested) = false, want true")
	}
}

func TestRoundTrip(t *testing.T) {
	d := New()
	var errs []string
	text := `
static:
  name: remap0
  id: 3
  globalBufferIdMap:
    - name: input
      id: 0
    - name: output
      id: 1
  bufferIds: [1, 2, 3]
dynamic:
  logLevel: DEBUG
`
	if st := d.Load(text, &errs); st != qcstatus.OK {
		t.Fatalf("Load() = %v, errs=%v", st, errs)
	}

	dumped := d.Dump()

	d2 := New()
	var errs2 []string
	if st := d2.Load(dumped, &errs2); st != qcstatus.OK {
		t.Fatalf("reload of dump failed: %v, errs=%v", st, errs2)
	}

	if got := Get(d2, "static.name", ""); got != "remap0" {
		t.Errorf("round-tripped static.name = %q, want remap0", got)
	}
	if got := Get(d2, "static.id", int64(0)); got != 3 {
		t.Errorf("round-tripped static.id = %d, want 3", got)
	}
	ids := GetSequence(d2, "static.bufferIds", []int64(nil))
	if len(ids) != 3 || ids[0] != 1 || ids[2] != 3 {
		t.Errorf("round-tripped static.bufferIds = %v, want [1 2 3]", ids)
	}

	entries, st := d2.GetSubtreeSequence("static.globalBufferIdMap")
	if st != qcstatus.OK || len(entries) != 2 {
		t.Fatalf("GetSubtreeSequence() = (%v, %v), want 2 entries", entries, st)
	}
	if got := Get(&entries[0], "name", ""); got != "input" {
		t.Errorf("entries[0].name = %q, want input", got)
	}
	if got := Get(&entries[1], "id", int64(-1)); got != 1 {
		t.Errorf("entries[1].id = %d, want 1", got)
	}
}

func TestGetSubtreeOutOfBound(t *testing.T) {
	d := New()
	Set(d, "static.name", "n")
	var sub DataTree
	if st := d.GetSubtree("static.missing", &sub); st != qcstatus.OutOfBound {
		t.Errorf("GetSubtree() = %v, want OutOfBound", st)
	}
	if st := d.GetSubtree("static.name", &sub); st != qcstatus.OutOfBound {
		t.Errorf("GetSubtree() on a leaf = %v, want OutOfBound", st)
	}
}
