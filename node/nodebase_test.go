package node

import (
	"testing"

	"github.com/qualcomm/qcnode/qcstatus"
)

func TestStateMachineBadStateNoSideEffects(t *testing.T) {
	sm := NewStateMachine()
	ran := false
	st := sm.TryEnter([]State{StateReady}, StateStarting, func() qcstatus.Status {
		ran = true
		return qcstatus.OK
	}, StateRunning, StateError)

	if st != qcstatus.BadState {
		t.Fatalf("TryEnter from StateInitial (want StateReady) = %v, want BadState", st)
	}
	if ran {
		t.Error("body ran despite wrong source state")
	}
	if got := sm.Get(); got != StateInitial {
		t.Errorf("state = %v, want unchanged StateInitial", got)
	}
}

func TestStateMachineSuccessPath(t *testing.T) {
	sm := NewStateMachine()
	sm.Force(StateReady)

	st := sm.TryEnter([]State{StateReady}, StateStarting, func() qcstatus.Status {
		if got := sm.Get(); got != StateStarting {
			t.Errorf("mid-body state = %v, want StateStarting", got)
		}
		return qcstatus.OK
	}, StateRunning, StateError)

	if st != qcstatus.OK {
		t.Fatalf("TryEnter = %v", st)
	}
	if got := sm.Get(); got != StateRunning {
		t.Errorf("final state = %v, want StateRunning", got)
	}
}

func TestStateMachineFailurePathEntersErrState(t *testing.T) {
	sm := NewStateMachine()
	sm.Force(StateReady)

	st := sm.TryEnter([]State{StateReady}, StateStarting, func() qcstatus.Status {
		return qcstatus.Fail
	}, StateRunning, StateError)

	if st != qcstatus.Fail {
		t.Fatalf("TryEnter = %v, want Fail", st)
	}
	if got := sm.Get(); got != StateError {
		t.Errorf("final state = %v, want StateError", got)
	}
}

func TestCompareAndForce(t *testing.T) {
	sm := NewStateMachine()
	sm.Force(StateRunning)

	if sm.CompareAndForce(StateReady, StatePause) {
		t.Error("CompareAndForce succeeded from wrong current state")
	}
	if !sm.CompareAndForce(StateRunning, StatePausing) {
		t.Error("CompareAndForce failed from correct current state")
	}
	if got := sm.Get(); got != StatePausing {
		t.Errorf("state = %v, want StatePausing", got)
	}
}

func TestBaseEmitWithoutCallback(t *testing.T) {
	b := NewBase("cam0", 0)
	b.Emit(EventInfo{NodeID: 0, Status: qcstatus.OK})
}

func TestBaseEmitInvokesCallback(t *testing.T) {
	b := NewBase("cam0", 0)
	var got EventInfo
	b.SetCallback(func(info EventInfo) { got = info })
	b.Emit(EventInfo{NodeID: 7, Status: qcstatus.OK})
	if got.NodeID != 7 {
		t.Errorf("callback received NodeID %d, want 7", got.NodeID)
	}
}

func TestRejectWrongState(t *testing.T) {
	b := NewBase("cam0", 0)
	if st := b.RejectWrongState(); st != qcstatus.BadState {
		t.Fatalf("RejectWrongState() in StateInitial = %v, want BadState", st)
	}
	b.Force(StateRunning)
	if st := b.RejectWrongState(); st != qcstatus.OK {
		t.Errorf("RejectWrongState() in StateRunning = %v, want OK", st)
	}
}

func TestDefaultBufferMapKnownKinds(t *testing.T) {
	m := DefaultBufferMap(KindDepthFromStereo)
	if len(m) != 4 {
		t.Fatalf("DefaultBufferMap(KindDepthFromStereo) len = %d, want 4", len(m))
	}
	if m[2].Name != "disparity" || m[2].ID != 2 {
		t.Errorf("entry[2] = %+v, want {disparity 2}", m[2])
	}
}

func TestDefaultBufferMapUnknownKind(t *testing.T) {
	if m := DefaultBufferMap(KindUnknown); m != nil {
		t.Errorf("DefaultBufferMap(KindUnknown) = %v, want nil", m)
	}
}

func TestBaseEnterRejectsWrongState(t *testing.T) {
	b := NewBase("cam0", 0)
	ran := false
	st := b.Enter("Start", []State{StateReady}, StateStarting, func() qcstatus.Status {
		ran = true
		return qcstatus.OK
	}, StateRunning, StateError)

	if st != qcstatus.BadState {
		t.Fatalf("Enter() from StateInitial (want StateReady) = %v, want BadState", st)
	}
	if ran {
		t.Error("body ran despite wrong source state")
	}
}

func TestBaseEnterSucceeds(t *testing.T) {
	b := NewBase("cam0", 0)
	b.Force(StateReady)
	st := b.Enter("Start", []State{StateReady}, StateStarting, func() qcstatus.Status {
		return qcstatus.OK
	}, StateRunning, StateError)

	if st != qcstatus.OK {
		t.Fatalf("Enter() = %v, want OK", st)
	}
	if got := b.Get(); got != StateRunning {
		t.Errorf("state = %v, want StateRunning", got)
	}
}
