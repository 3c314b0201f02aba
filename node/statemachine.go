package node

import (
	"sync"

	"github.com/qualcomm/qcnode/qcstatus"
)

// StateMachine guards a Node's State behind a mutex and enforces that
// every transition is triggered only from its documented source state
// (§3): "Any operation invoked in a non-matching source state must
// return BAD_STATE without side effects." It is embedded by Base, and
// through Base by the video codec Node implementations in package
// videocodec.
type StateMachine struct {
	mu    sync.Mutex
	state State
}

// NewStateMachine constructs a StateMachine in StateInitial.
func NewStateMachine() *StateMachine {
	return &StateMachine{state: StateInitial}
}

// Get returns the current state.
func (sm *StateMachine) Get() State {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.state
}

// TryEnter transitions from any of from into mid, running body while
// still holding the lock is not done here (body may itself drive
// backend calls that block); instead TryEnter moves to mid, releases
// the lock, runs body, then moves to done on success or errState on
// failure. If body returns a non-OK status, the state machine moves to
// errState (normally StateError, but StateReady for a failed Stop, etc.)
// rather than lingering in mid.
//
// Returns BadState without running body if the current state is not in
// from.
func (sm *StateMachine) TryEnter(from []State, mid State, body func() qcstatus.Status, done, errState State) qcstatus.Status {
	sm.mu.Lock()
	if !contains(from, sm.state) {
		sm.mu.Unlock()
		return qcstatus.BadState
	}
	sm.state = mid
	sm.mu.Unlock()

	st := body()

	sm.mu.Lock()
	if st == qcstatus.OK {
		sm.state = done
	} else {
		sm.state = errState
	}
	sm.mu.Unlock()
	return st
}

// Force sets the state unconditionally. Used by backend event handlers
// (§3: "or by backend events") that drive a transition the submitting
// thread isn't waiting synchronously for, and to enter StateError from
// any state on a hardware-fatal event (§4.G.2).
func (sm *StateMachine) Force(s State) {
	sm.mu.Lock()
	sm.state = s
	sm.mu.Unlock()
}

// CompareAndForce sets the state to next only if the current state is
// cur, returning whether the swap happened. Backend event handlers use
// this to verify an event arrived in its expected source state before
// applying the transition (§4.G.2: "Any event received in an unexpected
// state transitions to ERROR").
func (sm *StateMachine) CompareAndForce(cur, next State) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.state != cur {
		return false
	}
	sm.state = next
	return true
}

func contains(states []State, s State) bool {
	for _, c := range states {
		if c == s {
			return true
		}
	}
	return false
}
