package node

import (
	"log/slog"
	"os"
	"sync"

	"github.com/qualcomm/qcnode/framedesc"
	"github.com/qualcomm/qcnode/internal/qclog"
	"github.com/qualcomm/qcnode/qcstatus"
	"github.com/qualcomm/qcnode/qctypes"
)

// Base implements the lifecycle plumbing every Node shares: the state
// machine, the event callback slot, and a per-instance logger bound
// once at Initialize (§4.E, §4.H: "exactly-once logger init per Node
// instance"). Concrete Nodes embed Base and supply their own
// ProcessFrameDescriptor, GetConfigurationIfs, and GetMonitoringIfs,
// plus Initialize/Start/Stop/DeInitialize bodies passed to the embedded
// StateMachine's TryEnter.
type Base struct {
	*StateMachine

	name string
	id   int

	logOnce sync.Once
	log     *slog.Logger

	cbMu sync.RWMutex
	cb   EventCallback
}

// NewBase constructs a Base in StateInitial with no bound callback.
func NewBase(name string, id int) *Base {
	return &Base{StateMachine: NewStateMachine(), name: name, id: id}
}

// Name returns the Node's configured name.
func (b *Base) Name() string { return b.name }

// ID returns the Node's configured numeric id.
func (b *Base) ID() int { return b.id }

// BindLogger sets the Node's logger, gated at level, the first time it's
// called; later calls are no-ops, matching the "exactly-once logger
// init" rule so a Node re-entering Initialize after a failed attempt
// doesn't accumulate duplicate handlers (§4.H step 2: "initialize the
// shared logger with the configured name and level").
func (b *Base) BindLogger(level qctypes.LogLevel) *slog.Logger {
	b.logOnce.Do(func() {
		b.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: qclog.Level(level),
		})).With(slog.String("node", b.name))
	})
	return b.log
}

// Log returns the Node's bound logger, or the package default if
// BindLogger was never called.
func (b *Base) Log() *slog.Logger {
	if b.log == nil {
		return qclog.Logger()
	}
	return b.log
}

// SetCallback installs the EventCallback an Initialize call received.
func (b *Base) SetCallback(cb EventCallback) {
	b.cbMu.Lock()
	b.cb = cb
	b.cbMu.Unlock()
}

// Emit delivers info to the bound callback, if any. Safe to call from a
// backend worker thread concurrently with SetCallback.
func (b *Base) Emit(info EventInfo) {
	b.cbMu.RLock()
	cb := b.cb
	b.cbMu.RUnlock()
	if cb != nil {
		cb(info)
	}
}

// GetState returns the Node's current lifecycle state, satisfying
// node.Node.
func (b *Base) GetState() State { return b.Get() }

// Enter wraps the embedded StateMachine's TryEnter, logging a
// *BadStateError carrying op and the rejected source state whenever the
// current state isn't in from (§3: "must return BAD_STATE without side
// effects" — Enter is how that rejection gets a diagnosable record
// instead of vanishing into a bare status code).
func (b *Base) Enter(op string, from []State, mid State, body func() qcstatus.Status, done, errState State) qcstatus.Status {
	cur := b.Get()
	st := b.TryEnter(from, mid, body, done, errState)
	if st == qcstatus.BadState {
		se := &BadStateError{Op: op, Current: cur, Expected: from}
		b.Log().Warn("rejected", "reason", se.Error())
	}
	return st
}

// RejectWrongState is a convenience for ProcessFrameDescriptor
// implementations: returns BadState unless the Node is StateRunning
// (§3: frame submission is only valid while running), otherwise OK.
func (b *Base) RejectWrongState() qcstatus.Status {
	cur := b.Get()
	if cur != StateRunning {
		se := &BadStateError{Op: "ProcessFrameDescriptor", Current: cur, Expected: []State{StateRunning}}
		b.Log().Warn("rejected", "reason", se.Error())
		return qcstatus.BadState
	}
	return qcstatus.OK
}

// ClearFrame resets fd to all-Dummy slots, used by Nodes that must hand
// back a caller-owned FrameDescriptor unmodified on a rejected submit.
func ClearFrame(fd *framedesc.FrameDescriptor) {
	if fd != nil {
		fd.Clear()
	}
}
