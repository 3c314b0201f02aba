package framedesc

import (
	"sync"

	"github.com/qualcomm/qcnode/qcstatus"
)

// Pool holds N preconstructed FrameDescriptor(arity) instances served
// through a mutex-protected FIFO (§4.D). Get never blocks: on an empty
// pool it returns OutOfBound and a Dummy pool descriptor, the
// back-pressure signal §5 requires from this type. Both Get and Put are
// mutex-protected — the source leaves Put unprotected, which this spec
// documents as a bug fixed here (§9: "the Put path ... is not
// mutex-protected in the source; this spec requires it to be protected").
type Pool struct {
	mu    sync.Mutex
	fifo  []*FrameDescriptor
	arity int
}

// NewPool constructs a pool of n preallocated FrameDescriptor(arity)
// instances.
func NewPool(n, arity int) *Pool {
	p := &Pool{fifo: make([]*FrameDescriptor, 0, n), arity: arity}
	for i := 0; i < n; i++ {
		p.fifo = append(p.fifo, New(arity))
	}
	return p
}

// Get pops a FrameDescriptor from the pool, clearing it to all-Dummy
// slots first. On an empty pool, returns (OutOfBound, a Dummy pool
// descriptor of the pool's arity) without blocking.
func (p *Pool) Get() (qcstatus.Status, *FrameDescriptor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.fifo) == 0 {
		return qcstatus.OutOfBound, New(p.arity)
	}
	fd := p.fifo[0]
	p.fifo = p.fifo[1:]
	fd.Clear()
	return qcstatus.OK, fd
}

// Put returns fd to the pool. The pool does not track ownership of
// handed-out descriptors beyond the FIFO; callers must return exactly
// once (§4.D).
func (p *Pool) Put(fd *FrameDescriptor) qcstatus.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fifo = append(p.fifo, fd)
	return qcstatus.OK
}

// Available returns the number of descriptors currently in the pool.
func (p *Pool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.fifo)
}
