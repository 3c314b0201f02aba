package driver

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Channel is the ioctl-style device channel a codec Node drives
// (§4.G). Ioctl sends one command down; WaitEvent blocks the calling
// goroutine until an event arrives or timeout elapses, mirroring the
// "state flag written by the callback thread, polled by the submitting
// thread" wait protocol in §4.G.4.
type Channel interface {
	Ioctl(cmd Command, payload any) error
	WaitEvent(timeout time.Duration) (Event, error)
	Close() error
}

// ErrTimeout is returned by WaitEvent when no event arrives before the
// deadline (§4.G.4: "A timeout transitions to ERROR and returns TIMEOUT").
var ErrTimeout = errors.New("driver: wait for event timed out")

// MockMuxer answers CmdRequestBuffers ioctls; tests and the negotiation
// logic use it to script the driver's {actualCount, size} reply for
// each side (§8 property 8, scenario S5).
type MockMuxer interface {
	RequestBuffers(side Side, requested uint32) BufferReq
}

// mockChannel is a software stand-in for the real kernel driver. It
// accepts ioctls, tracks enough state to answer buffer negotiation
// realistically, and delivers events through an eventfd-backed queue so
// WaitEvent can use the same bounded-select wait the real device
// channel would (go4vl's v4l2 WaitForDeviceRead is the model: block on
// an fd with a deadline rather than a bare channel receive).
type mockChannel struct {
	mu     sync.Mutex
	queue  []Event
	efd    int
	muxer  MockMuxer
	closed bool
}

// NewMock constructs a Channel backed by an eventfd, with muxer
// answering buffer-negotiation ioctls.
func NewMock(muxer MockMuxer) (Channel, error) {
	efd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_SEMAPHORE)
	if err != nil {
		return nil, fmt.Errorf("driver: eventfd: %w", err)
	}
	return &mockChannel{efd: efd, muxer: muxer}, nil
}

// PushEvent enqueues an event and wakes up a pending WaitEvent; it is
// the mock's stand-in for the driver's own callback thread, called by
// the videocodec tests and by cmd/qcnode-demo to script driver
// responses.
func (c *mockChannel) PushEvent(e Event) {
	c.mu.Lock()
	c.queue = append(c.queue, e)
	c.mu.Unlock()
	_ = unix.Write(c.efd, []byte{1, 0, 0, 0, 0, 0, 0, 0})
}

func (c *mockChannel) Ioctl(cmd Command, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("driver: ioctl %d on closed channel", cmd)
	}

	switch cmd {
	case CmdRequestBuffers:
		req, ok := payload.(*BufferReqPayload)
		if !ok {
			return fmt.Errorf("driver: CmdRequestBuffers payload type %T", payload)
		}
		if c.muxer == nil {
			return errors.New("driver: no muxer installed for CmdRequestBuffers")
		}
		req.Reply = c.muxer.RequestBuffers(req.Side, req.Requested)
	}
	return nil
}

// BufferReqPayload carries both the ask and (after Ioctl returns) the
// driver's reply for a CmdRequestBuffers call.
type BufferReqPayload struct {
	Side      Side
	Requested uint32
	Reply     BufferReq
}

func (c *mockChannel) WaitEvent(timeout time.Duration) (Event, error) {
	c.mu.Lock()
	if len(c.queue) > 0 {
		e := c.queue[0]
		c.queue = c.queue[1:]
		// Consume this event's eventfd count too, so a later wait on an
		// empty queue blocks for its timeout instead of waking at once.
		var buf [8]byte
		_, _ = unix.Read(c.efd, buf[:])
		c.mu.Unlock()
		return e, nil
	}
	c.mu.Unlock()

	var fds unix.FdSet
	fds.Set(c.efd)
	tv := unix.NsecToTimeval(timeout.Nanoseconds())
	n, err := unix.Select(c.efd+1, &fds, nil, nil, &tv)
	if err != nil && err != unix.EINTR {
		return Event{}, fmt.Errorf("driver: select: %w", err)
	}
	if n <= 0 {
		return Event{}, ErrTimeout
	}

	var buf [8]byte
	_, _ = unix.Read(c.efd, buf[:])

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return Event{}, ErrTimeout
	}
	e := c.queue[0]
	c.queue = c.queue[1:]
	return e, nil
}

func (c *mockChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return unix.Close(c.efd)
}
