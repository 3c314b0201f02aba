// Package driver models the ioctl-style device channel the video codec
// Node talks to (§4.G): a small set of ioctl commands going down, and a
// stream of asynchronous events coming back on a driver-owned callback
// thread. Channel is implemented here by a mock that behaves like the
// real kernel driver closely enough to drive the Node's state machine
// and buffer negotiation logic; a hardware-backed Channel would satisfy
// the same interface over /dev/video-style ioctls.
package driver

// Session selects encode vs decode (§4.G.1).
type Session uint32

const (
	SessionEncode Session = iota
	SessionDecode
)

// Codec selects the compressed format (§4.G.1).
type Codec uint32

const (
	CodecH264 Codec = iota
	CodecHEVC
)

// Side distinguishes the input (bitstream for decode, raw for encode)
// and output ports of a codec session.
type Side uint32

const (
	SideInput Side = iota
	SideOutput
)

// BufferMode selects dynamic (caller-supplied-per-submit) vs static
// (enrolled-at-init) buffer handling for one Side (§4.G.3).
type BufferMode uint32

const (
	BufferModeDynamic BufferMode = iota
	BufferModeStatic
)

// Command enumerates the ioctls the Node issues (§4.G.2).
type Command uint32

const (
	CmdSetSession Command = iota
	CmdSetFrameRate
	CmdSetFrameSize
	CmdSetBufferMode
	CmdRequestBuffers
	CmdSetBuffer
	CmdLoadResources
	CmdStart
	CmdStartInput
	CmdEmptyInputBuffer
	CmdFillOutputBuffer
	CmdPause
	CmdResume
	CmdDrain
	CmdStop
	CmdStopInput
	CmdStopOutput
	CmdReleaseResources
	CmdFreeBuffer
	CmdFlushInput
	CmdFlushOutput
)

// EventKind enumerates the asynchronous events the driver posts back
// (§4.G.2).
type EventKind uint32

const (
	EvtLoadResourcesDone EventKind = iota
	EvtStart
	EvtStartInputDone
	EvtStartOutputDone
	EvtInputDone
	EvtOutputDone
	EvtPause
	EvtResume
	EvtDrain
	EvtLastFlag
	EvtStopDone
	EvtStopInputDone
	EvtStopOutputDone
	EvtReleaseResourcesDone
	EvtOutputReconfig
	EvtFlushInputDone
	EvtFlushOutputDone
	EvtHWFatal
	EvtClientFatal
)

// FrameKind mirrors the driver's reported coded-frame type, carried on
// an Event. The codec core does not copy it into bufferdesc.FrameKind.
type FrameKind uint32

const (
	FrameKindNotCoded FrameKind = iota
	FrameKindI
	FrameKindP
	FrameKindB
	FrameKindIDR
)

// BufferReq is the driver's answer to a CmdRequestBuffers ioctl: the
// actual count and per-buffer size it requires for one Side (§4.G.2
// step 5).
type BufferReq struct {
	ActualCount uint32
	Size        uint32
}

// FrameIO is the wire shape of a submitted frame buffer, carried by
// CmdEmptyInputBuffer/CmdFillOutputBuffer (§4.G.2 "Per-frame submit").
type FrameIO struct {
	Address      uintptr
	DMAHandle    int32
	AllocLen     uint32
	DataLen      uint32
	TimestampUs  int64
	MarkData     uint64
	Flags        uint32
}

// Event is a single asynchronous message from the driver's callback
// thread (§4.G.2 "Events").
type Event struct {
	Kind      EventKind
	Side      Side
	DMAHandle int32
	DataLen   uint32
	TimestampUs int64
	MarkData  uint64
	Flags     uint32
	FrameKind FrameKind
	Address   uintptr
	BufferReq BufferReq
}
