package node

import (
	"github.com/qualcomm/qcnode/bufferdesc"
	"github.com/qualcomm/qcnode/framedesc"
	"github.com/qualcomm/qcnode/qcstatus"
)

// EventInfo is the payload an EventCallback receives on frame completion
// or an asynchronous backend event, per §3/§4.E.
type EventInfo struct {
	FrameDesc *framedesc.FrameDescriptor
	NodeID    int
	Status    qcstatus.Status
	State     State
}

// EventCallback is the completion/event signature every Node accepts at
// Initialize. Per §4.E it may run "from a backend-owned thread or the
// caller thread depending on backend"; each Node implementation
// documents which on its doc comment.
type EventCallback func(EventInfo)

// BufferMapEntry names one entry of a Node's init-time
// globalBufferIdMap: a logical port name bound to a global buffer ID
// used by FrameDescriptor slots (§4.E).
type BufferMapEntry struct {
	Name string
	ID   int
}

// Init is the argument to Initialize (§4.E): NodeInit = {configText,
// optional callback, optional buffer refs}.
type Init struct {
	ConfigText string
	Callback   EventCallback
	Buffers    []bufferdesc.Descriptor
}

// ConfigurationIfs is the sub-object §4.E's Node table calls out:
// "GetConfigurationIfs / GetMonitoringIfs — sub-object providing
// VerifyAndSet / GetOptions / Get". Implemented by package nodeconfig.
type ConfigurationIfs interface {
	VerifyAndSet(text string, errs *[]string) qcstatus.Status
	GetOptions() []string
	Get(path string) (string, bool)
}

// MonitoringIfs exposes read-only runtime counters/state a Node wants to
// surface (queue depths, last event, in-flight buffer counts). Each Node
// implementation defines its own key set; Get returns ok=false for an
// unknown key.
type MonitoringIfs interface {
	Get(key string) (string, bool)
}

// Node is the contract every processing stage implements (§4.E).
//
// ProcessFrameDescriptor is not thread-safe per instance (§4.E, §5):
// outer schedulers must serialize submissions to the same Node. Multiple
// distinct Node instances may run concurrently.
type Node interface {
	Initialize(init Init) qcstatus.Status
	Start() qcstatus.Status
	ProcessFrameDescriptor(fd *framedesc.FrameDescriptor) qcstatus.Status
	Stop() qcstatus.Status
	DeInitialize() qcstatus.Status
	GetState() State
	GetConfigurationIfs() ConfigurationIfs
	GetMonitoringIfs() MonitoringIfs
}

// Kind names the algorithm family a Node wraps (§4.E's examples plus
// the original_source/-derived set in SPEC_FULL.md §3). QcNode's core
// treats every Kind except the video codecs as an opaque Non-goal;
// package nodeconfig uses Kind only to pick a DefaultBufferMap.
type Kind int

const (
	KindUnknown Kind = iota
	KindCamera
	KindRemap
	KindDepthFromStereo
	KindOpticalFlow
	KindVoxelization
	KindRadar
	KindVideoEncoder
	KindVideoDecoder
)

// DefaultBufferMap returns the default globalBufferIdMap for kind, used
// by nodeconfig.VerifyAndSet when the config omits globalBufferIdMap
// (§4.E). Supplements spec.md per SPEC_FULL.md §3, sourced from
// original_source/include/QC/Node/*.hpp's port naming.
func DefaultBufferMap(kind Kind) []BufferMapEntry {
	switch kind {
	case KindCamera:
		return []BufferMapEntry{{Name: "output", ID: 0}}
	case KindRemap:
		return []BufferMapEntry{{Name: "input", ID: 0}, {Name: "output", ID: 1}}
	case KindDepthFromStereo:
		return []BufferMapEntry{
			{Name: "primary", ID: 0}, {Name: "auxiliary", ID: 1},
			{Name: "disparity", ID: 2}, {Name: "confidence", ID: 3},
		}
	case KindOpticalFlow:
		return []BufferMapEntry{{Name: "previous", ID: 0}, {Name: "current", ID: 1}, {Name: "flow", ID: 2}}
	case KindVoxelization:
		return []BufferMapEntry{{Name: "points", ID: 0}, {Name: "voxels", ID: 1}}
	case KindRadar:
		return []BufferMapEntry{{Name: "raw", ID: 0}, {Name: "detections", ID: 1}}
	case KindVideoEncoder:
		return []BufferMapEntry{{Name: "input", ID: 0}, {Name: "output", ID: 1}}
	case KindVideoDecoder:
		return []BufferMapEntry{{Name: "input", ID: 0}, {Name: "output", ID: 1}}
	default:
		return nil
	}
}
