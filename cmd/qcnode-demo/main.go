// Command qcnode-demo wires a small Camera -> Remap -> VideoEncoder
// pipeline end to end through the Node contract: Initialize each stage,
// Start each stage, hand a FrameDescriptor through ProcessFrameDescriptor
// at each stage, then Stop/DeInitialize in reverse order.
//
// It is headless: Camera and Remap are nodeconfig.Stub Nodes (§1's
// Non-goal keeps per-Node algorithm internals out of scope), and the
// encoder talks to an in-process mock device channel rather than a real
// codec driver.
package main

import (
	"fmt"
	"os"

	"github.com/qualcomm/qcnode/bufferdesc"
	"github.com/qualcomm/qcnode/framedesc"
	"github.com/qualcomm/qcnode/node"
	"github.com/qualcomm/qcnode/nodeconfig"
	"github.com/qualcomm/qcnode/qcstatus"
	"github.com/qualcomm/qcnode/videocodec"
	"github.com/qualcomm/qcnode/videocodec/driver"
)

// echoMuxer answers every buffer request with an exact echo, so the
// encoder's negotiation always succeeds without a real driver present.
type echoMuxer struct{}

func (echoMuxer) RequestBuffers(side driver.Side, requested uint32) driver.BufferReq {
	return driver.BufferReq{ActualCount: requested, Size: 1920 * 1080 * 3 / 2}
}

const encoderConfig = `
static:
  name: enc0
  id: 3
  width: 1920
  height: 1080
  frameRate: 30
  inputDynamicMode: true
  outputDynamicMode: true
  numInputBufferReq: 4
  numOutputBufferReq: 4
  inFormat: nv12
  outFormat: h264
  bitRate: 8000000
  gop: 30
  rateControlMode: 2
  profile: 2
`

func main() {
	if err := run(); err != nil {
		fmt.Println("FATAL:", err)
		os.Exit(1)
	}
}

func run() error {
	fmt.Println("=== QcNode pipeline: Camera -> Remap -> VideoEncoder ===")

	fmt.Print("1. Constructing stages... ")
	camera := nodeconfig.NewStub(node.KindCamera, "cam0", 1)
	remap := nodeconfig.NewStub(node.KindRemap, "remap0", 2)

	ch, err := driver.NewMock(echoMuxer{})
	if err != nil {
		return fmt.Errorf("driver.NewMock: %w", err)
	}
	encoder := videocodec.NewEncoder("enc0", 3, ch, driver.CodecH264)
	fmt.Println("OK")

	events := make(chan node.EventInfo, 16)
	cb := func(info node.EventInfo) { events <- info }

	fmt.Print("2. Initializing stages... ")
	if st := camera.Initialize(node.Init{ConfigText: "static:\n  name: cam0\n  id: 1\n", Callback: cb}); st != qcstatus.OK {
		return fmt.Errorf("camera.Initialize: %v", st)
	}
	if st := remap.Initialize(node.Init{ConfigText: "static:\n  name: remap0\n  id: 2\n", Callback: cb}); st != qcstatus.OK {
		return fmt.Errorf("remap.Initialize: %v", st)
	}
	pushLoadResourcesDone(ch)
	if st := encoder.Initialize(node.Init{ConfigText: encoderConfig, Callback: cb}); st != qcstatus.OK {
		return fmt.Errorf("encoder.Initialize: %v", st)
	}
	fmt.Println("OK")

	fmt.Print("3. Starting stages... ")
	if st := camera.Start(); st != qcstatus.OK {
		return fmt.Errorf("camera.Start: %v", st)
	}
	if st := remap.Start(); st != qcstatus.OK {
		return fmt.Errorf("remap.Start: %v", st)
	}
	pushEvent(ch, driver.EvtStart)
	if st := encoder.Start(); st != qcstatus.OK {
		return fmt.Errorf("encoder.Start: %v", st)
	}
	fmt.Println("OK")

	fmt.Print("4. Submitting one frame through each stage... ")
	cameraFrame := framedesc.New(1)
	cameraFrame.SetBuffer(0, bufferdesc.Descriptor{Tag: bufferdesc.TypeCameraFrame, DmaHandle: 1, TotalSize: 1920 * 1080 * 3 / 2, ValidSize: 1920 * 1080 * 3 / 2})
	if st := camera.ProcessFrameDescriptor(cameraFrame); st != qcstatus.OK {
		return fmt.Errorf("camera.ProcessFrameDescriptor: %v", st)
	}

	remapFrame := framedesc.New(2)
	remapFrame.Assign(cameraFrame)
	if st := remap.ProcessFrameDescriptor(remapFrame); st != qcstatus.OK {
		return fmt.Errorf("remap.ProcessFrameDescriptor: %v", st)
	}

	encFrame := framedesc.New(2)
	encFrame.SetBuffer(0, remapFrame.GetBuffer(0))
	if st := encoder.ProcessFrameDescriptor(encFrame); st != qcstatus.OK {
		return fmt.Errorf("encoder.ProcessFrameDescriptor: %v", st)
	}
	fmt.Println("OK")

	fmt.Print("5. Stopping stages... ")
	// Stop the completion pump first so encoder.Stop's own wait, not the
	// pump, receives the scripted STOP event.
	encoder.StopCompletionLoop()
	pushEvent(ch, driver.EvtStopDone)
	if st := encoder.Stop(); st != qcstatus.OK {
		return fmt.Errorf("encoder.Stop: %v", st)
	}
	if st := remap.Stop(); st != qcstatus.OK {
		return fmt.Errorf("remap.Stop: %v", st)
	}
	if st := camera.Stop(); st != qcstatus.OK {
		return fmt.Errorf("camera.Stop: %v", st)
	}
	fmt.Println("OK")

	fmt.Print("6. Deinitializing stages... ")
	pushEvent(ch, driver.EvtReleaseResourcesDone)
	if st := encoder.DeInitialize(); st != qcstatus.OK {
		return fmt.Errorf("encoder.DeInitialize: %v", st)
	}
	if st := remap.DeInitialize(); st != qcstatus.OK {
		return fmt.Errorf("remap.DeInitialize: %v", st)
	}
	if st := camera.DeInitialize(); st != qcstatus.OK {
		return fmt.Errorf("camera.DeInitialize: %v", st)
	}
	fmt.Println("OK")

	fmt.Println()
	fmt.Printf("Pipeline ran cleanly; %d events delivered to the shared callback.\n", len(events))
	return nil
}

// pushLoadResourcesDone and pushEvent unwrap the mock Channel's PushEvent
// method, which driver.NewMock's Channel interface does not otherwise
// expose — it exists for test and demo code that must script driver
// responses.
func pushLoadResourcesDone(ch driver.Channel) {
	pushEvent(ch, driver.EvtLoadResourcesDone)
}

func pushEvent(ch driver.Channel, kind driver.EventKind) {
	if p, ok := ch.(interface{ PushEvent(driver.Event) }); ok {
		p.PushEvent(driver.Event{Kind: kind})
	}
}
