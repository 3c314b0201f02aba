// Package videocodec implements §4.G: the video encoder/decoder Node
// core shared by both directions — configuration, driver protocol state
// machine, buffer mode bookkeeping, and the negotiation/wait logic both
// directions share almost verbatim.
package videocodec

import "github.com/qualcomm/qcnode/qctypes"

// RateControlMode is the encoder's rateControlMode field (§4.G.1).
type RateControlMode int

const (
	RateControlUnused RateControlMode = iota
	RateControlCBRCFR
	RateControlCBRVFR
	RateControlVBRCFR
)

// Profile is the encoder's codec profile (§4.G.1).
type Profile int

const (
	ProfileUnknown Profile = iota
	ProfileH264Baseline
	ProfileH264High
	ProfileH264Main
	ProfileHEVCMain
	ProfileHEVCMain10
)

// Config is the parsed `static` configuration surface common to both
// directions, plus the encoder-only extension fields (§4.G.1). A
// decoder Node simply leaves the encoder-only fields at their zero
// value.
type Config struct {
	Name               string
	ID                 int
	LogLevel           qctypes.LogLevel
	BufferIDs          []int
	DeregAllBuffersOnStop bool
	Width              uint32
	Height             uint32
	FrameRate          float64
	InputDynamicMode   bool
	OutputDynamicMode  bool
	NumInputBufferReq  uint32
	NumOutputBufferReq uint32
	InFormat           qctypes.ImageFormat
	OutFormat          qctypes.ImageFormat

	BitRate         uint32
	GOP             uint32
	RateControlMode RateControlMode
	Profile         Profile
}

// ValidateFormats enforces §4.G.1: "One of inFormat/outFormat must be a
// compressed format; the other must be an uncompressed image format."
func (c Config) ValidateFormats() bool {
	inC, outC := c.InFormat.Compressed(), c.OutFormat.Compressed()
	raw := c.InFormat
	if inC {
		raw = c.OutFormat
	}
	return inC != outC && raw > qctypes.ImageFormatUnknown && raw < qctypes.ImageFormatMax
}
