package videocodec

import (
	"fmt"

	"github.com/qualcomm/qcnode/datatree"
	"github.com/qualcomm/qcnode/node"
	"github.com/qualcomm/qcnode/qcstatus"
	"github.com/qualcomm/qcnode/qctypes"
)

// ParseConfig implements the codec side of §4.H's VerifyAndSet flow:
// parse text into a DataTree, read the `static` section fields listed
// in §4.G.1 plus the common static-field contract of §6, and aggregate
// structured problems into errs. isEncoder selects whether the
// encoder-only fields (bitRate, gop, rateControlMode, profile) are
// read; each one that is absent keeps its zero value.
func ParseConfig(text string, isEncoder bool, errs *[]string) (Config, qcstatus.Status) {
	dt := datatree.New()
	if st := dt.Load(text, errs); st != qcstatus.OK {
		return Config{}, qcstatus.BadArguments
	}

	var st datatree.DataTree
	if st2 := dt.GetSubtree("static", &st); st2 != qcstatus.OK {
		ve := &node.ValidationError{Field: "static", Reason: "section is required"}
		*errs = append(*errs, ve.Error())
		return Config{}, qcstatus.BadArguments
	}

	cfg := Config{
		Name:               datatree.Get(&st, "name", ""),
		ID:                 datatree.Get(&st, "id", 0),
		BufferIDs:          datatree.GetSequence[int](&st, "bufferIds", nil),
		DeregAllBuffersOnStop: datatree.Get(&st, "deRegisterAllBuffersWhenStop", false),
		Width:              uint32(datatree.Get(&st, "width", 0)),
		Height:             uint32(datatree.Get(&st, "height", 0)),
		FrameRate:          datatree.Get(&st, "frameRate", 0.0),
		InputDynamicMode:   datatree.Get(&st, "inputDynamicMode", false),
		OutputDynamicMode:  datatree.Get(&st, "outputDynamicMode", false),
		NumInputBufferReq:  uint32(datatree.Get(&st, "numInputBufferReq", 0)),
		NumOutputBufferReq: uint32(datatree.Get(&st, "numOutputBufferReq", 0)),
		InFormat:           st.GetImageFormat("inFormat", qctypes.ImageFormatUnknown),
		OutFormat:          st.GetImageFormat("outFormat", qctypes.ImageFormatUnknown),
	}

	if cfg.Name == "" {
		ve := &node.ValidationError{Field: "static.name", Reason: "required, non-empty"}
		*errs = append(*errs, ve.Error())
		return cfg, qcstatus.BadArguments
	}

	levelName := datatree.Get(&st, "logLevel", "")
	if levelName != "" {
		lvl, ok := qctypes.ParseLogLevel(levelName)
		if !ok {
			ve := &node.ValidationError{Field: "static.logLevel", Reason: "unrecognized value " + levelName}
			*errs = append(*errs, ve.Error())
			return cfg, qcstatus.BadArguments
		}
		cfg.LogLevel = lvl
	} else {
		cfg.LogLevel = qctypes.LogLevelError
	}

	if cfg.Width == 0 || cfg.Height == 0 {
		ve := &node.ValidationError{Field: "static.width/height", Reason: "must be non-zero"}
		*errs = append(*errs, ve.Error())
		return cfg, qcstatus.BadArguments
	}
	if cfg.NumInputBufferReq == 0 || cfg.NumOutputBufferReq == 0 {
		ve := &node.ValidationError{Field: "static.numInputBufferReq/numOutputBufferReq", Reason: "must be non-zero"}
		*errs = append(*errs, ve.Error())
		return cfg, qcstatus.BadArguments
	}

	if isEncoder {
		cfg.BitRate = uint32(datatree.Get(&st, "bitRate", 0))
		cfg.GOP = uint32(datatree.Get(&st, "gop", 0))
		cfg.RateControlMode = RateControlMode(datatree.Get(&st, "rateControlMode", int(RateControlUnused)))
		cfg.Profile = Profile(datatree.Get(&st, "profile", int(ProfileUnknown)))
	}

	if !cfg.ValidateFormats() {
		ve := &node.ValidationError{
			Field:  "static.inFormat/outFormat",
			Reason: fmt.Sprintf("exactly one of inFormat(%s)/outFormat(%s) must be compressed", cfg.InFormat, cfg.OutFormat),
		}
		*errs = append(*errs, ve.Error())
		return cfg, qcstatus.BadArguments
	}

	return cfg, qcstatus.OK
}
