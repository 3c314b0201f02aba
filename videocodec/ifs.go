package videocodec

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/qualcomm/qcnode/datatree"
	"github.com/qualcomm/qcnode/internal/qclog"
	"github.com/qualcomm/qcnode/node"
	"github.com/qualcomm/qcnode/qcstatus"
	"github.com/qualcomm/qcnode/qctypes"
)

// configIfs implements node.ConfigurationIfs over a codec Config,
// surfacing the negotiated fields read-only once Initialize has run.
type configIfs struct {
	cfg *Config
}

// VerifyAndSet implements §4.H step 3's dynamic re-configuration branch
// for codec Nodes: the static section (width/height/format/buffer
// requirements) is only ever applied once, at Initialize, since
// changing it mid-stream would require renegotiating the driver
// session; the one field a codec Node can still adjust afterward is its
// own log level.
func (c configIfs) VerifyAndSet(text string, errs *[]string) qcstatus.Status {
	dt := datatree.New()
	if st := dt.Load(text, errs); st != qcstatus.OK {
		return st
	}

	var static datatree.DataTree
	if dt.GetSubtree("static", &static) == qcstatus.OK {
		ve := &node.ValidationError{Field: "static", Reason: "cannot be re-applied after Initialize"}
		*errs = append(*errs, ve.Error())
		return qcstatus.Unsupported
	}

	var dyn datatree.DataTree
	if dt.GetSubtree("dynamic", &dyn) != qcstatus.OK {
		ve := &node.ValidationError{Field: "dynamic", Reason: "section is required for a re-configuration call"}
		*errs = append(*errs, ve.Error())
		return qcstatus.BadArguments
	}

	levelName := datatree.Get(&dyn, "logLevel", "")
	if levelName == "" {
		return qcstatus.OK
	}
	lvl, ok := qctypes.ParseLogLevel(levelName)
	if !ok {
		ve := &node.ValidationError{Field: "dynamic.logLevel", Reason: "unrecognized value " + levelName}
		*errs = append(*errs, ve.Error())
		return qcstatus.BadArguments
	}
	c.cfg.LogLevel = lvl
	qclog.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: qclog.Level(lvl),
	})).With(slog.String("node", c.cfg.Name)))
	return qcstatus.OK
}

func (c configIfs) GetOptions() []string {
	return []string{
		"name", "id", "logLevel", "bufferIds", "deRegisterAllBuffersWhenStop",
		"width", "height", "frameRate",
		"inputDynamicMode", "outputDynamicMode",
		"numInputBufferReq", "numOutputBufferReq",
		"inFormat", "outFormat",
		"bitRate", "gop", "rateControlMode", "profile",
	}
}

func (c configIfs) Get(path string) (string, bool) {
	switch path {
	case "name":
		return c.cfg.Name, true
	case "logLevel":
		return c.cfg.LogLevel.String(), true
	case "deRegisterAllBuffersWhenStop":
		return fmt.Sprintf("%t", c.cfg.DeregAllBuffersOnStop), true
	case "width":
		return fmt.Sprintf("%d", c.cfg.Width), true
	case "height":
		return fmt.Sprintf("%d", c.cfg.Height), true
	case "inFormat":
		return c.cfg.InFormat.String(), true
	case "outFormat":
		return c.cfg.OutFormat.String(), true
	default:
		return "", false
	}
}

// monitoringIfs implements node.MonitoringIfs over a core's live
// in-flight buffer counts and drain/reconfig flags.
type monitoringIfs struct {
	c *core
}

func (m monitoringIfs) Get(key string) (string, bool) {
	switch key {
	case "inputInFlight":
		return fmt.Sprintf("%d", m.c.input.inFlightCount()), true
	case "outputInFlight":
		return fmt.Sprintf("%d", m.c.output.inFlightCount()), true
	case "drainReceived":
		m.c.mu.Lock()
		v := m.c.drainReceived
		m.c.mu.Unlock()
		return fmt.Sprintf("%t", v), true
	case "reconfiguring":
		m.c.mu.Lock()
		v := m.c.reconfiguring
		m.c.mu.Unlock()
		return fmt.Sprintf("%t", v), true
	default:
		return "", false
	}
}
