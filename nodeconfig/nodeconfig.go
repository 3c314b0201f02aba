// Package nodeconfig implements §4.H's config parser shim: parse the
// `static` section of a Node's configuration text into a typed Config,
// fall back to the per-kind default buffer map when `globalBufferIdMap`
// is absent, apply the `dynamic` re-configuration subset when `static`
// is absent, and bind the shared logger's level exactly once per Node
// instance. The video codec Nodes have their own richer static schema
// (package videocodec) and do not use this package; nodeconfig is the
// generic shim every other §3 Node kind (Camera, Remap,
// DepthFromStereo, OpticalFlow, Voxelization, Radar) hydrates from.
package nodeconfig

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/qualcomm/qcnode/datatree"
	"github.com/qualcomm/qcnode/internal/qclog"
	"github.com/qualcomm/qcnode/node"
	"github.com/qualcomm/qcnode/qcstatus"
	"github.com/qualcomm/qcnode/qctypes"
)

// Config is the generic `static` configuration surface shared by every
// non-codec Node kind (§3, §6, §4.H): a name/id/log level, the buffer
// indices to pre-register at Initialize, the global buffer id map that
// assigns each named port a FrameDescriptor slot index, and the
// Stop-time deregistration flag.
type Config struct {
	Name                       string
	ID                         int
	LogLevel                   qctypes.LogLevel
	BufferIDs                  []int
	BufferIDMap                []node.BufferMapEntry
	DeregisterAllBuffersOnStop bool

	bindLevelOnce *sync.Once
}

// New returns a zero Config ready for VerifyAndSet.
func New() *Config {
	return &Config{bindLevelOnce: &sync.Once{}}
}

// VerifyAndSet implements §4.H's flow: parse text as a DataTree; if
// `static` is present, hydrate the full config (§4.H step 2); else if
// `dynamic` is present, apply the runtime-adjustable subset (§4.H step
// 3); else the text satisfies neither branch and the call fails.
// Problems are appended to errs; a structural failure returns
// BadArguments.
func (c *Config) VerifyAndSet(kind node.Kind, text string, errs *[]string) qcstatus.Status {
	dt := datatree.New()
	if st := dt.Load(text, errs); st != qcstatus.OK {
		return st
	}

	var st datatree.DataTree
	if dt.GetSubtree("static", &st) == qcstatus.OK {
		return c.applyStatic(kind, &st, errs)
	}
	var dyn datatree.DataTree
	if dt.GetSubtree("dynamic", &dyn) == qcstatus.OK {
		return c.applyDynamic(&dyn, errs)
	}

	ve := &node.ValidationError{Field: "static", Reason: "section is required (or 'dynamic' for a re-configuration call)"}
	*errs = append(*errs, ve.Error())
	return qcstatus.BadArguments
}

// applyStatic reads the static-section fields listed in §6's common
// static-field contract and binds the shared logger's level exactly
// once for this Config instance.
func (c *Config) applyStatic(kind node.Kind, st *datatree.DataTree, errs *[]string) qcstatus.Status {
	c.Name = datatree.Get(st, "name", "")
	c.ID = datatree.Get(st, "id", 0)
	if c.Name == "" {
		ve := &node.ValidationError{Field: "static.name", Reason: "required, non-empty"}
		*errs = append(*errs, ve.Error())
		return qcstatus.BadArguments
	}

	levelName := datatree.Get(st, "logLevel", "")
	if levelName != "" {
		lvl, ok := qctypes.ParseLogLevel(levelName)
		if !ok {
			ve := &node.ValidationError{Field: "static.logLevel", Reason: "unrecognized value " + levelName}
			*errs = append(*errs, ve.Error())
			return qcstatus.BadArguments
		}
		c.LogLevel = lvl
	} else {
		c.LogLevel = qctypes.LogLevelError
	}

	c.BufferIDs = datatree.GetSequence[int](st, "bufferIds", nil)
	c.DeregisterAllBuffersOnStop = datatree.Get(st, "deRegisterAllBuffersWhenStop", false)

	entries, seqSt := st.GetSubtreeSequence("globalBufferIdMap")
	switch seqSt {
	case qcstatus.OK:
		m := make([]node.BufferMapEntry, 0, len(entries))
		for i := range entries {
			m = append(m, node.BufferMapEntry{
				Name: datatree.Get(&entries[i], "name", ""),
				ID:   datatree.Get(&entries[i], "id", i),
			})
		}
		c.BufferIDMap = m
	default:
		c.BufferIDMap = node.DefaultBufferMap(kind)
	}

	c.bindLogLevel()
	return qcstatus.OK
}

// applyDynamic implements §4.H step 3's runtime re-configuration branch
// for the generic shim: the one field every Node kind can safely adjust
// without restarting its algorithm is its own log level. Per-Node kinds
// with a richer dynamic schema (the codec Nodes) implement their own
// ConfigurationIfs.VerifyAndSet instead of using this package.
func (c *Config) applyDynamic(dyn *datatree.DataTree, errs *[]string) qcstatus.Status {
	levelName := datatree.Get(dyn, "logLevel", "")
	if levelName == "" {
		return qcstatus.OK
	}
	lvl, ok := qctypes.ParseLogLevel(levelName)
	if !ok {
		ve := &node.ValidationError{Field: "dynamic.logLevel", Reason: "unrecognized value " + levelName}
		*errs = append(*errs, ve.Error())
		return qcstatus.BadArguments
	}
	c.LogLevel = lvl
	qclog.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: qclog.Level(lvl),
	})).With(slog.String("node", c.Name)))
	return qcstatus.OK
}

// bindLogLevel installs a level-gated logger on the shared qclog
// instance exactly once per Config (§4.H: "initialize the shared
// logger with the configured name and level, exactly once per Node
// instance"). Later calls, including from a re-Initialize attempt, are
// no-ops; applyDynamic's runtime logLevel updates bypass this gate
// deliberately, since §4.H step 3 permits changing it after Initialize.
func (c *Config) bindLogLevel() {
	if c.bindLevelOnce == nil {
		c.bindLevelOnce = &sync.Once{}
	}
	c.bindLevelOnce.Do(func() {
		qclog.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: qclog.Level(c.LogLevel),
		})).With(slog.String("node", c.Name)))
	})
}

// GetOptions lists the fields VerifyAndSet reads.
func (c *Config) GetOptions() []string {
	return []string{"name", "id", "logLevel", "bufferIds", "globalBufferIdMap", "deRegisterAllBuffersWhenStop"}
}

// Get returns a string rendering of one static field, for
// node.ConfigurationIfs.Get.
func (c *Config) Get(path string) (string, bool) {
	switch path {
	case "name":
		return c.Name, true
	case "id":
		return fmt.Sprintf("%d", c.ID), true
	case "logLevel":
		return c.LogLevel.String(), true
	case "deRegisterAllBuffersWhenStop":
		return fmt.Sprintf("%t", c.DeregisterAllBuffersOnStop), true
	default:
		return "", false
	}
}
