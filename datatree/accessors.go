package datatree

import (
	"github.com/qualcomm/qcnode/internal/qclog"
	"github.com/qualcomm/qcnode/qcstatus"
	"github.com/qualcomm/qcnode/qctypes"
)

// Scalar is the set of concrete Go types a DataTree leaf may hold.
type Scalar interface {
	~string | ~bool | ~int | ~int64 | ~float64
}

// Get returns the typed scalar at path, or dv if the path is missing, the
// node found is not a leaf, or the leaf's dynamic type does not coerce to
// T. A failed coercion is logged but never propagated as an error: per
// §4.A, typed accessors never throw across the API boundary. d is never
// mutated by Get.
func Get[T Scalar](d *DataTree, path string, dv T) T {
	n := d.lookup(splitPath(path))
	if n == nil || !n.isLeaf {
		return dv
	}
	if v, ok := coerce[T](n.scalar); ok {
		return v
	}
	qclog.Logger().Warn("datatree: typed read failed, using default", "path", path)
	return dv
}

func coerce[T Scalar](raw any) (T, bool) {
	var zero T
	switch any(zero).(type) {
	case string:
		if s, ok := raw.(string); ok {
			return any(s).(T), true
		}
	case bool:
		if b, ok := raw.(bool); ok {
			return any(b).(T), true
		}
	case int:
		switch v := raw.(type) {
		case int64:
			return any(int(v)).(T), true
		case float64:
			return any(int(v)).(T), true
		}
	case int64:
		switch v := raw.(type) {
		case int64:
			return any(v).(T), true
		case float64:
			return any(int64(v)).(T), true
		}
	case float64:
		switch v := raw.(type) {
		case float64:
			return any(v).(T), true
		case int64:
			return any(float64(v)).(T), true
		}
	}
	return zero, false
}

// GetSequence returns the sequence of typed scalars at path, or dv if the
// path is missing, not a sequence, or any element fails to coerce to T.
func GetSequence[T Scalar](d *DataTree, path string, dv []T) []T {
	n := d.lookup(splitPath(path))
	if n == nil || n.seq == nil {
		return dv
	}
	out := make([]T, 0, len(n.seq))
	for _, e := range n.seq {
		if e == nil || !e.isLeaf {
			return dv
		}
		v, ok := coerce[T](e.scalar)
		if !ok {
			return dv
		}
		out = append(out, v)
	}
	return out
}

// Set writes a typed scalar at path, creating intermediate mappings as
// needed.
func Set[T Scalar](d *DataTree, path string, v T) {
	segs := splitPath(path)
	if len(segs) == 0 {
		return
	}
	parent := d.ensure(segs[:len(segs)-1])
	parent.setChild(segs[len(segs)-1], newLeaf(normalizeScalar(any(v))))
}

// SetSequence writes a typed sequence at path, creating intermediate
// mappings as needed.
func SetSequence[T Scalar](d *DataTree, path string, vs []T) {
	segs := splitPath(path)
	if len(segs) == 0 {
		return
	}
	seq := &DataTree{}
	for _, v := range vs {
		seq.seq = append(seq.seq, newLeaf(normalizeScalar(any(v))))
	}
	parent := d.ensure(segs[:len(segs)-1])
	parent.setChild(segs[len(segs)-1], seq)
}

// GetSubtree resolves path to a nested mapping, copying it into out.
// Returns OutOfBound if path does not resolve to a mapping node.
func (d *DataTree) GetSubtree(path string, out *DataTree) qcstatus.Status {
	n := d.lookup(splitPath(path))
	if n == nil || n.isLeaf || n.seq != nil {
		return qcstatus.OutOfBound
	}
	*out = *n
	return qcstatus.OK
}

// GetSubtreeSequence resolves path to a sequence of mapping nodes.
// Returns BadArguments if path resolves to something other than a
// sequence, or OutOfBound if path does not resolve at all.
func (d *DataTree) GetSubtreeSequence(path string) ([]DataTree, qcstatus.Status) {
	n := d.lookup(splitPath(path))
	if n == nil {
		return nil, qcstatus.OutOfBound
	}
	if n.seq == nil {
		return nil, qcstatus.BadArguments
	}
	out := make([]DataTree, len(n.seq))
	for i, e := range n.seq {
		if e != nil {
			out[i] = *e
		}
	}
	return out, qcstatus.OK
}

// GetImageFormat resolves path to a §3 image format, returning dv when the
// path is missing or the scalar does not name a known format.
func (d *DataTree) GetImageFormat(path string, dv qctypes.ImageFormat) qctypes.ImageFormat {
	name := Get(d, path, "")
	if name == "" {
		return dv
	}
	if f, ok := qctypes.ParseImageFormat(name); ok {
		return f
	}
	return dv
}

// SetImageFormat writes a §3 image format as its lowercase DataTree name.
func (d *DataTree) SetImageFormat(path string, f qctypes.ImageFormat) {
	Set(d, path, f.String())
}

// GetTensorType resolves path to a §3 tensor element type.
func (d *DataTree) GetTensorType(path string, dv qctypes.TensorElementType) qctypes.TensorElementType {
	name := Get(d, path, "")
	if name == "" {
		return dv
	}
	if t, ok := qctypes.ParseTensorElementType(name); ok {
		return t
	}
	return dv
}

// SetTensorType writes a §3 tensor element type as its lowercase name.
func (d *DataTree) SetTensorType(path string, t qctypes.TensorElementType) {
	Set(d, path, t.String())
}

// GetProcessorType resolves path to a §3 processor kind.
func (d *DataTree) GetProcessorType(path string, dv qctypes.Processor) qctypes.Processor {
	name := Get(d, path, "")
	if name == "" {
		return dv
	}
	if p, ok := qctypes.ParseProcessor(name); ok {
		return p
	}
	return dv
}

// SetProcessorType writes a §3 processor kind as its lowercase name.
func (d *DataTree) SetProcessorType(path string, p qctypes.Processor) {
	Set(d, path, p.String())
}

// GetLogLevel resolves path to a §3 log level.
func (d *DataTree) GetLogLevel(path string, dv qctypes.LogLevel) qctypes.LogLevel {
	name := Get(d, path, "")
	if name == "" {
		return dv
	}
	if l, ok := qctypes.ParseLogLevel(name); ok {
		return l
	}
	return dv
}

// SetLogLevel writes a §3 log level as its upper-case name.
func (d *DataTree) SetLogLevel(path string, l qctypes.LogLevel) {
	Set(d, path, l.String())
}
