// Package datatree implements the hierarchical key→value document of §3/§4.A:
// a recursive tree of scalars, ordered sequences, and string-keyed mappings,
// addressed by dotted path, round-tripped through a YAML text serialization.
//
// Grounded on the pack's only hierarchical-config precedent
// (ideamans-go-loadshow/pkg/config, which hydrates a flat struct from
// gopkg.in/yaml.v3), generalized here to a queryable recursive document
// because Nodes also need to read "dynamic" keys at run time rather than
// just hydrate a struct once at startup.
package datatree

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/qualcomm/qcnode/internal/qclog"
	"github.com/qualcomm/qcnode/qcstatus"
	"github.com/qualcomm/qcnode/qctypes"
)

// DataTree is a recursive document: every node is either a scalar, an
// ordered sequence of nodes, or a mapping from string to node.
type DataTree struct {
	// scalar holds the leaf value when this node is a scalar. Valid
	// scalar dynamic types: string, int64, float64, bool.
	scalar any
	isLeaf bool

	seq []*DataTree

	// mapping records its keys in insertion order in order. Load decodes
	// through a Go map and Dump encodes through one, so a document's own
	// key order does not survive a round trip.
	mapping map[string]*DataTree
	order   []string
}

// New returns an empty mapping node, the root a fresh DataTree starts from.
func New() *DataTree {
	return &DataTree{mapping: map[string]*DataTree{}}
}

func newMapping() *DataTree {
	return &DataTree{mapping: map[string]*DataTree{}}
}

func newLeaf(v any) *DataTree {
	return &DataTree{scalar: v, isLeaf: true}
}

// Load parses text (a UTF-8 YAML document) into the tree, replacing any
// prior content. Parse errors are appended to errs as human-readable
// strings and Load returns BadArguments; the tree is left empty on
// failure.
func (d *DataTree) Load(text string, errs *[]string) qcstatus.Status {
	var raw any
	if strings.TrimSpace(text) == "" {
		*d = *New()
		return qcstatus.OK
	}
	if err := yaml.Unmarshal([]byte(text), &raw); err != nil {
		*errs = append(*errs, "datatree: parse error: "+err.Error())
		qclog.Logger().Error("datatree load failed", "error", err)
		*d = *New()
		return qcstatus.BadArguments
	}
	built := fromYAML(raw)
	if built == nil {
		built = New()
	}
	*d = *built
	return qcstatus.OK
}

// Dump serializes the tree back to a UTF-8 YAML document.
func (d *DataTree) Dump() string {
	out, err := yaml.Marshal(toYAML(d))
	if err != nil {
		qclog.Logger().Error("datatree dump failed", "error", err)
		return ""
	}
	return string(out)
}

func fromYAML(v any) *DataTree {
	switch t := v.(type) {
	case map[string]any:
		m := newMapping()
		for k, v := range t {
			m.setChild(k, fromYAML(v))
		}
		return m
	case []any:
		s := &DataTree{}
		for _, e := range t {
			s.seq = append(s.seq, fromYAML(e))
		}
		return s
	default:
		return newLeaf(normalizeScalar(t))
	}
}

func toYAML(d *DataTree) any {
	if d == nil {
		return nil
	}
	switch {
	case d.isLeaf:
		return d.scalar
	case d.mapping != nil:
		m := make(map[string]any, len(d.order))
		for _, k := range d.order {
			m[k] = toYAML(d.mapping[k])
		}
		return m
	case d.seq != nil:
		s := make([]any, len(d.seq))
		for i, e := range d.seq {
			s[i] = toYAML(e)
		}
		return s
	default:
		return nil
	}
}

func normalizeScalar(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int64, float64, bool, string:
		return t
	case nil:
		return nil
	default:
		return v
	}
}

func (d *DataTree) setChild(key string, child *DataTree) {
	if d.mapping == nil {
		d.mapping = map[string]*DataTree{}
	}
	if _, exists := d.mapping[key]; !exists {
		d.order = append(d.order, key)
	}
	d.mapping[key] = child
}

// splitPath splits a dotted path into its segments. An empty path yields
// no segments, meaning "this node".
func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// lookup walks segs from d, returning nil if any intermediate segment is
// missing or is not a mapping.
func (d *DataTree) lookup(segs []string) *DataTree {
	cur := d
	for _, s := range segs {
		if cur == nil || cur.mapping == nil {
			return nil
		}
		cur = cur.mapping[s]
	}
	return cur
}

// ensure walks segs from d, creating empty mappings for any missing
// intermediate segment, and returns the (possibly new) leaf node pointer
// slot so the caller can assign into it.
func (d *DataTree) ensure(segs []string) *DataTree {
	cur := d
	for _, s := range segs {
		if cur.mapping == nil {
			cur.mapping = map[string]*DataTree{}
		}
		child, ok := cur.mapping[s]
		if !ok || child == nil {
			child = newMapping()
			cur.setChild(s, child)
		}
		cur = child
	}
	return cur
}

// Exists reports whether path resolves to any node (scalar, sequence, or
// mapping).
func (d *DataTree) Exists(path string) bool {
	return d.lookup(splitPath(path)) != nil
}
