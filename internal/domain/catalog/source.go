package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Node is one container in a catalog source tree: either a *Record (a JSON
// object) or a *Sequence (a JSON array). Scalars only ever appear as values
// inside a container.
type Node interface {
	nodeKey() string
}

// Scalar is a leaf value held by a Record or Sequence.
type Scalar struct {
	text    string
	num     float64
	numeric bool
	null    bool
}

// Text returns the scalar rendered as a trimmed string. Null renders as "".
func (s Scalar) Text() string {
	if s.null {
		return ""
	}
	if s.numeric {
		return strconv.FormatFloat(s.num, 'f', -1, 64)
	}
	return strings.TrimSpace(s.text)
}

// Number returns the numeric value of the scalar. Numeric strings count.
func (s Scalar) Number() (float64, bool) {
	if s.null {
		return 0, false
	}
	if s.numeric {
		return s.num, true
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s.text), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Record is an object in the source tree. Fields keep document order.
type Record struct {
	Key      string // key under which the record sits in its parent mapping
	scalars  map[string]Scalar
	seqs     map[string]*Sequence
	Children []Node // nested containers in document order
}

func newRecord(key string) *Record {
	return &Record{Key: key, scalars: make(map[string]Scalar), seqs: make(map[string]*Sequence)}
}

func (r *Record) nodeKey() string { return r.Key }

// Text returns the trimmed string form of a scalar field, or "".
func (r *Record) Text(field string) string {
	return r.scalars[field].Text()
}

// Number returns a numeric field value; numeric strings are accepted.
func (r *Record) Number(field string) (float64, bool) {
	s, ok := r.scalars[field]
	if !ok {
		return 0, false
	}
	return s.Number()
}

// Has reports whether field is present with a non-null scalar value.
func (r *Record) Has(field string) bool {
	s, ok := r.scalars[field]
	return ok && !s.null
}

// Strings returns the non-empty string items of an array field.
func (r *Record) Strings(field string) []string {
	seq, ok := r.seqs[field]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(seq.Values))
	for _, v := range seq.Values {
		if t := v.Text(); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (r *Record) setScalar(field string, s Scalar) {
	r.scalars[field] = s
}

func (r *Record) addChild(n Node) {
	if seq, ok := n.(*Sequence); ok {
		r.seqs[seq.Key] = seq
	}
	r.Children = append(r.Children, n)
}

// Sequence is an array in the source tree.
type Sequence struct {
	Key    string
	Items  []Node   // container items in document order
	Values []Scalar // scalar items in document order
}

func (s *Sequence) nodeKey() string { return s.Key }

// ParseJSON parses catalog JSON into a source tree, preserving the document
// order of object keys so first-registration-wins follows the file.
func ParseJSON(data []byte, opts ...Option) (Node, error) {
	o := applyOptions(opts)
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedSource)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() && !root.IsArray() {
		return nil, fmt.Errorf("%w: root must be an array or object, got %s", ErrMalformedSource, root.Type)
	}
	return fromResult("", root, 1, o.maxDepth)
}

func fromResult(key string, res gjson.Result, depth, maxDepth int) (Node, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: deeper than %d levels", ErrSourceTooDeep, maxDepth)
	}

	var walkErr error
	if res.IsArray() {
		seq := &Sequence{Key: key}
		res.ForEach(func(_, v gjson.Result) bool {
			if v.IsObject() || v.IsArray() {
				child, err := fromResult("", v, depth+1, maxDepth)
				if err != nil {
					walkErr = err
					return false
				}
				seq.Items = append(seq.Items, child)
				return true
			}
			seq.Values = append(seq.Values, scalarFromResult(v))
			return true
		})
		if walkErr != nil {
			return nil, walkErr
		}
		return seq, nil
	}

	rec := newRecord(key)
	res.ForEach(func(k, v gjson.Result) bool {
		name := k.String()
		if v.IsObject() || v.IsArray() {
			child, err := fromResult(name, v, depth+1, maxDepth)
			if err != nil {
				walkErr = err
				return false
			}
			rec.addChild(child)
			return true
		}
		rec.setScalar(name, scalarFromResult(v))
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return rec, nil
}

func scalarFromResult(v gjson.Result) Scalar {
	switch v.Type {
	case gjson.Number:
		return Scalar{num: v.Num, numeric: true}
	case gjson.String:
		return Scalar{text: v.Str}
	case gjson.True:
		return Scalar{text: "true"}
	case gjson.False:
		return Scalar{text: "false"}
	default:
		return Scalar{null: true}
	}
}

// FromValue converts already-decoded Go values (maps, slices and scalars as
// produced by encoding/json or YAML decoders) into a source tree. Mapping keys
// are visited in sorted order since Go maps carry no document order.
func FromValue(v any, opts ...Option) (Node, error) {
	o := applyOptions(opts)
	switch v.(type) {
	case map[string]any, []any, []map[string]any:
	default:
		return nil, fmt.Errorf("%w: root must be a sequence or mapping, got %T", ErrMalformedSource, v)
	}
	node, _, err := fromValue("", v, 1, o.maxDepth)
	return node, err
}

// fromValue returns either a container node or, for scalar inputs, a Scalar.
func fromValue(key string, v any, depth, maxDepth int) (Node, Scalar, error) {
	switch v.(type) {
	case map[string]any, []any, []map[string]any, []string:
		if depth > maxDepth {
			return nil, Scalar{}, fmt.Errorf("%w: deeper than %d levels", ErrSourceTooDeep, maxDepth)
		}
	}

	switch t := v.(type) {
	case map[string]any:
		rec := newRecord(key)
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			child, s, err := fromValue(k, t[k], depth+1, maxDepth)
			if err != nil {
				return nil, Scalar{}, err
			}
			if child != nil {
				rec.addChild(child)
				continue
			}
			rec.setScalar(k, s)
		}
		return rec, Scalar{}, nil
	case []map[string]any:
		items := make([]any, len(t))
		for i := range t {
			items[i] = t[i]
		}
		return fromValue(key, items, depth, maxDepth)
	case []any:
		seq := &Sequence{Key: key}
		for _, item := range t {
			child, s, err := fromValue("", item, depth+1, maxDepth)
			if err != nil {
				return nil, Scalar{}, err
			}
			if child != nil {
				seq.Items = append(seq.Items, child)
				continue
			}
			seq.Values = append(seq.Values, s)
		}
		return seq, Scalar{}, nil
	case []string:
		seq := &Sequence{Key: key}
		for _, s := range t {
			seq.Values = append(seq.Values, Scalar{text: s})
		}
		return seq, Scalar{}, nil
	case nil:
		return nil, Scalar{null: true}, nil
	case string:
		return nil, Scalar{text: t}, nil
	case bool:
		return nil, Scalar{text: strconv.FormatBool(t)}, nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, Scalar{text: t.String()}, nil
		}
		return nil, Scalar{num: f, numeric: true}, nil
	case float64:
		return nil, Scalar{num: t, numeric: true}, nil
	case float32:
		return nil, Scalar{num: float64(t), numeric: true}, nil
	case int:
		return nil, Scalar{num: float64(t), numeric: true}, nil
	case int64:
		return nil, Scalar{num: float64(t), numeric: true}, nil
	default:
		return nil, Scalar{text: fmt.Sprint(t)}, nil
	}
}
