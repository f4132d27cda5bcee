package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Fact is one named input value describing the case.
type Fact struct {
	Key   string
	Value string
}

// FactSet is an ordered fact-key → value mapping. Order drives the "hechos"
// section of the report; keys are unique when built through Set or the decoders.
type FactSet []Fact

// NewFactSet builds a set from alternating key, value arguments.
func NewFactSet(kv ...string) FactSet {
	var fs FactSet
	for i := 0; i+1 < len(kv); i += 2 {
		fs.Set(kv[i], kv[i+1])
	}
	return fs
}

// FactSetFromMap builds a set from a plain map, ordering keys lexically.
func FactSetFromMap(m map[string]string) FactSet {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fs := make(FactSet, 0, len(keys))
	for _, k := range keys {
		fs = append(fs, Fact{Key: k, Value: m[k]})
	}
	return fs
}

// Get returns the value for key, or "" when absent.
func (fs FactSet) Get(key string) string {
	v, _ := fs.Lookup(key)
	return v
}

// Lookup returns the value for key and whether it is present.
func (fs FactSet) Lookup(key string) (string, bool) {
	for _, f := range fs {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Set assigns key. An existing key keeps its position.
func (fs *FactSet) Set(key, value string) {
	for i := range *fs {
		if (*fs)[i].Key == key {
			(*fs)[i].Value = value
			return
		}
	}
	*fs = append(*fs, Fact{Key: key, Value: value})
}

// Merge overlays other onto a copy of fs.
func (fs FactSet) Merge(other FactSet) FactSet {
	out := fs.Clone()
	for _, f := range other {
		out.Set(f.Key, f.Value)
	}
	return out
}

// Clone returns an independent copy.
func (fs FactSet) Clone() FactSet {
	if fs == nil {
		return nil
	}
	out := make(FactSet, len(fs))
	copy(out, fs)
	return out
}

// Keys returns the fact keys in order.
func (fs FactSet) Keys() []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Key)
	}
	return out
}

func (fs FactSet) MarshalJSON() ([]byte, error) {
	pairs := make([]Clause, 0, len(fs))
	for _, f := range fs {
		pairs = append(pairs, Clause(f))
	}
	return marshalOrdered(pairs)
}

func (fs *FactSet) UnmarshalJSON(data []byte) error {
	pairs, err := decodeOrderedJSON(data)
	if err != nil {
		return fmt.Errorf("facts: %w", err)
	}
	*fs = nil
	for _, p := range pairs {
		fs.Set(p.Key, p.Value)
	}
	return nil
}

func (fs *FactSet) UnmarshalYAML(n *yaml.Node) error {
	pairs, err := DecodeOrderedYAML(n)
	if err != nil {
		return fmt.Errorf("facts: %w", err)
	}
	*fs = nil
	for _, p := range pairs {
		fs.Set(p.Key, p.Value)
	}
	return nil
}

func (c Condition) MarshalJSON() ([]byte, error) { return marshalOrdered(c) }

func (c *Condition) UnmarshalJSON(data []byte) error {
	pairs, err := decodeOrderedJSON(data)
	if err != nil {
		return fmt.Errorf("condition: %w", err)
	}
	*c = dedupClauses(pairs)
	return nil
}

func (c *Condition) UnmarshalYAML(n *yaml.Node) error {
	pairs, err := DecodeOrderedYAML(n)
	if err != nil {
		return fmt.Errorf("condition: %w", err)
	}
	*c = dedupClauses(pairs)
	return nil
}

// dedupClauses keeps the first position of a repeated key with the last value,
// matching how a mapping with repeated keys reads.
func dedupClauses(in []Clause) Condition {
	out := make(Condition, 0, len(in))
	idx := map[string]int{}
	for _, cl := range in {
		if i, ok := idx[cl.Key]; ok {
			out[i].Value = cl.Value
			continue
		}
		idx[cl.Key] = len(out)
		out = append(out, cl)
	}
	return out
}

func marshalOrdered(pairs []Clause) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range pairs {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(p.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(p.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// decodeOrderedJSON reads a flat JSON object keeping key order. Scalar values
// are taken as their literal text; null reads as "".
func decodeOrderedJSON(data []byte) ([]Clause, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected an object, got %v", tok)
	}
	var out []Clause
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := kt.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key token %v", kt)
		}
		vt, err := dec.Token()
		if err != nil {
			return nil, err
		}
		var val string
		switch v := vt.(type) {
		case string:
			val = v
		case json.Number:
			val = v.String()
		case bool:
			val = strconv.FormatBool(v)
		case nil:
			val = ""
		default:
			return nil, fmt.Errorf("value of %q must be a scalar", key)
		}
		out = append(out, Clause{Key: key, Value: val})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeOrderedYAML reads a flat YAML mapping keeping key order. A null node
// yields no pairs.
func DecodeOrderedYAML(n *yaml.Node) ([]Clause, error) {
	n = Resolve(n)
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return nil, nil
		}
		n = Resolve(n.Content[0])
	}
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null" {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping, got %s", n.Line, KindName(n))
	}
	out := make([]Clause, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := Resolve(n.Content[i])
		if k.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: keys must be scalars", k.Line)
		}
		v, err := ScalarText(n.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("value of %q: %w", k.Value, err)
		}
		out = append(out, Clause{Key: k.Value, Value: v})
	}
	return out, nil
}

// ScalarText returns the literal text of a scalar node; null reads as "".
func ScalarText(n *yaml.Node) (string, error) {
	n = Resolve(n)
	if n.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("line %d: expected a scalar, got %s", n.Line, KindName(n))
	}
	if n.ShortTag() == "!!null" {
		return "", nil
	}
	return n.Value, nil
}

// Resolve follows alias nodes to their anchor.
func Resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// KindName names a node kind for error messages.
func KindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown node"
}
