package rulesdsl

import (
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/lauolme/registro-app/internal/ir"
)

// Required fields of every rule record. risk and next_steps are optional.
var requiredFields = []string{"name", "condition", "analysis", "conclusion"}

// LoadFile reads a rule pack from path. The whole pack is rejected on the first
// malformed record; callers never see a partial rule list.
func LoadFile(path string) ([]ir.Rule, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &ir.LoadError{Source: path, Index: -1, Reason: "read rules pack", Err: err}
	}
	return Parse(path, b)
}

// Load reads a rule pack from r.
func Load(r io.Reader) ([]ir.Rule, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, &ir.LoadError{Index: -1, Reason: "read rules pack", Err: err}
	}
	return Parse("", b)
}

// Parse decodes a rule pack. The document root is either a sequence of rule
// records or a mapping {version, rules}.
func Parse(source string, b []byte) ([]ir.Rule, error) {
	fail := func(reason string, err error) error {
		return &ir.LoadError{Source: source, Index: -1, Reason: reason, Err: err}
	}
	if !utf8.Valid(b) {
		return nil, fail("rules pack is not valid UTF-8", nil)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fail("parse yaml", err)
	}
	if len(doc.Content) == 0 {
		return nil, fail("empty rules pack", nil)
	}
	seq, err := rulesNode(ir.Resolve(doc.Content[0]))
	if err != nil {
		return nil, fail(err.Error(), nil)
	}

	out := make([]ir.Rule, 0, len(seq.Content))
	for i, n := range seq.Content {
		r, field, err := compile(n)
		if err != nil {
			return nil, &ir.LoadError{Source: source, Index: i, Field: field, Reason: err.Error()}
		}
		out = append(out, r)
	}
	return out, nil
}

func rulesNode(root *yaml.Node) (*yaml.Node, error) {
	switch root.Kind {
	case yaml.SequenceNode:
		return root, nil
	case yaml.MappingNode:
		fields := mappingFields(root)
		if v, ok := fields["version"]; ok {
			ver, err := ir.ScalarText(v)
			if err != nil {
				return nil, fmt.Errorf("version: %w", err)
			}
			if ver != ir.Version {
				return nil, fmt.Errorf("unsupported rules schema version %q (want %q)", ver, ir.Version)
			}
		}
		rs, ok := fields["rules"]
		if !ok {
			return nil, fmt.Errorf("missing top-level \"rules\" list")
		}
		rs = ir.Resolve(rs)
		if rs.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("\"rules\" must be a sequence, got %s", ir.KindName(rs))
		}
		return rs, nil
	case yaml.ScalarNode:
		if root.ShortTag() == "!!null" {
			return nil, fmt.Errorf("empty rules pack")
		}
	}
	return nil, fmt.Errorf("expected a sequence of rule records, got %s", ir.KindName(root))
}

// compile turns one record node into a Rule. On failure it names the field at fault.
func compile(n *yaml.Node) (ir.Rule, string, error) {
	n = ir.Resolve(n)
	if n.Kind != yaml.MappingNode {
		return ir.Rule{}, "", fmt.Errorf("line %d: rule record must be a mapping, got %s", n.Line, ir.KindName(n))
	}
	fields := mappingFields(n)
	for _, f := range requiredFields {
		if _, ok := fields[f]; !ok {
			return ir.Rule{}, f, fmt.Errorf("line %d: missing required field", n.Line)
		}
	}

	var r ir.Rule
	text := []struct {
		key string
		dst *string
	}{
		{"name", &r.Name},
		{"analysis", &r.Analysis},
		{"conclusion", &r.Conclusion},
		{"risk", &r.Risk},
		{"next_steps", &r.NextSteps},
	}
	for _, t := range text {
		v, ok := fields[t.key]
		if !ok {
			continue
		}
		s, err := ir.ScalarText(v)
		if err != nil {
			return ir.Rule{}, t.key, err
		}
		*t.dst = s
	}
	if r.Name == "" {
		return ir.Rule{}, "name", fmt.Errorf("line %d: rule name is empty", n.Line)
	}

	cond := ir.Resolve(fields["condition"])
	if cond.Kind != yaml.MappingNode {
		return ir.Rule{}, "condition", fmt.Errorf("line %d: condition must be a mapping, got %s", cond.Line, ir.KindName(cond))
	}
	if err := cond.Decode(&r.Condition); err != nil {
		return ir.Rule{}, "condition", err
	}
	return r, "", nil
}

// mappingFields indexes a mapping node by scalar key. A repeated key keeps its last value.
func mappingFields(n *yaml.Node) map[string]*yaml.Node {
	out := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := ir.Resolve(n.Content[i])
		if k.Kind == yaml.ScalarNode {
			out[k.Value] = n.Content[i+1]
		}
	}
	return out
}
