// Package parser reads case facts from files and command-line assignments.
package parser

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lauolme/registro-app/internal/ir"
)

type Diagnostics struct {
	Warnings []string
}

func (d *Diagnostics) warnf(format string, args ...any) {
	d.Warnings = append(d.Warnings, fmt.Sprintf(format, args...))
}

// ParseFactsFile reads a flat mapping of fact key to scalar value. Files ending
// in .json are decoded as JSON, anything else as YAML; key order is kept.
func ParseFactsFile(path string) (ir.FactSet, Diagnostics, error) {
	var diags Diagnostics
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, diags, &ir.LoadError{Source: path, Index: -1, Err: err}
	}
	facts, err := ParseFacts(filepath.Ext(path), b)
	if err != nil {
		return nil, diags, &ir.LoadError{Source: path, Index: -1, Reason: "invalid facts", Err: err}
	}
	if len(facts) == 0 {
		diags.warnf("%s: no facts found", filepath.Base(path))
	}
	return facts, diags, nil
}

// ParseFacts decodes b as JSON when ext is ".json", YAML otherwise.
func ParseFacts(ext string, b []byte) (ir.FactSet, error) {
	var facts ir.FactSet
	if strings.EqualFold(ext, ".json") {
		if err := json.Unmarshal(b, &facts); err != nil {
			return nil, err
		}
		return facts, nil
	}
	if err := yaml.Unmarshal(b, &facts); err != nil {
		return nil, err
	}
	return facts, nil
}

// ParseAssignments turns "key=value" arguments into facts. The value may be
// empty or contain '='; a repeated key keeps its first position and takes the
// last value.
func ParseAssignments(args []string) (ir.FactSet, Diagnostics, error) {
	var diags Diagnostics
	var facts ir.FactSet
	for _, a := range args {
		key, value, ok := strings.Cut(a, "=")
		key = strings.TrimSpace(key)
		if !ok {
			return nil, diags, fmt.Errorf("fact %q: expected key=value", a)
		}
		if key == "" {
			return nil, diags, fmt.Errorf("fact %q: empty key", a)
		}
		if _, dup := facts.Lookup(key); dup {
			diags.warnf("fact %q set more than once; using %q", key, value)
		}
		facts.Set(key, value)
	}
	return facts, diags, nil
}

// Check warns about facts no rule refers to. Such facts still appear in the
// report but can never trigger anything.
func Check(facts ir.FactSet, known []string) Diagnostics {
	var diags Diagnostics
	set := make(map[string]bool, len(known))
	for _, k := range known {
		set[k] = true
	}
	for _, f := range facts {
		if !set[f.Key] {
			diags.warnf("fact %q is not referenced by any rule", f.Key)
		}
	}
	return diags
}
