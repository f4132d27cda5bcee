package dictamen

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lauolme/registro-app/internal/integrity"
	"github.com/lauolme/registro-app/internal/ir"
	"github.com/lauolme/registro-app/internal/reporting"
	"github.com/lauolme/registro-app/internal/rules"
	"github.com/lauolme/registro-app/internal/rulesdsl"
)

// Snapshot is a rule set and template loaded together. It is never mutated
// after NewSnapshot returns; reloads build a new one.
type Snapshot struct {
	Rules    []ir.Rule
	Template string
	Version  string // fingerprint of rules and template together
	Source   string
	LoadedAt time.Time
}

// NewSnapshot validates tpl and freezes a copy of rs.
func NewSnapshot(rs []ir.Rule, tpl, source string) (*Snapshot, error) {
	if err := reporting.ValidateTemplate(tpl); err != nil {
		return nil, &ir.LoadError{Source: source, Index: -1, Reason: "invalid template", Err: err}
	}
	frozen := make([]ir.Rule, len(rs))
	for i, r := range rs {
		r.Condition = append(ir.Condition(nil), r.Condition...)
		frozen[i] = r
	}
	v, err := version(frozen, tpl)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Rules:    frozen,
		Template: tpl,
		Version:  v,
		Source:   source,
		LoadedAt: time.Now().UTC(),
	}, nil
}

// LoadFiles reads the YAML rule pack and the template, drops disabled rules
// and builds a snapshot.
func LoadFiles(rulesPath, templatePath string, settings rules.Settings) (*Snapshot, error) {
	rs, err := rulesdsl.LoadFile(rulesPath)
	if err != nil {
		return nil, err
	}
	tpl, err := reporting.LoadTemplate(templatePath)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(settings.Apply(rs), tpl, rulesPath)
}

// RuleStore is a named-rule-set source such as the SQLite store.
type RuleStore interface {
	LoadRuleSet(name string) ([]ir.Rule, error)
}

// LoadStore reads the rule set called name from store and pairs it with the
// template at templatePath.
func LoadStore(store RuleStore, name, templatePath string, settings rules.Settings) (*Snapshot, error) {
	rs, err := store.LoadRuleSet(name)
	if err != nil {
		return nil, err
	}
	tpl, err := reporting.LoadTemplate(templatePath)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(settings.Apply(rs), tpl, "sqlite:"+name)
}

func version(rs []ir.Rule, tpl string) (string, error) {
	b, err := json.Marshal(rs)
	if err != nil {
		return "", fmt.Errorf("fingerprint rule set: %w", err)
	}
	return integrity.Digest(string(b) + "\x00" + tpl)[:12], nil
}
