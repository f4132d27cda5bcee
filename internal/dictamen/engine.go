// Package dictamen runs the evaluate → render → digest pipeline over an
// injected rule set and template.
package dictamen

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/lauolme/registro-app/internal/integrity"
	"github.com/lauolme/registro-app/internal/ir"
	"github.com/lauolme/registro-app/internal/reporting"
	"github.com/lauolme/registro-app/internal/rules"
)

// LoadFunc builds a fresh snapshot, typically from files or the rules database.
type LoadFunc func() (*Snapshot, error)

// Engine holds the active snapshot. Reloads swap the whole rule-set/template
// pair atomically; a Generate call keeps the snapshot it started with.
type Engine struct {
	cur    atomic.Pointer[Snapshot]
	logger *slog.Logger
}

// NewEngine returns an engine serving s. A nil logger uses slog.Default().
func NewEngine(s *Snapshot, logger *slog.Logger) (*Engine, error) {
	if s == nil {
		return nil, errors.New("dictamen: nil snapshot")
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{logger: logger}
	e.cur.Store(s)
	return e, nil
}

// Snapshot returns the active snapshot.
func (e *Engine) Snapshot() *Snapshot { return e.cur.Load() }

// Swap installs s and returns the previous snapshot.
func (e *Engine) Swap(s *Snapshot) *Snapshot {
	return e.cur.Swap(s)
}

// Reload builds a snapshot with load and installs it only if loading succeeded.
func (e *Engine) Reload(load LoadFunc) (*Snapshot, error) {
	s, err := load()
	if err != nil {
		e.logger.Error("reload failed; keeping current rule set", "err", err, "version", e.Snapshot().Version)
		return nil, err
	}
	if s == nil {
		return nil, errors.New("dictamen: loader returned nil snapshot")
	}
	old := e.Swap(s)
	e.logger.Info("rule set reloaded",
		"version", s.Version,
		"previous", old.Version,
		"rules", len(s.Rules),
		"source", s.Source,
	)
	return s, nil
}

// Generate evaluates facts against the active snapshot.
func (e *Engine) Generate(facts ir.FactSet) (ir.Dictamen, error) {
	return Generate(e.Snapshot(), facts)
}

// Generate evaluates facts against s, renders the dictamen and fingerprints it.
// A template error yields no text.
func Generate(s *Snapshot, facts ir.FactSet) (ir.Dictamen, error) {
	triggered := rules.Evaluate(facts, s.Rules)
	sections := reporting.Sections(facts, triggered)
	text, err := reporting.Fill(s.Template, sections)
	if err != nil {
		return ir.Dictamen{}, err
	}
	facts = facts.Clone()
	if facts == nil {
		facts = ir.FactSet{}
	}
	return ir.Dictamen{
		Facts:          facts,
		Triggered:      rules.Names(triggered),
		Sections:       sections,
		Text:           text,
		Digest:         integrity.Digest(text),
		RuleSetVersion: s.Version,
	}, nil
}
