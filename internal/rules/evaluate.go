package rules

import (
	"strings"

	"github.com/lauolme/registro-app/internal/ir"
)

// Evaluate returns the rules of rs whose condition holds for facts, in rule-set
// order. A rule fires iff every clause matches: the fact value (empty when the
// key is absent) equals the expected value under case folding. A rule with an
// empty condition always fires.
func Evaluate(facts ir.FactSet, rs []ir.Rule) []ir.Rule {
	out := make([]ir.Rule, 0, len(rs))
	for _, r := range rs {
		if Matches(facts, r.Condition) {
			out = append(out, r)
		}
	}
	return out
}

// Matches reports whether every clause of c holds for facts.
func Matches(facts ir.FactSet, c ir.Condition) bool {
	for _, cl := range c {
		if !eqCI(facts.Get(cl.Key), cl.Value) {
			return false
		}
	}
	return true
}

// Names lists rule names in order.
func Names(rs []ir.Rule) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Name)
	}
	return out
}

func eqCI(a, b string) bool { return strings.EqualFold(a, b) }
