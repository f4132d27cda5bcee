package rules

import "github.com/lauolme/registro-app/internal/ir"

// Settings tunes which loaded rules take part in evaluation.
type Settings struct {
	// Disabled names rules to drop after load (case-insensitive).
	Disabled []string
}

// Apply returns the rules of rs not disabled by s. rs is left untouched.
func (s Settings) Apply(rs []ir.Rule) []ir.Rule {
	if len(s.Disabled) == 0 {
		return rs
	}
	off := make(map[string]bool, len(s.Disabled))
	for _, name := range s.Disabled {
		off[normName(name)] = true
	}
	out := make([]ir.Rule, 0, len(rs))
	for _, r := range rs {
		if off[normName(r.Name)] {
			continue
		}
		out = append(out, r)
	}
	return out
}
