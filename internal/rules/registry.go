package rules

import (
	"sort"
	"strings"

	"github.com/lauolme/registro-app/internal/ir"
)

// Get returns the first rule named id (case-insensitive, surrounding space ignored).
func Get(rs []ir.Rule, id string) (ir.Rule, bool) {
	key := normName(id)
	for _, r := range rs {
		if normName(r.Name) == key {
			return r, true
		}
	}
	return ir.Rule{}, false
}

// Duplicates lists names used by more than one rule, sorted. The loader accepts
// them; callers surface them as warnings since the report cannot tell them apart.
func Duplicates(rs []ir.Rule) []string {
	seen := map[string]int{}
	first := map[string]string{}
	for _, r := range rs {
		k := normName(r.Name)
		seen[k]++
		if _, ok := first[k]; !ok {
			first[k] = r.Name
		}
	}
	var out []string
	for k, n := range seen {
		if n > 1 {
			out = append(out, first[k])
		}
	}
	sort.Strings(out)
	return out
}

// FactKeys lists every fact key referenced by rs, in first-use order.
func FactKeys(rs []ir.Rule) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range rs {
		for _, k := range r.Condition.Keys() {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}

func normName(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
