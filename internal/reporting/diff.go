package reporting

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lauolme/registro-app/internal/ir"
)

// DiffReport compares the triggered rules and the facts of two dictámenes.
type DiffReport struct {
	BaseDigest   string       `json:"base_sha256"`
	HeadDigest   string       `json:"head_sha256"`
	SameText     bool         `json:"same_text"`
	Summary      DiffSummary  `json:"summary"`
	New          []string     `json:"new"`
	Removed      []string     `json:"removed"`
	FactsChanged []FactChange `json:"facts_changed"`
}

type DiffSummary struct {
	NewCount          int `json:"new"`
	RemovedCount      int `json:"removed"`
	FactsChangedCount int `json:"facts_changed"`
}

// FactChange is one fact whose value differs; an absent side reads as "".
type FactChange struct {
	Key  string `json:"key"`
	Base string `json:"base"`
	Head string `json:"head"`
}

// Diff compares base and head. Rule names are matched as a multiset, so a rule
// that fires twice in head and once in base is reported once as new.
func Diff(base, head *ir.Dictamen) DiffReport {
	bm := map[string]int{}
	for _, n := range base.Triggered {
		bm[norm(n)]++
	}
	hm := map[string]int{}
	for _, n := range head.Triggered {
		hm[norm(n)]++
	}

	added := []string{}
	for _, n := range head.Triggered {
		k := norm(n)
		if bm[k] > 0 {
			bm[k]--
			continue
		}
		added = append(added, n)
	}
	removed := []string{}
	for _, n := range base.Triggered {
		k := norm(n)
		if hm[k] > 0 {
			hm[k]--
			continue
		}
		removed = append(removed, n)
	}

	changed := []FactChange{}
	seen := map[string]bool{}
	for _, f := range base.Facts {
		seen[f.Key] = true
		if hv := head.Facts.Get(f.Key); hv != f.Value {
			changed = append(changed, FactChange{Key: f.Key, Base: f.Value, Head: hv})
		}
	}
	for _, f := range head.Facts {
		if !seen[f.Key] && f.Value != "" {
			changed = append(changed, FactChange{Key: f.Key, Head: f.Value})
		}
	}

	// stable sort
	sort.Strings(added)
	sort.Strings(removed)
	sort.Slice(changed, func(i, j int) bool { return changed[i].Key < changed[j].Key })

	return DiffReport{
		BaseDigest: base.Digest,
		HeadDigest: head.Digest,
		SameText:   base.Digest == head.Digest && base.Text == head.Text,
		Summary: DiffSummary{
			NewCount:          len(added),
			RemovedCount:      len(removed),
			FactsChangedCount: len(changed),
		},
		New:          added,
		Removed:      removed,
		FactsChanged: changed,
	}
}

// WriteDiffJSON writes Diff(base, head) to <outDir>/diff_<baseName>__<headName>.json.
func WriteDiffJSON(baseName, headName, outDir string, base, head *ir.Dictamen) (string, error) {
	path := filepath.Join(outDir, "diff_"+baseName+"__"+headName+".json")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	b, err := json.MarshalIndent(Diff(base, head), "", "  ")
	if err != nil {
		return "", err
	}
	return path, os.WriteFile(path, b, 0o644)
}

func norm(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
