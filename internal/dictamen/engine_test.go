package dictamen

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/lauolme/registro-app/internal/integrity"
	"github.com/lauolme/registro-app/internal/ir"
	"github.com/lauolme/registro-app/internal/reporting"
	"github.com/lauolme/registro-app/internal/rules"
)

const template = `# Dictamen jurídico

## Hechos
{hechos}

## Cuestiones planteadas
{cuestiones}

## Análisis
{analisis}

## Conclusión
{conclusion}

## Riesgos
{riesgos}

## Próximos pasos
{pasos}
`

// Digest of the dictamen for both sample rules firing, as produced by the
// reference implementation.
const ambosDigest = "cdea2c62b8c00fed2e3a08c28968893445750dab658516eb60a225e44c3703cf"

var sampleRules = []ir.Rule{
	{
		Name:       "Doble venta",
		Condition:  ir.Condition{{Key: "doble_venta", Value: "Sí"}},
		Analysis:   "Art. 1473 CC.",
		Conclusion: "Prevalece el primer inscriptor.",
		Risk:       "Litigio con el segundo comprador.",
		NextSteps:  "Solicitar nota simple.",
	},
	{
		Name:       "Administrador no inscrito",
		Condition:  ir.Condition{{Key: "admin_no_inscrito", Value: "Sí"}},
		Analysis:   "Art. 21 CCom.",
		Conclusion: "Inoponible a terceros de buena fe.",
	},
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	s, err := NewSnapshot(sampleRules, template, "test")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	e, err := NewEngine(s, nil)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return e
}

func TestGenerate_MatchesReferenceDigest(t *testing.T) {
	e := newEngine(t)
	d, err := e.Generate(ir.NewFactSet("doble_venta", "sí", "admin_no_inscrito", "SÍ"))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !reflect.DeepEqual(d.Triggered, []string{"Doble venta", "Administrador no inscrito"}) {
		t.Fatalf("triggered = %v", d.Triggered)
	}
	// Facts are echoed as given, so lower-case answers render differently from
	// the reference text; re-run with the reference answers for the digest.
	d, err = e.Generate(ir.NewFactSet("doble_venta", "Sí", "admin_no_inscrito", "Sí"))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if d.Digest != ambosDigest {
		t.Fatalf("digest = %s, want %s\n%s", d.Digest, ambosDigest, d.Text)
	}
	if !integrity.Verify(d.Text, d.Digest) {
		t.Fatalf("digest does not verify")
	}
	if d.RuleSetVersion == "" || d.RuleSetVersion != e.Snapshot().Version {
		t.Fatalf("rule set version = %q", d.RuleSetVersion)
	}
}

func TestGenerate_ScenarioB(t *testing.T) {
	e := newEngine(t)
	d, err := e.Generate(ir.NewFactSet("doble_venta", "", "admin_no_inscrito", ""))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(d.Triggered) != 0 || d.Triggered == nil {
		t.Fatalf("triggered = %#v", d.Triggered)
	}
	if d.Sections.Analisis != reporting.NoAnalisis || d.Sections.Conclusion != reporting.NoConclusion {
		t.Fatalf("sections = %+v", d.Sections)
	}
}

func TestGenerate_Pure(t *testing.T) {
	e := newEngine(t)
	facts := ir.NewFactSet("doble_venta", "Sí", "admin_no_inscrito", "No")
	a, _ := e.Generate(facts)
	b, _ := e.Generate(facts)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("two runs differ:\n%+v\n%+v", a, b)
	}
}

func TestGenerate_TemplateErrorYieldsNoText(t *testing.T) {
	s := &Snapshot{Rules: sampleRules, Template: "{hechos}"}
	d, err := Generate(s, ir.NewFactSet("doble_venta", "Sí"))
	var te *reporting.TemplateError
	if !errors.As(err, &te) {
		t.Fatalf("expected TemplateError, got %v", err)
	}
	if d.Text != "" || d.Digest != "" {
		t.Fatalf("partial dictamen returned: %+v", d)
	}
}

func TestNewSnapshot_RejectsBadTemplate(t *testing.T) {
	_, err := NewSnapshot(sampleRules, "{hechos}{firma}", "x")
	var le *ir.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected LoadError, got %v", err)
	}
}

func TestNewSnapshot_FreezesRules(t *testing.T) {
	rs := []ir.Rule{{Name: "A", Condition: ir.Condition{{Key: "k", Value: "v"}}, Analysis: "a", Conclusion: "c"}}
	s, err := NewSnapshot(rs, template, "x")
	if err != nil {
		t.Fatal(err)
	}
	rs[0].Name = "B"
	rs[0].Condition[0].Value = "w"
	if s.Rules[0].Name != "A" || s.Rules[0].Condition[0].Value != "v" {
		t.Fatalf("snapshot shares memory with the caller: %+v", s.Rules[0])
	}
}

func TestReload_KeepsSnapshotOnFailure(t *testing.T) {
	e := newEngine(t)
	before := e.Snapshot()

	_, err := e.Reload(func() (*Snapshot, error) { return nil, errors.New("broken pack") })
	if err == nil {
		t.Fatalf("expected reload error")
	}
	if e.Snapshot() != before {
		t.Fatalf("failed reload replaced the snapshot")
	}

	next, err := NewSnapshot(sampleRules[:1], template, "next")
	if err != nil {
		t.Fatal(err)
	}
	got, err := e.Reload(func() (*Snapshot, error) { return next, nil })
	if err != nil || got != next || e.Snapshot() != next {
		t.Fatalf("reload did not install the new snapshot: %v", err)
	}
	if next.Version == before.Version {
		t.Fatalf("different rule sets should have different versions")
	}
}

func TestEngine_ConcurrentGenerateAndSwap(t *testing.T) {
	e := newEngine(t)
	one, _ := NewSnapshot(sampleRules[:1], template, "one")
	two, _ := NewSnapshot(sampleRules, template, "two")
	facts := ir.NewFactSet("doble_venta", "Sí", "admin_no_inscrito", "Sí")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if j%10 == 0 {
					if i%2 == 0 {
						e.Swap(one)
					} else {
						e.Swap(two)
					}
				}
				d, err := e.Generate(facts)
				if err != nil {
					t.Errorf("generate: %v", err)
					return
				}
				// Each dictamen must be consistent with exactly one snapshot.
				want := 2
				if d.RuleSetVersion == one.Version {
					want = 1
				}
				if len(d.Triggered) != want {
					t.Errorf("version %s with %d rules", d.RuleSetVersion, len(d.Triggered))
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestLoadFiles_AppliesSettings(t *testing.T) {
	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "rules.yml")
	tplPath := filepath.Join(dir, "dictamen.md")
	pack := "- name: A\n  condition: {k: v}\n  analysis: a\n  conclusion: c\n- name: B\n  condition: {}\n  analysis: b\n  conclusion: d\n"
	if err := os.WriteFile(rulesPath, []byte(pack), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(tplPath, []byte(template), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadFiles(rulesPath, tplPath, rules.Settings{Disabled: []string{"b"}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(s.Rules) != 1 || s.Rules[0].Name != "A" || s.Source != rulesPath {
		t.Fatalf("snapshot = %+v", s)
	}

	if err := os.WriteFile(rulesPath, []byte("- name: A\n  condition: {}\n  analysis: a\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFiles(rulesPath, tplPath, rules.Settings{}); err == nil {
		t.Fatalf("expected LoadError for a record missing its conclusion")
	}
}
