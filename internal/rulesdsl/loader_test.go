package rulesdsl

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/lauolme/registro-app/internal/ir"
)

const samplePack = `
- name: Doble venta
  condition:
    doble_venta: Sí
  analysis: Art. 1473 CC, prioridad registral.
  conclusion: Prevalece el primer inscriptor de buena fe.
  risk: Litigio con el segundo comprador.
  next_steps: Solicitar nota simple.
- name: Administrador no inscrito
  condition:
    admin_no_inscrito: Sí
  analysis: Art. 215 RRM.
  conclusion: Inoponibilidad frente a terceros de buena fe.
`

func TestParse_PreservesOrderAndFields(t *testing.T) {
	rs, err := Parse("rules.yml", []byte(samplePack))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rs) != 2 {
		t.Fatalf("got %d rules, want 2", len(rs))
	}
	if rs[0].Name != "Doble venta" || rs[1].Name != "Administrador no inscrito" {
		t.Fatalf("order not preserved: %q, %q", rs[0].Name, rs[1].Name)
	}
	want := ir.Condition{{Key: "doble_venta", Value: "Sí"}}
	if !reflect.DeepEqual(rs[0].Condition, want) {
		t.Fatalf("condition = %v, want %v", rs[0].Condition, want)
	}
	if rs[0].Risk == "" || rs[0].NextSteps == "" {
		t.Fatalf("optional fields dropped: %+v", rs[0])
	}
	if rs[1].Risk != "" || rs[1].NextSteps != "" {
		t.Fatalf("absent optional fields should be empty: %+v", rs[1])
	}
}

func TestParse_VersionedPack(t *testing.T) {
	src := "version: 1\nrules:\n  - name: Siempre\n    condition: {}\n    analysis: a\n    conclusion: c\n"
	rs, err := Parse("", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rs) != 1 || len(rs[0].Condition) != 0 {
		t.Fatalf("unexpected rules: %+v", rs)
	}
}

func TestParse_Malformed(t *testing.T) {
	cases := []struct {
		name  string
		src   string
		index int
		field string
	}{
		{
			name:  "missing conclusion",
			src:   "- name: A\n  condition: {k: v}\n  analysis: x\n",
			index: 0,
			field: "conclusion",
		},
		{
			name:  "missing name in second record",
			src:   "- name: A\n  condition: {}\n  analysis: x\n  conclusion: y\n- condition: {}\n  analysis: x\n  conclusion: y\n",
			index: 1,
			field: "name",
		},
		{
			name:  "condition not a mapping",
			src:   "- name: A\n  condition: [k]\n  analysis: x\n  conclusion: y\n",
			index: 0,
			field: "condition",
		},
		{
			name:  "null condition",
			src:   "- name: A\n  condition:\n  analysis: x\n  conclusion: y\n",
			index: 0,
			field: "condition",
		},
		{
			name:  "nested condition value",
			src:   "- name: A\n  condition: {k: {a: b}}\n  analysis: x\n  conclusion: y\n",
			index: 0,
			field: "condition",
		},
		{
			name:  "analysis not scalar",
			src:   "- name: A\n  condition: {}\n  analysis: [x]\n  conclusion: y\n",
			index: 0,
			field: "analysis",
		},
		{
			name:  "record not a mapping",
			src:   "- just a string\n",
			index: 0,
		},
		{name: "root is a scalar", src: "hello", index: -1},
		{name: "empty document", src: "", index: -1},
		{name: "null document", src: "~\n", index: -1},
		{name: "bad yaml", src: "- name: [unterminated\n", index: -1},
		{name: "unknown version", src: "version: 2\nrules: []\n", index: -1},
		{name: "rules not a list", src: "rules: {}\n", index: -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rs, err := Parse("rules.yml", []byte(tc.src))
			if err == nil {
				t.Fatalf("expected LoadError, got %d rules", len(rs))
			}
			if rs != nil {
				t.Fatalf("partial rule list returned: %+v", rs)
			}
			var le *ir.LoadError
			if !errors.As(err, &le) {
				t.Fatalf("error %T is not *ir.LoadError: %v", err, err)
			}
			if le.Index != tc.index {
				t.Fatalf("index = %d, want %d (%v)", le.Index, tc.index, err)
			}
			if tc.field != "" && le.Field != tc.field {
				t.Fatalf("field = %q, want %q (%v)", le.Field, tc.field, err)
			}
		})
	}
}

func TestParse_RejectsInvalidUTF8(t *testing.T) {
	_, err := Parse("", []byte("- name: \xff\n"))
	var le *ir.LoadError
	if !errors.As(err, &le) || !strings.Contains(le.Reason, "UTF-8") {
		t.Fatalf("expected UTF-8 LoadError, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "rules.yml")
	if err := os.WriteFile(p, []byte(samplePack), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	rs, err := LoadFile(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rs) != 2 {
		t.Fatalf("got %d rules", len(rs))
	}

	_, err = LoadFile(filepath.Join(dir, "missing.yml"))
	var le *ir.LoadError
	if !errors.As(err, &le) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected LoadError wrapping ErrNotExist, got %v", err)
	}
}

func TestLoad_Reader(t *testing.T) {
	rs, err := Load(strings.NewReader(samplePack))
	if err != nil || len(rs) != 2 {
		t.Fatalf("load: %v (%d rules)", err, len(rs))
	}
}
