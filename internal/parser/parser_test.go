package parser

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/lauolme/registro-app/internal/ir"
)

func TestParseFactsFile_YAMLKeepsOrderAndText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caso.yaml")
	body := "admin_no_inscrito: No\ndoble_venta: Sí\nvacio:\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	facts, diags, err := ParseFactsFile(path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := ir.NewFactSet("admin_no_inscrito", "No", "doble_venta", "Sí", "vacio", "")
	if !reflect.DeepEqual(facts, want) {
		t.Fatalf("facts = %+v", facts)
	}
	if len(diags.Warnings) != 0 {
		t.Fatalf("warnings = %v", diags.Warnings)
	}
}

func TestParseFactsFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caso.json")
	if err := os.WriteFile(path, []byte(`{"doble_venta":"Sí","n":3,"x":null}`), 0o644); err != nil {
		t.Fatal(err)
	}
	facts, _, err := ParseFactsFile(path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !reflect.DeepEqual(facts, ir.NewFactSet("doble_venta", "Sí", "n", "3", "x", "")) {
		t.Fatalf("facts = %+v", facts)
	}
}

func TestParseFactsFile_Errors(t *testing.T) {
	dir := t.TempDir()
	var le *ir.LoadError

	_, _, err := ParseFactsFile(filepath.Join(dir, "missing.yaml"))
	if !errors.As(err, &le) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file: %v", err)
	}

	nested := filepath.Join(dir, "nested.yaml")
	if err := os.WriteFile(nested, []byte("doble_venta:\n  a: b\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ParseFactsFile(nested); !errors.As(err, &le) {
		t.Fatalf("nested value: %v", err)
	}

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	facts, diags, err := ParseFactsFile(empty)
	if err != nil || len(facts) != 0 || len(diags.Warnings) != 1 {
		t.Fatalf("empty file: %v %v %v", facts, diags, err)
	}
}

func TestParseAssignments(t *testing.T) {
	facts, diags, err := ParseAssignments([]string{"doble_venta=Sí", "nota=a=b", "vacio=", "doble_venta=No"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := ir.NewFactSet("doble_venta", "No", "nota", "a=b", "vacio", "")
	if !reflect.DeepEqual(facts, want) {
		t.Fatalf("facts = %+v", facts)
	}
	if len(diags.Warnings) != 1 {
		t.Fatalf("warnings = %v", diags.Warnings)
	}

	for _, bad := range []string{"sin_igual", "=valor", " =x"} {
		if _, _, err := ParseAssignments([]string{bad}); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}

func TestCheck(t *testing.T) {
	d := Check(ir.NewFactSet("doble_venta", "Sí", "otro", "x"), []string{"doble_venta", "admin_no_inscrito"})
	if len(d.Warnings) != 1 {
		t.Fatalf("warnings = %v", d.Warnings)
	}
}
