// Package cases holds the fact schema collected from users and the built-in
// demonstration cases.
package cases

import (
	"strings"

	"github.com/lauolme/registro-app/internal/ir"
)

// Options are the answers offered for every question; "" means unanswered.
var Options = []string{"", "Sí", "No"}

// Field is one question of the case form.
type Field struct {
	Key      string   `json:"key"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// Demo is a named example case.
type Demo struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Facts ir.FactSet `json:"facts"`
}

// Schema lists the questions in form order.
func Schema() []Field {
	return []Field{
		{Key: "doble_venta", Question: "¿Hay doble venta de inmueble?", Options: Options},
		{Key: "admin_no_inscrito", Question: "¿Administrador no inscrito?", Options: Options},
	}
}

// Defaults returns every schema key with an empty answer, in form order.
func Defaults() ir.FactSet {
	var fs ir.FactSet
	for _, f := range Schema() {
		fs.Set(f.Key, "")
	}
	return fs
}

// Demos returns the demonstration cases in display order.
func Demos() []Demo {
	return []Demo{
		{ID: "doble-venta", Name: "Caso demo: Doble venta", Facts: ir.NewFactSet("doble_venta", "Sí", "admin_no_inscrito", "No")},
		{ID: "admin-no-inscrito", Name: "Caso demo: Admin no inscrito", Facts: ir.NewFactSet("doble_venta", "No", "admin_no_inscrito", "Sí")},
	}
}

// Find looks a demo up by ID or display name, ignoring case.
func Find(name string) (Demo, bool) {
	name = strings.TrimSpace(name)
	for _, d := range Demos() {
		if strings.EqualFold(d.ID, name) || strings.EqualFold(d.Name, name) {
			return d, true
		}
	}
	return Demo{}, false
}

// FactSet overlays the demo answers onto the blank schema.
func (d Demo) FactSet() ir.FactSet {
	return Defaults().Merge(d.Facts)
}
