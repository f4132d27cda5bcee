package reporting

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"

	"github.com/lauolme/registro-app/internal/ir"
)

// WriteHTML writes a standalone view of the dictamen to <outDir>/<name>.html.
// The report text itself is shown escaped inside a <pre> block, unmodified.
func WriteHTML(name, outDir string, d *ir.Dictamen) (string, error) {
	path := filepath.Join(outDir, name+".html")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := renderHTML(f, name, d); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// renderHTML writes the page to out and reports the first write error.
func renderHTML(out io.Writer, name string, d *ir.Dictamen) error {
	f := bufio.NewWriter(out)

	// Head + styles
	fmt.Fprintf(f, "<!doctype html><html><head><meta charset='utf-8'><title>%s</title>", html.EscapeString(name))
	fmt.Fprint(f, "<style>body{font-family:system-ui,Arial,sans-serif;padding:20px;line-height:1.4} table{border-collapse:collapse;margin:8px 0} td,th{border:1px solid #ddd;padding:6px} h1,h2{margin:6px 0 4px} .dim{color:#666} .mono{font-family:ui-monospace,Menlo,Consolas,monospace} pre{white-space:pre-wrap;background:#f7f7f7;padding:12px}</style>")
	fmt.Fprint(f, "</head><body>")

	fmt.Fprint(f, "<h1>LegalTech Registro – dictamen</h1>")
	fmt.Fprintf(f, "<p>Hechos: %d &nbsp; Reglas activadas: %d</p>", len(d.Facts), len(d.Triggered))
	if d.RuleSetVersion != "" {
		fmt.Fprintf(f, "<p class='dim'>Conjunto de reglas: <span class='mono'>%s</span></p>", html.EscapeString(d.RuleSetVersion))
	}

	// Trace
	fmt.Fprint(f, "<h2>Hechos capturados</h2><table><tr><th>Hecho</th><th>Valor</th></tr>")
	for _, fact := range d.Facts {
		fmt.Fprintf(f, "<tr><td class='mono'>%s</td><td>%s</td></tr>",
			html.EscapeString(fact.Key),
			html.EscapeString(fact.Value),
		)
	}
	fmt.Fprint(f, "</table>")

	if len(d.Triggered) > 0 {
		fmt.Fprint(f, "<h2>Reglas activadas</h2><ol>")
		for _, n := range d.Triggered {
			fmt.Fprintf(f, "<li>%s</li>", html.EscapeString(n))
		}
		fmt.Fprint(f, "</ol>")
	} else {
		fmt.Fprintf(f, "<h2>Reglas activadas</h2><p class='dim'>%s</p>", html.EscapeString(NoCuestiones))
	}

	fmt.Fprintf(f, "<h2>Dictamen</h2><pre>%s</pre>", html.EscapeString(d.Text))
	fmt.Fprintf(f, "<h2>Evidencia de integridad</h2><p class='mono'>SHA-256: %s</p>", html.EscapeString(d.Digest))

	fmt.Fprint(f, "</body></html>")
	return f.Flush()
}
