package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lauolme/registro-app/internal/cases"
	"github.com/lauolme/registro-app/internal/dictamen"
	"github.com/lauolme/registro-app/internal/ir"
	"github.com/lauolme/registro-app/internal/parser"
	"github.com/lauolme/registro-app/internal/reporting"
	"github.com/lauolme/registro-app/internal/rules"
)

type factOptions struct {
	file     string
	sets     []string
	demo     string
	defaults bool
}

func (o *factOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.file, "facts", "", "YAML or JSON file with the case facts")
	cmd.Flags().StringArrayVar(&o.sets, "set", nil, "Fact assignment key=value (repeatable)")
	cmd.Flags().StringVar(&o.demo, "demo", "", "Start from a demo case (see 'registro demo')")
	cmd.Flags().BoolVar(&o.defaults, "defaults", true, "Include every form question, unanswered ones as empty")
}

// collect layers the fact sources: form defaults, demo case, file, --set.
func (o *factOptions) collect(app *App) (ir.FactSet, error) {
	var facts ir.FactSet
	if o.defaults {
		facts = cases.Defaults()
	}
	if o.demo != "" {
		d, ok := cases.Find(o.demo)
		if !ok {
			return nil, fmt.Errorf("unknown demo case %q", o.demo)
		}
		facts = facts.Merge(d.Facts)
	}
	if o.file != "" {
		fromFile, diags, err := parser.ParseFactsFile(o.file)
		if err != nil {
			return nil, err
		}
		warn(app, diags)
		facts = facts.Merge(fromFile)
	}
	if len(o.sets) > 0 {
		fromFlags, diags, err := parser.ParseAssignments(o.sets)
		if err != nil {
			return nil, err
		}
		warn(app, diags)
		facts = facts.Merge(fromFlags)
	}
	return facts, nil
}

func warn(app *App, d parser.Diagnostics) {
	for _, w := range d.Warnings {
		app.Logger.Warn("facts", "warning", w)
	}
}

func NewEvaluateCmd(app *App) *cobra.Command {
	var (
		facts  factOptions
		outDir string
		format string
		name   string
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate case facts and render the dictamen",
		Long: `Evaluate case facts against the rule pack and render the dictamen.

Facts are layered in this order, later sources overriding earlier ones:
form defaults, --demo, --facts, --set.

Without --out the dictamen is printed to stdout. With --out it is written to
<out>/<name>.md with a .sha256 sidecar, plus <name>.json or <name>.html for
those formats.`,
		Example: `  registro evaluate --demo doble-venta
  registro evaluate --set doble_venta=Sí --set admin_no_inscrito=No
  registro evaluate --facts caso.yaml --out ./reports --format html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "text", "json", "html":
			default:
				return fmt.Errorf("--format must be text, json or html, got %q", format)
			}
			fs, err := facts.collect(app)
			if err != nil {
				return err
			}
			snap, err := app.LoadSnapshot()
			if err != nil {
				return err
			}
			warn(app, parser.Check(fs, append(rules.FactKeys(snap.Rules), cases.Defaults().Keys()...)))

			d, err := dictamen.Generate(snap, fs)
			if err != nil {
				return fmt.Errorf("rendering dictamen: %w", err)
			}
			app.Logger.Info("evaluate complete",
				"triggered", len(d.Triggered),
				"sha256", d.Digest,
				"rule_set_version", d.RuleSetVersion,
			)

			if outDir == "" && format == "html" {
				outDir = app.Config.Reporting.OutDir
			}
			if outDir == "" {
				return printDictamen(cmd.OutOrStdout(), &d, format)
			}
			return writeDictamen(cmd.OutOrStdout(), name, outDir, &d, format)
		},
	}
	facts.register(cmd)
	cmd.Flags().StringVar(&outDir, "out", "", "Output directory (default: print to stdout)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text|json|html")
	cmd.Flags().StringVar(&name, "name", "dictamen", "Base file name inside --out")
	return cmd
}

func printDictamen(w io.Writer, d *ir.Dictamen, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}
	fmt.Fprint(w, d.Text)
	if !strings.HasSuffix(d.Text, "\n") {
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "---")
	printTrace(w, d)
	return nil
}

func printTrace(w io.Writer, d *ir.Dictamen) {
	fmt.Fprintln(w, "Hechos capturados:")
	for _, f := range d.Facts {
		fmt.Fprintf(w, "  %s: %q\n", f.Key, f.Value)
	}
	if len(d.Triggered) == 0 {
		fmt.Fprintln(w, "Reglas activadas: ninguna")
	} else {
		fmt.Fprintf(w, "Reglas activadas: %s\n", strings.Join(d.Triggered, ", "))
	}
	fmt.Fprintf(w, "SHA-256: %s\n", d.Digest)
}

func writeDictamen(w io.Writer, name, outDir string, d *ir.Dictamen, format string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("cannot create out dir: %w", err)
	}
	mdPath, err := reporting.WriteMarkdown(name, outDir, d)
	if err != nil {
		return fmt.Errorf("writing markdown: %w", err)
	}
	fmt.Fprintf(w, "Evaluate OK\n  Markdown: %s\n", mdPath)
	switch format {
	case "json":
		p, err := reporting.WriteJSON(name, outDir, d)
		if err != nil {
			return fmt.Errorf("writing json: %w", err)
		}
		fmt.Fprintf(w, "  JSON: %s\n", p)
	case "html":
		p, err := reporting.WriteHTML(name, outDir, d)
		if err != nil {
			return fmt.Errorf("writing html: %w", err)
		}
		fmt.Fprintf(w, "  HTML: %s\n", p)
	}
	fmt.Fprintf(w, "  Triggered: %d\n  SHA-256: %s\n", len(d.Triggered), d.Digest)
	return nil
}
