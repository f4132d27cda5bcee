package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lauolme/registro-app/internal/ir"
	"github.com/lauolme/registro-app/internal/rules"
	"github.com/lauolme/registro-app/internal/rulesdsl"
	"github.com/lauolme/registro-app/internal/shared"
	"github.com/lauolme/registro-app/internal/storage"
)

func NewRulesCmd(app *App) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "rules [name]",
		Short: "List the loaded rules, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := app.LoadSnapshot()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				r, ok := rules.Get(snap.Rules, args[0])
				if !ok {
					return fmt.Errorf("rule %q not found", args[0])
				}
				if asJSON {
					return json.NewEncoder(out).Encode(r)
				}
				fmt.Fprintf(out, "%s\n  Condición: %s\n  Análisis: %s\n  Conclusión: %s\n", r.Name, conditionText(r.Condition), r.Analysis, r.Conclusion)
				if r.Risk != "" {
					fmt.Fprintf(out, "  Riesgo: %s\n", r.Risk)
				}
				if r.NextSteps != "" {
					fmt.Fprintf(out, "  Próximos pasos: %s\n", r.NextSteps)
				}
				return nil
			}

			if asJSON {
				return json.NewEncoder(out).Encode(snap.Rules)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tNAME\tCONDITION")
			for i, r := range snap.Rules {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, r.Name, conditionText(r.Condition))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%d rules from %s (version %s)\n", len(snap.Rules), snap.Source, snap.Version)
			if dups := rules.Duplicates(snap.Rules); len(dups) > 0 {
				fmt.Fprintf(out, "Duplicate names: %s\n", strings.Join(dups, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func conditionText(c ir.Condition) string {
	if len(c) == 0 {
		return "(siempre)"
	}
	parts := make([]string, 0, len(c))
	for _, cl := range c {
		parts = append(parts, cl.Key+"="+cl.Value)
	}
	return strings.Join(parts, " AND ")
}

func NewImportRulesCmd(app *App) *cobra.Command {
	var (
		from   string
		list   bool
		remove bool
	)
	cmd := &cobra.Command{
		Use:   "import-rules",
		Short: "Copy a YAML rule pack into the SQLite rules database",
		Long: `Copy a YAML rule pack into the SQLite rules database under a rule set
name. Importing over an existing name replaces it. Point --db (or rules.db) at
the same file to serve rules from the database. Without --db the database is
kept under $XDG_DATA_HOME/registro/rules.db.`,
		Example: `  registro import-rules --db ./registro.db --rule-set default
  registro import-rules --db ./registro.db --list
  registro import-rules --db ./registro.db --rule-set viejo --delete`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.Config
			if cfg.Rules.DB == "" {
				cfg.Rules.DB = shared.DefaultRulesDB()
				if err := os.MkdirAll(filepath.Dir(cfg.Rules.DB), 0o755); err != nil {
					return fmt.Errorf("cannot create data dir: %w", err)
				}
			}
			db, err := storage.OpenSQLite(cfg.Rules.DB)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.CreateSchema(); err != nil {
				return fmt.Errorf("db schema: %w", err)
			}
			out := cmd.OutOrStdout()

			if list {
				sets, err := db.ListRuleSets()
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tRULES\tIMPORTED\tSOURCE")
				for _, s := range sets {
					fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", s.Name, s.Rules, s.ImportedAt.Format("2006-01-02 15:04:05"), s.Source)
				}
				return tw.Flush()
			}

			if remove {
				ok, err := db.DeleteRuleSet(cfg.Rules.RuleSet)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("rule set %q not found", cfg.Rules.RuleSet)
				}
				app.Logger.Info("rule set deleted", "name", cfg.Rules.RuleSet, "db", cfg.Rules.DB)
				fmt.Fprintf(out, "Delete OK\n  Rule set: %s\n", cfg.Rules.RuleSet)
				return nil
			}

			if from == "" {
				from = cfg.Rules.Path
			}
			rs, err := rulesdsl.LoadFile(from)
			if err != nil {
				return err
			}
			if err := db.ImportRuleSet(cfg.Rules.RuleSet, from, rs); err != nil {
				return fmt.Errorf("import: %w", err)
			}
			app.Logger.Info("rule set imported", "name", cfg.Rules.RuleSet, "rules", len(rs), "db", cfg.Rules.DB)
			fmt.Fprintf(out, "Import OK\n  Rule set: %s\n  Rules: %d\n  DB: %s\n", cfg.Rules.RuleSet, len(rs), cfg.Rules.DB)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "YAML rule pack to import (default: rules.path)")
	cmd.Flags().BoolVar(&list, "list", false, "List stored rule sets instead of importing")
	cmd.Flags().BoolVar(&remove, "delete", false, "Delete the --rule-set instead of importing")
	return cmd
}
