package commands

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lauolme/registro-app/internal/dictamen"
	"github.com/lauolme/registro-app/internal/ir"
	"github.com/lauolme/registro-app/internal/reporting"
)

func NewDiffCmd(app *App) *cobra.Command {
	var (
		base, head, outDir string
		defaults           bool
	)
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare the dictámenes of two fact files",
		Long: `Evaluate two fact files against the same rule set and report the rules
that newly fire or stop firing, and the facts that changed.

Each file is layered over the form defaults exactly as 'evaluate --facts'
does, so the digests in the report match the ones evaluate prints.`,
		Example: `  registro diff --base antes.yaml --head despues.yaml
  registro diff --base antes.yaml --head despues.yaml --out ./reports`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if base == "" || head == "" {
				return fmt.Errorf("--base and --head are required")
			}
			snap, err := app.LoadSnapshot()
			if err != nil {
				return err
			}
			bd, err := evaluateFile(app, snap, base, defaults)
			if err != nil {
				return fmt.Errorf("base: %w", err)
			}
			hd, err := evaluateFile(app, snap, head, defaults)
			if err != nil {
				return fmt.Errorf("head: %w", err)
			}

			if outDir == "" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				enc.SetEscapeHTML(false)
				return enc.Encode(reporting.Diff(&bd, &hd))
			}
			path, err := reporting.WriteDiffJSON(stem(base), stem(head), outDir, &bd, &hd)
			if err != nil {
				return fmt.Errorf("writing diff: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Diff OK\n  %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&base, "base", "", "Base facts file")
	cmd.Flags().StringVar(&head, "head", "", "Head facts file")
	cmd.Flags().StringVar(&outDir, "out", "", "Write diff_<base>__<head>.json here instead of stdout")
	cmd.Flags().BoolVar(&defaults, "defaults", true, "Include every form question, unanswered ones as empty")
	return cmd
}

func evaluateFile(app *App, snap *dictamen.Snapshot, path string, defaults bool) (ir.Dictamen, error) {
	opts := factOptions{file: path, defaults: defaults}
	fs, err := opts.collect(app)
	if err != nil {
		return ir.Dictamen{}, err
	}
	return dictamen.Generate(snap, fs)
}

func stem(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
