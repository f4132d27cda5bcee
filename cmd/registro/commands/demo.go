package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lauolme/registro-app/internal/cases"
)

func NewDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "List the demo cases and the case form",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Preguntas:")
			for _, f := range cases.Schema() {
				fmt.Fprintf(out, "  %s  %s\n", f.Key, f.Question)
			}
			fmt.Fprintln(out, "\nCasos demo (registro evaluate --demo <id>):")
			for _, d := range cases.Demos() {
				fmt.Fprintf(out, "  %-18s %s\n", d.ID, d.Name)
				for _, f := range d.FactSet() {
					fmt.Fprintf(out, "  %-18s   %s: %s\n", "", f.Key, f.Value)
				}
			}
		},
	}
}
