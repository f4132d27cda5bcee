package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lauolme/registro-app/internal/integrity"
)

func NewDigestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "digest <file>",
		Short: "Print the SHA-256 fingerprint of a dictamen file",
		Long: `Print the SHA-256 fingerprint of a dictamen file in sha256sum format.
The digest covers the exact bytes of the file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", integrity.Digest(string(b)), args[0])
			return nil
		},
	}
}

func NewVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file> <sha256>",
		Short: "Check a dictamen file against its fingerprint",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading file: %w", err)
			}
			if !integrity.Verify(string(b), args[1]) {
				return fmt.Errorf("%s: digest mismatch (got %s)", args[0], integrity.Digest(string(b)))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: OK\n", args[0])
			return nil
		},
	}
}
