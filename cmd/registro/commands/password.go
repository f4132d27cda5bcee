package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lauolme/registro-app/internal/security"
)

func NewHashPasswordCmd() *cobra.Command {
	var generate bool
	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Print a bcrypt hash for api.admin_pass_hash",
		Long: `Read a password from the first line of stdin and print its bcrypt hash,
ready for api.admin_pass_hash or REGISTRO_ADMIN_PASS_HASH. With --generate a
random password is created and printed on the first line.`,
		Example: `  echo -n 's3creto' | registro hash-password
  registro hash-password --generate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var pw string
			if generate {
				tok, err := security.NewToken(18)
				if err != nil {
					return fmt.Errorf("generating password: %w", err)
				}
				pw = tok
				fmt.Fprintln(cmd.OutOrStdout(), pw)
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("reading stdin: no password given")
				}
				pw = strings.TrimRight(line, "\r\n")
			}
			hash, err := security.HashPassword(pw)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().BoolVar(&generate, "generate", false, "Generate a random password")
	return cmd
}
