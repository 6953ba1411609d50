// Package commands implements the ledgerctl operator CLI.
package commands

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operator tooling for the ledger core",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newStatementCommand())
	rootCmd.AddCommand(newMatchCommand())
	rootCmd.AddCommand(newTokenCommand())
	rootCmd.AddCommand(newAccountsCommand())

	return rootCmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
