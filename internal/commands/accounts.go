package commands

import (
	"fmt"
	"time"

	"github.com/SscSPs/ledger_core/internal/platform/config"
	"github.com/SscSPs/ledger_core/internal/repositories/database/memory"
	"github.com/SscSPs/ledger_core/internal/repositories/database/pgsql"
	"github.com/SscSPs/ledger_core/pkg/database"
	"github.com/spf13/cobra"
)

const seedActor = "ledgerctl"

func newAccountsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account registry tools",
	}

	var file string
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert accounts from a JSON file into the PostgreSQL registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts, err := memory.ReadSeedAccounts(file, seedActor, time.Now().UTC())
			if err != nil {
				return err
			}

			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			pool, err := database.NewPgxPool(cmd.Context(), cfg.DatabaseURL, true)
			if err != nil {
				return err
			}
			defer database.ClosePgxPool(pool)

			repo := pgsql.NewRepositoryProvider(pool).AccountRepo
			for _, acc := range accounts {
				if err := repo.SaveAccount(cmd.Context(), acc); err != nil {
					return fmt.Errorf("seeding account %s: %w", acc.AccountID, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %s (%s %s)\n", acc.AccountID, acc.Code, acc.AccountType)
			}
			return nil
		},
	}
	seedCmd.Flags().StringVar(&file, "file", "", "JSON array of accounts (required)")
	_ = seedCmd.MarkFlagRequired("file")

	cmd.AddCommand(seedCmd)
	return cmd
}
