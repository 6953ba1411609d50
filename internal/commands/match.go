package commands

import (
	"fmt"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/utils/matching"
	"github.com/spf13/cobra"
)

type matchResult struct {
	WindowDays int                    `json:"windowDays"`
	Proposals  []domain.MatchProposal `json:"proposals"`
	Unmatched  int                    `json:"unmatchedBank"`
}

func newMatchCommand() *cobra.Command {
	var bankPath string
	var ledgerPath string
	var windowDays int

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Run the auto-matcher offline over a bank CSV and a ledger CSV",
		Long: "Both files use the statement CSV layout. Bank rows are numbered bank-N and ledger rows\n" +
			"ledger-N in file order; a ledger debit pairs with a bank credit of the same amount.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bank, bankErrs, err := loadStatement(bankPath, numberedIDs("bank"))
			if err != nil {
				return err
			}
			ledgerRows, ledgerErrs, err := loadStatement(ledgerPath, numberedIDs("ledger"))
			if err != nil {
				return err
			}
			if len(bankErrs) > 0 || len(ledgerErrs) > 0 {
				return fmt.Errorf("input has invalid rows (bank: %d, ledger: %d), run statement parse for details",
					rowErrorCount(bankErrs), rowErrorCount(ledgerErrs))
			}

			matcher := matching.NewMatcher(matching.WithWindowDays(windowDays))
			proposals := matcher.Match(bank, toLedgerTransactions(ledgerRows))

			return writeJSON(cmd.OutOrStdout(), matchResult{
				WindowDays: matcher.WindowDays(),
				Proposals:  proposals,
				Unmatched:  len(bank) - len(proposals),
			})
		},
	}

	cmd.Flags().StringVar(&bankPath, "bank", "", "bank statement CSV (required)")
	_ = cmd.MarkFlagRequired("bank")
	cmd.Flags().StringVar(&ledgerPath, "ledger", "", "ledger lines CSV (required)")
	_ = cmd.MarkFlagRequired("ledger")
	cmd.Flags().IntVar(&windowDays, "window", matching.DefaultWindowDays, "match window in days")

	return cmd
}

func numberedIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func toLedgerTransactions(rows []domain.BankTransaction) []domain.LedgerTransaction {
	ledger := make([]domain.LedgerTransaction, 0, len(rows))
	for _, r := range rows {
		ledger = append(ledger, domain.LedgerTransaction{
			LedgerTransactionID: r.BankTransactionID,
			Date:                r.Date,
			Reference:           r.Reference,
			Description:         r.Description,
			DebitAmount:         r.DebitAmount,
			CreditAmount:        r.CreditAmount,
			Status:              domain.Unreconciled,
		})
	}
	return ledger
}
