package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/utils/statement"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type parseResult struct {
	Transactions []domain.BankTransaction `json:"transactions"`
	Errors       []apperrors.RowError     `json:"errors,omitempty"`
}

func newStatementCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "statement",
		Short: "Bank statement tools",
	}

	parseCmd := &cobra.Command{
		Use:   "parse <file.csv>",
		Short: "Parse a statement CSV and report row errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txns, rowErrs, err := loadStatement(args[0], uuid.NewString)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), parseResult{Transactions: txns, Errors: rowErrs}); err != nil {
				return err
			}
			if len(rowErrs) > 0 {
				return fmt.Errorf("%d of %d rows failed", rowErrorCount(rowErrs), len(txns)+rowErrorCount(rowErrs))
			}
			return nil
		},
	}

	cmd.AddCommand(parseCmd)
	return cmd
}

// loadStatement reads and converts a CSV file. Row failures are returned alongside the
// valid transactions; any other failure is returned as err.
func loadStatement(path string, newID func() string) ([]domain.BankTransaction, []apperrors.RowError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening statement: %w", err)
	}
	defer f.Close()

	rows, lineErrors, err := statement.ReadCSV(f)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}

	txns, err := statement.NewImporter(newID).Convert(rows)
	err = statement.JoinRowErrors(err, lineErrors)
	var importErr *apperrors.ImportError
	switch {
	case errors.As(err, &importErr):
		return txns, importErr.Rows, nil
	case err != nil:
		return nil, nil, err
	}
	return txns, nil, nil
}

// rowErrorCount counts distinct failing rows; one row can report several fields.
func rowErrorCount(rowErrs []apperrors.RowError) int {
	rows := make(map[int]struct{}, len(rowErrs))
	for _, re := range rowErrs {
		rows[re.Row] = struct{}{}
	}
	return len(rows)
}
