package statement_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/utils/statement"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("bt-%d", n)
	}
}

func TestReadCSV(t *testing.T) {
	input := "Date,Description,Ref,Withdrawal,Deposit,Balance,Extra\n" +
		"2026-01-10,Customer payment,INV-1,,500.00,1500.00,x\n" +
		",,,,,,\n" +
		"01/12/2026,Bank fee,,12.50,,1487.50,y\n"

	rows, lineErrors, err := statement.ReadCSV(strings.NewReader(input))

	require.NoError(t, err)
	assert.Empty(t, lineErrors)
	require.Len(t, rows, 2)
	assert.Equal(t, statement.RawRow{Line: 2, Date: "2026-01-10", Description: "Customer payment", Reference: "INV-1", Credit: "500.00", Balance: "1500.00"}, rows[0])
	assert.Equal(t, "12.50", rows[1].Debit)
	assert.Equal(t, "01/12/2026", rows[1].Date)
	assert.Equal(t, 4, rows[1].Line, "blank lines still count towards the line number")
}

func TestReadCSV_MissingDateColumn(t *testing.T) {
	_, _, err := statement.ReadCSV(strings.NewReader("description,debit\nfee,1\n"))
	assert.Error(t, err)

	_, _, err = statement.ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestReadCSV_MalformedLineDoesNotStopTheRead(t *testing.T) {
	input := "date,description,credit\n" +
		"2026-01-10,Customer payment,100\n" +
		"2026-01-11,\"broken \"quote,5\n" +
		"2026-01-12,Refund,40\n"

	rows, lineErrors, err := statement.ReadCSV(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "Refund", rows[1].Description)
	assert.Equal(t, 4, rows[1].Line)
	require.Len(t, lineErrors, 1)
	assert.Equal(t, 3, lineErrors[0].Row)

	txns, convertErr := statement.NewImporter(sequentialIDs()).Convert(rows)
	err = statement.JoinRowErrors(convertErr, lineErrors)

	require.Len(t, txns, 2)
	assert.Equal(t, 4, txns[1].RowNo)
	var importErr *apperrors.ImportError
	require.True(t, errors.As(err, &importErr))
	require.Len(t, importErr.Rows, 1)
	assert.Equal(t, 3, importErr.Rows[0].Row)
}

func TestJoinRowErrors(t *testing.T) {
	assert.NoError(t, statement.JoinRowErrors(nil, nil))

	convertErr := &apperrors.ImportError{Rows: []apperrors.RowError{{Row: 5, Field: "date", Message: "is required"}}}
	err := statement.JoinRowErrors(convertErr, []apperrors.RowError{{Row: 2, Message: "bad quote"}})

	var importErr *apperrors.ImportError
	require.True(t, errors.As(err, &importErr))
	require.Len(t, importErr.Rows, 2)
	assert.Equal(t, 2, importErr.Rows[0].Row)
	assert.Equal(t, 5, importErr.Rows[1].Row)
}

func TestConvert_RejectsAmountsBeyondStoredScale(t *testing.T) {
	im := statement.NewImporter(sequentialIDs())

	txns, err := im.Convert([]statement.RawRow{
		{Date: "2026-01-10", Credit: "500.00005"},
		{Date: "2026-01-10", Credit: "500.0001", Balance: "1.123456"},
		{Date: "2026-01-10", Credit: "500.50000"},
	})

	var importErr *apperrors.ImportError
	require.True(t, errors.As(err, &importErr))
	require.Len(t, importErr.Rows, 2)
	assert.Equal(t, apperrors.RowError{Row: 1, Field: "credit", Message: `amount "500.00005" has more than 4 decimal places`}, importErr.Rows[0])
	assert.Equal(t, 2, importErr.Rows[1].Row)
	assert.Equal(t, "balance", importErr.Rows[1].Field)
	require.Len(t, txns, 1)
	assert.True(t, txns[0].CreditAmount.Equal(decimal.RequireFromString("500.5")))
}

func TestConvert_ValidRows(t *testing.T) {
	im := statement.NewImporter(sequentialIDs())

	txns, err := im.Convert([]statement.RawRow{
		{Date: "2026-01-10", Description: "Customer payment", Credit: "500.00", Balance: "1500.00"},
		{Date: "01/12/2026", Description: "Bank fee", Debit: " 1,012.50 "},
	})

	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "bt-1", txns[0].BankTransactionID)
	assert.Equal(t, 1, txns[0].RowNo)
	assert.Equal(t, domain.Unreconciled, txns[0].Status)
	assert.True(t, txns[0].CreditAmount.Equal(decimal.RequireFromString("500")))
	assert.True(t, txns[0].RunningBalance.Valid)
	assert.Equal(t, 12, txns[1].Date.Day())
	assert.True(t, txns[1].DebitAmount.Equal(decimal.RequireFromString("1012.5")))
	assert.False(t, txns[1].RunningBalance.Valid)
}

func TestConvert_ReportsRowErrors(t *testing.T) {
	im := statement.NewImporter(sequentialIDs())

	txns, err := im.Convert([]statement.RawRow{
		{Date: "2026-01-10", Credit: "10"},
		{Date: "", Credit: "10"},
		{Date: "2026-13-45", Credit: "abc"},
		{Date: "2026-01-11", Debit: "5", Credit: "5"},
		{Date: "2026-01-11"},
		{Date: "2026-01-11", Debit: "-5"},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrImport))
	require.Len(t, txns, 1)
	assert.Equal(t, 1, txns[0].RowNo)

	var importErr *apperrors.ImportError
	require.True(t, errors.As(err, &importErr))
	rowsWithErrors := map[int]bool{}
	for _, re := range importErr.Rows {
		rowsWithErrors[re.Row] = true
	}
	assert.Equal(t, map[int]bool{2: true, 3: true, 4: true, 5: true, 6: true}, rowsWithErrors)

	var dateRequired bool
	for _, re := range importErr.Rows {
		if re.Row == 2 && re.Field == "date" {
			dateRequired = true
		}
	}
	assert.True(t, dateRequired, "missing date should be reported against the json field name")
}

func TestParseDate(t *testing.T) {
	d, err := statement.ParseDate("2026-02-03")
	require.NoError(t, err)
	assert.Equal(t, 3, d.Day())

	_, err = statement.ParseDate("3rd Feb")
	assert.Error(t, err)
}
