package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestStatementParse(t *testing.T) {
	path := writeFile(t, "may.csv", "Date,Details,Deposit,Withdrawal\n2024-05-10,Customer payment,100.00,\n2024-05-11,Broken,,abc\n")

	out, err := run(t, "statement", "parse", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 rows failed")
	var result parseResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, "Customer payment", result.Transactions[0].Description)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Equal(t, "debit", result.Errors[0].Field)
}

func TestStatementParse_MissingFile(t *testing.T) {
	_, err := run(t, "statement", "parse", filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestMatch(t *testing.T) {
	bank := writeFile(t, "bank.csv", "date,description,credit,debit\n2024-05-10,Deposit,100,\n2024-05-12,Card fee,,7.50\n2024-05-20,Unknown,55,\n")
	ledger := writeFile(t, "ledger.csv", "date,description,debit,credit\n2024-05-11,Cash sale,100,\n2024-05-09,Fees,,7.50\n")

	out, err := run(t, "match", "--bank", bank, "--ledger", ledger)

	require.NoError(t, err)
	var result matchResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 3, result.WindowDays)
	require.Len(t, result.Proposals, 2)
	assert.Equal(t, "bank-1", result.Proposals[0].BankTransactionID)
	assert.Equal(t, "ledger-1", result.Proposals[0].LedgerTransactionID)
	assert.Equal(t, 1, result.Proposals[0].DateDiffDays)
	assert.Equal(t, "ledger-2", result.Proposals[1].LedgerTransactionID)
	assert.Equal(t, 1, result.Unmatched)
}

func TestMatch_NarrowWindow(t *testing.T) {
	bank := writeFile(t, "bank.csv", "date,credit\n2024-05-10,100\n")
	ledger := writeFile(t, "ledger.csv", "date,debit\n2024-05-12,100\n")

	out, err := run(t, "match", "--bank", bank, "--ledger", ledger, "--window", "1")

	require.NoError(t, err)
	var result matchResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Empty(t, result.Proposals)
	assert.Equal(t, 1, result.Unmatched)
}

func TestMatch_RequiresFlags(t *testing.T) {
	_, err := run(t, "match", "--bank", "bank.csv")
	assert.Error(t, err)
}

func TestToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("IS_PRODUCTION", "false")

	out, err := run(t, "token", "--user", "ops-1", "--role", "admin")

	require.NoError(t, err)
	claims, err := utils.ParseAndValidateJWT(strings.TrimSpace(out), "cli-secret")
	require.NoError(t, err)
	assert.Equal(t, "ops-1", claims.Subject)
	assert.Equal(t, string(domain.RoleAdmin), claims.Role)
}

func TestToken_UnknownRole(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")

	_, err := run(t, "token", "--user", "ops-1", "--role", "auditor")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")
}
