package mapping

import (
	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/models"
)

// ToModelReconciliationSession converts a domain session header to a model ReconciliationSession
func ToModelReconciliationSession(d domain.ReconciliationSession) models.ReconciliationSession {
	return models.ReconciliationSession{
		SessionID:      d.SessionID,
		AccountID:      d.AccountID,
		StatementDate:  d.StatementDate,
		OpeningBalance: d.OpeningBalance,
		ClosingBalance: d.ClosingBalance,
		Status:         string(d.Status),
		CompletedAt:    d.CompletedAt,
		Version:        d.Version,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainReconciliationSession converts a model session to a domain session without transactions
func ToDomainReconciliationSession(m models.ReconciliationSession) domain.ReconciliationSession {
	return domain.ReconciliationSession{
		SessionID:      m.SessionID,
		AccountID:      m.AccountID,
		StatementDate:  m.StatementDate,
		OpeningBalance: m.OpeningBalance,
		ClosingBalance: m.ClosingBalance,
		Status:         domain.SessionStatus(m.Status),
		CompletedAt:    m.CompletedAt,
		Version:        m.Version,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelBankTransaction converts a domain BankTransaction at the given statement position
func ToModelBankTransaction(d domain.BankTransaction, position int) models.BankTransaction {
	return models.BankTransaction{
		BankTransactionID:          d.BankTransactionID,
		SessionID:                  d.SessionID,
		Position:                   position,
		RowNo:                      d.RowNo,
		TxnDate:                    d.Date,
		Description:                d.Description,
		Reference:                  d.Reference,
		DebitAmount:                d.DebitAmount,
		CreditAmount:               d.CreditAmount,
		RunningBalance:             d.RunningBalance,
		Status:                     string(d.Status),
		MatchedLedgerTransactionID: d.MatchedLedgerTransactionID,
		MatchGroupID:               d.MatchGroupID,
	}
}

// ToDomainBankTransaction converts a model BankTransaction to a domain BankTransaction
func ToDomainBankTransaction(m models.BankTransaction) domain.BankTransaction {
	return domain.BankTransaction{
		BankTransactionID:          m.BankTransactionID,
		SessionID:                  m.SessionID,
		RowNo:                      m.RowNo,
		Date:                       m.TxnDate,
		Description:                m.Description,
		Reference:                  m.Reference,
		DebitAmount:                m.DebitAmount,
		CreditAmount:               m.CreditAmount,
		RunningBalance:             m.RunningBalance,
		Status:                     domain.ReconciliationStatus(m.Status),
		MatchedLedgerTransactionID: m.MatchedLedgerTransactionID,
		MatchGroupID:               m.MatchGroupID,
	}
}

// ToModelLedgerItem converts a domain LedgerTransaction into its session item row
func ToModelLedgerItem(sessionID string, d domain.LedgerTransaction, position int) models.ReconciliationLedgerItem {
	return models.ReconciliationLedgerItem{
		SessionID:    sessionID,
		LineID:       d.LedgerTransactionID,
		Position:     position,
		Status:       string(d.Status),
		MatchGroupID: d.MatchGroupID,
	}
}

// ToDomainLedgerTransaction builds the reconciliation view of a journal line
func ToDomainLedgerTransaction(entry models.JournalEntry, line models.JournalLine) domain.LedgerTransaction {
	description := line.Memo
	if description == "" {
		description = entry.Description
	}
	return domain.LedgerTransaction{
		LedgerTransactionID: line.LineID,
		EntryID:             entry.EntryID,
		Date:                entry.EntryDate,
		Reference:           entry.Reference,
		Description:         description,
		DebitAmount:         line.DebitAmount,
		CreditAmount:        line.CreditAmount,
		Status:              domain.Unreconciled,
	}
}
