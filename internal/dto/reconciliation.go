package dto

import (
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/utils/statement"
	"github.com/shopspring/decimal"
)

// StartReconciliationRequest opens a session for one account and statement.
type StartReconciliationRequest struct {
	AccountID      string          `json:"accountID" binding:"required"`
	StatementDate  string          `json:"statementDate" binding:"required,datetime=2006-01-02"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	ClosingBalance decimal.Decimal `json:"closingBalance"`
}

// ImportStatementRequest carries raw statement rows as JSON.
type ImportStatementRequest struct {
	Rows []statement.RawRow `json:"rows" binding:"required,min=1"`
}

// ImportStatementResponse lists the imported transactions and any rejected rows.
type ImportStatementResponse struct {
	Imported []domain.BankTransaction `json:"imported"`
	Errors   []apperrors.RowError     `json:"errors,omitempty"`
}

// AutoMatchResponse lists the proposals and whether they were confirmed.
type AutoMatchResponse struct {
	Proposals []domain.MatchProposal `json:"proposals"`
	Applied   bool                   `json:"applied"`
}

// ConfirmMatchRequest selects the transactions to match as one group.
type ConfirmMatchRequest struct {
	BankTransactionIDs   []string `json:"bankTransactionIDs" binding:"required,min=1"`
	LedgerTransactionIDs []string `json:"ledgerTransactionIDs" binding:"required,min=1"`
}

// ConfirmMatchResponse returns the id of the new match group.
type ConfirmMatchResponse struct {
	MatchGroupID string `json:"matchGroupID"`
}

// CompleteReconciliationRequest controls whether unreconciled items block completion.
type CompleteReconciliationRequest struct {
	Force bool `json:"force"`
}

// ReconciliationResponse defines the data returned for a session.
type ReconciliationResponse struct {
	SessionID          string                     `json:"sessionID"`
	AccountID          string                     `json:"accountID"`
	StatementDate      string                     `json:"statementDate"`
	OpeningBalance     decimal.Decimal            `json:"openingBalance"`
	ClosingBalance     decimal.Decimal            `json:"closingBalance"`
	Status             domain.SessionStatus       `json:"status"`
	CompletedAt        *time.Time                 `json:"completedAt,omitempty"`
	BankTransactions   []domain.BankTransaction   `json:"bankTransactions"`
	LedgerTransactions []domain.LedgerTransaction `json:"ledgerTransactions"`
	Summary            domain.SessionSummary      `json:"summary"`
	Version            int64                      `json:"version"`
	CreatedAt          time.Time                  `json:"createdAt"`
	CreatedBy          string                     `json:"createdBy"`
}

// ToReconciliationResponse converts a domain.ReconciliationSession to ReconciliationResponse DTO.
func ToReconciliationResponse(s *domain.ReconciliationSession) ReconciliationResponse {
	bank := s.BankTransactions
	if bank == nil {
		bank = []domain.BankTransaction{}
	}
	ledger := s.LedgerTransactions
	if ledger == nil {
		ledger = []domain.LedgerTransaction{}
	}
	return ReconciliationResponse{
		SessionID:          s.SessionID,
		AccountID:          s.AccountID,
		StatementDate:      s.StatementDate.Format(DateLayout),
		OpeningBalance:     s.OpeningBalance,
		ClosingBalance:     s.ClosingBalance,
		Status:             s.Status,
		CompletedAt:        s.CompletedAt,
		BankTransactions:   bank,
		LedgerTransactions: ledger,
		Summary:            s.Summary(),
		Version:            s.Version,
		CreatedAt:          s.CreatedAt,
		CreatedBy:          s.CreatedBy,
	}
}
