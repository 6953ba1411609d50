package dto

import (
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of entry and statement dates.
const DateLayout = "2006-01-02"

// JournalLineRequest is one line of a create or update request.
// Blank accounts and zero amounts are reported by the ledger validator, not by binding.
type JournalLineRequest struct {
	AccountID    string          `json:"accountID"`
	DebitAmount  decimal.Decimal `json:"debitAmount"`
	CreditAmount decimal.Decimal `json:"creditAmount"`
	Memo         string          `json:"memo" binding:"max=512"`
}

// CreateJournalEntryRequest defines the data needed to create a Draft entry.
type CreateJournalEntryRequest struct {
	Reference   string               `json:"reference" binding:"max=64"`
	EntryDate   string               `json:"entryDate" binding:"omitempty,datetime=2006-01-02"`
	Description string               `json:"description" binding:"max=1024"`
	Lines       []JournalLineRequest `json:"lines" binding:"dive"`
}

// UpdateJournalEntryRequest replaces a Draft's header and lines.
// Version must be the version last read by the client.
type UpdateJournalEntryRequest struct {
	CreateJournalEntryRequest
	Version int64 `json:"version" binding:"required,min=1"`
}

// ReverseJournalEntryRequest carries the reason recorded on the voided entry.
type ReverseJournalEntryRequest struct {
	Reason string `json:"reason" binding:"max=512"`
}

// ListJournalEntriesParams are the query parameters of a journal listing.
type ListJournalEntriesParams struct {
	Status    string  `form:"status" binding:"omitempty,oneof=DRAFT POSTED VOID"`
	From      string  `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To        string  `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Limit     int     `form:"limit" binding:"omitempty,min=1,max=100"`
	NextToken *string `form:"nextToken"`
}

// ParseDate parses a wire date. A blank or malformed value yields the zero time,
// which the ledger validator reports as a missing date.
func ParseDate(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ToDomainLines converts request lines into journal lines numbered from 1.
func ToDomainLines(lines []JournalLineRequest) []domain.JournalLine {
	out := make([]domain.JournalLine, len(lines))
	for i, l := range lines {
		out[i] = domain.JournalLine{
			LineNo:       i + 1,
			AccountID:    l.AccountID,
			DebitAmount:  l.DebitAmount,
			CreditAmount: l.CreditAmount,
			Memo:         l.Memo,
		}
	}
	return out
}

// JournalLineResponse defines the data returned for a journal line.
type JournalLineResponse struct {
	LineID       string          `json:"lineID"`
	LineNo       int             `json:"lineNo"`
	AccountID    string          `json:"accountID"`
	DebitAmount  decimal.Decimal `json:"debitAmount"`
	CreditAmount decimal.Decimal `json:"creditAmount"`
	Memo         string          `json:"memo"`
}

// JournalEntryResponse defines the data returned for a journal entry.
type JournalEntryResponse struct {
	EntryID       string                `json:"entryID"`
	Reference     string                `json:"reference"`
	EntryDate     string                `json:"entryDate"`
	Description   string                `json:"description"`
	Status        domain.JournalStatus  `json:"status"`
	Lines         []JournalLineResponse `json:"lines"`
	TotalDebits   decimal.Decimal       `json:"totalDebits"`
	TotalCredits  decimal.Decimal       `json:"totalCredits"`
	PostedBy      *string               `json:"postedBy,omitempty"`
	PostedAt      *time.Time            `json:"postedAt,omitempty"`
	VoidReason    *string               `json:"voidReason,omitempty"`
	ReversalOfID  *string               `json:"reversalOfID,omitempty"`
	ReversedByID  *string               `json:"reversedByID,omitempty"`
	Version       int64                 `json:"version"`
	CreatedAt     time.Time             `json:"createdAt"`
	CreatedBy     string                `json:"createdBy"`
	LastUpdatedAt time.Time             `json:"lastUpdatedAt"`
	LastUpdatedBy string                `json:"lastUpdatedBy"`
}

// ListJournalEntriesResponse is one page of entries.
type ListJournalEntriesResponse struct {
	Entries   []JournalEntryResponse `json:"entries"`
	NextToken *string                `json:"nextToken,omitempty"`
}

// ToJournalEntryResponse converts a domain.JournalEntry to JournalEntryResponse DTO.
func ToJournalEntryResponse(e *domain.JournalEntry) JournalEntryResponse {
	lines := make([]JournalLineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = JournalLineResponse{
			LineID:       l.LineID,
			LineNo:       l.LineNo,
			AccountID:    l.AccountID,
			DebitAmount:  l.DebitAmount,
			CreditAmount: l.CreditAmount,
			Memo:         l.Memo,
		}
	}
	debits, credits := e.Totals()
	var date string
	if !e.EntryDate.IsZero() {
		date = e.EntryDate.Format(DateLayout)
	}
	return JournalEntryResponse{
		EntryID:       e.EntryID,
		Reference:     e.Reference,
		EntryDate:     date,
		Description:   e.Description,
		Status:        e.Status,
		Lines:         lines,
		TotalDebits:   debits,
		TotalCredits:  credits,
		PostedBy:      e.PostedBy,
		PostedAt:      e.PostedAt,
		VoidReason:    e.VoidReason,
		ReversalOfID:  e.ReversalOfID,
		ReversedByID:  e.ReversedByID,
		Version:       e.Version,
		CreatedAt:     e.CreatedAt,
		CreatedBy:     e.CreatedBy,
		LastUpdatedAt: e.LastUpdatedAt,
		LastUpdatedBy: e.LastUpdatedBy,
	}
}

// ToJournalEntryResponses converts a slice of domain.JournalEntry to []JournalEntryResponse.
func ToJournalEntryResponses(entries []domain.JournalEntry) []JournalEntryResponse {
	responses := make([]JournalEntryResponse, len(entries))
	for i := range entries {
		responses[i] = ToJournalEntryResponse(&entries[i])
	}
	return responses
}
