package mapping

import (
	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/models"
)

// ToModelJournalEntry converts a domain JournalEntry header to a model JournalEntry
func ToModelJournalEntry(d domain.JournalEntry) models.JournalEntry {
	return models.JournalEntry{
		EntryID:      d.EntryID,
		Reference:    d.Reference,
		EntryDate:    d.EntryDate,
		Description:  d.Description,
		Status:       string(d.Status),
		PostedBy:     d.PostedBy,
		PostedAt:     d.PostedAt,
		VoidReason:   d.VoidReason,
		ReversalOfID: d.ReversalOfID,
		ReversedByID: d.ReversedByID,
		Version:      d.Version,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainJournalEntry converts a model JournalEntry and its lines to a domain JournalEntry
func ToDomainJournalEntry(m models.JournalEntry, lines []models.JournalLine) domain.JournalEntry {
	return domain.JournalEntry{
		EntryID:      m.EntryID,
		Reference:    m.Reference,
		EntryDate:    m.EntryDate,
		Description:  m.Description,
		Lines:        ToDomainJournalLines(lines),
		Status:       domain.JournalStatus(m.Status),
		PostedBy:     m.PostedBy,
		PostedAt:     m.PostedAt,
		VoidReason:   m.VoidReason,
		ReversalOfID: m.ReversalOfID,
		ReversedByID: m.ReversedByID,
		Version:      m.Version,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelJournalLine converts a domain JournalLine to a model JournalLine
func ToModelJournalLine(d domain.JournalLine) models.JournalLine {
	return models.JournalLine{
		LineID:       d.LineID,
		EntryID:      d.EntryID,
		LineNo:       d.LineNo,
		AccountID:    d.AccountID,
		DebitAmount:  d.DebitAmount,
		CreditAmount: d.CreditAmount,
		Memo:         d.Memo,
	}
}

// ToDomainJournalLines converts model lines to domain lines, keeping their order
func ToDomainJournalLines(ms []models.JournalLine) []domain.JournalLine {
	out := make([]domain.JournalLine, len(ms))
	for i, m := range ms {
		out[i] = domain.JournalLine{
			LineID:       m.LineID,
			EntryID:      m.EntryID,
			LineNo:       m.LineNo,
			AccountID:    m.AccountID,
			DebitAmount:  m.DebitAmount,
			CreditAmount: m.CreditAmount,
			Memo:         m.Memo,
		}
	}
	return out
}
