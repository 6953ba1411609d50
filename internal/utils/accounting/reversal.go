package accounting

import (
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
)

// ReversalReferenceSuffix is appended to the source reference to form the reversal reference.
const ReversalReferenceSuffix = "-REV"

// ReversalReference returns the reference used for the reversal of an entry.
func ReversalReference(sourceReference string) string {
	return sourceReference + ReversalReferenceSuffix
}

// IDGenerator supplies new identifiers for generated entries and lines.
type IDGenerator func() string

// BuildReversal derives the reversal of a Posted entry: every line copied with debit and
// credit swapped, created directly in Posted status and linked back to the source.
// The returned Reversal also carries the voided source id and the balance deltas to apply.
func BuildReversal(source domain.JournalEntry, accounts map[string]domain.Account, reason string, actorID string, at time.Time, newID IDGenerator) (*domain.Reversal, error) {
	if source.Status != domain.Posted {
		return nil, &apperrors.InvalidStateError{Entity: "journal entry", ID: source.EntryID, State: string(source.Status), Operation: "reverse"}
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError(apperrors.Violation{Field: "reason", Rule: "reason_required", Message: "a reversal reason is required"})
	}

	entryID := newID()
	lines := make([]domain.JournalLine, len(source.Lines))
	for i, l := range source.Lines {
		swapped := l.Swapped()
		swapped.LineID = newID()
		swapped.EntryID = entryID
		swapped.LineNo = i + 1
		lines[i] = swapped
	}

	sourceID := source.EntryID
	postedBy := actorID
	postedAt := at
	reversal := domain.JournalEntry{
		EntryID:      entryID,
		Reference:    ReversalReference(source.Reference),
		EntryDate:    at,
		Description:  fmt.Sprintf("Reversal of %s: %s", source.Reference, reason),
		Lines:        lines,
		Status:       domain.Posted,
		PostedBy:     &postedBy,
		PostedAt:     &postedAt,
		ReversalOfID: &sourceID,
		Version:      1,
		AuditFields:  domain.NewAuditFields(actorID, at),
	}

	// Only fails when the stored source is itself corrupt.
	if err := ValidateEntry(reversal); err != nil {
		return nil, fmt.Errorf("reversal of %s failed validation: %w", source.EntryID, err)
	}
	deltas, err := CalculateBalanceDeltas(reversal.Lines, accounts)
	if err != nil {
		return nil, err
	}

	return &domain.Reversal{
		SourceEntryID: source.EntryID,
		VoidReason:    reason,
		Entry:         reversal,
		Deltas:        deltas,
		ActorID:       actorID,
		At:            at,
	}, nil
}
