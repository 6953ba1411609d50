package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
)

// ListEntriesFilter narrows and pages a journal listing.
type ListEntriesFilter struct {
	Status    *domain.JournalStatus
	From      *time.Time
	To        *time.Time
	Limit     int
	NextToken *string
}

// JournalReader defines read operations for journal data
type JournalReader interface {
	// FindEntryByID retrieves an entry with its lines in line order.
	FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// ListEntries returns entries newest first and a token for the next page, if any.
	ListEntries(ctx context.Context, filter ListEntriesFilter) ([]domain.JournalEntry, *string, error)
}

// JournalWriter defines write operations for journal data.
// PostEntry and SaveReversal are atomic: the status change and every balance delta are
// applied together or not at all, with account rows locked in account id order.
type JournalWriter interface {
	// SaveDraft persists a new Draft entry. A duplicate reference returns ErrDuplicate.
	SaveDraft(ctx context.Context, entry domain.JournalEntry) error

	// UpdateDraft replaces a Draft's header and lines if the stored version matches.
	UpdateDraft(ctx context.Context, entry domain.JournalEntry, expectedVersion int64) error

	// DeleteDraft removes a Draft entry if the stored version matches.
	DeleteDraft(ctx context.Context, entryID string, expectedVersion int64) error

	// PostEntry moves a Draft to Posted and applies the balance deltas.
	// A concurrent post of the same entry returns *apperrors.AlreadyPostedError.
	PostEntry(ctx context.Context, posting domain.Posting) error

	// SaveReversal voids the source entry, stores the posted reversal and applies its deltas.
	SaveReversal(ctx context.Context, reversal domain.Reversal) error
}

// LedgerLineReader exposes posted journal lines to reconciliation.
type LedgerLineReader interface {
	// ListUnreconciledLines returns lines of Posted entries on the account dated on or
	// before through that no completed reconciliation has claimed, ordered by date then entry.
	ListUnreconciledLines(ctx context.Context, accountID string, through time.Time) ([]domain.LedgerTransaction, error)
}

// JournalRepositoryFacade combines all journal-related repository interfaces
// This is a facade for clients that need access to all operations
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
	LedgerLineReader
}
