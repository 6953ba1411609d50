package services

import (
	"context"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/dto"
)

// JournalReaderSvc defines read operations for journal data
type JournalReaderSvc interface {
	// GetEntryByID retrieves a specific entry by its ID.
	GetEntryByID(ctx context.Context, actor domain.Actor, entryID string) (*domain.JournalEntry, error)

	// ListEntries retrieves a page of entries, newest first.
	ListEntries(ctx context.Context, actor domain.Actor, params dto.ListJournalEntriesParams) (*dto.ListJournalEntriesResponse, error)
}

// JournalWriterSvc defines the lifecycle operations of journal entries
type JournalWriterSvc interface {
	// CreateDraftEntry validates and stores a new Draft entry.
	CreateDraftEntry(ctx context.Context, actor domain.Actor, req dto.CreateJournalEntryRequest) (*domain.JournalEntry, error)

	// UpdateDraftEntry replaces a Draft's header and lines.
	UpdateDraftEntry(ctx context.Context, actor domain.Actor, entryID string, req dto.UpdateJournalEntryRequest) (*domain.JournalEntry, error)

	// DeleteDraftEntry removes a Draft entry. Any other status is an InvalidStateError.
	DeleteDraftEntry(ctx context.Context, actor domain.Actor, entryID string) error

	// PostEntry validates a Draft, marks it Posted and applies its balance deltas atomically.
	PostEntry(ctx context.Context, actor domain.Actor, entryID string) (*domain.JournalEntry, error)

	// ReverseEntry voids a Posted entry and creates its posted reversal atomically.
	ReverseEntry(ctx context.Context, actor domain.Actor, entryID string, reason string) (*domain.JournalEntry, error)
}

// JournalSvcFacade combines all journal-related service interfaces
// This is a facade for clients that need access to all operations
type JournalSvcFacade interface {
	JournalReaderSvc
	JournalWriterSvc
}
