package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_core/internal/utils/pagination"
)

// JournalRepository keeps journal entries and applies postings to account balances.
type JournalRepository struct {
	store *Store
}

var _ portsrepo.JournalRepositoryFacade = (*JournalRepository)(nil)

// SaveDraft persists a new Draft entry.
func (r *JournalRepository) SaveDraft(_ context.Context, entry domain.JournalEntry) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[entry.EntryID]; exists {
		return fmt.Errorf("%w: journal entry with ID %s already exists", apperrors.ErrDuplicate, entry.EntryID)
	}
	if err := s.claimReference(entry); err != nil {
		return err
	}
	s.putEntry(entry)
	return nil
}

// UpdateDraft replaces a Draft if it is still at expectedVersion.
func (r *JournalRepository) UpdateDraft(_ context.Context, entry domain.JournalEntry, expectedVersion int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.draftAt(entry.EntryID, expectedVersion, "update")
	if err != nil {
		return err
	}

	if entry.Reference != stored.Reference {
		if err := s.claimReference(entry); err != nil {
			return err
		}
		delete(s.references, stored.Reference)
	}
	s.dropLines(stored)
	s.putEntry(entry)
	return nil
}

// DeleteDraft removes a Draft if it is still at expectedVersion.
func (r *JournalRepository) DeleteDraft(_ context.Context, entryID string, expectedVersion int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.draftAt(entryID, expectedVersion, "delete")
	if err != nil {
		return err
	}
	delete(s.references, stored.Reference)
	s.dropLines(stored)
	delete(s.entries, entryID)
	return nil
}

// PostEntry moves a Draft to Posted and applies every balance delta under one lock.
func (r *JournalRepository) PostEntry(_ context.Context, posting domain.Posting) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[posting.EntryID]
	if !ok {
		return apperrors.NewNotFoundError("journal entry " + posting.EntryID)
	}
	switch entry.Status {
	case domain.Draft:
	case domain.Posted:
		return &apperrors.AlreadyPostedError{EntryID: posting.EntryID}
	default:
		return &apperrors.InvalidStateError{Entity: "journal entry", ID: posting.EntryID, State: string(entry.Status), Operation: "post"}
	}
	if entry.Version != posting.ExpectedVersion {
		return fmt.Errorf("%w: entry %s is at version %d, not %d", apperrors.ErrConflict, posting.EntryID, entry.Version, posting.ExpectedVersion)
	}
	if err := s.checkDeltaAccounts(posting.Deltas); err != nil {
		return err
	}

	postedBy := posting.PostedBy
	postedAt := posting.PostedAt
	entry.Status = domain.Posted
	entry.PostedBy = &postedBy
	entry.PostedAt = &postedAt
	entry.Version = posting.ExpectedVersion + 1
	entry.Touch(posting.PostedBy, posting.PostedAt)

	s.applyDeltas(posting.Deltas, posting.PostedBy, posting.PostedAt)
	s.entries[entry.EntryID] = entry
	return nil
}

// SaveReversal voids the source, stores the posted reversal and applies its deltas.
func (r *JournalRepository) SaveReversal(_ context.Context, reversal domain.Reversal) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	source, ok := s.entries[reversal.SourceEntryID]
	if !ok {
		return apperrors.NewNotFoundError("journal entry " + reversal.SourceEntryID)
	}
	if source.Status != domain.Posted || source.ReversedByID != nil {
		return &apperrors.InvalidStateError{Entity: "journal entry", ID: source.EntryID, State: string(source.Status), Operation: "reverse"}
	}
	if _, exists := s.entries[reversal.Entry.EntryID]; exists {
		return fmt.Errorf("%w: journal entry with ID %s already exists", apperrors.ErrDuplicate, reversal.Entry.EntryID)
	}
	if err := s.checkDeltaAccounts(reversal.Deltas); err != nil {
		return err
	}
	if err := s.claimReference(reversal.Entry); err != nil {
		return err
	}

	reason := reversal.VoidReason
	reversedBy := reversal.Entry.EntryID
	source.Status = domain.Void
	source.VoidReason = &reason
	source.ReversedByID = &reversedBy
	source.Version++
	source.Touch(reversal.ActorID, reversal.At)
	s.entries[source.EntryID] = source

	s.putEntry(reversal.Entry)
	s.applyDeltas(reversal.Deltas, reversal.ActorID, reversal.At)
	return nil
}

// FindEntryByID retrieves an entry with its lines.
func (r *JournalRepository) FindEntryByID(_ context.Context, entryID string) (*domain.JournalEntry, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[entryID]
	if !ok {
		return nil, apperrors.NewNotFoundError("journal entry " + entryID)
	}
	out := cloneEntry(entry)
	return &out, nil
}

// ListEntries returns a page of entries ordered by entry date, creation time and id, newest first.
func (r *JournalRepository) ListEntries(_ context.Context, filter portsrepo.ListEntriesFilter) ([]domain.JournalEntry, *string, error) {
	var cursor *pagination.Cursor
	if filter.NextToken != nil && *filter.NextToken != "" {
		c, err := pagination.DecodeToken(*filter.NextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		cursor = &c
	}

	s := r.store
	s.mu.RLock()
	matched := make([]domain.JournalEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		if filter.From != nil && e.EntryDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.EntryDate.After(*filter.To) {
			continue
		}
		if cursor != nil && !cursor.After(e.EntryDate, e.CreatedAt, e.EntryID) {
			continue
		}
		matched = append(matched, cloneEntry(e))
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.EntryDate.Equal(b.EntryDate) {
			return a.EntryDate.After(b.EntryDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.EntryID > b.EntryID
	})

	if filter.Limit <= 0 || len(matched) <= filter.Limit {
		return matched, nil, nil
	}
	page := matched[:filter.Limit]
	last := page[len(page)-1]
	token := pagination.EncodeToken(pagination.Cursor{EntryDate: last.EntryDate, CreatedAt: last.CreatedAt, EntryID: last.EntryID})
	return page, &token, nil
}

// ListUnreconciledLines returns the account's unclaimed lines of Posted entries dated on or before through.
func (r *JournalRepository) ListUnreconciledLines(_ context.Context, accountID string, through time.Time) ([]domain.LedgerTransaction, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	type ordered struct {
		txn    domain.LedgerTransaction
		lineNo int
	}
	var found []ordered
	for _, e := range s.entries {
		if e.Status != domain.Posted || e.EntryDate.After(through) {
			continue
		}
		for _, l := range e.Lines {
			if l.AccountID != accountID {
				continue
			}
			if _, claimed := s.reconciled[l.LineID]; claimed {
				continue
			}
			found = append(found, ordered{txn: ledgerTransaction(e, l), lineNo: l.LineNo})
		}
	}

	sort.Slice(found, func(i, j int) bool {
		a, b := found[i], found[j]
		if !a.txn.Date.Equal(b.txn.Date) {
			return a.txn.Date.Before(b.txn.Date)
		}
		if a.txn.EntryID != b.txn.EntryID {
			return a.txn.EntryID < b.txn.EntryID
		}
		return a.lineNo < b.lineNo
	})

	out := make([]domain.LedgerTransaction, len(found))
	for i, f := range found {
		out[i] = f.txn
	}
	return out, nil
}

func ledgerTransaction(e domain.JournalEntry, l domain.JournalLine) domain.LedgerTransaction {
	description := l.Memo
	if description == "" {
		description = e.Description
	}
	return domain.LedgerTransaction{
		LedgerTransactionID: l.LineID,
		EntryID:             e.EntryID,
		Date:                e.EntryDate,
		Reference:           e.Reference,
		Description:         description,
		DebitAmount:         l.DebitAmount,
		CreditAmount:        l.CreditAmount,
		Status:              domain.Unreconciled,
	}
}

// The helpers below expect s.mu to be held for writing.

func (s *Store) draftAt(entryID string, expectedVersion int64, operation string) (domain.JournalEntry, error) {
	stored, ok := s.entries[entryID]
	if !ok {
		return domain.JournalEntry{}, apperrors.NewNotFoundError("journal entry " + entryID)
	}
	if stored.Status != domain.Draft {
		return domain.JournalEntry{}, &apperrors.InvalidStateError{Entity: "journal entry", ID: entryID, State: string(stored.Status), Operation: operation}
	}
	if stored.Version != expectedVersion {
		return domain.JournalEntry{}, fmt.Errorf("%w: entry %s is at version %d, not %d", apperrors.ErrConflict, entryID, stored.Version, expectedVersion)
	}
	return stored, nil
}

func (s *Store) claimReference(entry domain.JournalEntry) error {
	if entry.Reference == "" {
		return nil
	}
	if owner, taken := s.references[entry.Reference]; taken && owner != entry.EntryID {
		return fmt.Errorf("%w: journal entry with reference %s already exists", apperrors.ErrDuplicate, entry.Reference)
	}
	s.references[entry.Reference] = entry.EntryID
	return nil
}

func (s *Store) putEntry(entry domain.JournalEntry) {
	entry = cloneEntry(entry)
	s.entries[entry.EntryID] = entry
	for _, l := range entry.Lines {
		s.lineEntry[l.LineID] = entry.EntryID
	}
}

func (s *Store) dropLines(entry domain.JournalEntry) {
	for _, l := range entry.Lines {
		delete(s.lineEntry, l.LineID)
	}
}

func (s *Store) checkDeltaAccounts(deltas []domain.BalanceDelta) error {
	for _, d := range deltas {
		if _, ok := s.accounts[d.AccountID]; !ok {
			return apperrors.NewNotFoundError("account " + d.AccountID)
		}
	}
	return nil
}

func (s *Store) applyDeltas(deltas []domain.BalanceDelta, actorID string, at time.Time) {
	for _, d := range deltas {
		acc := s.accounts[d.AccountID]
		acc.Balance = acc.Balance.Add(d.Amount)
		acc.Touch(actorID, at)
		s.accounts[d.AccountID] = acc
	}
}
