// Package memory is an in-process storage driver. A single lock serializes every write,
// which gives postings and reversals the same all-or-nothing behaviour as a database
// transaction.
package memory

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
)

// Store holds all ledger and reconciliation state.
type Store struct {
	mu sync.RWMutex

	accounts   map[string]domain.Account
	codes      map[string]string // account code -> account id
	entries    map[string]domain.JournalEntry
	references map[string]string // entry reference -> entry id
	lineEntry  map[string]string // line id -> entry id
	reconciled map[string]string // line id -> completed session id
	sessions   map[string]domain.ReconciliationSession
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accounts:   make(map[string]domain.Account),
		codes:      make(map[string]string),
		entries:    make(map[string]domain.JournalEntry),
		references: make(map[string]string),
		lineEntry:  make(map[string]string),
		reconciled: make(map[string]string),
		sessions:   make(map[string]domain.ReconciliationSession),
	}
}

// NewRepositoryProvider wires the memory repositories over one store.
func NewRepositoryProvider(store *Store) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:        &AccountRepository{store: store},
		JournalRepo:        &JournalRepository{store: store},
		ReconciliationRepo: &ReconciliationRepository{store: store},
	}
}

// LoadAccountsJSON decodes a JSON array of accounts, as used for MEMORY_SEED_ACCOUNTS.
func LoadAccountsJSON(r io.Reader) ([]domain.Account, error) {
	var accounts []domain.Account
	if err := json.NewDecoder(r).Decode(&accounts); err != nil {
		return nil, fmt.Errorf("failed to decode seed accounts: %w", err)
	}
	return accounts, nil
}

// ReadSeedAccounts loads and checks an account file, filling the normal side from the
// type and stamping audit fields with actor and now.
func ReadSeedAccounts(path, actor string, now time.Time) ([]domain.Account, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening accounts file: %w", err)
	}
	defer f.Close()

	accounts, err := LoadAccountsJSON(f)
	if err != nil {
		return nil, err
	}

	for i := range accounts {
		acc := &accounts[i]
		if acc.AccountID == "" {
			return nil, fmt.Errorf("account %d has no accountID", i+1)
		}
		side, ok := acc.NormalSide()
		if !ok {
			return nil, fmt.Errorf("account %s has unknown type %q", acc.AccountID, acc.AccountType)
		}
		acc.NormalBalanceSide = side
		acc.AuditFields = domain.NewAuditFields(actor, now)
	}
	return accounts, nil
}

func cloneEntry(e domain.JournalEntry) domain.JournalEntry {
	e.Lines = append([]domain.JournalLine(nil), e.Lines...)
	e.PostedBy = cloneString(e.PostedBy)
	e.VoidReason = cloneString(e.VoidReason)
	e.ReversalOfID = cloneString(e.ReversalOfID)
	e.ReversedByID = cloneString(e.ReversedByID)
	if e.PostedAt != nil {
		t := *e.PostedAt
		e.PostedAt = &t
	}
	return e
}

func cloneSession(s domain.ReconciliationSession) domain.ReconciliationSession {
	bank := make([]domain.BankTransaction, len(s.BankTransactions))
	for i, t := range s.BankTransactions {
		t.MatchGroupID = cloneString(t.MatchGroupID)
		t.MatchedLedgerTransactionID = cloneString(t.MatchedLedgerTransactionID)
		bank[i] = t
	}
	ledger := make([]domain.LedgerTransaction, len(s.LedgerTransactions))
	for i, t := range s.LedgerTransactions {
		t.MatchGroupID = cloneString(t.MatchGroupID)
		ledger[i] = t
	}
	s.BankTransactions = bank
	s.LedgerTransactions = ledger
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		s.CompletedAt = &t
	}
	return s
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
