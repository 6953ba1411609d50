package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/SscSPs/ledger_core/internal/utils/accounting"
)

// DefaultListLimit is the page size used when a listing does not ask for one.
const DefaultListLimit = 20

// journalService provides the journal entry lifecycle: drafts, posting and reversal.
type journalService struct {
	BaseService
	journalRepo portsrepo.JournalRepositoryFacade
	accountSvc  portssvc.AccountSvcFacade
}

// NewJournalService creates a new JournalService.
func NewJournalService(journalRepo portsrepo.JournalRepositoryFacade, accountSvc portssvc.AccountSvcFacade, opts ...Option) portssvc.JournalSvcFacade {
	s := &journalService{
		BaseService: newBaseService(),
		journalRepo: journalRepo,
		accountSvc:  accountSvc,
	}
	s.apply(opts)
	return s
}

// Ensure journalService implements the portssvc.JournalSvcFacade interface
var _ portssvc.JournalSvcFacade = (*journalService)(nil)

// buildEntry assembles an entry from a request, assigning fresh line ids.
func (s *journalService) buildEntry(entryID string, req dto.CreateJournalEntryRequest) domain.JournalEntry {
	lines := dto.ToDomainLines(req.Lines)
	for i := range lines {
		lines[i].LineID = s.newID()
		lines[i].EntryID = entryID
	}
	return domain.JournalEntry{
		EntryID:     entryID,
		Reference:   strings.TrimSpace(req.Reference),
		EntryDate:   dto.ParseDate(req.EntryDate),
		Description: strings.TrimSpace(req.Description),
		Lines:       lines,
		Status:      domain.Draft,
	}
}

// checkDraft runs the draft checks and reports lines whose account does not exist.
func (s *journalService) checkDraft(ctx context.Context, entry domain.JournalEntry) error {
	violations := accounting.CheckDraft(entry)

	accounts, err := s.accountSvc.GetAccountsByIDs(ctx, entry.AccountIDs())
	if err != nil {
		return err
	}
	for i, l := range entry.Lines {
		if l.AccountID == "" {
			continue
		}
		if _, ok := accounts[l.AccountID]; !ok {
			violations = append(violations, apperrors.Violation{
				Field:   fmt.Sprintf("lines[%d].accountId", i),
				Rule:    accounting.RuleAccountNotFound,
				Message: fmt.Sprintf("account %s does not exist", l.AccountID),
			})
		}
	}

	if len(violations) > 0 {
		return apperrors.NewValidationError(violations...)
	}
	return nil
}

// CreateDraftEntry validates and stores a new Draft entry. Drafts may be unbalanced;
// the balance is enforced when posting.
func (s *journalService) CreateDraftEntry(ctx context.Context, actor domain.Actor, req dto.CreateJournalEntryRequest) (*domain.JournalEntry, error) {
	if err := s.Authorize(ctx, actor, domain.CapCreateDraft); err != nil {
		return nil, err
	}

	now := s.now()
	entry := s.buildEntry(s.newID(), req)
	entry.Version = 1
	entry.AuditFields = domain.NewAuditFields(actor.UserID, now)

	if err := s.checkDraft(ctx, entry); err != nil {
		s.LogWarn(ctx, err, "Draft entry rejected", slog.String("reference", entry.Reference))
		return nil, err
	}

	if err := s.journalRepo.SaveDraft(ctx, entry); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			s.LogWarn(ctx, err, "Duplicate entry reference", slog.String("reference", entry.Reference))
			return nil, err
		}
		s.LogError(ctx, err, "Failed to save draft entry", slog.String("entry_id", entry.EntryID))
		return nil, fmt.Errorf("failed to save draft entry: %w", err)
	}

	s.LogInfo(ctx, "Draft entry created", slog.String("entry_id", entry.EntryID), slog.String("reference", entry.Reference))
	return &entry, nil
}

// UpdateDraftEntry replaces a Draft's header and lines. req.Version must match the stored version.
func (s *journalService) UpdateDraftEntry(ctx context.Context, actor domain.Actor, entryID string, req dto.UpdateJournalEntryRequest) (*domain.JournalEntry, error) {
	if err := s.Authorize(ctx, actor, domain.CapCreateDraft); err != nil {
		return nil, err
	}

	existing, err := s.findEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if existing.Status != domain.Draft {
		err := &apperrors.InvalidStateError{Entity: "journal entry", ID: entryID, State: string(existing.Status), Operation: "update"}
		s.LogWarn(ctx, err, "Update rejected", slog.String("entry_id", entryID))
		return nil, err
	}
	if existing.Version != req.Version {
		return nil, fmt.Errorf("%w: entry %s is at version %d, not %d", apperrors.ErrConflict, entryID, existing.Version, req.Version)
	}

	entry := s.buildEntry(entryID, req.CreateJournalEntryRequest)
	entry.Version = existing.Version + 1
	entry.AuditFields = existing.AuditFields
	entry.Touch(actor.UserID, s.now())

	if err := s.checkDraft(ctx, entry); err != nil {
		s.LogWarn(ctx, err, "Draft update rejected", slog.String("entry_id", entryID))
		return nil, err
	}

	if err := s.journalRepo.UpdateDraft(ctx, entry, existing.Version); err != nil {
		if errors.Is(err, apperrors.ErrConflict) || errors.Is(err, apperrors.ErrDuplicate) || errors.Is(err, apperrors.ErrInvalidState) {
			s.LogWarn(ctx, err, "Draft update lost a race", slog.String("entry_id", entryID))
			return nil, err
		}
		s.LogError(ctx, err, "Failed to update draft entry", slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to update draft entry: %w", err)
	}

	s.LogInfo(ctx, "Draft entry updated", slog.String("entry_id", entryID), slog.Int64("version", entry.Version))
	return &entry, nil
}

// DeleteDraftEntry removes a Draft. Posted and Void entries are part of the books and stay.
func (s *journalService) DeleteDraftEntry(ctx context.Context, actor domain.Actor, entryID string) error {
	if err := s.Authorize(ctx, actor, domain.CapCreateDraft); err != nil {
		return err
	}

	entry, err := s.findEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.Status != domain.Draft {
		err := &apperrors.InvalidStateError{Entity: "journal entry", ID: entryID, State: string(entry.Status), Operation: "delete"}
		s.LogWarn(ctx, err, "Delete rejected", slog.String("entry_id", entryID))
		return err
	}

	if err := s.journalRepo.DeleteDraft(ctx, entryID, entry.Version); err != nil {
		if errors.Is(err, apperrors.ErrConflict) || errors.Is(err, apperrors.ErrInvalidState) {
			s.LogWarn(ctx, err, "Draft delete lost a race", slog.String("entry_id", entryID))
			return err
		}
		s.LogError(ctx, err, "Failed to delete draft entry", slog.String("entry_id", entryID))
		return fmt.Errorf("failed to delete draft entry: %w", err)
	}

	s.LogInfo(ctx, "Draft entry deleted", slog.String("entry_id", entryID))
	return nil
}

// PostEntry validates a Draft and posts it. The status change and balance deltas are
// applied by the repository in one transaction.
func (s *journalService) PostEntry(ctx context.Context, actor domain.Actor, entryID string) (*domain.JournalEntry, error) {
	if err := s.Authorize(ctx, actor, domain.CapPost); err != nil {
		return nil, err
	}

	entry, err := s.findEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}

	accounts, err := s.accountSvc.GetAccountsByIDs(ctx, entry.AccountIDs())
	if err != nil {
		return nil, err
	}

	result, err := accounting.Post(*entry, accounts, actor.UserID, s.now())
	if err != nil {
		s.LogWarn(ctx, err, "Posting rejected", slog.String("entry_id", entryID), slog.String("status", string(entry.Status)))
		return nil, err
	}

	posting := domain.Posting{
		EntryID:         entryID,
		ExpectedVersion: entry.Version,
		PostedBy:        actor.UserID,
		PostedAt:        *result.Entry.PostedAt,
		Deltas:          result.Deltas,
	}
	if err := s.journalRepo.PostEntry(ctx, posting); err != nil {
		if errors.Is(err, apperrors.ErrInvalidState) || errors.Is(err, apperrors.ErrConflict) || errors.Is(err, apperrors.ErrNotFound) {
			s.LogWarn(ctx, err, "Posting lost a race", slog.String("entry_id", entryID))
			return nil, err
		}
		s.LogError(ctx, err, "Failed to post entry", slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to post entry: %w", err)
	}

	posted := result.Entry
	posted.Version = entry.Version + 1
	s.LogInfo(ctx, "Entry posted",
		slog.String("entry_id", entryID),
		slog.String("reference", posted.Reference),
		slog.Int("accounts", len(result.Deltas)))
	return &posted, nil
}

// ReverseEntry voids a Posted entry and posts its reversal in one transaction.
func (s *journalService) ReverseEntry(ctx context.Context, actor domain.Actor, entryID string, reason string) (*domain.JournalEntry, error) {
	if err := s.Authorize(ctx, actor, domain.CapReverse); err != nil {
		return nil, err
	}

	source, err := s.findEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}

	accounts, err := s.accountSvc.GetAccountsByIDs(ctx, source.AccountIDs())
	if err != nil {
		return nil, err
	}

	reversal, err := accounting.BuildReversal(*source, accounts, reason, actor.UserID, s.now(), s.newID)
	if err != nil {
		s.LogWarn(ctx, err, "Reversal rejected", slog.String("entry_id", entryID), slog.String("status", string(source.Status)))
		return nil, err
	}

	if err := s.journalRepo.SaveReversal(ctx, *reversal); err != nil {
		if errors.Is(err, apperrors.ErrInvalidState) || errors.Is(err, apperrors.ErrDuplicate) || errors.Is(err, apperrors.ErrNotFound) {
			s.LogWarn(ctx, err, "Reversal lost a race", slog.String("entry_id", entryID))
			return nil, err
		}
		s.LogError(ctx, err, "Failed to save reversal", slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to reverse entry: %w", err)
	}

	s.LogInfo(ctx, "Entry reversed",
		slog.String("entry_id", entryID),
		slog.String("reversal_id", reversal.Entry.EntryID))
	return &reversal.Entry, nil
}

// GetEntryByID retrieves an entry with its lines.
func (s *journalService) GetEntryByID(ctx context.Context, actor domain.Actor, entryID string) (*domain.JournalEntry, error) {
	if err := s.Authorize(ctx, actor, domain.CapRead); err != nil {
		return nil, err
	}
	return s.findEntry(ctx, entryID)
}

// ListEntries retrieves a page of entries, newest first.
func (s *journalService) ListEntries(ctx context.Context, actor domain.Actor, params dto.ListJournalEntriesParams) (*dto.ListJournalEntriesResponse, error) {
	if err := s.Authorize(ctx, actor, domain.CapRead); err != nil {
		return nil, err
	}

	filter := portsrepo.ListEntriesFilter{Limit: params.Limit, NextToken: params.NextToken}
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if params.Status != "" {
		status := domain.JournalStatus(params.Status)
		filter.Status = &status
	}
	if from, ok := parseOptionalDate(params.From); ok {
		filter.From = &from
	}
	if to, ok := parseOptionalDate(params.To); ok {
		filter.To = &to
	}

	entries, nextToken, err := s.journalRepo.ListEntries(ctx, filter)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			return nil, err
		}
		s.LogError(ctx, err, "Failed to list entries from repository")
		return nil, fmt.Errorf("failed to retrieve entries: %w", err)
	}

	return &dto.ListJournalEntriesResponse{
		Entries:   dto.ToJournalEntryResponses(entries),
		NextToken: nextToken,
	}, nil
}

func (s *journalService) findEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.journalRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		s.LogError(ctx, err, "Failed to find entry", slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to load entry %s: %w", entryID, err)
	}
	return entry, nil
}

func parseOptionalDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t := dto.ParseDate(s)
	return t, !t.IsZero()
}
