package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/core/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/SscSPs/ledger_core/internal/utils/accounting"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// sequentialIDs returns an id generator yielding prefix-1, prefix-2, ...
func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

type JournalServiceTestSuite struct {
	suite.Suite
	mockJournalRepo *MockJournalRepository
	mockAccountSvc  *MockAccountService
	service         portssvc.JournalSvcFacade
	now             time.Time
	admin           domain.Actor
	member          domain.Actor
	cash            domain.Account
	revenue         domain.Account
	accounts        map[string]domain.Account
}

func (suite *JournalServiceTestSuite) SetupTest() {
	suite.mockJournalRepo = new(MockJournalRepository)
	suite.mockAccountSvc = new(MockAccountService)
	suite.now = time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)
	suite.service = services.NewJournalService(suite.mockJournalRepo, suite.mockAccountSvc,
		services.WithClock(func() time.Time { return suite.now }),
		services.WithIDGenerator(sequentialIDs("id")),
	)

	suite.admin = domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin}
	suite.member = domain.Actor{UserID: "member-1", Role: domain.RoleMember}
	suite.cash = domain.Account{AccountID: "cash", Name: "Cash", AccountType: domain.Asset}
	suite.revenue = domain.Account{AccountID: "revenue", Name: "Sales", AccountType: domain.Revenue}
	suite.accounts = map[string]domain.Account{"cash": suite.cash, "revenue": suite.revenue}
}

func (suite *JournalServiceTestSuite) createRequest(debit, credit int64) dto.CreateJournalEntryRequest {
	return dto.CreateJournalEntryRequest{
		Reference:   "INV-1",
		EntryDate:   "2024-05-10",
		Description: "Cash sale",
		Lines: []dto.JournalLineRequest{
			{AccountID: "cash", DebitAmount: decimal.NewFromInt(debit)},
			{AccountID: "revenue", CreditAmount: decimal.NewFromInt(credit)},
		},
	}
}

func (suite *JournalServiceTestSuite) draft(debit, credit int64) *domain.JournalEntry {
	return &domain.JournalEntry{
		EntryID:     "entry-1",
		Reference:   "INV-1",
		EntryDate:   time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
		Description: "Cash sale",
		Status:      domain.Draft,
		Version:     1,
		Lines: []domain.JournalLine{
			{LineID: "line-1", EntryID: "entry-1", LineNo: 1, AccountID: "cash", DebitAmount: decimal.NewFromInt(debit)},
			{LineID: "line-2", EntryID: "entry-1", LineNo: 2, AccountID: "revenue", CreditAmount: decimal.NewFromInt(credit)},
		},
		AuditFields: domain.NewAuditFields("member-1", suite.now.Add(-time.Hour)),
	}
}

func (suite *JournalServiceTestSuite) TestCreateDraftEntry_Success() {
	ctx := context.Background()
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, []string{"cash", "revenue"}).Return(suite.accounts, nil).Once()
	suite.mockJournalRepo.On("SaveDraft", ctx, mock.MatchedBy(func(e domain.JournalEntry) bool {
		return e.Status == domain.Draft && e.Version == 1 && len(e.Lines) == 2 && e.Lines[0].EntryID == e.EntryID
	})).Return(nil).Once()

	entry, err := suite.service.CreateDraftEntry(ctx, suite.member, suite.createRequest(100, 100))

	suite.Require().NoError(err)
	suite.Equal("id-1", entry.EntryID)
	suite.Equal(domain.Draft, entry.Status)
	suite.Equal(int64(1), entry.Version)
	suite.Equal("member-1", entry.CreatedBy)
	suite.Equal(suite.now, entry.CreatedAt)
	suite.Equal(1, entry.Lines[0].LineNo)
	suite.NotEmpty(entry.Lines[1].LineID)
	suite.mockJournalRepo.AssertExpectations(suite.T())
	suite.mockAccountSvc.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestCreateDraftEntry_UnbalancedDraftAllowed() {
	ctx := context.Background()
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, []string{"cash", "revenue"}).Return(suite.accounts, nil).Once()
	suite.mockJournalRepo.On("SaveDraft", ctx, mock.AnythingOfType("domain.JournalEntry")).Return(nil).Once()

	entry, err := suite.service.CreateDraftEntry(ctx, suite.member, suite.createRequest(100, 90))

	suite.Require().NoError(err)
	suite.Equal(domain.Draft, entry.Status)
}

func (suite *JournalServiceTestSuite) TestCreateDraftEntry_CollectsEveryViolation() {
	ctx := context.Background()
	req := suite.createRequest(100, 100)
	req.Reference = "  "
	req.Lines[1].AccountID = "ghost"
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, []string{"cash", "ghost"}).Return(map[string]domain.Account{"cash": suite.cash}, nil).Once()

	entry, err := suite.service.CreateDraftEntry(ctx, suite.member, req)

	suite.Nil(entry)
	var vErr *apperrors.ValidationError
	suite.Require().ErrorAs(err, &vErr)
	suite.True(vErr.HasRule(accounting.RuleReferenceRequired))
	suite.True(vErr.HasRule(accounting.RuleAccountNotFound))
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveDraft", mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestCreateDraftEntry_ReadOnlyForbidden() {
	ctx := context.Background()
	reader := domain.Actor{UserID: "reader-1", Role: domain.RoleReadOnly}

	entry, err := suite.service.CreateDraftEntry(ctx, reader, suite.createRequest(100, 100))

	suite.Nil(entry)
	var authErr *apperrors.AuthorizationError
	suite.Require().ErrorAs(err, &authErr)
	suite.Equal("create_draft", authErr.Capability)
}

func (suite *JournalServiceTestSuite) TestCreateDraftEntry_DuplicateReference() {
	ctx := context.Background()
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, []string{"cash", "revenue"}).Return(suite.accounts, nil).Once()
	suite.mockJournalRepo.On("SaveDraft", ctx, mock.AnythingOfType("domain.JournalEntry")).
		Return(fmt.Errorf("%w: reference INV-1", apperrors.ErrDuplicate)).Once()

	entry, err := suite.service.CreateDraftEntry(ctx, suite.member, suite.createRequest(100, 100))

	suite.Nil(entry)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *JournalServiceTestSuite) TestUpdateDraftEntry_Success() {
	ctx := context.Background()
	suite.mockJournalRepo.On("FindEntryByID", ctx, "entry-1").Return(suite.draft(100, 90), nil).Once()
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, []string{"cash", "revenue"}).Return(suite.accounts, nil).Once()
	suite.mockJournalRepo.On("UpdateDraft", ctx, mock.MatchedBy(func(e domain.JournalEntry) bool {
		return e.EntryID == "entry-1" && e.Version == 2 && e.Lines[1].CreditAmount.Equal(decimal.NewFromInt(100))
	}), int64(1)).Return(nil).Once()

	req := dto.UpdateJournalEntryRequest{CreateJournalEntryRequest: suite.createRequest(100, 100), Version: 1}
	entry, err := suite.service.UpdateDraftEntry(ctx, suite.member, "entry-1", req)

	suite.Require().NoError(err)
	suite.Equal(int64(2), entry.Version)
	suite.Equal("member-1", entry.CreatedBy)
	suite.Equal(suite.now, entry.LastUpdatedAt)
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestUpdateDraftEntry_StaleVersion() {
	ctx := context.Background()
	stored := suite.draft(100, 100)
	stored.Version = 3
	suite.mockJournalRepo.On("FindEntryByID", ctx, "entry-1").Return(stored, nil).Once()

	req := dto.UpdateJournalEntryRequest{CreateJournalEntryRequest: suite.createRequest(100, 100), Version: 2}
	entry, err := suite.service.UpdateDraftEntry(ctx, suite.member, "entry-1", req)

	suite.Nil(entry)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "UpdateDraft", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestUpdateDraftEntry_PostedIsImmutable() {
	ctx := context.Background()
	posted := suite.draft(100, 100)
	posted.Status = domain.Posted
	suite.mockJournalRepo.On("FindEntryByID", ctx, "entry-1").Return(posted, nil).Once()

	req := dto.UpdateJournalEntryRequest{CreateJournalEntryRequest: suite.createRequest(100, 100), Version: 1}
	_, err := suite.service.UpdateDraftEntry(ctx, suite.member, "entry-1", req)

	suite.ErrorIs(err, apperrors.ErrInvalidState)
}

func (suite *JournalServiceTestSuite) TestDeleteDraftEntry() {
	ctx := context.Background()
	suite.mockJournalRepo.On("FindEntryByID", ctx, "entry-1").Return(suite.draft(100, 100), nil).Once()
	suite.mockJournalRepo.On("DeleteDraft", ctx, "entry-1", int64(1)).Return(nil).Once()

	suite.Require().NoError(suite.service.DeleteDraftEntry(ctx, suite.member, "entry-1"))
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestDeleteDraftEntry_VoidRejected() {
	ctx := context.Background()
	void := suite.draft(100, 100)
	void.Status = domain.Void
	suite.mockJournalRepo.On("FindEntryByID", ctx, "entry-1").Return(void, nil).Once()

	err := suite.service.DeleteDraftEntry(ctx, suite.member, "entry-1")

	var stateErr *apperrors.InvalidStateError
	suite.Require().ErrorAs(err, &stateErr)
	suite.Equal("delete", stateErr.Operation)
}

func (suite *JournalServiceTestSuite) TestPostEntry_Success() {
	ctx := context.Background()
	suite.mockJournalRepo.On("FindEntryByID", ctx, "entry-1").Return(suite.draft(100, 100), nil).Once()
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, []string{"cash", "revenue"}).Return(suite.accounts, nil).Once()
	suite.mockJournalRepo.On("PostEntry", ctx, mock.MatchedBy(func(p domain.Posting) bool {
		return p.EntryID == "entry-1" &&
			p.ExpectedVersion == 1 &&
			p.PostedBy == "admin-1" &&
			len(p.Deltas) == 2 &&
			p.Deltas[0].AccountID == "cash" && p.Deltas[0].Amount.Equal(decimal.NewFromInt(100)) &&
			p.Deltas[1].AccountID == "revenue" && p.Deltas[1].Amount.Equal(decimal.NewFromInt(100))
	})).Return(nil).Once()

	entry, err := suite.service.PostEntry(ctx, suite.admin, "entry-1")

	suite.Require().NoError(err)
	suite.Equal(domain.Posted, entry.Status)
	suite.Equal(int64(2), entry.Version)
	suite.Require().NotNil(entry.PostedBy)
	suite.Equal("admin-1", *entry.PostedBy)
	suite.Equal(suite.now, *entry.PostedAt)
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestPostEntry_MemberForbidden() {
	ctx := context.Background()

	entry, err := suite.service.PostEntry(ctx, suite.member, "entry-1")

	suite.Nil(entry)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "FindEntryByID", mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestPostEntry_Unbalanced() {
	ctx := context.Background()
	suite.mockJournalRepo.On("FindEntryByID", ctx, "entry-1").Return(suite.draft(100, 90), nil).Once()
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, []string{"cash", "revenue"}).Return(suite.accounts, nil).Once()

	entry, err := suite.service.PostEntry(ctx, suite.admin, "entry-1")

	suite.Nil(entry)
	var vErr *apperrors.ValidationError
	suite.Require().ErrorAs(err, &vErr)
	suite.True(vErr.HasRule(accounting.RuleUnbalanced))
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "PostEntry", mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestPostEntry_AlreadyPosted() {
	ctx := context.Background()
	posted := suite.draft(100, 100)
	posted.Status = domain.Posted
	suite.mockJournalRepo.On("FindEntryByID", ctx, "entry-1").Return(posted, nil).Once()
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, []string{"cash", "revenue"}).Return(suite.accounts, nil).Once()

	_, err := suite.service.PostEntry(ctx, suite.admin, "entry-1")

	suite.ErrorIs(err, apperrors.ErrAlreadyPosted)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "PostEntry", mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestPostEntry_LostRace() {
	ctx := context.Background()
	suite.mockJournalRepo.On("FindEntryByID", ctx, "entry-1").Return(suite.draft(100, 100), nil).Once()
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, []string{"cash", "revenue"}).Return(suite.accounts, nil).Once()
	suite.mockJournalRepo.On("PostEntry", ctx, mock.AnythingOfType("domain.Posting")).
		Return(&apperrors.AlreadyPostedError{EntryID: "entry-1"}).Once()

	_, err := suite.service.PostEntry(ctx, suite.admin, "entry-1")

	var already *apperrors.AlreadyPostedError
	suite.ErrorAs(err, &already)
}

func (suite *JournalServiceTestSuite) TestPostEntry_RepoFailure() {
	ctx := context.Background()
	suite.mockJournalRepo.On("FindEntryByID", ctx, "entry-1").Return(suite.draft(100, 100), nil).Once()
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, []string{"cash", "revenue"}).Return(suite.accounts, nil).Once()
	repoErr := errors.New("connection reset")
	suite.mockJournalRepo.On("PostEntry", ctx, mock.AnythingOfType("domain.Posting")).Return(repoErr).Once()

	_, err := suite.service.PostEntry(ctx, suite.admin, "entry-1")

	suite.ErrorIs(err, repoErr)
	suite.Contains(err.Error(), "failed to post entry")
}

func (suite *JournalServiceTestSuite) TestReverseEntry_Success() {
	ctx := context.Background()
	posted := suite.draft(100, 100)
	posted.Status = domain.Posted
	posted.Version = 2
	suite.mockJournalRepo.On("FindEntryByID", ctx, "entry-1").Return(posted, nil).Once()
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, []string{"cash", "revenue"}).Return(suite.accounts, nil).Once()
	suite.mockJournalRepo.On("SaveReversal", ctx, mock.MatchedBy(func(r domain.Reversal) bool {
		return r.SourceEntryID == "entry-1" &&
			r.VoidReason == "wrong amount" &&
			r.Entry.Reference == "INV-1-REV" &&
			r.Deltas[0].Amount.Equal(decimal.NewFromInt(-100))
	})).Return(nil).Once()

	reversal, err := suite.service.ReverseEntry(ctx, suite.admin, "entry-1", "wrong amount")

	suite.Require().NoError(err)
	suite.Equal(domain.Posted, reversal.Status)
	suite.Equal("Reversal of INV-1: wrong amount", reversal.Description)
	suite.Require().NotNil(reversal.ReversalOfID)
	suite.Equal("entry-1", *reversal.ReversalOfID)
	suite.True(reversal.Lines[0].CreditAmount.Equal(decimal.NewFromInt(100)))
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestReverseEntry_DraftRejected() {
	ctx := context.Background()
	suite.mockJournalRepo.On("FindEntryByID", ctx, "entry-1").Return(suite.draft(100, 100), nil).Once()
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, []string{"cash", "revenue"}).Return(suite.accounts, nil).Once()

	_, err := suite.service.ReverseEntry(ctx, suite.admin, "entry-1", "oops")

	suite.ErrorIs(err, apperrors.ErrInvalidState)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveReversal", mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestGetEntryByID_NotFound() {
	ctx := context.Background()
	suite.mockJournalRepo.On("FindEntryByID", ctx, "nope").Return(nil, apperrors.NewNotFoundError("journal entry nope")).Once()

	entry, err := suite.service.GetEntryByID(ctx, suite.member, "nope")

	suite.Nil(entry)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *JournalServiceTestSuite) TestListEntries_BuildsFilter() {
	ctx := context.Background()
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	suite.mockJournalRepo.On("ListEntries", ctx, mock.MatchedBy(func(f portsrepo.ListEntriesFilter) bool {
		return f.Limit == services.DefaultListLimit &&
			f.Status != nil && *f.Status == domain.Posted &&
			f.From != nil && f.From.Equal(from) &&
			f.To == nil
	})).Return([]domain.JournalEntry{*suite.draft(100, 100)}, "next-page", nil).Once()

	resp, err := suite.service.ListEntries(ctx, suite.member, dto.ListJournalEntriesParams{Status: "POSTED", From: "2024-05-01"})

	suite.Require().NoError(err)
	suite.Len(resp.Entries, 1)
	suite.Require().NotNil(resp.NextToken)
	suite.Equal("next-page", *resp.NextToken)
}

func TestJournalService(t *testing.T) {
	suite.Run(t, new(JournalServiceTestSuite))
}
