package handlers_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/SscSPs/ledger_core/internal/handlers"
	"github.com/SscSPs/ledger_core/internal/platform/config"
	"github.com/SscSPs/ledger_core/internal/utils"
	"github.com/SscSPs/ledger_core/internal/utils/statement"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock AccountService ---
type MockAccountService struct {
	mock.Mock
}

var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

func (m *MockAccountService) GetAccountByID(ctx context.Context, actor domain.Actor, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, actor, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) GetAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

// --- Mock JournalService ---
type MockJournalService struct {
	mock.Mock
}

var _ portssvc.JournalSvcFacade = (*MockJournalService)(nil)

func (m *MockJournalService) GetEntryByID(ctx context.Context, actor domain.Actor, entryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, actor, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) ListEntries(ctx context.Context, actor domain.Actor, params dto.ListJournalEntriesParams) (*dto.ListJournalEntriesResponse, error) {
	args := m.Called(ctx, actor, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListJournalEntriesResponse), args.Error(1)
}

func (m *MockJournalService) CreateDraftEntry(ctx context.Context, actor domain.Actor, req dto.CreateJournalEntryRequest) (*domain.JournalEntry, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) UpdateDraftEntry(ctx context.Context, actor domain.Actor, entryID string, req dto.UpdateJournalEntryRequest) (*domain.JournalEntry, error) {
	args := m.Called(ctx, actor, entryID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) DeleteDraftEntry(ctx context.Context, actor domain.Actor, entryID string) error {
	args := m.Called(ctx, actor, entryID)
	return args.Error(0)
}

func (m *MockJournalService) PostEntry(ctx context.Context, actor domain.Actor, entryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, actor, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) ReverseEntry(ctx context.Context, actor domain.Actor, entryID string, reason string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, actor, entryID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

// --- Mock ReconciliationService ---
type MockReconciliationService struct {
	mock.Mock
}

var _ portssvc.ReconciliationSvcFacade = (*MockReconciliationService)(nil)

func (m *MockReconciliationService) GetSession(ctx context.Context, actor domain.Actor, sessionID string) (*domain.ReconciliationSession, error) {
	args := m.Called(ctx, actor, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationSession), args.Error(1)
}

func (m *MockReconciliationService) StartSession(ctx context.Context, actor domain.Actor, req dto.StartReconciliationRequest) (*domain.ReconciliationSession, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationSession), args.Error(1)
}

func (m *MockReconciliationService) ImportBankStatement(ctx context.Context, actor domain.Actor, sessionID string, rows []statement.RawRow) ([]domain.BankTransaction, error) {
	args := m.Called(ctx, actor, sessionID, rows)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BankTransaction), args.Error(1)
}

func (m *MockReconciliationService) ImportBankStatementCSV(ctx context.Context, actor domain.Actor, sessionID string, r io.Reader) ([]domain.BankTransaction, error) {
	args := m.Called(ctx, actor, sessionID, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BankTransaction), args.Error(1)
}

func (m *MockReconciliationService) AutoMatch(ctx context.Context, actor domain.Actor, sessionID string, apply bool) ([]domain.MatchProposal, error) {
	args := m.Called(ctx, actor, sessionID, apply)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MatchProposal), args.Error(1)
}

func (m *MockReconciliationService) ConfirmMatch(ctx context.Context, actor domain.Actor, sessionID string, bankIDs, ledgerIDs []string) (string, error) {
	args := m.Called(ctx, actor, sessionID, bankIDs, ledgerIDs)
	return args.String(0), args.Error(1)
}

func (m *MockReconciliationService) Unmatch(ctx context.Context, actor domain.Actor, sessionID string, matchGroupID string) error {
	args := m.Called(ctx, actor, sessionID, matchGroupID)
	return args.Error(0)
}

func (m *MockReconciliationService) CompleteReconciliation(ctx context.Context, actor domain.Actor, sessionID string, force bool) (*domain.ReconciliationSession, error) {
	args := m.Called(ctx, actor, sessionID, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationSession), args.Error(1)
}

// handlerSuite wires the real router and auth middleware over mocked services.
type handlerSuite struct {
	suite.Suite
	router             *gin.Engine
	jwtSecret          string
	mockAccountService *MockAccountService
	mockJournalService *MockJournalService
	mockReconService   *MockReconciliationService
}

func (suite *handlerSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	suite.mockAccountService = new(MockAccountService)
	suite.mockJournalService = new(MockJournalService)
	suite.mockReconService = new(MockReconciliationService)

	cfg := &config.Config{JWTSecret: suite.jwtSecret, IsProduction: true}
	handlers.RegisterRoutes(suite.router, cfg, &portssvc.ServiceContainer{
		Account:        suite.mockAccountService,
		Journal:        suite.mockJournalService,
		Reconciliation: suite.mockReconService,
	})
}

// generateTestToken creates a signed JWT for the user and role.
func (suite *handlerSuite) generateTestToken(userID string, role domain.Role) string {
	token, err := utils.GenerateJWT(userID, string(role), suite.jwtSecret, time.Hour, "ledger-test")
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return token
}

// serve sends the request as the given actor and records the response.
func (suite *handlerSuite) serve(req *http.Request, actor domain.Actor) *httptest.ResponseRecorder {
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(actor.UserID, actor.Role))
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}
