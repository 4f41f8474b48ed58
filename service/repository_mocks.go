package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"betfin/events"
	"betfin/models"
)

// MockStatsRepository is a mock implementation of StatsRepository
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) Get(ctx context.Context, account string) (*models.PlayerStatsRecord, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlayerStatsRecord), args.Error(1)
}

func (m *MockStatsRepository) GetForUpdate(ctx context.Context, account string) (*models.PlayerStatsRecord, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlayerStatsRecord), args.Error(1)
}

func (m *MockStatsRepository) UpdateTotals(ctx context.Context, record *models.PlayerStatsRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockStatsRepository) UpsertGameStats(ctx context.Context, account string, game models.GameKind, stats *models.GameStats) error {
	args := m.Called(ctx, account, game, stats)
	return args.Error(0)
}

func (m *MockStatsRepository) InsertAchievement(ctx context.Context, account string, achievement models.Achievement) (bool, error) {
	args := m.Called(ctx, account, achievement)
	return args.Bool(0), args.Error(1)
}

func (m *MockStatsRepository) InsertRecentGame(ctx context.Context, account string, game models.RecentGame) error {
	args := m.Called(ctx, account, game)
	return args.Error(0)
}

func (m *MockStatsRepository) TrimRecentGames(ctx context.Context, account string, keep int) error {
	args := m.Called(ctx, account, keep)
	return args.Error(0)
}

func (m *MockStatsRepository) GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LeaderboardEntry), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork
type MockUnitOfWork struct {
	mock.Mock

	statsRepo StatsRepository
	eventBus  EventPublisher
}

// SetRepositories configures the repositories returned by the accessors
func (m *MockUnitOfWork) SetRepositories(statsRepo StatsRepository, eventBus EventPublisher) {
	m.statsRepo = statsRepo
	m.eventBus = eventBus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) StatsRepository() StatsRepository {
	return m.statsRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}

// MockWalletProvider is a mock implementation of WalletProvider
type MockWalletProvider struct {
	mock.Mock
}

func (m *MockWalletProvider) CurrentAccount() (string, bool) {
	args := m.Called()
	return args.String(0), args.Bool(1)
}

func (m *MockWalletProvider) Submit(ctx context.Context, action models.Action) (*models.Receipt, error) {
	args := m.Called(ctx, action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Receipt), args.Error(1)
}

func (m *MockWalletProvider) AwaitConfirmation(ctx context.Context, receipt *models.Receipt) (*models.Confirmation, error) {
	args := m.Called(ctx, receipt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Confirmation), args.Error(1)
}

// MockGameLedger is a mock implementation of GameLedger
type MockGameLedger struct {
	mock.Mock
}

func (m *MockGameLedger) GetSessionState(ctx context.Context, kind models.GameKind, sessionID, account string) (*models.SessionSnapshot, error) {
	args := m.Called(ctx, kind, sessionID, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SessionSnapshot), args.Error(1)
}

func (m *MockGameLedger) Subscribe(ctx context.Context, account string) (<-chan models.LedgerEvent, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan models.LedgerEvent), args.Error(1)
}

// MockSessionReconciler is a mock implementation of SessionReconciler
type MockSessionReconciler struct {
	mock.Mock
}

func (m *MockSessionReconciler) Track(ctx context.Context, session *models.GameSession) (*models.GameSession, error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GameSession), args.Error(1)
}

func (m *MockSessionReconciler) Reconcile(ctx context.Context, sessionID string) (*models.GameSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GameSession), args.Error(1)
}

func (m *MockSessionReconciler) Session(sessionID string) (*models.GameSession, bool) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*models.GameSession), args.Bool(1)
}

func (m *MockSessionReconciler) Release(sessionID string) {
	m.Called(sessionID)
}

func (m *MockSessionReconciler) Close() {
	m.Called()
}

// MockStatsService is a mock implementation of StatsService
type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) RecordCompletion(ctx context.Context, account string, game models.GameKind, result models.Outcome, wagered, winnings decimal.Decimal) (*models.PlayerStatsRecord, error) {
	args := m.Called(ctx, account, game, result, wagered, winnings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlayerStatsRecord), args.Error(1)
}

func (m *MockStatsService) GetPlayerStats(ctx context.Context, account string) (*models.PlayerStatsRecord, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlayerStatsRecord), args.Error(1)
}

func (m *MockStatsService) GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LeaderboardEntry), args.Error(1)
}
