package service

import (
	"context"

	"github.com/shopspring/decimal"

	"betfin/events"
	"betfin/models"
)

// WalletProvider supplies the current signing identity and carries
// submitted actions to the ledger. Injected so tests can supply a fake
// provider without process-wide state.
type WalletProvider interface {
	// CurrentAccount returns the active account, or ok=false when no
	// signing identity is available
	CurrentAccount() (account string, ok bool)

	// Submit signs and broadcasts one action, returning a pending receipt
	Submit(ctx context.Context, action models.Action) (*models.Receipt, error)

	// AwaitConfirmation blocks until the transaction confirms or reverts;
	// the context bounds the wait
	AwaitConfirmation(ctx context.Context, receipt *models.Receipt) (*models.Confirmation, error)
}

// GameLedger is the read side of the remote game ledger. The ledger is
// authoritative; the engine only mirrors what it reports.
type GameLedger interface {
	// GetSessionState fetches the current public snapshot for a session,
	// addressed by account for single-table games or session id for poker
	GetSessionState(ctx context.Context, kind models.GameKind, sessionID, account string) (*models.SessionSnapshot, error)

	// Subscribe opens the pushed event stream for an account; the channel
	// closes when ctx is cancelled
	Subscribe(ctx context.Context, account string) (<-chan models.LedgerEvent, error)
}

// TransactionSubmitter tracks one outgoing action through its
// pending/confirmed lifecycle.
type TransactionSubmitter interface {
	// Submit submits an action and waits for its confirmation. At most one
	// action may be in flight per session; a second attempt is rejected
	// with ErrActionInProgress before any network call.
	Submit(ctx context.Context, action models.Action) (*models.Confirmation, error)

	// Pending returns the in-flight action for a session, if any
	Pending(sessionID string) *models.PendingAction
}

// SessionReconciler owns the local mirror of active game sessions and
// merges remote snapshots into them.
type SessionReconciler interface {
	// Track registers a session and starts its periodic poll and event
	// subscription. Reconciliation runs immediately once.
	Track(ctx context.Context, session *models.GameSession) (*models.GameSession, error)

	// Reconcile fetches the latest snapshot for a tracked session and
	// merges it. Idempotent; safe to call from any trigger path.
	Reconcile(ctx context.Context, sessionID string) (*models.GameSession, error)

	// Session returns the current local mirror for a tracked session
	Session(sessionID string) (*models.GameSession, bool)

	// Release tears down timers and subscriptions for a session
	Release(sessionID string)

	// Close releases every tracked session
	Close()
}

// StatsService is the append-only, per-account record of completed games.
type StatsService interface {
	// RecordCompletion applies one completed game to the account's record:
	// totals, per-game sub-totals, recent games and achievements
	RecordCompletion(ctx context.Context, account string, game models.GameKind, result models.Outcome, wagered, winnings decimal.Decimal) (*models.PlayerStatsRecord, error)

	// GetPlayerStats returns the record for an account, zeroed for an
	// unknown account
	GetPlayerStats(ctx context.Context, account string) (*models.PlayerStatsRecord, error)

	// GetLeaderboard returns the top accounts ranked by net profit
	GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error)
}

// StatsRepository defines the data access for player statistics.
type StatsRepository interface {
	// Get returns the stored record for an account, or a zeroed default
	// when the account is unknown
	Get(ctx context.Context, account string) (*models.PlayerStatsRecord, error)

	// GetForUpdate ensures the account row exists and locks it for the
	// duration of the transaction, serializing writers per account
	GetForUpdate(ctx context.Context, account string) (*models.PlayerStatsRecord, error)

	// UpdateTotals persists the aggregate counters of a record
	UpdateTotals(ctx context.Context, record *models.PlayerStatsRecord) error

	// UpsertGameStats persists one game's sub-totals
	UpsertGameStats(ctx context.Context, account string, game models.GameKind, stats *models.GameStats) error

	// InsertAchievement stores an achievement; returns false when the
	// account already holds one with the same name
	InsertAchievement(ctx context.Context, account string, achievement models.Achievement) (bool, error)

	// InsertRecentGame prepends an entry to the recent-games feed
	InsertRecentGame(ctx context.Context, account string, game models.RecentGame) error

	// TrimRecentGames evicts the oldest entries beyond keep
	TrimRecentGames(ctx context.Context, account string, keep int) error

	// GetLeaderboard returns accounts ranked by net profit descending
	GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// StatsRepository returns the stats repository bound to the transaction
	StatsRepository() StatsRepository

	// EventBus returns the transactional event bus
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
