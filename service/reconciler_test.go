package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"betfin/cards"
	"betfin/events"
	"betfin/models"
)

// cardToken builds a ledger card token for the given suit and rank
// alphabet indexes.
func cardToken(suit, rank byte) cards.Token {
	token := make(cards.Token, cards.TokenSize)
	token[0] = suit
	token[1] = rank
	return token
}

func newTestReconciler(ledger GameLedger, stats StatsService) SessionReconciler {
	// Poll interval long enough that only explicit Reconcile calls and
	// pushed events drive the tests
	return NewSessionReconciler(ledger, stats, events.NewBus(), time.Hour)
}

func blackjackSession() *models.GameSession {
	return &models.GameSession{
		Kind:      models.GameBlackjack,
		Account:   "0xabc",
		State:     models.StateWaiting,
		BetAmount: decimal.NewFromFloat(0.01),
	}
}

func TestSessionReconciler_Track_DecodesActiveSnapshot(t *testing.T) {
	ctx := context.Background()

	mockLedger := new(MockGameLedger)
	mockStats := new(MockStatsService)
	reconciler := newTestReconciler(mockLedger, mockStats)
	defer reconciler.Close()

	stream := make(chan models.LedgerEvent)
	mockLedger.On("Subscribe", mock.Anything, "0xabc").Return((<-chan models.LedgerEvent)(stream), nil)

	snapshot := &models.SessionSnapshot{
		Account:   "0xabc",
		Kind:      models.GameBlackjack,
		State:     models.StateActive,
		BetAmount: decimal.NewFromFloat(0.01),
		Blackjack: &models.BlackjackSnapshot{
			PlayerTotal:    16,
			DealerTotal:    21,
			DealerRevealed: false,
			PlayerCards:    []cards.Token{cardToken(0, 12), cardToken(1, 3)},
			DealerCards:    []cards.Token{cardToken(2, 11), cardToken(3, 9)},
		},
	}
	mockLedger.On("GetSessionState", mock.Anything, models.GameBlackjack, "", "0xabc").Return(snapshot, nil)

	session, err := reconciler.Track(ctx, blackjackSession())
	require.NoError(t, err)

	assert.Equal(t, models.StateActive, session.State)
	require.NotNil(t, session.Blackjack)
	require.Len(t, session.Blackjack.PlayerCards, 2)
	assert.Equal(t, "A♠", session.Blackjack.PlayerCards[0].String())
	assert.Equal(t, "5♥", session.Blackjack.PlayerCards[1].String())

	// Up card visible, hole card concealed until the reveal flag flips,
	// regardless of the token being present in the snapshot
	require.Len(t, session.Blackjack.DealerCards, 2)
	assert.Equal(t, "K♦", session.Blackjack.DealerCards[0].String())
	assert.True(t, session.Blackjack.DealerCards[1].IsHidden())
	assert.Equal(t, 0, session.Blackjack.DealerTotal)
	assert.Equal(t, 16, session.Blackjack.PlayerTotal)
}

func TestSessionReconciler_Reconcile_DiscardsStaleSnapshot(t *testing.T) {
	ctx := context.Background()

	mockLedger := new(MockGameLedger)
	mockStats := new(MockStatsService)
	reconciler := newTestReconciler(mockLedger, mockStats)
	defer reconciler.Close()

	stream := make(chan models.LedgerEvent)
	mockLedger.On("Subscribe", mock.Anything, "0xabc").Return((<-chan models.LedgerEvent)(stream), nil)

	active := &models.SessionSnapshot{
		Kind:  models.GameBlackjack,
		State: models.StateActive,
		Blackjack: &models.BlackjackSnapshot{
			PlayerTotal: 18,
			PlayerCards: []cards.Token{cardToken(0, 12), cardToken(1, 5)},
			DealerCards: []cards.Token{cardToken(2, 11)},
		},
	}
	stale := &models.SessionSnapshot{
		Kind:      models.GameBlackjack,
		State:     models.StateWaiting,
		Blackjack: &models.BlackjackSnapshot{},
	}

	mockLedger.On("GetSessionState", mock.Anything, models.GameBlackjack, "", "0xabc").Return(active, nil).Once()
	mockLedger.On("GetSessionState", mock.Anything, models.GameBlackjack, "", "0xabc").Return(stale, nil).Once()

	session, err := reconciler.Track(ctx, blackjackSession())
	require.NoError(t, err)
	require.Equal(t, models.StateActive, session.State)

	// Out-of-order delivery reports an earlier state; it must not roll
	// the session back
	session, err = reconciler.Reconcile(ctx, "blackjack/0xabc")
	require.NoError(t, err)
	assert.Equal(t, models.StateActive, session.State)
	assert.Equal(t, 18, session.Blackjack.PlayerTotal)
}

func TestSessionReconciler_Reconcile_Idempotent(t *testing.T) {
	ctx := context.Background()

	mockLedger := new(MockGameLedger)
	mockStats := new(MockStatsService)
	reconciler := newTestReconciler(mockLedger, mockStats)
	defer reconciler.Close()

	stream := make(chan models.LedgerEvent)
	mockLedger.On("Subscribe", mock.Anything, "0xabc").Return((<-chan models.LedgerEvent)(stream), nil)

	snapshot := &models.SessionSnapshot{
		Kind:      models.GameBlackjack,
		State:     models.StateActive,
		BetAmount: decimal.NewFromFloat(0.01),
		Blackjack: &models.BlackjackSnapshot{
			PlayerTotal: 17,
			PlayerCards: []cards.Token{cardToken(0, 12), cardToken(1, 4)},
			DealerCards: []cards.Token{cardToken(2, 11), cardToken(3, 9)},
		},
	}
	mockLedger.On("GetSessionState", mock.Anything, models.GameBlackjack, "", "0xabc").Return(snapshot, nil)

	first, err := reconciler.Track(ctx, blackjackSession())
	require.NoError(t, err)
	firstView := *first.Blackjack
	firstState := first.State

	second, err := reconciler.Reconcile(ctx, "blackjack/0xabc")
	require.NoError(t, err)

	assert.Equal(t, firstState, second.State)
	assert.Equal(t, firstView.PlayerTotal, second.Blackjack.PlayerTotal)
	assert.Equal(t, firstView.PlayerCards, second.Blackjack.PlayerCards)
	assert.Equal(t, firstView.DealerCards, second.Blackjack.DealerCards)
}

func TestSessionReconciler_DuplicateCompletionRecordedOnce(t *testing.T) {
	ctx := context.Background()

	mockLedger := new(MockGameLedger)
	mockStats := new(MockStatsService)
	reconciler := newTestReconciler(mockLedger, mockStats)
	defer reconciler.Close()

	stream := make(chan models.LedgerEvent)
	mockLedger.On("Subscribe", mock.Anything, "0xabc").Return((<-chan models.LedgerEvent)(stream), nil)

	completed := &models.SessionSnapshot{
		Kind:      models.GameBlackjack,
		State:     models.StateCompleted,
		BetAmount: decimal.NewFromFloat(0.01),
		Blackjack: &models.BlackjackSnapshot{
			PlayerTotal:    20,
			DealerTotal:    19,
			DealerRevealed: true,
			PlayerWon:      true,
			Payout:         decimal.NewFromFloat(0.02),
			PlayerCards:    []cards.Token{cardToken(0, 12), cardToken(1, 7)},
			DealerCards:    []cards.Token{cardToken(2, 11), cardToken(3, 7)},
		},
	}
	mockLedger.On("GetSessionState", mock.Anything, models.GameBlackjack, "", "0xabc").Return(completed, nil)

	mockStats.On("RecordCompletion", mock.Anything, "0xabc", models.GameBlackjack,
		models.OutcomeWin, decimal.NewFromFloat(0.01), decimal.NewFromFloat(0.02)).
		Return(models.NewPlayerStatsRecord("0xabc"), nil)

	_, err := reconciler.Track(ctx, blackjackSession())
	require.NoError(t, err)

	// A duplicated completion notification replays the same snapshot;
	// the stats write must not happen twice
	_, err = reconciler.Reconcile(ctx, "blackjack/0xabc")
	require.NoError(t, err)
	_, err = reconciler.Reconcile(ctx, "blackjack/0xabc")
	require.NoError(t, err)

	mockStats.AssertNumberOfCalls(t, "RecordCompletion", 1)
}

func TestSessionReconciler_RecordRetriedAfterFailure(t *testing.T) {
	ctx := context.Background()

	mockLedger := new(MockGameLedger)
	mockStats := new(MockStatsService)
	reconciler := newTestReconciler(mockLedger, mockStats)
	defer reconciler.Close()

	stream := make(chan models.LedgerEvent)
	mockLedger.On("Subscribe", mock.Anything, "0xabc").Return((<-chan models.LedgerEvent)(stream), nil)

	completed := &models.SessionSnapshot{
		Kind:      models.GameSlots,
		State:     models.StateCompleted,
		BetAmount: decimal.NewFromFloat(0.01),
		Slots: &models.SlotsSnapshot{
			Reels:  [3]int{6, 6, 6},
			Payout: decimal.NewFromInt(10),
		},
	}
	mockLedger.On("GetSessionState", mock.Anything, models.GameSlots, "", "0xabc").Return(completed, nil)

	mockStats.On("RecordCompletion", mock.Anything, "0xabc", models.GameSlots,
		models.OutcomeWin, decimal.NewFromFloat(0.01), decimal.NewFromInt(10)).
		Return(nil, errors.New("database unavailable")).Once()
	mockStats.On("RecordCompletion", mock.Anything, "0xabc", models.GameSlots,
		models.OutcomeWin, decimal.NewFromFloat(0.01), decimal.NewFromInt(10)).
		Return(models.NewPlayerStatsRecord("0xabc"), nil).Once()

	session := &models.GameSession{
		Kind:      models.GameSlots,
		Account:   "0xabc",
		State:     models.StateActive,
		BetAmount: decimal.NewFromFloat(0.01),
	}
	_, err := reconciler.Track(ctx, session)
	require.NoError(t, err)

	// The failed write released the claim; the next pass retries
	_, err = reconciler.Reconcile(ctx, "slots/0xabc")
	require.NoError(t, err)

	mockStats.AssertNumberOfCalls(t, "RecordCompletion", 2)
}

func TestSessionReconciler_ReturnsDetachedCopies(t *testing.T) {
	ctx := context.Background()

	mockLedger := new(MockGameLedger)
	mockStats := new(MockStatsService)
	reconciler := newTestReconciler(mockLedger, mockStats)
	defer reconciler.Close()

	stream := make(chan models.LedgerEvent)
	mockLedger.On("Subscribe", mock.Anything, "0xabc").Return((<-chan models.LedgerEvent)(stream), nil)

	dealt := &models.SessionSnapshot{
		Kind:  models.GameBlackjack,
		State: models.StateActive,
		Blackjack: &models.BlackjackSnapshot{
			PlayerTotal: 16,
			PlayerCards: []cards.Token{cardToken(0, 12), cardToken(1, 3)},
			DealerCards: []cards.Token{cardToken(2, 11)},
		},
	}
	afterHit := &models.SessionSnapshot{
		Kind:  models.GameBlackjack,
		State: models.StateActive,
		Blackjack: &models.BlackjackSnapshot{
			PlayerTotal: 20,
			PlayerCards: []cards.Token{cardToken(0, 12), cardToken(1, 3), cardToken(3, 2)},
			DealerCards: []cards.Token{cardToken(2, 11)},
		},
	}
	mockLedger.On("GetSessionState", mock.Anything, models.GameBlackjack, "", "0xabc").Return(dealt, nil).Once()
	mockLedger.On("GetSessionState", mock.Anything, models.GameBlackjack, "", "0xabc").Return(afterHit, nil).Once()

	first, err := reconciler.Track(ctx, blackjackSession())
	require.NoError(t, err)
	require.Equal(t, 16, first.Blackjack.PlayerTotal)

	second, err := reconciler.Reconcile(ctx, "blackjack/0xabc")
	require.NoError(t, err)

	// The earlier copy does not see the later merge
	assert.Equal(t, 16, first.Blackjack.PlayerTotal)
	assert.Len(t, first.Blackjack.PlayerCards, 2)
	assert.Equal(t, 20, second.Blackjack.PlayerTotal)
	assert.Len(t, second.Blackjack.PlayerCards, 3)

	// Mutating a returned copy does not reach the tracked mirror
	second.State = models.StateCancelled
	second.Blackjack.PlayerCards[0] = cards.Hidden()

	held, ok := reconciler.Session("blackjack/0xabc")
	require.True(t, ok)
	assert.Equal(t, models.StateActive, held.State)
	assert.Equal(t, "A♠", held.Blackjack.PlayerCards[0].String())
}

func TestSessionReconciler_PollRetriesFailedRecord(t *testing.T) {
	ctx := context.Background()

	mockLedger := new(MockGameLedger)
	mockStats := new(MockStatsService)
	reconciler := NewSessionReconciler(mockLedger, mockStats, events.NewBus(), 20*time.Millisecond)
	defer reconciler.Close()

	stream := make(chan models.LedgerEvent)
	mockLedger.On("Subscribe", mock.Anything, "0xabc").Return((<-chan models.LedgerEvent)(stream), nil)

	completed := &models.SessionSnapshot{
		Kind:      models.GameSlots,
		State:     models.StateCompleted,
		BetAmount: decimal.NewFromFloat(0.01),
		Slots: &models.SlotsSnapshot{
			Reels:  [3]int{0, 0, 0},
			Payout: decimal.NewFromFloat(0.05),
		},
	}
	mockLedger.On("GetSessionState", mock.Anything, models.GameSlots, "", "0xabc").Return(completed, nil)

	recorded := make(chan struct{})
	mockStats.On("RecordCompletion", mock.Anything, "0xabc", models.GameSlots,
		models.OutcomeWin, decimal.NewFromFloat(0.01), decimal.NewFromFloat(0.05)).
		Return(nil, errors.New("database unavailable")).Once()
	mockStats.On("RecordCompletion", mock.Anything, "0xabc", models.GameSlots,
		models.OutcomeWin, decimal.NewFromFloat(0.01), decimal.NewFromFloat(0.05)).
		Return(models.NewPlayerStatsRecord("0xabc"), nil).Once().
		Run(func(mock.Arguments) { close(recorded) })

	session := &models.GameSession{
		Kind:      models.GameSlots,
		Account:   "0xabc",
		State:     models.StateActive,
		BetAmount: decimal.NewFromFloat(0.01),
	}
	_, err := reconciler.Track(ctx, session)
	require.NoError(t, err)

	// The first write fails during Track's immediate pass; the poll loop
	// must still be running to carry the retry on its own
	select {
	case <-recorded:
	case <-time.After(2 * time.Second):
		t.Fatal("completed game was not re-recorded by the poll loop")
	}
}

func TestSessionReconciler_TransientFetchFailureRetainsState(t *testing.T) {
	ctx := context.Background()

	mockLedger := new(MockGameLedger)
	mockStats := new(MockStatsService)
	reconciler := newTestReconciler(mockLedger, mockStats)
	defer reconciler.Close()

	stream := make(chan models.LedgerEvent)
	mockLedger.On("Subscribe", mock.Anything, "0xabc").Return((<-chan models.LedgerEvent)(stream), nil)

	active := &models.SessionSnapshot{
		Kind:  models.GameBlackjack,
		State: models.StateActive,
		Blackjack: &models.BlackjackSnapshot{
			PlayerTotal: 14,
			PlayerCards: []cards.Token{cardToken(0, 2), cardToken(1, 8)},
			DealerCards: []cards.Token{cardToken(2, 11)},
		},
	}
	mockLedger.On("GetSessionState", mock.Anything, models.GameBlackjack, "", "0xabc").Return(active, nil).Once()
	mockLedger.On("GetSessionState", mock.Anything, models.GameBlackjack, "", "0xabc").
		Return(nil, &models.NetworkError{Op: "get state", Err: errors.New("connection reset")}).Once()

	_, err := reconciler.Track(ctx, blackjackSession())
	require.NoError(t, err)

	session, err := reconciler.Reconcile(ctx, "blackjack/0xabc")
	require.Error(t, err)
	assert.True(t, models.IsTransient(err))

	// The previous good state survives the failed pass untouched
	require.NotNil(t, session)
	assert.Equal(t, models.StateActive, session.State)
	assert.Equal(t, 14, session.Blackjack.PlayerTotal)
}

func TestSessionReconciler_UntrackedSession(t *testing.T) {
	ctx := context.Background()

	reconciler := newTestReconciler(new(MockGameLedger), new(MockStatsService))
	defer reconciler.Close()

	_, err := reconciler.Reconcile(ctx, "blackjack/0xnobody")
	assert.ErrorIs(t, err, models.ErrNoActiveSession)

	_, ok := reconciler.Session("blackjack/0xnobody")
	assert.False(t, ok)
}

func TestSessionReconciler_ReleaseStopsTracking(t *testing.T) {
	ctx := context.Background()

	mockLedger := new(MockGameLedger)
	mockStats := new(MockStatsService)
	reconciler := newTestReconciler(mockLedger, mockStats)

	stream := make(chan models.LedgerEvent)
	mockLedger.On("Subscribe", mock.Anything, "0xabc").Return((<-chan models.LedgerEvent)(stream), nil)

	active := &models.SessionSnapshot{
		Kind:      models.GameBlackjack,
		State:     models.StateActive,
		Blackjack: &models.BlackjackSnapshot{},
	}
	mockLedger.On("GetSessionState", mock.Anything, models.GameBlackjack, "", "0xabc").Return(active, nil)

	_, err := reconciler.Track(ctx, blackjackSession())
	require.NoError(t, err)

	reconciler.Release("blackjack/0xabc")

	_, ok := reconciler.Session("blackjack/0xabc")
	assert.False(t, ok)
	_, err = reconciler.Reconcile(ctx, "blackjack/0xabc")
	assert.ErrorIs(t, err, models.ErrNoActiveSession)
}

func TestSessionReconciler_PushedEventTriggersReconcile(t *testing.T) {
	ctx := context.Background()

	mockLedger := new(MockGameLedger)
	mockStats := new(MockStatsService)
	reconciler := newTestReconciler(mockLedger, mockStats)
	defer reconciler.Close()

	stream := make(chan models.LedgerEvent)
	mockLedger.On("Subscribe", mock.Anything, "0xabc").Return((<-chan models.LedgerEvent)(stream), nil)

	waiting := &models.SessionSnapshot{
		Kind:      models.GameBlackjack,
		State:     models.StateWaiting,
		Blackjack: &models.BlackjackSnapshot{},
	}
	active := &models.SessionSnapshot{
		Kind:  models.GameBlackjack,
		State: models.StateActive,
		Blackjack: &models.BlackjackSnapshot{
			PlayerTotal: 12,
			PlayerCards: []cards.Token{cardToken(0, 0), cardToken(1, 6)},
			DealerCards: []cards.Token{cardToken(2, 11), cardToken(3, 9)},
		},
	}
	mockLedger.On("GetSessionState", mock.Anything, models.GameBlackjack, "", "0xabc").Return(waiting, nil).Once()
	mockLedger.On("GetSessionState", mock.Anything, models.GameBlackjack, "", "0xabc").Return(active, nil)

	_, err := reconciler.Track(ctx, blackjackSession())
	require.NoError(t, err)

	stream <- models.LedgerEvent{Type: models.EventCardsDealt, Account: "0xabc"}

	assert.Eventually(t, func() bool {
		session, ok := reconciler.Session("blackjack/0xabc")
		return ok && session.State == models.StateActive
	}, time.Second, 10*time.Millisecond)
}

func TestSessionReconciler_BlackjackRoundEndToEnd(t *testing.T) {
	ctx := context.Background()

	mockLedger := new(MockGameLedger)
	mockStats := new(MockStatsService)
	reconciler := newTestReconciler(mockLedger, mockStats)
	defer reconciler.Close()

	stream := make(chan models.LedgerEvent)
	mockLedger.On("Subscribe", mock.Anything, "0xabc").Return((<-chan models.LedgerEvent)(stream), nil)

	dealt := &models.SessionSnapshot{
		Kind:      models.GameBlackjack,
		State:     models.StateActive,
		BetAmount: decimal.NewFromFloat(0.01),
		Blackjack: &models.BlackjackSnapshot{
			PlayerTotal:    13,
			DealerRevealed: false,
			PlayerCards:    []cards.Token{cardToken(1, 6), cardToken(2, 3)},
			DealerCards:    []cards.Token{cardToken(0, 8), cardToken(3, 11)},
		},
	}
	afterHit := &models.SessionSnapshot{
		Kind:      models.GameBlackjack,
		State:     models.StateActive,
		BetAmount: decimal.NewFromFloat(0.01),
		Blackjack: &models.BlackjackSnapshot{
			PlayerTotal:    20,
			DealerRevealed: false,
			PlayerCards:    []cards.Token{cardToken(1, 6), cardToken(2, 3), cardToken(0, 5)},
			DealerCards:    []cards.Token{cardToken(0, 8), cardToken(3, 11)},
		},
	}
	settled := &models.SessionSnapshot{
		Kind:      models.GameBlackjack,
		State:     models.StateCompleted,
		BetAmount: decimal.NewFromFloat(0.01),
		Blackjack: &models.BlackjackSnapshot{
			PlayerTotal:    20,
			DealerTotal:    23,
			DealerRevealed: true,
			PlayerWon:      true,
			Payout:         decimal.NewFromFloat(0.02),
			PlayerCards:    []cards.Token{cardToken(1, 6), cardToken(2, 3), cardToken(0, 5)},
			DealerCards:    []cards.Token{cardToken(0, 8), cardToken(3, 11), cardToken(2, 4)},
		},
	}
	mockLedger.On("GetSessionState", mock.Anything, models.GameBlackjack, "", "0xabc").Return(dealt, nil).Once()
	mockLedger.On("GetSessionState", mock.Anything, models.GameBlackjack, "", "0xabc").Return(afterHit, nil).Once()
	mockLedger.On("GetSessionState", mock.Anything, models.GameBlackjack, "", "0xabc").Return(settled, nil).Once()

	mockStats.On("RecordCompletion", mock.Anything, "0xabc", models.GameBlackjack,
		models.OutcomeWin, decimal.NewFromFloat(0.01), decimal.NewFromFloat(0.02)).
		Return(models.NewPlayerStatsRecord("0xabc"), nil)

	session, err := reconciler.Track(ctx, blackjackSession())
	require.NoError(t, err)
	require.Equal(t, models.StateActive, session.State)
	assert.True(t, session.Blackjack.DealerCards[1].IsHidden())

	session, err = reconciler.Reconcile(ctx, "blackjack/0xabc")
	require.NoError(t, err)
	assert.Equal(t, 20, session.Blackjack.PlayerTotal)
	assert.Len(t, session.Blackjack.PlayerCards, 3)

	session, err = reconciler.Reconcile(ctx, "blackjack/0xabc")
	require.NoError(t, err)
	assert.Equal(t, models.StateCompleted, session.State)
	assert.True(t, session.Blackjack.DealerRevealed)
	assert.Equal(t, 23, session.Blackjack.DealerTotal)
	assert.False(t, session.Blackjack.DealerCards[1].IsHidden())
	assert.Equal(t, "Dealer busts! You win!", session.BlackjackMessage())

	mockStats.AssertExpectations(t)
}
