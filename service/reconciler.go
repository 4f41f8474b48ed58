package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"betfin/cards"
	"betfin/events"
	"betfin/models"
	"betfin/slots"
)

// sessionReconciler implements the SessionReconciler interface. It is
// the only component that mutates a GameSession once tracking starts;
// every trigger path (post-confirmation refresh, periodic poll, pushed
// event) funnels into the same idempotent merge.
type sessionReconciler struct {
	ledger       GameLedger
	stats        StatsService
	eventBus     *events.Bus
	pollInterval time.Duration

	mu       sync.Mutex
	sessions map[string]*trackedSession
}

type trackedSession struct {
	session *models.GameSession

	// recorded guards the exactly-once stats write for the Completed
	// transition; duplicate Completed snapshots must not double-record
	recorded bool

	// cancel stops the poll ticker and event subscription
	cancel context.CancelFunc
}

// NewSessionReconciler creates a new session reconciler
func NewSessionReconciler(ledger GameLedger, stats StatsService, eventBus *events.Bus, pollInterval time.Duration) SessionReconciler {
	return &sessionReconciler{
		ledger:       ledger,
		stats:        stats,
		eventBus:     eventBus,
		pollInterval: pollInterval,
		sessions:     make(map[string]*trackedSession),
	}
}

func (r *sessionReconciler) Track(ctx context.Context, session *models.GameSession) (*models.GameSession, error) {
	key := session.Key()

	r.mu.Lock()
	if existing, ok := r.sessions[key]; ok {
		held := existing.session.Clone()
		r.mu.Unlock()
		return held, nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	tracked := &trackedSession{session: session, cancel: cancel}
	r.sessions[key] = tracked
	r.mu.Unlock()

	go r.run(loopCtx, key, session.Account)

	log.WithFields(log.Fields{
		"session": key,
		"game":    session.Kind,
		"account": session.Account,
	}).Info("Tracking game session")

	// Immediate first pass; a transient fetch failure is non-fatal, the
	// poll loop retries
	merged, err := r.Reconcile(ctx, key)
	if err != nil && !models.IsTransient(err) {
		return merged, err
	}
	return merged, nil
}

func (r *sessionReconciler) Session(sessionID string) (*models.GameSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tracked, ok := r.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return tracked.session.Clone(), true
}

func (r *sessionReconciler) Reconcile(ctx context.Context, sessionID string) (*models.GameSession, error) {
	r.mu.Lock()
	tracked, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return nil, models.ErrNoActiveSession
	}
	kind := tracked.session.Kind
	id := tracked.session.ID
	account := tracked.session.Account
	r.mu.Unlock()

	snapshot, err := r.ledger.GetSessionState(ctx, kind, id, account)
	if err != nil {
		// Previous good state is retained untouched; transient errors are
		// retried on the next scheduled pass
		r.mu.Lock()
		held := tracked.session.Clone()
		r.mu.Unlock()
		return held, fmt.Errorf("failed to fetch session state: %w", err)
	}

	return r.apply(ctx, sessionID, snapshot)
}

// apply merges a snapshot into the tracked session under the forward-only
// rule and fires the completion side effects exactly once.
func (r *sessionReconciler) apply(ctx context.Context, sessionID string, snapshot *models.SessionSnapshot) (*models.GameSession, error) {
	r.mu.Lock()
	tracked, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return nil, models.ErrNoActiveSession
	}
	session := tracked.session

	// A snapshot reporting an earlier state than held is stale, from
	// out-of-order delivery; it is discarded, never applied
	if !snapshot.State.AtLeast(session.State) {
		log.WithFields(log.Fields{
			"session":  sessionID,
			"held":     session.State,
			"snapshot": snapshot.State,
		}).Debug("Discarding stale snapshot")
		held := session.Clone()
		r.mu.Unlock()
		return held, nil
	}

	completedNow := snapshot.State == models.StateCompleted && session.State != models.StateCompleted

	mergeSnapshot(session, snapshot)
	session.LastSyncedAt = time.Now().UTC()

	shouldRecord := session.State == models.StateCompleted && !tracked.recorded
	if shouldRecord {
		// Claim the write before releasing the lock so concurrent passes
		// observing the same Completed snapshot cannot double-record
		tracked.recorded = true
	}

	if session.State.Terminal() && !shouldRecord {
		// The session is over and its completion is accounted for; stop
		// the poll ticker and event subscription. A pending stats write
		// keeps the loop alive until recordCompletion resolves it.
		tracked.cancel()
	}

	// Callers get a copy; the tracked mirror stays private to the merge
	merged := session.Clone()
	r.mu.Unlock()

	r.eventBus.Emit(ctx, events.SessionUpdatedEvent{
		SessionID: sessionID,
		Account:   merged.Account,
		Game:      merged.Kind,
		State:     merged.State,
	})

	if shouldRecord {
		r.recordCompletion(ctx, sessionID, tracked, merged)
	} else if completedNow {
		log.WithField("session", sessionID).Debug("Completion already recorded")
	}

	return merged, nil
}

// recordCompletion writes the finished game to the stats ledger and
// emits the completion event. On failure the recorded claim is returned
// and the scheduling loop stays up so its next pass over the same
// Completed snapshot retries; teardown happens only after a successful
// write.
func (r *sessionReconciler) recordCompletion(ctx context.Context, sessionID string, tracked *trackedSession, session *models.GameSession) {
	outcome, winnings := session.CompletionOutcome()

	if session.Kind == models.GameSlots && session.Slots != nil {
		r.checkPayoutPreview(sessionID, session)
	}

	if _, err := r.stats.RecordCompletion(ctx, session.Account, session.Kind, outcome, session.BetAmount, winnings); err != nil {
		log.WithError(err).WithField("session", sessionID).Warn("Failed to record completed game, will retry")
		r.mu.Lock()
		tracked.recorded = false
		r.mu.Unlock()
		return
	}

	r.eventBus.Emit(ctx, events.SessionCompletedEvent{
		SessionID: sessionID,
		Account:   session.Account,
		Game:      session.Kind,
		Result:    outcome,
		Wagered:   session.BetAmount,
		Winnings:  winnings,
	})

	tracked.cancel()
}

// checkPayoutPreview compares the ledger's settled payout against the
// local advisory table. A mismatch is diagnostic only; the ledger's
// value always stands.
func (r *sessionReconciler) checkPayoutPreview(sessionID string, session *models.GameSession) {
	view := session.Slots
	reels := slots.Reels{
		slots.Symbol(view.Reels[0]),
		slots.Symbol(view.Reels[1]),
		slots.Symbol(view.Reels[2]),
	}
	preview := slots.PreviewPayout(reels, session.BetAmount)
	if !preview.Equal(view.Payout) {
		log.WithFields(log.Fields{
			"session": sessionID,
			"preview": preview,
			"ledger":  view.Payout,
		}).Warn("Advisory payout preview disagrees with ledger payout")
	}
}

func (r *sessionReconciler) Release(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tracked, ok := r.sessions[sessionID]; ok {
		tracked.cancel()
		delete(r.sessions, sessionID)
	}
}

func (r *sessionReconciler) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, tracked := range r.sessions {
		tracked.cancel()
		delete(r.sessions, key)
	}
}

// run is the per-session scheduling loop: a periodic poll plus the
// pushed event subscription, both funneling into Reconcile.
func (r *sessionReconciler) run(ctx context.Context, sessionID, account string) {
	ledgerEvents, err := r.ledger.Subscribe(ctx, account)
	if err != nil {
		log.WithError(err).WithField("session", sessionID).Warn("Event subscription unavailable, polling only")
		ledgerEvents = nil
	}

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Reconcile(ctx, sessionID); err != nil && models.IsTransient(err) {
				log.WithError(err).WithField("session", sessionID).Debug("Poll reconciliation deferred")
			}
		case ev, ok := <-ledgerEvents:
			if !ok {
				ledgerEvents = nil
				continue
			}
			if !eventMatches(ev, sessionID, account) {
				continue
			}
			if _, err := r.Reconcile(ctx, sessionID); err != nil && models.IsTransient(err) {
				log.WithError(err).WithField("session", sessionID).Debug("Event reconciliation deferred")
			}
		}
	}
}

// eventMatches reports whether a pushed event names this session or its
// owning account.
func eventMatches(ev models.LedgerEvent, sessionID, account string) bool {
	if ev.SessionID != "" {
		return ev.SessionID == sessionID
	}
	return ev.Account == account
}

// mergeSnapshot copies the snapshot into the session, decoding card
// tokens and honoring the concealment rule: a card the snapshot's own
// reveal flag marks hidden is never decoded, whatever its token holds.
func mergeSnapshot(session *models.GameSession, snapshot *models.SessionSnapshot) {
	session.State = snapshot.State
	if snapshot.BetAmount.Sign() > 0 {
		// Doubles and raises grow the exposure; the ledger's figure wins
		session.BetAmount = snapshot.BetAmount
	}
	if snapshot.SessionID != "" {
		session.ID = snapshot.SessionID
	}

	switch {
	case snapshot.Blackjack != nil:
		session.Blackjack = decodeBlackjack(snapshot.Blackjack)
	case snapshot.Poker != nil:
		session.Poker = decodePoker(snapshot.Poker)
	case snapshot.Slots != nil:
		session.Slots = &models.SlotsView{
			Reels:   snapshot.Slots.Reels,
			Payout:  snapshot.Slots.Payout,
			Jackpot: snapshot.Slots.Jackpot,
		}
	}
}

func decodeBlackjack(snap *models.BlackjackSnapshot) *models.BlackjackView {
	view := &models.BlackjackView{
		PlayerTotal:    snap.PlayerTotal,
		DealerRevealed: snap.DealerRevealed,
		PlayerWon:      snap.PlayerWon,
		Payout:         snap.Payout,
		PlayerCards:    cards.DecodeAll(snap.PlayerCards),
	}

	if snap.DealerRevealed {
		view.DealerTotal = snap.DealerTotal
		view.DealerCards = cards.DecodeAll(snap.DealerCards)
		return view
	}

	// Up card only; the hole card and anything after stay concealed even
	// when their tokens are present in the snapshot
	view.DealerCards = make([]cards.Card, len(snap.DealerCards))
	for i := range snap.DealerCards {
		if i == 0 {
			view.DealerCards[i] = cards.Decode(snap.DealerCards[i])
		} else {
			view.DealerCards[i] = cards.Hidden()
		}
	}
	return view
}

func decodePoker(snap *models.PokerSnapshot) *models.PokerView {
	return &models.PokerView{
		Players:       snap.Players,
		Pot:           snap.Pot,
		CurrentBet:    snap.CurrentBet,
		CurrentPlayer: snap.CurrentPlayer,
		Balance:       snap.Balance,
		HasFolded:     snap.HasFolded,
		IsAllIn:       snap.IsAllIn,
		Hand:          cards.DecodeAll(snap.Hand),
		Community:     cards.DecodeAll(snap.Community),
		Winner:        snap.Winner,
		Prize:         snap.Prize,
	}
}
