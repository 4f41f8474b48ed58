package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"betfin/events"
	"betfin/models"
)

// txSubmitter implements the TransactionSubmitter interface
type txSubmitter struct {
	wallet         WalletProvider
	reconciler     SessionReconciler
	eventBus       *events.Bus
	confirmTimeout time.Duration

	mu       sync.Mutex
	inflight map[string]*models.PendingAction
}

// NewTransactionSubmitter creates a new transaction submitter
func NewTransactionSubmitter(wallet WalletProvider, reconciler SessionReconciler, eventBus *events.Bus, confirmTimeout time.Duration) TransactionSubmitter {
	return &txSubmitter{
		wallet:         wallet,
		reconciler:     reconciler,
		eventBus:       eventBus,
		confirmTimeout: confirmTimeout,
		inflight:       make(map[string]*models.PendingAction),
	}
}

func (s *txSubmitter) Submit(ctx context.Context, action models.Action) (*models.Confirmation, error) {
	account, ok := s.wallet.CurrentAccount()
	if !ok {
		return nil, models.ErrNotConnected
	}
	if action.Account == "" {
		action.Account = account
	}

	key := action.SessionKey()

	// Exactly one pending action per session; a second attempt is rejected
	// before any network call
	pending, err := s.begin(key, action.Kind)
	if err != nil {
		return nil, err
	}
	defer s.finish(key)

	receipt, err := s.wallet.Submit(ctx, action)
	if err != nil {
		pending.Status = models.PendingReverted
		return nil, fmt.Errorf("failed to submit %s action: %w", action.Kind, err)
	}

	log.WithFields(log.Fields{
		"txHash":  receipt.TxHash,
		"action":  action.Kind,
		"session": key,
	}).Info("Action submitted, awaiting confirmation")

	confirmCtx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()

	confirmation, err := s.wallet.AwaitConfirmation(confirmCtx, receipt)
	if err != nil {
		pending.Status = models.PendingReverted
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &models.TimedOutError{TxHash: receipt.TxHash, After: s.confirmTimeout}
		}
		return nil, fmt.Errorf("action %s not confirmed: %w", action.Kind, err)
	}
	pending.Status = models.PendingConfirmed

	s.eventBus.Emit(ctx, events.ActionConfirmedEvent{
		SessionID: key,
		Account:   action.Account,
		Action:    action.Kind,
		TxHash:    confirmation.TxHash,
	})

	// One immediate reconciliation pass for the owning session. A session
	// that is not tracked yet (a start action) is picked up by Track.
	if _, err := s.reconciler.Reconcile(ctx, key); err != nil && !errors.Is(err, models.ErrNoActiveSession) {
		log.WithError(err).WithField("session", key).Warn("Post-confirmation reconciliation failed")
	}

	return confirmation, nil
}

func (s *txSubmitter) Pending(sessionID string) *models.PendingAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight[sessionID]
}

// begin registers the pending action, failing when one is already in
// flight for the session.
func (s *txSubmitter) begin(key string, kind models.ActionKind) (*models.PendingAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing := s.inflight[key]; existing != nil {
		return nil, models.ErrActionInProgress
	}

	pending := &models.PendingAction{
		Kind:        kind,
		SessionID:   key,
		SubmittedAt: time.Now().UTC(),
		Status:      models.PendingInFlight,
	}
	s.inflight[key] = pending
	return pending, nil
}

// finish discards the pending action once resolved; it is never
// persisted past resolution.
func (s *txSubmitter) finish(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, key)
}
