package models

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for local precondition failures. These bubble to the
// presentation layer for explicit user notification.
var (
	// ErrNotConnected means no signing identity is available.
	ErrNotConnected = errors.New("wallet not connected")

	// ErrActionInProgress means a submission was attempted while one was
	// already pending for the session. The network is never contacted.
	ErrActionInProgress = errors.New("an action is already in progress for this session")

	// ErrNoActiveSession means an action was requested with no session
	// context; the local view resets to the lobby.
	ErrNoActiveSession = errors.New("no active game session")
)

// RevertError means the ledger rejected the action.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return "transaction reverted"
	}
	return fmt.Sprintf("transaction reverted: %s", e.Reason)
}

// NetworkError is a transient fetch or submit failure. Reconciliation
// retries on its next scheduled pass rather than escalating.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// TimedOutError means an awaited confirmation exceeded its bound.
// Distinct from NetworkError: the transaction may still land later.
type TimedOutError struct {
	TxHash string
	After  time.Duration
}

func (e *TimedOutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for confirmation of %s", e.After, e.TxHash)
}

// IsTransient reports whether an error should be absorbed and retried on
// the next reconciliation pass.
func IsTransient(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
