package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ActionKind names an action a player can submit against the ledger.
type ActionKind string

const (
	ActionStart  ActionKind = "start"
	ActionJoin   ActionKind = "join"
	ActionHit    ActionKind = "hit"
	ActionStand  ActionKind = "stand"
	ActionDouble ActionKind = "double"
	ActionFold   ActionKind = "fold"
	ActionCheck  ActionKind = "check"
	ActionCall   ActionKind = "call"
	ActionRaise  ActionKind = "raise"
	ActionAllIn  ActionKind = "all_in"
	ActionSpin   ActionKind = "spin"
	ActionClaim  ActionKind = "claim"
)

// PendingStatus tracks the lifecycle of a submitted action.
type PendingStatus string

const (
	PendingInFlight  PendingStatus = "in_flight"
	PendingConfirmed PendingStatus = "confirmed"
	PendingReverted  PendingStatus = "reverted"
)

// Action is one outgoing player action before signing and submission.
type Action struct {
	Kind      ActionKind
	Game      GameKind
	SessionID string
	Account   string
	Amount    decimal.Decimal
}

// SessionKey identifies the session an action belongs to: the explicit
// session id for multi-table games, or game/account for games with one
// implicit session per account.
func (a Action) SessionKey() string {
	if a.SessionID != "" {
		return a.SessionID
	}
	return string(a.Game) + "/" + a.Account
}

// PendingAction is the ephemeral in-flight record for one submission.
// At most one exists per session; it is discarded once resolved.
type PendingAction struct {
	Kind        ActionKind
	SessionID   string
	SubmittedAt time.Time
	Status      PendingStatus
}

// Receipt identifies a submitted-but-unconfirmed transaction.
type Receipt struct {
	TxHash      string
	SubmittedAt time.Time
}

// Confirmation is the ledger's acknowledgement that a transaction was
// included and executed.
type Confirmation struct {
	TxHash      string
	BlockNumber uint64
	ConfirmedAt time.Time
}
