package models

import (
	"github.com/shopspring/decimal"

	"betfin/cards"
)

// SessionSnapshot is the ledger's public view of one session at one
// moment. Card fields arrive as opaque tokens; the reconciler decodes
// them subject to the snapshot's own reveal flag.
type SessionSnapshot struct {
	SessionID string
	Account   string
	Kind      GameKind
	State     SessionState
	BetAmount decimal.Decimal

	Blackjack *BlackjackSnapshot
	Poker     *PokerSnapshot
	Slots     *SlotsSnapshot
}

// BlackjackSnapshot mirrors the contract's getGameState plus the hand
// tokens from getHand. DealerRevealed gates decoding of dealer cards.
type BlackjackSnapshot struct {
	PlayerTotal    int
	DealerTotal    int
	DealerRevealed bool
	PlayerCards    []cards.Token
	DealerCards    []cards.Token
	PlayerWon      bool
	Payout         decimal.Decimal
}

// PokerSnapshot mirrors getGameInfo/getPlayerInfo for the requesting
// account. Only the requester's own hand is ever present.
type PokerSnapshot struct {
	Players       []string
	Pot           decimal.Decimal
	CurrentBet    decimal.Decimal
	CurrentPlayer string
	Balance       decimal.Decimal
	HasFolded     bool
	IsAllIn       bool
	Hand          []cards.Token
	Community     []cards.Token
	Winner        string
	Prize         decimal.Decimal
}

// SlotsSnapshot mirrors the spin result and machine jackpot.
type SlotsSnapshot struct {
	Reels   [3]int
	Payout  decimal.Decimal
	Jackpot decimal.Decimal
}

// LedgerEventType names the asynchronous events the ledger emits.
type LedgerEventType string

const (
	EventSessionStarted   LedgerEventType = "session_started"
	EventActionTaken      LedgerEventType = "action_taken"
	EventCardsDealt       LedgerEventType = "cards_dealt"
	EventSessionCompleted LedgerEventType = "session_completed"
)

// LedgerEvent is one pushed notification from the ledger's event stream.
// Delivery may be duplicated or out of order; consumers must tolerate
// both.
type LedgerEvent struct {
	Type      LedgerEventType
	SessionID string
	Account   string
	Winner    string
	Payout    decimal.Decimal
	Cards     []cards.Token
}
