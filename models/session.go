package models

import (
	"time"

	"github.com/shopspring/decimal"

	"betfin/cards"
)

// GameKind identifies one of the three casino games.
type GameKind string

const (
	GamePoker     GameKind = "poker"
	GameBlackjack GameKind = "blackjack"
	GameSlots     GameKind = "slots"
)

// GameKinds lists all games in the order the original tables were laid
// out; favorite-game ties break toward the earlier entry.
var GameKinds = []GameKind{GamePoker, GameBlackjack, GameSlots}

// SessionState is the lifecycle state of a game session. Transitions are
// strictly forward: Waiting → Active → {Completed, Cancelled}.
type SessionState int

const (
	StateWaiting SessionState = iota
	StateActive
	StateCompleted
	StateCancelled
)

func (s SessionState) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends the session.
func (s SessionState) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// rank orders states for the forward-only merge rule. Completed and
// Cancelled share a rank: both are terminal and neither regresses.
func (s SessionState) rank() int {
	switch s {
	case StateWaiting:
		return 0
	case StateActive:
		return 1
	case StateCompleted, StateCancelled:
		return 2
	default:
		return -1
	}
}

// AtLeast reports whether s is equal to or later than other in the
// Waiting→Active→terminal order.
func (s SessionState) AtLeast(other SessionState) bool {
	return s.rank() >= other.rank()
}

// GameSession is the local mirror of one active engagement between a
// player and a game. It is owned by the reconciler; nothing else mutates
// it once tracking starts.
type GameSession struct {
	ID        string
	Kind      GameKind
	Account   string
	BetAmount decimal.Decimal
	State     SessionState

	// Exactly one of these is populated, matching Kind.
	Blackjack *BlackjackView
	Poker     *PokerView
	Slots     *SlotsView

	// LastSyncedAt is the time of the last successful reconciliation.
	// Staleness indicator only, never used to reorder snapshots.
	LastSyncedAt time.Time
}

// Key identifies the session for tracking: the client-generated id for
// multi-table games, or game/account otherwise.
func (s *GameSession) Key() string {
	if s.ID != "" {
		return s.ID
	}
	return string(s.Kind) + "/" + s.Account
}

// Clone returns a deep copy of the session. The reconciler hands copies
// to its callers so presentation-layer reads never alias the mirror its
// scheduling loop keeps merging into.
func (s *GameSession) Clone() *GameSession {
	if s == nil {
		return nil
	}
	out := *s
	out.Blackjack = s.Blackjack.clone()
	out.Poker = s.Poker.clone()
	out.Slots = s.Slots.clone()
	return &out
}

// BlackjackView is the decoded, presentation-ready blackjack state.
type BlackjackView struct {
	PlayerCards    []cards.Card
	DealerCards    []cards.Card
	PlayerTotal    int
	DealerTotal    int
	DealerRevealed bool
	PlayerWon      bool
	Payout         decimal.Decimal
}

func (v *BlackjackView) clone() *BlackjackView {
	if v == nil {
		return nil
	}
	out := *v
	out.PlayerCards = append([]cards.Card(nil), v.PlayerCards...)
	out.DealerCards = append([]cards.Card(nil), v.DealerCards...)
	return &out
}

// PokerView is the decoded poker table state as visible to the account.
type PokerView struct {
	Players       []string
	Pot           decimal.Decimal
	CurrentBet    decimal.Decimal
	CurrentPlayer string
	Balance       decimal.Decimal
	HasFolded     bool
	IsAllIn       bool
	Hand          []cards.Card
	Community     []cards.Card
	Winner        string
	Prize         decimal.Decimal
}

func (v *PokerView) clone() *PokerView {
	if v == nil {
		return nil
	}
	out := *v
	out.Players = append([]string(nil), v.Players...)
	out.Hand = append([]cards.Card(nil), v.Hand...)
	out.Community = append([]cards.Card(nil), v.Community...)
	return &out
}

// SlotsView is the decoded slot machine state.
type SlotsView struct {
	Reels   [3]int
	Payout  decimal.Decimal
	Jackpot decimal.Decimal
}

func (v *SlotsView) clone() *SlotsView {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

// Outcome classifies how a completed session ended for the player.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomePush Outcome = "push"
)

// CompletionOutcome derives the player's outcome and winnings from a
// completed session. The ledger decided the result; this only mirrors it.
func (s *GameSession) CompletionOutcome() (Outcome, decimal.Decimal) {
	switch s.Kind {
	case GameBlackjack:
		if s.Blackjack == nil {
			return OutcomeLoss, decimal.Zero
		}
		if s.Blackjack.PlayerWon {
			return OutcomeWin, s.Blackjack.Payout
		}
		if s.Blackjack.Payout.Equal(s.BetAmount) && s.Blackjack.Payout.Sign() > 0 {
			return OutcomePush, s.Blackjack.Payout
		}
		return OutcomeLoss, decimal.Zero
	case GamePoker:
		if s.Poker != nil && s.Poker.Winner == s.Account {
			return OutcomeWin, s.Poker.Prize
		}
		return OutcomeLoss, decimal.Zero
	case GameSlots:
		if s.Slots != nil && s.Slots.Payout.Sign() > 0 {
			return OutcomeWin, s.Slots.Payout
		}
		return OutcomeLoss, decimal.Zero
	default:
		return OutcomeLoss, decimal.Zero
	}
}
