package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecentGamesLimit caps the recent-games feed per account.
const RecentGamesLimit = 10

// GameStats holds per-game sub-totals for one account.
type GameStats struct {
	Played    int
	Won       int
	Wagered   decimal.Decimal
	WonAmount decimal.Decimal
}

// Achievement is a one-time named milestone, unique by name per account.
type Achievement struct {
	Name        string
	Description string
	Icon        string
	EarnedAt    time.Time
}

// RecentGame is one entry in the newest-first completions feed.
type RecentGame struct {
	Game     GameKind
	Result   Outcome
	Amount   decimal.Decimal
	Winnings decimal.Decimal
	PlayedAt time.Time
}

// PlayerStatsRecord is the durable per-account performance record.
type PlayerStatsRecord struct {
	Account      string
	TotalGames   int
	GamesWon     int
	TotalWagered decimal.Decimal
	TotalWon     decimal.Decimal
	MemberSince  time.Time
	Achievements []Achievement
	RecentGames  []RecentGame
	GameStats    map[GameKind]*GameStats
}

// NewPlayerStatsRecord returns the zeroed default record for an account,
// with all three games present.
func NewPlayerStatsRecord(account string) *PlayerStatsRecord {
	stats := make(map[GameKind]*GameStats, len(GameKinds))
	for _, kind := range GameKinds {
		stats[kind] = &GameStats{
			Wagered:   decimal.Zero,
			WonAmount: decimal.Zero,
		}
	}
	return &PlayerStatsRecord{
		Account:      account,
		TotalWagered: decimal.Zero,
		TotalWon:     decimal.Zero,
		MemberSince:  time.Now().UTC(),
		GameStats:    stats,
	}
}

// NetProfit is always derived, never stored: totalWon - totalWagered.
func (r *PlayerStatsRecord) NetProfit() decimal.Decimal {
	return r.TotalWon.Sub(r.TotalWagered)
}

// FavoriteGame is the game with the highest played count; ties break
// toward the earlier entry in GameKinds. Empty string when nothing has
// been played.
func (r *PlayerStatsRecord) FavoriteGame() GameKind {
	var favorite GameKind
	best := 0
	for _, kind := range GameKinds {
		gs := r.GameStats[kind]
		if gs != nil && gs.Played > best {
			best = gs.Played
			favorite = kind
		}
	}
	return favorite
}

// HasAchievement reports whether the named achievement is already
// unlocked.
func (r *PlayerStatsRecord) HasAchievement(name string) bool {
	for _, a := range r.Achievements {
		if a.Name == name {
			return true
		}
	}
	return false
}

// LeaderboardEntry is one ranked row of the casino leaderboard.
type LeaderboardEntry struct {
	Rank       int
	Account    string
	TotalGames int
	GamesWon   int
	NetProfit  decimal.Decimal
	WinRate    float64
}
