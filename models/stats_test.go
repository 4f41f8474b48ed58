package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlayerStatsRecord(t *testing.T) {
	record := NewPlayerStatsRecord("0xabc")

	assert.Equal(t, "0xabc", record.Account)
	assert.Equal(t, 0, record.TotalGames)
	assert.True(t, record.TotalWagered.IsZero())
	assert.False(t, record.MemberSince.IsZero())
	for _, kind := range GameKinds {
		require.Contains(t, record.GameStats, kind)
		assert.Equal(t, 0, record.GameStats[kind].Played)
	}
}

func TestPlayerStatsRecord_NetProfit(t *testing.T) {
	record := NewPlayerStatsRecord("0xabc")
	record.TotalWagered = decimal.NewFromFloat(1.5)
	record.TotalWon = decimal.NewFromFloat(2.0)

	assert.True(t, record.NetProfit().Equal(decimal.NewFromFloat(0.5)))

	record.TotalWon = decimal.NewFromFloat(1.0)
	assert.True(t, record.NetProfit().Equal(decimal.NewFromFloat(-0.5)))
}

func TestPlayerStatsRecord_FavoriteGame(t *testing.T) {
	t.Run("nothing played means no favorite", func(t *testing.T) {
		record := NewPlayerStatsRecord("0xabc")
		assert.Equal(t, GameKind(""), record.FavoriteGame())
	})

	t.Run("highest played count wins", func(t *testing.T) {
		record := NewPlayerStatsRecord("0xabc")
		record.GameStats[GameBlackjack].Played = 3
		record.GameStats[GameSlots].Played = 7
		assert.Equal(t, GameSlots, record.FavoriteGame())
	})

	t.Run("tie breaks toward the earlier game", func(t *testing.T) {
		record := NewPlayerStatsRecord("0xabc")
		record.GameStats[GamePoker].Played = 5
		record.GameStats[GameSlots].Played = 5
		assert.Equal(t, GamePoker, record.FavoriteGame())
	})
}

func TestPlayerStatsRecord_HasAchievement(t *testing.T) {
	record := NewPlayerStatsRecord("0xabc")
	assert.False(t, record.HasAchievement("First Win"))

	record.Achievements = append(record.Achievements, Achievement{Name: "First Win"})
	assert.True(t, record.HasAchievement("First Win"))
	assert.False(t, record.HasAchievement("High Roller"))
}
