package testutil

import (
	"time"

	"github.com/shopspring/decimal"

	"betfin/models"
)

// CreateTestRecentGame creates a recent-games feed entry with default values
func CreateTestRecentGame(game models.GameKind, result models.Outcome) models.RecentGame {
	winnings := decimal.Zero
	if result == models.OutcomeWin {
		winnings = decimal.NewFromFloat(0.02)
	}
	return models.RecentGame{
		Game:     game,
		Result:   result,
		Amount:   decimal.NewFromFloat(0.01),
		Winnings: winnings,
		PlayedAt: time.Now().UTC(),
	}
}

// CreateTestAchievement creates an achievement with default values
func CreateTestAchievement(name string) models.Achievement {
	return models.Achievement{
		Name:        name,
		Description: "test achievement",
		Icon:        "🏆",
		EarnedAt:    time.Now().UTC(),
	}
}
