package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"betfin/events"
	"betfin/models"
)

// achievementDef pairs a milestone with the predicate that unlocks it.
// Predicates are evaluated against the record after the current game has
// been applied.
type achievementDef struct {
	achievement models.Achievement
	unlocked    func(r *models.PlayerStatsRecord) bool
}

var achievementDefs = []achievementDef{
	{
		achievement: models.Achievement{
			Name:        "First Win",
			Description: "Win your first game",
			Icon:        "🏆",
		},
		unlocked: func(r *models.PlayerStatsRecord) bool {
			return r.GamesWon >= 1
		},
	},
	{
		achievement: models.Achievement{
			Name:        "High Roller",
			Description: "Wager 10 ETH total",
			Icon:        "💎",
		},
		unlocked: func(r *models.PlayerStatsRecord) bool {
			return r.TotalWagered.GreaterThanOrEqual(decimal.NewFromInt(10))
		},
	},
	{
		achievement: models.Achievement{
			Name:        "Poker Pro",
			Description: "Play 10 poker games",
			Icon:        "♠️",
		},
		unlocked: func(r *models.PlayerStatsRecord) bool {
			gs := r.GameStats[models.GamePoker]
			return gs != nil && gs.Played >= 10
		},
	},
	{
		achievement: models.Achievement{
			Name:        "Lucky Spin",
			Description: "Win at slots",
			Icon:        "🎰",
		},
		unlocked: func(r *models.PlayerStatsRecord) bool {
			gs := r.GameStats[models.GameSlots]
			return gs != nil && gs.Won >= 1
		},
	},
	{
		achievement: models.Achievement{
			Name:        "Blackjack Master",
			Description: "Win 5 blackjack games",
			Icon:        "🃏",
		},
		unlocked: func(r *models.PlayerStatsRecord) bool {
			gs := r.GameStats[models.GameBlackjack]
			return gs != nil && gs.Won >= 5
		},
	},
}

// statsService implements the StatsService interface
type statsService struct {
	uowFactory UnitOfWorkFactory
}

// NewStatsService creates a new stats service
func NewStatsService(uowFactory UnitOfWorkFactory) StatsService {
	return &statsService{
		uowFactory: uowFactory,
	}
}

func (s *statsService) RecordCompletion(ctx context.Context, account string, game models.GameKind, result models.Outcome, wagered, winnings decimal.Decimal) (*models.PlayerStatsRecord, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	repo := uow.StatsRepository()

	record, err := repo.GetForUpdate(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to lock player stats: %w", err)
	}

	now := time.Now().UTC()
	won := result == models.OutcomeWin

	record.TotalGames++
	record.TotalWagered = record.TotalWagered.Add(wagered)
	record.TotalWon = record.TotalWon.Add(winnings)
	if won {
		record.GamesWon++
	}

	gameStats := record.GameStats[game]
	if gameStats == nil {
		gameStats = &models.GameStats{Wagered: decimal.Zero, WonAmount: decimal.Zero}
		record.GameStats[game] = gameStats
	}
	gameStats.Played++
	gameStats.Wagered = gameStats.Wagered.Add(wagered)
	gameStats.WonAmount = gameStats.WonAmount.Add(winnings)
	if won {
		gameStats.Won++
	}

	if err := repo.UpdateTotals(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to update totals: %w", err)
	}
	if err := repo.UpsertGameStats(ctx, account, game, gameStats); err != nil {
		return nil, fmt.Errorf("failed to update game stats: %w", err)
	}

	recent := models.RecentGame{
		Game:     game,
		Result:   result,
		Amount:   wagered,
		Winnings: winnings,
		PlayedAt: now,
	}
	if err := repo.InsertRecentGame(ctx, account, recent); err != nil {
		return nil, fmt.Errorf("failed to insert recent game: %w", err)
	}
	if err := repo.TrimRecentGames(ctx, account, models.RecentGamesLimit); err != nil {
		return nil, fmt.Errorf("failed to trim recent games: %w", err)
	}
	record.RecentGames = append([]models.RecentGame{recent}, record.RecentGames...)
	if len(record.RecentGames) > models.RecentGamesLimit {
		record.RecentGames = record.RecentGames[:models.RecentGamesLimit]
	}

	unlocked, err := s.evaluateAchievements(ctx, repo, account, record, now)
	if err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.StatsRecordedEvent{
		Account:    account,
		Game:       game,
		Result:     result,
		TotalGames: record.TotalGames,
		NetProfit:  record.NetProfit(),
	})
	for _, a := range unlocked {
		uow.EventBus().Publish(events.AchievementUnlockedEvent{
			Account:     account,
			Name:        a.Name,
			Description: a.Description,
			Icon:        a.Icon,
		})
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"account":  account,
		"game":     game,
		"result":   result,
		"wagered":  wagered,
		"winnings": winnings,
	}).Info("Recorded completed game")

	return record, nil
}

// evaluateAchievements checks every milestone against the updated record
// and stores the newly earned ones. The unique constraint in the store
// is the final arbiter, so a concurrent unlock of the same milestone
// stays single.
func (s *statsService) evaluateAchievements(ctx context.Context, repo StatsRepository, account string, record *models.PlayerStatsRecord, now time.Time) ([]models.Achievement, error) {
	var unlocked []models.Achievement
	for _, def := range achievementDefs {
		if record.HasAchievement(def.achievement.Name) {
			continue
		}
		if !def.unlocked(record) {
			continue
		}

		earned := def.achievement
		earned.EarnedAt = now

		inserted, err := repo.InsertAchievement(ctx, account, earned)
		if err != nil {
			return nil, fmt.Errorf("failed to insert achievement: %w", err)
		}
		if !inserted {
			continue
		}

		record.Achievements = append(record.Achievements, earned)
		unlocked = append(unlocked, earned)

		log.WithFields(log.Fields{
			"account":     account,
			"achievement": earned.Name,
		}).Info("Achievement unlocked")
	}
	return unlocked, nil
}

func (s *statsService) GetPlayerStats(ctx context.Context, account string) (*models.PlayerStatsRecord, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	record, err := uow.StatsRepository().Get(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to get player stats: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return record, nil
}

func (s *statsService) GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entries, err := uow.StatsRepository().GetLeaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return entries, nil
}
