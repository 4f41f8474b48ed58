package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betfin/events"
	"betfin/models"
	"betfin/repository/testutil"
)

func TestStatsRepository_Get(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewStatsRepository(testDB.DB)
	ctx := context.Background()

	t.Run("unknown account gets zeroed record", func(t *testing.T) {
		record, err := repo.Get(ctx, "0xunknown")
		require.NoError(t, err)
		require.NotNil(t, record)

		assert.Equal(t, "0xunknown", record.Account)
		assert.Equal(t, 0, record.TotalGames)
		assert.True(t, record.NetProfit().IsZero())
		assert.Empty(t, record.Achievements)
		assert.Empty(t, record.RecentGames)
		for _, kind := range models.GameKinds {
			require.Contains(t, record.GameStats, kind)
			assert.Equal(t, 0, record.GameStats[kind].Played)
		}
	})

	t.Run("stored record round-trips", func(t *testing.T) {
		record, err := repo.GetForUpdate(ctx, "0xabc")
		require.NoError(t, err)

		record.TotalGames = 3
		record.GamesWon = 2
		record.TotalWagered = decimal.NewFromFloat(0.03)
		record.TotalWon = decimal.NewFromFloat(0.05)
		require.NoError(t, repo.UpdateTotals(ctx, record))

		require.NoError(t, repo.UpsertGameStats(ctx, "0xabc", models.GameBlackjack, &models.GameStats{
			Played:    3,
			Won:       2,
			Wagered:   decimal.NewFromFloat(0.03),
			WonAmount: decimal.NewFromFloat(0.05),
		}))

		loaded, err := repo.Get(ctx, "0xabc")
		require.NoError(t, err)

		assert.Equal(t, 3, loaded.TotalGames)
		assert.Equal(t, 2, loaded.GamesWon)
		assert.True(t, loaded.TotalWagered.Equal(decimal.NewFromFloat(0.03)))
		assert.True(t, loaded.NetProfit().Equal(decimal.NewFromFloat(0.02)))
		assert.Equal(t, 3, loaded.GameStats[models.GameBlackjack].Played)
		assert.Equal(t, models.GameBlackjack, loaded.FavoriteGame())
	})
}

func TestStatsRepository_GetForUpdate(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewStatsRepository(testDB.DB)
	ctx := context.Background()

	t.Run("creates missing row", func(t *testing.T) {
		record, err := repo.GetForUpdate(ctx, "0xnew")
		require.NoError(t, err)
		assert.Equal(t, "0xnew", record.Account)
		assert.Equal(t, 0, record.TotalGames)
		assert.False(t, record.MemberSince.IsZero())
	})

	t.Run("idempotent for existing row", func(t *testing.T) {
		first, err := repo.GetForUpdate(ctx, "0xrepeat")
		require.NoError(t, err)

		second, err := repo.GetForUpdate(ctx, "0xrepeat")
		require.NoError(t, err)
		assert.True(t, first.MemberSince.Equal(second.MemberSince))
	})
}

func TestStatsRepository_InsertAchievement(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewStatsRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.GetForUpdate(ctx, "0xabc")
	require.NoError(t, err)

	t.Run("first insert succeeds", func(t *testing.T) {
		inserted, err := repo.InsertAchievement(ctx, "0xabc", testutil.CreateTestAchievement("First Win"))
		require.NoError(t, err)
		assert.True(t, inserted)
	})

	t.Run("duplicate name is a no-op", func(t *testing.T) {
		inserted, err := repo.InsertAchievement(ctx, "0xabc", testutil.CreateTestAchievement("First Win"))
		require.NoError(t, err)
		assert.False(t, inserted)

		record, err := repo.Get(ctx, "0xabc")
		require.NoError(t, err)
		assert.Len(t, record.Achievements, 1)
	})

	t.Run("same name for another account is independent", func(t *testing.T) {
		_, err := repo.GetForUpdate(ctx, "0xother")
		require.NoError(t, err)

		inserted, err := repo.InsertAchievement(ctx, "0xother", testutil.CreateTestAchievement("First Win"))
		require.NoError(t, err)
		assert.True(t, inserted)
	})
}

func TestStatsRepository_RecentGames(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewStatsRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.GetForUpdate(ctx, "0xabc")
	require.NoError(t, err)

	t.Run("feed is newest first and capped", func(t *testing.T) {
		for i := 0; i < models.RecentGamesLimit+5; i++ {
			game := testutil.CreateTestRecentGame(models.GameSlots, models.OutcomeLoss)
			if i == models.RecentGamesLimit+4 {
				game = testutil.CreateTestRecentGame(models.GameBlackjack, models.OutcomeWin)
			}
			require.NoError(t, repo.InsertRecentGame(ctx, "0xabc", game))
			require.NoError(t, repo.TrimRecentGames(ctx, "0xabc", models.RecentGamesLimit))
		}

		record, err := repo.Get(ctx, "0xabc")
		require.NoError(t, err)

		require.Len(t, record.RecentGames, models.RecentGamesLimit)
		assert.Equal(t, models.GameBlackjack, record.RecentGames[0].Game)
		assert.Equal(t, models.OutcomeWin, record.RecentGames[0].Result)
	})
}

func TestStatsRepository_GetLeaderboard(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewStatsRepository(testDB.DB)
	ctx := context.Background()

	seed := func(account string, games, won int, wagered, wonAmount float64) {
		record, err := repo.GetForUpdate(ctx, account)
		require.NoError(t, err)
		record.TotalGames = games
		record.GamesWon = won
		record.TotalWagered = decimal.NewFromFloat(wagered)
		record.TotalWon = decimal.NewFromFloat(wonAmount)
		require.NoError(t, repo.UpdateTotals(ctx, record))
	}

	seed("0xwhale", 20, 12, 2.0, 5.0)
	seed("0xgrinder", 50, 20, 1.0, 1.5)
	seed("0xdonor", 10, 1, 3.0, 0.5)

	// An account that never played stays off the board
	_, err := repo.GetForUpdate(ctx, "0xlurker")
	require.NoError(t, err)

	entries, err := repo.GetLeaderboard(ctx, 10)
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, "0xwhale", entries[0].Account)
	assert.Equal(t, 1, entries[0].Rank)
	assert.True(t, entries[0].NetProfit.Equal(decimal.NewFromFloat(3.0)))
	assert.Equal(t, "0xgrinder", entries[1].Account)
	assert.Equal(t, "0xdonor", entries[2].Account)
	assert.InDelta(t, 0.6, entries[0].WinRate, 0.0001)

	t.Run("limit respected", func(t *testing.T) {
		top, err := repo.GetLeaderboard(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, top, 2)
	})
}

func TestUnitOfWork_CommitAndRollback(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	t.Run("committed work is visible", func(t *testing.T) {
		factory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))

		record, err := uow.StatsRepository().GetForUpdate(ctx, "0xabc")
		require.NoError(t, err)
		record.TotalGames = 1
		require.NoError(t, uow.StatsRepository().UpdateTotals(ctx, record))
		require.NoError(t, uow.Commit())

		loaded, err := NewStatsRepository(testDB.DB).Get(ctx, "0xabc")
		require.NoError(t, err)
		assert.Equal(t, 1, loaded.TotalGames)
	})

	t.Run("rolled back work is not", func(t *testing.T) {
		factory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))

		record, err := uow.StatsRepository().GetForUpdate(ctx, "0xghost")
		require.NoError(t, err)
		record.TotalGames = 99
		require.NoError(t, uow.StatsRepository().UpdateTotals(ctx, record))
		require.NoError(t, uow.Rollback())

		loaded, err := NewStatsRepository(testDB.DB).Get(ctx, "0xghost")
		require.NoError(t, err)
		assert.Equal(t, 0, loaded.TotalGames)
	})
}
