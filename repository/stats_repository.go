package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"betfin/database"
	"betfin/models"
)

// queryable abstracts over a pool and a transaction
type queryable interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StatsRepository implements the StatsRepository interface
type StatsRepository struct {
	q queryable
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *database.DB) *StatsRepository {
	return &StatsRepository{q: db.Pool}
}

// newStatsRepositoryWithTx creates a new stats repository with a transaction
func newStatsRepositoryWithTx(tx queryable) *StatsRepository {
	return &StatsRepository{q: tx}
}

// Get retrieves the full record for an account. An unknown account gets
// a zeroed default record, not an error.
func (r *StatsRepository) Get(ctx context.Context, account string) (*models.PlayerStatsRecord, error) {
	query := `
		SELECT account, total_games, games_won, total_wagered, total_won, member_since
		FROM player_stats
		WHERE account = $1
	`

	record := &models.PlayerStatsRecord{}
	err := r.q.QueryRow(ctx, query, account).Scan(
		&record.Account,
		&record.TotalGames,
		&record.GamesWon,
		&record.TotalWagered,
		&record.TotalWon,
		&record.MemberSince,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NewPlayerStatsRecord(account), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stats for account %s: %w", account, err)
	}

	if err := r.loadDetails(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// GetForUpdate ensures the account row exists and takes a row lock on it,
// serializing concurrent writers for the same account.
func (r *StatsRepository) GetForUpdate(ctx context.Context, account string) (*models.PlayerStatsRecord, error) {
	insert := `
		INSERT INTO player_stats (account)
		VALUES ($1)
		ON CONFLICT (account) DO NOTHING
	`
	if _, err := r.q.Exec(ctx, insert, account); err != nil {
		return nil, fmt.Errorf("failed to ensure stats row for account %s: %w", account, err)
	}

	query := `
		SELECT account, total_games, games_won, total_wagered, total_won, member_since
		FROM player_stats
		WHERE account = $1
		FOR UPDATE
	`

	record := &models.PlayerStatsRecord{}
	err := r.q.QueryRow(ctx, query, account).Scan(
		&record.Account,
		&record.TotalGames,
		&record.GamesWon,
		&record.TotalWagered,
		&record.TotalWon,
		&record.MemberSince,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to lock stats for account %s: %w", account, err)
	}

	if err := r.loadDetails(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// loadDetails fills the per-game sub-totals, achievements and recent
// games of a record.
func (r *StatsRepository) loadDetails(ctx context.Context, record *models.PlayerStatsRecord) error {
	if err := r.loadGameStats(ctx, record); err != nil {
		return err
	}
	if err := r.loadAchievements(ctx, record); err != nil {
		return err
	}
	return r.loadRecentGames(ctx, record)
}

func (r *StatsRepository) loadGameStats(ctx context.Context, record *models.PlayerStatsRecord) error {
	record.GameStats = make(map[models.GameKind]*models.GameStats, len(models.GameKinds))
	for _, kind := range models.GameKinds {
		record.GameStats[kind] = &models.GameStats{}
	}

	query := `
		SELECT game, played, won, wagered, won_amount
		FROM player_game_stats
		WHERE account = $1
	`

	rows, err := r.q.Query(ctx, query, record.Account)
	if err != nil {
		return fmt.Errorf("failed to get game stats for account %s: %w", record.Account, err)
	}
	defer rows.Close()

	for rows.Next() {
		var game models.GameKind
		stats := &models.GameStats{}
		if err := rows.Scan(&game, &stats.Played, &stats.Won, &stats.Wagered, &stats.WonAmount); err != nil {
			return fmt.Errorf("failed to scan game stats: %w", err)
		}
		record.GameStats[game] = stats
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read game stats: %w", err)
	}
	return nil
}

func (r *StatsRepository) loadAchievements(ctx context.Context, record *models.PlayerStatsRecord) error {
	query := `
		SELECT name, description, icon, earned_at
		FROM achievements
		WHERE account = $1
		ORDER BY earned_at ASC, id ASC
	`

	rows, err := r.q.Query(ctx, query, record.Account)
	if err != nil {
		return fmt.Errorf("failed to get achievements for account %s: %w", record.Account, err)
	}
	defer rows.Close()

	for rows.Next() {
		var a models.Achievement
		if err := rows.Scan(&a.Name, &a.Description, &a.Icon, &a.EarnedAt); err != nil {
			return fmt.Errorf("failed to scan achievement: %w", err)
		}
		record.Achievements = append(record.Achievements, a)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read achievements: %w", err)
	}
	return nil
}

func (r *StatsRepository) loadRecentGames(ctx context.Context, record *models.PlayerStatsRecord) error {
	query := `
		SELECT game, result, amount, winnings, played_at
		FROM recent_games
		WHERE account = $1
		ORDER BY played_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, record.Account, models.RecentGamesLimit)
	if err != nil {
		return fmt.Errorf("failed to get recent games for account %s: %w", record.Account, err)
	}
	defer rows.Close()

	for rows.Next() {
		var g models.RecentGame
		if err := rows.Scan(&g.Game, &g.Result, &g.Amount, &g.Winnings, &g.PlayedAt); err != nil {
			return fmt.Errorf("failed to scan recent game: %w", err)
		}
		record.RecentGames = append(record.RecentGames, g)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read recent games: %w", err)
	}
	return nil
}

// UpdateTotals persists the aggregate counters of a record
func (r *StatsRepository) UpdateTotals(ctx context.Context, record *models.PlayerStatsRecord) error {
	query := `
		UPDATE player_stats
		SET total_games = $1, games_won = $2, total_wagered = $3, total_won = $4, updated_at = NOW()
		WHERE account = $5
	`

	result, err := r.q.Exec(ctx, query,
		record.TotalGames, record.GamesWon, record.TotalWagered, record.TotalWon, record.Account)
	if err != nil {
		return fmt.Errorf("failed to update totals for account %s: %w", record.Account, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("stats row for account %s not found", record.Account)
	}
	return nil
}

// UpsertGameStats persists one game's sub-totals
func (r *StatsRepository) UpsertGameStats(ctx context.Context, account string, game models.GameKind, stats *models.GameStats) error {
	query := `
		INSERT INTO player_game_stats (account, game, played, won, wagered, won_amount)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (account, game) DO UPDATE
		SET played = EXCLUDED.played, won = EXCLUDED.won,
		    wagered = EXCLUDED.wagered, won_amount = EXCLUDED.won_amount
	`

	if _, err := r.q.Exec(ctx, query, account, game, stats.Played, stats.Won, stats.Wagered, stats.WonAmount); err != nil {
		return fmt.Errorf("failed to upsert %s stats for account %s: %w", game, account, err)
	}
	return nil
}

// InsertAchievement stores an achievement; the unique constraint makes
// a replayed unlock a no-op and this returns false for it.
func (r *StatsRepository) InsertAchievement(ctx context.Context, account string, achievement models.Achievement) (bool, error) {
	query := `
		INSERT INTO achievements (account, name, description, icon, earned_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account, name) DO NOTHING
	`

	result, err := r.q.Exec(ctx, query,
		account, achievement.Name, achievement.Description, achievement.Icon, achievement.EarnedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert achievement %s for account %s: %w", achievement.Name, account, err)
	}
	return result.RowsAffected() > 0, nil
}

// InsertRecentGame prepends an entry to the recent-games feed
func (r *StatsRepository) InsertRecentGame(ctx context.Context, account string, game models.RecentGame) error {
	query := `
		INSERT INTO recent_games (account, game, result, amount, winnings, played_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if _, err := r.q.Exec(ctx, query,
		account, game.Game, game.Result, game.Amount, game.Winnings, game.PlayedAt); err != nil {
		return fmt.Errorf("failed to insert recent game for account %s: %w", account, err)
	}
	return nil
}

// TrimRecentGames evicts the oldest feed entries beyond keep
func (r *StatsRepository) TrimRecentGames(ctx context.Context, account string, keep int) error {
	query := `
		DELETE FROM recent_games
		WHERE account = $1
		  AND id NOT IN (
			SELECT id FROM recent_games
			WHERE account = $1
			ORDER BY played_at DESC, id DESC
			LIMIT $2
		  )
	`

	if _, err := r.q.Exec(ctx, query, account, keep); err != nil {
		return fmt.Errorf("failed to trim recent games for account %s: %w", account, err)
	}
	return nil
}

// GetLeaderboard returns accounts ranked by net profit descending
func (r *StatsRepository) GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	query := `
		SELECT account, total_games, games_won, total_won - total_wagered AS net_profit
		FROM player_stats
		WHERE total_games > 0
		ORDER BY net_profit DESC, total_games DESC, account ASC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*models.LeaderboardEntry
	for rows.Next() {
		entry := &models.LeaderboardEntry{}
		if err := rows.Scan(&entry.Account, &entry.TotalGames, &entry.GamesWon, &entry.NetProfit); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entry.Rank = len(entries) + 1
		if entry.TotalGames > 0 {
			entry.WinRate = float64(entry.GamesWon) / float64(entry.TotalGames)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	return entries, nil
}
