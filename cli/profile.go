package cli

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"

	"betfin/models"
)

// showProfile renders the player's durable record: totals, per-game
// breakdown, achievements and the recent-games feed.
func (a *App) showProfile(ctx context.Context) error {
	record, err := a.stats.GetPlayerStats(ctx, a.account)
	if err != nil {
		return err
	}

	pterm.DefaultSection.Printfln("Profile: %s", shortenAccount(record.Account))

	net := record.NetProfit()
	netStr := formatETH(net)
	if net.Sign() > 0 {
		netStr = pterm.LightGreen("+" + netStr)
	} else if net.Sign() < 0 {
		netStr = pterm.LightRed(netStr)
	}

	favorite := "-"
	if f := record.FavoriteGame(); f != "" {
		favorite = string(f)
	}

	summary := pterm.TableData{
		{"Games played", fmt.Sprintf("%d", record.TotalGames)},
		{"Games won", fmt.Sprintf("%d", record.GamesWon)},
		{"Total wagered", formatETH(record.TotalWagered)},
		{"Total won", formatETH(record.TotalWon)},
		{"Net profit", netStr},
		{"Favorite game", favorite},
		{"Member since", record.MemberSince.Format("Jan 2, 2006")},
	}
	if err := pterm.DefaultTable.WithData(summary).Render(); err != nil {
		return err
	}

	games := pterm.TableData{{"Game", "Played", "Won", "Wagered", "Won Amount"}}
	for _, kind := range models.GameKinds {
		gs := record.GameStats[kind]
		if gs == nil {
			continue
		}
		games = append(games, []string{
			string(kind),
			fmt.Sprintf("%d", gs.Played),
			fmt.Sprintf("%d", gs.Won),
			formatETH(gs.Wagered),
			formatETH(gs.WonAmount),
		})
	}
	pterm.DefaultSection.Println("By game")
	if err := pterm.DefaultTable.WithHasHeader().WithData(games).Render(); err != nil {
		return err
	}

	pterm.DefaultSection.Println("Achievements")
	if len(record.Achievements) == 0 {
		pterm.Println("None yet. Go win something.")
	}
	for _, achievement := range record.Achievements {
		pterm.Printfln("%s  %s - %s", achievement.Icon, pterm.Bold.Sprint(achievement.Name), achievement.Description)
	}

	if len(record.RecentGames) > 0 {
		recent := pterm.TableData{{"When", "Game", "Result", "Bet", "Winnings"}}
		for _, g := range record.RecentGames {
			recent = append(recent, []string{
				g.PlayedAt.Format("Jan 2 15:04"),
				string(g.Game),
				string(g.Result),
				formatETH(g.Amount),
				formatETH(g.Winnings),
			})
		}
		pterm.DefaultSection.Println("Recent games")
		if err := pterm.DefaultTable.WithHasHeader().WithData(recent).Render(); err != nil {
			return err
		}
	}

	return nil
}

// showLeaderboard renders the top accounts by net profit.
func (a *App) showLeaderboard(ctx context.Context) error {
	entries, err := a.stats.GetLeaderboard(ctx, 10)
	if err != nil {
		return err
	}

	pterm.DefaultSection.Println("Leaderboard")
	if len(entries) == 0 {
		pterm.Println("Nobody has played yet.")
		return nil
	}

	data := pterm.TableData{{"#", "Account", "Games", "Won", "Win rate", "Net profit"}}
	for _, entry := range entries {
		account := shortenAccount(entry.Account)
		if entry.Account == a.account {
			account = pterm.LightCyan(account + " (you)")
		}
		data = append(data, []string{
			fmt.Sprintf("%d", entry.Rank),
			account,
			fmt.Sprintf("%d", entry.TotalGames),
			fmt.Sprintf("%d", entry.GamesWon),
			fmt.Sprintf("%.0f%%", entry.WinRate*100),
			formatETH(entry.NetProfit),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
