package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
	log "github.com/sirupsen/logrus"

	"betfin/models"
	"betfin/service"
)

// App is the interactive casino front-end. It renders local session
// mirrors and submits player actions; all game results come from the
// ledger.
type App struct {
	account    string
	submitter  service.TransactionSubmitter
	reconciler service.SessionReconciler
	stats      service.StatsService
}

// New creates the casino front-end
func New(account string, submitter service.TransactionSubmitter, reconciler service.SessionReconciler, stats service.StatsService) *App {
	return &App{
		account:    account,
		submitter:  submitter,
		reconciler: reconciler,
		stats:      stats,
	}
}

const (
	menuBlackjack   = "🃏 Blackjack"
	menuSlots       = "🎰 Slots"
	menuPoker       = "♠️  Poker"
	menuProfile     = "👤 Profile"
	menuLeaderboard = "🏆 Leaderboard"
	menuQuit        = "Quit"
)

// Run shows the lobby and dispatches to the games until the player
// quits or the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.printBanner()
	pterm.Info.Printfln("Connected as %s", shortenAccount(a.account))

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		choice, err := pterm.DefaultInteractiveSelect.
			WithOptions([]string{menuBlackjack, menuSlots, menuPoker, menuProfile, menuLeaderboard, menuQuit}).
			WithDefaultText("Pick a table").
			Show()
		if err != nil {
			return err
		}

		switch choice {
		case menuBlackjack:
			err = a.playBlackjack(ctx)
		case menuSlots:
			err = a.playSlots(ctx)
		case menuPoker:
			err = a.playPoker(ctx)
		case menuProfile:
			err = a.showProfile(ctx)
		case menuLeaderboard:
			err = a.showLeaderboard(ctx)
		case menuQuit:
			pterm.Println("Thanks for playing.")
			return nil
		}

		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			a.printError(err)
		}
	}
}

func (a *App) printBanner() {
	pterm.Print("\n")
	title, err := pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("Bet", pterm.FgLightYellow.ToStyle()),
		putils.LettersFromStringWithStyle("Fin", pterm.FgLightCyan.ToStyle()),
	).Srender()
	if err != nil {
		log.WithError(err).Debug("Failed to render banner")
		return
	}
	pterm.Print(title)
}

// printError renders a failure the way the player should read it, not
// the way the engine classified it.
func (a *App) printError(err error) {
	var revert *models.RevertError
	var timedOut *models.TimedOutError

	switch {
	case errors.Is(err, models.ErrActionInProgress):
		pterm.Warning.Println("Hold on, your previous action is still pending.")
	case errors.Is(err, models.ErrNotConnected):
		pterm.Error.Println("Wallet not connected.")
	case errors.Is(err, models.ErrNoActiveSession):
		pterm.Warning.Println("That game is over. Back to the lobby.")
	case errors.As(err, &revert):
		pterm.Error.Printfln("The house says no: %s", revert.Reason)
	case errors.As(err, &timedOut):
		pterm.Warning.Printfln("Still waiting on transaction %s. It may confirm later.", timedOut.TxHash)
	case models.IsTransient(err):
		pterm.Warning.Println("Network hiccup, try again.")
	default:
		pterm.Error.Println(err.Error())
	}
}

// waitForChange pauses before the next reconciliation pass so a game
// still waiting on the ledger does not hammer the gateway.
func (a *App) waitForChange(ctx context.Context, sessionID string) (*models.GameSession, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(2 * time.Second):
	}

	session, err := a.reconciler.Reconcile(ctx, sessionID)
	if err != nil && !models.IsTransient(err) {
		return nil, err
	}
	return session, nil
}

// promptBet asks for a wager in ETH
func promptBet(defaultBet string) (string, error) {
	bet, err := pterm.DefaultInteractiveTextInput.
		WithDefaultText("Bet amount (ETH)").
		WithDefaultValue(defaultBet).
		Show()
	if err != nil {
		return "", fmt.Errorf("failed to read bet: %w", err)
	}
	return bet, nil
}

// shortenAccount renders an address as 0x1234...abcd
func shortenAccount(account string) string {
	if len(account) <= 10 {
		return account
	}
	return account[:6] + "..." + account[len(account)-4:]
}
