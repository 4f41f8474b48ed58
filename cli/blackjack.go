package cli

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/shopspring/decimal"

	"betfin/models"
)

const (
	actionHit    = "Hit"
	actionStand  = "Stand"
	actionDouble = "Double Down"
	actionLeave  = "Leave table"
)

// playBlackjack runs one blackjack session from bet to settlement.
func (a *App) playBlackjack(ctx context.Context) error {
	raw, err := promptBet("0.01")
	if err != nil {
		return err
	}
	bet, err := decimal.NewFromString(raw)
	if err != nil || bet.Sign() <= 0 {
		return fmt.Errorf("invalid bet amount %q", raw)
	}

	spinner, _ := pterm.DefaultSpinner.Start("Dealing...")
	_, err = a.submitter.Submit(ctx, models.Action{
		Kind:    models.ActionStart,
		Game:    models.GameBlackjack,
		Account: a.account,
		Amount:  bet,
	})
	if err != nil {
		spinner.Fail("Could not start the hand")
		return err
	}

	session, err := a.reconciler.Track(ctx, &models.GameSession{
		Kind:      models.GameBlackjack,
		Account:   a.account,
		State:     models.StateWaiting,
		BetAmount: bet,
	})
	if err != nil {
		spinner.Fail("Could not load the table")
		return err
	}
	spinner.Success("Cards on the table")
	defer a.reconciler.Release(session.Key())

	for !session.State.Terminal() {
		a.renderBlackjack(session)

		if msg := session.BlackjackMessage(); msg == "BLACKJACK!" {
			pterm.Success.Println(msg)
		}

		choice, err := pterm.DefaultInteractiveSelect.
			WithOptions([]string{actionHit, actionStand, actionDouble, actionLeave}).
			WithDefaultText("Your move").
			Show()
		if err != nil {
			return err
		}
		if choice == actionLeave {
			return nil
		}

		action := models.Action{Game: models.GameBlackjack, Account: a.account}
		switch choice {
		case actionHit:
			action.Kind = models.ActionHit
		case actionStand:
			action.Kind = models.ActionStand
		case actionDouble:
			action.Kind = models.ActionDouble
			action.Amount = bet
		}

		if _, err := a.submitter.Submit(ctx, action); err != nil {
			a.printError(err)
			continue
		}

		session, err = a.reconciler.Reconcile(ctx, session.Key())
		if err != nil {
			if models.IsTransient(err) {
				pterm.Warning.Println("Table out of sync, retrying...")
				continue
			}
			return err
		}
	}

	a.renderBlackjack(session)
	if msg := session.BlackjackMessage(); msg != "" {
		outcome, winnings := session.CompletionOutcome()
		switch outcome {
		case models.OutcomeWin:
			pterm.Success.Printfln("%s You collect %s.", msg, formatETH(winnings))
		case models.OutcomePush:
			pterm.Info.Println(msg)
		default:
			pterm.Error.Println(msg)
		}
	}
	return nil
}

func (a *App) renderBlackjack(session *models.GameSession) {
	view := session.Blackjack
	if view == nil {
		pterm.Info.Println("Waiting for the deal...")
		return
	}

	dealerTitle := "Dealer"
	if !view.DealerRevealed {
		dealerTitle = "Dealer (hole card down)"
	}

	pterm.DefaultPanel.WithPanels([][]pterm.Panel{
		{{Data: handBox(dealerTitle, view.DealerCards, view.DealerTotal)}},
		{{Data: handBox("Your hand", view.PlayerCards, view.PlayerTotal)}},
	}).Render()
	pterm.Printfln("Bet: %s", formatETH(session.BetAmount))
}
