package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/shopspring/decimal"

	"betfin/models"
)

const (
	pokerCheck = "Check"
	pokerCall  = "Call"
	pokerRaise = "Raise"
	pokerFold  = "Fold"
	pokerAllIn = "All In"
	pokerLeave = "Leave table"
)

// playPoker creates or joins a table and plays it until showdown.
func (a *App) playPoker(ctx context.Context) error {
	mode, err := pterm.DefaultInteractiveSelect.
		WithOptions([]string{"Create a table", "Join a table", "Back"}).
		WithDefaultText("Poker room").
		Show()
	if err != nil {
		return err
	}
	if mode == "Back" {
		return nil
	}

	raw, err := promptBet("0.1")
	if err != nil {
		return err
	}
	buyIn, err := decimal.NewFromString(raw)
	if err != nil || buyIn.Sign() <= 0 {
		return fmt.Errorf("invalid buy-in amount %q", raw)
	}

	var sessionID string
	actionKind := models.ActionJoin
	if mode == "Create a table" {
		sessionID = uuid.New().String()
		actionKind = models.ActionStart
		pterm.Info.Printfln("Table id: %s", sessionID)
	} else {
		sessionID, err = pterm.DefaultInteractiveTextInput.
			WithDefaultText("Table id").
			Show()
		if err != nil {
			return err
		}
		if _, err := uuid.Parse(sessionID); err != nil {
			return fmt.Errorf("invalid table id %q: %w", sessionID, err)
		}
	}

	if _, err := a.submitter.Submit(ctx, models.Action{
		Kind:      actionKind,
		Game:      models.GamePoker,
		SessionID: sessionID,
		Account:   a.account,
		Amount:    buyIn,
	}); err != nil {
		return err
	}

	session, err := a.reconciler.Track(ctx, &models.GameSession{
		ID:        sessionID,
		Kind:      models.GamePoker,
		Account:   a.account,
		State:     models.StateWaiting,
		BetAmount: buyIn,
	})
	if err != nil {
		return err
	}
	defer a.reconciler.Release(sessionID)

	for !session.State.Terminal() {
		a.renderPoker(session)

		view := session.Poker
		if view == nil || session.State == models.StateWaiting {
			pterm.Info.Println("Waiting for players...")
			if session, err = a.waitForChange(ctx, sessionID); err != nil {
				return err
			}
			continue
		}

		if view.HasFolded || view.IsAllIn || view.CurrentPlayer != a.account {
			pterm.Info.Println("Waiting for the action to come around...")
			if session, err = a.waitForChange(ctx, sessionID); err != nil {
				return err
			}
			continue
		}

		choice, err := pterm.DefaultInteractiveSelect.
			WithOptions([]string{pokerCheck, pokerCall, pokerRaise, pokerFold, pokerAllIn, pokerLeave}).
			WithDefaultText("Your move").
			Show()
		if err != nil {
			return err
		}
		if choice == pokerLeave {
			return nil
		}

		action := models.Action{Game: models.GamePoker, SessionID: sessionID, Account: a.account}
		switch choice {
		case pokerCheck:
			action.Kind = models.ActionCheck
		case pokerCall:
			action.Kind = models.ActionCall
		case pokerFold:
			action.Kind = models.ActionFold
		case pokerAllIn:
			action.Kind = models.ActionAllIn
		case pokerRaise:
			action.Kind = models.ActionRaise
			rawRaise, err := pterm.DefaultInteractiveTextInput.
				WithDefaultText("Raise to (ETH)").
				Show()
			if err != nil {
				return err
			}
			amount, err := decimal.NewFromString(rawRaise)
			if err != nil || amount.Sign() <= 0 {
				pterm.Warning.Printfln("Invalid raise amount %q", rawRaise)
				continue
			}
			action.Amount = amount
		}

		if _, err := a.submitter.Submit(ctx, action); err != nil {
			a.printError(err)
			continue
		}

		session, err = a.reconciler.Reconcile(ctx, sessionID)
		if err != nil && !models.IsTransient(err) {
			return err
		}
	}

	a.renderPoker(session)
	if view := session.Poker; view != nil && view.Winner != "" {
		if view.Winner == a.account {
			pterm.Success.Printfln("You take the pot: %s!", formatETH(view.Prize))
			if _, err := a.submitter.Submit(ctx, models.Action{
				Kind:      models.ActionClaim,
				Game:      models.GamePoker,
				SessionID: sessionID,
				Account:   a.account,
			}); err != nil {
				a.printError(err)
			}
		} else {
			pterm.Println(pterm.Sprintf("%s takes the pot.", shortenAccount(view.Winner)))
		}
	}
	return nil
}

func (a *App) renderPoker(session *models.GameSession) {
	view := session.Poker
	if view == nil {
		return
	}

	box := pterm.DefaultBox.WithHorizontalPadding(2).WithTopPadding(1).WithBottomPadding(1)

	board := renderHand(view.Community)
	boardPanel := box.WithTitle("Board").WithTitleTopCenter().Sprintf(
		"%s\nPot: %s   To call: %s", board, formatETH(view.Pot), formatETH(view.CurrentBet))

	status := "Active"
	if view.HasFolded {
		status = pterm.LightRed("Folded")
	} else if view.IsAllIn {
		status = pterm.LightYellow("All In")
	}
	handPanel := box.WithTitle("Your hand").WithTitleTopLeft().Sprintf(
		"%s\n%s   Stack: %s", renderHand(view.Hand), status, formatETH(view.Balance))

	pterm.DefaultPanel.WithPanels([][]pterm.Panel{
		{{Data: boardPanel}},
		{{Data: handPanel}},
	}).Render()

	if view.CurrentPlayer != "" && view.CurrentPlayer != a.account {
		pterm.Printfln("Action on %s", shortenAccount(view.CurrentPlayer))
	}
	pterm.Printfln("%d players seated", len(view.Players))
}
