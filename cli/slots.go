package cli

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/shopspring/decimal"

	"betfin/models"
	"betfin/slots"
)

// playSlots runs one spin from bet to settlement.
func (a *App) playSlots(ctx context.Context) error {
	raw, err := promptBet("0.01")
	if err != nil {
		return err
	}
	bet, err := decimal.NewFromString(raw)
	if err != nil || bet.Sign() <= 0 {
		return fmt.Errorf("invalid bet amount %q", raw)
	}

	spinner, _ := pterm.DefaultSpinner.Start("Spinning...")
	_, err = a.submitter.Submit(ctx, models.Action{
		Kind:    models.ActionSpin,
		Game:    models.GameSlots,
		Account: a.account,
		Amount:  bet,
	})
	if err != nil {
		spinner.Fail("Spin rejected")
		return err
	}

	session, err := a.reconciler.Track(ctx, &models.GameSession{
		Kind:      models.GameSlots,
		Account:   a.account,
		State:     models.StateWaiting,
		BetAmount: bet,
	})
	if err != nil {
		spinner.Fail("Could not read the machine")
		return err
	}
	sessionKey := session.Key()
	defer a.reconciler.Release(sessionKey)

	for !session.State.Terminal() {
		if session, err = a.waitForChange(ctx, sessionKey); err != nil {
			spinner.Fail("Machine out of reach")
			return err
		}
	}
	spinner.Stop()

	view := session.Slots
	if view == nil {
		pterm.Warning.Println("The machine came up empty.")
		return nil
	}

	a.renderReels(view)

	switch slots.ClassifyPayout(view.Payout, bet) {
	case slots.JackpotWin:
		pterm.Success.Printfln("🎰 JACKPOT! You win %s!", formatETH(view.Payout))
	case slots.BigWin:
		pterm.Success.Printfln("💰 BIG WIN! You win %s!", formatETH(view.Payout))
	case slots.Win:
		pterm.Success.Printfln("You win %s!", formatETH(view.Payout))
	default:
		pterm.Println("No luck this time.")
	}
	if view.Jackpot.Sign() > 0 {
		pterm.Info.Printfln("Progressive jackpot now at %s", formatETH(view.Jackpot))
	}
	return nil
}

func (a *App) renderReels(view *models.SlotsView) {
	box := pterm.DefaultBox.WithHorizontalPadding(4).WithTopPadding(1).WithBottomPadding(1)
	row := fmt.Sprintf("%s | %s | %s",
		slots.Symbol(view.Reels[0]).Display(),
		slots.Symbol(view.Reels[1]).Display(),
		slots.Symbol(view.Reels[2]).Display())
	pterm.Println(box.WithTitle("SLOTS").WithTitleTopCenter().Sprint(row))
}
