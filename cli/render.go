package cli

import (
	"strings"

	"github.com/pterm/pterm"
	"github.com/shopspring/decimal"

	"betfin/cards"
)

// renderHand formats a row of cards for the table display
func renderHand(hand []cards.Card) string {
	if len(hand) == 0 {
		return pterm.Gray("(no cards)")
	}
	parts := make([]string, len(hand))
	for i, c := range hand {
		parts[i] = renderCard(c)
	}
	return strings.Join(parts, "  ")
}

func renderCard(c cards.Card) string {
	s := c.String()
	if c.IsHidden() {
		return pterm.BgDarkGray.Sprintf(" %s ", s)
	}
	switch c.Suit {
	case cards.Hearts, cards.Diamonds:
		return pterm.BgLightWhite.Sprint(pterm.FgRed.Sprintf(" %s ", s))
	default:
		return pterm.BgLightWhite.Sprint(pterm.FgBlack.Sprintf(" %s ", s))
	}
}

// handBox renders a titled box around a hand with its total
func handBox(title string, hand []cards.Card, total int) string {
	box := pterm.DefaultBox.WithHorizontalPadding(2).WithTopPadding(1).WithBottomPadding(1)
	body := renderHand(hand)
	if total > 0 {
		body += pterm.Sprintf("\nTotal: %d", total)
	}
	return box.WithTitle(title).WithTitleTopLeft().Sprint(body)
}

// formatETH renders an amount with the currency suffix
func formatETH(amount decimal.Decimal) string {
	return amount.String() + " ETH"
}
