package slots

import "github.com/shopspring/decimal"

// Symbol is an index into the machine's fixed symbol alphabet.
type Symbol int

const (
	Cherry Symbol = iota
	Lemon
	Orange
	Bell
	Star
	Diamond
	SevenSymbol
)

// SymbolCount is the size of the reel alphabet.
const SymbolCount = 7

var symbolNames = [SymbolCount]string{"🍒", "🍋", "🍊", "🔔", "⭐", "💎", "7️⃣"}

// Display returns the glyph for a symbol, or "?" for an index outside
// the alphabet.
func (s Symbol) Display() string {
	if s < 0 || int(s) >= SymbolCount {
		return "?"
	}
	return symbolNames[s]
}

// tripleMultipliers is the per-symbol payout table for three of a kind,
// escalating from cherries up to the seven jackpot.
var tripleMultipliers = [SymbolCount]int64{
	Cherry:      5,
	Lemon:       10,
	Orange:      15,
	Bell:        50,
	Star:        100,
	Diamond:     250,
	SevenSymbol: 1000,
}

// Reels is one spin result, left to right.
type Reels [3]Symbol

// PreviewMultiplier returns the advisory payout multiplier for a spin:
// three of a kind pays the symbol's table value, the first two reels
// matching pays 2x, any lone seven pays 1x, anything else pays nothing.
func PreviewMultiplier(reels Reels) int64 {
	if reels[0] == reels[1] && reels[1] == reels[2] {
		if reels[0] < 0 || int(reels[0]) >= SymbolCount {
			return 0
		}
		return tripleMultipliers[reels[0]]
	}
	if reels[0] == reels[1] {
		return 2
	}
	for _, s := range reels {
		if s == SevenSymbol {
			return 1
		}
	}
	return 0
}

// PreviewPayout computes the advisory payout for a spin at the given bet.
// The ledger's completion event carries the authoritative payout; this
// value exists only for preview and consistency checks.
func PreviewPayout(reels Reels, bet decimal.Decimal) decimal.Decimal {
	return bet.Mul(decimal.NewFromInt(PreviewMultiplier(reels)))
}

// WinClass labels a settled payout for presentation.
type WinClass string

const (
	WinNone    WinClass = ""
	Win        WinClass = "win"
	BigWin     WinClass = "big-win"
	JackpotWin WinClass = "jackpot"
)

// ClassifyPayout buckets a ledger-reported payout relative to the bet.
func ClassifyPayout(payout, bet decimal.Decimal) WinClass {
	if payout.Sign() <= 0 {
		return WinNone
	}
	if payout.GreaterThanOrEqual(bet.Mul(decimal.NewFromInt(1000))) {
		return JackpotWin
	}
	if payout.GreaterThanOrEqual(bet.Mul(decimal.NewFromInt(100))) {
		return BigWin
	}
	return Win
}
