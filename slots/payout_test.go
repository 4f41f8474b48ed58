package slots

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func bet(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPreviewPayout_Table(t *testing.T) {
	tests := []struct {
		name  string
		reels Reels
		bet   string
		want  string
	}{
		{"three sevens hits the jackpot table", Reels{SevenSymbol, SevenSymbol, SevenSymbol}, "0.01", "10"},
		{"three diamonds", Reels{Diamond, Diamond, Diamond}, "0.01", "2.5"},
		{"three stars", Reels{Star, Star, Star}, "0.01", "1"},
		{"three bells", Reels{Bell, Bell, Bell}, "0.02", "1"},
		{"three oranges", Reels{Orange, Orange, Orange}, "0.01", "0.15"},
		{"three lemons", Reels{Lemon, Lemon, Lemon}, "0.01", "0.1"},
		{"three cherries", Reels{Cherry, Cherry, Cherry}, "0.01", "0.05"},
		{"first two match", Reels{Cherry, Cherry, Lemon}, "0.01", "0.02"},
		{"lone seven", Reels{SevenSymbol, Orange, Diamond}, "0.01", "0.01"},
		{"lone seven on last reel", Reels{Cherry, Lemon, SevenSymbol}, "0.01", "0.01"},
		{"no match", Reels{Cherry, Lemon, Orange}, "0.01", "0"},
		{"last two matching pays nothing", Reels{Cherry, Lemon, Lemon}, "0.01", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PreviewPayout(tt.reels, bet(tt.bet))
			assert.True(t, bet(tt.want).Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestPreviewMultiplier_OutOfAlphabet(t *testing.T) {
	assert.Equal(t, int64(0), PreviewMultiplier(Reels{9, 9, 9}))
}

func TestPreviewPayout_Deterministic(t *testing.T) {
	reels := Reels{Bell, Bell, Bell}
	first := PreviewPayout(reels, bet("0.5"))
	for i := 0; i < 3; i++ {
		assert.True(t, first.Equal(PreviewPayout(reels, bet("0.5"))))
	}
}

func TestClassifyPayout(t *testing.T) {
	b := bet("0.01")
	assert.Equal(t, WinNone, ClassifyPayout(decimal.Zero, b))
	assert.Equal(t, Win, ClassifyPayout(bet("0.02"), b))
	assert.Equal(t, BigWin, ClassifyPayout(bet("1"), b))
	assert.Equal(t, JackpotWin, ClassifyPayout(bet("10"), b))
}

func TestSymbolDisplay(t *testing.T) {
	assert.Equal(t, "🍒", Cherry.Display())
	assert.Equal(t, "7️⃣", SevenSymbol.Display())
	assert.Equal(t, "?", Symbol(42).Display())
}
