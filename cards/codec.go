package cards

import (
	"encoding/hex"
	"strings"
)

// TokenSize is the width of an on-chain card token in bytes.
const TokenSize = 32

// Token is an opaque fixed-width identifier for a card as the ledger
// emits it. Meaningful only after decoding.
type Token []byte

// suit and rank alphabets match the ledger's display function: the first
// token byte selects the suit, the second selects the rank.
var suitAlphabet = [4]Suit{Spades, Hearts, Diamonds, Clubs}

var rankAlphabet = [13]Rank{
	Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King, Ace,
}

// Decode translates an opaque token into a Card. The all-zero token
// decodes to Hidden. A malformed token also decodes to Hidden: card
// identity is cosmetic here, settlement never depends on it.
func Decode(token Token) Card {
	if len(token) != TokenSize {
		return Hidden()
	}
	if isZero(token) {
		return Hidden()
	}
	return Card{
		Suit: suitAlphabet[int(token[0])%len(suitAlphabet)],
		Rank: rankAlphabet[int(token[1])%len(rankAlphabet)],
	}
}

// DecodeAll decodes a hand of tokens in order.
func DecodeAll(tokens []Token) []Card {
	if len(tokens) == 0 {
		return nil
	}
	out := make([]Card, len(tokens))
	for i, t := range tokens {
		out[i] = Decode(t)
	}
	return out
}

// ParseToken parses a 0x-prefixed hex token string as delivered on the
// wire. Malformed input yields an empty token, which decodes to Hidden.
func ParseToken(s string) Token {
	s = strings.TrimPrefix(s, "0x")
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != TokenSize {
		return nil
	}
	return Token(raw)
}

func isZero(t Token) bool {
	for _, b := range t {
		if b != 0 {
			return false
		}
	}
	return true
}
