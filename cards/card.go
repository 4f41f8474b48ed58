package cards

// Suit represents a card suit
type Suit int

// Rank represents a card rank
type Rank int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

const (
	Two   Rank = 2
	Three Rank = 3
	Four  Rank = 4
	Five  Rank = 5
	Six   Rank = 6
	Seven Rank = 7
	Eight Rank = 8
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

// Card is a decoded playing card. The zero value is not a valid card;
// use Hidden() for a concealed card.
type Card struct {
	Rank   Rank
	Suit   Suit
	hidden bool
}

// Hidden returns the distinguished concealed card value.
func Hidden() Card {
	return Card{hidden: true}
}

// IsHidden reports whether the card is concealed.
func (c Card) IsHidden() bool {
	return c.hidden
}

var rankSymbols = map[Rank]string{
	Two: "2", Three: "3", Four: "4", Five: "5", Six: "6", Seven: "7",
	Eight: "8", Nine: "9", Ten: "10", Jack: "J", Queen: "Q", King: "K", Ace: "A",
}

var suitSymbols = map[Suit]string{
	Spades: "♠", Hearts: "♥", Diamonds: "♦", Clubs: "♣",
}

func (c Card) String() string {
	if c.hidden {
		return "??"
	}
	return rankSymbols[c.Rank] + suitSymbols[c.Suit]
}
