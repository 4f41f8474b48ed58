package models

// BlackjackMessage derives the table banner for a blackjack session: the
// settled result once the session completes, or the in-play blackjack and
// bust callouts before that. Returns "" when there is nothing to show.
func (s *GameSession) BlackjackMessage() string {
	v := s.Blackjack
	if s.Kind != GameBlackjack || v == nil {
		return ""
	}

	if s.State == StateCompleted {
		switch {
		case v.PlayerTotal > 21:
			return "BUST! You lose."
		case v.DealerTotal > 21:
			return "Dealer busts! You win!"
		case v.PlayerTotal > v.DealerTotal:
			return "You win!"
		case v.PlayerTotal < v.DealerTotal:
			return "You lose."
		default:
			return "Push! Bet returned."
		}
	}

	if v.PlayerTotal == 21 && len(v.PlayerCards) == 2 {
		return "BLACKJACK!"
	}
	if v.PlayerTotal > 21 {
		return "BUST!"
	}
	return ""
}

// IsBlackjack reports a natural: 21 on the first two cards.
func (s *GameSession) IsBlackjack() bool {
	v := s.Blackjack
	return s.Kind == GameBlackjack && v != nil && v.PlayerTotal == 21 && len(v.PlayerCards) == 2
}
