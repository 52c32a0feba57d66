package cards

// HandValue scores a blackjack hand. Every ace starts at 1; while the total is
// at most 11 one ace at a time is promoted to 11. Codes that fail to parse
// contribute nothing so a corrupt snapshot still renders.
func HandValue(hand []Code) int {
	total, aces := rawTotal(hand)
	for aces > 0 && total <= 11 {
		total += 10
		aces--
	}
	return total
}

// IsBlackjack reports a two-card 21
func IsBlackjack(hand []Code) bool {
	return len(hand) == 2 && HandValue(hand) == 21
}

// IsSoft reports whether the hand holds an ace currently counted as 11
func IsSoft(hand []Code) bool {
	total, aces := rawTotal(hand)
	return aces > 0 && total+10 <= 21
}

// IsBust reports a total over 21
func IsBust(hand []Code) bool {
	return HandValue(hand) > 21
}

func rawTotal(hand []Code) (total, aces int) {
	for _, code := range hand {
		card, err := code.Card()
		if err != nil {
			continue
		}
		total += card.Contribution()
		if card.IsAce() {
			aces++
		}
	}
	return total, aces
}
