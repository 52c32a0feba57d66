package cards

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidCode is returned when a card code does not match <rank 1-13><H|D|C|S>
var ErrInvalidCode = errors.New("invalid card code")

// Suit represents a card suit as it appears on the wire
type Suit byte

const (
	Hearts   Suit = 'H'
	Diamonds Suit = 'D'
	Clubs    Suit = 'C'
	Spades   Suit = 'S'
)

// Suits lists the suits in manifest order
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// String returns the symbol for a suit
func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "?"
	}
}

// IsRed returns true if the suit is red (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

func (s Suit) valid() bool {
	switch s {
	case Hearts, Diamonds, Clubs, Spades:
		return true
	}
	return false
}

// Rank is 1 (ace) through 13 (king)
type Rank int

const (
	Ace   Rank = 1
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

// String returns the face label of a rank
func (r Rank) String() string {
	switch r {
	case Ace:
		return "A"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case 10:
		return "T"
	default:
		if r >= 2 && r <= 9 {
			return strconv.Itoa(int(r))
		}
		return "?"
	}
}

// Code is the wire and asset representation of a card, e.g. "1H" or "13S"
type Code string

// Card is a parsed card code
type Card struct {
	Rank Rank
	Suit Suit
}

// NewCode builds the code for a rank and suit
func NewCode(rank Rank, suit Suit) Code {
	return Code(strconv.Itoa(int(rank)) + string(suit))
}

// Parse parses a card code
func Parse(s string) (Card, error) {
	if len(s) < 2 || len(s) > 3 {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidCode, s)
	}

	suit := Suit(s[len(s)-1])
	if !suit.valid() {
		return Card{}, fmt.Errorf("%w: bad suit in %q", ErrInvalidCode, s)
	}

	// ranks are bare decimal digits with no sign or leading zero
	digits := s[:len(s)-1]
	if digits[0] < '1' || digits[0] > '9' {
		return Card{}, fmt.Errorf("%w: bad rank in %q", ErrInvalidCode, s)
	}

	rank, err := strconv.Atoi(digits)
	if err != nil || rank < 1 || rank > 13 {
		return Card{}, fmt.Errorf("%w: bad rank in %q", ErrInvalidCode, s)
	}

	return Card{Rank: Rank(rank), Suit: suit}, nil
}

// Card parses the code
func (c Code) Card() (Card, error) {
	return Parse(string(c))
}

// Code returns the wire code of the card
func (c Card) Code() Code {
	return NewCode(c.Rank, c.Suit)
}

// String returns the display form of a card (e.g., "A♠")
func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// IsRed returns true if the card is red
func (c Card) IsRed() bool {
	return c.Suit.IsRed()
}

// IsAce returns true if the card is an Ace
func (c Card) IsAce() bool {
	return c.Rank == Ace
}

// Contribution is the card's score before ace adjustment: ranks 11-13 count as 10
func (c Card) Contribution() int {
	return min(int(c.Rank), 10)
}

// All returns the 52 card codes, suits in manifest order, ranks 1..13
func All() []Code {
	codes := make([]Code, 0, 52)
	for _, s := range Suits {
		for r := Ace; r <= King; r++ {
			codes = append(codes, NewCode(r, s))
		}
	}
	return codes
}
