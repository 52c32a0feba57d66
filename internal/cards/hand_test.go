package cards

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func codes(cs ...string) []Code {
	out := make([]Code, len(cs))
	for i, c := range cs {
		out[i] = Code(c)
	}
	return out
}

func TestHandValue(t *testing.T) {
	tests := []struct {
		name string
		hand []Code
		want int
	}{
		{"empty", nil, 0},
		{"ace king", codes("1S", "13H"), 21},
		{"two aces and nine", codes("1S", "1H", "9D"), 21},
		{"bust without aces", codes("10S", "10H", "5D"), 25},
		{"pair of aces", codes("1S", "1H"), 12},
		{"ace degrades", codes("1S", "9H", "5D"), 15},
		{"four aces", codes("1S", "1H", "1D", "1C"), 14},
		{"face cards count ten", codes("11S", "12H"), 20},
		{"unavoidable bust with ace", codes("1S", "13H", "12D", "5C"), 26},
		{"unparseable ignored", codes("XX", "9H"), 9},
		{"padded and signed ranks ignored", codes("01H", "+1S", "9H"), 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HandValue(tt.hand))
		})
	}
}

func TestHandValueNeverBustsWhenAceCanDegrade(t *testing.T) {
	// every three card hand holding at least one ace
	for r1 := Ace; r1 <= King; r1++ {
		for r2 := Ace; r2 <= King; r2++ {
			hand := []Code{NewCode(Ace, Spades), NewCode(r1, Hearts), NewCode(r2, Clubs)}
			total, _ := rawTotal(hand)
			got := HandValue(hand)
			if total <= 21 {
				assert.LessOrEqual(t, got, 21, "hand %v", hand)
			} else {
				assert.Equal(t, total, got, "hand %v", hand)
			}
		}
	}
}

func TestBlackjackAndSoft(t *testing.T) {
	assert.True(t, IsBlackjack(codes("1S", "10H")))
	assert.False(t, IsBlackjack(codes("1S", "5H", "5D")))
	assert.True(t, IsSoft(codes("1S", "6H")))
	assert.False(t, IsSoft(codes("1S", "6H", "10D")))
	assert.True(t, IsBust(codes("10S", "10H", "2D")))
	assert.False(t, IsBust(codes("1S", "10H", "10D")))
}
