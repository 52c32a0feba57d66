package cards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Card
		wantErr  bool
	}{
		{name: "ace of hearts", input: "1H", expected: Card{Rank: Ace, Suit: Hearts}},
		{name: "king of spades", input: "13S", expected: Card{Rank: King, Suit: Spades}},
		{name: "ten of clubs", input: "10C", expected: Card{Rank: 10, Suit: Clubs}},
		{name: "seven of diamonds", input: "7D", expected: Card{Rank: 7, Suit: Diamonds}},
		{name: "rank zero", input: "0H", wantErr: true},
		{name: "rank fourteen", input: "14H", wantErr: true},
		{name: "lowercase suit", input: "5h", wantErr: true},
		{name: "unknown suit", input: "5X", wantErr: true},
		{name: "letter rank", input: "KH", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "too long", input: "100H", wantErr: true},
		{name: "plus sign", input: "+1H", wantErr: true},
		{name: "minus sign", input: "-1H", wantErr: true},
		{name: "leading zero", input: "01H", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, Code(tt.input), got.Code())
		})
	}
}

func TestContribution(t *testing.T) {
	for r := Ace; r <= King; r++ {
		card := Card{Rank: r, Suit: Spades}
		assert.Equal(t, min(int(r), 10), card.Contribution(), "rank %d", r)
	}
}

func TestAll(t *testing.T) {
	all := All()
	require.Len(t, all, 52)

	seen := make(map[Code]bool, len(all))
	for _, code := range all {
		_, err := code.Card()
		require.NoError(t, err)
		assert.False(t, seen[code], "duplicate %s", code)
		seen[code] = true
	}
	assert.Equal(t, Code("1H"), all[0])
	assert.Equal(t, Code("13S"), all[51])
}

func TestCardString(t *testing.T) {
	assert.Equal(t, "A♥", Card{Rank: Ace, Suit: Hearts}.String())
	assert.Equal(t, "T♣", Card{Rank: 10, Suit: Clubs}.String())
	assert.Equal(t, "Q♠", Card{Rank: Queen, Suit: Spades}.String())
	assert.True(t, Card{Rank: 2, Suit: Diamonds}.IsRed())
	assert.False(t, Card{Rank: 2, Suit: Clubs}.IsRed())
}
