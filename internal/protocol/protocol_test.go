package protocol

import (
	"encoding/json"
	"testing"

	"github.com/lox/blackjack/internal/cards"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Event
	}{
		{
			name: "betting timer",
			raw:  `{"event":"betting_timer","data":{"seconds":7}}`,
			want: BettingTimer{Seconds: 7},
		},
		{
			name: "player timer",
			raw:  `{"event":"player_timer","data":{"player":"P42","seconds":10}}`,
			want: PlayerTimer{Player: "P42", Seconds: 10},
		},
		{
			name: "table state as the server serialises it",
			raw: `{"event":"table_state","data":{
				"players":{"P1":{"name":"P1","hands":[["1H","13S"]],"active_hand":0,"chips":900,"stood":false,"busted":false,"missed_bets":0,"acted":false}},
				"dealer":["5D","9C"],"current_turn":0,"player_order":["P1"],"state":"playing"}}`,
			want: TableState{
				PlayerOrder: []string{"P1"},
				Players: map[string]PlayerState{
					"P1": {Name: "P1", Chips: 900, Hands: [][]cards.Code{{"1H", "13S"}}},
				},
				Dealer: []cards.Code{"5D", "9C"},
				State:  "playing",
			},
		},
		{
			name: "round end",
			raw: `{"event":"round_end","data":{"dealer":["10H","7S"],"dealer_total":17,
				"results":{"P1":[{"hand":["10S","9D"],"total":19,"win":50}]}}}`,
			want: RoundEnd{
				Dealer:      []cards.Code{"10H", "7S"},
				DealerTotal: 17,
				Results: map[string][]HandResult{
					"P1": {{Hand: []cards.Code{"10S", "9D"}, Total: 19, Win: 50}},
				},
			},
		},
		{
			name: "system message",
			raw:  `{"event":"system_message","data":{"msg":"P3 auto-stands"}}`,
			want: Notice{Message: "P3 auto-stands"},
		},
		{
			name: "join error",
			raw:  `{"event":"join_error","data":{"msg":"Table is full, cannot join."}}`,
			want: Notice{Message: "Table is full, cannot join.", Error: true},
		},
		{
			name: "missing payload",
			raw:  `{"event":"betting_timer"}`,
			want: BettingTimer{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeEvent([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeEventErrors(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"event":"hand_start","data":{}}`))
	assert.ErrorIs(t, err, ErrUnknownEvent)

	_, err = DecodeEvent([]byte(`not json`))
	assert.Error(t, err)

	_, err = DecodeEvent([]byte(`{"event":"betting_timer","data":{"seconds":"ten"}}`))
	assert.Error(t, err)
}

func TestEncodeEvent(t *testing.T) {
	data, err := EncodeEvent(Notice{Message: "full", Error: true})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, "join_error", env.Event)
	assert.JSONEq(t, `{"msg":"full"}`, string(env.Data))
}

func TestCommands(t *testing.T) {
	t.Run("bet wire format", func(t *testing.T) {
		data, err := EncodeCommand(Bet{Table: "table1", Player: "P7", Amount: 50})
		require.NoError(t, err)
		assert.JSONEq(t, `{"event":"bet","data":{"table":"table1","player":"P7","amount":50}}`, string(data))
	})

	t.Run("round trip", func(t *testing.T) {
		for _, cmd := range []Command{
			Join{Table: "table1", Player: "P7"},
			Bet{Table: "table1", Player: "P7", Amount: 25},
			Action{Table: "table1", Player: "P7", Action: Double},
			Action{Table: "table1", Player: "P7", Action: Other("surrender")},
		} {
			data, err := EncodeCommand(cmd)
			require.NoError(t, err)
			got, err := DecodeCommand(data)
			require.NoError(t, err)
			assert.Equal(t, cmd, got)
		}
	})

	t.Run("unknown command", func(t *testing.T) {
		_, err := DecodeCommand([]byte(`{"event":"leave","data":{}}`))
		assert.ErrorIs(t, err, ErrUnknownCommand)
	})
}

func TestParseAction(t *testing.T) {
	assert.Equal(t, Hit, ParseAction("hit"))
	assert.Equal(t, ErrorLoadingCards, ParseAction("error_loading_cards"))
	assert.True(t, ParseAction("stand").Known())

	other := ParseAction("insurance")
	assert.False(t, other.Known())
	assert.Equal(t, "insurance", other.String())
}
