package reconcile

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/blackjack/internal/cards"
	"github.com/lox/blackjack/internal/cue"
	"github.com/lox/blackjack/internal/protocol"
	"github.com/lox/blackjack/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func snapshot() protocol.TableState {
	return protocol.TableState{
		PlayerOrder: []string{"P1", "P2"},
		Players: map[string]protocol.PlayerState{
			"P1": {Chips: 900, Hands: [][]cards.Code{{"10H", "7S"}}},
			"P2": {Chips: 1000},
		},
		Bets:   map[string]int{"P1": 100},
		Dealer: []cards.Code{"9D"},
		State:  "playing",
	}
}

func TestReduceTimers(t *testing.T) {
	m := *view.New()

	m, effects := Reduce(m, protocol.BettingTimer{Seconds: 8})
	assert.Empty(t, effects)
	assert.Equal(t, 8, m.BettingCountdown)

	m, effects = Reduce(m, protocol.PlayerTimer{Player: "P2", Seconds: 10})
	assert.Empty(t, effects)
	assert.Equal(t, "P2", m.ActiveTurnSeat)
	assert.Equal(t, 10, m.TurnCountdown)
	assert.Equal(t, 8, m.BettingCountdown, "timers reset independently")

	m, _ = Reduce(m, protocol.BettingTimer{Seconds: -3})
	assert.Equal(t, 0, m.BettingCountdown)
}

func TestReduceTableStateReplacesEverything(t *testing.T) {
	m := *view.New()
	m.Seats = [view.SeatCount]string{"OLD1", "OLD2", "OLD3"}
	m.Players["OLD1"] = view.Player{Chips: 5, Hands: []view.Hand{{"2C"}}}
	m.Bets["OLD1"] = 40
	m.Bets["P1"] = 350 // optimistic edit
	m.DealerHand = view.Hand{"1S", "13S"}

	m, effects := Reduce(m, snapshot())

	assert.Equal(t, []Effect{PlayCue{Cue: cue.Card}}, effects)
	assert.True(t, m.HasTable)
	assert.Equal(t, "playing", m.Phase)
	assert.Equal(t, [view.SeatCount]string{"P1", "P2"}, m.Seats)
	assert.Equal(t, map[string]view.Player{
		"P1": {Chips: 900, Hands: []view.Hand{{"10H", "7S"}}},
		"P2": {Chips: 1000, Hands: []view.Hand{}},
	}, m.Players)
	assert.Equal(t, map[string]int{"P1": 100}, m.Bets, "snapshot wins over optimistic bets")
	assert.Equal(t, view.Hand{"9D"}, m.DealerHand)
}

func TestReduceTableStateWithoutBets(t *testing.T) {
	m := *view.New()
	m.Bets["P1"] = 50

	ts := snapshot()
	ts.Bets = nil
	m, _ = Reduce(m, ts)

	assert.Empty(t, m.Bets)
	assert.NotNil(t, m.Bets)
}

func TestReduceTableStateDropsUnseatedPlayers(t *testing.T) {
	ts := snapshot()
	ts.Players["GHOST"] = protocol.PlayerState{Chips: 1}

	m, _ := Reduce(*view.New(), ts)

	assert.NotContains(t, m.Players, "GHOST")
	for id := range m.Players {
		assert.GreaterOrEqual(t, m.SeatIndex(id), 0)
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	before := view.New()
	before.Bets["P1"] = 10
	before.DealerHand = view.Hand{"5H"}
	before.AddNotice(view.Notice{Text: "hello"})
	snap := before.Clone()

	Reduce(*before, snapshot())
	Reduce(*before, protocol.RoundEnd{Dealer: []cards.Code{"2C"}})
	Reduce(*before, protocol.Notice{Message: "again"})

	assert.Equal(t, snap, before.Clone())
}

func TestReduceRoundEnd(t *testing.T) {
	m, _ := Reduce(*view.New(), snapshot())
	m, _ = Reduce(m, protocol.PlayerTimer{Player: "P1", Seconds: 4})

	m, effects := Reduce(m, protocol.RoundEnd{
		Results: map[string][]protocol.HandResult{
			"P1": {{Win: 1}},
			"P2": {{Win: -1}},
			"P3": {{Win: 0}},
		},
		Dealer: []cards.Code{"9D", "8C"},
	})

	var cues []cue.Name
	var resets int
	for _, e := range effects {
		switch e := e.(type) {
		case PlayCue:
			cues = append(cues, e.Cue)
		case ScheduleReset:
			resets++
			assert.Equal(t, DefaultResetDelay, e.After)
		}
	}
	assert.Equal(t, []cue.Name{cue.Win, cue.Lose}, cues)
	assert.Equal(t, 1, resets)

	assert.Equal(t, "", m.ActiveTurnSeat)
	assert.Equal(t, 0, m.TurnCountdown)
	assert.Equal(t, view.Hand{"9D", "8C"}, m.DealerHand)
	assert.Equal(t, map[string][]int{"P1": {1}, "P2": {-1}, "P3": {0}}, m.LastResults)

	// only the dealer hand is replaced
	assert.Equal(t, map[string]int{"P1": 100}, m.Bets)
	assert.Equal(t, view.Hand{"10H", "7S"}, m.Players["P1"].Hands[0])
}

func TestReduceRoundEndSplitHands(t *testing.T) {
	m, effects := Reduce(*view.New(), protocol.RoundEnd{
		Results: map[string][]protocol.HandResult{
			"P1": {{Win: 50}, {Win: -50}, {Win: 75}},
		},
	})

	var r cue.Recorder
	for _, e := range effects {
		if pc, ok := e.(PlayCue); ok {
			r.Play(pc.Cue)
		}
	}
	assert.Equal(t, 2, r.Count(cue.Win))
	assert.Equal(t, 1, r.Count(cue.Lose))
	assert.Empty(t, m.DealerHand)
}

func TestReduceNotice(t *testing.T) {
	m, effects := Reduce(*view.New(), protocol.Notice{Message: "Table is full", Error: true})
	assert.Empty(t, effects)
	require.Len(t, m.Notices, 1)
	assert.Equal(t, view.Notice{Text: "Table is full", Error: true}, m.Notices[0])
}

func TestResetRound(t *testing.T) {
	m, _ := Reduce(*view.New(), snapshot())
	m.BettingCountdown = 3
	m.ActiveTurnSeat = "P1"
	m.TurnCountdown = 5
	m.LastResults = map[string][]int{"P1": {1}}

	m = ResetRound(m)

	assert.Equal(t, 0, m.BettingCountdown)
	assert.Equal(t, "", m.ActiveTurnSeat)
	assert.Equal(t, 0, m.TurnCountdown)
	assert.Nil(t, m.LastResults)
	assert.Equal(t, view.Hand{"9D"}, m.DealerHand)
	assert.Len(t, m.Players, 2)
}

func TestReconciler(t *testing.T) {
	t.Run("plays cues and resets after the delay", func(t *testing.T) {
		clock := quartz.NewMock(t)
		model := view.New()
		var cues cue.Recorder
		resets := 0
		r := New(model, &cues, quietLogger(), Options{
			Clock:   clock,
			OnReset: func() { resets++ },
		})

		r.Apply(snapshot())
		r.Apply(protocol.PlayerTimer{Player: "P1", Seconds: 9})
		r.Apply(protocol.BettingTimer{Seconds: 2})
		r.Apply(protocol.RoundEnd{
			Results: map[string][]protocol.HandResult{"P1": {{Win: 100}}},
			Dealer:  []cards.Code{"10S", "10C"},
		})

		assert.Equal(t, []cue.Name{cue.Card, cue.Win}, cues.Played())
		assert.Equal(t, 2, model.BettingCountdown)
		assert.Equal(t, map[string][]int{"P1": {100}}, model.LastResults)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		clock.Advance(DefaultResetDelay).MustWait(ctx)

		assert.Equal(t, 1, resets)
		assert.Equal(t, 0, model.BettingCountdown)
		assert.Nil(t, model.LastResults)
		assert.Equal(t, view.Hand{"10S", "10C"}, model.DealerHand)
	})

	t.Run("reset still fires after a newer snapshot", func(t *testing.T) {
		clock := quartz.NewMock(t)
		model := view.New()
		r := New(model, &cue.Recorder{}, quietLogger(), Options{Clock: clock})

		r.Apply(protocol.RoundEnd{Dealer: []cards.Code{"2H"}})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		clock.Advance(time.Second).MustWait(ctx)

		r.Apply(snapshot())
		r.Apply(protocol.PlayerTimer{Player: "P2", Seconds: 10})

		clock.Advance(time.Second).MustWait(ctx)

		// the reset clears the newer turn indicator but not the snapshot
		assert.Equal(t, "", model.ActiveTurnSeat)
		assert.Equal(t, [view.SeatCount]string{"P1", "P2"}, model.Seats)
		assert.Equal(t, view.Hand{"9D"}, model.DealerHand)
	})

	t.Run("reset goes through post", func(t *testing.T) {
		clock := quartz.NewMock(t)
		model := view.New()
		var queued []func()
		r := New(model, &cue.Recorder{}, quietLogger(), Options{
			Clock:      clock,
			ResetDelay: 500 * time.Millisecond,
			Post:       func(fn func()) { queued = append(queued, fn) },
		})

		r.Apply(protocol.RoundEnd{Results: map[string][]protocol.HandResult{"P1": {{Win: -5}}}})
		require.NotNil(t, model.LastResults)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		clock.Advance(500 * time.Millisecond).MustWait(ctx)

		require.Len(t, queued, 1)
		assert.NotNil(t, model.LastResults, "reset waits for the queue")
		queued[0]()
		assert.Nil(t, model.LastResults)
	})
}
