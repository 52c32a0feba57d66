package reconcile

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/lox/blackjack/internal/cue"
	"github.com/lox/blackjack/internal/protocol"
	"github.com/lox/blackjack/internal/view"
)

// DefaultResetDelay is how long the settled board lingers after round_end
const DefaultResetDelay = 2000 * time.Millisecond

// Effect is a side effect requested by Reduce and executed by the Reconciler
type Effect interface {
	isEffect()
}

// PlayCue asks for an audio cue
type PlayCue struct {
	Cue cue.Name
}

// ScheduleReset asks for ResetRound to run after a delay
type ScheduleReset struct {
	After time.Duration
}

func (PlayCue) isEffect()       {}
func (ScheduleReset) isEffect() {}

// Reduce applies one inbound event to a model and returns the new model and
// the effects the event implies. The input model is not modified.
//
// Only table_state replaces object-valued fields; every other event touches
// only the scalars or slices it names.
func Reduce(m view.Model, ev protocol.Event) (view.Model, []Effect) {
	switch ev := ev.(type) {
	case protocol.BettingTimer:
		m.BettingCountdown = max(ev.Seconds, 0)
		return m, nil

	case protocol.PlayerTimer:
		m.ActiveTurnSeat = ev.Player
		m.TurnCountdown = max(ev.Seconds, 0)
		return m, nil

	case protocol.TableState:
		m = replaceSnapshot(m, ev)
		return m, []Effect{PlayCue{Cue: cue.Card}}

	case protocol.RoundEnd:
		return roundEnd(m, ev)

	case protocol.Notice:
		m.Notices = slices.Clone(m.Notices)
		m.AddNotice(view.Notice{Text: ev.Message, Error: ev.Error})
		return m, nil
	}

	return m, nil
}

func replaceSnapshot(m view.Model, ts protocol.TableState) view.Model {
	m.HasTable = true
	m.Phase = ts.State

	m.Seats = [view.SeatCount]string{}
	for i, id := range ts.PlayerOrder {
		if i >= view.SeatCount {
			break
		}
		m.Seats[i] = id
	}

	m.Players = make(map[string]view.Player, len(ts.Players))
	for id, p := range ts.Players {
		if m.SeatIndex(id) < 0 {
			continue // players must sit in a seat
		}
		hands := make([]view.Hand, len(p.Hands))
		for i, h := range p.Hands {
			hands[i] = slices.Clone(view.Hand(h))
		}
		m.Players[id] = view.Player{Chips: max(p.Chips, 0), Hands: hands}
	}

	m.Bets = make(map[string]int, len(ts.Bets))
	for id, amount := range ts.Bets {
		m.Bets[id] = max(amount, 0)
	}

	m.DealerHand = slices.Clone(view.Hand(ts.Dealer))
	return m
}

func roundEnd(m view.Model, re protocol.RoundEnd) (view.Model, []Effect) {
	m.ActiveTurnSeat = ""
	m.TurnCountdown = 0

	var effects []Effect
	results := make(map[string][]int, len(re.Results))

	// seat order keeps cue order stable; map order is not
	ids := make([]string, 0, len(re.Results))
	for id := range re.Results {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		return cmp.Or(seatOrder(m, a)-seatOrder(m, b), strings.Compare(a, b))
	})

	for _, id := range ids {
		for _, hand := range re.Results[id] {
			results[id] = append(results[id], hand.Win)
			switch {
			case hand.Win > 0:
				effects = append(effects, PlayCue{Cue: cue.Win})
			case hand.Win < 0:
				effects = append(effects, PlayCue{Cue: cue.Lose})
			}
		}
	}

	m.LastResults = results
	m.DealerHand = slices.Clone(view.Hand(re.Dealer))
	effects = append(effects, ScheduleReset{After: DefaultResetDelay})
	return m, effects
}

func seatOrder(m view.Model, id string) int {
	if i := m.SeatIndex(id); i >= 0 {
		return i
	}
	return view.SeatCount
}

// ResetRound clears the turn indicators, countdowns and settled results once
// the final board has lingered. Snapshot-owned fields are left alone.
func ResetRound(m view.Model) view.Model {
	m.ActiveTurnSeat = ""
	m.TurnCountdown = 0
	m.BettingCountdown = 0
	m.LastResults = nil
	return m
}
