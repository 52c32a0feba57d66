// Package view holds the table view model: the single mutable snapshot of
// what the client should currently show. It is written by the reconciler and
// by optimistic input edits, and read by the renderer through Clone.
package view

import (
	"maps"
	"slices"

	"github.com/lox/blackjack/internal/cards"
)

// SeatCount is the number of fixed table positions
const SeatCount = 5

// MaxNotices bounds the notices kept for display
const MaxNotices = 5

// Hand is an ordered sequence of card codes
type Hand []cards.Code

// Player is a seated player's chips and hands
type Player struct {
	Chips int
	Hands []Hand
}

// Notice is a server message kept for display
type Notice struct {
	Text  string
	Error bool
}

// Model is the client's view of the table. Seats holds player ids in table
// order; an empty string is an empty seat.
type Model struct {
	Seats            [SeatCount]string
	Players          map[string]Player
	Bets             map[string]int
	DealerHand       Hand
	BettingCountdown int
	TurnCountdown    int
	ActiveTurnSeat   string

	// HasTable is set once the first snapshot arrives
	HasTable bool
	// Phase is the server's round state (waiting, betting, playing, round_end)
	Phase string
	// LastResults holds the signed outcome of each hand of the round just settled
	LastResults map[string][]int
	Notices     []Notice
	// Reconnecting is set while the server connection is down and being redialled
	Reconnecting bool
}

// New returns an empty model
func New() *Model {
	return &Model{
		Players: make(map[string]Player),
		Bets:    make(map[string]int),
	}
}

// HasActiveTurn reports whether a seat is currently acting
func (m *Model) HasActiveTurn() bool {
	return m.ActiveTurnSeat != ""
}

// SeatIndex returns the position of id at the table, or -1
func (m *Model) SeatIndex(id string) int {
	if id == "" {
		return -1
	}
	for i, seat := range m.Seats {
		if seat == id {
			return i
		}
	}
	return -1
}

// AddNotice appends a notice, dropping the oldest beyond MaxNotices
func (m *Model) AddNotice(n Notice) {
	m.Notices = append(m.Notices, n)
	if len(m.Notices) > MaxNotices {
		m.Notices = slices.Clone(m.Notices[len(m.Notices)-MaxNotices:])
	}
}

// Clone returns a deep copy safe to hand to the renderer
func (m *Model) Clone() Model {
	out := *m
	out.Players = make(map[string]Player, len(m.Players))
	for id, p := range m.Players {
		hands := make([]Hand, len(p.Hands))
		for i, h := range p.Hands {
			hands[i] = slices.Clone(h)
		}
		out.Players[id] = Player{Chips: p.Chips, Hands: hands}
	}
	out.Bets = maps.Clone(m.Bets)
	if out.Bets == nil {
		out.Bets = make(map[string]int)
	}
	out.DealerHand = slices.Clone(m.DealerHand)
	if m.LastResults != nil {
		out.LastResults = make(map[string][]int, len(m.LastResults))
		for id, r := range m.LastResults {
			out.LastResults[id] = slices.Clone(r)
		}
	}
	out.Notices = slices.Clone(m.Notices)
	return out
}
