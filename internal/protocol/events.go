package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lox/blackjack/internal/cards"
)

// ErrUnknownEvent is returned when an envelope names an event the client does not handle
var ErrUnknownEvent = errors.New("unknown event")

// EventName identifies an inbound event
type EventName string

const (
	EventBettingTimer  EventName = "betting_timer"
	EventPlayerTimer   EventName = "player_timer"
	EventTableState    EventName = "table_state"
	EventRoundEnd      EventName = "round_end"
	EventSystemMessage EventName = "system_message"
	EventJoinError     EventName = "join_error"
)

// Envelope is the JSON frame carrying every event and command
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Event is one of BettingTimer, PlayerTimer, TableState, RoundEnd or Notice
type Event interface {
	EventName() EventName
	isEvent()
}

// BettingTimer counts down the betting phase
type BettingTimer struct {
	Seconds int `json:"seconds"`
}

// PlayerTimer counts down the active seat's turn
type PlayerTimer struct {
	Player  string `json:"player"`
	Seconds int    `json:"seconds"`
}

// PlayerState is a seat's entry in a table snapshot
type PlayerState struct {
	Name       string         `json:"name,omitempty"`
	Chips      int            `json:"chips"`
	Hands      [][]cards.Code `json:"hands"`
	ActiveHand int            `json:"active_hand,omitempty"`
	Stood      bool           `json:"stood,omitempty"`
	Busted     bool           `json:"busted,omitempty"`
}

// TableState is the server's authoritative snapshot
type TableState struct {
	PlayerOrder []string               `json:"player_order"`
	Players     map[string]PlayerState `json:"players"`
	Bets        map[string]int         `json:"bets,omitempty"`
	Dealer      []cards.Code           `json:"dealer"`
	State       string                 `json:"state,omitempty"`
	CurrentTurn int                    `json:"current_turn,omitempty"`
}

// HandResult is the settled outcome of one hand; Win is signed
type HandResult struct {
	Hand  []cards.Code `json:"hand,omitempty"`
	Total int          `json:"total,omitempty"`
	Win   int          `json:"win"`
}

// RoundEnd carries per-seat results and the dealer's final hand
type RoundEnd struct {
	Results     map[string][]HandResult `json:"results"`
	Dealer      []cards.Code            `json:"dealer"`
	DealerTotal int                     `json:"dealer_total,omitempty"`
}

// Notice is a free-form server message. Error is set for join_error.
type Notice struct {
	Message string `json:"msg"`
	Error   bool   `json:"-"`
}

func (BettingTimer) EventName() EventName { return EventBettingTimer }
func (PlayerTimer) EventName() EventName  { return EventPlayerTimer }
func (TableState) EventName() EventName   { return EventTableState }
func (RoundEnd) EventName() EventName     { return EventRoundEnd }

// EventName implements Event
func (n Notice) EventName() EventName {
	if n.Error {
		return EventJoinError
	}
	return EventSystemMessage
}

func (BettingTimer) isEvent() {}
func (PlayerTimer) isEvent()  {}
func (TableState) isEvent()   {}
func (RoundEnd) isEvent()     {}
func (Notice) isEvent()       {}

// DecodeEvent parses a JSON envelope into a typed event
func DecodeEvent(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return env.Decode()
}

// Decode parses the envelope payload according to its event name
func (e Envelope) Decode() (Event, error) {
	var (
		ev  Event
		err error
	)

	switch EventName(e.Event) {
	case EventBettingTimer:
		ev, err = decodeAs[BettingTimer](e.Data)
	case EventPlayerTimer:
		ev, err = decodeAs[PlayerTimer](e.Data)
	case EventTableState:
		ev, err = decodeAs[TableState](e.Data)
	case EventRoundEnd:
		ev, err = decodeAs[RoundEnd](e.Data)
	case EventSystemMessage:
		ev, err = decodeAs[Notice](e.Data)
	case EventJoinError:
		var n Notice
		n, err = decodeAs[Notice](e.Data)
		n.Error = true
		ev = n
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, e.Event)
	}

	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", e.Event, err)
	}
	return ev, nil
}

func decodeAs[T any](data json.RawMessage) (T, error) {
	var v T
	if len(data) == 0 || string(data) == "null" {
		return v, nil
	}
	err := json.Unmarshal(data, &v)
	return v, err
}

// EncodeEvent wraps an event in an envelope, as the server would send it
func EncodeEvent(ev Event) ([]byte, error) {
	return encode(string(ev.EventName()), ev)
}

func encode(name string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: name, Data: data})
}
