package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownCommand is returned when decoding a command the server would not accept
var ErrUnknownCommand = errors.New("unknown command")

// CommandName identifies an outbound command
type CommandName string

const (
	CommandJoin   CommandName = "join"
	CommandBet    CommandName = "bet"
	CommandAction CommandName = "action"
)

// ActionKind is a play action token. The named constants are the actions the
// client offers; any other token from the server round-trips unchanged.
type ActionKind string

const (
	Hit               ActionKind = "hit"
	Stand             ActionKind = "stand"
	Double            ActionKind = "double"
	Split             ActionKind = "split"
	ErrorLoadingCards ActionKind = "error_loading_cards"
)

// KnownActions lists the actions offered to the player
var KnownActions = []ActionKind{Hit, Stand, Double, Split}

// Other wraps a token the client has no constant for
func Other(token string) ActionKind {
	return ActionKind(token)
}

// ParseAction maps a token to its kind, falling back to Other
func ParseAction(token string) ActionKind {
	switch k := ActionKind(token); k {
	case Hit, Stand, Double, Split, ErrorLoadingCards:
		return k
	default:
		return Other(token)
	}
}

// Known reports whether the kind is one of the named constants
func (k ActionKind) Known() bool {
	switch k {
	case Hit, Stand, Double, Split, ErrorLoadingCards:
		return true
	}
	return false
}

func (k ActionKind) String() string {
	return string(k)
}

// Command is one of Join, Bet or Action
type Command interface {
	CommandName() CommandName
	isCommand()
}

// Join asks to sit at a table
type Join struct {
	Table  string `json:"table"`
	Player string `json:"player"`
}

// Bet adds chips to the player's wager for the current round
type Bet struct {
	Table  string `json:"table"`
	Player string `json:"player"`
	Amount int    `json:"amount"`
}

// Action submits a play decision
type Action struct {
	Table  string     `json:"table"`
	Player string     `json:"player"`
	Action ActionKind `json:"action"`
}

func (Join) CommandName() CommandName   { return CommandJoin }
func (Bet) CommandName() CommandName    { return CommandBet }
func (Action) CommandName() CommandName { return CommandAction }

func (Join) isCommand()   {}
func (Bet) isCommand()    {}
func (Action) isCommand() {}

// EncodeCommand wraps a command in an envelope
func EncodeCommand(cmd Command) ([]byte, error) {
	return encode(string(cmd.CommandName()), cmd)
}

// DecodeCommand parses an envelope into a command; used by test servers
func DecodeCommand(data []byte) (Command, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var (
		cmd Command
		err error
	)
	switch CommandName(env.Event) {
	case CommandJoin:
		cmd, err = decodeAs[Join](env.Data)
	case CommandBet:
		cmd, err = decodeAs[Bet](env.Data)
	case CommandAction:
		cmd, err = decodeAs[Action](env.Data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, env.Event)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Event, err)
	}
	return cmd, nil
}
