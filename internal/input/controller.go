// Package input turns local player intents into outbound commands and
// optimistic view model edits.
package input

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjack/internal/cards"
	"github.com/lox/blackjack/internal/cue"
	"github.com/lox/blackjack/internal/protocol"
	"github.com/lox/blackjack/internal/view"
)

// Sender submits commands to the server
type Sender interface {
	Send(protocol.Command) error
}

// Controller handles the local player's input. Like the reconciler it must be
// driven from the session goroutine.
type Controller struct {
	model    *view.Model
	sender   Sender
	cues     cue.Player
	logger   *log.Logger
	table    string
	player   string
	reported map[cards.Code]bool
}

// New creates a controller for player at table
func New(model *view.Model, sender Sender, cues cue.Player, logger *log.Logger, table, player string) *Controller {
	return &Controller{
		model:    model,
		sender:   sender,
		cues:     cues,
		logger:   logger.WithPrefix("input").With("player", player),
		table:    table,
		player:   player,
		reported: make(map[cards.Code]bool),
	}
}

// Player returns the local player id
func (c *Controller) Player() string {
	return c.player
}

// Join asks the server for a seat
func (c *Controller) Join() {
	c.send(protocol.Join{Table: c.table, Player: c.player})
}

// PlaceBet parses amount and, if it is a non-negative integer, sends the bet
// and adds it to the local seat's bet straight away. Anything else is
// ignored. It reports whether a bet was sent.
func (c *Controller) PlaceBet(amount string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(amount))
	if err != nil || n < 0 {
		c.logger.Debug("Ignoring invalid bet", "input", amount)
		return false
	}

	c.send(protocol.Bet{Table: c.table, Player: c.player, Amount: n})

	if c.model.Bets == nil {
		c.model.Bets = make(map[string]int)
	}
	c.model.Bets[c.player] += n
	c.cues.Play(cue.Bet)
	return true
}

// SubmitAction forwards a play action. Turn resolution belongs to the server
// so the model is not touched.
func (c *Controller) SubmitAction(kind protocol.ActionKind) {
	if !kind.Known() {
		c.logger.Warn("Sending unrecognised action", "action", kind)
	}
	c.send(protocol.Action{Table: c.table, Player: c.player, Action: kind})
}

// ReportMissingCard tells the server a card could not be drawn. Each code is
// reported once per session.
func (c *Controller) ReportMissingCard(code cards.Code) {
	if c.reported[code] {
		return
	}
	c.reported[code] = true
	c.logger.Warn("Card image missing", "card", code)
	c.SubmitAction(protocol.ErrorLoadingCards)
}

func (c *Controller) send(cmd protocol.Command) {
	if err := c.sender.Send(cmd); err != nil {
		c.logger.Error("Failed to send command", "command", cmd.CommandName(), "error", err)
	}
}
