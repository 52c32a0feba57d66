package render

import (
	"fmt"
	"strconv"

	"github.com/lox/blackjack/internal/assets"
	"github.com/lox/blackjack/internal/cards"
	"github.com/lox/blackjack/internal/view"
)

// Assets is the read-only asset view the renderer needs
type Assets interface {
	Status() assets.Status
	Handle(key assets.Key) (any, bool)
}

const (
	seatW     = 100
	seatH     = 30
	seatY     = 420
	seatX0    = 100
	seatStep  = 150
	handBaseY = 350
	handStep  = 120
	cardStep  = 30
	dealerX   = 350
	dealerY   = 80
	dealerGap = 70
)

// ReconnectingText is shown while the server connection is being redialled
const ReconnectingText = "Reconnecting to server..."

// Render draws the model. local is the player id of this client.
func Render(m view.Model, a Assets, local string) Frame {
	b := &builder{assets: a, seen: make(map[cards.Code]bool)}

	b.add(Op{Kind: OpClear})

	status := a.Status()
	if !status.Ready() {
		b.text(status.Text, 360, 300, 16, White)
		return b.frame
	}

	if m.Reconnecting {
		b.text(ReconnectingText, 700, 20, 14, Red)
	}

	if m.BettingCountdown > 0 {
		b.text(fmt.Sprintf("BETTING: %d", m.BettingCountdown), 400, 40, 16, White)
	}

	if !m.HasTable {
		return b.frame
	}

	b.seats(m)
	b.dealer(m)
	b.players(m)
	b.turn(m, local)
	b.extras(m)

	return b.frame
}

type builder struct {
	assets Assets
	frame  Frame
	seen   map[cards.Code]bool
}

func (b *builder) add(op Op) {
	b.frame.Ops = append(b.frame.Ops, op)
}

func (b *builder) text(s string, x, y float64, size int, c Color) {
	b.add(Op{Kind: OpText, X: x, Y: y, Text: s, Size: size, Color: c})
}

func (b *builder) seats(m view.Model) {
	for i, id := range m.Seats {
		x := float64(seatX0 + i*seatStep)
		y := float64(seatY)

		if id != "" && id == m.ActiveTurnSeat {
			b.add(Op{Kind: OpFillRect, X: x - 5, Y: y - 5, W: seatW + 10, H: seatH + 10, Color: Highlight})
		}
		b.add(Op{Kind: OpStrokeRect, X: x, Y: y, W: seatW, H: seatH, Color: White})

		label := id
		if label == "" {
			label = "EMPTY"
		}
		b.text(label, x+10, y+20, 16, White)
	}
}

func (b *builder) dealer(m view.Model) {
	b.text("DEALER", 400, 60, 16, White)
	for i, code := range m.DealerHand {
		b.card(code, float64(dealerX+i*dealerGap), dealerY)
	}
	b.text("Total: "+strconv.Itoa(cards.HandValue(m.DealerHand)), dealerX, 190, 16, White)
}

func (b *builder) players(m view.Model) {
	for idx, id := range m.Seats {
		p, ok := m.Players[id]
		if id == "" || !ok {
			continue
		}

		baseX := float64(seatX0 + idx*seatStep)

		b.text(id, baseX, 520, 14, White)
		b.text("Chips: "+strconv.Itoa(p.Chips), baseX, 540, 14, White)
		if bet := m.Bets[id]; bet != 0 {
			b.text("Bet: "+strconv.Itoa(bet), baseX, 560, 14, Lime)
		}

		for h, hand := range p.Hands {
			y := float64(handBaseY - h*handStep)
			for i, code := range hand {
				b.card(code, baseX+float64(i*cardStep), y)
			}
			b.text(strconv.Itoa(cards.HandValue(hand)), baseX, y-10, 14, White)
			if label, c, ok := handLabel(hand); ok {
				b.text(label, baseX+30, y-10, 12, c)
			}
		}

		if results, ok := m.LastResults[id]; ok {
			net := netResult(results)
			b.text(outcome(net), baseX+70, 520, 14, outcomeColor(net))
		}
	}
}

func (b *builder) turn(m view.Model, local string) {
	if !m.HasActiveTurn() {
		return
	}
	b.text(fmt.Sprintf("TURN: %s (%ds)", m.ActiveTurnSeat, m.TurnCountdown), 350, 580, 18, Yellow)
	if local != "" && m.ActiveTurnSeat == local {
		b.text("YOUR TURN", 380, 560, 20, Yellow)
	}
}

// extras draws the phase label and recent server notices in the top-left
// corner, clear of the table layout.
func (b *builder) extras(m view.Model) {
	if m.Phase != "" {
		b.text("Phase: "+m.Phase, 10, 20, 12, Muted)
	}
	for i, n := range m.Notices {
		c := Muted
		if n.Error {
			c = Red
		}
		b.text(n.Text, 10, float64(40+i*16), 12, c)
	}
}

// card draws an image op, or a placeholder when no decoded image exists
func (b *builder) card(code cards.Code, x, y float64) {
	if handle, ok := b.assets.Handle(assets.CardKey(code)); ok && handle != nil {
		b.add(Op{Kind: OpCard, X: x, Y: y, W: CardWidth, H: CardHeight, Card: code})
		return
	}

	b.add(Op{Kind: OpFillRect, X: x, Y: y, W: CardWidth, H: CardHeight, Color: Placeholder})
	b.add(Op{Kind: OpStrokeRect, X: x, Y: y, W: CardWidth, H: CardHeight, Color: White})
	if !b.seen[code] {
		b.seen[code] = true
		b.frame.Missing = append(b.frame.Missing, code)
	}
}

// handLabel names a bust, a natural or a soft total
func handLabel(hand view.Hand) (string, Color, bool) {
	switch {
	case cards.IsBust(hand):
		return "BUST", Red, true
	case cards.IsBlackjack(hand):
		return "BLACKJACK", Lime, true
	case cards.IsSoft(hand):
		return "soft", Muted, true
	default:
		return "", White, false
	}
}

func netResult(results []int) int {
	net := 0
	for _, r := range results {
		net += r
	}
	return net
}

func outcome(net int) string {
	switch {
	case net > 0:
		return "+" + strconv.Itoa(net)
	case net < 0:
		return strconv.Itoa(net)
	default:
		return "push"
	}
}

func outcomeColor(net int) Color {
	switch {
	case net > 0:
		return Lime
	case net < 0:
		return Red
	default:
		return White
	}
}
