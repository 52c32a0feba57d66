package gui

import (
	"image/color"
	"unicode"

	"github.com/lox/blackjack/internal/protocol"
	"github.com/lox/blackjack/internal/render"
)

var background = color.RGBA{R: 0x0b, G: 0x5d, B: 0x1e, A: 0xff}

var palette = map[render.Color]color.RGBA{
	render.White:       {R: 0xfa, G: 0xfa, B: 0xfa, A: 0xff},
	render.Highlight:   {R: 0xff, G: 0xd7, B: 0x00, A: 0x80},
	render.Lime:        {R: 0x32, G: 0xcd, B: 0x32, A: 0xff},
	render.Yellow:      {R: 0xff, G: 0xff, B: 0x00, A: 0xff},
	render.Placeholder: {R: 0x55, G: 0x55, B: 0x55, A: 0xff},
	render.Red:         {R: 0xff, G: 0x6b, B: 0x6b, A: 0xff},
	render.Muted:       {R: 0xb0, G: 0xb0, B: 0xb0, A: 0xff},
}

func colorOf(c render.Color) color.RGBA {
	if rgba, ok := palette[c]; ok {
		return rgba
	}
	return palette[render.White]
}

// placement maps logical coordinates onto the window, scaled to fit and
// centred
type placement struct {
	scale      float64
	offX, offY float64
}

func placementFor(width, height int) placement {
	s := render.Viewport{Width: width, Height: height}.Scale()
	return placement{
		scale: s,
		offX:  (float64(width) - render.Width*s) / 2,
		offY:  (float64(height) - render.Height*s) / 2,
	}
}

func (p placement) point(x, y float64) (float64, float64) {
	return p.offX + x*p.scale, p.offY + y*p.scale
}

func (p placement) rect(op render.Op) (x, y, w, h float32) {
	px, py := p.point(op.X, op.Y)
	return float32(px), float32(py), float32(op.W * p.scale), float32(op.H * p.scale)
}

// betBuffer collects typed digits until enter
type betBuffer struct {
	digits []rune
}

const maxBetDigits = 9

func (b *betBuffer) Type(runes []rune) {
	for _, r := range runes {
		if unicode.IsDigit(r) && len(b.digits) < maxBetDigits {
			b.digits = append(b.digits, r)
		}
	}
}

func (b *betBuffer) Backspace() {
	if len(b.digits) > 0 {
		b.digits = b.digits[:len(b.digits)-1]
	}
}

// Take returns the typed amount and empties the buffer
func (b *betBuffer) Take() string {
	s := string(b.digits)
	b.digits = b.digits[:0]
	return s
}

func (b *betBuffer) String() string {
	return string(b.digits)
}

// typedActions returns the actions bound to the typed characters, in order
func typedActions(keys map[string]protocol.ActionKind, chars []rune) []protocol.ActionKind {
	var out []protocol.ActionKind
	for _, r := range chars {
		if kind, ok := keys[string(r)]; ok {
			out = append(out, kind)
		}
	}
	return out
}
