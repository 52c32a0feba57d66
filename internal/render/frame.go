// Package render derives a drawable frame from the view model and asset
// state. Rendering is pure: the same inputs always give the same frame, and
// nothing is mutated. Surfaces (terminal, window) rasterise the frame.
package render

import (
	"github.com/lox/blackjack/internal/cards"
)

// Logical surface size; surfaces scale it to fit their viewport
const (
	Width      = 900
	Height     = 600
	CardWidth  = 60
	CardHeight = 90
)

// Color is a palette entry
type Color int

const (
	White Color = iota
	Highlight
	Lime
	Yellow
	Placeholder
	Red
	Muted
)

// OpKind is the kind of a draw operation
type OpKind int

const (
	OpClear OpKind = iota
	OpText
	OpFillRect
	OpStrokeRect
	OpCard
)

func (k OpKind) String() string {
	switch k {
	case OpClear:
		return "clear"
	case OpText:
		return "text"
	case OpFillRect:
		return "fill"
	case OpStrokeRect:
		return "stroke"
	case OpCard:
		return "card"
	default:
		return "unknown"
	}
}

// Op is one draw operation in logical coordinates. Text ops are anchored at
// their baseline-left corner like a canvas fillText.
type Op struct {
	Kind  OpKind
	X, Y  float64
	W, H  float64
	Text  string
	Size  int
	Color Color
	Card  cards.Code
}

// Frame is an ordered list of operations; later ops draw over earlier ones.
// Missing lists card codes that had no usable image and were drawn as
// placeholders.
type Frame struct {
	Ops     []Op
	Missing []cards.Code
}

// Texts returns the text of every text op in draw order
func (f Frame) Texts() []string {
	var out []string
	for _, op := range f.Ops {
		if op.Kind == OpText {
			out = append(out, op.Text)
		}
	}
	return out
}

// Viewport is a surface size in device units
type Viewport struct {
	Width, Height int
}

// Scale fits the logical surface into the viewport keeping its aspect ratio
func (v Viewport) Scale() float64 {
	if v.Width <= 0 || v.Height <= 0 {
		return 0
	}
	return min(float64(v.Width)/Width, float64(v.Height)/Height)
}
