// Package gui is the windowed surface. It draws published frames with
// ebiten, scaling the logical table to the window.
package gui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lox/blackjack/internal/assets"
	"github.com/lox/blackjack/internal/cards"
	"github.com/lox/blackjack/internal/protocol"
	"github.com/lox/blackjack/internal/render"
	"golang.org/x/image/font/gofont/goregular"
)

// Controller receives what the user does
type Controller interface {
	PlaceBet(text string)
	SubmitAction(kind protocol.ActionKind)
	Resize(v render.Viewport)
}

// Images looks up loaded asset handles
type Images interface {
	Handle(key assets.Key) (any, bool)
}

// Surface holds the newest published frame for the draw loop
type Surface struct {
	mu    sync.Mutex
	frame render.Frame
}

// NewSurface creates an empty surface
func NewSurface() *Surface {
	return &Surface{}
}

// Publish stores f for the next draw
func (s *Surface) Publish(f render.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = f
}

// Frame returns the newest frame
func (s *Surface) Frame() render.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Game implements ebiten.Game
type Game struct {
	controller Controller
	surface    *Surface
	images     Images
	logger     *log.Logger
	keys       map[string]protocol.ActionKind

	font     *text.GoTextFaceSource
	faces    map[int]*text.GoTextFace
	textures map[cards.Code]*ebiten.Image
	bet      betBuffer
	chars    []rune
	width    int
	height   int
	done     <-chan struct{}
}

// NewGame creates the window game. keys binds typed characters to actions.
func NewGame(controller Controller, surface *Surface, images Images, keys map[string]protocol.ActionKind, logger *log.Logger) (*Game, error) {
	src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}

	return &Game{
		controller: controller,
		surface:    surface,
		images:     images,
		logger:     logger.WithPrefix("gui"),
		keys:       keys,
		font:       src,
		faces:      make(map[int]*text.GoTextFace),
		textures:   make(map[cards.Code]*ebiten.Image),
	}, nil
}

// Update handles keyboard input
func (g *Game) Update() error {
	select {
	case <-g.done:
		return ebiten.Termination
	default:
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	g.chars = ebiten.AppendInputChars(g.chars[:0])
	g.bet.Type(g.chars)
	for _, kind := range typedActions(g.keys, g.chars) {
		g.controller.SubmitAction(kind)
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		g.bet.Backspace()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadEnter) {
		if amount := g.bet.Take(); amount != "" {
			g.controller.PlaceBet(amount)
		}
	}
	return nil
}

// Draw paints the newest frame
func (g *Game) Draw(screen *ebiten.Image) {
	p := placementFor(screen.Bounds().Dx(), screen.Bounds().Dy())

	for _, op := range g.surface.Frame().Ops {
		g.drawOp(screen, p, op)
	}

	g.drawText(screen, "Bet: "+g.bet.String()+"_", 8, float64(screen.Bounds().Dy())-8, 14, render.White)
}

// Layout tracks the window size and reports changes as a resize
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.width || outsideHeight != g.height {
		g.width, g.height = outsideWidth, outsideHeight
		g.controller.Resize(render.Viewport{Width: outsideWidth, Height: outsideHeight})
	}
	return outsideWidth, outsideHeight
}

func (g *Game) drawOp(screen *ebiten.Image, p placement, op render.Op) {
	switch op.Kind {
	case render.OpClear:
		screen.Fill(background)

	case render.OpText:
		x, y := p.point(op.X, op.Y)
		g.drawText(screen, op.Text, x, y, float64(op.Size)*p.scale, op.Color)

	case render.OpFillRect:
		x, y, w, h := p.rect(op)
		vector.DrawFilledRect(screen, x, y, w, h, colorOf(op.Color), true)

	case render.OpStrokeRect:
		x, y, w, h := p.rect(op)
		vector.StrokeRect(screen, x, y, w, h, 2, colorOf(op.Color), true)

	case render.OpCard:
		tex := g.texture(op.Card)
		if tex == nil {
			x, y, w, h := p.rect(op)
			vector.DrawFilledRect(screen, x, y, w, h, colorOf(render.Placeholder), true)
			return
		}
		b := tex.Bounds()
		opts := &ebiten.DrawImageOptions{}
		opts.GeoM.Scale(op.W*p.scale/float64(b.Dx()), op.H*p.scale/float64(b.Dy()))
		x, y := p.point(op.X, op.Y)
		opts.GeoM.Translate(x, y)
		opts.Filter = ebiten.FilterLinear
		screen.DrawImage(tex, opts)
	}
}

// drawText draws s with its baseline at y
func (g *Game) drawText(screen *ebiten.Image, s string, x, y, size float64, c render.Color) {
	if size <= 0 || s == "" {
		return
	}
	face := g.face(size)
	m := face.Metrics()

	opts := &text.DrawOptions{}
	opts.GeoM.Translate(x, y-m.HAscent)
	opts.ColorScale.ScaleWithColor(colorOf(c))
	text.Draw(screen, s, face, opts)
}

func (g *Game) face(size float64) *text.GoTextFace {
	key := int(size * 4)
	if f, ok := g.faces[key]; ok {
		return f
	}
	f := &text.GoTextFace{Source: g.font, Size: size}
	g.faces[key] = f
	return f
}

// texture uploads a card image the first time it is drawn
func (g *Game) texture(code cards.Code) *ebiten.Image {
	if tex, ok := g.textures[code]; ok {
		return tex
	}
	handle, ok := g.images.Handle(assets.CardKey(code))
	if !ok {
		return nil
	}
	img, ok := assets.Image(handle)
	if !ok {
		return nil
	}
	tex := ebiten.NewImageFromImage(img)
	g.textures[code] = tex
	return tex
}

// Run opens the window and blocks until it is closed or ctx is cancelled
func Run(ctx context.Context, g *Game, title string) error {
	g.done = ctx.Done()

	ebiten.SetWindowSize(render.Width, render.Height)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	g.logger.Info("Window closed")
	return nil
}
