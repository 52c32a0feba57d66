package tui

import (
	"math"
	"strings"

	"github.com/lox/blackjack/internal/render"
)

// Each terminal cell stands for an 8x16 block of device units, so a frame
// keeps roughly its shape on a typical terminal font.
const (
	cellWidth  = 8
	cellHeight = 16
)

type tone int

const (
	toneNone tone = iota
	toneRed
	toneBlack
)

type cellStyle struct {
	fg     render.Color
	fill   render.Color
	filled bool
	card   tone
}

type cell struct {
	r     rune
	style cellStyle
}

// grid is a character raster of one frame
type grid struct {
	cols, rows int
	scale      float64
	cells      [][]cell
}

// viewportFor returns the device size a cols x rows terminal presents
func viewportFor(cols, rows int) render.Viewport {
	return render.Viewport{Width: cols * cellWidth, Height: rows * cellHeight}
}

func newGrid(cols, rows int) *grid {
	g := &grid{
		cols:  max(cols, 0),
		rows:  max(rows, 0),
		scale: viewportFor(cols, rows).Scale(),
	}
	g.cells = make([][]cell, g.rows)
	for i := range g.cells {
		g.cells[i] = make([]cell, g.cols)
	}
	g.clear()
	return g
}

// rasterize draws every op of f in order
func rasterize(f render.Frame, cols, rows int) *grid {
	g := newGrid(cols, rows)
	for _, op := range f.Ops {
		g.draw(op)
	}
	return g
}

func (g *grid) col(x float64) int {
	return int(math.Floor(x * g.scale / cellWidth))
}

func (g *grid) row(y float64) int {
	return int(math.Floor(y * g.scale / cellHeight))
}

func (g *grid) set(c, r int, ch rune, st cellStyle) {
	if r < 0 || r >= g.rows || c < 0 || c >= g.cols {
		return
	}
	g.cells[r][c] = cell{r: ch, style: st}
}

func (g *grid) at(c, r int) (cell, bool) {
	if r < 0 || r >= g.rows || c < 0 || c >= g.cols {
		return cell{}, false
	}
	return g.cells[r][c], true
}

func (g *grid) clear() {
	for r := range g.cells {
		for c := range g.cells[r] {
			g.cells[r][c] = cell{r: ' ', style: cellStyle{fg: render.White}}
		}
	}
}

// bounds maps a logical rectangle to an inclusive cell range of at least
// one cell
func (g *grid) bounds(op render.Op) (c0, r0, c1, r1 int) {
	c0, r0 = g.col(op.X), g.row(op.Y)
	c1 = max(c0, g.col(op.X+op.W)-1)
	r1 = max(r0, g.row(op.Y+op.H)-1)
	return c0, r0, c1, r1
}

func (g *grid) draw(op render.Op) {
	switch op.Kind {
	case render.OpClear:
		g.clear()

	case render.OpText:
		// text is anchored on its baseline; lift it by half its size
		r := g.row(op.Y - float64(op.Size)/2)
		c := g.col(op.X)
		for i, ch := range []rune(op.Text) {
			prev, _ := g.at(c+i, r)
			st := cellStyle{fg: op.Color, fill: prev.style.fill, filled: prev.style.filled}
			g.set(c+i, r, ch, st)
		}

	case render.OpFillRect:
		c0, r0, c1, r1 := g.bounds(op)
		for r := r0; r <= r1; r++ {
			for c := c0; c <= c1; c++ {
				g.set(c, r, ' ', cellStyle{fg: render.White, fill: op.Color, filled: true})
			}
		}

	case render.OpStrokeRect:
		g.box(op, op.Color)

	case render.OpCard:
		g.card(op)
	}
}

// box strokes a rectangle, keeping any fill underneath
func (g *grid) box(op render.Op, color render.Color) {
	c0, r0, c1, r1 := g.bounds(op)

	put := func(c, r int, ch rune) {
		prev, ok := g.at(c, r)
		if !ok {
			return
		}
		g.set(c, r, ch, cellStyle{fg: color, fill: prev.style.fill, filled: prev.style.filled})
	}

	if c0 == c1 || r0 == r1 {
		for r := r0; r <= r1; r++ {
			for c := c0; c <= c1; c++ {
				put(c, r, '▪')
			}
		}
		return
	}

	for c := c0 + 1; c < c1; c++ {
		put(c, r0, '─')
		put(c, r1, '─')
	}
	for r := r0 + 1; r < r1; r++ {
		put(c0, r, '│')
		put(c1, r, '│')
	}
	put(c0, r0, '┌')
	put(c1, r0, '┐')
	put(c0, r1, '└')
	put(c1, r1, '┘')
}

// card draws a bordered card with its face label in the top-left corner
func (g *grid) card(op render.Op) {
	c0, r0, c1, r1 := g.bounds(op)

	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			g.set(c, r, ' ', cellStyle{fg: render.White})
		}
	}
	g.box(op, render.White)

	label := string(op.Card)
	t := toneBlack
	if card, err := op.Card.Card(); err == nil {
		label = card.String()
		if card.IsRed() {
			t = toneRed
		}
	}

	c, r := c0, r0
	if c1-c0 >= 2 && r1-r0 >= 2 {
		c, r = c0+1, r0+1
	}
	for i, ch := range []rune(label) {
		if c+i > c1 {
			break
		}
		g.set(c+i, r, ch, cellStyle{fg: render.White, card: t})
	}
}

// String renders the grid with styles, one line per row
func (g *grid) String(s Styles) string {
	var b strings.Builder
	for r, row := range g.cells {
		if r > 0 {
			b.WriteByte('\n')
		}

		start := 0
		for c := 1; c <= len(row); c++ {
			if c < len(row) && row[c].style == row[start].style {
				continue
			}
			run := make([]rune, 0, c-start)
			for _, cl := range row[start:c] {
				run = append(run, cl.r)
			}
			b.WriteString(s.cellStyle(row[start].style).Render(string(run)))
			start = c
		}
	}
	return b.String()
}

// Plain returns the grid text without styling, trailing spaces trimmed
func (g *grid) Plain() string {
	lines := make([]string, len(g.cells))
	for r, row := range g.cells {
		runes := make([]rune, len(row))
		for c, cl := range row {
			runes[c] = cl.r
		}
		lines[r] = strings.TrimRight(string(runes), " ")
	}
	return strings.Join(lines, "\n")
}
