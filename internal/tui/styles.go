package tui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/lox/blackjack/internal/render"
	"github.com/muesli/termenv"
)

// Styles maps the frame palette to terminal styles
type Styles struct {
	palette   map[render.Color]lipgloss.Style
	fills     map[render.Color]lipgloss.Style
	RedCard   lipgloss.Style
	BlackCard lipgloss.Style
	Prompt    lipgloss.Style
	Help      lipgloss.Style
}

// NewStyles builds styles for a colour profile. termenv.Ascii gives plain
// text.
func NewStyles(profile termenv.Profile) Styles {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(profile)

	fg := func(hex string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(hex))
	}
	bg := func(hex string) lipgloss.Style {
		return r.NewStyle().Background(lipgloss.Color(hex))
	}

	return Styles{
		palette: map[render.Color]lipgloss.Style{
			render.White:       fg("#FAFAFA"),
			render.Highlight:   fg("#FFD700").Bold(true),
			render.Lime:        fg("#96CEB4").Bold(true),
			render.Yellow:      fg("#FFEAA7").Bold(true),
			render.Placeholder: fg("#626262"),
			render.Red:         fg("#FF6B6B").Bold(true),
			render.Muted:       fg("#626262"),
		},
		fills: map[render.Color]lipgloss.Style{
			render.Highlight:   bg("#7D56F4"),
			render.Placeholder: bg("#3A3A3A"),
		},
		RedCard:   fg("#FF6B6B").Bold(true),
		BlackCard: fg("#FAFAFA").Bold(true),
		Prompt:    fg("#04B575").Bold(true),
		Help:      fg("#626262"),
	}
}

func (s Styles) fg(c render.Color) lipgloss.Style {
	if st, ok := s.palette[c]; ok {
		return st
	}
	return s.palette[render.White]
}

func (s Styles) fill(c render.Color) lipgloss.Style {
	if st, ok := s.fills[c]; ok {
		return st
	}
	return s.fills[render.Placeholder]
}

func (s Styles) cellStyle(cs cellStyle) lipgloss.Style {
	st := s.fg(cs.fg)
	switch cs.card {
	case toneRed:
		st = s.RedCard
	case toneBlack:
		st = s.BlackCard
	}
	if cs.filled {
		st = st.Background(s.fill(cs.fill).GetBackground())
	}
	return st
}
