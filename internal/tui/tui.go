// Package tui is the terminal surface. It rasterises published frames into
// a character grid and turns key presses into bets and actions.
package tui

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/lox/blackjack/internal/protocol"
	"github.com/lox/blackjack/internal/render"
	"github.com/muesli/termenv"
)

// Controller receives what the user does
type Controller interface {
	PlaceBet(text string)
	SubmitAction(kind protocol.ActionKind)
	Resize(v render.Viewport)
}

// Surface is the session side of the terminal: Publish hands it frames
// and the program picks up the newest one.
type Surface struct {
	frames chan render.Frame
}

// NewSurface creates a surface holding at most one pending frame
func NewSurface() *Surface {
	return &Surface{frames: make(chan render.Frame, 1)}
}

// Publish replaces any frame the program has not drawn yet
func (s *Surface) Publish(f render.Frame) {
	for {
		select {
		case s.frames <- f:
			return
		default:
		}
		select {
		case <-s.frames:
		default:
		}
	}
}

type frameMsg render.Frame

// helpFor lists the bindings in the order actions are offered
func helpFor(keys map[string]protocol.ActionKind) string {
	parts := []string{"enter bet"}
	sorted := slices.Sorted(maps.Keys(keys))
	for _, kind := range protocol.KnownActions {
		for _, key := range sorted {
			if keys[key] == kind {
				parts = append(parts, key+" "+kind.String())
			}
		}
	}
	return strings.Join(append(parts, "esc quit"), " · ")
}

// Model is the bubbletea model for the table
type Model struct {
	controller Controller
	surface    *Surface
	styles     Styles
	logger     *log.Logger
	keys       map[string]protocol.ActionKind
	help       string

	betInput textinput.Model
	frame    render.Frame
	width    int
	height   int
	quitting bool

	done     chan struct{}
	stopOnce sync.Once
}

// NewModel creates the terminal model. keys binds single keys to actions.
// Pass termenv.Ascii for plain output.
func NewModel(controller Controller, surface *Surface, keys map[string]protocol.ActionKind, profile termenv.Profile, logger *log.Logger) *Model {
	styles := NewStyles(profile)

	ti := textinput.New()
	ti.Placeholder = "bet amount"
	ti.Focus()
	ti.CharLimit = 9
	ti.Width = 12
	ti.Prompt = "Bet> "
	ti.PromptStyle = styles.Prompt

	return &Model{
		controller: controller,
		surface:    surface,
		styles:     styles,
		logger:     logger.WithPrefix("tui"),
		keys:       keys,
		help:       helpFor(keys),
		betInput:   ti,
		done:       make(chan struct{}),
	}
}

// Init starts waiting for frames
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForFrame())
}

// waitForFrame delivers the next published frame, or nothing once the
// program has stopped
func (m *Model) waitForFrame() tea.Cmd {
	return func() tea.Msg {
		select {
		case f := <-m.surface.frames:
			return frameMsg(f)
		case <-m.done:
			return nil
		}
	}
}

func (m *Model) stop() {
	m.stopOnce.Do(func() { close(m.done) })
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.frame = render.Frame(msg)
		return m, m.waitForFrame()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logger.Debug("Updating dimensions", "width", m.width, "height", m.height)
		m.controller.Resize(viewportFor(m.width, m.tableRows()))
		return m, nil

	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			amount := strings.TrimSpace(m.betInput.Value())
			m.betInput.SetValue("")
			if amount != "" {
				m.controller.PlaceBet(amount)
			}
			return m, nil
		}

		if kind, ok := m.keys[key]; ok {
			m.controller.SubmitAction(kind)
			return m, nil
		}

		// the bet field only takes digits
		if msg.Type == tea.KeyRunes && !allDigits(msg.Runes) {
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.betInput, cmd = m.betInput.Update(msg)
	return m, cmd
}

func allDigits(runes []rune) bool {
	for _, r := range runes {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// tableRows is the height left for the table under the input and help lines
func (m *Model) tableRows() int {
	return max(m.height-2, 0)
}

// View draws the latest frame above the bet input
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	table := rasterize(m.frame, m.width, m.tableRows()).String(m.styles)
	return strings.Join([]string{
		table,
		m.betInput.View(),
		m.styles.Help.Render(m.help),
	}, "\n")
}

// Run runs the terminal program until the user quits or ctx is cancelled
func Run(ctx context.Context, m *Model) error {
	defer m.stop()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
