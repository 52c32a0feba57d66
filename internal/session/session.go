// Package session runs the client reactor. Server events, asset status
// changes, timer expirations, user input and resizes are applied one at a
// time on a single goroutine, and a fresh frame is rendered after each.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/blackjack/internal/assets"
	"github.com/lox/blackjack/internal/cue"
	"github.com/lox/blackjack/internal/input"
	"github.com/lox/blackjack/internal/protocol"
	"github.com/lox/blackjack/internal/reconcile"
	"github.com/lox/blackjack/internal/render"
	"github.com/lox/blackjack/internal/view"
)

const queueSize = 64

// Link is the server connection as seen by the session
type Link interface {
	Events() <-chan protocol.Event
	Send(cmd protocol.Command) error
	IsConnected() bool
}

// Surface displays frames. Publish is called from the reactor goroutine and
// must not block.
type Surface interface {
	Publish(f render.Frame)
}

// SurfaceFunc adapts a function to a Surface
type SurfaceFunc func(render.Frame)

// Publish calls f
func (f SurfaceFunc) Publish(frame render.Frame) { f(frame) }

// Config holds the per-session settings
type Config struct {
	Table    string
	Player   string
	Manifest assets.Manifest
	Clock    quartz.Clock
	// ResetDelay overrides the round-end reset delay when positive
	ResetDelay time.Duration
	// LinkCheck is how often the connection is polled to show a reconnecting
	// banner. Zero disables polling.
	LinkCheck time.Duration
}

// Session owns the view model and everything that writes to it
type Session struct {
	cfg        Config
	link       Link
	store      *assets.Store
	surface    Surface
	logger     *log.Logger
	model      *view.Model
	reconciler *reconcile.Reconciler
	input      *input.Controller

	queue  chan func()
	done   chan struct{}
	joined bool

	mu    sync.RWMutex
	frame render.Frame
}

// New wires a session. Nothing happens until Run.
func New(cfg Config, link Link, store *assets.Store, surface Surface, cues cue.Player, logger *log.Logger) *Session {
	if cfg.Manifest == nil {
		cfg.Manifest = assets.DefaultManifest()
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}

	s := &Session{
		cfg:     cfg,
		link:    link,
		store:   store,
		surface: surface,
		logger:  logger.WithPrefix("session"),
		model:   view.New(),
		queue:   make(chan func(), queueSize),
		done:    make(chan struct{}),
	}

	s.reconciler = reconcile.New(s.model, cues, logger, reconcile.Options{
		Clock:      cfg.Clock,
		ResetDelay: cfg.ResetDelay,
		Post:       s.Post,
	})
	s.input = input.New(s.model, link, cues, logger, cfg.Table, cfg.Player)

	store.OnChange(func(status assets.Status) {
		s.Post(func() { s.assetsChanged(status) })
	})

	return s
}

// Player returns the local player id
func (s *Session) Player() string {
	return s.cfg.Player
}

// Post queues fn to run on the reactor goroutine. It blocks while the queue
// is full and drops fn once the session has stopped.
func (s *Session) Post(fn func()) {
	select {
	case s.queue <- fn:
	case <-s.done:
	}
}

// PlaceBet submits a bet typed by the user
func (s *Session) PlaceBet(text string) {
	s.Post(func() { s.input.PlaceBet(text) })
}

// SubmitAction sends a gameplay action
func (s *Session) SubmitAction(kind protocol.ActionKind) {
	s.Post(func() { s.input.SubmitAction(kind) })
}

// Resize redraws for a new surface size. Frames are in logical units so
// the surface does the scaling.
func (s *Session) Resize(v render.Viewport) {
	s.Post(func() {
		s.logger.Debug("Viewport resized", "width", v.Width, "height", v.Height, "scale", v.Scale())
	})
}

// Frame returns the most recently published frame
func (s *Session) Frame() render.Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame
}

// Run starts loading assets and applies reactions until ctx is cancelled
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)

	s.logger.Info("Session started", "table", s.cfg.Table, "player", s.cfg.Player)

	var linkCheck <-chan time.Time
	if s.cfg.LinkCheck > 0 {
		ticker := s.cfg.Clock.NewTicker(s.cfg.LinkCheck, "session", "link")
		defer ticker.Stop()
		linkCheck = ticker.C
	}

	go s.store.Load(ctx, s.cfg.Manifest)
	s.redraw()

	events := s.link.Events()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Session stopped")
			return nil

		case ev, ok := <-events:
			if !ok {
				events = nil
				s.model.Reconnecting = false
				s.logger.Warn("Server connection closed")
				s.model.AddNotice(view.Notice{Text: "Disconnected from server", Error: true})
			} else {
				s.reconciler.Apply(ev)
			}

		case <-linkCheck:
			// a closed event stream means the link has given up for good
			reconnecting := events != nil && !s.link.IsConnected()
			if reconnecting == s.model.Reconnecting {
				continue
			}
			s.model.Reconnecting = reconnecting
			if reconnecting {
				s.logger.Warn("Server connection lost, waiting for reconnect")
			} else {
				s.logger.Info("Server connection restored")
			}

		case fn := <-s.queue:
			fn()
		}

		s.redraw()
	}
}

func (s *Session) assetsChanged(status assets.Status) {
	s.logger.Debug("Asset status", "state", status.State, "retries", status.Retries)

	switch status.State {
	case assets.Ready:
		if !s.joined {
			s.joined = true
			s.input.Join()
		}
	case assets.Failed:
		s.logger.Error("Asset loading failed", "failed", len(status.Failed))
	}
}

// redraw renders the model, publishes the frame and reports card images
// the frame had to replace with placeholders
func (s *Session) redraw() {
	frame := render.Render(s.model.Clone(), s.store, s.cfg.Player)

	s.mu.Lock()
	s.frame = frame
	s.mu.Unlock()

	if s.surface != nil {
		s.surface.Publish(frame)
	}

	for _, code := range frame.Missing {
		s.input.ReportMissingCard(code)
	}
}
