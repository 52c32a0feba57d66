// Package reconcile merges inbound server events into the view model.
package reconcile

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/blackjack/internal/cue"
	"github.com/lox/blackjack/internal/protocol"
	"github.com/lox/blackjack/internal/view"
)

// Options configure a Reconciler
type Options struct {
	Clock quartz.Clock
	// ResetDelay overrides DefaultResetDelay when positive
	ResetDelay time.Duration
	// Post runs fn on the session's reaction queue. Timer callbacks go
	// through it so that the reset is applied like any other reaction.
	// When nil fn runs on the timer goroutine.
	Post func(fn func())
	// OnReset is called after a deferred reset has been applied
	OnReset func()
}

// Reconciler applies events to a shared model and executes their effects.
// It is the only writer of the model apart from optimistic input edits and
// must be driven from a single goroutine.
type Reconciler struct {
	model      *view.Model
	cues       cue.Player
	logger     *log.Logger
	clock      quartz.Clock
	resetDelay time.Duration
	post       func(func())
	onReset    func()
}

// New creates a reconciler writing to model
func New(model *view.Model, cues cue.Player, logger *log.Logger, opts Options) *Reconciler {
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.Post == nil {
		opts.Post = func(fn func()) { fn() }
	}

	return &Reconciler{
		model:      model,
		cues:       cues,
		logger:     logger.WithPrefix("reconcile"),
		clock:      opts.Clock,
		resetDelay: opts.ResetDelay,
		post:       opts.Post,
		onReset:    opts.OnReset,
	}
}

// Apply merges ev into the model and runs the resulting effects
func (r *Reconciler) Apply(ev protocol.Event) {
	next, effects := Reduce(*r.model, ev)
	*r.model = next

	r.logger.Debug("Applied event", "event", ev.EventName(), "effects", len(effects))

	for _, effect := range effects {
		switch e := effect.(type) {
		case PlayCue:
			r.cues.Play(e.Cue)
		case ScheduleReset:
			r.scheduleReset(e.After)
		}
	}
}

// scheduleReset arms the round-end reset. It is never cancelled: a snapshot
// that arrives during the delay does not stop it.
func (r *Reconciler) scheduleReset(after time.Duration) {
	if r.resetDelay > 0 {
		after = r.resetDelay
	}
	r.clock.AfterFunc(after, func() {
		r.post(r.reset)
	}, "reconcile", "reset")
}

func (r *Reconciler) reset() {
	*r.model = ResetRound(*r.model)
	r.logger.Debug("Round visuals reset")
	if r.onReset != nil {
		r.onReset()
	}
}
