// Package cue names the table's audio cues and provides players for them.
// Decoding and output of audio is outside the client; a player only has to
// accept the cue name.
package cue

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
)

// Name identifies a sound asset
type Name string

const (
	Bet  Name = "bet"
	Card Name = "card"
	Win  Name = "win"
	Lose Name = "lose"
)

// All lists every cue in manifest order
var All = []Name{Bet, Card, Win, Lose}

// Player plays a cue. Implementations must not block the caller.
type Player interface {
	Play(Name)
}

// LogPlayer records cues to a logger
type LogPlayer struct {
	logger *log.Logger
}

// NewLogPlayer creates a player that logs each cue at debug level
func NewLogPlayer(logger *log.Logger) *LogPlayer {
	return &LogPlayer{logger: logger.WithPrefix("cue")}
}

// Play implements Player
func (p *LogPlayer) Play(name Name) {
	p.logger.Debug("Playing cue", "cue", name)
}

// BellPlayer rings the terminal bell for win cues and logs the rest
type BellPlayer struct {
	out  io.Writer
	next Player
}

// NewBellPlayer wraps next, ringing on out for Win
func NewBellPlayer(out io.Writer, next Player) *BellPlayer {
	return &BellPlayer{out: out, next: next}
}

// Play implements Player
func (p *BellPlayer) Play(name Name) {
	if name == Win {
		_, _ = fmt.Fprint(p.out, "\a")
	}
	if p.next != nil {
		p.next.Play(name)
	}
}

// Recorder keeps every cue played, for tests and diagnostics
type Recorder struct {
	mu     sync.Mutex
	played []Name
}

// Play implements Player
func (r *Recorder) Play(name Name) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.played = append(r.played, name)
}

// Played returns a copy of the cues seen so far
func (r *Recorder) Played() []Name {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Name, len(r.played))
	copy(out, r.played)
	return out
}

// Count returns how many times name was played
func (r *Recorder) Count(name Name) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.played {
		if p == name {
			n++
		}
	}
	return n
}
