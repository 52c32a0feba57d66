package gui

import (
	"bytes"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/mp3"
	"github.com/lox/blackjack/internal/assets"
	"github.com/lox/blackjack/internal/cue"
)

const sampleRate = 44100

// Sounds looks up loaded sound handles
type Sounds interface {
	Handle(key assets.Key) (any, bool)
}

// AudioPlayer plays cues from the loaded mp3 assets. Cues whose sound has
// not loaded are skipped.
type AudioPlayer struct {
	ctx    *audio.Context
	sounds Sounds
	logger *log.Logger

	mu      sync.Mutex
	playing []*audio.Player
}

// NewAudioPlayer creates a player. Only one audio context may exist per
// process.
func NewAudioPlayer(sounds Sounds, logger *log.Logger) *AudioPlayer {
	return &AudioPlayer{
		ctx:    audio.NewContext(sampleRate),
		sounds: sounds,
		logger: logger.WithPrefix("audio"),
	}
}

// Play starts the cue without waiting for it to finish
func (p *AudioPlayer) Play(name cue.Name) {
	handle, ok := p.sounds.Handle(assets.SoundKey(name))
	if !ok {
		p.logger.Debug("Sound not loaded", "cue", name)
		return
	}
	data, ok := assets.SoundData(handle)
	if !ok {
		return
	}

	stream, err := mp3.DecodeWithSampleRate(sampleRate, bytes.NewReader(data))
	if err != nil {
		p.logger.Warn("Failed to decode sound", "cue", name, "error", err)
		return
	}
	player, err := p.ctx.NewPlayer(stream)
	if err != nil {
		p.logger.Warn("Failed to create audio player", "cue", name, "error", err)
		return
	}
	player.Play()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = append(p.reap(), player)
}

// reap drops players that have finished
func (p *AudioPlayer) reap() []*audio.Player {
	live := p.playing[:0]
	for _, pl := range p.playing {
		if pl.IsPlaying() {
			live = append(live, pl)
		} else {
			_ = pl.Close()
		}
	}
	return live
}
