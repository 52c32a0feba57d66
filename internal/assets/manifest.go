package assets

import (
	"strings"

	"github.com/lox/blackjack/internal/cards"
	"github.com/lox/blackjack/internal/cue"
)

const soundPrefix = "sound:"

// Key identifies one loadable resource: a card code or a named sound
type Key string

// CardKey returns the key of a card image
func CardKey(code cards.Code) Key {
	return Key(code)
}

// SoundKey returns the key of a sound
func SoundKey(name cue.Name) Key {
	return Key(soundPrefix + string(name))
}

// Sound returns the sound name if the key addresses a sound
func (k Key) Sound() (cue.Name, bool) {
	name, ok := strings.CutPrefix(string(k), soundPrefix)
	return cue.Name(name), ok
}

// Card returns the card code if the key addresses a card image
func (k Key) Card() (cards.Code, bool) {
	if _, ok := k.Sound(); ok {
		return "", false
	}
	return cards.Code(k), true
}

// Path is the resource path relative to the asset root
func (k Key) Path() string {
	if name, ok := k.Sound(); ok {
		return "static/sounds/" + string(name) + ".mp3"
	}
	return "static/cards/" + string(k) + ".png"
}

// Manifest is the fixed set of keys a store must load before it is ready
type Manifest []Key

// DefaultManifest returns the 52 card images followed by the four sounds
func DefaultManifest() Manifest {
	m := make(Manifest, 0, 52+len(cue.All))
	for _, code := range cards.All() {
		m = append(m, CardKey(code))
	}
	for _, name := range cue.All {
		m = append(m, SoundKey(name))
	}
	return m
}
