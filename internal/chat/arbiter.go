package chat

import (
	"math/rand/v2"
	"strings"
)

// Arbiter validates requested nicknames and assigns identities.
type Arbiter struct {
	registry *Registry
	palette  []string
	pick     func(n int) int
}

// NewArbiter returns an Arbiter that binds identities in registry, drawing
// colors from palette. A nil pick uses math/rand.
func NewArbiter(registry *Registry, palette []string, pick func(n int) int) *Arbiter {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	if pick == nil {
		pick = rand.IntN
	}
	return &Arbiter{
		registry: registry,
		palette:  append([]string(nil), palette...),
		pick:     pick,
	}
}

// Assign binds a nickname and a random palette color to the connection.
// The nickname is trimmed before validation and storage.
func (a *Arbiter) Assign(id, requested string) (Identity, error) {
	nickname := strings.TrimSpace(requested)
	if nickname == "" {
		return Identity{}, ErrEmptyNickname
	}
	if _, bound := a.registry.Lookup(id); bound {
		return Identity{}, ErrAlreadyBound
	}
	if a.registry.IsNicknameTaken(nickname) {
		return Identity{}, ErrNicknameTaken
	}

	color := a.palette[a.pick(len(a.palette))]
	if err := a.registry.Bind(id, nickname, color); err != nil {
		return Identity{}, err
	}
	return Identity{Nickname: nickname, Color: color}, nil
}
