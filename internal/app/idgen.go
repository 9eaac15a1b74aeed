package app

import (
	"strings"

	"github.com/dkeye/Trivia/internal/core"
	"github.com/dkeye/Trivia/internal/domain"
)

const (
	DefaultIDLength = 6

	// IDAlphabet excludes look-alikes (0/O, 1/I) so pins are easy to type.
	IDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	attemptsPerLength = 16
)

// IDGenerator produces short game pins. After attemptsPerLength collisions
// at one length it grows the code by one character, so it always terminates.
type IDGenerator struct {
	rand   core.RandomSource
	length int
}

func NewIDGenerator(rand core.RandomSource, length int) *IDGenerator {
	if length <= 0 {
		length = DefaultIDLength
	}
	return &IDGenerator{rand: rand, length: length}
}

func (g *IDGenerator) Generate(taken func(domain.SessionID) bool) domain.SessionID {
	for length := g.length; ; length++ {
		for range attemptsPerLength {
			id := domain.SessionID(g.code(length))
			if !taken(id) {
				return id
			}
		}
	}
}

func (g *IDGenerator) code(length int) string {
	var b strings.Builder
	b.Grow(length)
	for range length {
		b.WriteByte(IDAlphabet[g.rand.IntN(len(IDAlphabet))])
	}
	return b.String()
}
