package core

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// RandomSource is the single source of randomness of the engine.
// *rand.Rand from math/rand/v2 satisfies it; tests inject a seeded one.
type RandomSource interface {
	IntN(n int) int
}

type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedSource) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// NewRandomSource returns a goroutine-safe ChaCha8 source seeded from crypto/rand.
func NewRandomSource() RandomSource {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		binary.LittleEndian.PutUint64(seed[:], rand.Uint64())
	}
	return &lockedSource{r: rand.New(rand.NewChaCha8(seed))}
}

// NewSeededSource is deterministic; use it in tests.
func NewSeededSource(seed uint64) RandomSource {
	return &lockedSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Shuffle is a Fisher-Yates permutation of s driven by src.
func Shuffle[T any](src RandomSource, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}
