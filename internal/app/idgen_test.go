package app

import (
	"strings"
	"testing"

	"github.com/dkeye/Trivia/internal/core"
	"github.com/dkeye/Trivia/internal/domain"
)

func TestGenerateUsesAlphabetAndLength(t *testing.T) {
	g := NewIDGenerator(core.NewSeededSource(9), 0)
	id := g.Generate(func(domain.SessionID) bool { return false })
	if len(id) != DefaultIDLength {
		t.Fatalf("len(%q) = %d", id, len(id))
	}
	for _, c := range string(id) {
		if !strings.ContainsRune(IDAlphabet, c) {
			t.Fatalf("%q has char outside alphabet", id)
		}
	}
}

func TestGenerateGrowsWhenSpaceIsExhausted(t *testing.T) {
	g := NewIDGenerator(core.NewSeededSource(9), 1)
	id := g.Generate(func(id domain.SessionID) bool { return len(id) == 1 })
	if len(id) != 2 {
		t.Fatalf("expected a 2-char id once 1-char ids are exhausted, got %q", id)
	}
}

func TestGenerateAvoidsExisting(t *testing.T) {
	g := NewIDGenerator(core.NewSeededSource(5), 2)
	existing := make(map[domain.SessionID]bool)
	for range 500 {
		id := g.Generate(func(id domain.SessionID) bool { return existing[id] })
		if existing[id] {
			t.Fatalf("collision on %q", id)
		}
		existing[id] = true
	}
}
