package app

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func recv(t *testing.T, fired <-chan uint64) uint64 {
	t.Helper()
	select {
	case gen := <-fired:
		return gen
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
		return 0
	}
}

func quiet(t *testing.T, fired <-chan uint64) {
	t.Helper()
	select {
	case gen := <-fired:
		t.Fatalf("unexpected fire of gen %d", gen)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestTimersArmFireForget(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Unix(0, 0))
	m := NewTimers(clock)
	fired := make(chan uint64, 1)
	m.Arm("S", 1, time.Second, func(gen uint64) { fired <- gen })
	if !m.Armed("S") {
		t.Fatal("timer not armed")
	}
	clock.Advance(time.Second)
	if gen := recv(t, fired); gen != 1 {
		t.Fatalf("fired gen = %d", gen)
	}
	if m.Armed("S") {
		t.Fatal("fired timer still tracked")
	}
}

func TestTimersArmReplacesPrevious(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Unix(0, 0))
	m := NewTimers(clock)
	fired := make(chan uint64, 2)
	m.Arm("S", 1, time.Second, func(gen uint64) { fired <- gen })
	m.Arm("S", 2, 2*time.Second, func(gen uint64) { fired <- gen })
	clock.Advance(3 * time.Second)
	if gen := recv(t, fired); gen != 2 {
		t.Fatalf("fired gen = %d, want only gen 2", gen)
	}
	quiet(t, fired)
}

func TestTimersStop(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Unix(0, 0))
	m := NewTimers(clock)
	fired := make(chan uint64, 2)
	m.Arm("S", 1, time.Second, func(gen uint64) { fired <- gen })
	if !m.Stop("S") {
		t.Fatal("stop reported nothing to stop")
	}
	if m.Stop("S") {
		t.Fatal("second stop must be a no-op")
	}
	clock.Advance(time.Minute)
	m.Arm("A", 2, time.Second, func(gen uint64) { fired <- gen })
	m.StopAll()
	clock.Advance(time.Minute)
	quiet(t, fired)
}
