package core

import "github.com/jonboulle/clockwork"

// Timer is the cancellable handle of a scheduled callback.
type Timer interface {
	Stop() bool
}

// Clock schedules round deadlines. Tests drive a clockwork.FakeClock.
type Clock = clockwork.Clock

// SystemClock is the wall clock.
func SystemClock() Clock { return clockwork.NewRealClock() }
