package app

import (
	"sync"
	"time"

	"github.com/dkeye/Trivia/internal/core"
	"github.com/dkeye/Trivia/internal/domain"
	"github.com/rs/zerolog/log"
)

type armedTimer struct {
	timer core.Timer
	gen   uint64
}

// Timers holds at most one pending round-advance callback per session.
// Stopping is best effort; callbacks must still check the generation they
// were armed with against the session before acting.
type Timers struct {
	mu     sync.Mutex
	clock  core.Clock
	timers map[domain.SessionID]*armedTimer
}

func NewTimers(clock core.Clock) *Timers {
	return &Timers{
		clock:  clock,
		timers: make(map[domain.SessionID]*armedTimer),
	}
}

// Arm schedules fire(gen) after d, replacing any timer pending for id.
func (m *Timers) Arm(id domain.SessionID, gen uint64, d time.Duration, fire func(gen uint64)) {
	logger := log.With().Str("module", "app.timers").Str("session", string(id)).Uint64("gen", gen).Logger()

	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.timers[id]; ok {
		logger.Debug().Uint64("old_gen", old.gen).Msg("replacing pending timer")
		old.timer.Stop()
	}
	m.timers[id] = &armedTimer{
		gen: gen,
		timer: m.clock.AfterFunc(d, func() {
			m.forget(id, gen)
			fire(gen)
		}),
	}
	logger.Debug().Dur("after", d).Msg("timer armed")
}

// Stop cancels the pending timer for id, if any.
func (m *Timers) Stop(id domain.SessionID) bool {
	m.mu.Lock()
	t, ok := m.timers[id]
	if ok {
		delete(m.timers, id)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	return t.timer.Stop()
}

func (m *Timers) Armed(id domain.SessionID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.timers[id]
	return ok
}

func (m *Timers) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.timers {
		t.timer.Stop()
		delete(m.timers, id)
	}
	log.Info().Str("module", "app.timers").Msg("all timers stopped")
}

func (m *Timers) forget(id domain.SessionID, gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.timers[id]; ok && t.gen == gen {
		delete(m.timers, id)
	}
}
