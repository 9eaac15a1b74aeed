package orch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Trivia/internal/app"
	"github.com/dkeye/Trivia/internal/core"
	"github.com/dkeye/Trivia/internal/domain"
	"github.com/rs/zerolog/log"
)

// GameDefaults are the per-process game rules.
type GameDefaults struct {
	Settings   domain.Settings
	MaxPlayers int
	IntroGrace time.Duration
}

// Orchestrator is the session engine. Collaborators are injected; the
// Timers manager must be built on the same Clock.
type Orchestrator struct {
	Registry  *app.Registry
	Timers    *app.Timers
	Policy    app.ScorePolicy
	Identity  core.IdentityResolver
	Questions core.QuestionSource
	Sink      core.BroadcastSink
	Clock     core.Clock
	Rand      core.RandomSource
	Game      GameDefaults
}

func (o *Orchestrator) resolve(ctx context.Context, token string) (domain.Identity, error) {
	ident, err := o.Identity.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityUnresolved) {
			return domain.Identity{}, err
		}
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrIdentityUnresolved, err)
	}
	if ident.ID == "" {
		return domain.Identity{}, domain.ErrIdentityUnresolved
	}
	return ident, nil
}

// acquire returns the entry for id locked. The caller must Unlock it.
func (o *Orchestrator) acquire(id domain.SessionID) (*app.Entry, error) {
	e, ok := o.Registry.Get(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	e.Lock()
	if e.Closed() {
		e.Unlock()
		return nil, domain.ErrNotFound
	}
	return e, nil
}

// publish must be called with the entry lock held so snapshots of one
// session leave in transition order.
func (o *Orchestrator) publish(e *app.Entry) domain.Snapshot {
	s := e.Session()
	snap := s.Snapshot()
	if o.Sink != nil {
		o.Sink.Publish(s.ID, snap)
	}
	return snap
}

// closeSession tears a session down: cancel its timer, broadcast the final
// snapshot, then drop it from the registry. Lock must be held.
func (o *Orchestrator) closeSession(e *app.Entry, reason string) domain.Snapshot {
	s := e.Session()
	o.Timers.Stop(s.ID)
	e.NextGeneration()
	s.Status = domain.StatusClosed
	s.ActiveQuestion = nil
	snap := o.publish(e)
	e.MarkClosed()
	o.Registry.Remove(s.ID)
	log.Info().Str("module", "orch").Str("session", string(s.ID)).Str("reason", reason).Msg("session closed")
	return snap
}

// LiveSessions reports how many sessions are registered.
func (o *Orchestrator) LiveSessions() int { return o.Registry.Len() }

// Shutdown cancels every pending round timer. Sessions stay in memory
// until the process exits.
func (o *Orchestrator) Shutdown() {
	o.Timers.StopAll()
}
