package orch

import (
	"context"

	"github.com/dkeye/Trivia/internal/app"
	"github.com/dkeye/Trivia/internal/domain"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) CreateSession(ctx context.Context, token string) (domain.Snapshot, error) {
	ident, err := o.resolve(ctx, token)
	if err != nil {
		return domain.Snapshot{}, err
	}
	s := domain.NewSession(o.Game.Settings, ident)
	id, e := o.Registry.Create(s)

	e.Lock()
	defer e.Unlock()
	log.Info().Str("module", "orch").Str("session", string(id)).Str("player", string(ident.ID)).Msg("session created")
	return s.Snapshot(), nil
}

func (o *Orchestrator) JoinSession(ctx context.Context, token string, id domain.SessionID) (domain.Snapshot, error) {
	return o.join(ctx, token, id, false)
}

// RejoinAsHost re-attaches a disconnected host without ever enrolling anyone new.
func (o *Orchestrator) RejoinAsHost(ctx context.Context, token string, id domain.SessionID) (domain.Snapshot, error) {
	return o.join(ctx, token, id, true)
}

func (o *Orchestrator) join(ctx context.Context, token string, id domain.SessionID, hostOnly bool) (domain.Snapshot, error) {
	ident, err := o.resolve(ctx, token)
	if err != nil {
		return domain.Snapshot{}, err
	}
	e, err := o.acquire(id)
	if err != nil {
		return domain.Snapshot{}, err
	}
	defer e.Unlock()

	s := e.Session()
	logger := log.With().Str("module", "orch").Str("session", string(id)).Str("player", string(ident.ID)).Logger()

	if s.Status != domain.StatusLobby {
		logger.Warn().Str("status", string(s.Status)).Msg("join rejected: game already running")
		return domain.Snapshot{}, domain.ErrWrongPhase
	}

	if p, ok := s.Player(ident.ID); ok {
		if (s.Settings.IsPrivate || hostOnly) && !p.IsHost() {
			return domain.Snapshot{}, domain.ErrPermissionDenied
		}
		logger.Info().Msg("player re-attached")
		return s.Snapshot(), nil
	}
	if hostOnly {
		return domain.Snapshot{}, domain.ErrPermissionDenied
	}
	if len(s.Players) >= o.Game.MaxPlayers {
		logger.Warn().Int("players", len(s.Players)).Msg("join rejected: session full")
		return domain.Snapshot{}, domain.ErrSessionFull
	}
	if s.Settings.IsPrivate {
		logger.Warn().Msg("join rejected: private session")
		return domain.Snapshot{}, domain.ErrPermissionDenied
	}

	s.AddPlayer(ident, domain.PlayerNotReady)
	logger.Info().Int("players", len(s.Players)).Msg("player joined")
	return o.publish(e), nil
}

// SessionIsJoinable answers whether JoinSession would currently succeed.
func (o *Orchestrator) SessionIsJoinable(ctx context.Context, token string, id domain.SessionID) (bool, error) {
	ident, err := o.resolve(ctx, token)
	if err != nil {
		return false, err
	}
	e, err := o.acquire(id)
	if err != nil {
		return false, err
	}
	defer e.Unlock()

	s := e.Session()
	if s.Status != domain.StatusLobby {
		return false, nil
	}
	if p, ok := s.Player(ident.ID); ok {
		return !s.Settings.IsPrivate || p.IsHost(), nil
	}
	return !s.Settings.IsPrivate && len(s.Players) < o.Game.MaxPlayers, nil
}

// LeaveSession removes the caller from every session it is part of. A host
// leaving closes the session. This scans all live sessions.
func (o *Orchestrator) LeaveSession(ctx context.Context, token string) error {
	ident, err := o.resolve(ctx, token)
	if err != nil {
		return err
	}

	found := false
	for _, e := range o.Registry.Entries() {
		if o.leave(e, ident.ID) {
			found = true
		}
	}
	if !found {
		return domain.ErrNotFound
	}
	return nil
}

func (o *Orchestrator) leave(e *app.Entry, pid domain.PlayerID) bool {
	e.Lock()
	defer e.Unlock()
	if e.Closed() {
		return false
	}
	s := e.Session()
	p, ok := s.Player(pid)
	if !ok {
		return false
	}
	if p.IsHost() {
		o.closeSession(e, "host left")
		return true
	}

	s.RemovePlayer(pid)
	log.Info().Str("module", "orch").Str("session", string(s.ID)).Str("player", string(pid)).Msg("player left")
	if s.Status == domain.StatusQuestion && s.ActiveQuestion != nil && s.AllAnswered(s.ActiveQuestion.ID) {
		o.reveal(e, false)
		return true
	}
	o.publish(e)
	return true
}

func (o *Orchestrator) SetPlayerStatus(ctx context.Context, token string, id domain.SessionID, status string) (domain.Snapshot, error) {
	ident, err := o.resolve(ctx, token)
	if err != nil {
		return domain.Snapshot{}, err
	}
	next, err := domain.ParsePlayerStatus(status)
	if err != nil {
		return domain.Snapshot{}, err
	}
	e, err := o.acquire(id)
	if err != nil {
		return domain.Snapshot{}, err
	}
	defer e.Unlock()

	s := e.Session()
	if s.Status != domain.StatusLobby {
		return domain.Snapshot{}, domain.ErrWrongPhase
	}
	p, ok := s.Player(ident.ID)
	if !ok {
		return domain.Snapshot{}, domain.ErrNotFound
	}
	if p.IsHost() {
		return domain.Snapshot{}, domain.ErrPermissionDenied
	}
	p.Status = next
	log.Info().Str("module", "orch").Str("session", string(id)).Str("player", string(p.ID)).Str("status", string(next)).Msg("player status changed")
	return o.publish(e), nil
}

// View returns the current snapshot to a member of the session.
func (o *Orchestrator) View(ctx context.Context, token string, id domain.SessionID) (domain.Snapshot, error) {
	ident, err := o.resolve(ctx, token)
	if err != nil {
		return domain.Snapshot{}, err
	}
	e, err := o.acquire(id)
	if err != nil {
		return domain.Snapshot{}, err
	}
	defer e.Unlock()

	s := e.Session()
	if _, ok := s.Player(ident.ID); !ok {
		return domain.Snapshot{}, domain.ErrNotFound
	}
	return s.Snapshot(), nil
}

// Whoami resolves token without touching any session.
func (o *Orchestrator) Whoami(ctx context.Context, token string) (domain.Identity, error) {
	return o.resolve(ctx, token)
}
