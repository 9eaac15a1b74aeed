package orch

import (
	"context"

	"github.com/dkeye/Trivia/internal/domain"
	"github.com/rs/zerolog/log"
)

// UpdateSettings merges the whitelisted fields of patch while in the lobby.
func (o *Orchestrator) UpdateSettings(ctx context.Context, token string, id domain.SessionID, patch domain.SettingsPatch) (domain.Snapshot, error) {
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
	if !s.IsHost(ident.ID) {
		log.Warn().Str("module", "orch").Str("session", string(id)).Str("player", string(ident.ID)).Msg("settings change by non-host")
		return domain.Snapshot{}, domain.ErrPermissionDenied
	}
	if s.Status != domain.StatusLobby || e.Starting() {
		return domain.Snapshot{}, domain.ErrWrongPhase
	}
	if err := patch.Apply(&s.Settings); err != nil {
		return domain.Snapshot{}, err
	}
	log.Info().Str("module", "orch").Str("session", string(id)).Interface("settings", s.Settings).Msg("settings updated")
	return o.publish(e), nil
}
