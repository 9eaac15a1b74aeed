package signal

import (
	"context"
	"encoding/json"

	"github.com/dkeye/Trivia/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) badPayload(conn *WsSignalConn, event string, err error) {
	log.Warn().Err(err).Str("module", "signal").Str("event", event).Msg("bad payload")
	ctl.sendError(conn, event, "bad_payload")
}

// attach reserves the subscription before call runs, so transitions
// published while call holds the session are replayed after the reply.
func (ctl *SignalWSController) attach(
	conn *WsSignalConn,
	env envelope,
	call func() (domain.Snapshot, error),
) bool {
	ctl.Hub.Reserve(env.GamePin, conn.id, conn)
	snap, err := call()
	if ctl.replyErr(conn, env.Event, err) {
		ctl.Hub.Cancel(env.GamePin, conn.id)
		return false
	}
	ctl.sendJSON(conn, GameFrame{Type: "game", Game: snap})
	ctl.Hub.Confirm(env.GamePin, conn.id)
	return true
}

// handleSubscribe attaches the socket to a session the player already belongs to.
func (ctl *SignalWSController) handleSubscribe(
	ctx context.Context,
	conn *WsSignalConn,
	env envelope,
) {
	ctl.attach(conn, env, func() (domain.Snapshot, error) {
		return ctl.Orch.View(ctx, conn.token, env.GamePin)
	})
}

func (ctl *SignalWSController) handleJoin(
	ctx context.Context,
	conn *WsSignalConn,
	env envelope,
) {
	joined := ctl.attach(conn, env, func() (domain.Snapshot, error) {
		return ctl.Orch.JoinSession(ctx, conn.token, env.GamePin)
	})
	if joined {
		log.Info().Str("module", "signal").Str("player", string(conn.player)).Str("session", string(env.GamePin)).Msg("join")
	}
}

func (ctl *SignalWSController) handleChangeSettings(
	ctx context.Context,
	conn *WsSignalConn,
	env envelope,
	data []byte,
) {
	var p struct {
		Settings domain.SettingsPatch `json:"settings"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.badPayload(conn, env.Event, err)
		return
	}
	_, err := ctl.Orch.UpdateSettings(ctx, conn.token, env.GamePin, p.Settings)
	ctl.replyErr(conn, env.Event, err)
}

func (ctl *SignalWSController) handleChangePlayerStatus(
	ctx context.Context,
	conn *WsSignalConn,
	env envelope,
	data []byte,
) {
	var p struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.badPayload(conn, env.Event, err)
		return
	}
	_, err := ctl.Orch.SetPlayerStatus(ctx, conn.token, env.GamePin, p.Status)
	ctl.replyErr(conn, env.Event, err)
}

// handleStartGame blocks this socket's reader while questions are fetched.
func (ctl *SignalWSController) handleStartGame(
	ctx context.Context,
	conn *WsSignalConn,
	env envelope,
) {
	_, err := ctl.Orch.StartRound(ctx, conn.token, env.GamePin)
	ctl.replyErr(conn, env.Event, err)
}

func (ctl *SignalWSController) handleNextQuestion(
	ctx context.Context,
	conn *WsSignalConn,
	env envelope,
) {
	_, err := ctl.Orch.AdvanceQuestion(ctx, conn.token, env.GamePin)
	ctl.replyErr(conn, env.Event, err)
}

func (ctl *SignalWSController) handleAnswerQuestion(
	ctx context.Context,
	conn *WsSignalConn,
	env envelope,
	data []byte,
) {
	var p struct {
		QuestionID domain.QuestionID `json:"questionId"`
		Answer     string            `json:"answer"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.badPayload(conn, env.Event, err)
		return
	}
	if ctl.replyErr(conn, env.Event, ctl.Orch.SubmitAnswer(ctx, conn.token, env.GamePin, p.QuestionID, p.Answer)) {
		return
	}
	ctl.sendJSON(conn, struct {
		Type       string            `json:"type"`
		QuestionID domain.QuestionID `json:"questionId"`
	}{"answered", p.QuestionID})
}

// handleLeave leaves every session; the socket itself stays open.
func (ctl *SignalWSController) handleLeave(
	ctx context.Context,
	conn *WsSignalConn,
	env envelope,
) {
	log.Info().Str("module", "signal").Str("player", string(conn.player)).Msg("leave")
	err := ctl.Orch.LeaveSession(ctx, conn.token)
	for _, id := range ctl.Hub.Subscriptions(conn.id) {
		ctl.Hub.Unsubscribe(id, conn.id)
	}
	if ctl.replyErr(conn, env.Event, err) {
		return
	}
	ctl.sendJSON(conn, map[string]any{
		"type": "left",
	})
}
