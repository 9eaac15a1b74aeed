package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/Trivia/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// envelope is the common part of every client event.
type envelope struct {
	Event   string           `json:"event"`
	GamePin domain.SessionID `json:"gamePin"`
}

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.Opts.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("conn", c.id).Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("conn", c.id).Msg("writePump ping failed")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Str("conn", c.id).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("conn", c.id).Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", c.id).Str("player", string(c.player)).Msg("readPump closing")
		ctl.Hub.Drop(c.id)
		cancel()
		c.Close()
	}()

	pongWait := ctl.Opts.PingPeriod * 10 / 9
	c.conn.SetReadLimit(ctl.Opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("conn", c.id).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("module", "signal").Str("conn", c.id).Msg("readPump read error")
				}
				return
			}
			ctl.handleSignal(ctx, c, data)
		}
	}
}

func (ctl *SignalWSController) handleSignal(ctx context.Context, c *WsSignalConn, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", c.id).Msg("bad json")
		ctl.sendError(c, "", "bad_payload")
		return
	}

	if env.Event != "ping" && ctl.Limiter != nil && !ctl.Limiter.Allow(c.player) {
		log.Warn().Str("module", "signal").Str("player", string(c.player)).Str("event", env.Event).Msg("rate limited")
		ctl.sendError(c, env.Event, "rate_limited")
		return
	}

	switch env.Event {
	case "subscribe":
		ctl.handleSubscribe(ctx, c, env)
	case "joinGame":
		ctl.handleJoin(ctx, c, env)
	case "changeSettings":
		ctl.handleChangeSettings(ctx, c, env, data)
	case "changePlayerStatus":
		ctl.handleChangePlayerStatus(ctx, c, env, data)
	case "startGame":
		ctl.handleStartGame(ctx, c, env)
	case "nextQuestion":
		ctl.handleNextQuestion(ctx, c, env)
	case "answerQuestion":
		ctl.handleAnswerQuestion(ctx, c, env, data)
	case "leaveGame":
		ctl.handleLeave(ctx, c, env)
	case "whoami":
		ctl.handleWhoAmI(ctx, c)
	case "ping":
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "signal").Str("event", env.Event).Msg("unknown event")
		ctl.sendError(c, env.Event, "unknown_event")
	}
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	if err := c.TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", c.id).Msg("sendJSON dropped")
	}
}
