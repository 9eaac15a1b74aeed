package signal

import (
	"context"

	"github.com/dkeye/Trivia/internal/domain"
)

func (ctl *SignalWSController) handleWhoAmI(
	ctx context.Context,
	conn *WsSignalConn,
) {
	ident, err := ctl.Orch.Whoami(ctx, conn.token)
	if ctl.replyErr(conn, "whoami", err) {
		return
	}

	resp := struct {
		Type   string             `json:"type"`
		Player domain.Identity    `json:"player"`
		Games  []domain.SessionID `json:"games"`
	}{
		Type:   "whoami",
		Player: ident,
		Games:  ctl.Hub.Subscriptions(conn.id),
	}
	ctl.sendJSON(conn, resp)
}
