package signal

import "github.com/dkeye/Trivia/internal/domain"

type errorFrame struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Error string `json:"error"`
}

func (ctl *SignalWSController) handlePing(
	conn *WsSignalConn,
) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}

func (ctl *SignalWSController) sendError(conn *WsSignalConn, event, code string) {
	ctl.sendJSON(conn, errorFrame{Type: "error", Event: event, Error: code})
}

// replyErr reports err to the caller and returns whether there was one.
func (ctl *SignalWSController) replyErr(conn *WsSignalConn, event string, err error) bool {
	if err == nil {
		return false
	}
	ctl.sendError(conn, event, domain.Code(err))
	return true
}
