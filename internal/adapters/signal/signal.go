package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Trivia/internal/app/orch"
	"github.com/dkeye/Trivia/internal/core"
	"github.com/dkeye/Trivia/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	defaultReadLimit  = 32768
	defaultPingPeriod = 54 * time.Second
	writeWait         = 5 * time.Second
	sendBuffer        = 32
)

// Options tune the socket surface. Zero values fall back to defaults.
type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
}

type SignalWSController struct {
	Orch    *orch.Orchestrator
	Hub     *Hub
	Limiter *EventRateLimiter
	Opts    Options
}

func NewSignalWSController(o *orch.Orchestrator, hub *Hub, limiter *EventRateLimiter, opts Options) *SignalWSController {
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = defaultReadLimit
	}
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = defaultPingPeriod
	}
	return &SignalWSController{Orch: o, Hub: hub, Limiter: limiter, Opts: opts}
}

// WsSignalConn is one player socket. It implements core.SignalConnection.
type WsSignalConn struct {
	id     string
	token  string
	player domain.PlayerID
	conn   *websocket.Conn
	send   chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) ID() string { return c.id }

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades an authenticated request. The identity token must
// already be on the gin context under "identity_token".
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	token := c.GetString("identity_token")
	ident, err := ctl.Orch.Whoami(c.Request.Context(), token)
	if err != nil {
		log.Warn().Str("module", "signal").Err(err).Msg("ws rejected: identity unresolved")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": domain.Code(err)})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		id:     uuid.NewString(),
		token:  token,
		player: ident.ID,
		conn:   ws,
		send:   make(chan core.Frame, sendBuffer),
	}
	log.Info().Str("module", "signal").Str("conn", conn.id).Str("player", string(ident.ID)).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, conn)
}
