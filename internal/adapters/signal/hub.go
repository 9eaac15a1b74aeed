package signal

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/dkeye/Trivia/internal/core"
	"github.com/dkeye/Trivia/internal/domain"
	"github.com/rs/zerolog/log"
)

var ErrBackpressure = errors.New("backpressure")

// GameFrame is what subscribers receive on every session transition.
type GameFrame struct {
	Type string          `json:"type"`
	Game domain.Snapshot `json:"game"`
}

// Hub tracks which connections watch which session and implements
// core.BroadcastSink for them. Publish never blocks on a slow reader.
type Hub struct {
	mu      sync.RWMutex
	subs    map[domain.SessionID]map[string]core.SignalConnection
	conns   map[string]map[domain.SessionID]struct{}
	pending map[domain.SessionID]map[string]*heldConn
}

// heldConn buffers frames for a connection whose membership is not yet
// confirmed.
type heldConn struct {
	conn   core.SignalConnection
	frames []core.Frame
	final  bool
}

func NewHub() *Hub {
	return &Hub{
		subs:    make(map[domain.SessionID]map[string]core.SignalConnection),
		conns:   make(map[string]map[domain.SessionID]struct{}),
		pending: make(map[domain.SessionID]map[string]*heldConn),
	}
}

// Reserve starts buffering frames published for id to connID until Confirm
// or Cancel. It is a no-op when connID already watches id.
func (h *Hub) Reserve(id domain.SessionID, connID string, conn core.SignalConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[id][connID]; ok {
		return
	}
	if h.pending[id] == nil {
		h.pending[id] = make(map[string]*heldConn)
	}
	h.pending[id][connID] = &heldConn{conn: conn}
}

// Confirm flushes the buffered frames in publish order and turns the
// reservation into a subscription, unless the session already ended.
func (h *Hub) Confirm(id domain.SessionID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	held, ok := h.pending[id][connID]
	if !ok {
		return
	}
	h.dropPendingLocked(id, connID)
	for _, fr := range held.frames {
		if err := held.conn.TrySend(fr); err != nil {
			log.Warn().Str("module", "signal.hub").Str("session", string(id)).Str("conn", connID).Err(err).Msg("held snapshot dropped")
		}
	}
	if !held.final {
		h.subscribeLocked(id, connID, held.conn)
	}
}

// Cancel discards a reservation and everything buffered for it.
func (h *Hub) Cancel(id domain.SessionID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropPendingLocked(id, connID)
}

func (h *Hub) dropPendingLocked(id domain.SessionID, connID string) {
	if set, ok := h.pending[id]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(h.pending, id)
		}
	}
}

func (h *Hub) Subscribe(id domain.SessionID, connID string, conn core.SignalConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribeLocked(id, connID, conn)
}

func (h *Hub) subscribeLocked(id domain.SessionID, connID string, conn core.SignalConnection) {
	if h.subs[id] == nil {
		h.subs[id] = make(map[string]core.SignalConnection)
	}
	h.subs[id][connID] = conn
	if h.conns[connID] == nil {
		h.conns[connID] = make(map[domain.SessionID]struct{})
	}
	h.conns[connID][id] = struct{}{}
	log.Debug().Str("module", "signal.hub").Str("session", string(id)).Str("conn", connID).Int("subscribers", len(h.subs[id])).Msg("subscribed")
}

func (h *Hub) Unsubscribe(id domain.SessionID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unsubscribeLocked(id, connID)
}

// Drop forgets connID everywhere, typically on disconnect.
func (h *Hub) Drop(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id := range h.conns[connID] {
		h.unsubscribeLocked(id, connID)
	}
	delete(h.conns, connID)
	for id := range h.pending {
		h.dropPendingLocked(id, connID)
	}
}

func (h *Hub) unsubscribeLocked(id domain.SessionID, connID string) {
	if set, ok := h.subs[id]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(h.subs, id)
		}
	}
	if set, ok := h.conns[connID]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(h.conns, connID)
		}
	}
}

// Subscriptions lists the sessions connID is watching.
func (h *Hub) Subscriptions(connID string) []domain.SessionID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]domain.SessionID, 0, len(h.conns[connID]))
	for id := range h.conns[connID] {
		out = append(out, id)
	}
	return out
}

func (h *Hub) Subscribers(id domain.SessionID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[id])
}

// Publish implements core.BroadcastSink. Subscribers of a closed or finished
// session are released once the final snapshot has been queued.
func (h *Hub) Publish(id domain.SessionID, snap domain.Snapshot) {
	frame, err := json.Marshal(GameFrame{Type: "game", Game: snap})
	if err != nil {
		log.Error().Str("module", "signal.hub").Str("session", string(id)).Err(err).Msg("snapshot encode failed")
		return
	}

	final := snap.Status == domain.StatusClosed || (snap.Status == domain.StatusLeaderboard && snap.Settings.QuestionCount > 0 && len(snap.PreviousQuestions) >= snap.Settings.QuestionCount)

	h.mu.Lock()
	targets := make(map[string]core.SignalConnection, len(h.subs[id]))
	for connID, c := range h.subs[id] {
		targets[connID] = c
	}
	for _, held := range h.pending[id] {
		held.frames = append(held.frames, frame)
		held.final = held.final || final
	}
	h.mu.Unlock()

	for connID, c := range targets {
		if err := c.TrySend(frame); err != nil {
			log.Warn().Str("module", "signal.hub").Str("session", string(id)).Str("conn", connID).Err(err).Msg("snapshot dropped")
		}
	}

	if final {
		h.mu.Lock()
		for connID := range h.subs[id] {
			h.unsubscribeLocked(id, connID)
		}
		h.mu.Unlock()
	}
}
