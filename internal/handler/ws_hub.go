package handler

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSEvent is the envelope for every message pushed to watchers.
type WSEvent struct {
	Type    string `json:"type"`
	MatchID string `json:"match_id"`
	Data    any    `json:"data"`
}

// WSConn is one watcher connection, bound to a single match.
type WSConn struct {
	conn     *websocket.Conn
	clientID string
	matchID  string
	send     chan []byte
}

// Hub fans match events out to the connections watching each match.
type Hub struct {
	mu      sync.RWMutex
	matches map[string]map[*WSConn]bool
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{matches: make(map[string]map[*WSConn]bool)}
}

// Register subscribes a connection to its match.
func (h *Hub) Register(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.matches[c.matchID] == nil {
		h.matches[c.matchID] = make(map[*WSConn]bool)
	}
	h.matches[c.matchID][c] = true
}

// Unregister removes a connection and closes its send channel.
func (h *Hub) Unregister(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.matches[c.matchID]
	if !ok || !conns[c] {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.matches, c.matchID)
	}
	close(c.send)
}

// BroadcastToMatch sends an event to every watcher of a match. Slow watchers
// drop messages rather than block the decision path.
func (h *Hub) BroadcastToMatch(matchID string, event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("matchId", matchID).Msg("Failed to marshal WebSocket event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.matches[matchID] {
		select {
		case c.send <- data:
		default:
			log.Warn().Str("clientId", c.clientID).Str("matchId", matchID).Msg("Dropping WebSocket message, buffer full")
		}
	}
}

// BroadcastMatchEvent implements service.Broadcaster.
func (h *Hub) BroadcastMatchEvent(matchID string, eventType string, data any) {
	h.BroadcastToMatch(matchID, WSEvent{Type: eventType, MatchID: matchID, Data: data})
}

// WatcherCount returns the number of connections watching a match.
func (h *Hub) WatcherCount(matchID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.matches[matchID])
}
