package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/towerline/internal/auth"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = 54 * time.Second // Must be less than pongWait
	maxMsgSize  = 512
	sendBufSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS handled by middleware
	},
}

// WatchHandler streams a match's decided turns over WebSocket.
type WatchHandler struct {
	hub    *Hub
	jwtMgr *auth.JWTManager
}

// NewWatchHandler creates a WatchHandler.
func NewWatchHandler(hub *Hub, jwtMgr *auth.JWTManager) *WatchHandler {
	return &WatchHandler{hub: hub, jwtMgr: jwtMgr}
}

// Watch handles GET /api/v1/matches/{id}/watch. Auth is via the ?token=
// query parameter since browsers cannot set headers on the upgrade.
func (h *WatchHandler) Watch(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, `{"error":"missing token parameter"}`, http.StatusUnauthorized)
		return
	}
	claims, err := h.jwtMgr.ValidateToken(tokenStr)
	if err != nil {
		http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	c := &WSConn{
		conn:     conn,
		clientID: claims.ClientID,
		matchID:  r.PathValue("id"),
		send:     make(chan []byte, sendBufSize),
	}
	h.hub.Register(c)

	// Queued after Register so a watcher that has read it sees every later turn.
	welcome, _ := json.Marshal(WSEvent{Type: "watching", MatchID: c.matchID, Data: map[string]any{}})
	c.send <- welcome

	go h.writePump(c)
	go h.readPump(c)

	log.Info().Str("clientId", c.clientID).Str("matchId", c.matchID).
		Int("watchers", h.hub.WatcherCount(c.matchID)).Msg("Watcher connected")
}

// readPump discards inbound frames and notices the close.
func (h *WatchHandler) readPump(c *WSConn) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
		log.Info().Str("clientId", c.clientID).Str("matchId", c.matchID).Msg("Watcher disconnected")
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("clientId", c.clientID).Msg("WebSocket unexpected close")
			}
			return
		}
	}
}

// writePump writes one event per frame and keeps the connection alive with pings.
func (h *WatchHandler) writePump(c *WSConn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
