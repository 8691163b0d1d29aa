package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Event is a message from the hosting engine.
type Event struct {
	Type    string          `json:"type"`
	MatchID string          `json:"match_id"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Engine event types.
const (
	EventTurn       = "turn"
	EventMatchEnded = "match_ended"
	EventBuild      = "build"
)

// BuildCommand is the payload of a build message sent back to the engine.
type BuildCommand struct {
	Turn    int      `json:"turn"`
	Actions []Action `json:"actions"`
}

type outbound struct {
	Type    string `json:"type"`
	MatchID string `json:"match_id"`
	Data    any    `json:"data"`
}

// Client is a websocket connection from the agent to a hosting engine.
type Client struct {
	name     string
	url      string
	token    string
	wsConn   *websocket.Conn
	events   chan Event
	mu       sync.Mutex
	closedWS bool
}

// NewClient creates a client for the engine at url (ws:// or wss://). The
// token, if set, is sent as a bearer Authorization header.
func NewClient(name, url, token string) *Client {
	return &Client{
		name:   name,
		url:    url,
		token:  token,
		events: make(chan Event, 64),
	}
}

// Name returns the agent name.
func (c *Client) Name() string { return c.name }

// Connect dials the engine and starts listening for events.
func (c *Client) Connect(ctx context.Context) error {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	header.Set("X-Agent-Name", c.name)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, header)
	if err != nil {
		return fmt.Errorf("ws dial: %w", err)
	}
	c.wsConn = conn

	go c.readWSLoop()
	log.Debug().Str("agent", c.name).Str("url", c.url).Msg("Connected to engine")
	return nil
}

// Events returns the channel of incoming engine events. It is closed when
// the connection drops.
func (c *Client) Events() <-chan Event { return c.events }

// SendBuild reports the builds decided for one turn.
func (c *Client) SendBuild(matchID string, turn int, actions []Action) error {
	if actions == nil {
		actions = []Action{}
	}
	msg := outbound{Type: EventBuild, MatchID: matchID, Data: BuildCommand{Turn: turn, Actions: actions}}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closedWS {
		return fmt.Errorf("ws connection closed")
	}
	return c.wsConn.WriteJSON(msg)
}

// Close closes the websocket connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.wsConn != nil && !c.closedWS {
		c.closedWS = true
		c.wsConn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.wsConn.Close()
	}
}

func (c *Client) closing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closedWS
}

func (c *Client) readWSLoop() {
	defer close(c.events)
	for {
		_, msg, err := c.wsConn.ReadMessage()
		if err != nil {
			if !c.closing() {
				log.Debug().Err(err).Str("agent", c.name).Msg("WS read error")
			}
			return
		}
		var event Event
		if err := json.Unmarshal(msg, &event); err != nil {
			log.Debug().Err(err).Str("agent", c.name).Msg("Dropping malformed engine message")
			continue
		}
		c.events <- event
	}
}
