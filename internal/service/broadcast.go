package service

// Match event types pushed to watchers.
const (
	EventTurnDecided = "turn_decided"
	EventMatchEnded  = "match_ended"
)

// Broadcaster pushes match events to watchers.
// Implemented by the WebSocket hub.
type Broadcaster interface {
	BroadcastMatchEvent(matchID string, eventType string, data any)
}

// NoopBroadcaster is a no-op implementation for testing or when watching is disabled.
type NoopBroadcaster struct{}

func (NoopBroadcaster) BroadcastMatchEvent(string, string, any) {}
