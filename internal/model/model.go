package model

import "time"

// Coord is a cell coordinate on the board.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// BuildAction is one build the agent committed during a turn.
type BuildAction struct {
	Type string  `json:"type"` // road or tower
	X    int     `json:"x"`
	Y    int     `json:"y"`
	Cost float64 `json:"cost"`
}

// TurnRecord is the logged outcome of one decided turn.
type TurnRecord struct {
	ID          string        `json:"id,omitempty"`
	MatchID     string        `json:"match_id"`
	Team        string        `json:"team"`
	Turn        int           `json:"turn"`
	MoneyBefore float64       `json:"money_before"`
	Spent       float64       `json:"spent"`
	MoneyLeft   float64       `json:"money_left"`
	Target      *Coord        `json:"target"`
	Candidates  int           `json:"candidates"`
	Fallback    bool          `json:"fallback"`
	Actions     []BuildAction `json:"actions"`
	CreatedAt   time.Time     `json:"created_at"`
}
