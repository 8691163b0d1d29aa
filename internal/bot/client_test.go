package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/freeeve/towerline/pkg/grid"
)

type buildReply struct {
	Type    string       `json:"type"`
	MatchID string       `json:"match_id"`
	Data    BuildCommand `json:"data"`
}

// fakeEngine serves one websocket session: it sends each turn snapshot,
// collects the agent's reply, then ends the match and hangs up.
func fakeEngine(t *testing.T, token string, snaps [][]byte, replies chan<- buildReply) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for _, snap := range snaps {
			if err := conn.WriteJSON(Event{Type: EventTurn, MatchID: "m1", Data: snap}); err != nil {
				return
			}
			var reply buildReply
			if err := conn.ReadJSON(&reply); err != nil {
				return
			}
			replies <- reply
		}
		conn.WriteJSON(Event{Type: EventMatchEnded, MatchID: "m1"})
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestOrchestrator_PlaysTurns(t *testing.T) {
	first, err := grid.EncodeSnapshot(&grid.Snapshot{Turn: 0, Team: "red", Money: 10000, Grid: scenarioGrid()})
	if err != nil {
		t.Fatal(err)
	}
	broke, err := grid.EncodeSnapshot(&grid.Snapshot{Turn: 1, Team: "red", Money: 0, Grid: scenarioGrid()})
	if err != nil {
		t.Fatal(err)
	}

	replies := make(chan buildReply, 2)
	srv := fakeEngine(t, "tok", [][]byte{first, broke}, replies)
	defer srv.Close()

	c := NewClient("agent", wsURL(srv), "tok")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	o := NewOrchestrator(c, NewPlanner(StandardTuning()))
	if err := o.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	r0 := <-replies
	if r0.Type != EventBuild || r0.MatchID != "m1" || r0.Data.Turn != 0 {
		t.Fatalf("reply header = %+v", r0)
	}
	var spent float64
	for _, a := range r0.Data.Actions {
		spent += a.Cost
	}
	if len(r0.Data.Actions) != 4 || spent != 280 {
		t.Fatalf("turn 0 actions = %+v", r0.Data.Actions)
	}

	r1 := <-replies
	if r1.Data.Turn != 1 || len(r1.Data.Actions) != 0 {
		t.Fatalf("turn 1 reply = %+v", r1)
	}
	if _, ok := o.setups["m1"]; ok {
		t.Error("setup should be dropped when the match ends")
	}
}

func TestClient_ConnectRejected(t *testing.T) {
	srv := fakeEngine(t, "tok", nil, make(chan buildReply))
	defer srv.Close()

	c := NewClient("agent", wsURL(srv), "wrong")
	if err := c.Connect(context.Background()); err == nil {
		c.Close()
		t.Fatal("expected the dial to fail with a bad token")
	}
}

func TestBuildCommand_EmptyActionsEncodeAsList(t *testing.T) {
	data, err := json.Marshal(outbound{Type: EventBuild, MatchID: "m", Data: BuildCommand{Turn: 3, Actions: []Action{}}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"actions":[]`) {
		t.Fatalf("json = %s", data)
	}
}

func TestOrchestrator_AnswersUndecodableTurn(t *testing.T) {
	bad := []byte(`{"turn":2,"team":"red"}`)
	replies := make(chan buildReply, 1)
	srv := fakeEngine(t, "tok", [][]byte{bad}, replies)
	defer srv.Close()

	c := NewClient("agent", wsURL(srv), "tok")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	if err := NewOrchestrator(c, NewPlanner(StandardTuning())).Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	r := <-replies
	if r.Type != EventBuild || r.Data.Turn != 2 || len(r.Data.Actions) != 0 {
		t.Fatalf("reply = %+v, want an empty build for turn 2", r)
	}
}

func TestPeekTurn(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{`{"turn":7,"grid":null}`, 7, true},
		{`{"grid":{}}`, 0, false},
		{`{"turn":-1}`, 0, false},
		{`not json`, 0, false},
	}
	for _, tt := range tests {
		got, ok := peekTurn([]byte(tt.in))
		if got != tt.want || ok != tt.ok {
			t.Errorf("peekTurn(%s) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
