package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/freeeve/towerline/internal/auth"
	"github.com/freeeve/towerline/internal/bot"
	"github.com/freeeve/towerline/internal/middleware"
	"github.com/freeeve/towerline/internal/model"
	"github.com/freeeve/towerline/internal/service"
	"github.com/freeeve/towerline/pkg/grid"
)

// --- Mock Repositories ---

type mockTurnRepo struct {
	turns map[string][]model.TurnRecord
}

func newMockTurnRepo() *mockTurnRepo {
	return &mockTurnRepo{turns: make(map[string][]model.TurnRecord)}
}

func (m *mockTurnRepo) Save(_ context.Context, rec *model.TurnRecord) error {
	rec.ID = fmt.Sprintf("turn-%s-%d", rec.MatchID, rec.Turn)
	rec.CreatedAt = time.Now()
	m.turns[rec.MatchID] = append(m.turns[rec.MatchID], *rec)
	return nil
}

func (m *mockTurnRepo) ListByMatch(_ context.Context, matchID string) ([]model.TurnRecord, error) {
	return m.turns[matchID], nil
}

func (m *mockTurnRepo) DeleteMatch(_ context.Context, matchID string) error {
	delete(m.turns, matchID)
	return nil
}

type mockSetupCache struct {
	data map[string][]byte
}

func (m *mockSetupCache) GetSetup(_ context.Context, matchID, team string) ([]byte, error) {
	return m.data[matchID+"/"+team], nil
}

func (m *mockSetupCache) SetSetup(_ context.Context, matchID, team string, data []byte, _ time.Duration) error {
	m.data[matchID+"/"+team] = data
	return nil
}

func (m *mockSetupCache) DeleteSetups(_ context.Context, matchID string) error {
	for k := range m.data {
		if strings.HasPrefix(k, matchID+"/") {
			delete(m.data, k)
		}
	}
	return nil
}

// --- Test helpers ---

type testEnv struct {
	svc    *service.TurnService
	turns  *mockTurnRepo
	setups *mockSetupCache
	mux    http.Handler
}

func setupTestEnv() *testEnv {
	turns := newMockTurnRepo()
	setups := &mockSetupCache{data: make(map[string][]byte)}
	svc := service.NewTurnService(bot.NewPlanner(bot.StandardTuning()), turns, setups, time.Hour)
	h := NewTurnHandler(svc)

	api := http.NewServeMux()
	api.HandleFunc("POST /matches/{id}/turns", h.DecideTurn)
	api.HandleFunc("GET /matches/{id}/turns", h.ListTurns)
	api.HandleFunc("DELETE /matches/{id}", h.EndMatch)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", Health)
	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", api))

	return &testEnv{
		svc:    svc,
		turns:  turns,
		setups: setups,
		mux:    middleware.Chain(mux, middleware.MaxBody(1<<16)),
	}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(auth.SetClientIDForTest(req.Context(), "engine-1"))
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func snapshotBody(t *testing.T, turn int, money float64) string {
	t.Helper()
	g := grid.New(5, 5)
	g.Place(grid.Point{X: 0, Y: 0}, grid.Structure{Team: "red", Type: grid.Generator})
	g.Place(grid.Point{X: 4, Y: 4}, grid.Structure{Team: "blue", Type: grid.Generator})
	g.SetPopulation(grid.Point{X: 2, Y: 2}, 10)
	data, err := grid.EncodeSnapshot(&grid.Snapshot{Turn: turn, Team: "red", Money: money, Grid: g})
	if err != nil {
		t.Fatalf("encode snapshot: %v", err)
	}
	return string(data)
}

// --- Tests ---

func TestHealth(t *testing.T) {
	env := setupTestEnv()
	rec := env.do(http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestDecideTurn(t *testing.T) {
	env := setupTestEnv()
	rec := env.do(http.MethodPost, "/api/v1/matches/m1/turns", snapshotBody(t, 0, 10000))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got model.TurnRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.MatchID != "m1" || got.Team != "red" || got.Turn != 0 {
		t.Errorf("unexpected record header %+v", got)
	}
	if len(got.Actions) != 4 || got.Spent != 280 {
		t.Errorf("expected 4 actions costing 280, got %d costing %v", len(got.Actions), got.Spent)
	}
	if got.Target == nil || *got.Target != (model.Coord{X: 2, Y: 2}) {
		t.Errorf("expected target (2,2), got %+v", got.Target)
	}
	if len(env.turns.turns["m1"]) != 1 {
		t.Error("turn was not logged")
	}
	if _, ok := env.setups.data["m1/red"]; !ok {
		t.Error("setup was not cached")
	}
}

func TestDecideTurnBadRequests(t *testing.T) {
	env := setupTestEnv()
	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty body", "", http.StatusBadRequest},
		{"not json", "{", http.StatusBadRequest},
		{"schema violation", `{"turn":0,"team":"red","money":10,"grid":{"width":0,"height":1,"cells":[]}}`, http.StatusBadRequest},
		{"too large", strings.Repeat(" ", 1<<17), http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/v1/matches/m1/turns", tt.body)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
	if len(env.turns.turns) != 0 {
		t.Error("rejected turns must not be logged")
	}
}

func TestListTurns(t *testing.T) {
	env := setupTestEnv()
	if rec := env.do(http.MethodGet, "/api/v1/matches/m1/turns", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before any turn, got %d", rec.Code)
	}

	env.do(http.MethodPost, "/api/v1/matches/m1/turns", snapshotBody(t, 0, 10000))
	env.do(http.MethodPost, "/api/v1/matches/m1/turns", snapshotBody(t, 1, 0))

	rec := env.do(http.MethodGet, "/api/v1/matches/m1/turns", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var recs []model.TurnRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &recs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(recs))
	}
	if len(recs[1].Actions) != 0 {
		t.Errorf("a broke turn should build nothing, got %+v", recs[1].Actions)
	}
}

func TestEndMatch(t *testing.T) {
	env := setupTestEnv()
	env.do(http.MethodPost, "/api/v1/matches/m1/turns", snapshotBody(t, 0, 10000))

	rec := env.do(http.MethodDelete, "/api/v1/matches/m1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(env.setups.data) != 0 || len(env.turns.turns) != 0 {
		t.Error("match state should be gone")
	}
	if rec := env.do(http.MethodGet, "/api/v1/matches/m1/turns", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after end, got %d", rec.Code)
	}
}
