package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/freeeve/towerline/internal/model"
)

type mockTurnRepo struct {
	turns   map[string][]model.TurnRecord
	saveErr error
}

func newMockTurnRepo() *mockTurnRepo {
	return &mockTurnRepo{turns: make(map[string][]model.TurnRecord)}
}

func (m *mockTurnRepo) Save(_ context.Context, rec *model.TurnRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	rec.ID = fmt.Sprintf("turn-%d", len(m.turns[rec.MatchID])+1)
	rec.CreatedAt = time.Now()
	m.turns[rec.MatchID] = append(m.turns[rec.MatchID], *rec)
	return nil
}

func (m *mockTurnRepo) ListByMatch(_ context.Context, matchID string) ([]model.TurnRecord, error) {
	recs := append([]model.TurnRecord(nil), m.turns[matchID]...)
	sort.Slice(recs, func(i, j int) bool { return recs[i].Turn < recs[j].Turn })
	return recs, nil
}

func (m *mockTurnRepo) DeleteMatch(_ context.Context, matchID string) error {
	delete(m.turns, matchID)
	return nil
}

type mockSetupCache struct {
	data    map[string][]byte
	ttls    map[string]time.Duration
	gets    int
	sets    int
	failGet bool
}

func newMockSetupCache() *mockSetupCache {
	return &mockSetupCache{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (m *mockSetupCache) GetSetup(_ context.Context, matchID, team string) ([]byte, error) {
	m.gets++
	if m.failGet {
		return nil, errors.New("redis down")
	}
	return m.data[matchID+"/"+team], nil
}

func (m *mockSetupCache) SetSetup(_ context.Context, matchID, team string, data []byte, ttl time.Duration) error {
	m.sets++
	m.data[matchID+"/"+team] = data
	m.ttls[matchID+"/"+team] = ttl
	return nil
}

func (m *mockSetupCache) DeleteSetups(_ context.Context, matchID string) error {
	for k := range m.data {
		if len(k) > len(matchID) && k[:len(matchID)+1] == matchID+"/" {
			delete(m.data, k)
		}
	}
	return nil
}

type recordedEvent struct {
	matchID   string
	eventType string
}

type mockBroadcaster struct {
	events []recordedEvent
}

func (m *mockBroadcaster) BroadcastMatchEvent(matchID, eventType string, _ any) {
	m.events = append(m.events, recordedEvent{matchID, eventType})
}
