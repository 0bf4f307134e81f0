package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"casetrack/cmd/internal/contract"
	"casetrack/cmd/internal/domain/entity"
	"casetrack/cmd/internal/domain/events"
	"casetrack/cmd/internal/infrastructure/aws/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryConnections struct {
	mu    sync.Mutex
	conns map[string]*entity.Connection
}

func (m *memoryConnections) Save(conn *entity.Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns[conn.ConnectionID] = conn
	return nil
}

func (m *memoryConnections) Delete(connID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conns, connID)
	return nil
}

func (m *memoryConnections) FindAll() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.conns))
	for id := range m.conns {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memoryConnections) FindExpired(now int64) ([]*entity.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Connection
	for _, c := range m.conns {
		if c.ExpiresAt < now {
			out = append(out, c)
		}
	}
	return out, nil
}

type recordingPusher struct {
	gone   map[string]bool
	frames map[string][][]byte
	closed []string
}

func (p *recordingPusher) Push(_ context.Context, connID string, frame []byte) error {
	if p.gone[connID] {
		return websocket.ErrGone
	}
	p.frames[connID] = append(p.frames[connID], frame)
	return nil
}

func (p *recordingPusher) Close(_ context.Context, connID string) error {
	p.closed = append(p.closed, connID)
	return nil
}

func newSocketFixture() (*WebSocketService, *memoryConnections, *recordingPusher) {
	conns := &memoryConnections{conns: map[string]*entity.Connection{}}
	pusher := &recordingPusher{gone: map[string]bool{}, frames: map[string][][]byte{}}
	return NewWebSocketService(conns, pusher), conns, pusher
}

func TestWebSocket_BroadcastForgetsGoneConnections(t *testing.T) {
	svc, conns, pusher := newSocketFixture()
	require.Nil(t, svc.RegisterConnection(1, "alive", 4102444800))
	require.Nil(t, svc.RegisterConnection(2, "stale", 4102444800))
	pusher.gone["stale"] = true

	to := "protocolado"
	svc.Broadcast(context.Background(), &events.CaseStatusChanged{CaseID: 42, ToCode: &to})

	require.Len(t, pusher.frames["alive"], 1)
	var frame struct {
		Type contract.EventType `json:"type"`
		Data map[string]any     `json:"data"`
	}
	require.NoError(t, json.Unmarshal(pusher.frames["alive"][0], &frame))
	assert.Equal(t, contract.EventCaseStatusChanged, frame.Type)
	assert.Equal(t, "protocolado", frame.Data["to"])

	ids, err := conns.FindAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"alive"}, ids)
}

func TestWebSocket_ExpireConnections(t *testing.T) {
	svc, conns, pusher := newSocketFixture()
	require.Nil(t, svc.RegisterConnection(1, "old", 1))
	require.Nil(t, svc.RegisterConnection(2, "fresh", 4102444800))

	assert.Equal(t, 1, svc.ExpireConnections(context.Background(), 5000))
	assert.Equal(t, []string{"old"}, pusher.closed)
	require.Len(t, pusher.frames["old"], 1)
	assert.Contains(t, string(pusher.frames["old"][0]), string(contract.EventSessionExpired))

	ids, err := conns.FindAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, ids)
}

func TestWebSocket_RegisterNeedsConnectionID(t *testing.T) {
	svc, _, _ := newSocketFixture()
	apierr := svc.RegisterConnection(1, "", 10)
	require.NotNil(t, apierr)
	assert.Equal(t, 400, apierr.Code())
}
