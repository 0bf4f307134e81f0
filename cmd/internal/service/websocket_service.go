package service

import (
	"context"
	"encoding/json"
	"errors"

	"casetrack/cmd/internal/contract"
	"casetrack/cmd/internal/domain/entity"
	"casetrack/cmd/internal/domain/events"
	"casetrack/cmd/internal/infrastructure/aws/websocket"
	"casetrack/cmd/internal/utils"
	"casetrack/cmd/internal/utils/apierror"

	"github.com/labstack/gommon/log"
)

type ConnectionRepository interface {
	Save(conn *entity.Connection) error
	Delete(connID string) error
	FindAll() ([]string, error)
	FindExpired(now int64) ([]*entity.Connection, error)
}

// Broadcaster pushes realtime events to every connected client.
type Broadcaster interface {
	Broadcast(ctx context.Context, evt events.SocketEvent)
}

type WebSocketService struct {
	ConnRepo ConnectionRepository
	Pusher   websocket.Pusher
}

func NewWebSocketService(repo ConnectionRepository, pusher websocket.Pusher) *WebSocketService {
	return &WebSocketService{
		ConnRepo: repo,
		Pusher:   pusher,
	}
}

// RegisterConnection stores a connection until exp, the token expiry in seconds.
func (s *WebSocketService) RegisterConnection(userID int64, connectionID string, exp int64) apierror.ErrorResponse {
	if connectionID == "" {
		return apierror.NewMissingParamError(websocket.HeaderConnectionID)
	}

	conn := &entity.Connection{
		ConnectionID: connectionID,
		UserID:       userID,
		ExpiresAt:    exp * 1000,
		CreatedAt:    utils.NowUTC(),
	}

	if err := s.ConnRepo.Save(conn); err != nil {
		log.Errorf("failed to save connection of user %d: %v", userID, err)
		return apierror.InternalServerError
	}
	return nil
}

func (s *WebSocketService) RemoveConnection(connectionID string) {
	if err := s.ConnRepo.Delete(connectionID); err != nil {
		log.Warnf("failed to remove connection %s: %v", connectionID, err)
	}
}

func (s *WebSocketService) HandleMessage(msg *contract.IncomingSocketMessage, connID string) {
	switch msg.Type {
	case contract.EventPing:
		go s.Send(context.Background(), connID, &events.Ack{})
	default:
		log.Debugf("ignoring %s message from connection %s", msg.Type, connID)
	}
}

// Send pushes evt to a single connection.
func (s *WebSocketService) Send(ctx context.Context, connID string, evt events.SocketEvent) {
	frame, err := encodeFrame(evt)
	if err != nil {
		log.Errorf("failed to encode %s event: %v", evt.GetType(), err)
		return
	}
	s.push(ctx, connID, frame)
}

// Broadcast pushes evt to every stored connection. Connections API Gateway
// reports as gone are forgotten on the way.
func (s *WebSocketService) Broadcast(ctx context.Context, evt events.SocketEvent) {
	conns, err := s.ConnRepo.FindAll()
	if err != nil {
		log.Errorf("failed to fetch connections for %s broadcast: %v", evt.GetType(), err)
		return
	}

	if len(conns) == 0 {
		return
	}

	frame, err := encodeFrame(evt)
	if err != nil {
		log.Errorf("failed to encode %s event: %v", evt.GetType(), err)
		return
	}

	for _, connID := range conns {
		s.push(ctx, connID, frame)
	}
}

// ExpireConnections warns and drops every connection whose token expired.
func (s *WebSocketService) ExpireConnections(ctx context.Context, now int64) int {
	conns, err := s.ConnRepo.FindExpired(now)
	if err != nil {
		log.Errorf("failed to fetch expired connections: %v", err)
		return 0
	}

	for _, conn := range conns {
		s.Send(ctx, conn.ConnectionID, &events.SessionExpired{})

		if err := s.Pusher.Close(ctx, conn.ConnectionID); err != nil && !errors.Is(err, websocket.ErrGone) {
			log.Warnf("failed to close connection %s: %v", conn.ConnectionID, err)
		}
		s.RemoveConnection(conn.ConnectionID)
	}
	return len(conns)
}

func (s *WebSocketService) push(ctx context.Context, connID string, frame []byte) {
	err := s.Pusher.Push(ctx, connID, frame)
	switch {
	case err == nil:
	case errors.Is(err, websocket.ErrGone):
		s.RemoveConnection(connID)
	default:
		log.Warnf("failed to push to connection %s: %v", connID, err)
	}
}

func encodeFrame(evt events.SocketEvent) ([]byte, error) {
	return json.Marshal(&contract.OutgoingSocketMessage{
		Type: evt.GetType(),
		Data: evt,
	})
}
