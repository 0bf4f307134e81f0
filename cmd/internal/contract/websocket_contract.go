package contract

import "encoding/json"

type EventType string

// Client to server.
const (
	EventPing EventType = "ping"
)

// Server to client.
const (
	EventAck               EventType = "ACK"
	EventSessionExpired    EventType = "SESSION_EXPIRED"
	EventCaseStatusChanged EventType = "CASE_STATUS_CHANGED"
	EventCatalogUpdated    EventType = "CATALOG_UPDATED"
)

type IncomingSocketMessage struct {
	Type EventType       `json:"type" validate:"required"`
	Data json.RawMessage `json:"data,omitempty"`
}

// OutgoingSocketMessage is the frame pushed through API Gateway.
type OutgoingSocketMessage struct {
	Type EventType `json:"type"`
	Data any       `json:"data,omitempty"`
}
