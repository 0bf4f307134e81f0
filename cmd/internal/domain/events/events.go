package events

import "casetrack/cmd/internal/contract"

type SocketEvent interface {
	GetType() contract.EventType
}

type Ack struct{}

func (*Ack) GetType() contract.EventType {
	return contract.EventAck
}

type SessionExpired struct{}

func (*SessionExpired) GetType() contract.EventType {
	return contract.EventSessionExpired
}

// CaseStatusChanged is pushed after a case's active status is replaced or cleared.
type CaseStatusChanged struct {
	CaseID     int64   `json:"case_id"`
	FromCode   *string `json:"from"`
	ToCode     *string `json:"to"`
	HistoryID  int64   `json:"history_id,omitempty"`
	ChangedBy  int64   `json:"changed_by"`
	ChangedAt  string  `json:"changed_at"`
	BulkUpdate bool    `json:"bulk_update,omitempty"`
}

func (e *CaseStatusChanged) GetType() contract.EventType {
	return contract.EventCaseStatusChanged
}

// CatalogUpdated tells clients to refetch the catalog and the transitions.
type CatalogUpdated struct {
	Action   string `json:"action"`
	StatusID int64  `json:"status_id,omitempty"`
}

func (e *CatalogUpdated) GetType() contract.EventType {
	return contract.EventCatalogUpdated
}
