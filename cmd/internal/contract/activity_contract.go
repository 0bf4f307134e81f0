package contract

import "encoding/json"

type ActivityResponse struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"user_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   int64           `json:"entity_id"`
	Details    json.RawMessage `json:"details"`
	CreatedAt  string          `json:"created_at"`
}

type MigrationResponse struct {
	ID           string `json:"id"`
	Description  string `json:"description"`
	RowsAffected int64  `json:"rows_affected"`
	AppliedAt    string `json:"applied_at"`
}

type MigrationRunResponse struct {
	Applied []*MigrationResponse `json:"applied"`
	Skipped []string             `json:"skipped"`
}
