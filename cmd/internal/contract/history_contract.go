package contract

type StatusHistoryResponse struct {
	ID           int64               `json:"id"`
	CaseID       int64               `json:"case_id"`
	CaseStatusID *int64              `json:"case_status_id"`
	StatusName   string              `json:"status_name"`
	IsActive     bool                `json:"is_active"`
	Notes        string              `json:"notes,omitempty"`
	ChangedBy    *UserSummary        `json:"changed_by"`
	ChangedAt    string              `json:"changed_at"`
	CreatedAt    string              `json:"created_at"`
	CaseStatus   *CaseStatusResponse `json:"case_status,omitempty"`
}

type AddStatusRequest struct {
	// Status is either the catalog code or its display name.
	Status string `json:"status" validate:"required,max=120"`
	Notes  string `json:"notes" validate:"max=2000"`

	// IsActive defaults to true. Inactive rows record back-dated history.
	IsActive *bool `json:"is_active"`
}

type UpdateStatusRequest struct {
	StatusName *string `json:"status_name" validate:"omitempty,min=1,max=120"`
	Notes      *string `json:"notes" validate:"omitempty,max=2000"`
	IsActive   *bool   `json:"is_active"`
}
