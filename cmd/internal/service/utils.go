package service

import (
	"encoding/json"

	"casetrack/cmd/internal/contract"
	"casetrack/cmd/internal/domain/entity"
	"casetrack/cmd/internal/utils"
)

func toCaseStatusResponse(s *entity.CaseStatus) *contract.CaseStatusResponse {
	if s == nil {
		return nil
	}
	return &contract.CaseStatusResponse{
		ID:             s.ID,
		Code:           s.Code,
		Name:           s.Name,
		NameEn:         s.NameEn,
		Description:    s.Description,
		Category:       s.Category,
		Color:          s.Color,
		SortOrder:      s.SortOrder,
		OrderNumber:    s.OrderNumber,
		FillableFields: s.FillableFieldList(),
		AllowedNext:    s.AllowedNextCodes(),
		IsActive:       s.IsActive,
		CreatedAt:      utils.FormatEpoch(s.CreatedAt),
		UpdatedAt:      utils.FormatEpoch(s.UpdatedAt),
	}
}

func toCaseStatusResponses(statuses []*entity.CaseStatus) []*contract.CaseStatusResponse {
	resp := make([]*contract.CaseStatusResponse, len(statuses))
	for i, s := range statuses {
		resp[i] = toCaseStatusResponse(s)
	}
	return resp
}

func toHistoryResponse(row *entity.IndividualProcessStatus, user *entity.User) *contract.StatusHistoryResponse {
	return &contract.StatusHistoryResponse{
		ID:           row.ID,
		CaseID:       row.IndividualProcessID,
		CaseStatusID: row.CaseStatusID,
		StatusName:   row.StatusName,
		IsActive:     row.IsActive,
		Notes:        row.Notes,
		ChangedBy:    toUserSummary(user),
		ChangedAt:    utils.FormatEpoch(row.ChangedAt),
		CreatedAt:    utils.FormatEpoch(row.CreatedAt),
	}
}

func toUserSummary(user *entity.User) *contract.UserSummary {
	if user == nil {
		return nil
	}
	return &contract.UserSummary{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
	}
}

func toUserResponse(user *entity.User) *contract.UserResponse {
	return &contract.UserResponse{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Perms:       int64(user.Permissions),
		CreatedAt:   utils.FormatEpoch(user.CreatedAt),
		UpdatedAt:   utils.FormatEpoch(user.UpdatedAt),
	}
}

func toPersonResponse(p *entity.Person) *contract.PersonResponse {
	return &contract.PersonResponse{
		ID:             p.ID,
		FullName:       p.FullName,
		Email:          p.Email,
		Nationality:    p.Nationality,
		PassportNumber: p.PassportNumber,
		CreatedAt:      utils.FormatEpoch(p.CreatedAt),
		UpdatedAt:      utils.FormatEpoch(p.UpdatedAt),
	}
}

func toProcessResponse(p *entity.IndividualProcess, status *entity.CaseStatus) *contract.ProcessResponse {
	return &contract.ProcessResponse{
		ID:                  p.ID,
		PersonID:            p.PersonID,
		CollectiveProcessID: p.CollectiveProcessID,
		ProcessType:         p.ProcessType,
		Version:             p.Version,
		CurrentStatus:       toCaseStatusResponse(status),
		CreatedAt:           utils.FormatEpoch(p.CreatedAt),
		UpdatedAt:           utils.FormatEpoch(p.UpdatedAt),
	}
}

func toCollectiveResponse(p *entity.CollectiveProcess) *contract.CollectiveProcessResponse {
	return &contract.CollectiveProcessResponse{
		ID:          p.ID,
		Reference:   p.Reference,
		CompanyName: p.CompanyName,
		CompanyCNPJ: p.CompanyCNPJ,
		CreatedAt:   utils.FormatEpoch(p.CreatedAt),
		UpdatedAt:   utils.FormatEpoch(p.UpdatedAt),
	}
}

func toActivityResponse(e *entity.ActivityLog) *contract.ActivityResponse {
	details := json.RawMessage(e.Details)
	if !json.Valid(details) {
		details = json.RawMessage("{}")
	}
	return &contract.ActivityResponse{
		ID:         e.ID,
		UserID:     e.UserID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Details:    details,
		CreatedAt:  utils.FormatEpoch(e.CreatedAt),
	}
}

func statusIDs(statuses []*entity.CaseStatus) map[int64]*entity.CaseStatus {
	byID := make(map[int64]*entity.CaseStatus, len(statuses))
	for _, s := range statuses {
		byID[s.ID] = s
	}
	return byID
}

func codePtr(s *entity.CaseStatus) *string {
	if s == nil {
		return nil
	}
	code := s.Code
	return &code
}
