package service

import (
	"slices"

	"casetrack/cmd/internal/contract"
	"casetrack/cmd/internal/domain/entity"
	"casetrack/cmd/internal/domain/policy"
	"casetrack/cmd/internal/utils"
	"casetrack/cmd/internal/utils/apierror"
	"casetrack/cmd/internal/utils/uid"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

type StatusHistoryRepository interface {
	FindByProcess(processID int64) ([]*entity.IndividualProcessStatus, error)
	FindActiveByProcess(processID int64) ([]*entity.IndividualProcessStatus, error)
	FindByID(id int64) (*entity.IndividualProcessStatus, error)
	Save(row *entity.IndividualProcessStatus) error
	Delete(row *entity.IndividualProcessStatus) error
}

type IndividualProcessRepository interface {
	FindByID(id int64) (*entity.IndividualProcess, error)
	FindAll(statusID *int64) ([]*entity.IndividualProcess, error)
	Save(process *entity.IndividualProcess) error
}

type UserRepository interface {
	FindAllInIDs(ids []int64) ([]*entity.User, error)
	FindByID(id int64) (*entity.User, error)
}

type DefaultStatusHistoryService struct {
	HistoryRepo StatusHistoryRepository
	ProcessRepo IndividualProcessRepository
	UserRepo    UserRepository
	Changer     *StatusChanger
	Policy      *policy.WorkflowPolicy
	Validate    *validator.Validate
}

func NewStatusHistoryService(
	historyRepo StatusHistoryRepository,
	processRepo IndividualProcessRepository,
	userRepo UserRepository,
	changer *StatusChanger,
	workflowPolicy *policy.WorkflowPolicy,
	validate *validator.Validate,
) *DefaultStatusHistoryService {
	return &DefaultStatusHistoryService{
		HistoryRepo: historyRepo,
		ProcessRepo: processRepo,
		UserRepo:    userRepo,
		Changer:     changer,
		Policy:      workflowPolicy,
		Validate:    validate,
	}
}

// List returns the whole history of a case, newest first.
func (h *DefaultStatusHistoryService) List(actor *entity.User, caseID int64) ([]*contract.StatusHistoryResponse, apierror.ErrorResponse) {
	if perr := h.Policy.CanView(actor); perr != nil {
		return nil, perr
	}

	if _, apierr := h.fetchProcess(caseID); apierr != nil {
		return nil, apierr
	}

	rows, err := h.HistoryRepo.FindByProcess(caseID)
	if err != nil {
		log.Errorf("failed to fetch status history of case %d: %v", caseID, err)
		return nil, apierror.InternalServerError
	}
	return h.enrich(rows, false)
}

// GetActive returns the active row of a case, or nil when it has no status yet.
func (h *DefaultStatusHistoryService) GetActive(actor *entity.User, caseID int64) (*contract.StatusHistoryResponse, apierror.ErrorResponse) {
	if perr := h.Policy.CanView(actor); perr != nil {
		return nil, perr
	}

	if _, apierr := h.fetchProcess(caseID); apierr != nil {
		return nil, apierr
	}

	rows, err := h.HistoryRepo.FindActiveByProcess(caseID)
	if err != nil {
		log.Errorf("failed to fetch active status of case %d: %v", caseID, err)
		return nil, apierror.InternalServerError
	}

	if len(rows) == 0 {
		return nil, nil
	}

	if len(rows) > 1 {
		log.Warnf("case %d holds %d active statuses, reporting the newest", caseID, len(rows))
	}

	resp, apierr := h.enrich(rows[:1], true)
	if apierr != nil {
		return nil, apierr
	}
	return resp[0], nil
}

// GetHistory is the chronological view of a case, each row carrying its catalog entry.
func (h *DefaultStatusHistoryService) GetHistory(actor *entity.User, caseID int64) ([]*contract.StatusHistoryResponse, apierror.ErrorResponse) {
	if perr := h.Policy.CanView(actor); perr != nil {
		return nil, perr
	}

	if _, apierr := h.fetchProcess(caseID); apierr != nil {
		return nil, apierr
	}

	rows, err := h.HistoryRepo.FindByProcess(caseID)
	if err != nil {
		log.Errorf("failed to fetch status history of case %d: %v", caseID, err)
		return nil, apierror.InternalServerError
	}

	slices.Reverse(rows)
	return h.enrich(rows, true)
}

// Add records a status for a case. Active rows replace the current status
// through the workflow; inactive rows only back-fill the history.
func (h *DefaultStatusHistoryService) Add(actor *entity.User, caseID int64, req *contract.AddStatusRequest) (*contract.StatusHistoryResponse, apierror.ErrorResponse) {
	if perr := h.Policy.RequireAdmin(actor); perr != nil {
		return nil, perr
	}

	utils.Sanitize(req)
	if err := h.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	process, apierr := h.fetchProcess(caseID)
	if apierr != nil {
		return nil, apierr
	}

	target, apierr := h.Changer.Resolve(req.Status)
	if apierr != nil {
		return nil, apierr
	}

	if req.IsActive == nil || *req.IsActive {
		row, apierr := h.Changer.Assign(actor, process, target, req.Notes, OriginManual)
		if apierr != nil {
			return nil, apierr
		}
		return h.single(row, actor, target), nil
	}

	now := utils.NowUTC()
	targetID := target.ID
	row := &entity.IndividualProcessStatus{
		ID:                  uid.Generate(),
		IndividualProcessID: process.ID,
		CaseStatusID:        &targetID,
		StatusName:          target.Name,
		IsActive:            false,
		ChangedByID:         actor.ID,
		ChangedAt:           now,
		Notes:               req.Notes,
		CreatedAt:           now,
	}

	if err := h.HistoryRepo.Save(row); err != nil {
		log.Errorf("actor %d failed to add history to case %d: %v", actor.ID, caseID, err)
		return nil, apierror.InternalServerError
	}

	h.Changer.Activity.Schedule(actor.ID, ActionStatusHistoryAdded, entity.EntityStatusHistory, row.ID, map[string]any{
		"case_id": caseID,
		"status":  target.Code,
	})
	return h.single(row, actor, target), nil
}

// Update edits a history row in place. Promoting a row runs the workflow
// check and supersedes the other active rows, demoting the active row
// leaves the case without status.
func (h *DefaultStatusHistoryService) Update(actor *entity.User, rowID int64, req *contract.UpdateStatusRequest) (*contract.StatusHistoryResponse, apierror.ErrorResponse) {
	if perr := h.Policy.RequireAdmin(actor); perr != nil {
		return nil, perr
	}

	utils.Sanitize(req)
	if err := h.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	row, apierr := h.fetchRow(rowID)
	if apierr != nil {
		return nil, apierr
	}

	process, apierr := h.fetchProcess(row.IndividualProcessID)
	if apierr != nil {
		return nil, apierr
	}

	var target *entity.CaseStatus
	if req.StatusName != nil {
		target, apierr = h.Changer.Resolve(*req.StatusName)
		if apierr != nil {
			return nil, apierr
		}
	}

	statusChanged := target != nil && (row.CaseStatusID == nil || *row.CaseStatusID != target.ID)
	wantActive := row.IsActive
	if req.IsActive != nil {
		wantActive = *req.IsActive
	}

	if req.Notes != nil {
		row.Notes = *req.Notes
	}

	switch {
	case wantActive && (!row.IsActive || statusChanged):
		return h.activate(actor, process, row, target)

	case row.IsActive && !wantActive:
		return h.deactivate(actor, process, row, target)

	default:
		if target != nil {
			targetID := target.ID
			row.CaseStatusID = &targetID
			row.StatusName = target.Name
		}

		if err := h.HistoryRepo.Save(row); err != nil {
			log.Errorf("actor %d failed to update history row %d: %v", actor.ID, rowID, err)
			return nil, apierror.InternalServerError
		}

		h.Changer.Activity.Schedule(actor.ID, ActionStatusHistoryUpdated, entity.EntityStatusHistory, row.ID, map[string]any{
			"case_id": row.IndividualProcessID,
		})
		return h.single(row, h.changedBy(row), target), nil
	}
}

// Delete removes a superseded row. The active row must be replaced or demoted first.
func (h *DefaultStatusHistoryService) Delete(actor *entity.User, rowID int64) apierror.ErrorResponse {
	if perr := h.Policy.RequireAdmin(actor); perr != nil {
		return perr
	}

	row, apierr := h.fetchRow(rowID)
	if apierr != nil {
		return apierr
	}

	if row.IsActive {
		return apierror.ActiveStatusDeletionError
	}

	if err := h.HistoryRepo.Delete(row); err != nil {
		log.Errorf("actor %d failed to delete history row %d: %v", actor.ID, rowID, err)
		return apierror.InternalServerError
	}

	h.Changer.Activity.Schedule(actor.ID, ActionStatusHistoryDeleted, entity.EntityStatusHistory, row.ID, map[string]any{
		"case_id":     row.IndividualProcessID,
		"status_name": row.StatusName,
	})
	return nil
}

func (h *DefaultStatusHistoryService) activate(actor *entity.User, process *entity.IndividualProcess, row *entity.IndividualProcessStatus, target *entity.CaseStatus) (*contract.StatusHistoryResponse, apierror.ErrorResponse) {
	if target == nil {
		var apierr apierror.ErrorResponse
		target, apierr = h.rowStatus(row)
		if apierr != nil {
			return nil, apierr
		}
	}

	from, apierr := h.Changer.CurrentStatus(process)
	if apierr != nil {
		return nil, apierr
	}

	// Promoting a duplicate of the current status swaps rows without moving the case
	if from == nil || from.ID != target.ID {
		if apierr = h.Changer.CheckTransition(from, target); apierr != nil {
			return nil, apierr
		}
	}

	now := utils.NowUTC()
	targetID := target.ID
	row.CaseStatusID = &targetID
	row.StatusName = target.Name
	row.IsActive = true
	row.ChangedByID = actor.ID
	row.ChangedAt = now

	if apierr = h.Changer.Commit(process, row, now); apierr != nil {
		return nil, apierr
	}

	h.Changer.Announce(actor, process.ID, from, target, row, OriginHistoryEdit)
	return h.single(row, actor, target), nil
}

func (h *DefaultStatusHistoryService) deactivate(actor *entity.User, process *entity.IndividualProcess, row *entity.IndividualProcessStatus, target *entity.CaseStatus) (*contract.StatusHistoryResponse, apierror.ErrorResponse) {
	from, apierr := h.Changer.CurrentStatus(process)
	if apierr != nil {
		return nil, apierr
	}

	if target != nil {
		targetID := target.ID
		row.CaseStatusID = &targetID
		row.StatusName = target.Name
	}
	row.IsActive = false

	if apierr = h.Changer.Commit(process, row, utils.NowUTC()); apierr != nil {
		return nil, apierr
	}

	to, apierr := h.Changer.CurrentStatus(process)
	if apierr != nil {
		return nil, apierr
	}

	h.Changer.Announce(actor, process.ID, from, to, row, OriginHistoryEdit)
	return h.single(row, h.changedBy(row), target), nil
}

// rowStatus resolves the catalog entry of an existing row, by reference or by its name snapshot.
func (h *DefaultStatusHistoryService) rowStatus(row *entity.IndividualProcessStatus) (*entity.CaseStatus, apierror.ErrorResponse) {
	if row.CaseStatusID != nil {
		status, err := h.Changer.StatusRepo.FindByID(*row.CaseStatusID)
		if err != nil {
			log.Errorf("failed to fetch case status %d: %v", *row.CaseStatusID, err)
			return nil, apierror.InternalServerError
		}

		if status != nil {
			return status, nil
		}
	}
	return h.Changer.Resolve(row.StatusName)
}

func (h *DefaultStatusHistoryService) fetchProcess(id int64) (*entity.IndividualProcess, apierror.ErrorResponse) {
	process, err := h.ProcessRepo.FindByID(id)
	if err != nil {
		log.Errorf("failed to fetch case %d: %v", id, err)
		return nil, apierror.InternalServerError
	}

	if process == nil {
		return nil, apierror.NewNotFoundError("Case", id)
	}
	return process, nil
}

func (h *DefaultStatusHistoryService) fetchRow(id int64) (*entity.IndividualProcessStatus, apierror.ErrorResponse) {
	row, err := h.HistoryRepo.FindByID(id)
	if err != nil {
		log.Errorf("failed to fetch history row %d: %v", id, err)
		return nil, apierror.InternalServerError
	}

	if row == nil {
		return nil, apierror.NewNotFoundError("Status history entry", id)
	}
	return row, nil
}

func (h *DefaultStatusHistoryService) changedBy(row *entity.IndividualProcessStatus) *entity.User {
	user, err := h.UserRepo.FindByID(row.ChangedByID)
	if err != nil {
		log.Warnf("failed to fetch user %d for history row %d: %v", row.ChangedByID, row.ID, err)
		return nil
	}
	return user
}

func (h *DefaultStatusHistoryService) single(row *entity.IndividualProcessStatus, user *entity.User, status *entity.CaseStatus) *contract.StatusHistoryResponse {
	resp := toHistoryResponse(row, user)
	resp.CaseStatus = toCaseStatusResponse(status)
	return resp
}

// enrich attaches the acting users and, when withCatalog is set, the catalog entries.
func (h *DefaultStatusHistoryService) enrich(rows []*entity.IndividualProcessStatus, withCatalog bool) ([]*contract.StatusHistoryResponse, apierror.ErrorResponse) {
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		if !slices.Contains(ids, row.ChangedByID) {
			ids = append(ids, row.ChangedByID)
		}
	}

	users, err := h.UserRepo.FindAllInIDs(ids)
	if err != nil {
		log.Errorf("failed to fetch users for status history: %v", err)
		return nil, apierror.InternalServerError
	}

	usersByID := make(map[int64]*entity.User, len(users))
	for _, user := range users {
		usersByID[user.ID] = user
	}

	var catalog map[int64]*entity.CaseStatus
	if withCatalog {
		statuses, err := h.Changer.StatusRepo.FindAll(true)
		if err != nil {
			log.Errorf("failed to fetch catalog for status history: %v", err)
			return nil, apierror.InternalServerError
		}
		catalog = statusIDs(statuses)
	}

	resp := make([]*contract.StatusHistoryResponse, len(rows))
	for i, row := range rows {
		resp[i] = toHistoryResponse(row, usersByID[row.ChangedByID])
		if withCatalog && row.CaseStatusID != nil {
			resp[i].CaseStatus = toCaseStatusResponse(catalog[*row.CaseStatusID])
		}
	}
	return resp, nil
}
