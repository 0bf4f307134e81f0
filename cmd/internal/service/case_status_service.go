package service

import (
	"context"
	"slices"

	"casetrack/cmd/internal/contract"
	"casetrack/cmd/internal/domain/entity"
	"casetrack/cmd/internal/domain/events"
	"casetrack/cmd/internal/domain/policy"
	"casetrack/cmd/internal/domain/workflow"
	"casetrack/cmd/internal/utils"
	"casetrack/cmd/internal/utils/apierror"
	"casetrack/cmd/internal/utils/uid"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

type CaseStatusRepository interface {
	FindAll(includeInactive bool) ([]*entity.CaseStatus, error)
	FindByCategory(category string) ([]*entity.CaseStatus, error)
	FindByID(id int64) (*entity.CaseStatus, error)
	FindByCode(code string) (*entity.CaseStatus, error)
	FindByOrderNumber(orderNumber int) (*entity.CaseStatus, error)
	FindNextActiveByOrderNumber(orderNumber int) (*entity.CaseStatus, error)
	Save(status *entity.CaseStatus) error
	CountProcessesByStatus(statusID int64) (int64, error)
}

type DefaultCaseStatusService struct {
	StatusRepo CaseStatusRepository
	Machine    *workflow.Holder
	Activity   ActivityScheduler
	Events     Broadcaster
	Policy     *policy.WorkflowPolicy
	Validate   *validator.Validate
}

func NewCaseStatusService(
	statusRepo CaseStatusRepository,
	machine *workflow.Holder,
	activity ActivityScheduler,
	broadcaster Broadcaster,
	workflowPolicy *policy.WorkflowPolicy,
	validate *validator.Validate,
) *DefaultCaseStatusService {
	return &DefaultCaseStatusService{
		StatusRepo: statusRepo,
		Machine:    machine,
		Activity:   activity,
		Events:     broadcaster,
		Policy:     workflowPolicy,
		Validate:   validate,
	}
}

// ReloadMachine rebuilds the transition table from the catalog.
func (s *DefaultCaseStatusService) ReloadMachine() error {
	statuses, err := s.StatusRepo.FindAll(true)
	if err != nil {
		return err
	}
	s.Machine.Reload(statuses)
	return nil
}

func (s *DefaultCaseStatusService) List(actor *entity.User, includeInactive bool) ([]*contract.CaseStatusResponse, apierror.ErrorResponse) {
	if perr := s.Policy.CanView(actor); perr != nil {
		return nil, perr
	}

	statuses, err := s.StatusRepo.FindAll(includeInactive)
	if err != nil {
		log.Errorf("failed to fetch case statuses: %v", err)
		return nil, apierror.InternalServerError
	}
	return toCaseStatusResponses(statuses), nil
}

func (s *DefaultCaseStatusService) ListActive(actor *entity.User) ([]*contract.CaseStatusResponse, apierror.ErrorResponse) {
	return s.List(actor, false)
}

func (s *DefaultCaseStatusService) GetByCategory(actor *entity.User, category string) ([]*contract.CaseStatusResponse, apierror.ErrorResponse) {
	if perr := s.Policy.CanView(actor); perr != nil {
		return nil, perr
	}

	statuses, err := s.StatusRepo.FindByCategory(category)
	if err != nil {
		log.Errorf("failed to fetch case statuses of category %s: %v", category, err)
		return nil, apierror.InternalServerError
	}
	return toCaseStatusResponses(statuses), nil
}

func (s *DefaultCaseStatusService) GetByID(actor *entity.User, id int64) (*contract.CaseStatusResponse, apierror.ErrorResponse) {
	if perr := s.Policy.CanView(actor); perr != nil {
		return nil, perr
	}

	status, apierr := s.fetchByID(id)
	if apierr != nil {
		return nil, apierr
	}
	return toCaseStatusResponse(status), nil
}

func (s *DefaultCaseStatusService) GetByCode(actor *entity.User, code string) (*contract.CaseStatusResponse, apierror.ErrorResponse) {
	if perr := s.Policy.CanView(actor); perr != nil {
		return nil, perr
	}

	status, err := s.StatusRepo.FindByCode(code)
	if err != nil {
		log.Errorf("failed to fetch case status by code %s: %v", code, err)
		return nil, apierror.InternalServerError
	}

	if status == nil {
		return nil, apierror.NewNotFoundError("Case status", code)
	}
	return toCaseStatusResponse(status), nil
}

func (s *DefaultCaseStatusService) GetByOrderNumber(actor *entity.User, orderNumber int) (*contract.CaseStatusResponse, apierror.ErrorResponse) {
	if perr := s.Policy.CanView(actor); perr != nil {
		return nil, perr
	}

	status, err := s.StatusRepo.FindByOrderNumber(orderNumber)
	if err != nil {
		log.Errorf("failed to fetch case status by order number %d: %v", orderNumber, err)
		return nil, apierror.InternalServerError
	}

	if status == nil {
		return nil, apierror.NewNotFoundError("Case status with order number", orderNumber)
	}
	return toCaseStatusResponse(status), nil
}

// GetNextByOrderNumber returns the active entry that follows current in the
// sequential workflow. Statuses outside the sequence (nil current) have no
// next status, so the result is nil.
func (s *DefaultCaseStatusService) GetNextByOrderNumber(actor *entity.User, current *int) (*contract.CaseStatusResponse, apierror.ErrorResponse) {
	if perr := s.Policy.CanView(actor); perr != nil {
		return nil, perr
	}

	if current == nil {
		return nil, nil
	}

	next, err := s.StatusRepo.FindNextActiveByOrderNumber(*current)
	if err != nil {
		log.Errorf("failed to fetch case status after order number %d: %v", *current, err)
		return nil, apierror.InternalServerError
	}
	return toCaseStatusResponse(next), nil
}

func (s *DefaultCaseStatusService) Transitions(actor *entity.User) (*contract.TransitionsResponse, apierror.ErrorResponse) {
	if perr := s.Policy.CanView(actor); perr != nil {
		return nil, perr
	}

	machine := s.Machine.Current()
	terminal := make([]string, 0)
	for _, code := range machine.Codes() {
		if machine.IsTerminal(code) {
			terminal = append(terminal, code)
		}
	}

	return &contract.TransitionsResponse{
		Edges:    machine.Edges(),
		Terminal: terminal,
	}, nil
}

func (s *DefaultCaseStatusService) Create(actor *entity.User, req *contract.CreateCaseStatusRequest) (*contract.CaseStatusResponse, apierror.ErrorResponse) {
	if perr := s.Policy.RequireAdmin(actor); perr != nil {
		return nil, perr
	}

	utils.Sanitize(req)
	if err := s.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	if slices.Contains(req.AllowedNext, req.Code) {
		return nil, apierror.NewSelfTransitionError(req.Code)
	}

	catalog, err := s.StatusRepo.FindAll(true)
	if err != nil {
		log.Errorf("failed to fetch catalog: %v", err)
		return nil, apierror.InternalServerError
	}

	known := make([]string, 0, len(catalog))
	maxSort := 0
	for _, existing := range catalog {
		if existing.Code == req.Code {
			return nil, apierror.DuplicateCodeError
		}
		if req.OrderNumber != nil && existing.OrderNumber != nil && *existing.OrderNumber == *req.OrderNumber {
			return nil, apierror.DuplicateOrderNumberError
		}
		if existing.SortOrder > maxSort {
			maxSort = existing.SortOrder
		}
		known = append(known, existing.Code)
	}

	if unknown := workflow.UnknownTargets(req.AllowedNext, known); len(unknown) > 0 {
		return nil, apierror.NewUnknownStatusCodesError(unknown)
	}

	sortOrder := maxSort + 1
	if req.SortOrder != nil {
		sortOrder = *req.SortOrder
	}

	now := utils.NowUTC()
	status := &entity.CaseStatus{
		ID:             uid.Generate(),
		Code:           req.Code,
		Name:           req.Name,
		NameEn:         req.NameEn,
		Description:    req.Description,
		Category:       req.Category,
		Color:          req.Color,
		SortOrder:      sortOrder,
		OrderNumber:    req.OrderNumber,
		FillableFields: entity.JoinList(req.FillableFields),
		AllowedNext:    entity.JoinList(req.AllowedNext),
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.StatusRepo.Save(status); err != nil {
		log.Errorf("actor %d failed to create case status %s: %v", actor.ID, req.Code, err)
		return nil, apierror.InternalServerError
	}

	s.afterMutation(actor, ActionCaseStatusCreated, status, map[string]any{"code": status.Code})
	return toCaseStatusResponse(status), nil
}

func (s *DefaultCaseStatusService) Update(actor *entity.User, id int64, req *contract.UpdateCaseStatusRequest) (*contract.CaseStatusResponse, apierror.ErrorResponse) {
	if perr := s.Policy.RequireAdmin(actor); perr != nil {
		return nil, perr
	}

	utils.Sanitize(req)
	if err := s.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	target, apierr := s.fetchByID(id)
	if apierr != nil {
		return nil, apierr
	}

	updater := &caseStatusUpdater{
		repo:   s.StatusRepo,
		target: target,
	}

	// Code first, an in-use entry rejects the whole patch
	updater.setCode(req.Code)
	updater.setOrderNumber(req.OrderNumber, req.ClearOrderNumber)
	updater.setString("name", req.Name, &target.Name)
	updater.setString("name_en", req.NameEn, &target.NameEn)
	updater.setString("description", req.Description, &target.Description)
	updater.setString("category", req.Category, &target.Category)
	updater.setString("color", req.Color, &target.Color)
	updater.setSortOrder(req.SortOrder)
	updater.setFillableFields(req.FillableFields)
	updater.setAllowedNext(req.AllowedNext)

	if updater.err != nil {
		return nil, updater.err
	}

	if !updater.dirty {
		return toCaseStatusResponse(target), nil
	}

	target.UpdatedAt = utils.NowUTC()
	if err := s.StatusRepo.Save(target); err != nil {
		log.Errorf("actor %d failed to update case status %d: %v", actor.ID, id, err)
		return nil, apierror.InternalServerError
	}

	if updater.renamedFrom != "" {
		s.renameTransitionTargets(target, updater.renamedFrom)
	}

	s.afterMutation(actor, ActionCaseStatusUpdated, target, map[string]any{"fields": updater.changed})
	return toCaseStatusResponse(target), nil
}

// Remove soft deletes an entry. Entries still holding cases are refused.
func (s *DefaultCaseStatusService) Remove(actor *entity.User, id int64) apierror.ErrorResponse {
	if perr := s.Policy.RequireAdmin(actor); perr != nil {
		return perr
	}

	status, apierr := s.fetchByID(id)
	if apierr != nil {
		return apierr
	}

	if apierr = s.ensureNotInUse(status); apierr != nil {
		return apierr
	}

	if !status.IsActive {
		return nil
	}

	status.IsActive = false
	status.UpdatedAt = utils.NowUTC()
	if err := s.StatusRepo.Save(status); err != nil {
		log.Errorf("actor %d failed to remove case status %d: %v", actor.ID, id, err)
		return apierror.InternalServerError
	}

	s.afterMutation(actor, ActionCaseStatusRemoved, status, map[string]any{"code": status.Code})
	return nil
}

func (s *DefaultCaseStatusService) ToggleActive(actor *entity.User, id int64, req *contract.ToggleCaseStatusRequest) (*contract.CaseStatusResponse, apierror.ErrorResponse) {
	if perr := s.Policy.RequireAdmin(actor); perr != nil {
		return nil, perr
	}

	if err := s.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	status, apierr := s.fetchByID(id)
	if apierr != nil {
		return nil, apierr
	}

	active := *req.Active
	if status.IsActive == active {
		return toCaseStatusResponse(status), nil
	}

	if !active {
		if apierr = s.ensureNotInUse(status); apierr != nil {
			return nil, apierr
		}
	}

	status.IsActive = active
	status.UpdatedAt = utils.NowUTC()
	if err := s.StatusRepo.Save(status); err != nil {
		log.Errorf("actor %d failed to toggle case status %d: %v", actor.ID, id, err)
		return nil, apierror.InternalServerError
	}

	s.afterMutation(actor, ActionCaseStatusToggled, status, map[string]any{"active": active})
	return toCaseStatusResponse(status), nil
}

// Reorder applies every (id, sortOrder) pair on its own. A failing item does
// not undo the items applied before it.
func (s *DefaultCaseStatusService) Reorder(actor *entity.User, req *contract.ReorderRequest) (*contract.BulkResult, apierror.ErrorResponse) {
	if perr := s.Policy.RequireAdmin(actor); perr != nil {
		return nil, perr
	}

	if err := s.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	result := contract.NewBulkResult()
	for i, item := range req.Items {
		if apierr := s.reorderOne(item); apierr != nil {
			result.Failed = append(result.Failed, &contract.BulkFailure{
				ID:      item.ID,
				Index:   i,
				Reason:  string(apierror.KindOf(apierr)),
				Message: apierror.MessageOf(apierr),
			})
			continue
		}
		result.Successful = append(result.Successful, item.ID)
	}

	if len(result.Successful) > 0 {
		go s.Events.Broadcast(context.Background(), &events.CatalogUpdated{Action: ActionCaseStatusReordered})
		s.Activity.Schedule(actor.ID, ActionCaseStatusReordered, entity.EntityCaseStatus, 0, map[string]any{
			"successful": result.Successful,
			"failed":     len(result.Failed),
		})
	}
	return result, nil
}

func (s *DefaultCaseStatusService) reorderOne(item *contract.ReorderItem) apierror.ErrorResponse {
	status, apierr := s.fetchByID(item.ID)
	if apierr != nil {
		return apierr
	}

	if status.SortOrder == item.SortOrder {
		return nil
	}

	status.SortOrder = item.SortOrder
	status.UpdatedAt = utils.NowUTC()
	if err := s.StatusRepo.Save(status); err != nil {
		log.Errorf("failed to reorder case status %d: %v", item.ID, err)
		return apierror.InternalServerError
	}
	return nil
}

func (s *DefaultCaseStatusService) fetchByID(id int64) (*entity.CaseStatus, apierror.ErrorResponse) {
	status, err := s.StatusRepo.FindByID(id)
	if err != nil {
		log.Errorf("failed to fetch case status %d: %v", id, err)
		return nil, apierror.InternalServerError
	}

	if status == nil {
		return nil, apierror.NewNotFoundError("Case status", id)
	}
	return status, nil
}

func (s *DefaultCaseStatusService) ensureNotInUse(status *entity.CaseStatus) apierror.ErrorResponse {
	count, err := s.StatusRepo.CountProcessesByStatus(status.ID)
	if err != nil {
		log.Errorf("failed to count cases in status %d: %v", status.ID, err)
		return apierror.InternalServerError
	}

	if count > 0 {
		return apierror.StatusInUseError
	}
	return nil
}

// renameTransitionTargets rewrites the old code in every allowed-next list.
func (s *DefaultCaseStatusService) renameTransitionTargets(renamed *entity.CaseStatus, oldCode string) {
	catalog, err := s.StatusRepo.FindAll(true)
	if err != nil {
		log.Errorf("failed to fetch catalog to rename %s: %v", oldCode, err)
		return
	}

	for _, status := range catalog {
		if status.ID == renamed.ID {
			continue
		}

		next := status.AllowedNextCodes()
		changed := false
		for i, code := range next {
			if code == oldCode {
				next[i] = renamed.Code
				changed = true
			}
		}

		if !changed {
			continue
		}

		status.AllowedNext = entity.JoinList(next)
		status.UpdatedAt = utils.NowUTC()
		if err := s.StatusRepo.Save(status); err != nil {
			log.Errorf("failed to rename transition %s -> %s on %s: %v", oldCode, renamed.Code, status.Code, err)
		}
	}
}

func (s *DefaultCaseStatusService) afterMutation(actor *entity.User, action string, status *entity.CaseStatus, details map[string]any) {
	if err := s.ReloadMachine(); err != nil {
		log.Errorf("failed to reload transitions after %s: %v", action, err)
	}

	go s.Events.Broadcast(context.Background(), &events.CatalogUpdated{Action: action, StatusID: status.ID})
	s.Activity.Schedule(actor.ID, action, entity.EntityCaseStatus, status.ID, details)
}
