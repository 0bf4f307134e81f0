package service

import (
	"casetrack/cmd/internal/contract"
	"casetrack/cmd/internal/domain/entity"
	"casetrack/cmd/internal/domain/policy"
	"casetrack/cmd/internal/metrics"
	"casetrack/cmd/internal/utils"
	"casetrack/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

const (
	bulkOpStatus    = "status"
	bulkOpPeople    = "people"
	bulkOpProcesses = "processes"
)

// DefaultBulkService applies one operation to many items. Items are handled
// one after the other, each in its own transaction: a failing item is
// reported and never undoes the others.
type DefaultBulkService struct {
	ProcessRepo IndividualProcessRepository
	Cases       *DefaultCaseService
	Changer     *StatusChanger
	Policy      *policy.WorkflowPolicy
	Metrics     *metrics.Metrics
	Validate    *validator.Validate
}

func NewBulkService(
	processRepo IndividualProcessRepository,
	cases *DefaultCaseService,
	changer *StatusChanger,
	workflowPolicy *policy.WorkflowPolicy,
	m *metrics.Metrics,
	validate *validator.Validate,
) *DefaultBulkService {
	return &DefaultBulkService{
		ProcessRepo: processRepo,
		Cases:       cases,
		Changer:     changer,
		Policy:      workflowPolicy,
		Metrics:     m,
		Validate:    validate,
	}
}

// UpdateStatus moves every listed case into the same status. Each case is
// validated against its own current status. Repeated ids are handled once.
func (b *DefaultBulkService) UpdateStatus(actor *entity.User, req *contract.BulkStatusRequest) (*contract.BulkResult, apierror.ErrorResponse) {
	if perr := b.Policy.RequireAdmin(actor); perr != nil {
		return nil, perr
	}

	utils.Sanitize(req)
	if err := b.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	target, apierr := b.Changer.Resolve(req.Status)
	if apierr != nil {
		return nil, apierr
	}

	result := contract.NewBulkResult()
	seen := make(map[int64]struct{}, len(req.CaseIDs))
	for i, caseID := range req.CaseIDs {
		if _, dupe := seen[caseID]; dupe {
			continue
		}
		seen[caseID] = struct{}{}

		apierr := b.updateOne(actor, caseID, target, req.Notes)
		b.Metrics.IncBulkItem(bulkOpStatus, apierr == nil)
		if apierr != nil {
			result.Failed = append(result.Failed, failure(caseID, i, apierr))
			continue
		}
		result.Successful = append(result.Successful, caseID)
	}

	b.Changer.Activity.Schedule(actor.ID, ActionBulkStatusUpdated, entity.EntityCaseStatus, target.ID, map[string]any{
		"status":     target.Code,
		"successful": len(result.Successful),
		"failed":     len(result.Failed),
	})
	return result, nil
}

func (b *DefaultBulkService) updateOne(actor *entity.User, caseID int64, target *entity.CaseStatus, notes string) apierror.ErrorResponse {
	process, err := b.ProcessRepo.FindByID(caseID)
	if err != nil {
		log.Errorf("failed to fetch case %d: %v", caseID, err)
		return apierror.InternalServerError
	}

	if process == nil {
		return apierror.NewNotFoundError("Case", caseID)
	}

	_, apierr := b.Changer.Assign(actor, process, target, notes, OriginBulk)
	return apierr
}

func (b *DefaultBulkService) CreatePeople(actor *entity.User, req *contract.BulkPeopleRequest) (*contract.BulkResult, apierror.ErrorResponse) {
	if perr := b.Policy.CanManageCases(actor); perr != nil {
		return nil, perr
	}

	if err := b.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	result := contract.NewBulkResult()
	for i, item := range req.People {
		if item == nil {
			result.Failed = append(result.Failed, failure(0, i, apierror.MalformedBodyError))
			b.Metrics.IncBulkItem(bulkOpPeople, false)
			continue
		}

		person, apierr := b.Cases.CreatePerson(actor, item)
		b.Metrics.IncBulkItem(bulkOpPeople, apierr == nil)
		if apierr != nil {
			result.Failed = append(result.Failed, failure(0, i, apierr))
			continue
		}
		result.Successful = append(result.Successful, person.ID)
	}
	return result, nil
}

func (b *DefaultBulkService) CreateProcesses(actor *entity.User, req *contract.BulkProcessesRequest) (*contract.BulkResult, apierror.ErrorResponse) {
	if perr := b.Policy.CanManageCases(actor); perr != nil {
		return nil, perr
	}

	if err := b.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	result := contract.NewBulkResult()
	for i, item := range req.Processes {
		if item == nil {
			result.Failed = append(result.Failed, failure(0, i, apierror.MalformedBodyError))
			b.Metrics.IncBulkItem(bulkOpProcesses, false)
			continue
		}

		process, apierr := b.Cases.CreateProcess(actor, item)
		b.Metrics.IncBulkItem(bulkOpProcesses, apierr == nil)
		if apierr != nil {
			result.Failed = append(result.Failed, failure(0, i, apierr))
			continue
		}
		result.Successful = append(result.Successful, process.ID)
	}
	return result, nil
}

func failure(id int64, index int, apierr apierror.ErrorResponse) *contract.BulkFailure {
	return &contract.BulkFailure{
		ID:      id,
		Index:   index,
		Reason:  string(apierror.KindOf(apierr)),
		Message: apierror.MessageOf(apierr),
	}
}
