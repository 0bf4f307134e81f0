package service

import (
	"casetrack/cmd/internal/contract"
	"casetrack/cmd/internal/domain/entity"
	"casetrack/cmd/internal/domain/policy"
	"casetrack/cmd/internal/utils"
	"casetrack/cmd/internal/utils/apierror"
	"casetrack/cmd/internal/utils/uid"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

type PersonRepository interface {
	FindByID(id int64) (*entity.Person, error)
	FindAll() ([]*entity.Person, error)
	Save(person *entity.Person) error
}

type CollectiveProcessRepository interface {
	FindByID(id int64) (*entity.CollectiveProcess, error)
	ExistsByReference(reference string) (bool, error)
	Save(process *entity.CollectiveProcess) error
}

// DefaultCaseService registers the people and processes the workflow runs on.
type DefaultCaseService struct {
	PersonRepo     PersonRepository
	ProcessRepo    IndividualProcessRepository
	CollectiveRepo CollectiveProcessRepository
	Changer        *StatusChanger
	Policy         *policy.WorkflowPolicy
	Validate       *validator.Validate
}

func NewCaseService(
	personRepo PersonRepository,
	processRepo IndividualProcessRepository,
	collectiveRepo CollectiveProcessRepository,
	changer *StatusChanger,
	workflowPolicy *policy.WorkflowPolicy,
	validate *validator.Validate,
) *DefaultCaseService {
	return &DefaultCaseService{
		PersonRepo:     personRepo,
		ProcessRepo:    processRepo,
		CollectiveRepo: collectiveRepo,
		Changer:        changer,
		Policy:         workflowPolicy,
		Validate:       validate,
	}
}

func (s *DefaultCaseService) CreatePerson(actor *entity.User, req *contract.CreatePersonRequest) (*contract.PersonResponse, apierror.ErrorResponse) {
	if perr := s.Policy.CanManageCases(actor); perr != nil {
		return nil, perr
	}

	utils.Sanitize(req)
	if err := s.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	now := utils.NowUTC()
	person := &entity.Person{
		ID:             uid.Generate(),
		FullName:       req.FullName,
		Email:          req.Email,
		Nationality:    req.Nationality,
		PassportNumber: req.PassportNumber,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.PersonRepo.Save(person); err != nil {
		log.Errorf("actor %d failed to create person: %v", actor.ID, err)
		return nil, apierror.InternalServerError
	}

	s.Changer.Activity.Schedule(actor.ID, ActionPersonCreated, entity.EntityPerson, person.ID, nil)
	return toPersonResponse(person), nil
}

func (s *DefaultCaseService) ListPeople(actor *entity.User) ([]*contract.PersonResponse, apierror.ErrorResponse) {
	if perr := s.Policy.CanView(actor); perr != nil {
		return nil, perr
	}

	people, err := s.PersonRepo.FindAll()
	if err != nil {
		log.Errorf("failed to fetch people: %v", err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*contract.PersonResponse, len(people))
	for i, p := range people {
		resp[i] = toPersonResponse(p)
	}
	return resp, nil
}

// CreateProcess opens a case. Starting it in a status is a status change,
// so it takes administrator privileges like any other.
func (s *DefaultCaseService) CreateProcess(actor *entity.User, req *contract.CreateProcessRequest) (*contract.ProcessResponse, apierror.ErrorResponse) {
	if perr := s.Policy.CanManageCases(actor); perr != nil {
		return nil, perr
	}

	utils.Sanitize(req)
	if err := s.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	var initial *entity.CaseStatus
	if req.InitialStatus != "" {
		if perr := s.Policy.RequireAdmin(actor); perr != nil {
			return nil, perr
		}

		var apierr apierror.ErrorResponse
		initial, apierr = s.Changer.Resolve(req.InitialStatus)
		if apierr != nil {
			return nil, apierr
		}
	}

	person, err := s.PersonRepo.FindByID(req.PersonID)
	if err != nil {
		log.Errorf("failed to fetch person %d: %v", req.PersonID, err)
		return nil, apierror.InternalServerError
	}

	if person == nil {
		return nil, apierror.NewNotFoundError("Person", req.PersonID)
	}

	if req.CollectiveProcessID != nil {
		collective, err := s.CollectiveRepo.FindByID(*req.CollectiveProcessID)
		if err != nil {
			log.Errorf("failed to fetch collective process %d: %v", *req.CollectiveProcessID, err)
			return nil, apierror.InternalServerError
		}

		if collective == nil {
			return nil, apierror.NewNotFoundError("Collective process", *req.CollectiveProcessID)
		}
	}

	now := utils.NowUTC()
	process := &entity.IndividualProcess{
		ID:                  uid.Generate(),
		PersonID:            person.ID,
		CollectiveProcessID: req.CollectiveProcessID,
		ProcessType:         req.ProcessType,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if initial != nil {
		if _, apierr := s.Changer.Open(actor, process, initial, req.Notes, OriginInitial); apierr != nil {
			return nil, apierr
		}
	} else if err := s.ProcessRepo.Save(process); err != nil {
		log.Errorf("actor %d failed to create case: %v", actor.ID, err)
		return nil, apierror.InternalServerError
	}

	s.Changer.Activity.Schedule(actor.ID, ActionProcessCreated, entity.EntityIndividualProcess, process.ID, map[string]any{
		"person_id":      person.ID,
		"initial_status": req.InitialStatus,
	})
	return toProcessResponse(process, initial), nil
}

func (s *DefaultCaseService) GetProcess(actor *entity.User, id int64) (*contract.ProcessResponse, apierror.ErrorResponse) {
	if perr := s.Policy.CanView(actor); perr != nil {
		return nil, perr
	}

	process, err := s.ProcessRepo.FindByID(id)
	if err != nil {
		log.Errorf("failed to fetch case %d: %v", id, err)
		return nil, apierror.InternalServerError
	}

	if process == nil {
		return nil, apierror.NewNotFoundError("Case", id)
	}

	current, apierr := s.Changer.CurrentStatus(process)
	if apierr != nil {
		return nil, apierr
	}
	return toProcessResponse(process, current), nil
}

// ListProcesses lists the cases, optionally only those in the status with the given code.
func (s *DefaultCaseService) ListProcesses(actor *entity.User, statusCode string) ([]*contract.ProcessResponse, apierror.ErrorResponse) {
	if perr := s.Policy.CanView(actor); perr != nil {
		return nil, perr
	}

	var statusID *int64
	if statusCode != "" {
		status, err := s.Changer.StatusRepo.FindByCode(statusCode)
		if err != nil {
			log.Errorf("failed to fetch case status %s: %v", statusCode, err)
			return nil, apierror.InternalServerError
		}

		if status == nil {
			return nil, apierror.NewNotFoundError("Case status", statusCode)
		}
		statusID = &status.ID
	}

	processes, err := s.ProcessRepo.FindAll(statusID)
	if err != nil {
		log.Errorf("failed to fetch cases: %v", err)
		return nil, apierror.InternalServerError
	}

	catalog, err := s.Changer.StatusRepo.FindAll(true)
	if err != nil {
		log.Errorf("failed to fetch catalog: %v", err)
		return nil, apierror.InternalServerError
	}
	byID := statusIDs(catalog)

	resp := make([]*contract.ProcessResponse, len(processes))
	for i, p := range processes {
		var current *entity.CaseStatus
		if p.CaseStatusID != nil {
			current = byID[*p.CaseStatusID]
		}
		resp[i] = toProcessResponse(p, current)
	}
	return resp, nil
}

func (s *DefaultCaseService) CreateCollectiveProcess(actor *entity.User, req *contract.CreateCollectiveProcessRequest) (*contract.CollectiveProcessResponse, apierror.ErrorResponse) {
	if perr := s.Policy.CanManageCases(actor); perr != nil {
		return nil, perr
	}

	utils.Sanitize(req)
	if err := s.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	exists, err := s.CollectiveRepo.ExistsByReference(req.Reference)
	if err != nil {
		log.Errorf("failed to check collective process reference %s: %v", req.Reference, err)
		return nil, apierror.InternalServerError
	}

	if exists {
		return nil, apierror.DuplicateReferenceError
	}

	now := utils.NowUTC()
	process := &entity.CollectiveProcess{
		ID:          uid.Generate(),
		Reference:   req.Reference,
		CompanyName: req.CompanyName,
		CompanyCNPJ: utils.DigitsOnly(req.CompanyCNPJ),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.CollectiveRepo.Save(process); err != nil {
		log.Errorf("actor %d failed to create collective process: %v", actor.ID, err)
		return nil, apierror.InternalServerError
	}

	s.Changer.Activity.Schedule(actor.ID, ActionCollectiveCreated, entity.EntityCollectiveProcess, process.ID, map[string]any{
		"reference": process.Reference,
	})
	return toCollectiveResponse(process), nil
}
