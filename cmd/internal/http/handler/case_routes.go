package handler

import (
	"net/http"
	"strings"

	"casetrack/cmd/internal/contract"
	"casetrack/cmd/internal/domain/entity"
	"casetrack/cmd/internal/utils"
	"casetrack/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type CaseService interface {
	CreatePerson(actor *entity.User, req *contract.CreatePersonRequest) (*contract.PersonResponse, apierror.ErrorResponse)
	ListPeople(actor *entity.User) ([]*contract.PersonResponse, apierror.ErrorResponse)
	CreateProcess(actor *entity.User, req *contract.CreateProcessRequest) (*contract.ProcessResponse, apierror.ErrorResponse)
	GetProcess(actor *entity.User, id int64) (*contract.ProcessResponse, apierror.ErrorResponse)
	ListProcesses(actor *entity.User, statusCode string) ([]*contract.ProcessResponse, apierror.ErrorResponse)
	CreateCollectiveProcess(actor *entity.User, req *contract.CreateCollectiveProcessRequest) (*contract.CollectiveProcessResponse, apierror.ErrorResponse)
}

type DefaultCaseRoute struct {
	CaseService CaseService
}

func NewCaseDefault(caseService CaseService) *DefaultCaseRoute {
	return &DefaultCaseRoute{CaseService: caseService}
}

func (r *DefaultCaseRoute) CreatePerson(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.CreatePersonRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	person, apierr := r.CaseService.CreatePerson(user, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, person)
}

func (r *DefaultCaseRoute) GetPeople(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	people, apierr := r.CaseService.ListPeople(user)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"people": people}
	return c.JSON(http.StatusOK, &resp)
}

func (r *DefaultCaseRoute) CreateCase(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.CreateProcessRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	process, apierr := r.CaseService.CreateProcess(user, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, process)
}

func (r *DefaultCaseRoute) GetCase(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, perr := paramID(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	process, apierr := r.CaseService.GetProcess(user, id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, process)
}

func (r *DefaultCaseRoute) GetCases(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	status := strings.TrimSpace(c.QueryParam("status"))
	processes, apierr := r.CaseService.ListProcesses(user, status)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"cases": processes}
	return c.JSON(http.StatusOK, &resp)
}

func (r *DefaultCaseRoute) CreateCollectiveProcess(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.CreateCollectiveProcessRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	process, apierr := r.CaseService.CreateCollectiveProcess(user, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, process)
}
