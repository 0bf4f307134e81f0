package handler

import (
	"net/http"
	"strconv"
	"strings"

	"casetrack/cmd/internal/contract"
	"casetrack/cmd/internal/domain/entity"
	"casetrack/cmd/internal/utils"
	"casetrack/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

// noOrderNumber asks for the successor of a status outside the sequence.
const noOrderNumber = "none"

type CaseStatusService interface {
	List(actor *entity.User, includeInactive bool) ([]*contract.CaseStatusResponse, apierror.ErrorResponse)
	ListActive(actor *entity.User) ([]*contract.CaseStatusResponse, apierror.ErrorResponse)
	GetByCategory(actor *entity.User, category string) ([]*contract.CaseStatusResponse, apierror.ErrorResponse)
	GetByID(actor *entity.User, id int64) (*contract.CaseStatusResponse, apierror.ErrorResponse)
	GetByCode(actor *entity.User, code string) (*contract.CaseStatusResponse, apierror.ErrorResponse)
	GetByOrderNumber(actor *entity.User, orderNumber int) (*contract.CaseStatusResponse, apierror.ErrorResponse)
	GetNextByOrderNumber(actor *entity.User, current *int) (*contract.CaseStatusResponse, apierror.ErrorResponse)
	Transitions(actor *entity.User) (*contract.TransitionsResponse, apierror.ErrorResponse)
	Create(actor *entity.User, req *contract.CreateCaseStatusRequest) (*contract.CaseStatusResponse, apierror.ErrorResponse)
	Update(actor *entity.User, id int64, req *contract.UpdateCaseStatusRequest) (*contract.CaseStatusResponse, apierror.ErrorResponse)
	Remove(actor *entity.User, id int64) apierror.ErrorResponse
	ToggleActive(actor *entity.User, id int64, req *contract.ToggleCaseStatusRequest) (*contract.CaseStatusResponse, apierror.ErrorResponse)
	Reorder(actor *entity.User, req *contract.ReorderRequest) (*contract.BulkResult, apierror.ErrorResponse)
}

type DefaultCaseStatusRoute struct {
	CaseStatusService CaseStatusService
}

func NewCaseStatusDefault(caseStatusService CaseStatusService) *DefaultCaseStatusRoute {
	return &DefaultCaseStatusRoute{CaseStatusService: caseStatusService}
}

func (r *DefaultCaseStatusRoute) GetStatuses(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var statuses []*contract.CaseStatusResponse
	var apierr apierror.ErrorResponse
	if category := strings.TrimSpace(c.QueryParam("category")); category != "" {
		statuses, apierr = r.CaseStatusService.GetByCategory(user, category)
	} else {
		includeInactive, _ := strconv.ParseBool(c.QueryParam("include_inactive"))
		statuses, apierr = r.CaseStatusService.List(user, includeInactive)
	}

	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"statuses": statuses}
	return c.JSON(http.StatusOK, &resp)
}

func (r *DefaultCaseStatusRoute) GetActiveStatuses(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	statuses, apierr := r.CaseStatusService.ListActive(user)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"statuses": statuses}
	return c.JSON(http.StatusOK, &resp)
}

func (r *DefaultCaseStatusRoute) GetStatus(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, perr := paramID(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	status, apierr := r.CaseStatusService.GetByID(user, id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, status)
}

func (r *DefaultCaseStatusRoute) GetStatusByCode(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("code"))
	}

	status, apierr := r.CaseStatusService.GetByCode(user, code)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, status)
}

func (r *DefaultCaseStatusRoute) GetStatusByOrderNumber(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	n, err := strconv.Atoi(c.Param("n"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("n", "int"))
	}

	status, apierr := r.CaseStatusService.GetByOrderNumber(user, n)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, status)
}

// GetNextStatus answers with a null status when there is no deterministic successor.
func (r *DefaultCaseStatusRoute) GetNextStatus(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var current *int
	if raw := c.Param("n"); raw != noOrderNumber {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("n", "int"))
		}
		current = &n
	}

	next, apierr := r.CaseStatusService.GetNextByOrderNumber(user, current)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"status": next}
	return c.JSON(http.StatusOK, &resp)
}

func (r *DefaultCaseStatusRoute) GetTransitions(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	transitions, apierr := r.CaseStatusService.Transitions(user)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, transitions)
}

func (r *DefaultCaseStatusRoute) CreateStatus(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.CreateCaseStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	status, apierr := r.CaseStatusService.Create(user, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, status)
}

func (r *DefaultCaseStatusRoute) UpdateStatus(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, perr := paramID(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	var req contract.UpdateCaseStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	status, apierr := r.CaseStatusService.Update(user, id, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, status)
}

func (r *DefaultCaseStatusRoute) DeleteStatus(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, perr := paramID(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	if apierr := r.CaseStatusService.Remove(user, id); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusNoContent)
}

func (r *DefaultCaseStatusRoute) ToggleStatus(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, perr := paramID(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	var req contract.ToggleCaseStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	status, apierr := r.CaseStatusService.ToggleActive(user, id, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, status)
}

func (r *DefaultCaseStatusRoute) ReorderStatuses(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.ReorderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	result, apierr := r.CaseStatusService.Reorder(user, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, result)
}
