package handler

import (
	"net/http"

	"casetrack/cmd/internal/contract"
	"casetrack/cmd/internal/domain/entity"
	"casetrack/cmd/internal/utils"
	"casetrack/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type BulkService interface {
	UpdateStatus(actor *entity.User, req *contract.BulkStatusRequest) (*contract.BulkResult, apierror.ErrorResponse)
	CreatePeople(actor *entity.User, req *contract.BulkPeopleRequest) (*contract.BulkResult, apierror.ErrorResponse)
	CreateProcesses(actor *entity.User, req *contract.BulkProcessesRequest) (*contract.BulkResult, apierror.ErrorResponse)
}

// DefaultBulkRoute answers 200 even when some items failed; the per-item
// outcome is in the body.
type DefaultBulkRoute struct {
	BulkService BulkService
}

func NewBulkDefault(bulkService BulkService) *DefaultBulkRoute {
	return &DefaultBulkRoute{BulkService: bulkService}
}

func (b *DefaultBulkRoute) UpdateStatus(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.BulkStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	result, apierr := b.BulkService.UpdateStatus(user, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, result)
}

func (b *DefaultBulkRoute) CreatePeople(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.BulkPeopleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	result, apierr := b.BulkService.CreatePeople(user, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, result)
}

func (b *DefaultBulkRoute) CreateCases(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.BulkProcessesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	result, apierr := b.BulkService.CreateProcesses(user, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, result)
}
