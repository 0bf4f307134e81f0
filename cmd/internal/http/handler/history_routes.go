package handler

import (
	"net/http"

	"casetrack/cmd/internal/contract"
	"casetrack/cmd/internal/domain/entity"
	"casetrack/cmd/internal/utils"
	"casetrack/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type StatusHistoryService interface {
	List(actor *entity.User, caseID int64) ([]*contract.StatusHistoryResponse, apierror.ErrorResponse)
	GetActive(actor *entity.User, caseID int64) (*contract.StatusHistoryResponse, apierror.ErrorResponse)
	GetHistory(actor *entity.User, caseID int64) ([]*contract.StatusHistoryResponse, apierror.ErrorResponse)
	Add(actor *entity.User, caseID int64, req *contract.AddStatusRequest) (*contract.StatusHistoryResponse, apierror.ErrorResponse)
	Update(actor *entity.User, rowID int64, req *contract.UpdateStatusRequest) (*contract.StatusHistoryResponse, apierror.ErrorResponse)
	Delete(actor *entity.User, rowID int64) apierror.ErrorResponse
}

type DefaultHistoryRoute struct {
	HistoryService StatusHistoryService
}

func NewHistoryDefault(historyService StatusHistoryService) *DefaultHistoryRoute {
	return &DefaultHistoryRoute{HistoryService: historyService}
}

func (h *DefaultHistoryRoute) ListStatuses(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	caseID, perr := paramID(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	rows, apierr := h.HistoryService.List(user, caseID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"statuses": rows}
	return c.JSON(http.StatusOK, &resp)
}

func (h *DefaultHistoryRoute) GetActiveStatus(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	caseID, perr := paramID(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	row, apierr := h.HistoryService.GetActive(user, caseID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"status": row}
	return c.JSON(http.StatusOK, &resp)
}

func (h *DefaultHistoryRoute) GetStatusHistory(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	caseID, perr := paramID(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	rows, apierr := h.HistoryService.GetHistory(user, caseID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"history": rows}
	return c.JSON(http.StatusOK, &resp)
}

func (h *DefaultHistoryRoute) AddStatus(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	caseID, perr := paramID(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	var req contract.AddStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	row, apierr := h.HistoryService.Add(user, caseID, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, row)
}

func (h *DefaultHistoryRoute) UpdateStatus(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	rowID, perr := paramID(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	var req contract.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	row, apierr := h.HistoryService.Update(user, rowID, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, row)
}

func (h *DefaultHistoryRoute) DeleteStatus(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	rowID, perr := paramID(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	if apierr := h.HistoryService.Delete(user, rowID); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusNoContent)
}
