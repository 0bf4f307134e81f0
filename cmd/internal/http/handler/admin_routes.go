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

type ActivityService interface {
	List(actor *entity.User, entityType string, entityID int64, limit int) ([]*contract.ActivityResponse, apierror.ErrorResponse)
}

type MigrationService interface {
	List(actor *entity.User) ([]*contract.MigrationResponse, apierror.ErrorResponse)
	Run(actor *entity.User) (*contract.MigrationRunResponse, apierror.ErrorResponse)
}

type DefaultAdminRoute struct {
	ActivityService  ActivityService
	MigrationService MigrationService
}

func NewAdminDefault(activityService ActivityService, migrationService MigrationService) *DefaultAdminRoute {
	return &DefaultAdminRoute{
		ActivityService:  activityService,
		MigrationService: migrationService,
	}
}

func (a *DefaultAdminRoute) GetActivity(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	entityType := strings.TrimSpace(c.QueryParam("entity_type"))

	var entityID int64
	if raw := c.QueryParam("entity_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("entity_id", "int64"))
		}
		entityID = id
	}

	var limit int
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("limit", "int"))
		}
		limit = n
	}

	entries, apierr := a.ActivityService.List(user, entityType, entityID, limit)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"activity": entries}
	return c.JSON(http.StatusOK, &resp)
}

func (a *DefaultAdminRoute) GetMigrations(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	records, apierr := a.MigrationService.List(user)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"migrations": records}
	return c.JSON(http.StatusOK, &resp)
}

func (a *DefaultAdminRoute) RunMigrations(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	report, apierr := a.MigrationService.Run(user)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, report)
}
