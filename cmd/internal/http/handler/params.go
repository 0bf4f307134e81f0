package handler

import (
	"strconv"

	"casetrack/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

func paramID(c echo.Context, name string) (int64, apierror.ErrorResponse) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, apierror.NewInvalidParamTypeError(name, "int64")
	}
	return id, nil
}
