package utils

import (
	"casetrack/cmd/internal/domain/entity"
	"casetrack/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// Keys the auth middleware stores on the echo context.
const (
	ContextUser   = "user"
	ContextClaims = "claims"
)

func GetUserFromContext(c echo.Context) (*entity.User, apierror.ErrorResponse) {
	user, ok := c.Get(ContextUser).(*entity.User)
	if !ok || user == nil {
		log.Warnf("route %s reached without an authenticated user", c.Path())
		return nil, apierror.UnauthorizedError
	}
	return user, nil
}

func GetClaimsFromContext(c echo.Context) (*Claims, apierror.ErrorResponse) {
	claims, ok := c.Get(ContextClaims).(*Claims)
	if !ok || claims == nil {
		return nil, apierror.InvalidAuthTokenError
	}
	return claims, nil
}
