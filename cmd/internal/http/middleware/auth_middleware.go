package middleware

import (
	"net/http"

	"casetrack/cmd/internal/domain/entity"
	"casetrack/cmd/internal/utils"
	"casetrack/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type UserRepository interface {
	FindActiveBySub(sub string) (*entity.User, error)
}

// TokenValidator turns an Authorization header into verified claims.
type TokenValidator func(header string) (*utils.Claims, error)

type AuthMiddlewareConfig struct {
	UserRepo UserRepository
	Validate TokenValidator
}

// NewAuthMiddleware resolves the caller's profile from the bearer token.
// Only active profiles get through.
func NewAuthMiddleware(cfg *AuthMiddlewareConfig) echo.MiddlewareFunc {
	validate := cfg.Validate
	if validate == nil {
		validate = utils.ValidateToken
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := validate(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				log.Debugf("rejected token on %s: %v", c.Path(), err)
				return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
			}

			user, err := cfg.UserRepo.FindActiveBySub(claims.Subject)
			if err != nil {
				log.Errorf("failed to load user for sub %s: %v", claims.Subject, err)
				return c.JSON(http.StatusInternalServerError, apierror.InternalServerError)
			}

			if user == nil {
				return c.JSON(http.StatusUnauthorized, apierror.UserNotFoundError)
			}

			c.Set(utils.ContextUser, user)
			c.Set(utils.ContextClaims, claims)
			return next(c)
		}
	}
}
