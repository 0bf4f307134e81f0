package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"casetrack/cmd/internal/domain/entity"
	"casetrack/cmd/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type usersBySub map[string]*entity.User

func (u usersBySub) FindActiveBySub(sub string) (*entity.User, error) {
	if sub == "broken" {
		return nil, errors.New("database closed")
	}
	return u[sub], nil
}

func fakeValidator(header string) (*utils.Claims, error) {
	if header == "" {
		return nil, errors.New("missing token")
	}
	return &utils.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: header}}, nil
}

func TestAuthMiddleware(t *testing.T) {
	users := usersBySub{"sub-1": {ID: 1, SubUUID: "sub-1", Active: true}}
	auth := NewAuthMiddleware(&AuthMiddlewareConfig{UserRepo: users, Validate: fakeValidator})

	handler := auth(func(c echo.Context) error {
		user, cerr := utils.GetUserFromContext(c)
		if cerr != nil {
			return c.JSON(cerr.Code(), cerr)
		}

		claims, cerr := utils.GetClaimsFromContext(c)
		if cerr != nil {
			return c.JSON(cerr.Code(), cerr)
		}
		assert.Equal(t, user.SubUUID, claims.Subject)
		return c.NoContent(http.StatusOK)
	})

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"unknown profile", "sub-2", http.StatusUnauthorized},
		{"repository failure", "broken", http.StatusInternalServerError},
		{"known profile", "sub-1", http.StatusOK},
	}

	e := echo.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/cases", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()

			require.NoError(t, handler(e.NewContext(req, rec)))
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}
