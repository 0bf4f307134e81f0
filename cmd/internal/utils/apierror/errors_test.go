package apierror

import (
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSimple_DerivesKindFromStatus(t *testing.T) {
	assert.Equal(t, KindNotFound, NewSimple(http.StatusNotFound, "x").Kind)
	assert.Equal(t, KindForbidden, NewSimple(http.StatusForbidden, "x").Kind)
	assert.Equal(t, KindInternal, NewSimple(http.StatusTeapot, "x").Kind)
	assert.Equal(t, "status 7", NewSimple(http.StatusBadRequest, "status %d", 7).Message)
}

func TestNewInvalidTransitionError(t *testing.T) {
	err := NewInvalidTransitionError("", "deferido")

	assert.Equal(t, http.StatusUnprocessableEntity, err.Code())
	assert.Equal(t, KindInvalidTransition, KindOf(err))
	assert.Contains(t, err.Message, "(none)")
}

func TestFromValidationError(t *testing.T) {
	type req struct {
		Code string `validate:"required"`
		Name string `validate:"min=3"`
	}

	verr := validator.New().Struct(&req{Name: "ab"})
	structured := FromValidationError(verr)
	require.NotNil(t, structured)

	assert.Equal(t, http.StatusBadRequest, structured.Code())
	assert.Equal(t, []string{"This field is required"}, structured.Errors["code"])
	assert.Equal(t, KindValidation, KindOf(structured))
	assert.Contains(t, MessageOf(structured), "name: Value is too short, min: 3")
}

func TestFromValidationError_IgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, FromValidationError(assert.AnError))
}
