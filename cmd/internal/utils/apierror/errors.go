package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse abstracts all API error responses to the user.
//
// This interface does not implement `error`, since its only purpose
// is to be used for API responses and not for logging circumstances.
//
// In general, the whole ErrorResponse can be sent for serialization.
type ErrorResponse interface {
	// Code is the HTTP status code to be returned.
	Code() int
}

// Kind is the machine readable category of an error, stable across messages.
type Kind string

const (
	KindBadRequest           Kind = "BAD_REQUEST"
	KindValidation           Kind = "VALIDATION"
	KindNotFound             Kind = "NOT_FOUND"
	KindConflict             Kind = "CONFLICT"
	KindInUse                Kind = "IN_USE"
	KindInvalidTransition    Kind = "INVALID_TRANSITION"
	KindIllegalStateDeletion Kind = "ILLEGAL_STATE_DELETION"
	KindUnauthorized         Kind = "UNAUTHORIZED"
	KindForbidden            Kind = "FORBIDDEN"
	KindInternal             Kind = "INTERNAL"
)

type APIError struct {
	Kind    Kind   `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (a *APIError) Code() int {
	return a.Status
}

type StructuredError struct {
	Errors map[string][]string `json:"errors"`
	Status int                 `json:"-"`
}

func (s *StructuredError) Code() int {
	return s.Status
}

func (s *StructuredError) Add(field, problem string) {
	s.Errors[field] = append(s.Errors[field], problem)
}

var (
	MalformedBodyError  = NewSimple(http.StatusBadRequest, "Malformed JSON body")
	InternalServerError = NewSimple(http.StatusInternalServerError, "Internal server error")

	NotFoundError  = NewSimple(http.StatusNotFound, "Resource not found")
	InvalidIDError = NewSimple(http.StatusBadRequest, "The provided ID is invalid, IDs are int64 > 0")

	/*
	 * Used for authentications
	 */
	UnauthorizedError     = NewSimple(http.StatusUnauthorized, "Authentication required")
	InvalidAuthTokenError = NewSimple(http.StatusUnauthorized, "Invalid or expired authentication token")
	UserNotFoundError     = NewSimple(http.StatusUnauthorized, "User profile not found")
	MissingAccessError    = NewSimple(http.StatusForbidden, "Missing access")
	AdminRequiredError    = NewKind(http.StatusForbidden, KindUnauthorized, "Administrator privileges are required")

	/*
	 * Status workflow
	 */
	DuplicateCodeError        = NewKind(http.StatusConflict, KindConflict, "A case status with this code already exists")
	DuplicateOrderNumberError = NewKind(http.StatusConflict, KindConflict, "Another case status already holds this order number")
	StatusInUseError          = NewKind(http.StatusConflict, KindInUse, "Case status is referenced by one or more cases")
	ActiveStatusDeletionError = NewKind(http.StatusConflict, KindIllegalStateDeletion, "The active status of a case cannot be deleted, supersede or deactivate it first")
	ConcurrentUpdateError     = NewKind(http.StatusConflict, KindConflict, "The case was modified concurrently, reload and try again")
	DuplicateReferenceError   = NewKind(http.StatusConflict, KindConflict, "A collective process with this reference already exists")
)

func FromValidationError(err error) *StructuredError {
	var ve validator.ValidationErrors
	ok := errors.As(err, &ve)
	if !ok {
		return nil
	}

	problems := map[string][]string{}
	for _, fe := range ve {
		field := strings.ToLower(fe.Field())

		switch fe.Tag() {
		case "required":
			problems[field] = append(problems[field], "This field is required")
		case "min":
			problems[field] = append(problems[field], "Value is too short, min: "+fe.Param())
		case "max":
			problems[field] = append(problems[field], "Value is too long, max: "+fe.Param())
		case "email":
			problems[field] = append(problems[field], "Value must be a valid email address")
		case "statuscode":
			problems[field] = append(problems[field], "Value must be a lower snake case code, e.g. em_preparacao")
		case "hexcolor":
			problems[field] = append(problems[field], "Value must be a hex color, e.g. #3B82F6")
		case "nodupes":
			problems[field] = append(problems[field], "Value must not contain duplicates")
		case "nospaces":
			problems[field] = append(problems[field], "Value must not contain whitespaces")
		case "cnpj":
			problems[field] = append(problems[field], "Value must be a valid CNPJ (14 digits)")

		default:
			problems[field] = append(problems[field], "Invalid value provided")
		}
	}

	return &StructuredError{
		Errors: problems,
		Status: http.StatusBadRequest,
	}
}

// KindOf extracts the Kind of any ErrorResponse.
func KindOf(resp ErrorResponse) Kind {
	switch e := resp.(type) {
	case *APIError:
		return e.Kind
	case *StructuredError:
		return KindValidation
	default:
		return kindFor(resp.Code())
	}
}

// MessageOf renders a one line description of any ErrorResponse.
func MessageOf(resp ErrorResponse) string {
	switch e := resp.(type) {
	case *APIError:
		return e.Message
	case *StructuredError:
		parts := make([]string, 0, len(e.Errors))
		for field, problems := range e.Errors {
			parts = append(parts, field+": "+strings.Join(problems, ", "))
		}
		return strings.Join(parts, "; ")
	default:
		return http.StatusText(resp.Code())
	}
}

func NewSimple(status int, msg string, args ...any) *APIError {
	return NewKind(status, kindFor(status), msg, args...)
}

func NewKind(status int, kind Kind, msg string, args ...any) *APIError {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return &APIError{Kind: kind, Status: status, Message: msg}
}

func NewStructured(code int) *StructuredError {
	return &StructuredError{
		Errors: make(map[string][]string),
		Status: code,
	}
}

func NewNotFoundError(resource string, id any) *APIError {
	return NewSimple(http.StatusNotFound, "%s '%v' not found", resource, id)
}

func NewInvalidTransitionError(from, to string) *APIError {
	if from == "" {
		from = "(none)"
	}
	return NewKind(http.StatusUnprocessableEntity, KindInvalidTransition,
		"Status transition from '%s' to '%s' is not allowed", from, to)
}

func NewUnknownStatusCodesError(codes []string) *APIError {
	return NewSimple(http.StatusNotFound, "Unknown case status codes: %s", strings.Join(codes, ", "))
}

// NewSelfTransitionError reports an entry listing its own code as a next status.
func NewSelfTransitionError(code string) *StructuredError {
	s := NewStructured(http.StatusBadRequest)
	s.Add("allowed_next", fmt.Sprintf("a status cannot follow itself, remove '%s'", code))
	return s
}

func NewPermissionError(perm int64) *APIError {
	return NewSimple(http.StatusForbidden, "Missing permission: %d", perm)
}

func NewForbiddenError(msg string) *APIError {
	return NewSimple(http.StatusForbidden, msg)
}

func NewInvalidParamTypeError(name, dataType string) *APIError {
	return NewSimple(http.StatusBadRequest, "Parameter '%s' has invalid type, expected: %s", name, dataType)
}

func NewMissingParamError(name string) *APIError {
	return NewSimple(http.StatusBadRequest, "Missing required parameter '%s'", name)
}

func kindFor(status int) Kind {
	switch status {
	case http.StatusBadRequest:
		return KindBadRequest
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	default:
		return KindInternal
	}
}
