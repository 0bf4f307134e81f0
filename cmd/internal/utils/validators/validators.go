package validators

import (
	"reflect"
	"regexp"

	"casetrack/cmd/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

var (
	hasSpaces  = regexp.MustCompile(`\s+`)
	statusCode = regexp.MustCompile(`^[a-z][a-z0-9]*(_[a-z0-9]+)*$`)
)

// Register binds every custom tag used by the request contracts.
func Register(v *validator.Validate) {
	must(v.RegisterValidation("nospaces", NoWhiteSpaces))
	must(v.RegisterValidation("nodupes", NoDupes))
	must(v.RegisterValidation("statuscode", StatusCode))
	must(v.RegisterValidation("cnpj", CNPJ))
}

func New() *validator.Validate {
	v := validator.New()
	Register(v)
	return v
}

// NoWhiteSpaces returns false if the string contains any whitespace (rejecting the user input).
func NoWhiteSpaces(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}
	return !hasSpaces.MatchString(field.String())
}

func NoDupes(fl validator.FieldLevel) bool {
	slice := fl.Field()
	if slice.Kind() != reflect.Slice {
		log.Warnf("validator 'nodupes' applied to non-slice type: %s", slice.Kind().String())
		return false
	}

	length := slice.Len()
	seen := make(map[any]bool, length)
	for i := 0; i < length; i++ {
		val := slice.Index(i).Interface()
		if seen[val] {
			return false
		}
		seen[val] = true
	}
	return true
}

// StatusCode accepts lower snake case identifiers like "em_preparacao".
func StatusCode(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}
	return statusCode.MatchString(field.String())
}

// CNPJ accepts both the masked and the raw form.
func CNPJ(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}
	return ValidCNPJ(utils.DigitsOnly(field.String()))
}

func must(err error) {
	if err != nil {
		log.Fatalf("failed to register validator: %v", err)
	}
}
