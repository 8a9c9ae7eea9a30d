package web

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NotBlank rejects strings that consist of whitespace only.
var NotBlank validator.Func = func(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(s) != ""
	}

	return false
}

// GetErrorMsg returns the message suffix for the failed validation tag.
func GetErrorMsg(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return " field is required"
	case "notblank":
		return " must not be blank"
	case "min":
		return " must be at least " + fe.Param() + " characters long"
	case "max":
		return " must be at most " + fe.Param() + " characters long"
	case "gte":
		return " must be greater than or equal to " + fe.Param()
	case "lte":
		return " must be less than or equal to " + fe.Param()
	case "oneof":
		return " must be one of [" + fe.Param() + "]"
	case "numeric":
		return " must be numeric"
	case "uuid":
		return " must be a valid UUID"
	}

	return " is invalid"
}

// BindingErrorMsg renders the first validation failure of err, or the raw
// decoding error when err is not a validation error.
func BindingErrorMsg(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		field := ve[0]
		return field.Field() + GetErrorMsg(field)
	}

	return err.Error()
}
