package common

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct checks struct tags and converts failures into a validation
// AppError whose details name the offending fields.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &AppError{Code: CodeValidation, Message: "invalid request", HTTPStatus: http.StatusBadRequest, Err: err}
	}
	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[strings.ToLower(fe.Field())] = fe.Tag()
	}
	return &AppError{
		Code:       CodeValidation,
		Message:    "invalid request",
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
		Details:    details,
	}
}
