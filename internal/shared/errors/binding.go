package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FromBindingError converts a gin binding failure into a 400 problem.
// Validator failures carry per-field messages; decode failures become a bad request.
func FromBindingError(err error) ProblemDetail {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make(map[string]string, len(validationErrs))
		for _, fe := range validationErrs {
			fields[jsonFieldName(fe)] = fieldMessage(fe)
		}
		return NewValidationProblem(fields).WithDetail("request body failed validation")
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return NewValidationProblem(map[string]string{
			typeErr.Field: fmt.Sprintf("must be a %s", typeErr.Type.String()),
		}).WithDetail("request body has a field of the wrong type")
	}
	return ErrBadRequest.WithDetail(err.Error())
}

func jsonFieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return fe.Namespace()
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
