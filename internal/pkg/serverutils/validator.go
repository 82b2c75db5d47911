package serverutils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest runs struct tag validation and converts failures into
// a 400 ApiError with per-field messages.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return NewValidationError("Invalid request", nil)
	}

	fieldErrs := make(map[string]string, len(validationErrs))
	for _, fe := range validationErrs {
		fieldErrs[strings.ToLower(fe.Field())] = validationMessage(fe)
	}
	return NewValidationError("Validation failed", fieldErrs)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "uuid":
		return "must be a valid uuid"
	default:
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
}
