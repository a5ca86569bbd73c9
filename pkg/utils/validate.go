package utils

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func Validate[T any](value T) (T, error) {
	if err := validate.Struct(value); err != nil {
		return value, ValidationErrorToString(value, err)
	}

	return value, nil
}

func ValidationErrorToString(input any, err error) error {
	// Check if the error is a ValidationErrors type
	if verrs, ok := err.(validator.ValidationErrors); ok {
		// Build a custom error message for each field error.
		msg := ""
		for _, fe := range verrs {
			// fe.Tag() contains the validation tag that failed (e.g., "min").
			// fe.Param() contains the parameter for that tag (e.g., "10").
			// fe.Value() contains the actual value provided.
			// fe.StructField() gives the field name.
			msg += fmt.Sprintf("\n • Failed %T validation for field '%s': rule '%s' expected '%s', got '%v'.", input, fe.StructField(), fe.Tag(), fe.Param(), fe.Value())
		}
		return errors.New(msg)
	}

	return err
}
