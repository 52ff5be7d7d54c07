package models

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks struct tags and folds failures into ErrInvalidInput.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		var validationErr validator.ValidationErrors
		if errors.As(err, &validationErr) {
			first := validationErr[0]
			switch first.Field() {
			case "Email":
				return fmt.Errorf("%w: invalid email format", ErrInvalidInput)
			case "Password":
				return fmt.Errorf("%w: password must be 1-72 characters", ErrInvalidInput)
			case "ImageURL":
				return fmt.Errorf("%w: image must be a valid URL", ErrInvalidInput)
			}
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
