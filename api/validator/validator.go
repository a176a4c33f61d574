package validator

import (
	"github.com/go-playground/validator/v10"
)

// Validator wraps the underlying validator library behind the small
// surface the API handlers need.
type Validator struct {
	cli *validator.Validate
}

// ValidationError represents an error encountered during validation of
// a struct field.
type ValidationError struct {
	Field   string
	Message interface{}
}

// ValidateStruct validates the provided struct against its `validate`
// tags and returns one ValidationError per failing field.
func (v *Validator) ValidateStruct(s interface{}) []ValidationError {
	err := v.cli.Struct(s)
	if err == nil {
		return nil
	}

	errors := make([]ValidationError, 0)
	for _, err := range err.(validator.ValidationErrors) {
		errors = append(errors, ValidationError{
			Field:   err.StructField(),
			Message: err.Error(),
		})
	}
	return errors
}

// New initializes and returns a new instance of the Validator.
func New() *Validator {
	return &Validator{
		cli: validator.New(validator.WithRequiredStructEnabled()),
	}
}
