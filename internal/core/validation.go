package core

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"hotelcare/pkg/domain"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("nonblank", validateNonBlank)
	_ = validate.RegisterValidation("itemstatus", func(fl validator.FieldLevel) bool {
		return domain.ItemStatus(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		return domain.TaskPriority(fl.Field().String()).Valid()
	})
}

// validateNonBlank rejects strings that are empty after trimming whitespace.
func validateNonBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// checkInput runs struct validation and converts the first failure into a
// ValidationError.
func checkInput(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return ValidationError{Field: fieldErrs[0].Field(), Rule: fieldErrs[0].Tag()}
	}
	return err
}
