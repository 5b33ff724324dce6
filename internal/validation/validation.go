// Package validation turns struct-tag validation failures into
// VALIDATION_ERROR responses with human readable messages.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ayush/pinboard/backend/internal/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// fieldLabels maps struct field names to the labels used in messages.
var fieldLabels = map[string]string{
	"FirstName":       "First Name",
	"UserName":        "Username",
	"Email":           "Email",
	"Password":        "Password",
	"PasswordConfirm": "Password Confirmation",
	"Title":           "Title",
	"ImageURL":        "Image URL",
}

// Struct validates v and returns the first failure as a *models.AppError.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return models.NewValidationError(err.Error())
	}
	return models.NewValidationError(message(fieldErrs[0]))
}

func message(fe validator.FieldError) string {
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return label + " is Required"
	case "email":
		return "Email is invalid"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "eqfield":
		return "Passwords do not match"
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

// NotBlank fails with "<label> is Required" when a provided optional
// value is empty. A nil value passes.
func NotBlank(value *string, label string) error {
	if value != nil && strings.TrimSpace(*value) == "" {
		return models.NewValidationError(label + " is Required")
	}
	return nil
}
