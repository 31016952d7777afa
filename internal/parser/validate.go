package parser

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/yourusername/mat-rankings/internal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("resulttype", func(fl validator.FieldLevel) bool {
		return models.ResultType(fl.Field().String()).IsValid()
	})
	return v
}

// Validate checks that a parsed record is complete enough to be rated
func Validate(record *models.MatchRecord) error {
	if record == nil {
		return fmt.Errorf("match record is nil")
	}

	if err := validate.Struct(record); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	if strings.TrimSpace(record.Winner.FirstName) == "" || strings.TrimSpace(record.Loser.FirstName) == "" {
		return fmt.Errorf("match validation failed: blank participant name")
	}

	return nil
}

func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	msgs := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		switch fieldError.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fieldError.Namespace()))
		case "resulttype":
			msgs = append(msgs, fmt.Sprintf("%s has unknown result type %q", fieldError.Namespace(), fieldError.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fieldError.Namespace(), fieldError.Tag()))
		}
	}
	return fmt.Errorf("match validation failed: %s", strings.Join(msgs, "; "))
}
