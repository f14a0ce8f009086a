package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/ojtetr/tracker/internal/app/models"
)

// Limits shared by request DTOs
const (
	PasswordMinLength = 6
	NameMaxLength     = 100
	TitleMaxLength    = 200
)

// Allowed upload types
var (
	DocumentMIMETypes = map[string]bool{
		"application/pdf":    true,
		"image/jpeg":         true,
		"image/png":          true,
		"application/msword": true,
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	}

	ImageMIMETypes = map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
	}
)

// RegisterRules adds the workflow-specific tags to v
func RegisterRules(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"doctype": func(fl validator.FieldLevel) bool {
			return models.DocType(fl.Field().String()).IsValid()
		},
		"docstatus": func(fl validator.FieldLevel) bool {
			return models.DocumentStatus(fl.Field().String()).IsValid()
		},
		"overallstatus": func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || models.OverallStatus(s).IsValid()
		},
	}

	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s rule: %w", tag, err)
		}
	}
	return nil
}

// New returns a validator with the workflow rules registered
func New() *validator.Validate {
	v := validator.New()
	if err := RegisterRules(v); err != nil {
		panic(err)
	}
	return v
}
