package security

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/medihort/medihort-ai/internal/domain/chat"
	apperrors "github.com/medihort/medihort-ai/pkg/errors"
)

var scriptPattern = regexp.MustCompile(`(?i)<\s*/?\s*script|javascript:|on\w+\s*=`)

// Validator validates request payloads with struct tags
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator with the custom rules registered
func NewValidator() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	_ = validate.RegisterValidation("chat_role", validateChatRole)
	_ = validate.RegisterValidation("no_xss", validateNoXSS)
	_ = validate.RegisterValidation("printable", validatePrintable)

	return &Validator{validate: validate}
}

// Struct validates s and converts failures into a validation AppError
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError(err.Error())
	}

	out := make([]apperrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, apperrors.ValidationError{
			Field:   fe.Field(),
			Value:   fe.Value(),
			Tag:     fe.Tag(),
			Message: fieldMessage(fe),
		})
	}
	return apperrors.NewValidationErrors(out)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "chat_role":
		return fmt.Sprintf("%s must be user or assistant", fe.Field())
	case "no_xss":
		return fmt.Sprintf("%s contains markup that is not allowed", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func validateChatRole(fl validator.FieldLevel) bool {
	return chat.Role(fl.Field().String()).Valid()
}

func validateNoXSS(fl validator.FieldLevel) bool {
	return !scriptPattern.MatchString(fl.Field().String())
}

// validatePrintable rejects control characters other than common whitespace
func validatePrintable(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return false
		}
	}
	return true
}
